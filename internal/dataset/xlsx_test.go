package dataset

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const (
	fixtureWorkbook = `<?xml version="1.0" encoding="UTF-8"?>
<workbook xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships">
<sheets><sheet name="Data" sheetId="1" r:id="rId1"/></sheets></workbook>`
	// Target carries a leading slash: relationship paths are not always
	// ZIP-entry shaped.
	fixtureRels = `<?xml version="1.0" encoding="UTF-8"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/worksheet" Target="/xl/worksheets/sheet1.xml"/></Relationships>`
	fixtureShared = `<?xml version="1.0" encoding="UTF-8"?>
<sst xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main"><si><t>Region</t></si><si><t>Amount</t></si><si><t>North</t></si><si><t>South</t></si></sst>`
	fixtureSheet = `<?xml version="1.0" encoding="UTF-8"?>
<worksheet xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main"><sheetData>
<row r="1"><c r="A1" t="s"><v>0</v></c><c r="B1" t="s"><v>1</v></c></row>
<row r="2"><c r="A2" t="s"><v>2</v></c><c r="B2"><v>10</v></c></row>
<row r="3"><c r="A3" t="s"><v>3</v></c><c r="B3"><v>20</v></c></row>
</sheetData></worksheet>`
)

func writeXLSXFixture(t *testing.T) string {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range map[string]string{
		"xl/workbook.xml":            fixtureWorkbook,
		"xl/_rels/workbook.xml.rels": fixtureRels,
		"xl/sharedStrings.xml":       fixtureShared,
		"xl/worksheets/sheet1.xml":   fixtureSheet,
	} {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("zip create %s: %v", name, err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatalf("zip write %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
	path := filepath.Join(t.TempDir(), "orders.xlsx")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

func TestLoadXLSXByNameAndIndex(t *testing.T) {
	path := writeXLSXFixture(t)

	for _, sel := range []SheetOptions{{Name: "Data"}, {Index: 1}, {}} {
		tab, err := LoadXLSX(path, sel, LoadOptions{})
		if err != nil {
			t.Fatalf("LoadXLSX %+v: %v", sel, err)
		}
		if tab.Name != "orders.xlsx" {
			t.Fatalf("table name = %q", tab.Name)
		}
		wantCols := []string{"Region", "Amount"}
		if len(tab.Columns) != 2 || tab.Columns[0] != wantCols[0] || tab.Columns[1] != wantCols[1] {
			t.Fatalf("columns = %v, want %v", tab.Columns, wantCols)
		}
		if len(tab.Rows) != 2 {
			t.Fatalf("rows = %d, want 2", len(tab.Rows))
		}
		if tab.Rows[0].CellString("Region") != "North" || tab.Rows[0].CellString("Amount") != "10" {
			t.Fatalf("first row = %v", tab.Rows[0])
		}
		if tab.Rows[1].CellString("Region") != "South" || tab.Rows[1].CellString("Amount") != "20" {
			t.Fatalf("second row = %v", tab.Rows[1])
		}
	}
}

func TestLoadXLSXMaxRows(t *testing.T) {
	path := writeXLSXFixture(t)
	tab, err := LoadXLSX(path, SheetOptions{}, LoadOptions{MaxRows: 1})
	if err != nil {
		t.Fatalf("LoadXLSX: %v", err)
	}
	if len(tab.Rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(tab.Rows))
	}
}

func TestLoadXLSXUnknownSheet(t *testing.T) {
	path := writeXLSXFixture(t)
	_, err := LoadXLSX(path, SheetOptions{Name: "Nope"}, LoadOptions{})
	if err == nil || !strings.Contains(err.Error(), "available: Data") {
		t.Fatalf("err = %v, want unknown-sheet error listing sheets", err)
	}
}

func TestNormalizeRelPath(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"/xl/worksheets/sheet1.xml", "xl/worksheets/sheet1.xml"},
		{"xl/worksheets/sheet1.xml", "xl/worksheets/sheet1.xml"},
		{"/worksheets/sheet1.xml", "xl/worksheets/sheet1.xml"},
		{"worksheets/sheet1.xml", "xl/worksheets/sheet1.xml"},
		{"styles.xml", "xl/styles.xml"},
	}
	for _, tt := range tests {
		if got := normalizeRelPath(tt.input); got != tt.expected {
			t.Errorf("normalizeRelPath(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}
