package dataset

import (
	"strings"
	"testing"
)

func TestReadCSVPadsShortRecords(t *testing.T) {
	in := "Region,Amount,Note\nNorth,10,ok\nSouth,20\n"
	tab, err := ReadCSV(strings.NewReader(in), "orders.csv", LoadOptions{})
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	if len(tab.Columns) != 3 || len(tab.Rows) != 2 {
		t.Fatalf("shape = %d cols %d rows", len(tab.Columns), len(tab.Rows))
	}
	if tab.Rows[1].CellString("Note") != "" {
		t.Fatalf("short record not padded: %v", tab.Rows[1])
	}
	if tab.Rows[0].CellString("Amount") != "10" {
		t.Fatalf("first row = %v", tab.Rows[0])
	}
}

func TestReadCSVSemicolonDelimiter(t *testing.T) {
	in := "a;b\n1;2\n"
	tab, err := ReadCSV(strings.NewReader(in), "data.csv", LoadOptions{Delimiter: ';'})
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	if len(tab.Columns) != 2 || tab.Rows[0].CellString("b") != "2" {
		t.Fatalf("semicolon parse failed: %v / %v", tab.Columns, tab.Rows)
	}
}

func TestReadCSVMaxRows(t *testing.T) {
	in := "a\n1\n2\n3\n"
	tab, err := ReadCSV(strings.NewReader(in), "data.csv", LoadOptions{MaxRows: 2})
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	if len(tab.Rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(tab.Rows))
	}
}

func TestReadCSVEmptyInput(t *testing.T) {
	tab, err := ReadCSV(strings.NewReader(""), "empty.csv", LoadOptions{})
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	if len(tab.Columns) != 0 || len(tab.Rows) != 0 {
		t.Fatalf("expected empty table, got %v", tab)
	}
}

func TestSniffDelimiter(t *testing.T) {
	if sniffDelimiter("data.tsv") != '\t' {
		t.Fatal("tsv should sniff tab")
	}
	if sniffDelimiter("data.csv") != ',' {
		t.Fatal("csv should sniff comma")
	}
}

func TestDedupeHeader(t *testing.T) {
	got := dedupeHeader([]string{"a", "", "a", "b", "a"})
	want := []string{"a", "_2", "a_2", "b", "a_3"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("dedupeHeader = %v, want %v", got, want)
		}
	}
}

func TestCellString(t *testing.T) {
	row := Row{"s": "x", "f": 5.0, "frac": 2.5, "i": 7, "nil": nil}
	cases := map[string]string{"s": "x", "f": "5", "frac": "2.5", "i": "7", "nil": "", "absent": ""}
	for col, want := range cases {
		if got := row.CellString(col); got != want {
			t.Fatalf("CellString(%q) = %q, want %q", col, got, want)
		}
	}
}
