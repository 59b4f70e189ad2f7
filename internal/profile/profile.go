// Package profile samples a table and produces per-column descriptors:
// primitive type, completeness, cardinality, placeholder-name and value
// hints. Descriptors are immutable; changing the date format requires
// re-profiling.
package profile

import (
	"regexp"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/KaramelBytes/chartloom-cli/internal/dataset"
	"github.com/KaramelBytes/chartloom-cli/internal/normalize"
)

// sampleLimit caps how many rows the profiler inspects.
const sampleLimit = 500

// Type is a column's inferred primitive type.
type Type string

const (
	TypeNumber Type = "number"
	TypeDate   Type = "date"
	TypeString Type = "string"
	TypeEmpty  Type = "empty"
)

// ValueHint classifies a column's non-empty textual content independent of
// its declared type, so placeholder-named currency or unit columns can be
// told apart from generic dimensions.
type ValueHint string

const (
	HintEmpty         ValueHint = "empty"
	HintCurrencyToken ValueHint = "currencyToken"
	HintUnitToken     ValueHint = "unitToken"
	HintShortCode     ValueHint = "shortCode"
	HintTextual       ValueHint = "textual"
)

// Column describes one profiled column.
type Column struct {
	Name            string
	Type            Type
	UniqueCount     int
	SampleValues    []string
	Completeness    float64
	PlaceholderName bool
	Hint            ValueHint

	// Sample statistics over parseable numeric values.
	NumericCount int
	Min          float64
	Max          float64
	Mean         float64
	Std          float64
}

// Profile is the set of descriptors for one dataset under one date format.
type Profile struct {
	Columns    []Column
	RowCount   int
	DateFormat normalize.DateFormat

	byName map[string]int
}

// Column returns the descriptor for name, or nil when unknown.
func (p *Profile) Column(name string) *Column {
	if p == nil {
		return nil
	}
	if i, ok := p.byName[name]; ok {
		return &p.Columns[i]
	}
	return nil
}

// SampledRows returns how many rows the profiler actually inspected.
func (p *Profile) SampledRows() int {
	if p.RowCount > sampleLimit {
		return sampleLimit
	}
	return p.RowCount
}

// Build profiles the first sampleLimit rows of t.
func Build(t *dataset.Table, dateFormat normalize.DateFormat) *Profile {
	p := &Profile{
		RowCount:   len(t.Rows),
		DateFormat: dateFormat,
		byName:     make(map[string]int, len(t.Columns)),
	}
	sampled := t.Rows
	if len(sampled) > sampleLimit {
		sampled = sampled[:sampleLimit]
	}
	for _, name := range t.Columns {
		col := profileColumn(name, sampled, dateFormat)
		p.byName[name] = len(p.Columns)
		p.Columns = append(p.Columns, col)
	}
	return p
}

func profileColumn(name string, rows []dataset.Row, dateFormat normalize.DateFormat) Column {
	var numCnt, dateCnt, strCnt, emptyCnt int
	uniq := map[string]bool{}
	var samples []string
	var nums []float64
	var nonEmpty []string

	for _, row := range rows {
		raw := row.Cell(name)
		s := row.CellString(name)
		trimmed := strings.TrimSpace(s)
		if raw == nil || trimmed == "" {
			emptyCnt++
			continue
		}
		uniq[trimmed] = true
		nonEmpty = append(nonEmpty, trimmed)
		if len(samples) < 3 && !contains(samples, trimmed) {
			samples = append(samples, trimmed)
		}
		if v, ok := normalize.ParseNumber(raw, normalize.LocaleDefault); ok {
			numCnt++
			nums = append(nums, v)
			continue
		}
		if _, ok := normalize.ParseDate(trimmed, dateFormat); ok {
			dateCnt++
			continue
		}
		strCnt++
	}

	sampledTotal := len(rows)
	col := Column{
		Name:            name,
		Type:            dominantType(numCnt, dateCnt, strCnt, emptyCnt),
		UniqueCount:     len(uniq),
		SampleValues:    samples,
		PlaceholderName: IsPlaceholderName(name),
		Hint:            classifyValues(nonEmpty),
		NumericCount:    len(nums),
	}
	if sampledTotal > 0 {
		col.Completeness = float64(sampledTotal-emptyCnt) / float64(sampledTotal)
	}
	if len(nums) > 0 {
		col.Min = floats.Min(nums)
		col.Max = floats.Max(nums)
		col.Mean = stat.Mean(nums, nil)
		if len(nums) > 1 {
			col.Std = stat.StdDev(nums, nil)
		}
	}
	return col
}

// dominantType picks the most frequent classification; ties break in the
// enumeration order number, date, string, empty.
func dominantType(num, date, str, empty int) Type {
	best, bestType := num, TypeNumber
	if date > best {
		best, bestType = date, TypeDate
	}
	if str > best {
		best, bestType = str, TypeString
	}
	if empty > best {
		bestType = TypeEmpty
	}
	return bestType
}

var placeholderPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^_+\d*$`),
	regexp.MustCompile(`(?i)^col(umn)?[ _]?\d+$`),
	regexp.MustCompile(`(?i)^unnamed([: _]+\d+)?$`),
	regexp.MustCompile(`(?i)^field[ _]?\d+$`),
	regexp.MustCompile(`^\d+$`),
}

// IsPlaceholderName reports whether a header looks auto-generated rather
// than authored ("_1", "col2", "Unnamed: 3", ...).
func IsPlaceholderName(name string) bool {
	name = strings.TrimSpace(name)
	if name == "" {
		return true
	}
	for _, re := range placeholderPatterns {
		if re.MatchString(name) {
			return true
		}
	}
	return false
}

var currencyTokens = map[string]bool{
	"USD": true, "EUR": true, "GBP": true, "JPY": true, "CNY": true,
	"SGD": true, "MYR": true, "IDR": true, "THB": true, "VND": true,
	"PHP": true, "INR": true, "AUD": true, "NZD": true, "HKD": true,
	"TWD": true, "KRW": true, "CHF": true, "CAD": true, "AED": true,
	"SAR": true, "ZAR": true, "BRL": true, "MXN": true, "RM": true,
	"$": true, "€": true, "£": true, "¥": true, "₹": true, "₩": true,
}

var unitTokens = map[string]bool{
	"kg": true, "g": true, "mg": true, "lb": true, "lbs": true, "oz": true,
	"pcs": true, "pc": true, "ea": true, "each": true, "unit": true, "units": true,
	"box": true, "boxes": true, "ctn": true, "carton": true, "cartons": true,
	"m": true, "cm": true, "mm": true, "km": true, "ft": true, "in": true,
	"l": true, "ml": true, "gal": true, "litre": true, "liter": true,
	"hr": true, "hrs": true, "min": true, "day": true, "days": true,
	"set": true, "sets": true, "pair": true, "pairs": true, "roll": true,
	"rolls": true, "bag": true, "bags": true, "btl": true, "dozen": true,
	"pkt": true, "pack": true, "packs": true, "ream": true, "reams": true,
}

// classifyValues hints at what a column's textual content represents.
func classifyValues(values []string) ValueHint {
	if len(values) == 0 {
		return HintEmpty
	}
	distinct := map[string]bool{}
	allCurrency := true
	allUnit := true
	allShort := true
	for _, v := range values {
		distinct[v] = true
		if !currencyTokens[strings.ToUpper(v)] {
			allCurrency = false
		}
		if !unitTokens[strings.ToLower(v)] {
			allUnit = false
		}
		if !isShortCode(v) {
			allShort = false
		}
	}
	switch {
	case allCurrency && len(distinct) <= 12:
		return HintCurrencyToken
	case allUnit:
		return HintUnitToken
	case allShort && len(distinct) <= 25:
		return HintShortCode
	default:
		return HintTextual
	}
}

func isShortCode(v string) bool {
	if len(v) < 1 || len(v) > 3 {
		return false
	}
	for _, r := range v {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z') {
			return false
		}
	}
	return true
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
