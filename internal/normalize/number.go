// Package normalize parses ambiguous textual cell values into numbers and
// dates. All functions signal failure with an ok bool; a bad cell is never
// an error condition.
package normalize

import (
	"math"
	"strconv"
	"strings"
	"unicode"
)

// Locale selects the separator convention for ParseNumber.
type Locale string

const (
	// LocaleDefault treats ',' purely as a thousands separator.
	LocaleDefault Locale = ""
	// LocaleEU decides the decimal separator by comparing the last
	// occurrence of '.' and ','; the later one is decimal. With only one
	// separator type present it is treated as a thousands separator,
	// which is lossy for true decimals (known limitation).
	LocaleEU Locale = "eu"
)

// Runes some spreadsheet exports prepend to force text cells.
var leadingMarkers = map[rune]bool{
	'\'':     true, // apostrophe text marker
	'\u2018': true, // left single quote
	'\u2019': true, // right single quote
	'\u200b': true, // zero-width space
	'\u200c': true,
	'\u200d': true,
	'\u200e': true, // LTR mark
	'\u200f': true,
	'\ufeff': true, // BOM
}

var currencyRunes = map[rune]bool{
	'$': true, '€': true, '£': true, '¥': true, '₹': true,
	'₩': true, '₫': true, '฿': true, '₱': true, '₦': true,
	'₴': true, '₪': true, '¢': true,
}

// ParseNumber reads a raw cell as a number. It accepts pre-coerced float64
// values directly; strings go through trimming, spreadsheet text-marker and
// quote stripping, accounting-style parentheses, currency symbol removal,
// locale separator resolution, and a trailing percent. Alphanumeric codes
// like "SGD" or "A25992" stay non-numeric.
func ParseNumber(cell any, locale Locale) (float64, bool) {
	switch v := cell.(type) {
	case nil:
		return 0, false
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, false
		}
		return v, true
	case int:
		return float64(v), true
	case string:
		return parseNumberString(v, locale)
	default:
		return 0, false
	}
}

func parseNumberString(s string, locale Locale) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	// Leading invisible runes and apostrophe-style text markers.
	for len(s) > 0 {
		r := firstRune(s)
		if !leadingMarkers[r] {
			break
		}
		s = s[runeLen(r):]
	}
	s = strings.TrimSpace(s)
	// One layer of surrounding quotes.
	if len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if (first == '"' && last == '"') || (first == '\'' && last == '\'') {
			s = strings.TrimSpace(s[1 : len(s)-1])
		}
	}
	// Accounting negatives: (1,234) means -1234.
	neg := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") && len(s) > 2 {
		neg = true
		s = s[1 : len(s)-1]
	}
	// Currency symbols and embedded whitespace.
	var b strings.Builder
	for _, r := range s {
		if currencyRunes[r] || unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(r)
	}
	s = b.String()
	pct := false
	if strings.HasSuffix(s, "%") {
		pct = true
		s = strings.TrimSuffix(s, "%")
	}
	s = resolveSeparators(s, locale)
	if !hasDigit(s) {
		return 0, false
	}
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
		case r == '-' || r == '+' || r == '.' || r == 'e' || r == 'E':
		default:
			return 0, false
		}
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	if neg {
		v = -v
	}
	if pct {
		v /= 100
	}
	return v, true
}

func resolveSeparators(s string, locale Locale) string {
	if locale == LocaleEU {
		lastComma := strings.LastIndex(s, ",")
		lastDot := strings.LastIndex(s, ".")
		switch {
		case lastComma >= 0 && lastDot >= 0:
			if lastComma > lastDot {
				s = strings.ReplaceAll(s, ".", "")
				s = strings.Replace(s, ",", ".", 1)
			} else {
				s = strings.ReplaceAll(s, ",", "")
			}
		case lastComma >= 0:
			s = strings.ReplaceAll(s, ",", "")
		case lastDot >= 0:
			s = strings.ReplaceAll(s, ".", "")
		}
		return s
	}
	return strings.ReplaceAll(s, ",", "")
}

func hasDigit(s string) bool {
	for _, r := range s {
		if r >= '0' && r <= '9' {
			return true
		}
	}
	return false
}

func firstRune(s string) rune {
	for _, r := range s {
		return r
	}
	return 0
}

func runeLen(r rune) int {
	return len(string(r))
}
