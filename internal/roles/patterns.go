package roles

import "regexp"

// Category is a free-form business tag attached to an assignment and used
// by the planner to rank candidate analyses.
const (
	CategoryFinancial = "financial"
	CategoryQuantity  = "quantity"
	CategoryEntity    = "entity"
	CategoryLocation  = "location"
	CategoryContact   = "contact"
	CategoryStatus    = "status"
	CategoryHierarchy = "hierarchy"
	CategoryTemporal  = "temporal"
	CategoryCode      = "code"
	CategoryDate      = "date"
	CategoryGeneral   = "general"
	CategoryCurrency  = "currency"
	CategoryUnit      = "unit"
)

// namePattern pairs a category with the header regexp that claims it.
// Order matters: the first match wins when categorizing a dimension, so
// keep the more specific business vocabularies above the generic ones.
type namePattern struct {
	category string
	re       *regexp.Regexp
}

var namePatterns = []namePattern{
	{CategoryFinancial, regexp.MustCompile(`(?i)\b(amount|price|cost|revenue|total|fee|charge|payment|balance|debit|credit|sales|value)\b`)},
	{CategoryQuantity, regexp.MustCompile(`(?i)\b(qty|quantity|count|units?|volume|weight|stock|on.?hand)\b`)},
	{CategoryEntity, regexp.MustCompile(`(?i)(\bid\b|_id$|\bno\.?$|number\b|invoice|order.?no|po.?no|sku\b|account|reference|\bref\b)`)},
	{CategoryLocation, regexp.MustCompile(`(?i)\b(country|city|region|state|province|territory|branch|warehouse|location|site|area|zone)\b`)},
	{CategoryContact, regexp.MustCompile(`(?i)\b(name|customer|vendor|supplier|contact|email|phone|company|client|buyer|seller)\b`)},
	{CategoryStatus, regexp.MustCompile(`(?i)\b(status|type|category|class|grade|tier|segment|stage|priority|group)\b`)},
	{CategoryHierarchy, regexp.MustCompile(`(?i)\b(department|division|team|brand|family|line|item|product|material)\b`)},
	{CategoryTemporal, regexp.MustCompile(`(?i)\b(month|quarter|year|week|period|fy|fiscal)\b`)},
	{CategoryCode, regexp.MustCompile(`(?i)(code$|^code|\bpostal\b|\bzip\b|\bbarcode\b)`)},
	{CategoryDate, regexp.MustCompile(`(?i)(date|time|\bday\b|created|updated|posted|due|delivery)`)},
	{CategoryGeneral, regexp.MustCompile(`(?i)\b(rate|ratio|pct|percent|score|margin|discount|tax|avg|mean)\b`)},
}

var nameByCategory = func() map[string]*regexp.Regexp {
	m := make(map[string]*regexp.Regexp, len(namePatterns))
	for _, p := range namePatterns {
		m[p.category] = p.re
	}
	return m
}()

// nameMatches reports whether the header matches the pattern registered
// for the given category.
func nameMatches(name, category string) bool {
	re, ok := nameByCategory[category]
	return ok && re.MatchString(name)
}

// matchDimensionCategory walks the ordered battery and returns the first
// matching category for a dimension-typed column.
func matchDimensionCategory(name string) (string, bool) {
	for _, p := range namePatterns {
		if p.re.MatchString(name) {
			return p.category, true
		}
	}
	return "", false
}

// criticalMetricRe escalates obvious money columns to critical priority.
var criticalMetricRe = regexp.MustCompile(`(?i)(amount|total|revenue)`)

// Temporal value shapes: sequential labels (Q1, Month2, Week 3) and
// fiscal-year forms (FY2024, 2024Q1, 2024-Q1).
var temporalValuePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^(q|qtr|quarter)\s?-?[1-4]$`),
	regexp.MustCompile(`(?i)^[a-z]{2,}\s?-?\d{1,2}$`),
	regexp.MustCompile(`(?i)^fy\s?-?\d{2,4}$`),
	regexp.MustCompile(`(?i)^\d{4}\s?-?q[1-4]$`),
}

// HasTemporalValues reports whether a string column's content looks like
// sequential or fiscal periods. Requires at least two non-empty values and
// every one of them to match a temporal shape.
func HasTemporalValues(values []string) bool {
	if len(values) < 2 {
		return false
	}
	for _, v := range values {
		if !matchesTemporal(v) {
			return false
		}
	}
	return true
}

func matchesTemporal(v string) bool {
	for _, re := range temporalValuePatterns {
		if re.MatchString(v) {
			return true
		}
	}
	return false
}
