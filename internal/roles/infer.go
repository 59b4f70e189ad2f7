// Package roles converts column descriptors and header names into semantic
// roles used to rank candidate analyses. Assignments are recomputed from
// the profile on every planning pass so threshold changes apply
// immediately; nothing here is persisted.
package roles

import (
	"strings"

	"github.com/KaramelBytes/chartloom-cli/internal/dataset"
	"github.com/KaramelBytes/chartloom-cli/internal/profile"
)

// Role is the semantic purpose assigned to a column.
type Role string

const (
	RoleMetric       Role = "metric"
	RoleMetricStrong Role = "metric:strong"
	RoleDimension    Role = "dimension"
	RoleDate         Role = "date"
	RoleID           Role = "id"
	RoleIgnore       Role = "ignore"
)

// Priority ranks how eagerly the planner should use a column.
type Priority string

const (
	PriorityCritical Priority = "critical"
	PriorityHigh     Priority = "high"
	PriorityNormal   Priority = "normal"
	PriorityLow      Priority = "low"
	PriorityNone     Priority = "none"
)

// PriorityRank orders priorities for sorting, critical first.
func PriorityRank(p Priority) int {
	switch p {
	case PriorityCritical:
		return 0
	case PriorityHigh:
		return 1
	case PriorityNormal:
		return 2
	case PriorityLow:
		return 3
	default:
		return 4
	}
}

// Assignment is the inferred role for one column.
type Assignment struct {
	Column       string
	Role         Role
	Category     string
	Priority     Priority
	Unsuitable   bool
	Identifier   bool
	Completeness float64
	Cardinality  int
}

// Thresholds is caller-supplied suitability configuration.
type Thresholds struct {
	Completeness        float64
	CardinalityRatio    float64
	CardinalityAbsolute int
}

// DefaultThresholds mirrors the shipped configuration defaults.
func DefaultThresholds() Thresholds {
	return Thresholds{Completeness: 0.3, CardinalityRatio: 0.5, CardinalityAbsolute: 50}
}

// InferAll assigns a role to every profiled column.
func InferAll(p *profile.Profile, t *dataset.Table, th Thresholds) []Assignment {
	out := make([]Assignment, 0, len(p.Columns))
	for i := range p.Columns {
		out = append(out, Infer(&p.Columns[i], p, t, th))
	}
	return out
}

// Infer derives the role assignment for a single column.
func Infer(col *profile.Column, p *profile.Profile, t *dataset.Table, th Thresholds) Assignment {
	a := Assignment{
		Column:       col.Name,
		Completeness: col.Completeness,
		Cardinality:  col.UniqueCount,
	}
	sampled := p.SampledRows()
	ratio := 0.0
	if sampled > 0 {
		ratio = float64(col.UniqueCount) / float64(sampled)
	}
	a.Unsuitable = col.Completeness < th.Completeness ||
		(col.UniqueCount > th.CardinalityAbsolute && ratio > th.CardinalityRatio)

	if col.PlaceholderName {
		return inferPlaceholder(col, a)
	}

	values := sampleValues(t, col.Name, sampled)
	temporalValues := HasTemporalValues(values)

	if col.Type == profile.TypeDate || nameMatches(col.Name, CategoryDate) || temporalValues {
		a.Role = RoleDate
		a.Category = CategoryDate
		a.Priority = PriorityNormal
		if nameMatches(col.Name, CategoryDate) || nameMatches(col.Name, CategoryTemporal) {
			a.Priority = PriorityHigh
		}
		return a
	}

	switch col.Type {
	case profile.TypeNumber:
		return inferNumeric(col, values, a)
	case profile.TypeString:
		return inferString(col, ratio, temporalValues, a)
	default:
		a.Role = RoleIgnore
		a.Priority = PriorityNone
		return a
	}
}

// inferPlaceholder special-cases auto-generated header names, which carry
// no vocabulary to score; only type and content hints remain.
func inferPlaceholder(col *profile.Column, a Assignment) Assignment {
	switch {
	case col.Type == profile.TypeNumber:
		a.Role = RoleMetricStrong
		a.Category = CategoryGeneral
		a.Priority = PriorityNormal
	case col.Hint == profile.HintCurrencyToken:
		a.Role = RoleDimension
		a.Category = CategoryCurrency
		a.Priority = PriorityLow
	case col.Hint == profile.HintUnitToken:
		a.Role = RoleDimension
		a.Category = CategoryUnit
		a.Priority = PriorityLow
		a.Unsuitable = true
	case col.Completeness < 0.1 || col.Hint == profile.HintEmpty:
		a.Role = RoleIgnore
		a.Priority = PriorityNone
	default:
		a.Role = RoleDimension
		a.Category = CategoryGeneral
		a.Priority = PriorityLow
	}
	return a
}

// inferNumeric routes number-typed columns. A fully numeric column can
// never become a dimension, even at low cardinality; mixed-content
// columns that look like codes can.
func inferNumeric(col *profile.Column, values []string, a Assignment) Assignment {
	if allNumeric(values, col.NumericCount) {
		a.Role = RoleMetricStrong
		switch {
		case criticalMetricRe.MatchString(col.Name):
			a.Category = CategoryFinancial
			a.Priority = PriorityCritical
		case nameMatches(col.Name, CategoryFinancial):
			a.Category = CategoryFinancial
			a.Priority = PriorityHigh
		case nameMatches(col.Name, CategoryQuantity):
			a.Category = CategoryQuantity
			a.Priority = PriorityNormal
		default:
			a.Category = CategoryGeneral
			a.Priority = PriorityNormal
		}
		return a
	}
	if nameMatches(col.Name, CategoryCode) || nameMatches(col.Name, CategoryEntity) {
		a.Role = RoleDimension
		a.Category = CategoryCode
		a.Priority = PriorityNormal
		a.Identifier = true
		return a
	}
	a.Role = RoleMetric
	a.Category = CategoryGeneral
	a.Priority = PriorityLow
	return a
}

func inferString(col *profile.Column, uniqueRatio float64, temporalValues bool, a Assignment) Assignment {
	switch {
	case nameMatches(col.Name, CategoryEntity):
		a.Role = RoleID
		a.Category = CategoryEntity
		a.Priority = PriorityHigh
	case nameMatches(col.Name, CategoryCode):
		a.Role = RoleID
		a.Category = CategoryCode
		a.Priority = PriorityNormal
	case uniqueRatio > 0.95:
		a.Role = RoleID
		a.Category = CategoryEntity
		a.Priority = PriorityNormal
	case nameMatches(col.Name, CategoryContact):
		a.Role = RoleDimension
		a.Category = CategoryContact
		a.Priority = PriorityHigh
	case nameMatches(col.Name, CategoryLocation):
		a.Role = RoleDimension
		a.Category = CategoryLocation
		a.Priority = PriorityHigh
	case nameMatches(col.Name, CategoryStatus):
		a.Role = RoleDimension
		a.Category = CategoryStatus
		a.Priority = PriorityHigh
	case nameMatches(col.Name, CategoryHierarchy):
		a.Role = RoleDimension
		a.Category = CategoryHierarchy
		a.Priority = PriorityHigh
	case nameMatches(col.Name, CategoryTemporal) || temporalValues:
		a.Role = RoleDimension
		a.Category = CategoryTemporal
		a.Priority = PriorityHigh
	default:
		a.Role = RoleDimension
		a.Category = CategoryGeneral
		a.Priority = PriorityNormal
	}
	return a
}

// allNumeric reports whether every sampled non-empty value parsed as a
// number during profiling.
func allNumeric(values []string, numericCount int) bool {
	return len(values) > 0 && numericCount == len(values)
}

func sampleValues(t *dataset.Table, col string, limit int) []string {
	var out []string
	for i, row := range t.Rows {
		if i >= limit {
			break
		}
		v := strings.TrimSpace(row.CellString(col))
		if v == "" {
			continue
		}
		out = append(out, v)
	}
	return out
}
