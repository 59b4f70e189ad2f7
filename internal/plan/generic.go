package plan

import (
	"context"
	"sort"

	"github.com/KaramelBytes/chartloom-cli/internal/roles"
)

// genericStrategy is the role-driven planner used when no business
// document signature matches. It always proposes something, even if the
// proposal is empty, so it terminates the strategy chain.
type genericStrategy struct{}

func (genericStrategy) Name() string { return "generic" }

func (genericStrategy) Propose(_ context.Context, pc *Context) ([]Job, bool) {
	var dims, dates, strong []roles.Assignment
	for _, a := range pc.Assignments {
		if pc.excluded(a.Column) {
			continue
		}
		if pc.Options.AutoExclude && (a.Role == roles.RoleID || a.Role == roles.RoleIgnore) {
			continue
		}
		switch a.Role {
		case roles.RoleDimension:
			if !a.Unsuitable {
				dims = append(dims, a)
			}
		case roles.RoleDate:
			if !a.Unsuitable && a.Completeness > 0.2 {
				dates = append(dates, a)
			}
		case roles.RoleMetricStrong:
			strong = append(strong, a)
		}
	}
	sort.SliceStable(dims, func(i, j int) bool {
		if dims[i].Completeness != dims[j].Completeness {
			return dims[i].Completeness > dims[j].Completeness
		}
		return dims[i].Cardinality < dims[j].Cardinality
	})
	sort.SliceStable(dates, func(i, j int) bool {
		return dates[i].Completeness > dates[j].Completeness
	})
	sort.SliceStable(strong, func(i, j int) bool {
		return roles.PriorityRank(strong[i].Priority) < roles.PriorityRank(strong[j].Priority)
	})

	primary := pickPrimaryMetric(pc, strong)
	var jobs []Job

	if primary != "" && len(dates) > 0 && dates[0].Completeness >= 0.5 {
		jobs = append(jobs, Job{
			GroupBy:    dates[0].Column,
			Metric:     primary,
			Agg:        AggSum,
			DateBucket: autoBucketFor(pc, dates[0].Column),
			Chart:      ChartLine,
			Priority:   roles.PriorityCritical,
		})
	}

	selected := selectDimensions(dims)
	for _, dim := range selected {
		if primary == "" {
			jobs = append(jobs, Job{
				GroupBy: dim.Column, Agg: AggCount,
				Chart: chartFor(dim), Priority: dim.Priority,
			})
			continue
		}
		jobs = append(jobs, Job{
			GroupBy: dim.Column, Metric: primary, Agg: AggSum,
			Chart: chartFor(dim), Priority: dim.Priority,
		})
		if dim.Priority == roles.PriorityHigh || dim.Category == roles.CategoryLocation {
			jobs = append(jobs, Job{
				GroupBy: dim.Column, Metric: primary, Agg: AggAvg,
				Chart: ChartHBar, Priority: roles.PriorityNormal,
			})
		}
	}

	if secondary := pickSecondaryMetric(strong, primary); secondary != "" && len(selected) > 0 {
		jobs = append(jobs, Job{
			GroupBy: selected[0].Column, Metric: secondary, Agg: AggSum,
			Chart: ChartBar, Priority: roles.PriorityNormal,
		})
	}

	return jobs, true
}

// pickPrimaryMetric prefers financial strong metrics, then quantity, then
// any strong metric, then the generic best-metric fallback.
func pickPrimaryMetric(pc *Context, strong []roles.Assignment) string {
	for _, a := range strong {
		if a.Category == roles.CategoryFinancial {
			return a.Column
		}
	}
	for _, a := range strong {
		if a.Category == roles.CategoryQuantity {
			return a.Column
		}
	}
	if len(strong) > 0 {
		return strong[0].Column
	}
	if col, ok := roles.BestMetricColumn(pc.Profile); ok {
		return col
	}
	return ""
}

// pickSecondaryMetric finds a quantity- or general-category strong metric
// distinct from the primary, for a companion breakdown.
func pickSecondaryMetric(strong []roles.Assignment, primary string) string {
	for _, a := range strong {
		if a.Column == primary {
			continue
		}
		if a.Category == roles.CategoryQuantity || a.Category == roles.CategoryGeneral {
			return a.Column
		}
	}
	return ""
}

// dimension categories in selection priority order; general may appear
// twice, the named categories at most once each.
var dimCategoryOrder = []string{
	roles.CategoryStatus,
	roles.CategoryLocation,
	roles.CategoryHierarchy,
	roles.CategoryTemporal,
	roles.CategoryGeneral,
}

func selectDimensions(dims []roles.Assignment) []roles.Assignment {
	var out []roles.Assignment
	for _, cat := range dimCategoryOrder {
		limit := 1
		if cat == roles.CategoryGeneral {
			limit = 2
		}
		taken := 0
		for _, d := range dims {
			if len(out) >= 3 || taken >= limit {
				break
			}
			if dimCategory(d) != cat {
				continue
			}
			out = append(out, d)
			taken++
		}
		if len(out) >= 3 {
			break
		}
	}
	return out
}

// dimCategory folds the long tail of categories into general so contact
// and code dimensions still compete for the two generic slots.
func dimCategory(a roles.Assignment) string {
	switch a.Category {
	case roles.CategoryStatus, roles.CategoryLocation, roles.CategoryHierarchy, roles.CategoryTemporal:
		return a.Category
	default:
		return roles.CategoryGeneral
	}
}

func chartFor(dim roles.Assignment) Chart {
	cat := dimCategory(dim)
	switch {
	case cat == roles.CategoryLocation:
		return ChartBar
	case cat == roles.CategoryHierarchy:
		return ChartHBar
	case dim.Cardinality <= 8 && (cat == roles.CategoryStatus || cat == roles.CategoryGeneral):
		return ChartPie
	default:
		return ChartBar
	}
}
