package plan

import (
	"context"

	"github.com/KaramelBytes/chartloom-cli/internal/dataset"
	"github.com/KaramelBytes/chartloom-cli/internal/profile"
	"github.com/KaramelBytes/chartloom-cli/internal/roles"
)

// Options is the planner configuration supplied by the caller.
type Options struct {
	Thresholds         roles.Thresholds
	AutoExclude        bool
	ExcludedDimensions []string
	// RoleOverrides maps column name to a role that takes precedence over
	// the inferred one.
	RoleOverrides map[string]roles.Role
}

// DefaultOptions returns the planner defaults.
func DefaultOptions() Options {
	return Options{Thresholds: roles.DefaultThresholds(), AutoExclude: true}
}

// Context carries everything a strategy needs to propose a plan.
type Context struct {
	Table       *dataset.Table
	Profile     *profile.Profile
	Options     Options
	Assignments []roles.Assignment
}

// Assignment returns the (possibly overridden) role assignment for col.
func (c *Context) Assignment(col string) *roles.Assignment {
	for i := range c.Assignments {
		if c.Assignments[i].Column == col {
			return &c.Assignments[i]
		}
	}
	return nil
}

func (c *Context) excluded(col string) bool {
	for _, e := range c.Options.ExcludedDimensions {
		if e == col {
			return true
		}
	}
	return false
}

// Strategy proposes a plan or reports no match. Strategies are tried in
// order; the first match wins.
type Strategy interface {
	Name() string
	Propose(ctx context.Context, pc *Context) ([]Job, bool)
}

// Generate runs the strategy chain (any extra strategies first, then the
// business-document router, then the generic role-driven planner) and
// returns the first proposal, deduplicated and capped.
func Generate(ctx context.Context, t *dataset.Table, p *profile.Profile, opts Options, extra ...Strategy) []Job {
	pc := &Context{
		Table:       t,
		Profile:     p,
		Options:     opts,
		Assignments: applyOverrides(roles.InferAll(p, t, opts.Thresholds), opts.RoleOverrides),
	}
	strategies := append(append([]Strategy{}, extra...), erpStrategy{}, genericStrategy{})
	for _, s := range strategies {
		if jobs, ok := s.Propose(ctx, pc); ok {
			return capJobs(jobs)
		}
	}
	return nil
}

// applyOverrides replaces inferred roles with manual ones. An overridden
// column keeps its statistics but resets pattern-derived metadata, since
// the user's intent supersedes the name heuristics.
func applyOverrides(as []roles.Assignment, overrides map[string]roles.Role) []roles.Assignment {
	if len(overrides) == 0 {
		return as
	}
	for i := range as {
		role, ok := overrides[as[i].Column]
		if !ok || as[i].Role == role {
			continue
		}
		as[i].Role = role
		switch role {
		case roles.RoleIgnore:
			as[i].Priority = roles.PriorityNone
		case roles.RoleMetricStrong, roles.RoleMetric:
			as[i].Category = roles.CategoryGeneral
			as[i].Priority = roles.PriorityNormal
		case roles.RoleDimension:
			as[i].Category = roles.CategoryGeneral
			as[i].Priority = roles.PriorityNormal
			as[i].Unsuitable = false
		case roles.RoleDate:
			as[i].Category = roles.CategoryDate
			as[i].Priority = roles.PriorityHigh
		}
	}
	return as
}
