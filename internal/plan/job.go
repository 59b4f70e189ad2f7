// Package plan turns profiled columns and role assignments into an ordered,
// deduplicated list of group-by/aggregate jobs with chart-intent hints.
package plan

import (
	"strings"

	"github.com/KaramelBytes/chartloom-cli/internal/normalize"
	"github.com/KaramelBytes/chartloom-cli/internal/roles"
)

// Agg is an aggregation function.
type Agg string

const (
	AggSum           Agg = "sum"
	AggAvg           Agg = "avg"
	AggCount         Agg = "count"
	AggMin           Agg = "min"
	AggMax           Agg = "max"
	AggDistinctCount Agg = "distinct_count"
)

// Chart is a suggested chart kind. Presentation metadata only; nothing in
// this module renders.
type Chart string

const (
	ChartLine Chart = "line"
	ChartBar  Chart = "bar"
	ChartHBar Chart = "hbar"
	ChartPie  Chart = "pie"
)

// Job is a single group-by/aggregate specification ready for execution.
// Metric is empty only for count jobs; a "ColA*ColB" metric is a derived
// per-row product. Chart and Priority are hints and not part of the job's
// identity.
type Job struct {
	GroupBy    string
	Metric     string
	Agg        Agg
	DateBucket normalize.Bucket

	Chart    Chart
	Priority roles.Priority
}

// metricSentinel stands in for an absent metric so count jobs with "" and
// unset metrics collapse to the same key.
const metricSentinel = "-"

// CanonicalKey is a deterministic identity string for deduplication.
func (j Job) CanonicalKey() string {
	m := j.Metric
	if m == "" {
		m = metricSentinel
	}
	return strings.Join([]string{j.GroupBy, m, string(j.Agg), string(j.DateBucket)}, "|")
}

// Deduplicate drops jobs whose canonical key repeats, preserving first-seen
// order. Idempotent: re-running on deduplicated input returns it unchanged.
func Deduplicate(jobs []Job) []Job {
	seen := make(map[string]bool, len(jobs))
	out := make([]Job, 0, len(jobs))
	for _, j := range jobs {
		key := j.CanonicalKey()
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, j)
	}
	return out
}

// maxJobs caps a plan after deduplication.
const maxJobs = 10

func capJobs(jobs []Job) []Job {
	jobs = Deduplicate(jobs)
	if len(jobs) > maxJobs {
		jobs = jobs[:maxJobs]
	}
	return jobs
}
