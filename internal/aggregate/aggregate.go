// Package aggregate executes one group-by/aggregate job against row data:
// grouping with missing-value policy, accumulation, sorting, filtering,
// and provenance totals. Pure compute; the profile is threaded through
// explicitly for column-type lookups and nothing is mutated or persisted.
package aggregate

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/KaramelBytes/chartloom-cli/internal/dataset"
	"github.com/KaramelBytes/chartloom-cli/internal/normalize"
	"github.com/KaramelBytes/chartloom-cli/internal/plan"
	"github.com/KaramelBytes/chartloom-cli/internal/profile"
	"github.com/KaramelBytes/chartloom-cli/internal/roles"
)

// MissingLabel is the fold-in bucket shown when missing keys are kept.
const MissingLabel = "(Missing)"

// FilterMode selects how the post-aggregation filter thresholds groups.
type FilterMode string

const (
	FilterShare FilterMode = "share"
	FilterValue FilterMode = "value"
)

// Filter removes groups below a minimum share of the total or below an
// absolute value. Removed groups stay visible in Result.RemovedRows.
type Filter struct {
	Mode  FilterMode
	Value float64
}

// Options carries per-execution settings.
type Options struct {
	Filter      *Filter
	ShowMissing bool
	Locale      normalize.Locale
}

// GroupRow is one aggregated result row.
type GroupRow struct {
	Key   string
	Value float64
}

// Result is a self-contained aggregation outcome. TotalSum covers the
// visible groups before filtering; RawDataSum and RawRowsCount re-scan
// every input row independent of grouping and act as an audit cross-check
// against upstream row-level sums.
type Result struct {
	Header             [2]string
	Rows               []GroupRow
	MissingCount       int
	TotalSum           float64
	MissingSum         float64
	RawDataSum         float64
	RawRowsCount       int
	GroupsBeforeFilter int
	RemovedRows        []GroupRow
}

// JobError reports a rejected job: the batch degrades per-job instead of
// aborting.
type JobError struct {
	Job    plan.Job
	Reason string
}

func (e *JobError) Error() string {
	return fmt.Sprintf("job %s rejected: %s", e.Job.CanonicalKey(), e.Reason)
}

// missingSentinels normalize to "no meaningful key" (case-insensitive).
var missingSentinels = map[string]bool{
	"": true, "n/a": true, "na": true, "unknown": true,
	"null": true, "-": true, "none": true, "nil": true,
}

type groupAcc struct {
	key      string
	rows     int
	sum      float64
	count    int
	min      float64
	max      float64
	distinct map[float64]struct{}
}

// Execute runs one job against the table.
func Execute(t *dataset.Table, job plan.Job, opts Options, p *profile.Profile) (*Result, error) {
	if p.Column(job.GroupBy) == nil {
		return nil, &JobError{Job: job, Reason: fmt.Sprintf("unknown group-by column %q", job.GroupBy)}
	}
	if job.Metric == "" && job.Agg != plan.AggCount {
		return nil, &JobError{Job: job, Reason: "metric required"}
	}
	for _, part := range metricParts(job.Metric) {
		if p.Column(part) == nil {
			return nil, &JobError{Job: job, Reason: fmt.Sprintf("unknown metric column %q", part)}
		}
	}

	// Effective metric for count-without-metric: the best numeric column,
	// when one exists, gets summed instead of counting occurrences.
	metric := job.Metric
	countBest := ""
	if metric == "" {
		if best, ok := roles.BestMetricColumn(p); ok {
			countBest = best
		}
	}

	groupCol := p.Column(job.GroupBy)
	isDate := groupCol.Type == profile.TypeDate

	groups := map[string]*groupAcc{}
	var order []string
	res := &Result{RawRowsCount: len(t.Rows)}

	add := func(key string, row dataset.Row) {
		acc := groups[key]
		if acc == nil {
			acc = &groupAcc{key: key, min: math.Inf(1), max: math.Inf(-1)}
			groups[key] = acc
			order = append(order, key)
		}
		acc.rows++
		switch job.Agg {
		case plan.AggCount:
			if countBest != "" {
				if v, ok := normalize.ParseNumber(row.Cell(countBest), opts.Locale); ok && isFinite(v) {
					acc.sum += v
					acc.count++
				}
			}
		default:
			if v, ok := metricValue(row, metric, opts.Locale); ok && isFinite(v) {
				acc.sum += v
				acc.count++
				if v < acc.min {
					acc.min = v
				}
				if v > acc.max {
					acc.max = v
				}
				if job.Agg == plan.AggDistinctCount {
					if acc.distinct == nil {
						acc.distinct = map[float64]struct{}{}
					}
					acc.distinct[v] = struct{}{}
				}
			}
		}
	}

	for _, row := range t.Rows {
		key, missing := groupKey(row, job, isDate, p.DateFormat)
		if missing {
			res.MissingCount++
			if mv, ok := missingMetricValue(row, job, metric, countBest, opts.Locale); ok {
				res.MissingSum += mv
			}
			if !opts.ShowMissing {
				continue
			}
			key = MissingLabel
		}
		add(key, row)
	}

	for _, key := range order {
		res.Rows = append(res.Rows, GroupRow{Key: key, Value: finalValue(groups[key], job.Agg, countBest)})
	}
	sortRows(res.Rows, job, isDate)

	for _, r := range res.Rows {
		res.TotalSum += r.Value
	}
	res.GroupsBeforeFilter = len(res.Rows)
	applyFilter(res, opts.Filter)

	res.Header = header(job, metric, countBest)
	res.RawDataSum = rawDataSum(t, job, metric, countBest, opts.Locale)
	return res, nil
}

// groupKey derives the grouping key for one row and reports whether it
// normalizes to missing. Bucketing failures count as missing.
func groupKey(row dataset.Row, job plan.Job, isDate bool, df normalize.DateFormat) (string, bool) {
	raw := strings.TrimSpace(row.CellString(job.GroupBy))
	if job.DateBucket != normalize.BucketNone {
		t, ok := normalize.ParseDate(raw, df)
		if !ok {
			return "", true
		}
		return normalize.BucketKey(t, job.DateBucket), false
	}
	if missingSentinels[strings.ToLower(raw)] {
		return "", true
	}
	if isDate {
		if t, ok := normalize.ParseDate(raw, df); ok {
			return normalize.BucketKey(t, normalize.BucketDay), false
		}
	}
	return raw, false
}

// metricValue coerces the metric cell, supporting derived "A*B" products.
func metricValue(row dataset.Row, metric string, locale normalize.Locale) (float64, bool) {
	parts := metricParts(metric)
	if len(parts) == 1 {
		return normalize.ParseNumber(row.Cell(metric), locale)
	}
	product := 1.0
	for _, part := range parts {
		v, ok := normalize.ParseNumber(row.Cell(part), locale)
		if !ok {
			return 0, false
		}
		product *= v
	}
	return product, true
}

func metricParts(metric string) []string {
	if metric == "" {
		return nil
	}
	raw := strings.Split(metric, "*")
	parts := make([]string, 0, len(raw))
	for _, p := range raw {
		parts = append(parts, strings.TrimSpace(p))
	}
	return parts
}

// missingMetricValue is the contribution a missing-key row would make,
// tracked so the "(Missing)" bucket can be reconciled either way.
func missingMetricValue(row dataset.Row, job plan.Job, metric, countBest string, locale normalize.Locale) (float64, bool) {
	if job.Agg == plan.AggCount {
		if countBest == "" {
			return 1, true
		}
		return normalize.ParseNumber(row.Cell(countBest), locale)
	}
	return metricValue(row, metric, locale)
}

func finalValue(acc *groupAcc, agg plan.Agg, countBest string) float64 {
	switch agg {
	case plan.AggCount:
		if countBest != "" && acc.count > 0 {
			return acc.sum
		}
		return float64(acc.rows)
	case plan.AggSum:
		return acc.sum
	case plan.AggAvg:
		if acc.count == 0 {
			return 0
		}
		return acc.sum / float64(acc.count)
	case plan.AggMin:
		if acc.count == 0 {
			return 0
		}
		return acc.min
	case plan.AggMax:
		if acc.count == 0 {
			return 0
		}
		return acc.max
	case plan.AggDistinctCount:
		return float64(len(acc.distinct))
	default:
		return acc.sum
	}
}

// sortRows orders date-like keys chronologically by reconstructing a
// comparable date from the bucket format; unparsable keys and ties fall
// back to lexicographic order. Everything else sorts by value descending.
func sortRows(rows []GroupRow, job plan.Job, isDate bool) {
	if job.DateBucket != normalize.BucketNone || isDate {
		bucket := job.DateBucket
		if bucket == normalize.BucketNone {
			bucket = normalize.BucketDay
		}
		sort.SliceStable(rows, func(i, j int) bool {
			ti, oki := normalize.BucketTime(rows[i].Key, bucket)
			tj, okj := normalize.BucketTime(rows[j].Key, bucket)
			if oki && okj && !ti.Equal(tj) {
				return ti.Before(tj)
			}
			return rows[i].Key < rows[j].Key
		})
		return
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Value != rows[j].Value {
			return rows[i].Value > rows[j].Value
		}
		return rows[i].Key < rows[j].Key
	})
}

func applyFilter(res *Result, f *Filter) {
	if f == nil || f.Value <= 0 || len(res.Rows) == 0 {
		return
	}
	kept := res.Rows[:0:0]
	for _, r := range res.Rows {
		keep := true
		switch f.Mode {
		case FilterShare:
			if res.TotalSum != 0 {
				keep = r.Value/res.TotalSum >= f.Value
			}
		case FilterValue:
			keep = r.Value >= f.Value
		}
		if keep {
			kept = append(kept, r)
		} else {
			res.RemovedRows = append(res.RemovedRows, r)
		}
	}
	res.Rows = kept
}

func header(job plan.Job, metric, countBest string) [2]string {
	label := metric
	if label == "" {
		if countBest != "" {
			label = countBest
		} else {
			label = "Count"
		}
	}
	return [2]string{job.GroupBy, label}
}

// rawDataSum re-scans every input row, ignoring grouping and filtering.
// Discrepancies against external row-level sums signal upstream
// data-exclusion bugs.
func rawDataSum(t *dataset.Table, job plan.Job, metric, countBest string, locale normalize.Locale) float64 {
	effective := metric
	if effective == "" {
		effective = countBest
	}
	if effective == "" {
		return float64(len(t.Rows))
	}
	var sum float64
	for _, row := range t.Rows {
		if v, ok := metricValue(row, effective, locale); ok && isFinite(v) {
			sum += v
		}
	}
	return sum
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
