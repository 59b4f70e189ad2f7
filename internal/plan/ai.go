package plan

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/KaramelBytes/chartloom-cli/internal/normalize"
	"github.com/KaramelBytes/chartloom-cli/internal/roles"
)

// TextGenerator is an opaque text-generation capability. The planner never
// talks to a network itself; callers wire a concrete client in.
type TextGenerator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// AIStrategy asks a language model to propose jobs from the schema
// summary. Any failure — transport, refusal, malformed JSON, unknown
// columns — is a silent no-match so the deterministic strategies take
// over.
type AIStrategy struct {
	Generator TextGenerator
}

func (AIStrategy) Name() string { return "ai" }

type aiJob struct {
	GroupBy    string `json:"group_by"`
	Metric     string `json:"metric"`
	Agg        string `json:"agg"`
	DateBucket string `json:"date_bucket"`
	Chart      string `json:"chart"`
}

func (s AIStrategy) Propose(ctx context.Context, pc *Context) ([]Job, bool) {
	if s.Generator == nil {
		return nil, false
	}
	raw, err := s.Generator.GenerateText(ctx, buildPrompt(pc))
	if err != nil {
		return nil, false
	}
	proposals, err := parseAIJobs(raw)
	if err != nil {
		return nil, false
	}
	var jobs []Job
	for _, p := range proposals {
		j, ok := validateAIJob(pc, p)
		if !ok {
			continue
		}
		jobs = append(jobs, j)
	}
	if len(jobs) == 0 {
		return nil, false
	}
	return jobs, true
}

func buildPrompt(pc *Context) string {
	var b strings.Builder
	b.WriteString("You are given a tabular dataset schema. Propose up to 6 group-by aggregations as a JSON array.\n")
	b.WriteString("Each element: {\"group_by\":col,\"metric\":col-or-empty,\"agg\":\"sum|avg|count|min|max|distinct_count\",\"date_bucket\":\"\"|\"day\"|\"week\"|\"month\"|\"quarter\"|\"year\",\"chart\":\"line|bar|hbar|pie\"}.\n")
	b.WriteString("Respond with the JSON array only.\n\n[SCHEMA]\n")
	for _, c := range pc.Profile.Columns {
		fmt.Fprintf(&b, "- %s: %s (unique %d, completeness %.2f", c.Name, c.Type, c.UniqueCount, c.Completeness)
		if len(c.SampleValues) > 0 {
			fmt.Fprintf(&b, ", e.g. %s", strings.Join(c.SampleValues, " | "))
		}
		b.WriteString(")\n")
	}
	fmt.Fprintf(&b, "\nRows: %d\n", pc.Profile.RowCount)
	return b.String()
}

// parseAIJobs tolerates a fenced code block around the array.
func parseAIJobs(raw string) ([]aiJob, error) {
	raw = strings.TrimSpace(raw)
	if i := strings.Index(raw, "["); i >= 0 {
		if j := strings.LastIndex(raw, "]"); j > i {
			raw = raw[i : j+1]
		}
	}
	var out []aiJob
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fmt.Errorf("parse ai jobs: %w", err)
	}
	return out, nil
}

func validateAIJob(pc *Context, p aiJob) (Job, bool) {
	if pc.Profile.Column(p.GroupBy) == nil {
		return Job{}, false
	}
	agg := Agg(p.Agg)
	switch agg {
	case AggSum, AggAvg, AggCount, AggMin, AggMax, AggDistinctCount:
	default:
		return Job{}, false
	}
	if p.Metric == "" && agg != AggCount {
		return Job{}, false
	}
	if p.Metric != "" && pc.Profile.Column(p.Metric) == nil {
		return Job{}, false
	}
	bucket := normalize.Bucket(p.DateBucket)
	switch bucket {
	case normalize.BucketNone, normalize.BucketDay, normalize.BucketWeek,
		normalize.BucketMonth, normalize.BucketQuarter, normalize.BucketYear:
	default:
		return Job{}, false
	}
	chart := Chart(p.Chart)
	switch chart {
	case ChartLine, ChartBar, ChartHBar, ChartPie:
	default:
		chart = ChartBar
	}
	return Job{
		GroupBy:    p.GroupBy,
		Metric:     p.Metric,
		Agg:        agg,
		DateBucket: bucket,
		Chart:      chart,
		Priority:   roles.PriorityHigh,
	}, true
}
