// Package chart renders aggregation results as standalone HTML documents
// with go-echarts. Chart kind comes from the job's chart hint; rendering
// never re-sorts or re-filters the result rows.
package chart

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/KaramelBytes/chartloom-cli/internal/aggregate"
	"github.com/KaramelBytes/chartloom-cli/internal/plan"
)

// maxPieSlices bounds pie readability; the tail folds into one slice.
const maxPieSlices = 12

// Item pairs a job with its executed result for rendering.
type Item struct {
	Job    plan.Job
	Result *aggregate.Result
}

// Render writes one chart as a standalone HTML document.
func Render(w io.Writer, item Item) error {
	c, err := build(item)
	if err != nil {
		return err
	}
	if err := c.Render(w); err != nil {
		return fmt.Errorf("render chart: %w", err)
	}
	return nil
}

// RenderPage writes all items into a single HTML dashboard page.
func RenderPage(w io.Writer, items []Item) error {
	page := components.NewPage()
	page.SetPageTitle("chartloom analysis")
	for _, item := range items {
		c, err := build(item)
		if err != nil {
			return err
		}
		page.AddCharts(c)
	}
	if err := page.Render(w); err != nil {
		return fmt.Errorf("render page: %w", err)
	}
	return nil
}

// WriteFile renders one chart into dir and returns the file path.
func WriteFile(dir string, item Item) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create chart dir: %w", err)
	}
	path := filepath.Join(dir, slug(item.Job)+".html")
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create chart file: %w", err)
	}
	defer f.Close()
	if err := Render(f, item); err != nil {
		return "", err
	}
	return path, nil
}

// renderable is what every go-echarts chart satisfies: addable to a page
// and renderable on its own.
type renderable interface {
	components.Charter
	Render(w io.Writer) error
}

func build(item Item) (renderable, error) {
	if item.Result == nil {
		return nil, fmt.Errorf("chart %s: no result", item.Job.CanonicalKey())
	}
	switch item.Job.Chart {
	case plan.ChartLine:
		return buildLine(item), nil
	case plan.ChartPie:
		return buildPie(item), nil
	case plan.ChartHBar:
		return buildBar(item, true), nil
	default:
		return buildBar(item, false), nil
	}
}

func buildLine(item Item) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(globalOpts(item)...)
	keys, data := seriesData(item.Result)
	points := make([]opts.LineData, len(data))
	for i, v := range data {
		points[i] = opts.LineData{Value: v}
	}
	line.SetXAxis(keys).AddSeries(item.Result.Header[1], points)
	return line
}

func buildBar(item Item, horizontal bool) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(globalOpts(item)...)
	keys, data := seriesData(item.Result)
	points := make([]opts.BarData, len(data))
	for i, v := range data {
		points[i] = opts.BarData{Value: v}
	}
	bar.SetXAxis(keys).AddSeries(item.Result.Header[1], points)
	if horizontal {
		bar.XYReversal()
	}
	return bar
}

func buildPie(item Item) *charts.Pie {
	pie := charts.NewPie()
	pie.SetGlobalOptions(globalOpts(item)...)
	rows := item.Result.Rows
	other := 0.0
	if len(rows) > maxPieSlices {
		for _, r := range rows[maxPieSlices-1:] {
			other += r.Value
		}
		rows = rows[:maxPieSlices-1]
	}
	var points []opts.PieData
	for _, r := range rows {
		points = append(points, opts.PieData{Name: r.Key, Value: r.Value})
	}
	if other != 0 {
		points = append(points, opts.PieData{Name: "Other", Value: other})
	}
	pie.AddSeries(item.Result.Header[1], points)
	return pie
}

func globalOpts(item Item) []charts.GlobalOpts {
	return []charts.GlobalOpts{
		charts.WithInitializationOpts(opts.Initialization{Width: "900px", Height: "500px"}),
		charts.WithTitleOpts(opts.Title{
			Title:    title(item.Job, item.Result),
			Subtitle: subtitle(item.Result),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	}
}

func seriesData(res *aggregate.Result) ([]string, []float64) {
	keys := make([]string, len(res.Rows))
	data := make([]float64, len(res.Rows))
	for i, r := range res.Rows {
		keys[i] = r.Key
		data[i] = r.Value
	}
	return keys, data
}

func title(job plan.Job, res *aggregate.Result) string {
	if job.Metric == "" {
		return fmt.Sprintf("%s by %s", res.Header[1], job.GroupBy)
	}
	return fmt.Sprintf("%s by %s (%s)", job.Metric, job.GroupBy, job.Agg)
}

func subtitle(res *aggregate.Result) string {
	parts := []string{fmt.Sprintf("%d groups", len(res.Rows))}
	if res.MissingCount > 0 {
		parts = append(parts, fmt.Sprintf("%d rows without a group key", res.MissingCount))
	}
	if removed := len(res.RemovedRows); removed > 0 {
		parts = append(parts, fmt.Sprintf("%d groups filtered out", removed))
	}
	return strings.Join(parts, ", ")
}

var slugRe = regexp.MustCompile(`[^a-z0-9]+`)

func slug(job plan.Job) string {
	s := strings.ToLower(job.CanonicalKey())
	s = slugRe.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}
