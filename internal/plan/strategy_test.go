package plan

import (
	"context"
	"errors"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/chartloom-cli/internal/dataset"
	"github.com/KaramelBytes/chartloom-cli/internal/normalize"
	"github.com/KaramelBytes/chartloom-cli/internal/profile"
	"github.com/KaramelBytes/chartloom-cli/internal/roles"
)

func buildTable(cols []string, cells [][]string) (*dataset.Table, *profile.Profile) {
	t := &dataset.Table{Columns: cols}
	for _, rec := range cells {
		row := dataset.Row{}
		for i, c := range cols {
			if i < len(rec) {
				row[c] = rec[i]
			} else {
				row[c] = ""
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t, profile.Build(t, normalize.DateAuto)
}

func TestERPSalesSignature(t *testing.T) {
	tab, p := buildTable(
		[]string{"Customer", "Item", "Qty", "Unit Price", "Total", "Order Date"},
		[][]string{
			{"Acme", "Widget", "2", "10", "20", "05/01/2024"},
			{"Globex", "Gadget", "1", "35", "35", "12/01/2024"},
			{"Acme", "Widget", "4", "10", "40", "28/03/2024"},
		},
	)
	jobs := Generate(context.Background(), tab, p, DefaultOptions())
	require.NotEmpty(t, jobs)

	// derived qty×price beats the lone Total column
	for _, j := range jobs {
		if j.Metric != "" {
			assert.Equal(t, "Qty*Unit Price", j.Metric)
		}
	}
	assert.Equal(t, "Order Date", jobs[0].GroupBy)
	assert.Equal(t, ChartLine, jobs[0].Chart)
	assert.NotEqual(t, normalize.BucketNone, jobs[0].DateBucket)

	groupBys := map[string]bool{}
	for _, j := range jobs {
		groupBys[j.GroupBy] = true
	}
	assert.True(t, groupBys["Customer"])
	assert.True(t, groupBys["Item"])
}

func TestERPLedgerSignature(t *testing.T) {
	tab, p := buildTable(
		[]string{"Account", "Debit", "Credit"},
		[][]string{
			{"1000 Cash", "500", "0"},
			{"2000 Payables", "0", "500"},
			{"1000 Cash", "120", "0"},
		},
	)
	jobs := Generate(context.Background(), tab, p, DefaultOptions())
	require.Len(t, jobs, 2)
	assert.Equal(t, "Debit", jobs[0].Metric)
	assert.Equal(t, "Credit", jobs[1].Metric)
	assert.Equal(t, "Account", jobs[0].GroupBy)
}

func TestGenericPlan(t *testing.T) {
	rowCount := 20
	var cells [][]string
	for i := 0; i < rowCount; i++ {
		cells = append(cells, []string{
			"2024-0" + strconv.Itoa(i%3+1) + "-15",
			[]string{"Open", "Closed"}[i%2],
			[]string{"North", "South", "East"}[i%3],
			strconv.Itoa(100 + i),
		})
	}
	tab, p := buildTable([]string{"Posted Date", "Status", "Region", "TotalAmount"}, cells)
	jobs := Generate(context.Background(), tab, p, DefaultOptions())
	require.NotEmpty(t, jobs)

	// time series first: date completeness is 1.0 and a financial metric exists
	assert.Equal(t, "Posted Date", jobs[0].GroupBy)
	assert.Equal(t, "TotalAmount", jobs[0].Metric)
	assert.Equal(t, ChartLine, jobs[0].Chart)
	assert.Equal(t, roles.PriorityCritical, jobs[0].Priority)

	var haveStatusSum, haveRegionSum, haveRegionAvg bool
	for _, j := range jobs[1:] {
		if j.GroupBy == "Status" && j.Agg == AggSum {
			haveStatusSum = true
			assert.Equal(t, ChartPie, j.Chart) // low cardinality status
		}
		if j.GroupBy == "Region" && j.Agg == AggSum {
			haveRegionSum = true
			assert.Equal(t, ChartBar, j.Chart)
		}
		if j.GroupBy == "Region" && j.Agg == AggAvg {
			haveRegionAvg = true
		}
	}
	assert.True(t, haveStatusSum)
	assert.True(t, haveRegionSum)
	assert.True(t, haveRegionAvg)
	assert.LessOrEqual(t, len(jobs), 10)
}

func TestCountOnlyFallback(t *testing.T) {
	tab, p := buildTable(
		[]string{"Status", "Region"},
		[][]string{
			{"Open", "North"}, {"Closed", "South"}, {"Open", "North"}, {"Open", "East"},
		},
	)
	jobs := Generate(context.Background(), tab, p, DefaultOptions())
	require.NotEmpty(t, jobs)
	for _, j := range jobs {
		assert.Equal(t, AggCount, j.Agg)
		assert.Empty(t, j.Metric)
	}
}

func TestExcludedDimensionsAndOverrides(t *testing.T) {
	tab, p := buildTable(
		[]string{"Status", "Region", "TotalAmount"},
		[][]string{
			{"Open", "North", "10"}, {"Closed", "South", "20"}, {"Open", "North", "30"},
		},
	)
	opts := DefaultOptions()
	opts.ExcludedDimensions = []string{"Status"}
	opts.RoleOverrides = map[string]roles.Role{"Region": roles.RoleIgnore}
	jobs := Generate(context.Background(), tab, p, opts)
	for _, j := range jobs {
		assert.NotEqual(t, "Status", j.GroupBy)
		assert.NotEqual(t, "Region", j.GroupBy)
	}
}

type stubGenerator struct {
	out string
	err error
}

func (s stubGenerator) GenerateText(context.Context, string) (string, error) {
	return s.out, s.err
}

func TestAIStrategy(t *testing.T) {
	tab, p := buildTable(
		[]string{"Status", "TotalAmount"},
		[][]string{{"Open", "10"}, {"Closed", "20"}},
	)
	pc := &Context{Table: tab, Profile: p, Options: DefaultOptions()}

	good := AIStrategy{Generator: stubGenerator{out: "```json\n[{\"group_by\":\"Status\",\"metric\":\"TotalAmount\",\"agg\":\"sum\",\"chart\":\"bar\"}]\n```"}}
	jobs, ok := good.Propose(context.Background(), pc)
	require.True(t, ok)
	require.Len(t, jobs, 1)
	assert.Equal(t, "Status", jobs[0].GroupBy)
	assert.Equal(t, AggSum, jobs[0].Agg)

	// unknown columns, bad aggs and transport errors all fall through
	for _, g := range []stubGenerator{
		{out: `[{"group_by":"Nope","metric":"TotalAmount","agg":"sum"}]`},
		{out: `[{"group_by":"Status","metric":"TotalAmount","agg":"median"}]`},
		{out: `[{"group_by":"Status","agg":"sum"}]`},
		{out: "not json at all"},
		{err: errors.New("boom")},
	} {
		if _, ok := (AIStrategy{Generator: g}).Propose(context.Background(), pc); ok {
			t.Fatalf("expected no match for %+v", g)
		}
	}
}
