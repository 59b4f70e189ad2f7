package aggregate

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/KaramelBytes/chartloom-cli/internal/dataset"
	"github.com/KaramelBytes/chartloom-cli/internal/normalize"
	"github.com/KaramelBytes/chartloom-cli/internal/plan"
	"github.com/KaramelBytes/chartloom-cli/internal/profile"
)

func makeTable(cols []string, cells [][]string) (*dataset.Table, *profile.Profile) {
	t := &dataset.Table{Columns: cols}
	for _, rec := range cells {
		row := dataset.Row{}
		for i, c := range cols {
			row[c] = rec[i]
		}
		t.Rows = append(t.Rows, row)
	}
	return t, profile.Build(t, normalize.DateAuto)
}

func TestExecuteDerivedProductSum(t *testing.T) {
	tab, p := makeTable(
		[]string{"Customer", "Qty", "Price"},
		[][]string{
			{"A", "2", "5"},
			{"A", "5", "2"},
			{"B", "4", "1"},
		},
	)
	job := plan.Job{GroupBy: "Customer", Metric: "Qty*Price", Agg: plan.AggSum}
	res, err := Execute(tab, job, Options{}, p)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	want := []GroupRow{{Key: "A", Value: 20}, {Key: "B", Value: 4}}
	if diff := cmp.Diff(want, res.Rows); diff != "" {
		t.Fatalf("rows mismatch (-want +got):\n%s", diff)
	}
	if res.TotalSum != 24 {
		t.Fatalf("TotalSum = %v, want 24", res.TotalSum)
	}
	if res.MissingCount != 0 {
		t.Fatalf("MissingCount = %d, want 0", res.MissingCount)
	}
	if res.RawDataSum != 24 || res.RawRowsCount != 3 {
		t.Fatalf("audit totals = (%v, %d), want (24, 3)", res.RawDataSum, res.RawRowsCount)
	}
	if res.Header != [2]string{"Customer", "Qty*Price"} {
		t.Fatalf("Header = %v", res.Header)
	}
}

func TestExecuteMissingAccounting(t *testing.T) {
	tab, p := makeTable(
		[]string{"Region", "Amount"},
		[][]string{
			{"North", "10"},
			{"", "5"},
			{"n/a", "7"},
			{"South", "3"},
		},
	)
	job := plan.Job{GroupBy: "Region", Metric: "Amount", Agg: plan.AggSum}

	hidden, err := Execute(tab, job, Options{ShowMissing: false}, p)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	want := []GroupRow{{Key: "North", Value: 10}, {Key: "South", Value: 3}}
	if diff := cmp.Diff(want, hidden.Rows); diff != "" {
		t.Fatalf("rows mismatch (-want +got):\n%s", diff)
	}
	if hidden.MissingCount != 2 || hidden.MissingSum != 12 {
		t.Fatalf("missing = (%d, %v), want (2, 12)", hidden.MissingCount, hidden.MissingSum)
	}
	if hidden.TotalSum != 13 {
		t.Fatalf("TotalSum = %v, want 13", hidden.TotalSum)
	}
	// The audit sum never drops missing-key rows.
	if hidden.RawDataSum != 25 {
		t.Fatalf("RawDataSum = %v, want 25", hidden.RawDataSum)
	}

	shown, err := Execute(tab, job, Options{ShowMissing: true}, p)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	want = []GroupRow{
		{Key: MissingLabel, Value: 12},
		{Key: "North", Value: 10},
		{Key: "South", Value: 3},
	}
	if diff := cmp.Diff(want, shown.Rows); diff != "" {
		t.Fatalf("rows mismatch (-want +got):\n%s", diff)
	}
	if shown.MissingCount != 2 || shown.MissingSum != 12 {
		t.Fatalf("missing = (%d, %v), want (2, 12)", shown.MissingCount, shown.MissingSum)
	}
	if shown.Rows[0].Value != shown.MissingSum {
		t.Fatalf("fold-in bucket %v does not reconcile with MissingSum %v", shown.Rows[0].Value, shown.MissingSum)
	}
	if shown.TotalSum != 25 {
		t.Fatalf("TotalSum = %v, want 25", shown.TotalSum)
	}
}

func TestExecuteFilter(t *testing.T) {
	tab, p := makeTable(
		[]string{"Cat", "Amount"},
		[][]string{
			{"A", "50"}, {"B", "30"}, {"C", "15"}, {"D", "5"},
		},
	)
	job := plan.Job{GroupBy: "Cat", Metric: "Amount", Agg: plan.AggSum}

	res, err := Execute(tab, job, Options{Filter: &Filter{Mode: FilterShare, Value: 0.1}}, p)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	want := []GroupRow{{Key: "A", Value: 50}, {Key: "B", Value: 30}, {Key: "C", Value: 15}}
	if diff := cmp.Diff(want, res.Rows); diff != "" {
		t.Fatalf("rows mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]GroupRow{{Key: "D", Value: 5}}, res.RemovedRows); diff != "" {
		t.Fatalf("removed mismatch (-want +got):\n%s", diff)
	}
	// TotalSum is computed before filtering and must not shrink.
	if res.TotalSum != 100 || res.GroupsBeforeFilter != 4 {
		t.Fatalf("pre-filter totals = (%v, %d), want (100, 4)", res.TotalSum, res.GroupsBeforeFilter)
	}

	res, err = Execute(tab, job, Options{Filter: &Filter{Mode: FilterValue, Value: 20}}, p)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(res.Rows) != 2 || len(res.RemovedRows) != 2 {
		t.Fatalf("value filter kept %d removed %d, want 2/2", len(res.Rows), len(res.RemovedRows))
	}
}

func TestExecuteMonthBucketChronological(t *testing.T) {
	tab, p := makeTable(
		[]string{"Date", "Amount"},
		[][]string{
			{"2023-11-05", "1"},
			{"2024-01-10", "2"},
			{"2023-02-20", "3"},
		},
	)
	job := plan.Job{GroupBy: "Date", Metric: "Amount", Agg: plan.AggSum, DateBucket: normalize.BucketMonth}
	res, err := Execute(tab, job, Options{}, p)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	want := []GroupRow{
		{Key: "2023-02", Value: 3},
		{Key: "2023-11", Value: 1},
		{Key: "2024-01", Value: 2},
	}
	if diff := cmp.Diff(want, res.Rows); diff != "" {
		t.Fatalf("rows mismatch (-want +got):\n%s", diff)
	}
}

func TestExecuteMixedDateFormatsShareBuckets(t *testing.T) {
	tab, p := makeTable(
		[]string{"Date", "Amount"},
		[][]string{
			{"2024-01-15", "1"},
			{"15/01/2024", "2"},
			{"31/01/2024", "4"},
		},
	)
	job := plan.Job{GroupBy: "Date", Metric: "Amount", Agg: plan.AggSum, DateBucket: normalize.BucketMonth}
	res, err := Execute(tab, job, Options{}, p)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	want := []GroupRow{{Key: "2024-01", Value: 7}}
	if diff := cmp.Diff(want, res.Rows); diff != "" {
		t.Fatalf("rows mismatch (-want +got):\n%s", diff)
	}
}

func TestExecuteCountWithoutMetric(t *testing.T) {
	tab, p := makeTable(
		[]string{"Status", "Note"},
		[][]string{
			{"Open", "x"}, {"Open", "y"}, {"Closed", "z"}, {"Open", "w"},
		},
	)
	job := plan.Job{GroupBy: "Status", Agg: plan.AggCount}
	res, err := Execute(tab, job, Options{}, p)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	want := []GroupRow{{Key: "Open", Value: 3}, {Key: "Closed", Value: 1}}
	if diff := cmp.Diff(want, res.Rows); diff != "" {
		t.Fatalf("rows mismatch (-want +got):\n%s", diff)
	}
	if res.Header[1] != "Count" {
		t.Fatalf("Header = %v, want Count label", res.Header)
	}
	if res.RawDataSum != 4 {
		t.Fatalf("RawDataSum = %v, want row count 4", res.RawDataSum)
	}
}

func TestExecuteRejectsBadJobs(t *testing.T) {
	tab, p := makeTable(
		[]string{"Region", "Amount"},
		[][]string{{"North", "10"}},
	)
	cases := []plan.Job{
		{GroupBy: "Nope", Metric: "Amount", Agg: plan.AggSum},
		{GroupBy: "Region", Agg: plan.AggSum},
		{GroupBy: "Region", Metric: "Qty*Nope", Agg: plan.AggSum},
	}
	for _, job := range cases {
		_, err := Execute(tab, job, Options{}, p)
		var je *JobError
		if !errors.As(err, &je) {
			t.Fatalf("job %+v: got %v, want JobError", job, err)
		}
	}
}

func TestExecuteAvgSkipsUnparsable(t *testing.T) {
	tab, p := makeTable(
		[]string{"Cat", "Amount"},
		[][]string{
			{"A", "10"}, {"A", "notanumber"}, {"A", "20"}, {"B", ""},
		},
	)
	job := plan.Job{GroupBy: "Cat", Metric: "Amount", Agg: plan.AggAvg}
	res, err := Execute(tab, job, Options{}, p)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	want := []GroupRow{{Key: "A", Value: 15}, {Key: "B", Value: 0}}
	if diff := cmp.Diff(want, res.Rows); diff != "" {
		t.Fatalf("rows mismatch (-want +got):\n%s", diff)
	}
}
