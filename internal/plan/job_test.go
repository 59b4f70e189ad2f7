package plan

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/KaramelBytes/chartloom-cli/internal/normalize"
	"github.com/KaramelBytes/chartloom-cli/internal/roles"
)

func TestCanonicalKeyNormalizesEmptyMetric(t *testing.T) {
	a := Job{GroupBy: "Region", Agg: AggCount}
	b := Job{GroupBy: "Region", Metric: "", Agg: AggCount, Chart: ChartPie, Priority: roles.PriorityHigh}
	assert.Equal(t, a.CanonicalKey(), b.CanonicalKey())

	c := Job{GroupBy: "Region", Metric: "Amount", Agg: AggSum}
	assert.NotEqual(t, a.CanonicalKey(), c.CanonicalKey())

	d := Job{GroupBy: "Date", Metric: "Amount", Agg: AggSum, DateBucket: normalize.BucketMonth}
	e := Job{GroupBy: "Date", Metric: "Amount", Agg: AggSum, DateBucket: normalize.BucketWeek}
	assert.NotEqual(t, d.CanonicalKey(), e.CanonicalKey())
}

func TestDeduplicateIsOrderStableAndIdempotent(t *testing.T) {
	jobs := []Job{
		{GroupBy: "Region", Metric: "Amount", Agg: AggSum},
		{GroupBy: "Status", Metric: "Amount", Agg: AggSum},
		{GroupBy: "Region", Metric: "Amount", Agg: AggSum, Chart: ChartBar}, // dup of first
		{GroupBy: "Region", Metric: "Amount", Agg: AggAvg},
	}
	once := Deduplicate(jobs)
	assert.Len(t, once, 3)
	assert.Equal(t, "Region", once[0].GroupBy)
	assert.Equal(t, "Status", once[1].GroupBy)
	assert.Equal(t, AggAvg, once[2].Agg)

	twice := Deduplicate(once)
	assert.Equal(t, once, twice)
}

func TestCapJobs(t *testing.T) {
	var jobs []Job
	for i := 0; i < 15; i++ {
		jobs = append(jobs, Job{GroupBy: "c", Metric: string(rune('a' + i)), Agg: AggSum})
	}
	assert.Len(t, capJobs(jobs), maxJobs)
}
