package plan

import (
	"context"
	"regexp"
	"time"

	"github.com/KaramelBytes/chartloom-cli/internal/normalize"
	"github.com/KaramelBytes/chartloom-cli/internal/profile"
	"github.com/KaramelBytes/chartloom-cli/internal/roles"
)

// erpStrategy recognizes common business-document layouts by their column
// vocabulary and short-circuits role inference with a fixed, known-good
// set of jobs. Takes precedence over the generic planner.
type erpStrategy struct{}

func (erpStrategy) Name() string { return "erp" }

func (erpStrategy) Propose(_ context.Context, pc *Context) ([]Job, bool) {
	for _, route := range []func(*Context) ([]Job, bool){
		routeSalesDocument,
		routeLedger,
		routePurchasing,
		routeInventory,
	} {
		if jobs, ok := route(pc); ok {
			return jobs, true
		}
	}
	return nil, false
}

var (
	reCustomer = regexp.MustCompile(`(?i)(customer|client|buyer)`)
	reQty      = regexp.MustCompile(`(?i)\b(qty|quantity)\b`)
	rePrice    = regexp.MustCompile(`(?i)price`)
	reCost     = regexp.MustCompile(`(?i)cost`)
	reTotal    = regexp.MustCompile(`(?i)(total|revenue|amount)`)
	reItem     = regexp.MustCompile(`(?i)\b(item|product|sku|material|description)\b`)
	reRegion   = regexp.MustCompile(`(?i)(region|country|state|city|branch|territory)`)
	reAccount  = regexp.MustCompile(`(?i)account`)
	reDebit    = regexp.MustCompile(`(?i)debit`)
	reCredit   = regexp.MustCompile(`(?i)credit`)
	rePO       = regexp.MustCompile(`(?i)(\bpo\b|po.?no|purchase.?order)`)
	reVendor   = regexp.MustCompile(`(?i)(vendor|supplier)`)
	reOnHand   = regexp.MustCompile(`(?i)(on.?hand|stock|\bsoh\b)`)
	reValue    = regexp.MustCompile(`(?i)value`)
	reLocation = regexp.MustCompile(`(?i)(location|warehouse|site|\bbin\b)`)
)

// routeSalesDocument handles invoice/sales-order exports:
// customer + quantity + a money column + an item column. A derived
// quantity×price product beats a lone total column as the primary metric,
// since per-line totals frequently include tax or rounding noise.
func routeSalesDocument(pc *Context) ([]Job, bool) {
	customer, okCustomer := findColumn(pc, reCustomer, false)
	qty, okQty := findColumn(pc, reQty, true)
	item, okItem := findColumn(pc, reItem, false)
	price, okPrice := findColumn(pc, rePrice, true)
	cost, okCost := findColumn(pc, reCost, true)
	total, okTotal := findColumn(pc, reTotal, true)
	if !okCustomer || !okQty || !okItem || !(okPrice || okCost || okTotal) {
		return nil, false
	}
	var metric string
	switch {
	case okPrice:
		metric = qty + "*" + price
	case okCost:
		metric = qty + "*" + cost
	default:
		metric = total
	}
	jobs := timeSeriesJobs(pc, metric)
	for _, dim := range []string{customer, item} {
		jobs = append(jobs, Job{
			GroupBy: dim, Metric: metric, Agg: AggSum,
			Chart: ChartHBar, Priority: roles.PriorityHigh,
		})
	}
	if region, ok := findColumn(pc, reRegion, false); ok {
		jobs = append(jobs, Job{
			GroupBy: region, Metric: metric, Agg: AggSum,
			Chart: ChartBar, Priority: roles.PriorityHigh,
		})
	}
	return jobs, true
}

// routeLedger handles journal exports: account + debit + credit.
func routeLedger(pc *Context) ([]Job, bool) {
	account, okAccount := findColumn(pc, reAccount, false)
	debit, okDebit := findColumn(pc, reDebit, true)
	credit, okCredit := findColumn(pc, reCredit, true)
	if !okAccount || !okDebit || !okCredit {
		return nil, false
	}
	jobs := timeSeriesJobs(pc, debit)
	jobs = append(jobs,
		Job{GroupBy: account, Metric: debit, Agg: AggSum, Chart: ChartHBar, Priority: roles.PriorityHigh},
		Job{GroupBy: account, Metric: credit, Agg: AggSum, Chart: ChartHBar, Priority: roles.PriorityHigh},
	)
	return jobs, true
}

// routePurchasing handles PO exports: PO + vendor + item + cost + qty.
func routePurchasing(pc *Context) ([]Job, bool) {
	_, okPO := findColumn(pc, rePO, false)
	vendor, okVendor := findColumn(pc, reVendor, false)
	item, okItem := findColumn(pc, reItem, false)
	cost, okCost := findColumn(pc, reCost, true)
	qty, okQty := findColumn(pc, reQty, true)
	if !okPO || !okVendor || !okItem || !okCost || !okQty {
		return nil, false
	}
	metric := qty + "*" + cost
	jobs := timeSeriesJobs(pc, metric)
	for _, dim := range []string{vendor, item} {
		jobs = append(jobs, Job{
			GroupBy: dim, Metric: metric, Agg: AggSum,
			Chart: ChartHBar, Priority: roles.PriorityHigh,
		})
	}
	return jobs, true
}

// routeInventory handles stock reports: item + on-hand + location + value.
func routeInventory(pc *Context) ([]Job, bool) {
	item, okItem := findColumn(pc, reItem, false)
	onHand, okOnHand := findColumn(pc, reOnHand, true)
	location, okLocation := findColumn(pc, reLocation, false)
	value, okValue := findColumn(pc, reValue, true)
	if !okItem || !okOnHand || !okLocation || !okValue {
		return nil, false
	}
	return []Job{
		{GroupBy: location, Metric: value, Agg: AggSum, Chart: ChartBar, Priority: roles.PriorityHigh},
		{GroupBy: item, Metric: value, Agg: AggSum, Chart: ChartHBar, Priority: roles.PriorityHigh},
		{GroupBy: location, Metric: onHand, Agg: AggSum, Chart: ChartBar, Priority: roles.PriorityNormal},
	}, true
}

// findColumn returns the first profiled column whose name matches re.
// With numeric set, only number-typed columns qualify, so "Total Boxes"
// cannot satisfy a money requirement with text content.
func findColumn(pc *Context, re *regexp.Regexp, numeric bool) (string, bool) {
	for i := range pc.Profile.Columns {
		col := &pc.Profile.Columns[i]
		if !re.MatchString(col.Name) {
			continue
		}
		if numeric && col.Type != profile.TypeNumber {
			continue
		}
		if pc.excluded(col.Name) {
			continue
		}
		return col.Name, true
	}
	return "", false
}

// timeSeriesJobs emits one bucketed sum job when the table has a usable
// date column, sized by the column's span.
func timeSeriesJobs(pc *Context, metric string) []Job {
	dateCol, ok := firstDateColumn(pc)
	if !ok {
		return nil
	}
	return []Job{{
		GroupBy:    dateCol,
		Metric:     metric,
		Agg:        AggSum,
		DateBucket: autoBucketFor(pc, dateCol),
		Chart:      ChartLine,
		Priority:   roles.PriorityCritical,
	}}
}

func firstDateColumn(pc *Context) (string, bool) {
	for i := range pc.Profile.Columns {
		col := &pc.Profile.Columns[i]
		if col.Type == profile.TypeDate && col.Completeness >= 0.5 {
			return col.Name, true
		}
	}
	return "", false
}

// autoBucketFor sizes the bucket from the observed date span.
func autoBucketFor(pc *Context, dateCol string) normalize.Bucket {
	var min, max time.Time
	for _, row := range pc.Table.Rows {
		t, ok := normalize.ParseDate(row.CellString(dateCol), pc.Profile.DateFormat)
		if !ok {
			continue
		}
		if min.IsZero() || t.Before(min) {
			min = t
		}
		if max.IsZero() || t.After(max) {
			max = t
		}
	}
	if min.IsZero() {
		return normalize.BucketMonth
	}
	return normalize.AutoBucket(min, max)
}
