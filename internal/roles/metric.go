package roles

import (
	"regexp"
	"sort"
	"strings"

	"github.com/KaramelBytes/chartloom-cli/internal/profile"
)

// metricRank orders candidate numeric columns for auto-selection: obvious
// money totals first, generic numerics last.
var metricRanks = []struct {
	rank int
	re   *regexp.Regexp
}{
	{1, regexp.MustCompile(`(?i)(total.?amount|amount|grand.?total)`)},
	{2, regexp.MustCompile(`(?i)price`)},
	{3, regexp.MustCompile(`(?i)(qty|quantity)`)},
	{4, regexp.MustCompile(`(?i)(cost|value|revenue|sales|total)`)},
}

func metricRank(name string) int {
	for _, mr := range metricRanks {
		if mr.re.MatchString(name) {
			return mr.rank
		}
	}
	return 5
}

// BestMetricColumn picks the most aggregation-worthy numeric column.
// Ties break on the presence of "amount" in the name, then alphabetically.
func BestMetricColumn(p *profile.Profile) (string, bool) {
	var candidates []string
	for i := range p.Columns {
		if p.Columns[i].Type == profile.TypeNumber {
			candidates = append(candidates, p.Columns[i].Name)
		}
	}
	if len(candidates) == 0 {
		return "", false
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		ri, rj := metricRank(candidates[i]), metricRank(candidates[j])
		if ri != rj {
			return ri < rj
		}
		ai := strings.Contains(strings.ToLower(candidates[i]), "amount")
		aj := strings.Contains(strings.ToLower(candidates[j]), "amount")
		if ai != aj {
			return ai
		}
		return candidates[i] < candidates[j]
	})
	return candidates[0], true
}
