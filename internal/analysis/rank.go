package analysis

import (
	"sort"

	"mfi-alm/internal/engine"
)

type RankedScenario struct {
	Rank int
	engine.SummaryRow
}

// RankByCapital sorts scenarios by required capital, largest first. Failed
// scenarios go last in their original order.
func RankByCapital(results []engine.ScenarioResult) []RankedScenario {
	out := make([]RankedScenario, 0, len(results))
	for _, r := range results {
		out = append(out, RankedScenario{SummaryRow: r.Summary()})
	}
	sort.SliceStable(out, func(i, j int) bool {
		fi, fj := out[i].Error != "", out[j].Error != ""
		if fi != fj {
			return fj
		}
		if fi {
			return false
		}
		return out[i].Capital > out[j].Capital
	})
	for i := range out {
		out[i].Rank = i + 1
	}
	return out
}
