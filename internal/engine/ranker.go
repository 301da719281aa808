package engine

import (
	"sort"

	"github.com/skipulag/vegvisir/internal/catalog"
)

// RankedScenario is one row of a ranking: the scenario's weighted total over
// oriented normalized scores and the per-goal contributions behind it.
type RankedScenario struct {
	Rank          int                `json:"rank"`
	ScenarioID    string             `json:"scenario_id"`
	Name          string             `json:"name"`
	WeightedTotal float64            `json:"weighted_total"`
	Contributions map[string]float64 `json:"contributions"`
}

// Rank orders all scenarios descending by weighted total under the given
// weight vector. Floating ties are broken by scenario ID ascending, so the
// ordering is deterministic and Monte Carlo win tallies never favor an
// arbitrary iteration order.
func (e *Engine) Rank(weights map[string]float64) ([]RankedScenario, error) {
	if err := catalog.ValidateWeights(e.cat, weights); err != nil {
		return nil, err
	}

	wvec := make([]float64, len(e.cal.goalIDs))
	for gi, gid := range e.cal.goalIDs {
		wvec[gi] = weights[gid]
	}

	ranked := make([]RankedScenario, 0, len(e.cal.scenarioIDs))
	for si, sid := range e.cal.scenarioIDs {
		contrib := make(map[string]float64, len(e.cal.goalIDs))
		total := 0.0
		for gi, gid := range e.cal.goalIDs {
			c := wvec[gi] * e.cal.oriented[si][gi]
			contrib[gid] = c
			total += c
		}
		ranked = append(ranked, RankedScenario{
			ScenarioID:    sid,
			Name:          e.cat.Scenario(sid).Name,
			WeightedTotal: total,
			Contributions: contrib,
		})
	}

	// scenarioIDs are ascending, so a stable sort on the total alone keeps
	// equal-total rows in ID order.
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].WeightedTotal > ranked[j].WeightedTotal
	})
	for i := range ranked {
		ranked[i].Rank = i + 1
	}
	return ranked, nil
}

// winner returns the index (into the calibration's scenario order) of the
// scenario with the highest weighted total, ties to the lowest index. This
// is the ranking reduced to what a simulation trial needs.
func (e *Engine) winner(wvec []float64) int {
	best := 0
	bestTotal := e.weightedTotal(0, wvec)
	for si := 1; si < len(e.cal.scenarioIDs); si++ {
		if t := e.weightedTotal(si, wvec); t > bestTotal {
			best, bestTotal = si, t
		}
	}
	return best
}

func (e *Engine) weightedTotal(si int, wvec []float64) float64 {
	row := e.cal.oriented[si]
	total := 0.0
	for gi := range wvec {
		total += wvec[gi] * row[gi]
	}
	return total
}
