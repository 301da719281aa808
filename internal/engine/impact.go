package engine

import (
	"github.com/skipulag/vegvisir/internal/catalog"
)

// Delta is a risk's expected signed contribution to one goal for one
// scenario: occurrence probability times the PERT mean of the impact triple.
// Returns 0 when the risk has no impact entry for the goal or is gated out
// of the scenario. The catalog validator guarantees impact signs always
// point in the goal's worsening direction, so no delta ever improves a goal.
func Delta(r *catalog.Risk, goalID string, s *catalog.Scenario, tiers catalog.TierTable) float64 {
	return deltaWithProb(Probability(r, s, tiers), r, goalID)
}

// deltaWithProb combines an already-computed occurrence probability with the
// risk's impact magnitude. The scorer uses this to avoid recomputing the
// probability transform once per goal.
func deltaWithProb(p float64, r *catalog.Risk, goalID string) float64 {
	if p == 0 {
		return 0
	}
	imp := r.Impact(goalID)
	if imp == nil {
		return 0
	}
	return p * imp.Magnitude.PertMean()
}
