package engine

import (
	"sort"

	"github.com/skipulag/vegvisir/internal/catalog"
)

// Calibration is the immutable two-phase scoring artifact: phase 1 computes
// raw scores for every (goal, scenario) pair and derives one normalizer per
// goal from the realized spread; phase 2 reads them. It is rebuilt whenever
// the catalog changes and never mutated in place.
type Calibration struct {
	scenarioIDs []string // ascending, also the ranking tie-break order
	goalIDs     []string // catalog order

	scenarioIdx map[string]int
	goalIdx     map[string]int

	raw         [][]float64 // [scenario][goal] baseline + summed deltas
	normalizers []float64   // per goal, 1 / raw-score spread
	oriented    [][]float64 // [scenario][goal] normalized and direction-oriented
}

// Calibrate runs the full scenario set through the probability transform,
// impact aggregation, and raw scoring, then derives per-goal normalizers so
// every goal's realized value range has width 1.0 across the set. A goal
// whose raw scores do not vary across scenarios cannot differentiate them;
// that is a degenerate catalog and is rejected rather than divided around.
func Calibrate(cat *catalog.Catalog) (*Calibration, error) {
	cal := &Calibration{
		scenarioIDs: make([]string, 0, len(cat.Scenarios)),
		goalIDs:     make([]string, 0, len(cat.Goals)),
		scenarioIdx: make(map[string]int, len(cat.Scenarios)),
		goalIdx:     make(map[string]int, len(cat.Goals)),
	}
	for _, s := range cat.Scenarios {
		cal.scenarioIDs = append(cal.scenarioIDs, s.ID)
	}
	sort.Strings(cal.scenarioIDs)
	for i, id := range cal.scenarioIDs {
		cal.scenarioIdx[id] = i
	}
	for i, g := range cat.Goals {
		cal.goalIDs = append(cal.goalIDs, g.ID)
		cal.goalIdx[g.ID] = i
	}

	// Phase 1: raw scores. One probability evaluation per (risk, scenario),
	// shared across all of the risk's goal impacts.
	cal.raw = make([][]float64, len(cal.scenarioIDs))
	for si, sid := range cal.scenarioIDs {
		scenario := cat.Scenario(sid)
		row := make([]float64, len(cal.goalIDs))
		for gi, g := range cat.Goals {
			row[gi] = g.Baseline.Eval(scenario)
		}
		for ri := range cat.Risks {
			r := &cat.Risks[ri]
			p := Probability(r, scenario, cat.Tiers)
			if p == 0 {
				continue
			}
			for _, imp := range r.Impacts {
				row[cal.goalIdx[imp.Goal]] += deltaWithProb(p, r, imp.Goal)
			}
		}
		cal.raw[si] = row
	}

	// Derive normalizers from the realized spread.
	cal.normalizers = make([]float64, len(cal.goalIDs))
	for gi, gid := range cal.goalIDs {
		lo, hi := cal.raw[0][gi], cal.raw[0][gi]
		for si := 1; si < len(cal.raw); si++ {
			v := cal.raw[si][gi]
			if v < lo {
				lo = v
			}
			if v > hi {
				hi = v
			}
		}
		spread := hi - lo
		if spread <= 0 {
			return nil, &catalog.ConfigurationError{
				Kind: "goal", ID: gid,
				Invariant: "zero raw-score spread across scenario set, cannot normalize",
			}
		}
		cal.normalizers[gi] = 1 / spread
	}

	// Phase 2 inputs: normalized scores, oriented so higher always means
	// better regardless of the goal's stated direction.
	cal.oriented = make([][]float64, len(cal.scenarioIDs))
	for si := range cal.raw {
		row := make([]float64, len(cal.goalIDs))
		for gi := range cal.goalIDs {
			g := cat.Goal(cal.goalIDs[gi])
			row[gi] = g.Orientation() * cal.raw[si][gi] * cal.normalizers[gi]
		}
		cal.oriented[si] = row
	}

	return cal, nil
}

// ScenarioIDs returns the scenario identifiers in ascending order.
func (c *Calibration) ScenarioIDs() []string { return c.scenarioIDs }

// GoalIDs returns the goal identifiers in catalog order.
func (c *Calibration) GoalIDs() []string { return c.goalIDs }

// RawScore returns baseline + summed deltas for one (goal, scenario) pair.
func (c *Calibration) RawScore(goalID, scenarioID string) float64 {
	return c.raw[c.scenarioIdx[scenarioID]][c.goalIdx[goalID]]
}

// Normalizer returns a goal's calibrated 1/spread scalar.
func (c *Calibration) Normalizer(goalID string) float64 {
	return c.normalizers[c.goalIdx[goalID]]
}

// NormalizedScore returns raw score x normalizer. At equal weight every
// goal's realized range across the scenario set has width 1.0.
func (c *Calibration) NormalizedScore(goalID, scenarioID string) float64 {
	return c.RawScore(goalID, scenarioID) * c.Normalizer(goalID)
}

// OrientedScore is the normalized score with the goal's direction folded in:
// higher is always better. This is the value the ranker weights.
func (c *Calibration) OrientedScore(goalID, scenarioID string) float64 {
	return c.oriented[c.scenarioIdx[scenarioID]][c.goalIdx[goalID]]
}
