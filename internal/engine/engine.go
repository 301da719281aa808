package engine

import (
	"log/slog"
	"sort"
	"sync"

	"github.com/skipulag/vegvisir/internal/catalog"
)

// Engine evaluates a single immutable catalog. All methods are pure reads
// over the catalog and the calibration artifact, safe for concurrent use.
type Engine struct {
	cat    *catalog.Catalog
	cal    *Calibration
	logger *slog.Logger
}

// New builds an engine over a validated catalog, running the two-phase
// calibration up front. Fails on degenerate catalogs (zero score spread).
func New(cat *catalog.Catalog, logger *slog.Logger) (*Engine, error) {
	cal, err := Calibrate(cat)
	if err != nil {
		return nil, err
	}
	logger.Info("engine calibrated",
		"scenarios", len(cat.Scenarios),
		"risks", len(cat.Risks),
		"goals", len(cat.Goals),
	)
	return &Engine{cat: cat, cal: cal, logger: logger}, nil
}

// Catalog returns the catalog this engine evaluates.
func (e *Engine) Catalog() *catalog.Catalog { return e.cat }

// Calibration returns the engine's calibration artifact.
func (e *Engine) Calibration() *Calibration { return e.cal }

// RiskAssessment is one risk's evaluation for a single scenario, with the
// per-sensitivity breakdown the reporting layer displays.
type RiskAssessment struct {
	RiskID      string             `json:"risk_id"`
	Name        string             `json:"name"`
	Category    string             `json:"category,omitempty"`
	Applicable  bool               `json:"applicable"`
	Probability float64            `json:"probability"`
	BaseMean    float64            `json:"base_mean"`
	Shifts      []SensitivityShift `json:"shifts,omitempty"`
}

// ScenarioRisks evaluates every risk against one scenario, ordered by
// occurrence probability descending. Gated-out risks come last with
// Applicable=false and probability 0.
func (e *Engine) ScenarioRisks(scenarioID string) ([]RiskAssessment, bool) {
	scenario := e.cat.Scenario(scenarioID)
	if scenario == nil {
		return nil, false
	}

	out := make([]RiskAssessment, 0, len(e.cat.Risks))
	for i := range e.cat.Risks {
		r := &e.cat.Risks[i]
		p, shifts := ProbabilityBreakdown(r, scenario, e.cat.Tiers)
		out = append(out, RiskAssessment{
			RiskID:      r.ID,
			Name:        r.Name,
			Category:    r.Category,
			Applicable:  Applies(r, scenario),
			Probability: p,
			BaseMean:    r.BaseProb.PertMean(),
			Shifts:      shifts,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Probability != out[j].Probability {
			return out[i].Probability > out[j].Probability
		}
		return out[i].RiskID < out[j].RiskID
	})
	return out, true
}

// GoalScore is one goal's scored value for one scenario.
type GoalScore struct {
	GoalID     string  `json:"goal_id"`
	Raw        float64 `json:"raw"`
	Normalized float64 `json:"normalized"`
}

// Scores returns the full per-scenario, per-goal score table, scenarios in
// ascending ID order and goals in catalog order.
func (e *Engine) Scores() map[string][]GoalScore {
	out := make(map[string][]GoalScore, len(e.cal.scenarioIDs))
	for _, sid := range e.cal.scenarioIDs {
		row := make([]GoalScore, 0, len(e.cal.goalIDs))
		for _, gid := range e.cal.goalIDs {
			row = append(row, GoalScore{
				GoalID:     gid,
				Raw:        e.cal.RawScore(gid, sid),
				Normalized: e.cal.NormalizedScore(gid, sid),
			})
		}
		out[sid] = row
	}
	return out
}

// BestScenarioPerGoal returns, for each goal, the scenario with the best
// oriented score. Ties resolve to the lowest scenario ID.
func (e *Engine) BestScenarioPerGoal() map[string]string {
	out := make(map[string]string, len(e.cal.goalIDs))
	for _, gid := range e.cal.goalIDs {
		best := e.cal.scenarioIDs[0]
		bestScore := e.cal.OrientedScore(gid, best)
		for _, sid := range e.cal.scenarioIDs[1:] {
			if v := e.cal.OrientedScore(gid, sid); v > bestScore {
				best, bestScore = sid, v
			}
		}
		out[gid] = best
	}
	return out
}

// Holder hands out the current engine and swaps in a replacement when the
// catalog is reloaded. Readers always see a fully-calibrated engine; there
// is no partially-reloaded state.
type Holder struct {
	mu  sync.RWMutex
	eng *Engine
}

func NewHolder(e *Engine) *Holder {
	return &Holder{eng: e}
}

// Get returns the current engine.
func (h *Holder) Get() *Engine {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.eng
}

// Swap installs a new engine atomically.
func (h *Holder) Swap(e *Engine) {
	h.mu.Lock()
	h.eng = e
	h.mu.Unlock()
}
