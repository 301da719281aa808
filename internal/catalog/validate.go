package catalog

import (
	"math"
)

// WeightTolerance is the floating tolerance for weight vectors summing to 1.
const WeightTolerance = 1e-6

const (
	FactorMin = 1
	FactorMax = 5
)

// Validate checks every catalog invariant the engine relies on. The engine
// refuses to run on an unvalidated catalog: a silently-wrong ranking is
// worse than a hard failure.
func (c *Catalog) Validate() error {
	if len(c.Factors) == 0 {
		return configErr("catalog", "", "no factors defined")
	}
	if len(c.Scenarios) == 0 {
		return configErr("catalog", "", "no scenarios defined")
	}
	if len(c.Goals) == 0 {
		return configErr("catalog", "", "no goals defined")
	}

	if err := c.validateTiers(); err != nil {
		return err
	}
	if err := c.validateScenarios(); err != nil {
		return err
	}
	if err := c.validateGoals(); err != nil {
		return err
	}
	if err := c.validateRisks(); err != nil {
		return err
	}
	return c.validateProfiles()
}

func (c *Catalog) validateTiers() error {
	t := c.Tiers
	for _, v := range []float64{t.Low, t.Medium, t.High} {
		if !isFinite(v) {
			return configErr("tier_constants", "", "non-finite constant")
		}
	}
	if !(0 < t.Low && t.Low < t.Medium && t.Medium < t.High) {
		return configErr("tier_constants", "",
			"constants must be positive and strictly ordered low < medium < high (got %g, %g, %g)",
			t.Low, t.Medium, t.High)
	}
	return nil
}

func (c *Catalog) validateScenarios() error {
	for i := range c.Scenarios {
		s := &c.Scenarios[i]
		for fid, v := range s.Factors {
			if !c.HasFactor(fid) {
				return configErr("scenario", s.ID, "references undefined factor %s", fid)
			}
			if v < FactorMin || v > FactorMax {
				return configErr("scenario", s.ID, "factor %s value %d outside [%d,%d]", fid, v, FactorMin, FactorMax)
			}
		}
		for _, f := range c.Factors {
			if _, ok := s.Factors[f.ID]; !ok {
				return configErr("scenario", s.ID, "missing value for factor %s", f.ID)
			}
		}
	}
	return nil
}

func (c *Catalog) validateGoals() error {
	for i := range c.Goals {
		g := &c.Goals[i]
		if g.Direction != LowerIsBetter && g.Direction != HigherIsBetter {
			return configErr("goal", g.ID, "unknown direction %q", g.Direction)
		}
		if !isFinite(g.Baseline.Constant) {
			return configErr("goal", g.ID, "non-finite baseline constant")
		}
		for _, term := range g.Baseline.Terms {
			if !c.HasFactor(term.Factor) {
				return configErr("goal", g.ID, "baseline references undefined factor %s", term.Factor)
			}
			if !isFinite(term.Coefficient) {
				return configErr("goal", g.ID, "non-finite baseline coefficient for factor %s", term.Factor)
			}
		}

		// Robustness requirement: a goal scored off a single risk would make
		// the ranking hostage to one estimate.
		contributors := 0
		for j := range c.Risks {
			if c.Risks[j].Impact(g.ID) != nil {
				contributors++
			}
		}
		if contributors < 2 {
			return configErr("goal", g.ID, "only %d contributing risk(s), need at least 2", contributors)
		}
	}
	return nil
}

func (c *Catalog) validateRisks() error {
	for i := range c.Risks {
		r := &c.Risks[i]

		p := r.BaseProb
		for _, v := range []float64{p.Low, p.Likely, p.High} {
			if !isFinite(v) || v <= 0 || v >= 1 {
				return configErr("risk", r.ID, "base probability %g outside open interval (0,1)", v)
			}
		}
		if !p.ordered() {
			return configErr("risk", r.ID, "base probability triple not ordered low <= likely <= high")
		}

		for _, s := range r.Sensitivities {
			if !c.HasFactor(s.Factor) {
				return configErr("risk", r.ID, "sensitivity references undefined factor %s", s.Factor)
			}
			if s.Direction != Exposure && s.Direction != Protective {
				return configErr("risk", r.ID, "sensitivity on %s has unknown direction %q", s.Factor, s.Direction)
			}
			if s.Tier != TierLow && s.Tier != TierMedium && s.Tier != TierHigh {
				return configErr("risk", r.ID, "sensitivity on %s has unknown tier %q", s.Factor, s.Tier)
			}
		}

		for _, gate := range r.Gates {
			if !c.HasFactor(gate.Factor) {
				return configErr("risk", r.ID, "gate references undefined factor %s", gate.Factor)
			}
			if gate.Min < FactorMin || gate.Max > FactorMax || gate.Min > gate.Max {
				return configErr("risk", r.ID, "gate on %s has invalid range [%d,%d]", gate.Factor, gate.Min, gate.Max)
			}
		}

		if len(r.Impacts) == 0 {
			return configErr("risk", r.ID, "no goal impacts")
		}
		seen := make(map[string]bool, len(r.Impacts))
		for _, imp := range r.Impacts {
			g := c.Goal(imp.Goal)
			if g == nil {
				return configErr("risk", r.ID, "impact references undefined goal %s", imp.Goal)
			}
			if seen[imp.Goal] {
				return configErr("risk", r.ID, "duplicate impact entry for goal %s", imp.Goal)
			}
			seen[imp.Goal] = true

			m := imp.Magnitude
			for _, v := range []float64{m.Low, m.Likely, m.High} {
				if !isFinite(v) {
					return configErr("risk", r.ID, "non-finite impact magnitude for goal %s", imp.Goal)
				}
			}
			if !m.ordered() {
				return configErr("risk", r.ID, "impact triple for goal %s not ordered low <= likely <= high", imp.Goal)
			}

			// Risks only ever worsen goals. An impact whose sign would improve
			// the goal is a catalog defect, never a silently-absorbed value.
			switch g.Direction {
			case LowerIsBetter:
				if m.Low < 0 || m.High <= 0 {
					return configErr("risk", r.ID,
						"impact on lower-is-better goal %s must be positive (worsening), got [%g,%g,%g]",
						imp.Goal, m.Low, m.Likely, m.High)
				}
			case HigherIsBetter:
				if m.High > 0 || m.Low >= 0 {
					return configErr("risk", r.ID,
						"impact on higher-is-better goal %s must be negative (worsening), got [%g,%g,%g]",
						imp.Goal, m.Low, m.Likely, m.High)
				}
			}
		}
	}
	return nil
}

func (c *Catalog) validateProfiles() error {
	for i := range c.Profiles {
		p := &c.Profiles[i]
		if p.Name == "" {
			return configErr("profile", "", "unnamed weight profile")
		}
		if err := ValidateWeights(c, p.Weights); err != nil {
			if ce, ok := err.(*ConfigurationError); ok {
				return configErr("profile", p.Name, "%s", ce.Invariant)
			}
			return err
		}
	}
	return nil
}

// ValidateWeights checks a weight vector against the catalog's goal set:
// every goal present, no unknown goals, non-negative, summing to 1 within
// tolerance.
func ValidateWeights(c *Catalog, weights map[string]float64) error {
	sum := 0.0
	for gid, w := range weights {
		if c.Goal(gid) == nil {
			return configErr("weights", gid, "unknown goal")
		}
		if !isFinite(w) || w < 0 {
			return configErr("weights", gid, "weight %g is negative or non-finite", w)
		}
		sum += w
	}
	for _, g := range c.Goals {
		if _, ok := weights[g.ID]; !ok {
			return configErr("weights", g.ID, "missing weight for goal")
		}
	}
	if math.Abs(sum-1.0) > WeightTolerance {
		return configErr("weights", "", "weights sum to %.9f, must sum to 1", sum)
	}
	return nil
}

// NormalizeWeights scales a non-negative weight vector onto the simplex.
// Authored presets use free-form relative weights; this is where they
// become simplex points. A vector containing a negative weight is returned
// unchanged so validation reports it instead of the division hiding it.
func NormalizeWeights(weights map[string]float64) map[string]float64 {
	sum := 0.0
	for _, w := range weights {
		if w < 0 || !isFinite(w) {
			out := make(map[string]float64, len(weights))
			for gid, v := range weights {
				out[gid] = v
			}
			return out
		}
		sum += w
	}
	out := make(map[string]float64, len(weights))
	if sum == 0 {
		return out
	}
	for gid, w := range weights {
		out[gid] = w / sum
	}
	return out
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
