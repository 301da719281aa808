package engine

import (
	"math"

	"github.com/skipulag/vegvisir/internal/catalog"
)

const neutralFactor = 3.0

// float64 evaluation of the logistic function rounds to exactly 0.0 or 1.0
// at |log-odds| beyond roughly 36, well below the exp overflow threshold.
// Downstream log-odds reasoning relies on the open interval, so outputs are
// clamped hard regardless of how extreme the shifts get.
const (
	probFloor = 1e-15
	probCeil  = 1 - 1e-15
)

// Applies reports whether all of a risk's gates hold for a scenario.
// A risk with no gates applies unconditionally.
func Applies(r *catalog.Risk, s *catalog.Scenario) bool {
	for _, g := range r.Gates {
		v := s.Factor(g.Factor)
		if v < g.Min || v > g.Max {
			return false
		}
	}
	return true
}

// SensitivityShift is one sensitivity's log-odds contribution for a scenario,
// kept for explanation payloads.
type SensitivityShift struct {
	Factor      string            `json:"factor"`
	Direction   catalog.Direction `json:"direction"`
	Tier        catalog.Tier      `json:"tier"`
	FactorValue int               `json:"factor_value"`
	Shift       float64           `json:"shift"`
}

// shiftFor computes a single sensitivity's log-odds shift. Zero exactly at
// the neutral factor value 3, linear and monotonic in the factor value.
func shiftFor(sens catalog.Sensitivity, value int, tiers catalog.TierTable) float64 {
	return sens.Direction.Sign() * tiers.Constant(sens.Tier) * (float64(value) - neutralFactor) / 2
}

// Probability computes a risk's calibrated occurrence probability for a
// scenario: PERT mean of the base triple, mapped to log-odds, shifted by
// each sensitivity, and inverted through the logistic function. Returns
// exactly 0 for a gated-out risk so it contributes nothing downstream;
// otherwise the result is strictly inside (probFloor, probCeil).
func Probability(r *catalog.Risk, s *catalog.Scenario, tiers catalog.TierTable) float64 {
	p, _ := ProbabilityBreakdown(r, s, tiers)
	return p
}

// ProbabilityBreakdown is Probability plus the per-sensitivity shifts that
// produced it. A gated-out risk returns (0, nil).
func ProbabilityBreakdown(r *catalog.Risk, s *catalog.Scenario, tiers catalog.TierTable) (float64, []SensitivityShift) {
	if !Applies(r, s) {
		return 0, nil
	}

	logOdds := logit(r.BaseProb.PertMean())

	var shifts []SensitivityShift
	if len(r.Sensitivities) > 0 {
		shifts = make([]SensitivityShift, 0, len(r.Sensitivities))
	}
	for _, sens := range r.Sensitivities {
		v := s.Factor(sens.Factor)
		d := shiftFor(sens, v, tiers)
		logOdds += d
		shifts = append(shifts, SensitivityShift{
			Factor:      sens.Factor,
			Direction:   sens.Direction,
			Tier:        sens.Tier,
			FactorValue: v,
			Shift:       d,
		})
	}

	return clampProb(logistic(logOdds)), shifts
}

// logit maps a probability in (0,1) to log-odds.
func logit(p float64) float64 {
	return math.Log(p / (1 - p))
}

func logistic(logOdds float64) float64 {
	return 1 / (1 + math.Exp(-logOdds))
}

func clampProb(p float64) float64 {
	if p < probFloor {
		return probFloor
	}
	if p > probCeil {
		return probCeil
	}
	return p
}
