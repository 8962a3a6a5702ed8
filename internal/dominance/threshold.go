package dominance

import "math"

// winEpsilon guards the strict-greater comparison against float noise.
const winEpsilon = 1e-9

// Thresholds parameterizes the admission rule that shields earlier miners
// from marginal improvements.
type Thresholds struct {
	// ErrorRateReduction is the relative error-rate reduction a later miner
	// must achieve over an earlier one.
	ErrorRateReduction float64
	// MinImprovement is the absolute floor on the required improvement.
	MinImprovement float64
	// MaxImprovement caps the required improvement.
	MaxImprovement float64
}

// DefaultThresholds returns the validator-compatible parameters:
// 20% error-rate reduction, floored at +0.02, capped at +0.10.
func DefaultThresholds() Thresholds {
	return Thresholds{
		ErrorRateReduction: 0.2,
		MinImprovement:     0.02,
		MaxImprovement:     0.1,
	}
}

// RequiredScore returns the accuracy a later miner must strictly exceed to
// win an environment against an earlier miner that scored prior.
//
//	required = min(prior + clamp((1-prior)*reduction, min, max), 1.0)
func (t Thresholds) RequiredScore(prior float64) float64 {
	errDelta := (1.0 - prior) * t.ErrorRateReduction
	improvement := math.Min(math.Max(errDelta, t.MinImprovement), t.MaxImprovement)
	return math.Min(prior+improvement, 1.0)
}
