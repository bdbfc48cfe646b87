package sampler

import "math"

const (
	// enhancedFactor nudges guidance strength up for the quality strategy
	enhancedFactor = 1.08
	// streamlinedScaleCap trades fidelity for speed by bounding the
	// effective guidance scale
	streamlinedScaleCap = 8.0
	// experimental factor range for the creative strategy
	experimentalMin = 0.90
	experimentalMax = 1.15
)

// BuildGuidanceHook returns a guidance-combination function for the given
// kind. The hook runs inside the innermost sampling loop, so it must never
// panic: any non-finite intermediate degrades to the stock CFG value.
func BuildGuidanceHook(kind GuidanceKind, seed int64, id StrategyID) GuidanceFunc {
	switch kind {
	case GuidanceEnhanced:
		return func(cond, uncond, scale float64) float64 {
			return safeGuidance(cond, uncond, scale, func() float64 {
				return uncond + (cond-uncond)*scale*enhancedFactor
			})
		}
	case GuidanceStreamlined:
		return func(cond, uncond, scale float64) float64 {
			return safeGuidance(cond, uncond, scale, func() float64 {
				capped := math.Min(scale, streamlinedScaleCap)
				return uncond + (cond-uncond)*capped
			})
		}
	case GuidanceExperimental:
		// The jitter factor is fixed per hook, reproducible from
		// (seed, strategy), not redrawn per call
		factor := uniform(strategyRand(seed, id), experimentalMin, experimentalMax)
		return func(cond, uncond, scale float64) float64 {
			return safeGuidance(cond, uncond, scale, func() float64 {
				return uncond + (cond-uncond)*scale*factor
			})
		}
	default:
		return stockGuidance
	}
}

// stockGuidance is the unmodified CFG combination
func stockGuidance(cond, uncond, scale float64) float64 {
	return uncond + (cond-uncond)*scale
}

// safeGuidance evaluates a modified guidance value and falls back to the
// stock combination when the result is not finite
func safeGuidance(cond, uncond, scale float64, modified func() float64) float64 {
	v := modified()
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return stockGuidance(cond, uncond, scale)
	}
	return v
}
