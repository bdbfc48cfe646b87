package sampler

import "math"

// DeriveOptions carries the clamping ceilings and the preference inputs
// that shape a single derivation
type DeriveOptions struct {
	StepCeiling int
	CFGCeiling  float64
	// Bias is the bounded preference adjustment for this strategy, 0 when
	// there is not enough feedback evidence
	Bias float64
	// OverrideSamplers forces the strategy's most-preferred sampler and
	// scheduler regardless of the base request
	OverrideSamplers bool
	// Supported is the sampler set the backend reports as available
	Supported []string
}

// Derive produces strategy-specific sampling parameters from a base bundle.
// Pure given (base, cfg, seed, opts): identical inputs always yield
// identical outputs, including the randomized adjustments.
func Derive(base SamplingParameters, cfg StrategyConfig, seed int64, opts DeriveOptions) SamplingParameters {
	rng := strategyRand(seed, cfg.ID)
	scale := 1.0 + opts.Bias

	// Steps: the multiplier's distance from 1.0 grows with preference bias
	mult := 1.0 + (cfg.StepMultiplier-1.0)*scale
	steps := int(math.Round(float64(base.Steps) * mult))
	steps = clampInt(steps, 1, opts.StepCeiling)

	// Guidance scale. The randomized draw always happens for randomized
	// adjustments so the generator stream stays aligned across calls.
	cfgDelta := cfg.CFGAdjust.Value
	if cfg.CFGAdjust.Randomized {
		cfgDelta = uniform(rng, cfg.CFGAdjust.Min, cfg.CFGAdjust.Max)
	}
	guidance := clampFloat(base.CFG+cfgDelta*scale, 0, opts.CFGCeiling)

	// Denoise
	denoiseDelta := cfg.DenoiseAdjust.Value
	if cfg.DenoiseAdjust.Randomized {
		denoiseDelta = uniform(rng, cfg.DenoiseAdjust.Min, cfg.DenoiseAdjust.Max)
	}
	denoise := clampFloat(base.Denoise+denoiseDelta*scale, 0, 1)

	samplerName := resolvePreferred(cfg.PreferredSamplers, base.Sampler, opts.Supported, opts.OverrideSamplers)
	schedulerName := resolvePreferred(cfg.PreferredSchedulers, base.Scheduler, Schedulers, opts.OverrideSamplers)

	return SamplingParameters{
		Steps:     steps,
		CFG:       guidance,
		Denoise:   denoise,
		Sampler:   samplerName,
		Scheduler: schedulerName,
	}
}

// resolvePreferred picks the first preferred identifier the backend
// supports; failing that, the base identifier if supported; failing that,
// the first supported identifier. The override flag exists for symmetry
// with the preference-driven sampler override: when set, only the
// preferred list is consulted before falling through.
func resolvePreferred(preferred []string, base string, supported []string, override bool) string {
	inSupported := func(name string) bool {
		for _, s := range supported {
			if s == name {
				return true
			}
		}
		return false
	}

	for _, p := range preferred {
		if inSupported(p) {
			return p
		}
	}
	if !override && base != "" && inSupported(base) {
		return base
	}
	if len(supported) > 0 {
		return supported[0]
	}
	return base
}

func uniform(rng interface{ Float64() float64 }, min, max float64) float64 {
	return min + rng.Float64()*(max-min)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
