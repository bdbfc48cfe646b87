package sampler

import "fmt"

// Strategies is the read-only registry of the three fixed strategies.
// The set is exhaustive: quality, speed, creative.
var Strategies = map[StrategyID]StrategyConfig{
	StrategyQuality: {
		ID:                  StrategyQuality,
		StepMultiplier:      1.5,
		CFGAdjust:           Fixed(1.0),
		DenoiseAdjust:       Fixed(0.0),
		PreferredSamplers:   []string{"dpmpp_2m", "uni_pc", "heun"},
		PreferredSchedulers: []string{"karras", "normal"},
		Guidance:            GuidanceEnhanced,
		NoiseScale:          0.05,
		Brighten:            0.02,
	},
	StrategySpeed: {
		ID:                  StrategySpeed,
		StepMultiplier:      0.6,
		CFGAdjust:           Fixed(-1.0),
		DenoiseAdjust:       Fixed(-0.1),
		PreferredSamplers:   []string{"euler", "lcm", "ddim"},
		PreferredSchedulers: []string{"simple", "normal"},
		Guidance:            GuidanceStreamlined,
		NoiseScale:          0.03,
		Brighten:            -0.02,
	},
	StrategyCreative: {
		ID:                  StrategyCreative,
		StepMultiplier:      1.2,
		CFGAdjust:           Randomized(-1.5, 1.5),
		DenoiseAdjust:       Randomized(-0.15, 0.15),
		PreferredSamplers:   []string{"euler_ancestral", "dpmpp_2m_sde"},
		PreferredSchedulers: []string{"exponential", "karras"},
		Guidance:            GuidanceExperimental,
		NoiseScale:          0.12,
		Brighten:            0.0,
	},
}

// MustStrategy looks up a strategy config and panics on an unknown id.
// The strategy set is fixed at build time, so an unknown id is a
// programming error, not a recoverable runtime condition.
func MustStrategy(id StrategyID) StrategyConfig {
	cfg, ok := Strategies[id]
	if !ok {
		panic(fmt.Sprintf("sampler: unknown strategy %q", id))
	}
	return cfg
}

// KnownStrategy reports whether id names a registered strategy.
// Used at the API boundary where caller input is untrusted.
func KnownStrategy(id StrategyID) bool {
	_, ok := Strategies[id]
	return ok
}
