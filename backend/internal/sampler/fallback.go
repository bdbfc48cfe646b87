package sampler

import "fmt"

// mockTransform is the deterministic substitute computation used when the
// real backend is unreachable or fails. It perturbs the input latent with
// strategy-scaled seeded noise plus a per-strategy brightness shift, so
// the three variants stay numerically distinguishable given the same
// input latent and seed.
func mockTransform(latent Latent, cfg StrategyConfig, seed int64, params SamplingParameters) (Latent, error) {
	if latent.Empty() {
		return latent, fmt.Errorf("cannot transform empty latent")
	}

	rng := strategyRand(seed, cfg.ID)

	noiseScale := cfg.NoiseScale
	if cfg.Guidance == GuidanceExperimental {
		// Creative runs jitter their own perturbation magnitude
		noiseScale *= uniform(rng, 0.8, 1.6)
	}
	// Denoise bounds how much of the input structure may be overwritten
	noiseScale *= params.Denoise

	out := latent.Clone()
	for i := range out.Data {
		out.Data[i] += (rng.Float64()*2-1)*noiseScale + cfg.Brighten
	}
	return out, nil
}
