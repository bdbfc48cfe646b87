package sampler

import (
	"context"
	"time"
)

// StrategyID identifies one of the fixed sampling strategies
type StrategyID string

const (
	StrategyQuality  StrategyID = "quality"
	StrategySpeed    StrategyID = "speed"
	StrategyCreative StrategyID = "creative"
)

// StrategyOrder is the canonical output order of the three variants
var StrategyOrder = [3]StrategyID{StrategyQuality, StrategySpeed, StrategyCreative}

// GuidanceKind selects how a strategy combines conditional and
// unconditional guidance inside the sampling loop
type GuidanceKind string

const (
	GuidanceEnhanced     GuidanceKind = "enhanced"
	GuidanceStreamlined  GuidanceKind = "streamlined"
	GuidanceExperimental GuidanceKind = "experimental"
)

// Schedulers is the closed set of scheduler identifiers. Anything outside
// this set is rejected at validation, never passed to a backend.
var Schedulers = []string{"normal", "karras", "exponential", "sgm_uniform", "simple", "ddim_uniform"}

// builtinSamplers is the sampler set assumed when no backend is reachable
// to introspect. Mirrors the stock KSampler algorithm list.
var builtinSamplers = []string{
	"euler", "euler_ancestral", "heun", "dpmpp_2m", "dpmpp_2m_sde",
	"dpmpp_3m_sde", "ddim", "uni_pc", "lcm", "res_multistep",
}

// ValidScheduler reports whether name belongs to the scheduler enumeration
func ValidScheduler(name string) bool {
	for _, s := range Schedulers {
		if s == name {
			return true
		}
	}
	return false
}

// SamplingParameters is an immutable bundle of sampling settings.
// A new instance is derived per strategy; instances are never mutated.
type SamplingParameters struct {
	Steps     int     `json:"steps"`
	CFG       float64 `json:"cfg"`
	Denoise   float64 `json:"denoise"`
	Sampler   string  `json:"sampler"`
	Scheduler string  `json:"scheduler"`
}

// Adjustment is a parameter delta that is either fixed or drawn from a
// seeded uniform range ("randomized" in the node UI)
type Adjustment struct {
	Value      float64
	Randomized bool
	// Min/Max bound the randomized draw; ignored for fixed adjustments
	Min float64
	Max float64
}

// Fixed returns a fixed adjustment
func Fixed(v float64) Adjustment {
	return Adjustment{Value: v}
}

// Randomized returns an adjustment drawn uniformly from [min, max]
func Randomized(min, max float64) Adjustment {
	return Adjustment{Randomized: true, Min: min, Max: max}
}

// StrategyConfig is the static parameter-transform bundle for one strategy.
// Loaded once at build time, never mutated.
type StrategyConfig struct {
	ID                  StrategyID
	StepMultiplier      float64
	CFGAdjust           Adjustment
	DenoiseAdjust       Adjustment
	PreferredSamplers   []string
	PreferredSchedulers []string
	Guidance            GuidanceKind

	// Fallback transform shape: noise magnitude and brightness shift used
	// by the mock path so the three variants stay numerically distinct
	NoiseScale float64
	Brighten   float64
}

// Latent is a latent image artifact: a flat float buffer plus dimensions
type Latent struct {
	Width  int       `json:"width"`
	Height int       `json:"height"`
	Data   []float64 `json:"data"`
}

// NewLatent allocates a zeroed latent of the given dimensions
func NewLatent(width, height int) Latent {
	return Latent{
		Width:  width,
		Height: height,
		Data:   make([]float64, width*height),
	}
}

// Clone returns a deep copy so transforms never alias the caller's buffer
func (l Latent) Clone() Latent {
	data := make([]float64, len(l.Data))
	copy(data, l.Data)
	return Latent{Width: l.Width, Height: l.Height, Data: data}
}

// Empty reports whether the latent carries no samples
func (l Latent) Empty() bool {
	return len(l.Data) == 0
}

// Variant is one of the three independently parameterized outputs of a
// sampling request. Owned exclusively by the caller once returned.
type Variant struct {
	ID           string             `json:"id"`
	Strategy     StrategyID         `json:"strategy"`
	Latent       Latent             `json:"latent"`
	Params       SamplingParameters `json:"params"`
	Seed         int64              `json:"seed"`
	GeneratedAt  time.Time          `json:"generated_at"`
	UsedFallback bool               `json:"used_fallback"`
	Err          string             `json:"error,omitempty"`
}

// GenerateRequest is the shape of one backend sampling call
type GenerateRequest struct {
	Model    string
	Positive string
	Negative string
	Latent   Latent
	Seed     int64
	Params   SamplingParameters
	// Hook customizes guidance combination via the backend's
	// extensibility point; nil means stock CFG
	Hook GuidanceFunc
}

// GuidanceFunc combines conditional and unconditional guidance into a
// single value. Must be pure and must never panic.
type GuidanceFunc func(cond, uncond, scale float64) float64

// Backend is the opaque generative sampling capability
type Backend interface {
	Name() string
	Ping(ctx context.Context) error
	AvailableSamplers(ctx context.Context) ([]string, error)
	Generate(ctx context.Context, req GenerateRequest) (Latent, error)
}
