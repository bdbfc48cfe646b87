package sampler

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	apperrors "triptych/backend/pkg/errors"
	"triptych/backend/pkg/logger"
)

// Adapter sits between the orchestrator and the real generative backend.
// It is constructed once with a capability probe; when the backend is
// absent or a call fails, it degrades to the deterministic mock transform
// so the orchestrator always gets three artifacts back.
type Adapter struct {
	real      Backend // nil when no backend was configured
	available bool
	samplers  []string
	logger    *zap.Logger
}

// NewAdapter probes the backend once and caches its sampler inventory.
// Passing nil constructs a pure-fallback adapter.
func NewAdapter(ctx context.Context, real Backend) *Adapter {
	a := &Adapter{
		real:     real,
		samplers: builtinSamplers,
		logger:   logger.Named("sampler"),
	}

	if real == nil {
		a.logger.Info("No generative backend configured, using fallback transforms")
		return a
	}

	if err := real.Ping(ctx); err != nil {
		a.logger.Warn("Generative backend unreachable, using fallback transforms",
			zap.String("backend", real.Name()),
			zap.Error(err),
		)
		return a
	}

	a.available = true
	if samplers, err := real.AvailableSamplers(ctx); err == nil && len(samplers) > 0 {
		a.samplers = samplers
	} else if err != nil {
		a.logger.Warn("Failed to introspect backend samplers, assuming builtin set",
			zap.Error(err),
		)
	}

	a.logger.Info("Generative backend connected",
		zap.String("backend", real.Name()),
		zap.Int("samplers", len(a.samplers)),
	)
	return a
}

// Available reports whether the real generation path is usable
func (a *Adapter) Available() bool {
	return a.available
}

// SupportedSamplers returns the sampler identifiers generation may use
func (a *Adapter) SupportedSamplers() []string {
	return a.samplers
}

// Generate produces one variant for a strategy. Real-backend errors are
// caught, logged, and converted to the fallback path; only a fallback
// failure yields the input latent unchanged, with the error recorded in
// the variant metadata.
func (a *Adapter) Generate(ctx context.Context, cfg StrategyConfig, req GenerateRequest) Variant {
	v := Variant{
		ID:          uuid.NewString(),
		Strategy:    cfg.ID,
		Params:      req.Params,
		Seed:        req.Seed,
		GeneratedAt: time.Now(),
	}

	if a.available {
		latent, err := a.real.Generate(ctx, req)
		if err == nil {
			v.Latent = latent
			return v
		}
		a.logger.Warn("Backend generation failed, falling back to mock transform",
			zap.Error(apperrors.NewBackendGenerate(a.real.Name(), string(cfg.ID), err)),
		)
	}

	latent, err := mockTransform(req.Latent, cfg, req.Seed, req.Params)
	if err != nil {
		// Fallback itself failed: hand the input back untouched and
		// annotate, the only case where the output is visibly a no-op
		fbErr := apperrors.NewFallbackTransform(string(cfg.ID), err)
		a.logger.Error("Fallback transform failed", zap.Error(fbErr))
		v.Latent = req.Latent
		v.UsedFallback = true
		v.Err = fbErr.Error()
		return v
	}

	v.Latent = latent
	v.UsedFallback = true
	return v
}
