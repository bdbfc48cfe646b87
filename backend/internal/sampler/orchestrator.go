package sampler

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	apperrors "triptych/backend/pkg/errors"
	"triptych/backend/pkg/logger"
)

// priorityTolerance bounds how far the three priority weights may drift
// from summing to 1.0 before the request is rejected
const priorityTolerance = 0.05

// Request is one multi-strategy sampling request
type Request struct {
	Model           string             `json:"model"`
	Positive        string             `json:"positive"`
	Negative        string             `json:"negative"`
	Latent          Latent             `json:"latent"`
	Seed            int64              `json:"seed"`
	RandomizeSeed   bool               `json:"randomize_seed"`
	Base            SamplingParameters `json:"base_params"`
	LearningEnabled bool               `json:"learning_enabled"`
	// PreviousSelection carries the operator's winner from the last run;
	// recorded as feedback before new variants are generated
	PreviousSelection StrategyID `json:"previous_selection,omitempty"`
	// Priorities are the quality/speed/creative weights; must sum to ~1.0
	Priorities [3]float64 `json:"priorities"`
}

// Result bundles the three variants and the diagnostic strings. A failed
// validation never surfaces as an error value: Error is set, the variants
// are placeholders, and the summary carries the message, so the host's
// node always has well-typed outputs.
type Result struct {
	RunID             string     `json:"run_id"`
	Variants          [3]Variant `json:"variants"`
	Summary           string     `json:"summary"`
	OptimizationState string     `json:"optimization_state"`
	SelectionGuide    string     `json:"selection_guide"`
	Seed              int64      `json:"seed"`
	Error             string     `json:"error,omitempty"`
}

// noSelection is the combo-input spelling of an absent previous selection
const noSelection StrategyID = "none"

// normalized maps the host's combo-input conventions onto the internal
// representation: "none" means no previous selection.
func (r Request) normalized() Request {
	if r.PreviousSelection == noSelection {
		r.PreviousSelection = ""
	}
	return r
}

// RunRecorder is the optional history sink for completed runs
type RunRecorder interface {
	RecordRun(ctx context.Context, runID string, req Request, variants [3]Variant) error
	RecordSelection(ctx context.Context, strategy StrategyID, weight float64) error
}

// Orchestrator is the public sampling operation: it validates input,
// derives per-strategy parameters with preference bias, invokes the
// backend adapter once per strategy, and assembles diagnostics.
type Orchestrator struct {
	adapter     *Adapter
	preferences *PreferenceStore
	recorder    RunRecorder // nil when history is disabled
	stepCeiling int
	cfgCeiling  float64
	logger      *zap.Logger
}

// NewOrchestrator wires an orchestrator around an adapter and a
// preference store. Both are owned by the caller and shared with the
// selector, keeping the learning write path in one place.
func NewOrchestrator(adapter *Adapter, prefs *PreferenceStore, stepCeiling int, cfgCeiling float64) *Orchestrator {
	return &Orchestrator{
		adapter:     adapter,
		preferences: prefs,
		stepCeiling: stepCeiling,
		cfgCeiling:  cfgCeiling,
		logger:      logger.Named("orchestrator"),
	}
}

// SetRecorder attaches an optional run-history sink
func (o *Orchestrator) SetRecorder(r RunRecorder) {
	o.recorder = r
}

// Preferences exposes the store for diagnostics endpoints
func (o *Orchestrator) Preferences() *PreferenceStore {
	return o.preferences
}

// GenerateVariants runs the three fixed strategies against the request.
// Recoverable problems (bad weights, malformed parameters, missing
// backend) degrade to a structured error result; they never panic and
// never return a Go error to the host.
func (o *Orchestrator) GenerateVariants(ctx context.Context, req Request) Result {
	runID := uuid.NewString()
	req = req.normalized()

	if err := validateRequest(req); err != nil {
		o.logger.Warn("Sampling request rejected",
			zap.String("run_id", runID),
			zap.Error(err),
		)
		return errorResult(runID, req, err)
	}

	// 1. Feedback from the previous round lands before anything else
	if req.PreviousSelection != "" && req.LearningEnabled {
		o.preferences.RecordSelection(req.PreviousSelection, 1.0)
		if o.recorder != nil {
			if err := o.recorder.RecordSelection(ctx, req.PreviousSelection, 1.0); err != nil {
				o.logger.Warn("Failed to record selection history", zap.Error(err))
			}
		}
		o.logger.Debug("Recorded operator selection",
			zap.String("strategy", string(req.PreviousSelection)),
		)
	}

	// 2. Seed resolution. The resolved seed is written back so the run
	// recorder persists the seed the variants were actually generated with.
	seed := req.Seed
	if req.RandomizeSeed {
		seed = rand.Int63()
		req.Seed = seed
	}

	// 3. One variant per strategy
	var variants [3]Variant
	for i, id := range StrategyOrder {
		cfg := MustStrategy(id)

		bias := 0.0
		override := false
		if req.LearningEnabled {
			bias = o.preferences.Bias(id)
			override = o.preferences.AllowOverride(id)
		}

		params := Derive(req.Base, cfg, seed, DeriveOptions{
			StepCeiling:      o.stepCeiling,
			CFGCeiling:       o.cfgCeiling,
			Bias:             bias,
			OverrideSamplers: override,
			Supported:        o.adapter.SupportedSamplers(),
		})

		hook := BuildGuidanceHook(cfg.Guidance, seed, id)

		variants[i] = o.adapter.Generate(ctx, cfg, GenerateRequest{
			Model:    req.Model,
			Positive: req.Positive,
			Negative: req.Negative,
			Latent:   req.Latent,
			Seed:     seed,
			Params:   params,
			Hook:     hook,
		})

		o.logger.Debug("Variant generated",
			zap.String("run_id", runID),
			zap.String("strategy", string(id)),
			zap.Int("steps", params.Steps),
			zap.Float64("cfg", params.CFG),
			zap.Bool("used_fallback", variants[i].UsedFallback),
			zap.Float64("bias", bias),
		)
	}

	if o.recorder != nil {
		if err := o.recorder.RecordRun(ctx, runID, req, variants); err != nil {
			o.logger.Warn("Failed to record run history",
				zap.String("run_id", runID),
				zap.Error(err),
			)
		}
	}

	// 4. Diagnostics
	return Result{
		RunID:             runID,
		Variants:          variants,
		Summary:           variantSummary(variants),
		OptimizationState: o.optimizationState(req.LearningEnabled),
		SelectionGuide:    selectionGuide(req.Priorities),
		Seed:              seed,
	}
}

// validateRequest checks everything the host cannot be trusted to get right
func validateRequest(req Request) error {
	sum := req.Priorities[0] + req.Priorities[1] + req.Priorities[2]
	if math.Abs(sum-1.0) > priorityTolerance {
		return apperrors.NewPriorityWeights(sum)
	}
	for _, w := range req.Priorities {
		if w < 0 {
			return apperrors.NewInvalidParameters("priorities", "weights must not be negative")
		}
	}
	if req.Base.Steps < 1 {
		return apperrors.NewInvalidParameters("steps", fmt.Sprintf("must be at least 1, got %d", req.Base.Steps))
	}
	if req.Base.CFG < 0 {
		return apperrors.NewInvalidParameters("cfg", fmt.Sprintf("must not be negative, got %.2f", req.Base.CFG))
	}
	if req.Base.Denoise < 0 || req.Base.Denoise > 1 {
		return apperrors.NewInvalidParameters("denoise", fmt.Sprintf("must be in [0,1], got %.2f", req.Base.Denoise))
	}
	if req.Base.Scheduler != "" && !ValidScheduler(req.Base.Scheduler) {
		return apperrors.NewInvalidParameters("scheduler", fmt.Sprintf("unknown scheduler %q", req.Base.Scheduler))
	}
	if req.Latent.Empty() {
		return apperrors.NewInvalidParameters("latent", "input latent is empty")
	}
	if req.PreviousSelection != "" && !KnownStrategy(req.PreviousSelection) {
		return apperrors.NewUnknownStrategy(string(req.PreviousSelection))
	}
	return nil
}

// errorResult builds the placeholder result for a rejected request
func errorResult(runID string, req Request, err error) Result {
	msg := err.Error()
	var variants [3]Variant
	for i, id := range StrategyOrder {
		variants[i] = Variant{
			ID:          uuid.NewString(),
			Strategy:    id,
			Latent:      req.Latent,
			Params:      req.Base,
			GeneratedAt: time.Now(),
			Err:         msg,
		}
	}
	return Result{
		RunID:             runID,
		Variants:          variants,
		Summary:           "ERROR: " + msg,
		OptimizationState: "ERROR: " + msg,
		SelectionGuide:    selectionGuide(req.Priorities),
		Seed:              req.Seed,
		Error:             msg,
	}
}

// variantSummary renders the per-variant parameter report
func variantSummary(variants [3]Variant) string {
	var b strings.Builder
	b.WriteString("Variant parameters:\n")
	for _, v := range variants {
		fmt.Fprintf(&b, "  %-8s steps=%d cfg=%.2f denoise=%.2f sampler=%s scheduler=%s",
			v.Strategy, v.Params.Steps, v.Params.CFG, v.Params.Denoise,
			v.Params.Sampler, v.Params.Scheduler)
		if v.UsedFallback {
			b.WriteString(" [fallback]")
		}
		if v.Err != "" {
			fmt.Fprintf(&b, " [error: %s]", v.Err)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// optimizationState renders the learning-state report
func (o *Orchestrator) optimizationState(learning bool) string {
	if !learning {
		return "Learning disabled."
	}
	snapshot := o.preferences.Snapshot()
	total := o.preferences.TotalSelections()

	var b strings.Builder
	fmt.Fprintf(&b, "Learning enabled: %d selections recorded.\n", total)
	for _, id := range StrategyOrder {
		rec := snapshot[id]
		fmt.Fprintf(&b, "  %-8s selections=%d weight=%.2f bias=%.3f\n",
			id, rec.Selections, rec.Weight, o.preferences.Bias(id))
	}
	return b.String()
}

// selectionGuide is the static operator-facing guide, ordered by the
// caller's priority weights
func selectionGuide(priorities [3]float64) string {
	descriptions := map[StrategyID]string{
		StrategyQuality:  "quality: more steps, stronger guidance; pick for final renders",
		StrategySpeed:    "speed: fewer steps, capped guidance; pick for fast iteration",
		StrategyCreative: "creative: jittered guidance and denoise; pick for exploration",
	}

	type entry struct {
		id StrategyID
		w  float64
	}
	entries := []entry{
		{StrategyQuality, priorities[0]},
		{StrategySpeed, priorities[1]},
		{StrategyCreative, priorities[2]},
	}
	for i := 0; i < len(entries); i++ {
		for j := i + 1; j < len(entries); j++ {
			if entries[j].w > entries[i].w {
				entries[i], entries[j] = entries[j], entries[i]
			}
		}
	}

	var b strings.Builder
	b.WriteString("Selection guide (by priority):\n")
	for _, e := range entries {
		fmt.Fprintf(&b, "  [%.2f] %s\n", e.w, descriptions[e.id])
	}
	b.WriteString("Feed your pick back as previous_selection to train the sampler.")
	return b.String()
}
