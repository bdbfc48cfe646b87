package history

import (
	"context"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"triptych/backend/internal/sampler"
	apperrors "triptych/backend/pkg/errors"
	"triptych/backend/pkg/logger"
)

// Repository records sampling runs and operator selections in Neo4j for
// offline analytics. It is write-only by design: the preference store
// never reads history back, so learning state stays process-lifetime.
type Repository struct {
	driver neo4j.DriverWithContext
	logger *zap.Logger
}

// NewRepository creates a run-history repository
func NewRepository(driver neo4j.DriverWithContext) *Repository {
	return &Repository{
		driver: driver,
		logger: logger.Named("history"),
	}
}

// Close closes the Neo4j driver connection
func (r *Repository) Close() error {
	return r.driver.Close(context.Background())
}

// RecordRun persists one sampling run and its three variants
func (r *Repository) RecordRun(ctx context.Context, runID string, req sampler.Request, variants [3]sampler.Variant) error {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	query := `
		CREATE (run:SamplingRun {
			id: $runID,
			model: $model,
			seed: $seed,
			learning_enabled: $learning,
			created_at: $createdAt
		})
		WITH run
		UNWIND $variants AS v
		CREATE (run)-[:PRODUCED]->(:Variant {
			id: v.id,
			strategy: v.strategy,
			steps: v.steps,
			cfg: v.cfg,
			denoise: v.denoise,
			sampler: v.sampler,
			scheduler: v.scheduler,
			used_fallback: v.used_fallback
		})
	`

	variantMaps := make([]map[string]interface{}, 0, len(variants))
	for _, v := range variants {
		variantMaps = append(variantMaps, map[string]interface{}{
			"id":            v.ID,
			"strategy":      string(v.Strategy),
			"steps":         v.Params.Steps,
			"cfg":           v.Params.CFG,
			"denoise":       v.Params.Denoise,
			"sampler":       v.Params.Sampler,
			"scheduler":     v.Params.Scheduler,
			"used_fallback": v.UsedFallback,
		})
	}

	_, err := session.Run(ctx, query, map[string]interface{}{
		"runID":     runID,
		"model":     req.Model,
		"seed":      req.Seed,
		"learning":  req.LearningEnabled,
		"createdAt": time.Now().Format(time.RFC3339),
		"variants":  variantMaps,
	})
	if err != nil {
		return apperrors.NewHistoryWrite(runID, err)
	}

	r.logger.Debug("Run recorded", zap.String("run_id", runID))
	return nil
}

// RecordSelection persists one operator-feedback event
func (r *Repository) RecordSelection(ctx context.Context, strategy sampler.StrategyID, weight float64) error {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	query := `
		CREATE (:Selection {
			strategy: $strategy,
			weight: $weight,
			created_at: $createdAt
		})
	`

	_, err := session.Run(ctx, query, map[string]interface{}{
		"strategy":  string(strategy),
		"weight":    weight,
		"createdAt": time.Now().Format(time.RFC3339),
	})
	if err != nil {
		return apperrors.NewHistoryWrite("", err)
	}

	r.logger.Debug("Selection recorded", zap.String("strategy", string(strategy)))
	return nil
}
