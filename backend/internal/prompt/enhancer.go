package prompt

import (
	"context"

	"go.uber.org/zap"

	apperrors "triptych/backend/pkg/errors"
	"triptych/backend/pkg/logger"
)

// Completer is the slice of the LLM adapter the enhancer needs
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userMsg string) (string, error)
}

// enhancerTemplate instructs the model to expand a terse request into a
// detailed, directly usable generation prompt
const enhancerTemplate = `You are a prompt engineer for a text-to-image diffusion model. Rewrite the user's request as a single detailed generation prompt. Preserve every explicit subject, count, color, and named entity. Add concrete composition, lighting, material, and color details. Output only the rewritten prompt as comma-separated descriptive phrases, no commentary, no meta tags like "8k" or "masterpiece".`

// Enhancer expands terse prompts via the LLM, degrading to the original
// text when the model is unreachable
type Enhancer struct {
	llm    Completer
	logger *zap.Logger
}

// NewEnhancer creates an enhancer backed by the given completer
func NewEnhancer(llm Completer) *Enhancer {
	return &Enhancer{
		llm:    llm,
		logger: logger.Named("prompt"),
	}
}

// Enhance rewrites a user request as a detailed generation prompt. LLM
// failures fall back to the cleaned original so generation never blocks
// on the enhancer.
func (e *Enhancer) Enhance(ctx context.Context, userRequest string) (string, error) {
	if userRequest == "" {
		return "", apperrors.ErrPromptEmpty
	}

	enhanced, err := e.llm.Complete(ctx, enhancerTemplate, userRequest)
	if err != nil {
		e.logger.Warn("Failed to enhance prompt, using original",
			zap.Error(err),
		)
		return Clean(userRequest), nil
	}
	if enhanced == "" {
		e.logger.Warn("Empty enhancement response, using original")
		return Clean(userRequest), nil
	}

	return Clean(enhanced), nil
}
