package adapter

import (
	"context"
	"fmt"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"triptych/backend/pkg/logger"
)

// LLMAdapter handles communication with the LLM via LiteLLM. The prompt
// utilities only need plain completions, no tool calling.
type LLMAdapter struct {
	client *openai.Client
	model  string
	logger *zap.Logger
}

// NewLLMAdapter creates a new LLM adapter
func NewLLMAdapter(baseURL, apiKey, modelID string) *LLMAdapter {
	// For LiteLLM, we can use a dummy API key if not provided
	if apiKey == "" {
		apiKey = "dummy-key"
	}

	config := openai.DefaultConfig(apiKey)
	config.BaseURL = baseURL + "/v1"

	return &LLMAdapter{
		client: openai.NewClientWithConfig(config),
		model:  modelID,
		logger: logger.Named("llm"),
	}
}

// Model returns the configured model identifier
func (a *LLMAdapter) Model() string {
	return a.model
}

// Complete sends a system/user prompt pair and returns the completion text
func (a *LLMAdapter) Complete(ctx context.Context, systemPrompt, userMsg string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: a.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userMsg},
		},
		Temperature: 0.7,
	}

	// Retry logic with exponential backoff
	var resp openai.ChatCompletionResponse
	var err error
	maxRetries := 3
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(attempt) * time.Second
			a.logger.Warn("Retrying LLM request",
				zap.Int("attempt", attempt+1),
				zap.Duration("backoff", backoff),
			)
			time.Sleep(backoff)
		}

		resp, err = a.client.CreateChatCompletion(ctx, req)
		if err == nil {
			break
		}

		a.logger.Error("LLM request failed",
			zap.Error(err),
			zap.Int("attempt", attempt+1),
			zap.String("model", a.model),
		)
	}

	if err != nil {
		return "", fmt.Errorf("failed to generate response after %d attempts: %w", maxRetries, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices in LLM response")
	}

	content := resp.Choices[0].Message.Content
	a.logger.Debug("LLM completion generated",
		zap.String("model", a.model),
		zap.Int("length", len(content)),
	)
	return content, nil
}
