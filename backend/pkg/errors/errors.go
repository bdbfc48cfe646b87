package errors

import (
	"fmt"
	"time"
)

// ErrorType represents the category of error
type ErrorType string

const (
	// ErrorTypeValidation represents malformed caller input
	ErrorTypeValidation ErrorType = "validation"
	// ErrorTypeBackend represents generative-backend failures
	ErrorTypeBackend ErrorType = "backend"
	// ErrorTypeFallback represents failures inside the fallback transform itself
	ErrorTypeFallback ErrorType = "fallback"
	// ErrorTypePrompt represents prompt-utility failures
	ErrorTypePrompt ErrorType = "prompt"
	// ErrorTypeHistory represents run-history (Neo4j) errors
	ErrorTypeHistory ErrorType = "history"
	// ErrorTypeConfig represents configuration errors
	ErrorTypeConfig ErrorType = "config"
	// ErrorTypeContext represents context cancellation/timeout errors
	ErrorTypeContext ErrorType = "context"
)

// BaseError is the base error type with common fields
type BaseError struct {
	Type      ErrorType
	Message   string
	Timestamp time.Time
	Err       error // Wrapped error
}

// Error implements the error interface
func (e *BaseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap returns the wrapped error for error unwrapping
func (e *BaseError) Unwrap() error {
	return e.Err
}

// NewBaseError creates a new base error
func NewBaseError(errType ErrorType, message string, err error) *BaseError {
	return &BaseError{
		Type:      errType,
		Message:   message,
		Timestamp: time.Now(),
		Err:       err,
	}
}

// Validation Errors

// ErrPriorityWeights is returned when strategy priority weights do not sum to ~1.0
type ErrPriorityWeights struct {
	*BaseError
	Sum float64
}

func NewPriorityWeights(sum float64) *ErrPriorityWeights {
	return &ErrPriorityWeights{
		BaseError: NewBaseError(ErrorTypeValidation, fmt.Sprintf("priority weights must sum to ~1.0, got %.3f", sum), nil),
		Sum:       sum,
	}
}

// ErrInvalidParameters is returned when base sampling parameters are malformed
type ErrInvalidParameters struct {
	*BaseError
	Field  string
	Reason string
}

func NewInvalidParameters(field, reason string) *ErrInvalidParameters {
	return &ErrInvalidParameters{
		BaseError: NewBaseError(ErrorTypeValidation, fmt.Sprintf("invalid parameter %s: %s", field, reason), nil),
		Field:     field,
		Reason:    reason,
	}
}

// ErrUnknownStrategy is returned when a caller names a strategy outside the fixed set
type ErrUnknownStrategy struct {
	*BaseError
	Strategy string
}

func NewUnknownStrategy(strategy string) *ErrUnknownStrategy {
	return &ErrUnknownStrategy{
		BaseError: NewBaseError(ErrorTypeValidation, fmt.Sprintf("unknown strategy: %s", strategy), nil),
		Strategy:  strategy,
	}
}

// ErrInvalidRating is returned when a variant rating falls outside 1-10
type ErrInvalidRating struct {
	*BaseError
	Strategy string
	Rating   int
}

func NewInvalidRating(strategy string, rating int) *ErrInvalidRating {
	return &ErrInvalidRating{
		BaseError: NewBaseError(ErrorTypeValidation, fmt.Sprintf("rating for %s must be 1-10, got %d", strategy, rating), nil),
		Strategy:  strategy,
		Rating:    rating,
	}
}

// Backend Errors

// ErrBackendUnavailable is returned when the generative backend cannot be reached
var ErrBackendUnavailable = NewBaseError(ErrorTypeBackend, "generative backend not available", nil)

// ErrBackendGenerate is returned when a real generation call fails
type ErrBackendGenerate struct {
	*BaseError
	Backend  string
	Strategy string
}

func NewBackendGenerate(backend, strategy string, err error) *ErrBackendGenerate {
	return &ErrBackendGenerate{
		BaseError: NewBaseError(ErrorTypeBackend, fmt.Sprintf("generation failed on %s for strategy %s", backend, strategy), err),
		Backend:   backend,
		Strategy:  strategy,
	}
}

// ErrFallbackTransform is returned when the mock transform itself cannot run
type ErrFallbackTransform struct {
	*BaseError
	Strategy string
}

func NewFallbackTransform(strategy string, err error) *ErrFallbackTransform {
	return &ErrFallbackTransform{
		BaseError: NewBaseError(ErrorTypeFallback, fmt.Sprintf("fallback transform failed for strategy %s", strategy), err),
		Strategy:  strategy,
	}
}

// Prompt Errors

// ErrPromptEmpty is returned when a prompt utility receives no text to work on
var ErrPromptEmpty = NewBaseError(ErrorTypePrompt, "prompt text is empty", nil)

// ErrEnhanceFailed is returned when LLM prompt enhancement fails
type ErrEnhanceFailed struct {
	*BaseError
	Model string
}

func NewEnhanceFailed(model string, err error) *ErrEnhanceFailed {
	return &ErrEnhanceFailed{
		BaseError: NewBaseError(ErrorTypePrompt, "prompt enhancement failed", err),
		Model:     model,
	}
}

// History Errors

// ErrHistoryWrite is returned when recording a run or selection fails
type ErrHistoryWrite struct {
	*BaseError
	RunID string
}

func NewHistoryWrite(runID string, err error) *ErrHistoryWrite {
	return &ErrHistoryWrite{
		BaseError: NewBaseError(ErrorTypeHistory, fmt.Sprintf("failed to record run %s", runID), err),
		RunID:     runID,
	}
}

// Config Errors

// ErrConfigValidationFailed is returned when configuration validation fails
type ErrConfigValidationFailed struct {
	*BaseError
	Field  string
	Reason string
}

func NewConfigValidationFailed(field, reason string) *ErrConfigValidationFailed {
	return &ErrConfigValidationFailed{
		BaseError: NewBaseError(ErrorTypeConfig, fmt.Sprintf("config validation failed: %s - %s", field, reason), nil),
		Field:     field,
		Reason:    reason,
	}
}

// Context Errors

// ErrContextCancelled is returned when context is cancelled
type ErrContextCancelled struct {
	*BaseError
	Operation string
}

func NewContextCancelled(operation string, err error) *ErrContextCancelled {
	return &ErrContextCancelled{
		BaseError: NewBaseError(ErrorTypeContext, fmt.Sprintf("context cancelled: %s", operation), err),
		Operation: operation,
	}
}

// Helper functions

// IsErrorType checks if an error is of a specific type
func IsErrorType(err error, errType ErrorType) bool {
	if baseErr, ok := err.(*BaseError); ok {
		return baseErr.Type == errType
	}
	// Check wrapped errors
	if wrapped, ok := err.(interface{ Unwrap() error }); ok {
		return IsErrorType(wrapped.Unwrap(), errType)
	}
	return false
}

// IsRecoverable reports whether an error should degrade output rather than abort.
// Validation, backend, and fallback errors are always absorbed into diagnostics;
// context errors propagate so the caller can stop waiting.
func IsRecoverable(err error) bool {
	if IsErrorType(err, ErrorTypeContext) {
		return false
	}
	return IsErrorType(err, ErrorTypeValidation) ||
		IsErrorType(err, ErrorTypeBackend) ||
		IsErrorType(err, ErrorTypeFallback) ||
		IsErrorType(err, ErrorTypePrompt) ||
		IsErrorType(err, ErrorTypeHistory)
}
