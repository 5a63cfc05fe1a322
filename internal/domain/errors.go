package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound signals a missing recipe or ingredient.
	ErrNotFound = errors.New("not found")
	// ErrValidation signals rejected input (rating range, malformed nutrient needs, bad catalog item).
	ErrValidation = errors.New("validation failed")
	// ErrNoStaples signals that the staple ranking is empty, so no meal can be assembled.
	ErrNoStaples = errors.New("no staple recipes available")
	// ErrPredictorFailure signals a glucose predictor error or invalid prediction.
	ErrPredictorFailure = errors.New("glucose predictor failure")
	// ErrLLMProviderError signals a chat completion provider failure.
	ErrLLMProviderError = errors.New("llm provider error")
	// ErrLLMQuotaExceeded signals an exhausted LLM token budget.
	ErrLLMQuotaExceeded = errors.New("llm quota exceeded")
	// ErrNotImplemented signals a feature that is disabled in this deployment.
	ErrNotImplemented = errors.New("not implemented")
)

// ValidationError wraps ErrValidation with the offending field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s %s", ErrValidation.Error(), e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidationError creates a validation error for a field.
func NewValidationError(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}
