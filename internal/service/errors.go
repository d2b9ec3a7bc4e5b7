package service

import (
	"errors"
	"fmt"
)

// Error classes of the triage pipeline. Prediction-path errors fail the
// request; ticketing-path errors never do and are only logged.
var (
	ErrInputInvalid         = errors.New("input invalid")
	ErrInference            = errors.New("inference failure")
	ErrTicketingUnavailable = errors.New("ticketing unavailable")
	ErrTicketingCallFailed  = errors.New("ticketing call failed")
)

// ValidationErr is returned when a request is rejected before inference.
type ValidationErr struct {
	message string
}

// NewValidationErr creates a new ValidationErr with the given message.
func NewValidationErr(message string) *ValidationErr {
	return &ValidationErr{message: message}
}

// Error returns the error message.
func (e *ValidationErr) Error() string { return e.message }

// Is lets errors.Is match ErrInputInvalid.
func (e *ValidationErr) Is(target error) bool { return target == ErrInputInvalid }

// InferenceError wraps a failure of the embedding model or a classifier.
type InferenceError struct {
	Stage string // "embed", "category", "severity" or "assignee"
	Err   error
}

// Error returns the stage and cause.
func (e *InferenceError) Error() string {
	return fmt.Sprintf("inference failed at %s: %v", e.Stage, e.Err)
}

// Unwrap exposes the cause.
func (e *InferenceError) Unwrap() error { return e.Err }

// Is lets errors.Is match ErrInference.
func (e *InferenceError) Is(target error) bool { return target == ErrInference }
