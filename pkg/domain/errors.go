package domain

import (
	"errors"
	"fmt"
)

// ErrSessionNotFound is returned when a session ID cannot be found in the store.
var ErrSessionNotFound = errors.New("session not found")

// ErrNonTextOutput is returned when the terminal agent of a turn produced
// a structured record and no presentation step turned it into text.
var ErrNonTextOutput = errors.New("non-text terminal output")

// ErrUnsupportedAttachment marks an attachment whose MIME type is outside
// the accepted set (image/*, application/pdf). Non-fatal: the attachment
// is dropped and the turn continues with its remaining content.
var ErrUnsupportedAttachment = errors.New("unsupported attachment type")

// RoutingError reports that a coordinator could not map the model's
// selection onto one of its registered children.
type RoutingError struct {
	Coordinator string
	Choice      string
}

func (e *RoutingError) Error() string {
	if e.Choice == "" {
		return fmt.Sprintf("coordinator %q: model returned no child selection", e.Coordinator)
	}
	return fmt.Sprintf("coordinator %q: no child named %q", e.Coordinator, e.Choice)
}

// StructuredOutputError wraps a schema violation in a step's raw output.
// Fatal for the step; propagated unmodified up to the runner.
type StructuredOutputError struct {
	Agent string
	Err   error
}

func (e *StructuredOutputError) Error() string {
	return fmt.Sprintf("step %q: structured output validation: %v", e.Agent, e.Err)
}

func (e *StructuredOutputError) Unwrap() error { return e.Err }

// InferenceError wraps a provider failure (network, timeout, bad status)
// from the external inference capability.
type InferenceError struct {
	Agent string
	Model string
	Err   error
}

func (e *InferenceError) Error() string {
	return fmt.Sprintf("step %q: inference call (model %s): %v", e.Agent, e.Model, e.Err)
}

func (e *InferenceError) Unwrap() error { return e.Err }
