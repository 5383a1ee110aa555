package schema

import "fmt"

// FieldError represents a single field contract violation.
type FieldError struct {
	Field  string // Field name (dotted path for nested records)
	Reason string // Human-readable reason for failure
	Value  any    // The offending value, nil when the field was absent
}

func (e *FieldError) Error() string {
	if e.Value == nil {
		return fmt.Sprintf("field %q: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("field %q: %s (got %T)", e.Field, e.Reason, e.Value)
}

// ValidationError aggregates every contract violation found in one record.
// A step's output either conforms fully or fails as a whole; partial data
// never travels downstream.
type ValidationError struct {
	Schema string
	Errors []error
}

func (e *ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("schema %q: %s", e.Schema, e.Errors[0].Error())
	}
	msg := fmt.Sprintf("schema %q: %d violations:\n", e.Schema, len(e.Errors))
	for i, err := range e.Errors {
		msg += fmt.Sprintf("  %d. %s\n", i+1, err.Error())
	}
	return msg
}

// FieldErrors returns the individual violations if err is a ValidationError.
func FieldErrors(err error) []error {
	if v, ok := err.(*ValidationError); ok {
		return v.Errors
	}
	return nil
}
