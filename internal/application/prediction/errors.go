package prediction

import (
	"fmt"
	"strings"
)

// FailureKind classifies a runtime prediction failure
type FailureKind string

const (
	FailureTensor FailureKind = "tensor_construction"
	FailureModel  FailureKind = "model_invocation"
	FailureOutput FailureKind = "output_conversion"
)

// PredictionError is a runtime failure after validation succeeded
type PredictionError struct {
	Kind FailureKind
	Err  error
}

func (e *PredictionError) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *PredictionError) Unwrap() error {
	return e.Err
}

// FieldError describes one violated constraint in a request body.
// Loc is the path to the offending value, e.g. ["body", "inputs", 1].
type FieldError struct {
	Loc  []interface{} `json:"loc"`
	Msg  string        `json:"msg"`
	Type string        `json:"type"`
}

// ValidationError is returned when a request body is rejected
type ValidationError struct {
	Details []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Details))
	for _, d := range e.Details {
		msgs = append(msgs, fmt.Sprintf("%s: %s", formatLoc(d.Loc), d.Msg))
	}
	return "invalid request body: " + strings.Join(msgs, "; ")
}

// Reason returns the type of the first violation
func (e *ValidationError) Reason() string {
	if len(e.Details) == 0 {
		return "unknown"
	}
	return e.Details[0].Type
}

func formatLoc(loc []interface{}) string {
	parts := make([]string, len(loc))
	for i, p := range loc {
		parts[i] = fmt.Sprint(p)
	}
	return strings.Join(parts, ".")
}
