package triageerr

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a failure by how the engine reacts to it.
type Kind string

const (
	// KindValidationDegraded marks missing or unusable evidence. Rule
	// validators treat it as a failed check.
	KindValidationDegraded Kind = "validation_degraded"

	// KindClassifierUnavailable marks the absence of a trained model. The
	// classifier degrades to a neutral verdict.
	KindClassifierUnavailable Kind = "classifier_unavailable"

	// KindPredictionFailure marks an inference failure inside a model. The
	// classifier returns a neutral verdict with a note.
	KindPredictionFailure Kind = "prediction_failure"

	// KindPersistenceFailure marks a missing, corrupt or incompatible model
	// artifact, or a store that could not be reached.
	KindPersistenceFailure Kind = "persistence_failure"

	// KindPipelineFailure marks an unexpected failure inside the filter. It
	// is surfaced as an error decision, never returned to the caller.
	KindPipelineFailure Kind = "pipeline_failure"
)

// Recoverable reports whether the engine continues with a degraded result
// after an error of this kind.
func (k Kind) Recoverable() bool {
	switch k {
	case KindValidationDegraded, KindClassifierUnavailable, KindPredictionFailure:
		return true
	default:
		return false
	}
}

// Error is a structured triage error.
type Error struct {
	// Component is the package or subsystem that failed (e.g. "classifier").
	Component string

	// Operation is the failing operation (e.g. "load_model").
	Operation string

	Kind    Kind
	Message string

	// Details contains additional context as key-value pairs.
	Details map[string]any

	// Cause is the underlying error.
	Cause error
}

// New creates a structured error.
//
// Example:
//
//	err := triageerr.New("classifier", "load_model", triageerr.KindPersistenceFailure, "artifact not found")
func New(component, operation string, kind Kind, message string) *Error {
	return &Error{
		Component: component,
		Operation: operation,
		Kind:      kind,
		Message:   message,
	}
}

// WithCause sets the underlying error and returns e for chaining.
func (e *Error) WithCause(err error) *Error {
	e.Cause = err
	return e
}

// WithDetails sets additional context and returns e for chaining.
func (e *Error) WithDetails(details map[string]any) *Error {
	e.Details = details
	return e
}

// Error formats as "component [operation/kind]: message: cause".
func (e *Error) Error() string {
	var parts []string
	parts = append(parts, fmt.Sprintf("%s [%s/%s]", e.Component, e.Operation, e.Kind))
	if e.Message != "" {
		parts = append(parts, e.Message)
	}
	if e.Cause != nil {
		parts = append(parts, e.Cause.Error())
	}
	return strings.Join(parts, ": ")
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches another *Error with the same kind. Empty Component or Operation
// on the target act as wildcards.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if e.Kind != t.Kind {
		return false
	}
	if t.Component != "" && t.Component != e.Component {
		return false
	}
	return t.Operation == "" || t.Operation == e.Operation
}

// KindOf returns the kind of the first *Error in err's chain, or "" if
// there is none.
func KindOf(err error) Kind {
	var te *Error
	if errors.As(err, &te) {
		return te.Kind
	}
	return ""
}

// Sentinels matching any error of the corresponding kind.
var (
	ErrValidationDegraded    = &Error{Kind: KindValidationDegraded}
	ErrClassifierUnavailable = &Error{Kind: KindClassifierUnavailable}
	ErrPredictionFailure     = &Error{Kind: KindPredictionFailure}
	ErrPersistenceFailure    = &Error{Kind: KindPersistenceFailure}
	ErrPipelineFailure       = &Error{Kind: KindPipelineFailure}
)
