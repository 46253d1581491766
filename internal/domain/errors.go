package domain

import (
	"errors"
	"fmt"
)

// ValidationError reports a malformed filter value or request body.
type ValidationError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
}

// NotFoundError reports a single-resource lookup on an absent ID.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

// WorkflowNotFound builds the NotFoundError for a workflow ID.
func WorkflowNotFound(id string) error {
	return &NotFoundError{Kind: "workflow", ID: id}
}

// ErrNotRunning reports that the execution layer has no running execution
// for a workflow whose record exists, typically because it already finished.
var ErrNotRunning = errors.New("workflow execution is not running")

// UnavailableError reports that the store or the execution layer could not
// be reached in time. Callers may retry; read paths never do so internally.
type UnavailableError struct {
	Op  string
	Err error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("%s: upstream unavailable: %v", e.Op, e.Err)
}

func (e *UnavailableError) Unwrap() error { return e.Err }

// Unavailable wraps err as an UnavailableError for op.
func Unavailable(op string, err error) error {
	return &UnavailableError{Op: op, Err: err}
}

// IsValidation reports whether err is or wraps a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsNotFound reports whether err is or wraps a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsUnavailable reports whether err is or wraps an UnavailableError.
func IsUnavailable(err error) bool {
	var ue *UnavailableError
	return errors.As(err, &ue)
}

// IsNotRunning reports whether err is or wraps ErrNotRunning.
func IsNotRunning(err error) bool {
	return errors.Is(err, ErrNotRunning)
}
