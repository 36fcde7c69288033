package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Sentinel error kinds. Callers distinguish them with errors.Is.
var (
	// ErrNotFound is returned when a referenced event or RSVP does not exist.
	ErrNotFound = errors.New("not found")
	// ErrValidation is returned when input fields are missing or malformed.
	ErrValidation = errors.New("validation error")
	// ErrTemporal is returned when an event start date is not in the future.
	ErrTemporal = errors.New("start date must be in the future")
	// ErrUnauthorized is returned when the actor lacks rights for the operation.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrConflict is returned when a uniqueness violation was not resolved by an upsert.
	ErrConflict = errors.New("conflict")
	// ErrStorageUnavailable is returned on backend timeouts and connection failures.
	ErrStorageUnavailable = errors.New("storage unavailable")
	// ErrCommitUncertain is returned when a commit failed and the transaction may still have been applied.
	ErrCommitUncertain = errors.New("commit outcome unknown")
)

// FieldError is a single violated field with a human readable message.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError carries every violated field of a request.
type ValidationError struct {
	Fields []FieldError
}

// Add appends a violation for field.
func (e *ValidationError) Add(field, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
}

// HasErrors reports whether any field was rejected.
func (e *ValidationError) HasErrors() bool {
	return e != nil && len(e.Fields) > 0
}

// FieldMap returns field -> message. When a field has several violations, the first one wins.
func (e *ValidationError) FieldMap() map[string]string {
	out := make(map[string]string, len(e.Fields))
	for _, f := range e.Fields {
		if _, ok := out[f.Field]; !ok {
			out[f.Field] = f.Message
		}
	}
	return out
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, f.Message)
	}
	sort.Strings(msgs)
	return fmt.Sprintf("%v: %s", ErrValidation, strings.Join(msgs, "; "))
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidationError returns a ValidationError with a single field violation.
func NewValidationError(field, message string) *ValidationError {
	ve := &ValidationError{}
	ve.Add(field, message)
	return ve
}

// CascadeError reports a multi-step write that stopped after it had started changing data:
// the event survived its RSVPs, the final sweep of late RSVPs failed, or an RSVP written
// for a vanished event could not be removed again.
// It is fatal for the caller and must not be retried blindly.
type CascadeError struct {
	EventID      string
	RsvpsDeleted int64
	Err          error
}

func (e *CascadeError) Error() string {
	return fmt.Sprintf("cascade delete of event %s incomplete after removing %d rsvps: %v", e.EventID, e.RsvpsDeleted, e.Err)
}

func (e *CascadeError) Unwrap() error { return e.Err }

// IsRetryable reports whether err is worth one more attempt against storage.
// A commit with an unknown outcome is never retried.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrStorageUnavailable) && !errors.Is(err, ErrCommitUncertain)
}
