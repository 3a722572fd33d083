// Package reservation implements the availability and table allocation
// engine: service window matching, occupancy duration, free table
// scanning, greedy allocation and the transactional booking, cancellation
// and confirmation flows built on top of them.
package reservation

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrValidation marks bad or missing input.  Returned errors are
	// *ValidationError values that also match this sentinel.
	ErrValidation = errors.New("validation failed")
	// ErrServiceUnavailable is returned when the venue is closed at the
	// requested time.  Callers should offer a different time.
	ErrServiceUnavailable = errors.New("venue is not serving at the requested time")
	// ErrCapacity is returned when no combination of free tables seats the
	// party.  Callers should offer a waitlist.
	ErrCapacity = errors.New("not enough free tables for the party")
	// ErrAllocationConflict is returned when concurrent writers kept
	// colliding on the same tables and retries ran out.
	ErrAllocationConflict = errors.New("allocation conflict")
	// ErrPaymentGateway is returned alongside a committed booking when the
	// payment order could not be created.  The booking stays pending.
	ErrPaymentGateway = errors.New("payment gateway error")
	// ErrNotFound is returned for unknown venues, bookings or payment
	// references.
	ErrNotFound = errors.New("not found")
	// ErrInvalidTransition is returned when a status change is not allowed
	// from the booking's current state.
	ErrInvalidTransition = errors.New("invalid booking status transition")
)

// ValidationError collects per-field validation messages.
type ValidationError struct {
	fields map[string]string
}

func newValidationError() *ValidationError {
	return &ValidationError{fields: make(map[string]string)}
}

// FieldError builds a *ValidationError for a single field.  The HTTP layer
// uses it for input it rejects before reaching the engine.
func FieldError(field, msg string) *ValidationError {
	e := newValidationError()
	e.add(field, msg)
	return e
}

func (e *ValidationError) add(field, msg string) {
	if _, exists := e.fields[field]; !exists {
		e.fields[field] = msg
	}
}

func (e *ValidationError) empty() bool { return len(e.fields) == 0 }

// Fields returns a copy of the field -> message map.
func (e *ValidationError) Fields() map[string]string {
	out := make(map[string]string, len(e.fields))
	for k, v := range e.fields {
		out[k] = v
	}
	return out
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.fields))
	for k := range e.fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.fields[k]))
	}
	return fmt.Sprintf("%s (%s)", ErrValidation.Error(), strings.Join(parts, "; "))
}

// Is lets errors.Is(err, ErrValidation) match any *ValidationError.
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// AsValidationError returns the *ValidationError inside err, if any.
func AsValidationError(err error) *ValidationError {
	var vErr *ValidationError
	if errors.As(err, &vErr) {
		return vErr
	}
	return nil
}
