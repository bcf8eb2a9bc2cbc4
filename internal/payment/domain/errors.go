package domain

import (
	"errors"
	"fmt"
)

// ErrActiveHoldExists is returned by CreateHold when the booking already has a
// hold in PENDING or HELD
var ErrActiveHoldExists = errors.New("an active hold already exists for this booking")

// ErrNotFound is returned when a payment or booking does not exist
var ErrNotFound = errors.New("record not found")

// ValidationError rejects malformed input before any provider call or ledger
// mutation
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Reason)
}

// NewValidationError creates a validation error for a field
func NewValidationError(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// AuthorizationError rejects a request whose user does not own the booking
type AuthorizationError struct {
	Reason string
}

func (e *AuthorizationError) Error() string {
	return "authorization failed: " + e.Reason
}

// ConflictError rejects an operation that violates ledger state, such as a
// second active hold or a capture on a non-HELD record
type ConflictError struct {
	Reason string
}

func (e *ConflictError) Error() string {
	return "conflict: " + e.Reason
}

// ProviderError reports a failed provider interaction. Transient errors
// (timeouts, network failures) leave the record in its pre-call state for
// reconciliation; terminal errors (declines) move it to FAILED.
type ProviderError struct {
	Provider  string
	Transient bool
	Reason    string
}

func (e *ProviderError) Error() string {
	kind := "terminal"
	if e.Transient {
		kind = "transient"
	}
	return fmt.Sprintf("provider %s %s error: %s", e.Provider, kind, e.Reason)
}

// IsValidation reports whether err is a ValidationError
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsAuthorization reports whether err is an AuthorizationError
func IsAuthorization(err error) bool {
	var ae *AuthorizationError
	return errors.As(err, &ae)
}

// IsConflict reports whether err is a ConflictError
func IsConflict(err error) bool {
	var ce *ConflictError
	return errors.As(err, &ce) || errors.Is(err, ErrActiveHoldExists)
}

// IsTransientProviderError reports whether err is a provider error that
// reconciliation will resolve
func IsTransientProviderError(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe) && pe.Transient
}
