package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	ErrNotFound = errors.New("resource not found")

	// ErrUnknownConstituency means the identifier resolves in no fallback tier.
	ErrUnknownConstituency = fmt.Errorf("%w: constituency", ErrNotFound)
	ErrSnapshotNotFound    = fmt.Errorf("%w: strategy snapshot", ErrNotFound)

	// ErrMalformedProfile means a resolved profile violates an invariant.
	ErrMalformedProfile = errors.New("malformed constituency profile")

	// ErrCollaboratorUnavailable covers the record store and narrative services.
	ErrCollaboratorUnavailable = errors.New("collaborator unavailable")

	ErrInvalidWeights = errors.New("invalid scoring weights")
)

// FieldError pins a profile invariant violation to the offending field.
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *FieldError) Unwrap() error {
	return ErrMalformedProfile
}

// Error constructors with context
func NewUnknownConstituencyError(id ConstituencyID) error {
	return fmt.Errorf("%w with id %s", ErrUnknownConstituency, id)
}

func NewMalformedError(field, format string, args ...any) error {
	return &FieldError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

func NewUnavailableError(collaborator string, cause error) error {
	return fmt.Errorf("%w: %s: %v", ErrCollaboratorUnavailable, collaborator, cause)
}

// Error checking helpers
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsMalformedError(err error) bool {
	return errors.Is(err, ErrMalformedProfile)
}

func IsUnavailableError(err error) bool {
	return errors.Is(err, ErrCollaboratorUnavailable)
}
