// Package errs holds the failure taxonomy shared by the matching and conversation
// services. Callers classify with errors.Is; every error returned by a service wraps
// at most one of these sentinels.
package errs

import (
	"errors"
	"fmt"
)

var (
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrInvalidTarget      = errors.New("invalid target")
	ErrNotParticipant     = errors.New("not a conversation participant")
	ErrTransientStore     = errors.New("transient store failure")
	ErrInvariantViolation = errors.New("invariant violation")
	ErrValidation         = errors.New("validation error")

	// ErrNotFound is returned by stores for a missing record. Services translate it
	// before it reaches a caller.
	ErrNotFound = errors.New("record not found")
)

// Transient marks err as retryable by the caller. A nil err stays nil.
func Transient(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrTransientStore) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %w", op, ErrTransientStore, err)
}

func InvalidTarget(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidTarget, fmt.Sprintf(format, args...))
}

func Invariant(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvariantViolation, fmt.Sprintf(format, args...))
}

func IsTransient(err error) bool {
	return errors.Is(err, ErrTransientStore)
}
