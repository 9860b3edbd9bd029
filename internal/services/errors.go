package services

import (
	"errors"
	"fmt"

	"workdesk/internal/store"
)

// Error kinds returned by the lifecycle services. Use errors.Is to test.
var (
	ErrNotFound          = errors.New("not found")
	ErrAlreadyDecided    = errors.New("approval step already decided")
	ErrInvalidTransition = errors.New("invalid transition")
	ErrValidation        = errors.New("validation failed")

	// ErrStepNotFound also matches ErrNotFound.
	ErrStepNotFound = fmt.Errorf("approval step %w", ErrNotFound)
)

func validationErrorf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func transitionErrorf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidTransition, fmt.Sprintf(format, args...))
}

// storeError maps store.ErrNotFound to ErrNotFound and passes service
// errors raised inside store mutations through unchanged.
func storeError(err error, kind, id string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrNotFound):
		return fmt.Errorf("%s %s: %w", kind, id, ErrNotFound)
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrAlreadyDecided),
		errors.Is(err, ErrInvalidTransition), errors.Is(err, ErrValidation):
		return err
	}
	return fmt.Errorf("failed to persist %s %s: %w", kind, id, err)
}
