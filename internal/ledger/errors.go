package ledger

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks payloads rejected before any hashing or storage work
	ErrValidation = errors.New("invalid audit payload")
	// ErrStorage marks failures of the underlying entry store
	ErrStorage = errors.New("audit storage error")
	// ErrTailMoved is returned by Store.Insert when the entry's PrevHash is no longer the chain tail
	ErrTailMoved = errors.New("audit chain tail moved")
	// ErrTailContention is returned when the tail kept moving for every retry
	ErrTailContention = errors.New("audit chain tail contention")
	// ErrNonFiniteNumber rejects NaN and infinities in details
	ErrNonFiniteNumber = errors.New("non-finite number")
)

// ValidationError describes which payload field was rejected
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid audit payload: %s %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

func storageError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStorage, op, err)
}
