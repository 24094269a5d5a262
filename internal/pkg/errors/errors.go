package errors

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is a generic sentinel for missing resources.
	ErrNotFound = errors.New("not found")
	// ErrInvalidArgument is a generic sentinel for invalid input.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrConstraintViolation marks a uniqueness violation on write. Callers may
	// recover locally (duplicate resolution falls back to an update) before
	// surfacing it.
	ErrConstraintViolation = errors.New("constraint violation")
)

// BatchItemError records one failed record inside a bulk operation, with enough
// context to replay it manually.
type BatchItemError struct {
	ID     uuid.UUID
	Domain string
	Op     string
	Err    error
}

func (e BatchItemError) Error() string {
	if e.Domain != "" {
		return fmt.Sprintf("%s %s (%s): %v", e.Op, e.ID, e.Domain, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.ID, e.Err)
}

func (e BatchItemError) Unwrap() error { return e.Err }

// PartialBatchError aggregates per-record failures from a bulk operation. It is
// informational: siblings that succeeded stay committed.
type PartialBatchError struct {
	Op     string
	Failed []BatchItemError
}

func (e *PartialBatchError) Error() string {
	return fmt.Sprintf("%s: %d record(s) failed", e.Op, len(e.Failed))
}

// AsPartialBatch extracts a PartialBatchError if err carries one.
func AsPartialBatch(err error) (*PartialBatchError, bool) {
	var pbe *PartialBatchError
	if errors.As(err, &pbe) {
		return pbe, true
	}
	return nil, false
}
