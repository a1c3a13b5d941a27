package models

import (
	"errors"
	"fmt"

	"github.com/timshannon/bolthold"
)

// ErrNotFound is returned when a referenced item, tag or relation does not exist
var ErrNotFound = errors.New("not found")

// ValidationError reports malformed caller input. It is never retried.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Msg
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Msg)
}

// NewValidationError creates a validation error for a field
func NewValidationError(field, msg string) *ValidationError {
	return &ValidationError{Field: field, Msg: msg}
}

// IsValidation reports whether err is a validation error
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// DependencyError wraps a storage failure that must propagate unchanged
type DependencyError struct {
	Op  string
	Err error
}

func (e *DependencyError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *DependencyError) Unwrap() error {
	return e.Err
}

// wrapStoreErr maps storage-level errors onto the domain error kinds.
// bolthold's not-found becomes ErrNotFound; anything else is a dependency
// failure. ErrUniqueExists is intentionally not mapped here: uniqueness
// races are handled at the call site by re-reading the winning row.
func wrapStoreErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, bolthold.ErrNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, bolthold.ErrUniqueExists) {
		return err
	}
	return &DependencyError{Op: op, Err: err}
}
