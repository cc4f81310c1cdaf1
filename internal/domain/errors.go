package domain

import (
	"errors"
	"fmt"
)

// Domain errors. Handlers map these to HTTP statuses with errors.Is;
// everything that wraps one of them keeps its identity.
var (
	ErrInvalidURL          = errors.New("invalid URL")
	ErrInvalidCode         = errors.New("invalid short code")
	ErrInvalidDomain       = errors.New("domain is not in the allow-list")
	ErrDuplicateCode       = errors.New("short code already in use for this domain")
	ErrGenerationExhausted = errors.New("could not generate an unused short code")
	ErrNotFound            = errors.New("not found")
)

// StorageError wraps an unrecoverable persistence failure. It is the only
// error class the HTTP layer turns into a 5xx.
type StorageError struct {
	Op  string // the store operation that failed
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// NewStorageError wraps err as a StorageError unless it is already a
// domain error that callers match on.
func NewStorageError(op string, err error) error {
	return &StorageError{Op: op, Err: err}
}

// IsStorageError reports whether err is (or wraps) a StorageError.
func IsStorageError(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}
