package parser

import (
	"errors"
	"fmt"
)

// Sentinel errors for the parse outcomes callers need to tell apart.
var (
	// ErrInvalidFormat means the file does not start with the SQLite magic string.
	ErrInvalidFormat = errors.New("not a valid SQLite file")
	// ErrCancelled means the parse observed a cancellation request at a batch
	// boundary. No snapshot is produced.
	ErrCancelled = errors.New("parse cancelled")
)

// PageError records a failure to decode one page header.
type PageError struct {
	Page uint32
	Err  error
}

func (e *PageError) Error() string {
	return fmt.Sprintf("page %d: %v", e.Page, e.Err)
}

func (e *PageError) Unwrap() error {
	return e.Err
}

// IsCancelled reports whether err is a cancellation outcome.
func IsCancelled(err error) bool {
	return errors.Is(err, ErrCancelled)
}

// IsFormatError reports whether err is a format (bad magic) error.
func IsFormatError(err error) bool {
	return errors.Is(err, ErrInvalidFormat)
}
