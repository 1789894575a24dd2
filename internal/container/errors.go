package container

import (
	"errors"
	"fmt"
)

// Static errors
var (
	// ErrUnsupportedFormat indicates the buffer is not a recognized
	// container format and no analyzer can be bound to it.
	ErrUnsupportedFormat = errors.New("unsupported container format")

	// ErrNoArchitectures indicates a universal (fat) Mach-O archive that
	// declares no architecture slices.
	ErrNoArchitectures = errors.New("fat binary contains no architecture slices")

	// ErrArchOutOfBounds indicates a fat architecture slice whose declared
	// extent lies beyond the end of the buffer.
	ErrArchOutOfBounds = errors.New("fat architecture slice exceeds buffer bounds")
)

// ParseError indicates that a buffer routed to an analyzer failed that
// format's structural decode, or violated a format-specific invariant.
// It always carries a human-readable cause and is never silently swallowed;
// parsing is deterministic, so callers must not retry.
type ParseError struct {
	// Format is the format the failing analyzer was bound to.
	Format BinaryFormat

	// Cause describes the structural failure.
	Cause string

	// Err is the underlying decoder error, if any.
	Err error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s parse error: %s: %v", e.Format, e.Cause, e.Err)
	}
	return fmt.Sprintf("%s parse error: %s", e.Format, e.Cause)
}

// Unwrap returns the underlying decoder error.
func (e *ParseError) Unwrap() error {
	return e.Err
}

// newParseError wraps a decoder failure into a ParseError.
func newParseError(format BinaryFormat, cause string, err error) *ParseError {
	return &ParseError{Format: format, Cause: cause, Err: err}
}
