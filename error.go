package rebuild

import (
	"errors"
	"fmt"
)

// ErrPrecondition indicates a combinator was called with a required argument
// missing or contradictory. It is a programming error.
var ErrPrecondition = errors.New("precondition violated")

// PreconditionError reports which combinator was misused and how.
type PreconditionError struct {
	Op      string
	Message string
}

// Error implements the error interface
func (e *PreconditionError) Error() string {
	return fmt.Sprintf("rebuild: %s: %s", e.Op, e.Message)
}

// Unwrap returns ErrPrecondition
func (e *PreconditionError) Unwrap() error {
	return ErrPrecondition
}

// BuildError wraps a canonicalization failure with the combinator that
// produced the fragment. Use errors.Is with syntax.ErrInvalidPattern or
// syntax.ErrUnsupportedSyntax to classify it.
type BuildError struct {
	Op       string
	Fragment string
	Err      error
}

// Error implements the error interface
func (e *BuildError) Error() string {
	return fmt.Sprintf("rebuild: %s(%q): %v", e.Op, e.Fragment, e.Err)
}

// Unwrap returns the underlying error
func (e *BuildError) Unwrap() error {
	return e.Err
}
