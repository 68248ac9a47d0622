package syntax

import (
	"errors"
	"fmt"
)

// Parse error classes. Use errors.Is to tell them apart.
var (
	// ErrInvalidPattern indicates the validity oracle rejected the text
	// outright: it is not a well-formed regex at all.
	ErrInvalidPattern = errors.New("invalid regex pattern")

	// ErrUnsupportedSyntax indicates well-formed regex text that uses a
	// construct outside the supported grammar.
	ErrUnsupportedSyntax = errors.New("unsupported regex syntax")

	// ErrTooComplex indicates the pattern nests deeper than Config.MaxDepth.
	ErrTooComplex = errors.New("pattern too complex")
)

// Error wraps a parse failure with the pattern and, when known, the position
// and text of the offending construct.
type Error struct {
	// Kind is one of ErrInvalidPattern, ErrUnsupportedSyntax or ErrTooComplex.
	Kind error

	Pattern string

	// Pos is the byte offset of the failure in Pattern, or -1 if unknown.
	Pos int

	// Fragment names the offending construct, if it could be identified.
	Fragment string

	// Err is the underlying diagnostic, such as the oracle's message.
	Err error
}

// Error implements the error interface
func (e *Error) Error() string {
	msg := fmt.Sprintf("%v in %q", e.Kind, e.Pattern)
	if e.Pos >= 0 {
		msg += fmt.Sprintf(" at offset %d", e.Pos)
	}
	if e.Fragment != "" {
		msg += fmt.Sprintf(": %s", e.Fragment)
	}
	if e.Err != nil {
		msg += fmt.Sprintf(": %v", e.Err)
	}
	return msg
}

// Unwrap returns both the error class and the underlying diagnostic, so
// errors.Is matches the class and errors.As reaches the cause.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// ConfigError represents an invalid configuration parameter.
type ConfigError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return "syntax: invalid config: " + e.Field + ": " + e.Message
}
