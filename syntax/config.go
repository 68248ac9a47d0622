package syntax

import "github.com/coregx/rebuild/oracle"

// Validator is the external validity oracle consulted before grammar
// analysis. It must return an error for text that is not a regex at all.
//
// *oracle.Oracle implements Validator.
type Validator interface {
	Validate(pattern string) error
}

// Config controls parsing.
//
// Example:
//
//	config := syntax.DefaultConfig()
//	config.MaxDepth = 50 // reject deeply nested input early
//	node, err := syntax.ParseWithConfig(`(a(b(c)))`, config)
type Config struct {
	// Validator checks pattern text before the grammar runs.
	// When nil, no oracle check is made and malformed text surfaces as
	// ErrUnsupportedSyntax from the grammar instead.
	// Default: oracle.Default()
	Validator Validator

	// MaxDepth limits group nesting. Deeper input fails
	// with ErrTooComplex instead of recursing without bound.
	// Default: 500
	MaxDepth int
}

// DefaultConfig returns the configuration used by Parse.
func DefaultConfig() Config {
	return Config{
		Validator: oracle.Default(),
		MaxDepth:  500,
	}
}

// Validate checks if the configuration is valid.
//
// Valid ranges:
//   - MaxDepth: 1 to 100,000
func (c Config) Validate() error {
	if c.MaxDepth < 1 || c.MaxDepth > 100_000 {
		return &ConfigError{
			Field:   "MaxDepth",
			Message: "must be between 1 and 100,000",
		}
	}
	return nil
}
