package rebuild

import "github.com/coregx/rebuild/syntax"

// Config controls canonicalization.
//
// Example:
//
//	config := rebuild.DefaultConfig()
//	config.Intermediate = false // concatenate only, canonicalize once at the end
//	b, err := rebuild.NewWithConfig(config)
type Config struct {
	// Validator checks every fragment before it is parsed.
	// When nil, the grammar alone decides what is accepted.
	// Default: oracle.Default()
	Validator syntax.Validator

	// MaxDepth limits group nesting of a fragment.
	// Default: 500
	MaxDepth int

	// Intermediate canonicalizes the result of every combinator call.
	// When false, combinators only splice text together and the caller
	// is expected to pass the final pattern to Optimize.
	// Default: true
	Intermediate bool
}

// ConfigError represents an invalid configuration parameter.
type ConfigError = syntax.ConfigError

// DefaultConfig returns the configuration used by New and Optimize.
func DefaultConfig() Config {
	parse := syntax.DefaultConfig()
	return Config{
		Validator:    parse.Validator,
		MaxDepth:     parse.MaxDepth,
		Intermediate: true,
	}
}

// Validate checks if the configuration is valid.
//
// Valid ranges:
//   - MaxDepth: 1 to 100,000
func (c Config) Validate() error {
	return c.syntax().Validate()
}

func (c Config) syntax() syntax.Config {
	return syntax.Config{
		Validator: c.Validator,
		MaxDepth:  c.MaxDepth,
	}
}
