// Package oracle validates and compiles Python-flavoured regular expressions
// with an external engine.
//
// The rebuild parser never decides on its own whether pattern text is a
// well-formed regex. It asks an oracle first, so malformed input fails with
// the engine's native diagnostic. This package provides that oracle on top of
// github.com/dlclark/regexp2, a backtracking engine that understands
// lookaround, backreferences and conditional groups.
//
// regexp2 speaks the .NET dialect. Translate rewrites the few Python-only
// spellings before the pattern reaches regexp2:
//   - (?P<name>...) becomes (?<name>...)
//   - (?P=name) becomes \k<name>
//   - x{,m} becomes x{0,m}
//   - inline flags a, L and u are dropped (regexp2 has no equivalent)
//   - \Z becomes \z
//
// Basic usage:
//
//	o := oracle.Default()
//	if err := o.Validate(`(?P<year>\d{4})-(?P=year)`); err != nil {
//	    log.Fatal(err)
//	}
package oracle

import (
	"fmt"
	"time"

	"github.com/dlclark/regexp2"
)

// Options controls how the oracle compiles patterns.
type Options struct {
	// Timeout bounds a single match performed through Pattern.
	// Zero means no timeout.
	// Default: 1s
	Timeout time.Duration
}

// DefaultOptions returns the options used by Default.
func DefaultOptions() Options {
	return Options{
		Timeout: time.Second,
	}
}

// Oracle validates and compiles patterns. It holds no mutable state and is
// safe for concurrent use.
type Oracle struct {
	opts Options
}

var defaultOracle = New(DefaultOptions())

// New returns an oracle using opts.
func New(opts Options) *Oracle {
	return &Oracle{opts: opts}
}

// Default returns the shared oracle built from DefaultOptions.
func Default() *Oracle {
	return defaultOracle
}

// SyntaxError reports pattern text the engine refused to compile.
type SyntaxError struct {
	Pattern string
	Err     error
}

// Error implements the error interface.
func (e *SyntaxError) Error() string {
	return fmt.Sprintf("invalid pattern %q: %v", e.Pattern, e.Err)
}

// Unwrap returns the engine's diagnostic.
func (e *SyntaxError) Unwrap() error {
	return e.Err
}

// Validate reports whether pattern compiles. The returned error, if any, is a
// *SyntaxError carrying the engine's own message.
func (o *Oracle) Validate(pattern string) error {
	_, err := o.compile(pattern)
	return err
}

// Compile compiles pattern for matching.
//
// Matching is not part of canonicalization; Compile exists for tools that
// compare a pattern with its canonical form over sample input.
func (o *Oracle) Compile(pattern string) (*Pattern, error) {
	re, err := o.compile(pattern)
	if err != nil {
		return nil, err
	}
	full, err := regexp2.Compile(`\A(?:`+Translate(pattern)+`)\z`, regexp2.None)
	if err != nil {
		return nil, &SyntaxError{Pattern: pattern, Err: err}
	}
	if o.opts.Timeout > 0 {
		full.MatchTimeout = o.opts.Timeout
	}
	return &Pattern{source: pattern, search: re, full: full}, nil
}

func (o *Oracle) compile(pattern string) (*regexp2.Regexp, error) {
	re, err := regexp2.Compile(Translate(pattern), regexp2.None)
	if err != nil {
		return nil, &SyntaxError{Pattern: pattern, Err: err}
	}
	if o.opts.Timeout > 0 {
		re.MatchTimeout = o.opts.Timeout
	}
	return re, nil
}

// Pattern is a compiled pattern. It is safe for concurrent use.
type Pattern struct {
	source string
	search *regexp2.Regexp
	full   *regexp2.Regexp
}

// String returns the Python-flavoured source the pattern was compiled from.
func (p *Pattern) String() string {
	return p.source
}

// MatchString reports whether the pattern matches anywhere in s.
func (p *Pattern) MatchString(s string) (bool, error) {
	return p.search.MatchString(s)
}

// FullMatchString reports whether the pattern matches all of s.
func (p *Pattern) FullMatchString(s string) (bool, error) {
	return p.full.MatchString(s)
}

// FindString returns the leftmost match in s and whether one was found.
func (p *Pattern) FindString(s string) (string, bool, error) {
	m, err := p.search.FindStringMatch(s)
	if err != nil || m == nil {
		return "", false, err
	}
	return m.String(), true, nil
}
