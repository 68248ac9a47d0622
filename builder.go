package rebuild

import (
	"math/bits"
	"strconv"
	"strings"
	"unicode"
)

// Builder composes canonical pattern fragments.
//
// Combinators take and return fragments as strings so calls nest naturally.
// The first failure is kept and reported by Err; from then on every
// canonicalizing combinator returns "". Check Err once after building, the
// way bufio.Writer is checked after the last write.
//
// A Builder is meant for one goroutine. Independent Builders may be used
// concurrently.
//
// Example:
//
//	b := rebuild.New()
//	pattern := b.ForceFull(b.CaptureAs("year", b.ExactlyNTimes(4, b.Digit())))
//	if err := b.Err(); err != nil {
//	    log.Fatal(err)
//	}
//	// pattern = `^(?P<year>\d{4})$`
type Builder struct {
	config Config
	err    error
}

// New returns a Builder using DefaultConfig.
func New() *Builder {
	return &Builder{config: DefaultConfig()}
}

// NewWithConfig returns a Builder using config.
func NewWithConfig(config Config) (*Builder, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Builder{config: config}, nil
}

// Err returns the first error met by any combinator, or nil.
func (b *Builder) Err() error {
	return b.err
}

// Reset clears the sticky error.
func (b *Builder) Reset() {
	b.err = nil
}

// canonical canonicalizes raw as a fragment, recording a failure under op.
func (b *Builder) canonical(op, raw string) string {
	if b.err != nil {
		return ""
	}
	if !b.config.Intermediate {
		return raw
	}
	out, err := canonicalize(raw, b.config, true)
	if err != nil {
		b.err = &BuildError{Op: op, Fragment: raw, Err: err}
		return ""
	}
	return out
}

// fail records a precondition violation.
func (b *Builder) fail(op, message string) string {
	if b.err == nil {
		b.err = &PreconditionError{Op: op, Message: message}
	}
	return ""
}

func nonCapture(pattern string) string {
	return "(?:" + pattern + ")"
}

// Literally is the package-level Literally.
func (b *Builder) Literally(text string) string { return Literally(text) }

// MustBegin returns the start anchor ^.
func (b *Builder) MustBegin() string { return "^" }

// MustEnd returns the end anchor $.
func (b *Builder) MustEnd() string { return "$" }

// ForceFull anchors pattern at both ends and canonicalizes the anchored
// fragment as one unit. An empty pattern gives ^$, which matches only the
// empty string.
func (b *Builder) ForceFull(pattern string) string {
	if pattern == "" {
		return b.MustBegin() + b.MustEnd()
	}
	return b.canonical("ForceFull", b.MustBegin()+pattern+b.MustEnd())
}

// NonCapture groups pattern without capturing. Canonicalization drops the
// group again unless the context needs it.
func (b *Builder) NonCapture(pattern string) string {
	if pattern == "" {
		return ""
	}
	return b.canonical("NonCapture", nonCapture(pattern))
}

// Optionally matches pattern zero or one time. With lazy set the empty
// match is tried first.
func (b *Builder) Optionally(pattern string, lazy bool) string {
	if pattern == "" {
		return ""
	}
	raw := nonCapture(pattern) + "?"
	if lazy {
		raw += "?"
	}
	return b.canonical("Optionally", raw)
}

// Optional is Optionally(pattern, false).
func (b *Builder) Optional(pattern string) string {
	return b.Optionally(pattern, false)
}

// quantified applies the quantifier op to pattern, marking it lazy unless
// greedy is set.
func (b *Builder) quantified(name, pattern, op string, greedy bool) string {
	if pattern == "" {
		return ""
	}
	raw := nonCapture(pattern) + op
	if !greedy {
		raw += "?"
	}
	return b.canonical(name, raw)
}

// OneOrMore matches pattern one or more times.
func (b *Builder) OneOrMore(pattern string, greedy bool) string {
	return b.quantified("OneOrMore", pattern, "+", greedy)
}

// ZeroOrMore matches pattern any number of times.
func (b *Builder) ZeroOrMore(pattern string, greedy bool) string {
	return b.quantified("ZeroOrMore", pattern, "*", greedy)
}

// AtLeastNTimes matches pattern n or more times.
func (b *Builder) AtLeastNTimes(n int, pattern string, greedy bool) string {
	if n < 0 {
		return b.fail("AtLeastNTimes", "negative count "+strconv.Itoa(n))
	}
	return b.quantified("AtLeastNTimes", pattern, "{"+strconv.Itoa(n)+",}", greedy)
}

// ExactlyNTimes matches pattern exactly n times.
func (b *Builder) ExactlyNTimes(n int, pattern string) string {
	if n < 0 {
		return b.fail("ExactlyNTimes", "negative count "+strconv.Itoa(n))
	}
	return b.quantified("ExactlyNTimes", pattern, "{"+strconv.Itoa(n)+"}", true)
}

// AtMostNTimes matches pattern at most n times.
//
// AtMostNTimes(1, p, true) canonicalizes to p itself, a single mandatory
// occurrence. Use Optionally for zero or one.
func (b *Builder) AtMostNTimes(n int, pattern string, greedy bool) string {
	if n < 0 {
		return b.fail("AtMostNTimes", "negative count "+strconv.Itoa(n))
	}
	return b.quantified("AtMostNTimes", pattern, "{,"+strconv.Itoa(n)+"}", greedy)
}

// AtLeastNButNotMoreThanMTimes matches pattern between n and m times.
func (b *Builder) AtLeastNButNotMoreThanMTimes(n, m int, pattern string, greedy bool) string {
	const op = "AtLeastNButNotMoreThanMTimes"
	if n < 0 || m < n {
		return b.fail(op, "bounds must satisfy 0 <= n <= m, got "+strconv.Itoa(n)+","+strconv.Itoa(m))
	}
	return b.quantified(op, pattern, "{"+strconv.Itoa(n)+","+strconv.Itoa(m)+"}", greedy)
}

// Either matches any one of patterns. Empty patterns are ignored and single
// characters or sets merge into one bracket expression.
//
// Example:
//
//	b.Either("a", "b", "c")    // [abc]
//	b.Either("[a-z]", "[0-9]") // [a-z0-9]
//	b.Either("abc", "123")     // (?:abc|123)
func (b *Builder) Either(patterns ...string) string {
	options := make([]string, 0, len(patterns))
	for _, p := range patterns {
		if p != "" {
			options = append(options, nonCapture(p))
		}
	}
	if len(options) == 0 {
		return ""
	}
	return b.canonical("Either", nonCapture(strings.Join(options, "|")))
}

// AnyOf is an alias for Either.
func (b *Builder) AnyOf(patterns ...string) string {
	return b.Either(patterns...)
}

// OneOf matches any single character listed in chars. chars is the body of
// a bracket expression, so ranges such as a-z are allowed.
func (b *Builder) OneOf(chars string) string {
	if chars == "" {
		return ""
	}
	return b.canonical("OneOf", "["+chars+"]")
}

// Capture wraps pattern in a numbered capturing group. The group is kept even
// for an empty pattern so later group numbers do not shift.
func (b *Builder) Capture(pattern string) string {
	return b.canonical("Capture", "("+pattern+")")
}

// CaptureAs wraps pattern in a group captured under name.
func (b *Builder) CaptureAs(name, pattern string) string {
	if name == "" {
		return b.fail("CaptureAs", "group name is required")
	}
	return b.canonical("CaptureAs", "(?P<"+name+">"+pattern+")")
}

// MatchPrevious matches the text captured earlier by group num, or by the
// group called name when num is not positive.
//
// The reference is returned as is. It only becomes checkable once it is
// combined with the group it refers to.
func (b *Builder) MatchPrevious(num int, name string) string {
	const op = "MatchPrevious"
	switch {
	case b.err != nil:
		return ""
	case num > 0:
		return `\` + strconv.Itoa(num)
	case name != "":
		if !isGroupName(name) {
			return b.fail(op, "invalid group name "+strconv.Quote(name))
		}
		return "(?P=" + name + ")"
	}
	return b.fail(op, "either a group number or a group name is required")
}

// isGroupName reports whether name is usable as a group name or number.
func isGroupName(name string) bool {
	for _, r := range name {
		if r != '_' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return false
		}
	}
	return name != ""
}

// Flag is a set of inline mode flags.
type Flag uint8

// Mode flags, rendered in this order as "uaixmLs".
const (
	Unicode         Flag = 1 << iota // u
	ASCII                            // a
	IgnoreCase                       // i
	Verbose                          // x
	Multiline                        // m
	LocaleDependent                  // L
	DotAll                           // s
)

const flagLetters = "uaixmLs"

// charsetFlags select how character classes are interpreted. At most one of
// them may be set.
const charsetFlags = Unicode | ASCII | LocaleDependent

// String returns the flag letters, such as "im".
func (f Flag) String() string {
	var sb strings.Builder
	for i := 0; i < len(flagLetters); i++ {
		if f&(1<<i) != 0 {
			sb.WriteByte(flagLetters[i])
		}
	}
	return sb.String()
}

// Mode applies inline flags to pattern. At least one flag is required, and
// Unicode, ASCII and LocaleDependent exclude each other.
//
// Example:
//
//	b.Mode("abc", rebuild.IgnoreCase|rebuild.Multiline) // (?im:abc)
func (b *Builder) Mode(pattern string, flags Flag) string {
	if flags.String() == "" {
		return b.fail("Mode", "at least one flag is required")
	}
	if bits.OnesCount8(uint8(flags&charsetFlags)) > 1 {
		return b.fail("Mode", "incompatible flags "+(flags&charsetFlags).String())
	}
	if pattern == "" {
		return ""
	}
	return b.canonical("Mode", "(?"+flags.String()+":"+pattern+")")
}

func (b *Builder) look(op, opener, pattern string) string {
	if pattern == "" {
		return ""
	}
	return b.canonical(op, opener+pattern+")")
}

// Lookahead asserts that pattern matches next, without consuming it.
func (b *Builder) Lookahead(pattern string) string {
	return b.look("Lookahead", "(?=", pattern)
}

// NegativeLookahead asserts that pattern does not match next.
func (b *Builder) NegativeLookahead(pattern string) string {
	return b.look("NegativeLookahead", "(?!", pattern)
}

// Lookbehind asserts that pattern matches just before the current position.
func (b *Builder) Lookbehind(pattern string) string {
	return b.look("Lookbehind", "(?<=", pattern)
}

// NegativeLookbehind asserts that pattern does not match just before the
// current position.
func (b *Builder) NegativeLookbehind(pattern string) string {
	return b.look("NegativeLookbehind", "(?<!", pattern)
}

// IfFollowedBy is an alias for Lookahead.
func (b *Builder) IfFollowedBy(pattern string) string { return b.Lookahead(pattern) }

// IfNotFollowedBy is an alias for NegativeLookahead.
func (b *Builder) IfNotFollowedBy(pattern string) string { return b.NegativeLookahead(pattern) }

// IfPrecededBy is an alias for Lookbehind.
func (b *Builder) IfPrecededBy(pattern string) string { return b.Lookbehind(pattern) }

// IfNotPrecededBy is an alias for NegativeLookbehind.
func (b *Builder) IfNotPrecededBy(pattern string) string { return b.NegativeLookbehind(pattern) }

// IfGroupExistsThenElse matches then if the group called name took part in
// the match so far and els otherwise.
//
// Like MatchPrevious, the conditional refers to a group outside itself, so
// each branch is canonicalized on its own and the conditional is assembled
// around them.
func (b *Builder) IfGroupExistsThenElse(name, then, els string) string {
	const op = "IfGroupExistsThenElse"
	if b.err != nil {
		return ""
	}
	if !isGroupName(name) {
		return b.fail(op, "invalid group name "+strconv.Quote(name))
	}
	if then == "" && els == "" {
		return ""
	}
	then = b.branch(op, then)
	els = b.branch(op, els)
	if b.err != nil {
		return ""
	}
	return "(?(" + name + ")" + then + "|" + els + ")"
}

func (b *Builder) branch(op, pattern string) string {
	if pattern == "" {
		return ""
	}
	return b.canonical(op, nonCapture(pattern))
}

// MatchEverythingBut matches any whole line that does not start with a
// match of pattern.
func (b *Builder) MatchEverythingBut(pattern string) string {
	return b.ForceFull(b.NegativeLookahead(pattern) + b.Anything() + "*")
}

// Digit matches a decimal digit.
func (b *Builder) Digit() string { return `\d` }

// Letter matches an ASCII letter.
func (b *Builder) Letter() string { return "[a-zA-Z]" }

// Whitespace matches a whitespace character.
func (b *Builder) Whitespace() string { return `\s` }

// WordChar matches a word character.
func (b *Builder) WordChar() string { return `\w` }

// Anything matches any character except newline.
func (b *Builder) Anything() string { return "." }
