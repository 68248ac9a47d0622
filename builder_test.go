package rebuild

import (
	"errors"
	"sync"
	"testing"

	"gotest.tools/v3/assert"
	is "gotest.tools/v3/assert/cmp"

	"github.com/coregx/rebuild/syntax"
)

// build runs fn against a fresh Builder and fails the test on any error.
func build(t *testing.T, fn func(b *Builder) string) string {
	t.Helper()
	b := New()
	out := fn(b)
	assert.NilError(t, b.Err())
	return out
}

func TestEmptyIdentity(t *testing.T) {
	b := New()
	tests := map[string]string{
		"NonCapture":                   b.NonCapture(""),
		"Optionally":                   b.Optionally("", true),
		"Optional":                     b.Optional(""),
		"OneOrMore":                    b.OneOrMore("", true),
		"ZeroOrMore":                   b.ZeroOrMore("", false),
		"AtLeastNTimes":                b.AtLeastNTimes(2, "", true),
		"ExactlyNTimes":                b.ExactlyNTimes(3, ""),
		"AtMostNTimes":                 b.AtMostNTimes(3, "", true),
		"AtLeastNButNotMoreThanMTimes": b.AtLeastNButNotMoreThanMTimes(1, 3, "", true),
		"Either()":                     b.Either(),
		"Either(empty)":                b.Either("", ""),
		"AnyOf":                        b.AnyOf(""),
		"OneOf":                        b.OneOf(""),
		"Mode":                         b.Mode("", IgnoreCase),
		"Lookahead":                    b.Lookahead(""),
		"NegativeLookahead":            b.NegativeLookahead(""),
		"Lookbehind":                   b.Lookbehind(""),
		"NegativeLookbehind":           b.NegativeLookbehind(""),
		"IfGroupExistsThenElse":        b.IfGroupExistsThenElse("x", "", ""),
		"Literally":                    b.Literally(""),
	}
	for name, got := range tests {
		assert.Equal(t, got, "", name)
	}
	assert.NilError(t, b.Err())

	// Exceptions: groups keep their numbering and ^$ still means something.
	assert.Equal(t, b.Capture(""), "()")
	assert.Equal(t, b.CaptureAs("n", ""), "(?P<n>)")
	assert.Equal(t, b.ForceFull(""), "^$")
	assert.NilError(t, b.Err())
}

func TestEither(t *testing.T) {
	tests := []struct {
		name    string
		options []string
		want    string
	}{
		{"single chars", []string{"a", "b", "c"}, "[abc]"},
		{"sets", []string{"[a-z]", "[0-9]"}, "[a-z0-9]"},
		{"single set", []string{"[a-z]"}, "[a-z]"},
		{"single char", []string{"a"}, "a"},
		{"words", []string{"abc", "123", "def"}, "(?:abc|123|def)"},
		{"sets then word", []string{"[a-z]", "[0-9]", "def"}, "(?:[a-z0-9]|def)"},
		{"empty ignored", []string{"", "a", "", "b"}, "[ab]"},
		{"escapes", []string{`\d`, `\.`, "_"}, `[\d\._]`},
		{"duplicates", []string{"ab", "ab"}, "ab"},
		{"nested", []string{"a", "b|c"}, "[abc]"},
		{"anchor", []string{`\?`, "$"}, `(?:\?|$)`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := build(t, func(b *Builder) string { return b.Either(tt.options...) })
			assert.Equal(t, got, tt.want)

			alias := build(t, func(b *Builder) string { return b.AnyOf(tt.options...) })
			assert.Equal(t, alias, tt.want)
		})
	}
}

func TestQuantifiers(t *testing.T) {
	tests := []struct {
		name string
		fn   func(b *Builder) string
		want string
	}{
		{"one or more", func(b *Builder) string { return b.OneOrMore("a", true) }, "a+"},
		{"one or more lazy", func(b *Builder) string { return b.OneOrMore("ab", false) }, "(?:ab)+?"},
		{"zero or more set", func(b *Builder) string { return b.ZeroOrMore("[ab]", true) }, "[ab]*"},
		{"optionally", func(b *Builder) string { return b.Optionally("ab", false) }, "(?:ab)?"},
		{"optionally lazy", func(b *Builder) string { return b.Optionally("ab", true) }, "(?:ab)??"},
		{"optional", func(b *Builder) string { return b.Optional(`\d`) }, `\d?`},
		{"at least n", func(b *Builder) string { return b.AtLeastNTimes(2, "a", true) }, "a{2,}"},
		{"at least zero", func(b *Builder) string { return b.AtLeastNTimes(0, "a", true) }, "a*"},
		{"at least one lazy", func(b *Builder) string { return b.AtLeastNTimes(1, "ab", false) }, "(?:ab)+?"},
		{"exactly one", func(b *Builder) string { return b.ExactlyNTimes(1, "ab") }, "ab"},
		{"exactly zero", func(b *Builder) string { return b.ExactlyNTimes(0, "ab") }, ""},
		{"exactly n", func(b *Builder) string { return b.ExactlyNTimes(3, `\d`) }, `\d{3}`},
		{"at most one", func(b *Builder) string { return b.AtMostNTimes(1, "a", true) }, "a"},
		{"at most n lazy", func(b *Builder) string { return b.AtMostNTimes(3, "a", false) }, "a{,3}?"},
		{"between zero one", func(b *Builder) string { return b.AtLeastNButNotMoreThanMTimes(0, 1, "a", true) }, "a??"},
		{"between equal", func(b *Builder) string { return b.AtLeastNButNotMoreThanMTimes(2, 2, "a", true) }, "a{2}"},
		{"between one one", func(b *Builder) string { return b.AtLeastNButNotMoreThanMTimes(1, 1, "ab", true) }, "ab"},
		{"between lazy", func(b *Builder) string { return b.AtLeastNButNotMoreThanMTimes(2, 4, "ab", false) }, "(?:ab){2,4}?"},
		{"nested", func(b *Builder) string { return b.OneOrMore(b.Either("ab", "cd"), true) }, "(?:ab|cd)+"},
		{"quantified capture", func(b *Builder) string { return b.OneOrMore(b.Capture("a"), true) }, "(a)+"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, build(t, tt.fn), tt.want)
		})
	}
}

func TestGroups(t *testing.T) {
	tests := []struct {
		name string
		fn   func(b *Builder) string
		want string
	}{
		{"non-capture collapses", func(b *Builder) string { return b.NonCapture("a|b") }, "[ab]"},
		{"non-capture kept", func(b *Builder) string { return b.NonCapture("ab|cd") }, "(?:ab|cd)"},
		{"capture", func(b *Builder) string { return b.Capture("a|b") }, "([ab])"},
		{"capture as", func(b *Builder) string { return b.CaptureAs("x", "(?:ab)") }, "(?P<x>ab)"},
		{"capture of group", func(b *Builder) string { return b.CaptureAs("x", "(a)") }, "(?P<x>(a))"},
		{"one of", func(b *Builder) string { return b.OneOf("._%+-") }, "[._%+-]"},
		{"one of single", func(b *Builder) string { return b.OneOf(".") }, `\.`},
		{"mode", func(b *Builder) string { return b.Mode("abc", IgnoreCase|Multiline) }, "(?im:abc)"},
		{"mode merges", func(b *Builder) string { return b.Mode("a|b", IgnoreCase) }, "(?i:[ab])"},
		{"verbose drops whitespace", func(b *Builder) string { return b.Mode("a b | c", Verbose) }, "(?x:ab|c)"},
		{"verbose keeps set space", func(b *Builder) string { return b.Mode(b.Either("a", " "), Verbose) }, "(?x:[a ])"},
		{"verbose keeps literal space", func(b *Builder) string { return b.Mode(b.Literally("a b"), Verbose) }, `(?x:a\ b)`},
		{"charset flag", func(b *Builder) string { return b.Mode("a", ASCII|IgnoreCase) }, "(?ai:a)"},
		{"lookahead", func(b *Builder) string { return b.Lookahead("a") }, "(?=a)"},
		{"lookbehind", func(b *Builder) string { return b.Lookbehind("ab") }, "(?<=ab)"},
		{"negative lookahead", func(b *Builder) string { return b.NegativeLookahead("ab") }, "(?!ab)"},
		{"negative lookbehind", func(b *Builder) string { return b.NegativeLookbehind("x|y") }, "(?<![xy])"},
		{"if followed by", func(b *Builder) string { return b.IfFollowedBy("a") }, "(?=a)"},
		{"if not followed by", func(b *Builder) string { return b.IfNotFollowedBy("a") }, "(?!a)"},
		{"if preceded by", func(b *Builder) string { return b.IfPrecededBy("a") }, "(?<=a)"},
		{"if not preceded by", func(b *Builder) string { return b.IfNotPrecededBy("a") }, "(?<!a)"},
		{"conditional", func(b *Builder) string { return b.IfGroupExistsThenElse("x", "ab|cd", "e") }, "(?(x)(?:ab|cd)|e)"},
		{"conditional empty else", func(b *Builder) string { return b.IfGroupExistsThenElse("1", "a|b", "") }, "(?(1)[ab]|)"},
		{"backreference number", func(b *Builder) string { return b.MatchPrevious(2, "") }, `\2`},
		{"backreference name", func(b *Builder) string { return b.MatchPrevious(0, "x") }, "(?P=x)"},
		{"backreference in context", func(b *Builder) string { return b.ForceFull(b.Capture("a") + b.MatchPrevious(1, "")) }, `^(a)\1$`},
		{"conditional in context", func(b *Builder) string {
			return b.ForceFull(b.Optional(b.CaptureAs("q", `"`)) + b.OneOrMore(b.WordChar(), true) + b.IfGroupExistsThenElse("q", `"`, ""))
		}, `^(?P<q>")?\w+(?(q)"|)$`},
		{"force full", func(b *Builder) string { return b.ForceFull(b.Either("ab", "cd")) }, "^(?:ab|cd)$"},
		{"match everything but", func(b *Builder) string { return b.MatchEverythingBut("abc") }, "^(?!abc).*$"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, build(t, tt.fn), tt.want)
		})
	}
}

func TestClassHelpers(t *testing.T) {
	b := New()
	assert.Equal(t, b.Digit(), `\d`)
	assert.Equal(t, b.Letter(), "[a-zA-Z]")
	assert.Equal(t, b.Whitespace(), `\s`)
	assert.Equal(t, b.WordChar(), `\w`)
	assert.Equal(t, b.Anything(), ".")
	assert.Equal(t, b.MustBegin(), "^")
	assert.Equal(t, b.MustEnd(), "$")
}

func TestCaptureDurability(t *testing.T) {
	inputs := []string{"", "a", "a|b", "(?:ab)", "[x]", "(inner)", `\d+`, "(?=a)"}
	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			b := New()
			got := b.CaptureAs("name", in)
			assert.NilError(t, b.Err())
			assert.Assert(t, is.Regexp(`^\(\?P<name>.*\)$`, got))

			again, err := OptimizeFragment(got)
			assert.NilError(t, err)
			assert.Equal(t, again, got)
		})
	}
}

func TestEmailScenario(t *testing.T) {
	b := New()
	pattern := b.ForceFull(
		b.CaptureAs("name", b.OneOrMore(b.Either(b.Digit(), b.Letter(), b.OneOf("._%+-")), true)) +
			b.Literally("@") +
			b.CaptureAs("domain",
				b.OneOrMore(`[\d\w.-]`, true)+
					b.Literally(".")+
					b.AtLeastNTimes(2, b.Letter(), true)),
	)
	assert.NilError(t, b.Err())
	assert.Equal(t, pattern, `^(?P<name>[\da-zA-Z._%+-]+)@(?P<domain>[\d\w.-]+\.[a-zA-Z]{2,})$`)
}

func TestEmailScenarioCharSet(t *testing.T) {
	b := New()
	pattern := b.ForceFull(
		b.CaptureAs("name", b.OneOrMore(`[\d\w._%+-]`, true)) +
			b.Literally("@") +
			b.CaptureAs("domain",
				b.OneOrMore(`[\d\w.-]`, true)+
					b.Literally(".")+
					b.AtLeastNTimes(2, b.Letter(), true)),
	)
	assert.NilError(t, b.Err())
	assert.Equal(t, pattern, `^(?P<name>[\d\w._%+-]+)@(?P<domain>[\d\w.-]+\.[a-zA-Z]{2,})$`)
}

func TestURLScenario(t *testing.T) {
	b := New()
	pattern := b.ForceFull(
		b.CaptureAs("protocol", b.OneOrMore(b.Letter(), true)) +
			b.Literally("://") +
			b.CaptureAs("domain",
				b.OneOrMore(b.Letter(), true)+
					b.OneOrMore(b.AnyOf(b.Letter(), b.Literally(".")), true)+
					b.AtLeastNTimes(2, b.Letter(), true)) +
			b.Optional(b.Literally(":")+b.CaptureAs("port", b.OneOrMore(b.Digit(), true))) +
			b.Optional(b.CaptureAs("path", b.Literally("/")+b.ZeroOrMore(b.Anything(), false))) +
			b.AnyOf(b.Literally("?"), b.MustEnd()) +
			b.Optional(b.CaptureAs("parameters", b.ZeroOrMore(b.Anything(), true))),
	)
	assert.NilError(t, b.Err())
	assert.Equal(t, pattern,
		`^(?P<protocol>[a-zA-Z]+)://(?P<domain>[a-zA-Z]+[a-zA-Z\.]+[a-zA-Z]{2,})`+
			`(?::(?P<port>\d+))?(?P<path>/.*?)?(?:\?|$)(?P<parameters>.*)?$`)
}

func TestPreconditions(t *testing.T) {
	tests := []struct {
		name string
		op   string
		fn   func(b *Builder) string
	}{
		{"mode without flags", "Mode", func(b *Builder) string { return b.Mode("abc", 0) }},
		{"mode unicode and ascii", "Mode", func(b *Builder) string { return b.Mode("abc", Unicode|ASCII) }},
		{"mode ascii and locale", "Mode", func(b *Builder) string { return b.Mode("abc", ASCII|LocaleDependent|IgnoreCase) }},
		{"match previous without reference", "MatchPrevious", func(b *Builder) string { return b.MatchPrevious(0, "") }},
		{"match previous bad name", "MatchPrevious", func(b *Builder) string { return b.MatchPrevious(0, "a-b") }},
		{"capture without name", "CaptureAs", func(b *Builder) string { return b.CaptureAs("", "a") }},
		{"conditional without name", "IfGroupExistsThenElse", func(b *Builder) string { return b.IfGroupExistsThenElse("", "a", "b") }},
		{"negative count", "ExactlyNTimes", func(b *Builder) string { return b.ExactlyNTimes(-1, "a") }},
		{"inverted bounds", "AtLeastNButNotMoreThanMTimes", func(b *Builder) string { return b.AtLeastNButNotMoreThanMTimes(3, 2, "a", true) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := New()
			assert.Equal(t, tt.fn(b), "")
			assert.ErrorIs(t, b.Err(), ErrPrecondition)

			var perr *PreconditionError
			assert.Assert(t, errors.As(b.Err(), &perr))
			assert.Equal(t, perr.Op, tt.op)
		})
	}
}

func TestStickyError(t *testing.T) {
	b := New()

	assert.Equal(t, b.NonCapture("(?>a)"), "")
	first := b.Err()
	assert.ErrorIs(t, first, syntax.ErrUnsupportedSyntax)

	var berr *BuildError
	assert.Assert(t, errors.As(first, &berr))
	assert.Equal(t, berr.Op, "NonCapture")
	assert.Equal(t, berr.Fragment, "(?:(?>a))")

	// Later calls do nothing and keep the first error.
	assert.Equal(t, b.Either("a", "b"), "")
	assert.Equal(t, b.Mode("a", 0), "")
	assert.Equal(t, b.MatchPrevious(1, ""), "")
	assert.Equal(t, b.Err(), first)

	b.Reset()
	assert.NilError(t, b.Err())
	assert.Equal(t, b.Either("a", "b"), "[ab]")
}

func TestInvalidFragment(t *testing.T) {
	b := New()
	assert.Equal(t, b.OneOrMore("(", true), "")
	assert.ErrorIs(t, b.Err(), syntax.ErrInvalidPattern)
	assert.ErrorContains(t, b.Err(), "OneOrMore")
}

func TestWithoutIntermediate(t *testing.T) {
	config := DefaultConfig()
	config.Intermediate = false
	b, err := NewWithConfig(config)
	assert.NilError(t, err)

	raw := b.OneOrMore(b.Either("a", "b"), true)
	assert.Equal(t, raw, "(?:(?:(?:a)|(?:b)))+")
	assert.NilError(t, b.Err())

	out, err := Optimize(raw)
	assert.NilError(t, err)
	assert.Equal(t, out, "[ab]+")
}

func TestNewWithConfig(t *testing.T) {
	config := DefaultConfig()
	config.MaxDepth = 0
	_, err := NewWithConfig(config)

	var cerr *ConfigError
	assert.Assert(t, errors.As(err, &cerr))
	assert.Equal(t, cerr.Field, "MaxDepth")

	config = DefaultConfig()
	config.MaxDepth = 2
	b, err := NewWithConfig(config)
	assert.NilError(t, err)
	assert.Equal(t, b.Capture("(((a)))"), "")
	assert.ErrorIs(t, b.Err(), syntax.ErrTooComplex)
}

func TestFlagString(t *testing.T) {
	tests := []struct {
		flags Flag
		want  string
	}{
		{0, ""},
		{IgnoreCase, "i"},
		{Unicode | DotAll, "us"},
		{Multiline | IgnoreCase, "im"},
		{Unicode | ASCII | IgnoreCase | Verbose | Multiline | LocaleDependent | DotAll, "uaixmLs"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.flags.String(), tt.want)
	}
}

func TestBuildersConcurrent(t *testing.T) {
	const want = `^(?P<name>[\da-zA-Z._%+-]+)@(?P<domain>[\d\w.-]+\.[a-zA-Z]{2,})$`

	var wg sync.WaitGroup
	results := make([]string, 16)
	errs := make([]error, len(results))
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			b := New()
			results[i] = b.ForceFull(
				b.CaptureAs("name", b.OneOrMore(b.Either(b.Digit(), b.Letter(), b.OneOf("._%+-")), true)) +
					"@" +
					b.CaptureAs("domain", b.OneOrMore(`[\d\w.-]`, true)+`\.`+b.AtLeastNTimes(2, b.Letter(), true)),
			)
			errs[i] = b.Err()
		}(i)
	}
	wg.Wait()

	for i := range results {
		assert.NilError(t, errs[i])
		assert.Equal(t, results[i], want)
	}
}
