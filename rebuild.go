// Package rebuild composes regular expressions from small readable pieces and
// keeps the result in a canonical, minimally grouped form.
//
// Every combinator splices its arguments into a raw fragment, then parses,
// optimizes and re-serializes it. The round trip after each call is what
// keeps grouping minimal no matter how deeply calls are nested:
//
//	b := rebuild.New()
//	b.Either("a", "b", "c")                 // [abc]
//	b.Either("[a-z]", "[0-9]")              // [a-z0-9]
//	b.OneOrMore(b.Either("ab", "cd"), true) // (?:ab|cd)+
//
// Patterns use the Python re flavour: named groups are (?P<name>...),
// named backreferences are (?P=name) and bounds may be written {,m}.
//
// Canonicalizing an existing pattern:
//
//	out, err := rebuild.Optimize(`(?:(?:a)|(?:b))+`)
//	fmt.Println(out) // [ab]+
//
// Everything in this package is a pure function of its input except the
// sticky error of a Builder, which is owned by one goroutine.
package rebuild

import "github.com/coregx/rebuild/syntax"

// Optimize canonicalizes a complete pattern.
//
// A top-level alternation is left bare, since nothing surrounds it.
// Use OptimizeFragment for text that will be concatenated with more pattern.
//
// Example:
//
//	out, err := rebuild.Optimize(`(?:a|b)|cd`)
//	// out = "[ab]|cd"
func Optimize(pattern string) (string, error) {
	return OptimizeWithConfig(pattern, DefaultConfig())
}

// OptimizeWithConfig canonicalizes a complete pattern with a custom
// configuration.
func OptimizeWithConfig(pattern string, config Config) (string, error) {
	return canonicalize(pattern, config, false)
}

// OptimizeFragment canonicalizes a pattern that will be placed next to other
// pattern text. A top-level alternation is grouped so it cannot absorb its
// neighbours.
//
// Example:
//
//	out, _ := rebuild.OptimizeFragment(`ab|cd`)
//	// out = "(?:ab|cd)"
func OptimizeFragment(pattern string) (string, error) {
	return canonicalize(pattern, DefaultConfig(), true)
}

// MustOptimize is like Optimize but panics if the pattern cannot be
// canonicalized.
//
// Example:
//
//	var hexByte = rebuild.MustOptimize(`(?:[0-9]|[a-f]){2}`)
func MustOptimize(pattern string) string {
	out, err := Optimize(pattern)
	if err != nil {
		panic("rebuild: Optimize(`" + pattern + "`): " + err.Error())
	}
	return out
}

// canonicalize runs parse, optimize and serialize over pattern.
func canonicalize(pattern string, config Config, fragment bool) (string, error) {
	node, err := syntax.ParseWithConfig(pattern, config.syntax())
	if err != nil {
		return "", err
	}
	return node.Optimize().Serialize(false, fragment), nil
}

// Literally returns a pattern that matches text exactly, escaping every
// character that has a meaning in a pattern.
//
// Example:
//
//	rebuild.Literally("1+1=2?") // 1\+1=2\?
func Literally(text string) string {
	// Characters escaped with a backslash
	const special = `\.+*?()|[]{}^$#&~- `

	n := 0
	for i := 0; i < len(text); i++ {
		if isSpecial(text[i], special) || controlEscape(text[i]) != 0 {
			n++
		}
	}

	if n == 0 {
		return text
	}

	buf := make([]byte, 0, len(text)+n)
	for i := 0; i < len(text); i++ {
		c := text[i]
		switch {
		case isSpecial(c, special):
			buf = append(buf, '\\', c)
		case controlEscape(c) != 0:
			buf = append(buf, '\\', controlEscape(c))
		default:
			buf = append(buf, c)
		}
	}
	return string(buf)
}

// controlEscape returns the escape letter for a whitespace control byte, or
// 0 if c is not one. Raw control characters are not valid pattern text.
func controlEscape(c byte) byte {
	switch c {
	case '\n':
		return 'n'
	case '\t':
		return 't'
	case '\r':
		return 'r'
	case '\v':
		return 'v'
	case '\f':
		return 'f'
	}
	return 0
}

// isSpecial returns true if c is in the special characters string.
func isSpecial(c byte, special string) bool {
	for i := 0; i < len(special); i++ {
		if c == special[i] {
			return true
		}
	}
	return false
}
