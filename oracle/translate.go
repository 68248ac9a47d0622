package oracle

import "strings"

// Translate rewrites Python-only regex spellings into the regexp2 dialect.
//
// The rewrite is purely lexical. It tracks escapes and character sets so
// text inside [...] or after a backslash is never touched. Malformed input is
// passed through as-is and left for the engine to reject.
func Translate(pattern string) string {
	var b strings.Builder
	b.Grow(len(pattern) + 8)

	inSet := false
	setStart := 0 // position where a ']' is still a literal
	for i := 0; i < len(pattern); i++ {
		c := pattern[i]
		switch {
		case c == '\\':
			if i+1 >= len(pattern) {
				b.WriteByte(c)
				continue
			}
			next := pattern[i+1]
			if next == 'Z' && !inSet {
				b.WriteString(`\z`)
			} else {
				b.WriteByte(c)
				b.WriteByte(next)
			}
			i++

		case inSet:
			b.WriteByte(c)
			if c == ']' && i != setStart {
				inSet = false
			}

		case c == '[':
			b.WriteByte(c)
			inSet = true
			setStart = i + 1
			if setStart < len(pattern) && pattern[setStart] == '^' {
				b.WriteByte('^')
				i++
				setStart = i + 1
			}

		case strings.HasPrefix(pattern[i:], "(?P<"):
			b.WriteString("(?<")
			i += len("(?P<") - 1

		case strings.HasPrefix(pattern[i:], "(?P="):
			end := strings.IndexByte(pattern[i:], ')')
			if end < 0 {
				b.WriteString(pattern[i:])
				return b.String()
			}
			b.WriteString(`\k<`)
			b.WriteString(pattern[i+len("(?P=") : i+end])
			b.WriteByte('>')
			i += end

		case strings.HasPrefix(pattern[i:], "(?"):
			i += translateFlags(&b, pattern[i:]) - 1

		case strings.HasPrefix(pattern[i:], "{,"):
			j := i + 2
			for j < len(pattern) && isDigit(pattern[j]) {
				j++
			}
			if j > i+2 && j < len(pattern) && pattern[j] == '}' {
				b.WriteString("{0,")
				b.WriteString(pattern[i+2 : j+1])
				i = j
			} else {
				b.WriteByte(c)
			}

		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// translateFlags handles an inline flag group at the start of s, which begins
// with "(?". It writes the translated opener and returns how many bytes of s
// it consumed.
func translateFlags(b *strings.Builder, s string) int {
	j := 2
	for j < len(s) && strings.IndexByte("aiLmsux-", s[j]) >= 0 {
		j++
	}
	if j == 2 || j >= len(s) || (s[j] != ':' && s[j] != ')') {
		b.WriteString("(?")
		return 2
	}

	flags := strings.Map(func(r rune) rune {
		switch r {
		case 'a', 'L', 'u':
			return -1
		}
		return r
	}, s[2:j])
	if flags == "-" {
		flags = ""
	}

	if flags == "" && s[j] == ')' {
		// A global group of unsupported flags only.
		return j + 1
	}
	b.WriteString("(?")
	b.WriteString(flags)
	b.WriteByte(s[j])
	return j + 1
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
