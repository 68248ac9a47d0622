package syntax

import (
	"sync"

	"github.com/coregx/ahocorasick"
)

// unsupportedConstructs maps the opening text of constructs that other regex
// flavours accept but this grammar does not to a human-readable name.
var unsupportedConstructs = map[string]string{
	"(?#":  "comment group",
	"(?>":  "atomic group",
	"(?|":  "branch reset group",
	"(?R":  "recursive subpattern",
	"(?&":  "subroutine call",
	"(?P>": "subroutine call",
	"(?<":  "angle-bracket named group",
	"(?'":  "quoted named group",
	"(?-":  "inline flag removal",
	"*+":   "possessive quantifier",
	"++":   "possessive quantifier",
	"?+":   "possessive quantifier",
	"}+":   "possessive quantifier",
	`\p`:   "unicode property escape",
	`\P`:   "unicode property escape",
	`\X`:   "extended grapheme escape",
	`\k`:   "named backreference escape",
	`\g`:   "named backreference escape",
	`\N`:   "named unicode escape",
	`\U`:   "long unicode escape",
	`\0`:   "octal escape",
}

func init() {
	for d := '0'; d <= '9'; d++ {
		unsupportedConstructs["(?"+string(d)] = "recursive subpattern"
	}
}

var (
	constructsOnce      sync.Once
	constructsAutomaton *ahocorasick.Automaton
)

// automaton returns the Aho-Corasick automaton over the unsupported
// construct table, building it on first use. It is nil if building failed,
// in which case diagnosis is skipped.
func automaton() *ahocorasick.Automaton {
	constructsOnce.Do(func() {
		builder := ahocorasick.NewBuilder()
		for text := range unsupportedConstructs {
			builder.AddPattern([]byte(text))
		}
		auto, err := builder.Build()
		if err != nil {
			return
		}
		constructsAutomaton = auto
	})
	return constructsAutomaton
}

// diagnose names the known unsupported construct that covers offset pos of
// src, or returns "" if none does. A construct may start one byte before pos
// since possessive quantifiers fail on their second character.
func diagnose(src string, pos int) string {
	auto := automaton()
	if auto == nil || pos < 0 || pos >= len(src) {
		return ""
	}
	haystack := []byte(src)

	from := pos
	if from > 0 {
		from--
	}
	for ; from <= pos; from++ {
		m := auto.Find(haystack, from)
		if m == nil {
			return ""
		}
		if m.Start <= pos && m.End > pos {
			return unsupportedConstructs[src[m.Start:m.End]]
		}
	}
	return ""
}
