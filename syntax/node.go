// Package syntax parses regular expressions into a tree, rewrites the tree
// into a canonical equivalent form, and renders it back to pattern text with
// the fewest groups needed.
//
// The three passes are:
//   - Parse: pattern text to Node, after an oracle check of the text
//   - Optimize: Node to an equivalent, shorter-or-equal Node
//   - Serialize: Node back to pattern text, adding (?:...) only where needed
//
// Trees are immutable values. Optimize returns a new tree and never changes
// its receiver, so every function here is safe for concurrent use.
//
// Basic usage:
//
//	node, err := syntax.Parse(`(?:(?:a)|(?:b)|(?:c))`)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(node.Optimize().Serialize(false, false)) // [abc]
package syntax

// Node is one construct of a parsed pattern.
//
// The set of implementations is closed: it is exactly the types declared in
// this package.
type Node interface {
	// Optimize returns a canonical equivalent of the subtree. It never fails
	// and optimizing its result again returns an identical tree.
	Optimize() Node

	// Serialize renders the subtree as pattern text.
	//
	// asAtom asks for a fragment that behaves as one indivisible unit, for
	// example because a quantifier follows. inSequence tells an alternation
	// that it is surrounded by other items and must delimit itself.
	Serialize(asAtom, inSequence bool) string

	node()
}

// Empty matches the empty string and has no effect. It is the identity of
// concatenation and the absence of a pattern.
type Empty struct{}

// Char is a single literal or escaped character, such as "a", `\.`, `\d`,
// `\x41` or `é`.
type Char struct {
	Value string
}

// AnyChar is the dot, matching any character except newline.
type AnyChar struct{}

// Sequence is a concatenation of items.
type Sequence struct {
	Items []Node
}

// Alternation matches any one of its options, tried left to right.
type Alternation struct {
	Options []Node
}

// CharSet is a bracket expression. Members are Char and Range nodes.
type CharSet struct {
	Members  []Node
	Inverted bool
}

// Range is a character range such as a-z. It only appears inside a CharSet.
type Range struct {
	From string
	To   string
}

// OneOrMore is inner+ (or inner+? when Lazy).
type OneOrMore struct {
	Inner Node
	Lazy  bool
}

// ZeroOrMore is inner* (or inner*? when Lazy).
type ZeroOrMore struct {
	Inner Node
	Lazy  bool
}

// Optional is inner? (or inner?? when Lazy).
type Optional struct {
	Inner Node
	Lazy  bool
}

// RepeatExactly is inner{N}.
type RepeatExactly struct {
	Inner Node
	N     int
	Lazy  bool
}

// RepeatAtLeast is inner{N,}.
type RepeatAtLeast struct {
	Inner Node
	N     int
	Lazy  bool
}

// RepeatAtMost is inner{,M}.
type RepeatAtMost struct {
	Inner Node
	M     int
	Lazy  bool
}

// RepeatBetween is inner{N,M}.
type RepeatBetween struct {
	Inner Node
	N     int
	M     int
	Lazy  bool
}

// CapturingGroup is (inner). Optimization never removes it.
type CapturingGroup struct {
	Inner Node
}

// NamedCapturingGroup is (?P<name>inner). Optimization never removes it.
type NamedCapturingGroup struct {
	Name  string
	Inner Node
}

// NonCapturingGroup is (?:inner). It only groups, so optimization always
// removes it and serialization puts it back where precedence needs it.
type NonCapturingGroup struct {
	Inner Node
}

// ModeGroup is (?flags:inner) with flags drawn from "aiLmsux".
type ModeGroup struct {
	Flags string
	Inner Node
}

// IfElseGroup is (?(name)then|else): then applies if the named or numbered
// group took part in the match so far, else otherwise.
type IfElseGroup struct {
	Name string
	Then Node
	Else Node
}

// LookKind selects the direction and polarity of a Lookaround.
type LookKind uint8

// Lookaround kinds.
const (
	Lookahead LookKind = iota
	NegativeLookahead
	Lookbehind
	NegativeLookbehind
)

// String returns the group opener for the kind, such as "(?=".
func (k LookKind) String() string {
	switch k {
	case Lookahead:
		return "(?="
	case NegativeLookahead:
		return "(?!"
	case Lookbehind:
		return "(?<="
	case NegativeLookbehind:
		return "(?<!"
	default:
		return "(?="
	}
}

// Lookaround is a zero-width assertion on the text ahead of or behind the
// current position.
type Lookaround struct {
	Kind  LookKind
	Inner Node
}

// AnchorStart is ^.
type AnchorStart struct{}

// AnchorEnd is $.
type AnchorEnd struct{}

// NumberedBackreference is \N.
type NumberedBackreference struct {
	Index int
}

// NamedBackreference is (?P=name).
type NamedBackreference struct {
	Name string
}

func (Empty) node()                 {}
func (Char) node()                  {}
func (AnyChar) node()               {}
func (Sequence) node()              {}
func (Alternation) node()           {}
func (CharSet) node()               {}
func (Range) node()                 {}
func (OneOrMore) node()             {}
func (ZeroOrMore) node()            {}
func (Optional) node()              {}
func (RepeatExactly) node()         {}
func (RepeatAtLeast) node()         {}
func (RepeatAtMost) node()          {}
func (RepeatBetween) node()         {}
func (CapturingGroup) node()        {}
func (NamedCapturingGroup) node()   {}
func (NonCapturingGroup) node()     {}
func (ModeGroup) node()             {}
func (IfElseGroup) node()           {}
func (Lookaround) node()            {}
func (AnchorStart) node()           {}
func (AnchorEnd) node()             {}
func (NumberedBackreference) node() {}
func (NamedBackreference) node()    {}

// IsEmpty reports whether n is absent: nil or Empty.
func IsEmpty(n Node) bool {
	if n == nil {
		return true
	}
	_, ok := n.(Empty)
	return ok
}

// String renders n as a complete pattern.
func String(n Node) string {
	if n == nil {
		return ""
	}
	return n.Serialize(false, false)
}

// zeroWidthEscapes are escapes that assert a position instead of consuming
// a character. Inside a set \b means backspace, so they never merge into one.
var zeroWidthEscapes = map[string]bool{
	`\b`: true,
	`\B`: true,
	`\A`: true,
	`\Z`: true,
	`\z`: true,
}

// isZeroWidth reports whether c asserts a position.
func (c Char) isZeroWidth() bool {
	return zeroWidthEscapes[c.Value]
}
