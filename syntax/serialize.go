package syntax

import (
	"strconv"
	"strings"
)

// group wraps s in a non-capturing group.
func group(s string) string {
	return "(?:" + s + ")"
}

// render serializes n, treating nil as Empty.
func render(n Node, asAtom, inSequence bool) string {
	if n == nil {
		return ""
	}
	return n.Serialize(asAtom, inSequence)
}

// Serialize returns "".
func (Empty) Serialize(asAtom, inSequence bool) string { return "" }

// Serialize returns the character. Position assertions such as \b are
// grouped when used as an atom, since they cannot be repeated directly.
func (n Char) Serialize(asAtom, inSequence bool) string {
	if asAtom && n.isZeroWidth() {
		return group(n.Value)
	}
	return n.Value
}

// Serialize returns ".".
func (AnyChar) Serialize(asAtom, inSequence bool) string { return "." }

// Serialize concatenates the items.
func (n Sequence) Serialize(asAtom, inSequence bool) string {
	switch len(n.Items) {
	case 0:
		return ""
	case 1:
		return render(n.Items[0], asAtom, inSequence)
	}

	parts := make([]string, len(n.Items))
	for i, item := range n.Items {
		parts[i] = render(item, false, true)
	}

	var b strings.Builder
	for i, part := range parts {
		// \1 followed by 0 would read back as \10
		if _, ok := n.Items[i].(NumberedBackreference); ok && i+1 < len(parts) && startsWithDigit(parts[i+1]) {
			part = group(part)
		}
		b.WriteString(part)
	}

	if asAtom {
		return group(b.String())
	}
	return b.String()
}

func startsWithDigit(s string) bool {
	return s != "" && s[0] >= '0' && s[0] <= '9'
}

// Serialize joins the options with |. The result is grouped when it is an
// atom or sits inside a sequence, where a bare | would split the sequence.
func (n Alternation) Serialize(asAtom, inSequence bool) string {
	switch len(n.Options) {
	case 0:
		return ""
	case 1:
		return render(n.Options[0], asAtom, inSequence)
	}

	parts := make([]string, len(n.Options))
	for i, option := range n.Options {
		parts[i] = render(option, false, false)
	}
	s := strings.Join(parts, "|")

	if asAtom || inSequence {
		return group(s)
	}
	return s
}

// Serialize returns the bracket expression. A set is always atomic.
func (n CharSet) Serialize(asAtom, inSequence bool) string {
	var b strings.Builder
	b.WriteByte('[')
	if n.Inverted {
		b.WriteByte('^')
	}
	last := len(n.Members) - 1
	for i, m := range n.Members {
		c, ok := m.(Char)
		if !ok {
			b.WriteString(render(m, false, false))
			continue
		}
		switch {
		case c.Value == "]" && i > 0:
			b.WriteString(`\]`)
		case c.Value == "^" && i == 0 && !n.Inverted:
			b.WriteString(`\^`)
		case c.Value == "-" && i > 0 && i < last:
			b.WriteString(`\-`)
		default:
			b.WriteString(c.Value)
		}
	}
	b.WriteByte(']')
	return b.String()
}

// Serialize returns from-to.
func (n Range) Serialize(asAtom, inSequence bool) string {
	return n.From + "-" + n.To
}

// quantify renders inner followed by the quantifier op.
func quantify(inner Node, op string, lazy, asAtom bool) string {
	if IsEmpty(inner) {
		return ""
	}
	s := inner.Serialize(true, true) + op
	if lazy {
		s += "?"
	}
	if asAtom {
		return group(s)
	}
	return s
}

// Serialize returns inner+.
func (n OneOrMore) Serialize(asAtom, inSequence bool) string {
	return quantify(n.Inner, "+", n.Lazy, asAtom)
}

// Serialize returns inner*.
func (n ZeroOrMore) Serialize(asAtom, inSequence bool) string {
	return quantify(n.Inner, "*", n.Lazy, asAtom)
}

// Serialize returns inner?.
func (n Optional) Serialize(asAtom, inSequence bool) string {
	return quantify(n.Inner, "?", n.Lazy, asAtom)
}

// Serialize returns inner{n}.
func (n RepeatExactly) Serialize(asAtom, inSequence bool) string {
	return quantify(n.Inner, "{"+strconv.Itoa(n.N)+"}", n.Lazy, asAtom)
}

// Serialize returns inner{n,}.
func (n RepeatAtLeast) Serialize(asAtom, inSequence bool) string {
	return quantify(n.Inner, "{"+strconv.Itoa(n.N)+",}", n.Lazy, asAtom)
}

// Serialize returns inner{,m}.
func (n RepeatAtMost) Serialize(asAtom, inSequence bool) string {
	return quantify(n.Inner, "{,"+strconv.Itoa(n.M)+"}", n.Lazy, asAtom)
}

// Serialize returns inner{n,m}.
func (n RepeatBetween) Serialize(asAtom, inSequence bool) string {
	return quantify(n.Inner, "{"+strconv.Itoa(n.N)+","+strconv.Itoa(n.M)+"}", n.Lazy, asAtom)
}

// Serialize returns (inner).
func (n CapturingGroup) Serialize(asAtom, inSequence bool) string {
	return "(" + render(n.Inner, false, false) + ")"
}

// Serialize returns (?P<name>inner).
func (n NamedCapturingGroup) Serialize(asAtom, inSequence bool) string {
	return "(?P<" + n.Name + ">" + render(n.Inner, false, false) + ")"
}

// Serialize returns (?:inner).
func (n NonCapturingGroup) Serialize(asAtom, inSequence bool) string {
	return group(render(n.Inner, false, false))
}

// Serialize returns (?flags:inner).
func (n ModeGroup) Serialize(asAtom, inSequence bool) string {
	return "(?" + n.Flags + ":" + render(n.Inner, false, false) + ")"
}

// Serialize returns (?(name)then|else). The branches render as sequence
// members because | separates them.
func (n IfElseGroup) Serialize(asAtom, inSequence bool) string {
	return "(?(" + n.Name + ")" + render(n.Then, false, true) + "|" + render(n.Else, false, true) + ")"
}

// Serialize returns the assertion group.
func (n Lookaround) Serialize(asAtom, inSequence bool) string {
	return n.Kind.String() + render(n.Inner, false, false) + ")"
}

// Serialize returns ^.
func (AnchorStart) Serialize(asAtom, inSequence bool) string {
	if asAtom {
		return group("^")
	}
	return "^"
}

// Serialize returns $.
func (AnchorEnd) Serialize(asAtom, inSequence bool) string {
	if asAtom {
		return group("$")
	}
	return "$"
}

// Serialize returns \N.
func (n NumberedBackreference) Serialize(asAtom, inSequence bool) string {
	return `\` + strconv.Itoa(n.Index)
}

// Serialize returns (?P=name).
func (n NamedBackreference) Serialize(asAtom, inSequence bool) string {
	return "(?P=" + n.Name + ")"
}
