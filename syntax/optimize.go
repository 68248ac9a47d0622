package syntax

import "strings"

// optimize optimizes n, treating nil as Empty.
func optimize(n Node) Node {
	if n == nil {
		return Empty{}
	}
	return n.Optimize()
}

// Optimize returns n.
func (n Empty) Optimize() Node { return n }

// Optimize returns n.
func (n Char) Optimize() Node { return n }

// Optimize returns n.
func (n AnyChar) Optimize() Node { return n }

// Optimize drops empty items and splices nested sequences. No items left
// yields Empty and a single item is returned bare.
func (n Sequence) Optimize() Node {
	items := make([]Node, 0, len(n.Items))
	for _, item := range n.Items {
		switch v := optimize(item).(type) {
		case Empty:
		case Sequence:
			items = append(items, v.Items...)
		default:
			items = append(items, v)
		}
	}

	switch len(items) {
	case 0:
		return Empty{}
	case 1:
		return items[0]
	}
	return Sequence{Items: items}
}

// Optimize flattens nested alternations, merges runs of adjacent
// single-character options into one character set and drops duplicate
// options. A single remaining option is returned bare.
func (n Alternation) Optimize() Node {
	flat := make([]Node, 0, len(n.Options))
	for _, option := range n.Options {
		o := optimize(option)
		if alt, ok := o.(Alternation); ok {
			flat = append(flat, alt.Options...)
			continue
		}
		flat = append(flat, o)
	}

	// A refused merge of two inverted sets can become possible once the
	// second set has absorbed its right neighbours, so repeat until stable.
	options := dedupe(flat)
	for {
		merged := dedupe(mergeRuns(options))
		if len(merged) == len(options) {
			break
		}
		options = merged
	}

	switch len(options) {
	case 0:
		return Empty{}
	case 1:
		return options[0]
	}
	return Alternation{Options: options}
}

// mergeRuns replaces each run of consecutive class-compatible options with
// the single option the run stands for.
func mergeRuns(options []Node) []Node {
	out := make([]Node, 0, len(options))
	var run *setRun
	flush := func() {
		if run != nil {
			out = append(out, run.result())
			run = nil
		}
	}
	for _, o := range options {
		set, ok := classOf(o)
		if !ok {
			flush()
			out = append(out, o)
			continue
		}
		if run != nil && run.merge(set) {
			continue
		}
		flush()
		run = newSetRun(o, set)
	}
	flush()
	return out
}

// classOf returns the character-set view of an option that can take part in
// set merging: a plain character or a character set.
func classOf(n Node) (CharSet, bool) {
	switch v := n.(type) {
	case Char:
		if v.isZeroWidth() {
			return CharSet{}, false
		}
		return CharSet{Members: []Node{v}}, true
	case CharSet:
		return v, true
	}
	return CharSet{}, false
}

// setRun accumulates consecutive class-compatible options while one
// alternation is being optimized. It never outlives that call.
type setRun struct {
	first   Node
	count   int
	members []Node
	inverse bool
}

func newSetRun(first Node, set CharSet) *setRun {
	return &setRun{
		first:   first,
		count:   1,
		members: append([]Node(nil), set.Members...),
		inverse: set.Inverted,
	}
}

// merge folds set into the run. Two plain sets unite their members. Two
// inverted sets keep the members found in exactly one of them. A plain set
// never merges with an inverted one.
func (r *setRun) merge(set CharSet) bool {
	if r.inverse != set.Inverted {
		return false
	}
	if !r.inverse {
		r.members = append(r.members, set.Members...)
		r.count++
		return true
	}

	members := symmetricDifference(r.members, set.Members)
	if len(members) == 0 {
		// [^] is not a valid set
		return false
	}
	r.members = members
	r.count++
	return true
}

// result returns the option the run stands for. A run of one is returned
// untouched.
func (r *setRun) result() Node {
	if r.count == 1 {
		return r.first
	}
	return CharSet{Members: r.members, Inverted: r.inverse}.Optimize()
}

// symmetricDifference returns the members of a not in b followed by the
// members of b not in a, in their original order.
func symmetricDifference(a, b []Node) []Node {
	inA := make(map[string]bool, len(a))
	for _, m := range a {
		inA[key(m)] = true
	}
	inB := make(map[string]bool, len(b))
	for _, m := range b {
		inB[key(m)] = true
	}

	var out []Node
	for _, m := range dedupe(a) {
		if !inB[key(m)] {
			out = append(out, m)
		}
	}
	for _, m := range dedupe(b) {
		if !inA[key(m)] {
			out = append(out, m)
		}
	}
	return out
}

// Optimize drops duplicate members. A plain set holding one character
// becomes that character.
func (n CharSet) Optimize() Node {
	members := make([]Node, 0, len(n.Members))
	for _, m := range n.Members {
		members = append(members, optimize(m))
	}
	members = dedupe(members)

	if !n.Inverted && len(members) == 1 {
		if c, ok := members[0].(Char); ok {
			return Char{Value: outsideSet(c.Value)}
		}
	}
	return CharSet{Members: members, Inverted: n.Inverted}
}

// setSpecial are the characters that are literal inside a set but special
// outside one.
const setSpecial = `.^$|?*+()[{}`

// verboseSpecial are the characters a verbose-mode group skips unless they
// are escaped.
const verboseSpecial = " #"

// outsideSet rewrites a set member so it means the same character outside
// a set.
func outsideSet(v string) string {
	switch {
	case v == `\b`:
		return `\x08`
	case v == "\n":
		return `\n`
	case v == "\t":
		return `\t`
	case v == "\r":
		return `\r`
	case v == "\f":
		return `\f`
	case v == "\v":
		return `\v`
	case len(v) == 1 && strings.Contains(setSpecial+verboseSpecial, v):
		return `\` + v
	}
	return v
}

// Optimize turns a range with equal bounds into a single character.
func (n Range) Optimize() Node {
	if n.From == n.To {
		return Char{Value: n.From}
	}
	return n
}

// Optimize returns Empty for an empty inner pattern.
func (n OneOrMore) Optimize() Node {
	inner := optimize(n.Inner)
	if IsEmpty(inner) {
		return Empty{}
	}
	return OneOrMore{Inner: inner, Lazy: n.Lazy}
}

// Optimize returns Empty for an empty inner pattern.
func (n ZeroOrMore) Optimize() Node {
	inner := optimize(n.Inner)
	if IsEmpty(inner) {
		return Empty{}
	}
	return ZeroOrMore{Inner: inner, Lazy: n.Lazy}
}

// Optimize returns Empty for an empty inner pattern.
func (n Optional) Optimize() Node {
	inner := optimize(n.Inner)
	if IsEmpty(inner) {
		return Empty{}
	}
	return Optional{Inner: inner, Lazy: n.Lazy}
}

// Optimize removes {0} and {1}.
func (n RepeatExactly) Optimize() Node {
	inner := optimize(n.Inner)
	if IsEmpty(inner) || n.N == 0 {
		return Empty{}
	}
	if n.N == 1 {
		return inner
	}
	return RepeatExactly{Inner: inner, N: n.N, Lazy: n.Lazy}
}

// Optimize rewrites {0,} as * and {1,} as +.
func (n RepeatAtLeast) Optimize() Node {
	inner := optimize(n.Inner)
	switch {
	case IsEmpty(inner):
		return Empty{}
	case n.N == 0:
		return ZeroOrMore{Inner: inner, Lazy: n.Lazy}
	case n.N == 1:
		return OneOrMore{Inner: inner, Lazy: n.Lazy}
	}
	return RepeatAtLeast{Inner: inner, N: n.N, Lazy: n.Lazy}
}

// Optimize removes {,0} and reduces {,1} to the bare inner pattern.
func (n RepeatAtMost) Optimize() Node {
	inner := optimize(n.Inner)
	switch {
	case IsEmpty(inner), n.M == 0:
		return Empty{}
	case n.M == 1:
		return inner
	}
	return RepeatAtMost{Inner: inner, M: n.M, Lazy: n.Lazy}
}

// Optimize rewrites {n,n} as {n}, removes {0,0} and turns {0,1} into a lazy
// optional.
func (n RepeatBetween) Optimize() Node {
	inner := optimize(n.Inner)
	switch {
	case IsEmpty(inner):
		return Empty{}
	case n.N == n.M:
		return RepeatExactly{Inner: inner, N: n.N, Lazy: n.Lazy}.Optimize()
	case n.M == 0:
		return Empty{}
	case n.M == 1:
		return Optional{Inner: inner, Lazy: n.N == 0}
	}
	return RepeatBetween{Inner: inner, N: n.N, M: n.M, Lazy: n.Lazy}
}

// Optimize optimizes the inner pattern and keeps the group.
func (n CapturingGroup) Optimize() Node {
	return CapturingGroup{Inner: optimize(n.Inner)}
}

// Optimize optimizes the inner pattern and keeps the group.
func (n NamedCapturingGroup) Optimize() Node {
	return NamedCapturingGroup{Name: n.Name, Inner: optimize(n.Inner)}
}

// Optimize returns the optimized inner pattern; the group is dropped.
func (n NonCapturingGroup) Optimize() Node {
	return optimize(n.Inner)
}

// Optimize drops the group when it has no flags or nothing inside.
func (n ModeGroup) Optimize() Node {
	inner := optimize(n.Inner)
	if IsEmpty(inner) {
		return Empty{}
	}
	if n.Flags == "" {
		return inner
	}
	return ModeGroup{Flags: n.Flags, Inner: inner}
}

// Optimize returns Empty when both branches are empty.
func (n IfElseGroup) Optimize() Node {
	then, els := optimize(n.Then), optimize(n.Else)
	if IsEmpty(then) && IsEmpty(els) {
		return Empty{}
	}
	return IfElseGroup{Name: n.Name, Then: then, Else: els}
}

// Optimize returns Empty for an assertion on the empty pattern.
func (n Lookaround) Optimize() Node {
	inner := optimize(n.Inner)
	if IsEmpty(inner) {
		return Empty{}
	}
	return Lookaround{Kind: n.Kind, Inner: inner}
}

// Optimize returns n.
func (n AnchorStart) Optimize() Node { return n }

// Optimize returns n.
func (n AnchorEnd) Optimize() Node { return n }

// Optimize returns n.
func (n NumberedBackreference) Optimize() Node { return n }

// Optimize returns n.
func (n NamedBackreference) Optimize() Node { return n }

// key identifies a node by its rendering.
func key(n Node) string {
	return n.Serialize(false, false)
}

// dedupe drops repeated nodes, keeping the first of each. Nodes holding a
// capturing group are always kept so group numbers do not shift.
func dedupe(nodes []Node) []Node {
	seen := make(map[string]bool, len(nodes))
	out := make([]Node, 0, len(nodes))
	for _, n := range nodes {
		if captures(n) {
			out = append(out, n)
			continue
		}
		k := key(n)
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, n)
	}
	return out
}

// captures reports whether n contains a capturing group.
func captures(n Node) bool {
	switch v := n.(type) {
	case CapturingGroup, NamedCapturingGroup:
		return true
	case Sequence:
		for _, item := range v.Items {
			if captures(item) {
				return true
			}
		}
	case Alternation:
		for _, option := range v.Options {
			if captures(option) {
				return true
			}
		}
	case OneOrMore:
		return captures(v.Inner)
	case ZeroOrMore:
		return captures(v.Inner)
	case Optional:
		return captures(v.Inner)
	case RepeatExactly:
		return captures(v.Inner)
	case RepeatAtLeast:
		return captures(v.Inner)
	case RepeatAtMost:
		return captures(v.Inner)
	case RepeatBetween:
		return captures(v.Inner)
	case NonCapturingGroup:
		return captures(v.Inner)
	case ModeGroup:
		return captures(v.Inner)
	case Lookaround:
		return captures(v.Inner)
	case IfElseGroup:
		return captures(v.Then) || captures(v.Else)
	}
	return false
}
