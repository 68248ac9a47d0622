package syntax

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/coregx/rebuild/internal/conv"
)

// Parse parses pattern text with DefaultConfig.
//
// The empty string parses to Empty. Any other text is first checked by the
// validity oracle; text it rejects fails with ErrInvalidPattern. Valid text
// outside the supported grammar fails with ErrUnsupportedSyntax.
//
// Example:
//
//	node, err := syntax.Parse(`(?P<year>\d{4})-\d{2}`)
//	if errors.Is(err, syntax.ErrUnsupportedSyntax) {
//	    // e.g. a possessive quantifier or \p{...}
//	}
func Parse(source string) (Node, error) {
	return ParseWithConfig(source, DefaultConfig())
}

// ParseWithConfig parses pattern text with a custom configuration.
func ParseWithConfig(source string, config Config) (Node, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if source == "" {
		return Empty{}, nil
	}

	if config.Validator != nil {
		if err := validate(source, config); err != nil {
			return nil, err
		}
	}

	p := &parser{src: source, maxDepth: config.MaxDepth}
	n, err := p.parseAlternation()
	if err != nil {
		return nil, err
	}
	if !p.eof() {
		return nil, p.unsupported(p.pos, "unexpected %q", p.src[p.pos:p.pos+1])
	}
	return n, nil
}

// validate runs the validity oracle over source. The oracle rejects
// possessive quantifiers outright, so when it fails each possessive marker is
// dropped in turn and the rest rechecked: text that is valid apart from them
// is unsupported rather than invalid.
func validate(source string, config Config) error {
	oracleErr := config.Validator.Validate(source)
	if oracleErr == nil {
		return nil
	}

	var first *Error
	relaxed := source
	for len(relaxed) > 0 {
		perr, ok := possessive(relaxed, config.MaxDepth)
		if !ok {
			break
		}
		if first == nil {
			first = &Error{
				Kind:     ErrUnsupportedSyntax,
				Pattern:  source,
				Pos:      perr.Pos,
				Fragment: perr.Fragment,
				Err:      fmt.Errorf("%w: %w", perr.Err, oracleErr),
			}
		}
		relaxed = relaxed[:perr.Pos] + relaxed[perr.Pos+1:]
		if config.Validator.Validate(relaxed) == nil {
			return first
		}
	}
	return &Error{Kind: ErrInvalidPattern, Pattern: source, Pos: -1, Err: oracleErr}
}

// possessive parses source by grammar alone and returns the failure if the
// first thing wrong with it is a possessive quantifier.
func possessive(source string, maxDepth int) (*Error, bool) {
	p := &parser{src: source, maxDepth: maxDepth}
	_, err := p.parseAlternation()
	if err == nil || !p.possessive {
		return nil, false
	}
	var perr *Error
	if !errors.As(err, &perr) {
		return nil, false
	}
	return perr, true
}

// parser is a recursive-descent parser over one pattern. Positions are byte
// offsets into src.
type parser struct {
	src      string
	pos      int
	depth    int
	maxDepth int

	// verbose counts the enclosing groups with the x flag.
	verbose int

	// possessive is set when parsing stopped at a possessive quantifier.
	possessive bool
}

func (p *parser) eof() bool {
	return p.pos >= len(p.src)
}

func (p *parser) peek() byte {
	if p.eof() {
		return 0
	}
	return p.src[p.pos]
}

func (p *parser) lookingAt(s string) bool {
	return strings.HasPrefix(p.src[p.pos:], s)
}

// skipVerbose skips whitespace and # comments while inside a group with the
// x flag. Whitespace inside a set or after a backslash is never skipped.
func (p *parser) skipVerbose() {
	for p.verbose > 0 && !p.eof() {
		switch p.peek() {
		case ' ', '\t', '\n', '\r', '\f', '\v':
			p.pos++
		case '#':
			for !p.eof() && p.peek() != '\n' {
				p.pos++
			}
		default:
			return
		}
	}
}

// unsupported returns an ErrUnsupportedSyntax error located at pos.
func (p *parser) unsupported(pos int, format string, args ...any) error {
	return &Error{
		Kind:     ErrUnsupportedSyntax,
		Pattern:  p.src,
		Pos:      pos,
		Fragment: diagnose(p.src, pos),
		Err:      fmt.Errorf(format, args...),
	}
}

// enter records one more level of nesting.
func (p *parser) enter() error {
	p.depth++
	if p.depth > p.maxDepth {
		return &Error{
			Kind:    ErrTooComplex,
			Pattern: p.src,
			Pos:     p.pos,
			Err:     fmt.Errorf("nesting exceeds %d levels", p.maxDepth),
		}
	}
	return nil
}

func (p *parser) leave() {
	p.depth--
}

// parseAlternation parses sequences separated by |. An empty sequence, such
// as the one before a leading |, is Empty.
func (p *parser) parseAlternation() (Node, error) {
	first, err := p.parseSequence()
	if err != nil {
		return nil, err
	}
	if p.peek() != '|' {
		return first, nil
	}

	options := []Node{first}
	for p.peek() == '|' {
		p.pos++
		next, err := p.parseSequence()
		if err != nil {
			return nil, err
		}
		options = append(options, next)
	}
	return Alternation{Options: options}, nil
}

// parseSequence parses items up to the next |, ) or the end of input.
func (p *parser) parseSequence() (Node, error) {
	var items []Node
	for {
		p.skipVerbose()
		if p.eof() || p.peek() == '|' || p.peek() == ')' {
			break
		}
		item, err := p.parseQuantified()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	switch len(items) {
	case 0:
		return Empty{}, nil
	case 1:
		return items[0], nil
	}
	return Sequence{Items: items}, nil
}

// parseQuantified parses an atom and the quantifier that may follow it.
func (p *parser) parseQuantified() (Node, error) {
	atom, err := p.parseAtom()
	if err != nil {
		return nil, err
	}

	p.skipVerbose()
	q, ok, err := p.scanQuantifier()
	if err != nil || !ok {
		return atom, err
	}
	p.pos += q.width

	lazy := false
	if p.peek() == '?' {
		lazy = true
		p.pos++
	}

	if p.peek() == '+' && !lazy {
		p.possessive = true
		return nil, p.unsupported(p.pos, "possessive quantifier")
	}
	p.skipVerbose()
	if _, again, _ := p.scanQuantifier(); again {
		return nil, p.unsupported(p.pos, "multiple repeat")
	}

	return q.apply(atom, lazy), nil
}

// quantifier is a scanned repetition operator.
type quantifier struct {
	op    byte // '+', '*', '?' or '{'
	form  braceForm
	n, m  int
	width int
}

type braceForm uint8

const (
	braceExactly braceForm = iota // {n}
	braceAtLeast                  // {n,}
	braceAtMost                   // {,m}
	braceBetween                  // {n,m}
)

func (q quantifier) apply(atom Node, lazy bool) Node {
	switch q.op {
	case '+':
		return OneOrMore{Inner: atom, Lazy: lazy}
	case '*':
		return ZeroOrMore{Inner: atom, Lazy: lazy}
	case '?':
		return Optional{Inner: atom, Lazy: lazy}
	}
	switch q.form {
	case braceExactly:
		return RepeatExactly{Inner: atom, N: q.n, Lazy: lazy}
	case braceAtLeast:
		return RepeatAtLeast{Inner: atom, N: q.n, Lazy: lazy}
	case braceAtMost:
		return RepeatAtMost{Inner: atom, M: q.m, Lazy: lazy}
	default:
		return RepeatBetween{Inner: atom, N: q.n, M: q.m, Lazy: lazy}
	}
}

// scanQuantifier reports whether a quantifier starts at the current position
// without consuming it. A { that does not open a well-formed bound is not a
// quantifier; it is a literal brace.
func (p *parser) scanQuantifier() (quantifier, bool, error) {
	switch c := p.peek(); c {
	case '+', '*', '?':
		return quantifier{op: c, width: 1}, true, nil
	case '{':
		return p.scanBraces()
	}
	return quantifier{}, false, nil
}

func (p *parser) scanBraces() (quantifier, bool, error) {
	s := p.src[p.pos:]
	end := strings.IndexByte(s, '}')
	if end < 0 {
		return quantifier{}, false, nil
	}
	body := s[1:end]
	lo, hi, hasComma := strings.Cut(body, ",")
	if !isDigits(lo, true) || !isDigits(hi, true) || (lo == "" && !hasComma) {
		return quantifier{}, false, nil
	}

	q := quantifier{op: '{', width: end + 1}
	var err error
	switch {
	case !hasComma:
		q.form = braceExactly
		q.n, err = conv.DigitsToInt(lo)
	case lo == "" && hi == "":
		return quantifier{}, false, p.unsupported(p.pos, "unbounded repeat {,}")
	case lo == "":
		q.form = braceAtMost
		q.m, err = conv.DigitsToInt(hi)
	case hi == "":
		q.form = braceAtLeast
		q.n, err = conv.DigitsToInt(lo)
	default:
		q.form = braceBetween
		if q.n, err = conv.DigitsToInt(lo); err == nil {
			q.m, err = conv.DigitsToInt(hi)
		}
	}
	if err != nil {
		return quantifier{}, false, p.unsupported(p.pos, "repeat bound %q: %v", body, err)
	}
	return q, true, nil
}

// isDigits reports whether s is all ASCII digits. The empty string counts
// only if allowEmpty is set.
func isDigits(s string, allowEmpty bool) bool {
	if s == "" {
		return allowEmpty
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// parseAtom parses one indivisible unit.
func (p *parser) parseAtom() (Node, error) {
	start := p.pos
	switch c := p.peek(); c {
	case '[':
		return p.parseSet()
	case '(':
		return p.parseGroup()
	case '\\':
		return p.parseEscape()
	case '^':
		p.pos++
		return AnchorStart{}, nil
	case '$':
		p.pos++
		return AnchorEnd{}, nil
	case '.':
		p.pos++
		return AnyChar{}, nil
	case '+', '*', '?':
		return nil, p.unsupported(start, "nothing to repeat")
	case '{':
		if _, ok, err := p.scanBraces(); err != nil || ok {
			if err != nil {
				return nil, err
			}
			return nil, p.unsupported(start, "nothing to repeat")
		}
		p.pos++
		return Char{Value: `\{`}, nil
	case '\n':
		return nil, p.unsupported(start, "literal newline")
	}

	r, size := utf8.DecodeRuneInString(p.src[p.pos:])
	if r == utf8.RuneError && size <= 1 {
		return nil, p.unsupported(start, "invalid UTF-8")
	}
	p.pos += size
	return Char{Value: string(r)}, nil
}

// parseEscape parses a backslash sequence outside a set.
func (p *parser) parseEscape() (Node, error) {
	start := p.pos
	p.pos++ // backslash
	if p.eof() {
		return nil, p.unsupported(start, "trailing backslash")
	}

	c := p.peek()
	switch {
	case c >= '1' && c <= '9':
		end := p.pos
		for end < len(p.src) && p.src[end] >= '0' && p.src[end] <= '9' {
			end++
		}
		digits := p.src[p.pos:end]
		if len(digits) > 2 {
			return nil, p.unsupported(start, "octal escape %q", `\`+digits)
		}
		index, err := conv.DigitsToInt(digits)
		if err != nil {
			return nil, p.unsupported(start, "backreference %q: %v", digits, err)
		}
		p.pos = end
		return NumberedBackreference{Index: index}, nil

	case c == '0':
		return nil, p.unsupported(start, "octal escape")
	}

	value, err := p.scanEscapedChar(start)
	if err != nil {
		return nil, err
	}
	return Char{Value: value}, nil
}

// scanEscapedChar scans the part of a character escape after the backslash
// at start: \xHH, \uHHHH or a backslash followed by one character.
func (p *parser) scanEscapedChar(start int) (string, error) {
	c := p.peek()
	switch c {
	case 'x':
		return p.scanHexEscape(start, 2)
	case 'u':
		return p.scanHexEscape(start, 4)
	case 'p', 'P', 'X', 'k', 'g', 'N', 'U':
		return "", p.unsupported(start, "escape \\%c", c)
	}
	if isASCIILetter(c) && strings.IndexByte(letterEscapes, c) < 0 {
		return "", p.unsupported(start, "unknown escape \\%c", c)
	}
	r, size := utf8.DecodeRuneInString(p.src[p.pos:])
	if r == utf8.RuneError && size <= 1 {
		return "", p.unsupported(start, "invalid UTF-8")
	}
	p.pos += size
	return `\` + string(r), nil
}

// letterEscapes are the ASCII letters that may follow a backslash, besides
// x and u. Any other letter is an escape of another flavour, such as \cX or \e.
const letterEscapes = "dDwWsSbBAZzafnrtv"

func isASCIILetter(c byte) bool {
	return 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z'
}

func (p *parser) scanHexEscape(start, digits int) (string, error) {
	end := p.pos + 1 + digits
	if end > len(p.src) || !isHex(p.src[p.pos+1:end]) {
		return "", p.unsupported(start, "malformed \\%c escape", p.peek())
	}
	p.pos = end
	return p.src[start:end], nil
}

func isHex(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !('0' <= c && c <= '9' || 'a' <= c && c <= 'f' || 'A' <= c && c <= 'F') {
			return false
		}
	}
	return true
}

// setChar is one scanned character inside a set, with the class that
// decides which ranges it may bound.
type setChar struct {
	value string
	class rangeClass
}

type rangeClass uint8

const (
	classOther rangeClass = iota
	classLower
	classUpper
	classDigit
	classHex
	classUnicode
)

// parseSet parses a bracket expression. A ] directly after [ or [^ is a
// literal member.
func (p *parser) parseSet() (Node, error) {
	start := p.pos
	p.pos++ // [
	set := CharSet{}
	if p.peek() == '^' {
		set.Inverted = true
		p.pos++
	}

	first := true
	for {
		if p.eof() {
			return nil, p.unsupported(start, "unterminated character set")
		}
		if p.peek() == ']' && !first {
			p.pos++
			break
		}
		first = false

		memberStart := p.pos
		from, err := p.scanSetChar()
		if err != nil {
			return nil, err
		}
		if p.peek() != '-' || p.pos+1 >= len(p.src) || p.src[p.pos+1] == ']' {
			set.Members = append(set.Members, Char{Value: from.value})
			continue
		}

		p.pos++ // -
		to, err := p.scanSetChar()
		if err != nil {
			return nil, err
		}
		if from.class == classOther || from.class != to.class {
			return nil, p.unsupported(memberStart, "character range %s-%s", from.value, to.value)
		}
		set.Members = append(set.Members, Range{From: from.value, To: to.value})
	}
	return set, nil
}

// scanSetChar scans one character inside a set.
func (p *parser) scanSetChar() (setChar, error) {
	start := p.pos
	if p.peek() == '\\' {
		p.pos++
		if p.eof() {
			return setChar{}, p.unsupported(start, "trailing backslash")
		}
		if c := p.peek(); c >= '0' && c <= '9' {
			return setChar{}, p.unsupported(start, "octal escape in character set")
		}
		value, err := p.scanEscapedChar(start)
		if err != nil {
			return setChar{}, err
		}
		class := classOther
		switch {
		case strings.HasPrefix(value, `\x`):
			class = classHex
		case strings.HasPrefix(value, `\u`):
			class = classUnicode
		}
		return setChar{value: value, class: class}, nil
	}

	r, size := utf8.DecodeRuneInString(p.src[p.pos:])
	if r == utf8.RuneError && size <= 1 {
		return setChar{}, p.unsupported(start, "invalid UTF-8")
	}
	p.pos += size

	class := classOther
	switch {
	case 'a' <= r && r <= 'z':
		class = classLower
	case 'A' <= r && r <= 'Z':
		class = classUpper
	case '0' <= r && r <= '9':
		class = classDigit
	}
	return setChar{value: string(r), class: class}, nil
}

// parseGroup parses everything that starts with (.
func (p *parser) parseGroup() (Node, error) {
	start := p.pos
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()

	switch {
	case p.lookingAt("(?:"):
		p.pos += len("(?:")
		inner, err := p.parseGroupBody(start)
		return NonCapturingGroup{Inner: inner}, err

	case p.lookingAt("(?P<"):
		p.pos += len("(?P<")
		name, err := p.scanName(start, '>')
		if err != nil {
			return nil, err
		}
		inner, err := p.parseGroupBody(start)
		return NamedCapturingGroup{Name: name, Inner: inner}, err

	case p.lookingAt("(?P="):
		p.pos += len("(?P=")
		name, err := p.scanName(start, ')')
		if err != nil {
			return nil, err
		}
		return NamedBackreference{Name: name}, nil

	case p.lookingAt("(?="):
		return p.parseLookaround(start, "(?=", Lookahead)
	case p.lookingAt("(?!"):
		return p.parseLookaround(start, "(?!", NegativeLookahead)
	case p.lookingAt("(?<="):
		return p.parseLookaround(start, "(?<=", Lookbehind)
	case p.lookingAt("(?<!"):
		return p.parseLookaround(start, "(?<!", NegativeLookbehind)

	case p.lookingAt("(?("):
		return p.parseConditional(start)

	case p.lookingAt("(?"):
		return p.parseModeGroup(start)
	}

	p.pos++ // (
	inner, err := p.parseGroupBody(start)
	return CapturingGroup{Inner: inner}, err
}

// parseGroupBody parses a full pattern followed by the closing ) of the
// group opened at start.
func (p *parser) parseGroupBody(start int) (Node, error) {
	inner, err := p.parseAlternation()
	if err != nil {
		return nil, err
	}
	if p.peek() != ')' {
		return nil, p.unsupported(start, "missing )")
	}
	p.pos++
	return inner, nil
}

func (p *parser) parseLookaround(start int, opener string, kind LookKind) (Node, error) {
	p.pos += len(opener)
	inner, err := p.parseGroupBody(start)
	if err != nil {
		return nil, err
	}
	return Lookaround{Kind: kind, Inner: inner}, nil
}

// parseConditional parses (?(name)then|else). Each branch is a sequence and
// may be empty; the else branch and its | may be omitted.
func (p *parser) parseConditional(start int) (Node, error) {
	p.pos += len("(?(")
	name, err := p.scanName(start, ')')
	if err != nil {
		return nil, err
	}

	then, err := p.parseSequence()
	if err != nil {
		return nil, err
	}
	var els Node = Empty{}
	if p.peek() == '|' {
		p.pos++
		if els, err = p.parseSequence(); err != nil {
			return nil, err
		}
	}
	if p.peek() == '|' {
		return nil, p.unsupported(p.pos, "conditional group with more than two branches")
	}
	if p.peek() != ')' {
		return nil, p.unsupported(start, "missing )")
	}
	p.pos++
	return IfElseGroup{Name: name, Then: then, Else: els}, nil
}

// modeFlags are the inline flags a mode group may set.
const modeFlags = "aiLmsux"

// parseModeGroup parses (?flags:...). Every other (? form that reaches here
// is unsupported.
func (p *parser) parseModeGroup(start int) (Node, error) {
	p.pos += len("(?")
	flagStart := p.pos
	for !p.eof() && strings.IndexByte(modeFlags, p.peek()) >= 0 {
		p.pos++
	}
	flags := p.src[flagStart:p.pos]

	switch {
	case strings.Count(flags, "a")+strings.Count(flags, "L")+strings.Count(flags, "u") > 1:
		return nil, p.unsupported(start, "incompatible flags (?%s)", flags)
	case flags != "" && p.peek() == ':':
		p.pos++
		verbose := strings.IndexByte(flags, 'x') >= 0
		if verbose {
			p.verbose++
		}
		inner, err := p.parseGroupBody(start)
		if verbose {
			p.verbose--
		}
		return ModeGroup{Flags: flags, Inner: inner}, err
	case flags != "" && p.peek() == ')':
		return nil, p.unsupported(start, "global inline flags (?%s)", flags)
	}
	return nil, p.unsupported(start, "group construct")
}

// scanName scans a group name made of word characters, followed by the
// terminator byte.
func (p *parser) scanName(start int, terminator byte) (string, error) {
	nameStart := p.pos
	for !p.eof() {
		r, size := utf8.DecodeRuneInString(p.src[p.pos:])
		if r != '_' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			break
		}
		p.pos += size
	}
	name := p.src[nameStart:p.pos]
	if name == "" {
		return "", p.unsupported(start, "missing group name")
	}
	if p.peek() != terminator {
		return "", p.unsupported(start, "malformed group name %q", name)
	}
	p.pos++
	return name, nil
}

// IsUnsupported reports whether err is an ErrUnsupportedSyntax failure.
func IsUnsupported(err error) bool {
	return errors.Is(err, ErrUnsupportedSyntax)
}
