package oracle

import (
	"errors"
	"testing"
)

func TestTranslate(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", `abc`, `abc`},
		{"named group", `(?P<year>\d{4})`, `(?<year>\d{4})`},
		{"named backreference", `(?P<q>a)(?P=q)`, `(?<q>a)\k<q>`},
		{"at most", `a{,3}`, `a{0,3}`},
		{"brace literal", `a{,x}`, `a{,x}`},
		{"unicode flag dropped", `(?u:a)`, `(?:a)`},
		{"mixed flags", `(?aim:a)`, `(?im:a)`},
		{"global unsupported flag", `(?L)a`, `a`},
		{"end of string", `a\Z`, `a\z`},
		{"escaped backslash before Z", `a\\Z`, `a\\Z`},
		{"set untouched", `[(?P=x){,2}]`, `[(?P=x){,2}]`},
		{"set with literal bracket", `[]{,2}]{,2}`, `[]{,2}]{0,2}`},
		{"inverted set with literal bracket", `[^]a]{,1}`, `[^]a]{0,1}`},
		{"lookbehind", `(?<=a)b`, `(?<=a)b`},
		{"conditional", `(?(n)a|b)`, `(?(n)a|b)`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Translate(tt.in); got != tt.want {
				t.Errorf("Translate(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	valid := []string{
		`abc`,
		`(?P<year>\d{4})-(?P=year)`,
		`a{,3}`,
		`(?u:a)`,
		`(?<=a)b(?!c)`,
		`(?P<n>x)?(?(n)a|b)`,
		`[\da-zA-Z._%+-]+`,
		`\x41B`,
	}
	for _, p := range valid {
		if err := Default().Validate(p); err != nil {
			t.Errorf("Validate(%q) = %v, want nil", p, err)
		}
	}

	invalid := []string{
		`(abc`,
		`[a-`,
		`*a`,
		`a)`,
	}
	for _, p := range invalid {
		err := Default().Validate(p)
		if err == nil {
			t.Errorf("Validate(%q) = nil, want error", p)
			continue
		}
		var se *SyntaxError
		if !errors.As(err, &se) {
			t.Errorf("Validate(%q) error %T, want *SyntaxError", p, err)
			continue
		}
		if se.Pattern != p {
			t.Errorf("SyntaxError.Pattern = %q, want %q", se.Pattern, p)
		}
		if se.Unwrap() == nil {
			t.Errorf("SyntaxError for %q has no cause", p)
		}
	}
}

func TestPatternMatching(t *testing.T) {
	tests := []struct {
		pattern string
		input   string
		search  bool
		full    bool
	}{
		{`a{,2}`, "aa", true, true},
		{`a{,2}`, "aaa", true, false},
		{`(?P<x>a)(?P=x)`, "aa", true, true},
		{`(?P<x>a)(?P=x)`, "ab", false, false},
		{`b`, "abc", true, false},
		{`a|b`, "b", true, true},
		{`(?i:abc)`, "ABC", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.pattern+"/"+tt.input, func(t *testing.T) {
			p, err := Default().Compile(tt.pattern)
			if err != nil {
				t.Fatalf("Compile(%q) error: %v", tt.pattern, err)
			}
			if p.String() != tt.pattern {
				t.Errorf("String() = %q, want %q", p.String(), tt.pattern)
			}
			got, err := p.MatchString(tt.input)
			if err != nil {
				t.Fatalf("MatchString error: %v", err)
			}
			if got != tt.search {
				t.Errorf("MatchString(%q) = %v, want %v", tt.input, got, tt.search)
			}
			got, err = p.FullMatchString(tt.input)
			if err != nil {
				t.Fatalf("FullMatchString error: %v", err)
			}
			if got != tt.full {
				t.Errorf("FullMatchString(%q) = %v, want %v", tt.input, got, tt.full)
			}
		})
	}
}

func TestFindString(t *testing.T) {
	p, err := New(Options{}).Compile(`\d+`)
	if err != nil {
		t.Fatal(err)
	}
	got, ok, err := p.FindString("age: 42 years")
	if err != nil || !ok || got != "42" {
		t.Errorf("FindString = %q, %v, %v; want \"42\", true, nil", got, ok, err)
	}
	_, ok, err = p.FindString("none")
	if err != nil || ok {
		t.Errorf("FindString(none) = %v, %v; want false, nil", ok, err)
	}
}
