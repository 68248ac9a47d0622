// Package equiv checks that canonicalization preserves meaning.
//
// A pattern and its canonical form are compiled by the oracle engine and run
// over a corpus of probe strings. Any probe on which the two disagree, either
// when searching or when matching the whole probe, is reported.
//
// Corpora are YAML documents:
//
//	probes: ["", "a", "ab"]     # tried against every case
//	cases:
//	  - pattern: '(?:a|b)+'
//	  - pattern: '(a)(?:\1)'
//	    probes: ["aa"]          # tried against this case only
//
// Canonicalization deliberately rewrites a few constructs in ways that change
// meaning, such as {,1} becoming a single mandatory occurrence. Patterns using
// them will be reported here; that is expected.
package equiv

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/coregx/rebuild"
	"github.com/coregx/rebuild/oracle"
)

//go:embed corpus.yaml
var defaultCorpus []byte

// Case is one pattern with its own extra probes.
type Case struct {
	Pattern string   `yaml:"pattern"`
	Probes  []string `yaml:"probes,omitempty"`
}

// Corpus is a set of cases and the probes shared by all of them.
type Corpus struct {
	Probes []string `yaml:"probes"`
	Cases  []Case   `yaml:"cases"`
}

// LoadCorpus decodes a YAML corpus. Unknown fields are rejected.
func LoadCorpus(r io.Reader) (*Corpus, error) {
	var c Corpus
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil {
		if err == io.EOF {
			return &c, nil
		}
		return nil, fmt.Errorf("decoding corpus: %w", err)
	}
	return &c, nil
}

// DefaultCorpus returns the built-in corpus.
func DefaultCorpus() (*Corpus, error) {
	return LoadCorpus(bytes.NewReader(defaultCorpus))
}

// Mismatch is a probe on which a pattern and its canonical form disagree.
type Mismatch struct {
	Probe string

	// Full is set when the disagreement is on matching the whole probe
	// rather than on finding a match anywhere in it.
	Full bool

	Original  bool
	Canonical bool
}

// String describes the mismatch.
func (m Mismatch) String() string {
	mode := "search"
	if m.Full {
		mode = "full match"
	}
	return fmt.Sprintf("%s %q: original=%v canonical=%v", mode, m.Probe, m.Original, m.Canonical)
}

// Report is the outcome of checking one pattern.
type Report struct {
	Pattern    string
	Canonical  string
	Probes     int
	Mismatches []Mismatch
}

// Equivalent reports whether no probe told the two patterns apart.
func (r *Report) Equivalent() bool {
	return len(r.Mismatches) == 0
}

// Checker runs equivalence checks. It is safe for concurrent use.
type Checker struct {
	oracle *oracle.Oracle
	config rebuild.Config
}

// NewChecker returns a checker that matches with o and canonicalizes with
// config.
func NewChecker(o *oracle.Oracle, config rebuild.Config) *Checker {
	return &Checker{oracle: o, config: config}
}

// Check runs pattern and its canonical form over probes using the default
// oracle and configuration.
func Check(pattern string, probes []string) (*Report, error) {
	return NewChecker(oracle.Default(), rebuild.DefaultConfig()).Check(pattern, probes)
}

// Check runs pattern and its canonical form over probes.
func (c *Checker) Check(pattern string, probes []string) (*Report, error) {
	canonical, err := rebuild.OptimizeWithConfig(pattern, c.config)
	if err != nil {
		return nil, err
	}

	original, err := c.oracle.Compile(pattern)
	if err != nil {
		return nil, err
	}
	rewritten, err := c.oracle.Compile(canonical)
	if err != nil {
		return nil, fmt.Errorf("canonical form %q of %q does not compile: %w", canonical, pattern, err)
	}

	report := &Report{Pattern: pattern, Canonical: canonical, Probes: len(probes)}
	for _, probe := range probes {
		for _, full := range []bool{false, true} {
			want, err := match(original, probe, full)
			if err != nil {
				return nil, err
			}
			got, err := match(rewritten, probe, full)
			if err != nil {
				return nil, err
			}
			if want != got {
				report.Mismatches = append(report.Mismatches, Mismatch{
					Probe:     probe,
					Full:      full,
					Original:  want,
					Canonical: got,
				})
			}
		}
	}
	return report, nil
}

func match(p *oracle.Pattern, probe string, full bool) (bool, error) {
	if full {
		return p.FullMatchString(probe)
	}
	return p.MatchString(probe)
}

// Run checks every case of corpus. The first error stops the run.
func (c *Checker) Run(corpus *Corpus) ([]*Report, error) {
	reports := make([]*Report, 0, len(corpus.Cases))
	for _, tc := range corpus.Cases {
		probes := make([]string, 0, len(corpus.Probes)+len(tc.Probes))
		probes = append(probes, corpus.Probes...)
		probes = append(probes, tc.Probes...)

		report, err := c.Check(tc.Pattern, probes)
		if err != nil {
			return reports, fmt.Errorf("case %q: %w", tc.Pattern, err)
		}
		reports = append(reports, report)
	}
	return reports, nil
}
