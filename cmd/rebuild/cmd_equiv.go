package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/coregx/rebuild"
	"github.com/coregx/rebuild/equiv"
	"github.com/coregx/rebuild/oracle"
)

// errNotEquivalent is returned when a canonical form disagrees with its
// pattern on some probe.
var errNotEquivalent = errors.New("canonical forms differ from their patterns")

func newEquivCmd() *cobra.Command {
	var (
		corpusPath string
		timeout    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "equiv",
		Short: "Check canonical forms against a probe corpus",
		Long: `Run every case of a YAML probe corpus through the matching engine, once
as written and once canonicalized, and report probes on which they disagree.

Without --corpus the built-in corpus is used.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			corpus, err := loadCorpus(corpusPath)
			if err != nil {
				return err
			}

			opts := oracle.DefaultOptions()
			opts.Timeout = timeout
			checker := equiv.NewChecker(oracle.New(opts), rebuild.DefaultConfig())

			reports, err := checker.Run(corpus)
			if err != nil {
				return err
			}

			differ := 0
			out := cmd.OutOrStdout()
			for _, r := range reports {
				slog.Debug("checked case", "pattern", r.Pattern, "canonical", r.Canonical, "probes", r.Probes)
				if r.Equivalent() {
					fmt.Fprintf(out, "ok\t%s\t%s\n", r.Pattern, r.Canonical)
					continue
				}
				differ++
				fmt.Fprintf(out, "differs\t%s\t%s\n", r.Pattern, r.Canonical)
				for _, m := range r.Mismatches {
					fmt.Fprintf(out, "\t%s\n", m)
				}
			}

			slog.Info("equivalence check finished", "cases", len(reports), "differ", differ)
			if differ > 0 {
				return errNotEquivalent
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&corpusPath, "corpus", "c", "", "path to a YAML probe corpus")
	cmd.Flags().DurationVar(&timeout, "timeout", oracle.DefaultOptions().Timeout, "per-match timeout")
	return cmd
}

func loadCorpus(path string) (*equiv.Corpus, error) {
	if path == "" {
		return equiv.DefaultCorpus()
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open corpus: %w", err)
	}
	defer f.Close()

	corpus, err := equiv.LoadCorpus(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return corpus, nil
}
