package main

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/coregx/rebuild/syntax"
)

// errCheckFailed is returned when at least one pattern did not parse.
var errCheckFailed = errors.New("some patterns were rejected")

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check <pattern>...",
		Short: "Report whether each pattern is supported",
		Long: `Report, for each pattern, one of:

  ok           the pattern is supported
  invalid      the pattern is not a well-formed regular expression
  unsupported  the pattern is well-formed but uses a construct outside the grammar

The command fails if any pattern is not ok.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			failed := 0
			for _, pattern := range args {
				_, err := syntax.Parse(pattern)
				status := classify(err)
				if err != nil {
					failed++
					fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%v\n", status, pattern, err)
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", status, pattern)
			}

			slog.Debug("checked patterns", "total", len(args), "failed", failed)
			if failed > 0 {
				return errCheckFailed
			}
			return nil
		},
	}
}

// classify names the outcome of parsing.
func classify(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, syntax.ErrInvalidPattern):
		return "invalid"
	case errors.Is(err, syntax.ErrUnsupportedSyntax):
		return "unsupported"
	case errors.Is(err, syntax.ErrTooComplex):
		return "too-complex"
	}
	return "error"
}
