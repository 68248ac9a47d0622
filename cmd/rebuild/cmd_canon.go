package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/coregx/rebuild"
)

func newCanonCmd() *cobra.Command {
	var fragment bool

	cmd := &cobra.Command{
		Use:   "canon <pattern>...",
		Short: "Print the canonical form of each pattern",
		Long: `Print the canonical form of each pattern, one per line.

With --fragment a top-level alternation is grouped, so the output can be
concatenated with other pattern text.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			optimize := rebuild.Optimize
			if fragment {
				optimize = rebuild.OptimizeFragment
			}

			for _, pattern := range args {
				out, err := optimize(pattern)
				if err != nil {
					return fmt.Errorf("canonicalize %q: %w", pattern, err)
				}
				slog.Debug("canonicalized", "pattern", pattern, "canonical", out,
					"saved", len(pattern)-len(out))
				fmt.Fprintln(cmd.OutOrStdout(), out)
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&fragment, "fragment", "f", false, "canonicalize as a fragment")
	return cmd
}
