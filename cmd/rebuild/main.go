package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	var verbose bool

	rootCmd := &cobra.Command{
		Use:           "rebuild",
		Short:         "Canonicalize and check Python-flavoured regular expressions",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelInfo
			if verbose {
				level = slog.LevelDebug
			}
			handler := slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})
			slog.SetDefault(slog.New(handler))
		},
	}
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log debug output")

	rootCmd.AddCommand(newCanonCmd())
	rootCmd.AddCommand(newCheckCmd())
	rootCmd.AddCommand(newEquivCmd())
	return rootCmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}
