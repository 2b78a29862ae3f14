// Package cmd implements the storetrust command-line interface: the HTTP
// service and a one-shot evaluate command sharing the same pipeline.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// Version is overridden at build time with -ldflags "-X ...cmd.Version=...".
var Version = "dev"

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := NewRootCommand().ExecuteContext(ctx); err != nil {
		return 1
	}
	return 0
}

// NewRootCommand builds the command tree. Running the root without a
// subcommand serves HTTP.
func NewRootCommand() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:          "storetrust",
		Short:        "Trust scoring for e-commerce domains",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), configPath)
		},
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "",
		"config file (default $CONFIG_PATH or ./config.yml)")

	root.AddCommand(
		newServeCommand(&configPath),
		newEvaluateCommand(&configPath),
		&cobra.Command{
			Use:   "version",
			Short: "Print the version",
			Run: func(cmd *cobra.Command, _ []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "storetrust %s\n", Version)
			},
		},
	)
	return root
}
