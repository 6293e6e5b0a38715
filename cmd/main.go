// Package main is the command-line entry point for playqueue.
//
// Build:
//
//	go build -o build/playqueue ./cmd
//
// Run:
//
//	./build/playqueue play ~/Music/Album
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tejashwikalptaru/playqueue/internal/app"
	"github.com/tejashwikalptaru/playqueue/internal/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// rootFlags are bound onto app.Config before a command runs.
type rootFlags struct {
	logLevel string
	config   app.Config
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{config: app.DefaultConfig()}

	root := &cobra.Command{
		Use:           "playqueue",
		Short:         "Queue-based audio player with shuffle, repeat and session restore",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("log-level") {
				level, err := logger.ParseLevel(flags.logLevel)
				if err != nil {
					return err
				}
				flags.config.LogLevel = level
			}
			return nil
		},
	}

	pf := root.PersistentFlags()
	cfg := &flags.config
	pf.StringVar(&flags.logLevel, "log-level", cfg.LogLevel.String(), "log level: debug, info, warn, error (env "+logger.EnvLevel+")")
	pf.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "log format: text or json")
	pf.StringVar(&cfg.DataDir, "data-dir", cfg.DataDir, "directory for the saved session")
	pf.BoolVar(&cfg.Ephemeral, "ephemeral", cfg.Ephemeral, "keep the session in memory only")

	root.AddCommand(newPlayCmd(flags), newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), app.GetVersionInfo().FullString())
		},
	}
}
