// Command herdimport validates and commits herd spreadsheets from the
// command line. It shares the server's configuration environment.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/herdbook/internal/config"
	_ "github.com/JonMunkholm/herdbook/internal/core/entities" // Register all entity types
	"github.com/JonMunkholm/herdbook/internal/logging"
)

// app carries what every subcommand needs after the root pre-run.
type app struct {
	cfg       *config.Config
	logLevel  string
	logFormat string
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "herdimport",
		Short:         "Validate and import herd spreadsheets",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			_ = godotenv.Load()
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			a.cfg = cfg
			level := a.logLevel
			if level == "" {
				level = cfg.Logging.Level
			}
			format := a.logFormat
			if format == "" {
				format = cfg.Logging.Format
			}
			slog.SetDefault(logging.New(cmd.ErrOrStderr(), level, format))
			return nil
		},
	}

	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Log level: debug, info, warn, error (default: LOG_LEVEL)")
	root.PersistentFlags().StringVar(&a.logFormat, "log-format", "", "Log format: text or json (default: LOG_FORMAT)")

	root.AddCommand(newValidateCmd(a))
	root.AddCommand(newCommitCmd(a))
	root.AddCommand(newMappingCmd(a))
	return root
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(exitCode(err))
	}
}
