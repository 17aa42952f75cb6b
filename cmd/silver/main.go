// Command silver cleans the bronze layer of the warehouse into silver tables.
//
// Usage:
//
//	silver run [--source postgres|files] [--source-dir DIR] [--dry-run]
//	silver serve
//	silver migrate
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/warehouse/internal/config"
	_ "github.com/JonMunkholm/warehouse/internal/core/entities" // Register all entities
	"github.com/JonMunkholm/warehouse/internal/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	os.Exit(exitCode(err))
}

func newRootCmd() *cobra.Command {
	var cfg config.Config

	root := &cobra.Command{
		Use:           "silver",
		Short:         "Clean bronze warehouse tables into the silver layer",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Load .env file if it exists (Overload overwrites existing env vars)
			envLoaded := godotenv.Overload() == nil

			loaded, err := config.Load()
			if err != nil {
				return withCode(exitFatal, fmt.Errorf("load configuration: %w", err))
			}
			cfg = *loaded

			logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
			slog.Debug("configuration loaded", "env_file", envLoaded, "config", cfg.String())
			return nil
		},
	}

	root.AddCommand(
		newRunCmd(&cfg),
		newServeCmd(&cfg),
		newMigrateCmd(&cfg),
	)
	return root
}

// Exit codes.
const (
	exitOK      = 0
	exitFatal   = 1 // the run could not complete or the command failed
	exitPartial = 2 // the run completed but at least one entity failed
)

// codeError carries the process exit code of a failed command.
type codeError struct {
	code int
	err  error
}

func (e *codeError) Error() string { return e.err.Error() }
func (e *codeError) Unwrap() error { return e.err }

func withCode(code int, err error) error {
	if err == nil {
		return nil
	}
	return &codeError{code: code, err: err}
}

// exitCode reports err and maps it to a process exit code.
func exitCode(err error) int {
	if err == nil {
		return exitOK
	}

	var ce *codeError
	if errors.As(err, &ce) {
		if ce.code != exitPartial {
			slog.Error("command failed", "error", ce.err)
		}
		return ce.code
	}
	slog.Error("command failed", "error", err)
	return exitFatal
}
