package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/smazurov/backendhost/internal/logging"
	"github.com/smazurov/backendhost/internal/process"
	"github.com/spf13/cobra"
)

// Runner is the part of host.App the backend command drives.
type Runner interface {
	OnStart(ctx context.Context) error
	Shutdown(ctx context.Context) error
	RelayDone() <-chan struct{}
	Status() process.Info
}

// CreateBackendCmd creates the backend command, which runs the backend
// in the foreground with its output relayed to the log and no API server.
// It exits with the backend's exit code.
func CreateBackendCmd(newRunner func() (Runner, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "backend",
		Short: "Run the backend in the foreground",
		Long: `Spawns the configured backend, relays its output to the log and waits ` +
			`for it to exit. SIGINT or SIGTERM kills the backend and exits cleanly.`,
		Args: cobra.NoArgs,
		Run: func(c *cobra.Command, _ []string) {
			logger := logging.GetLogger("main")

			runner, err := newRunner()
			if err != nil {
				logger.Error("Invalid backend configuration", "error", err)
				os.Exit(1)
			}

			ctx, stop := signal.NotifyContext(c.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			code, err := RunForeground(ctx, runner, logger)
			if err != nil {
				logger.Error("Failed to start backend", "error", err)
				os.Exit(1)
			}
			if code != 0 {
				stop()
				os.Exit(code)
			}
		},
	}
}

// RunForeground starts r and blocks until the backend's output ends or
// ctx is cancelled. It returns the exit code the host should use: the
// backend's own code, or 0 when the run was interrupted.
func RunForeground(ctx context.Context, r Runner, logger *slog.Logger) (int, error) {
	if err := r.OnStart(ctx); err != nil {
		return 1, err
	}

	interrupted := false
	select {
	case <-ctx.Done():
		logger.Info("Interrupted, stopping backend")
		interrupted = true
	case <-r.RelayDone():
	}

	if err := r.Shutdown(context.Background()); err != nil {
		logger.Warn("Backend shutdown incomplete", "error", err)
	}

	if interrupted {
		return 0, nil
	}
	info := r.Status()
	logger.Info("Backend finished", "exit_code", info.ExitCode, "signal", info.Signal)
	if info.ExitCode < 0 {
		return 1, nil
	}
	return info.ExitCode, nil
}
