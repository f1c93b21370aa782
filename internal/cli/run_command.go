package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"mediashelf/internal/logging"

	"github.com/spf13/cobra"
)

func NewRunCommand(globalOptions *GlobalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Rescan the library periodically until interrupted",
		Long:  "Starts the background rescan scheduler. The library is scanned immediately and then every library.rescan_interval. An interval of 0 disables the scheduler.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(globalOptions, func(a *app) error {
				ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
				defer stop()
				return runScheduler(ctx, a)
			})
		},
	}
}

// runScheduler runs the rescan service until ctx is done.
func runScheduler(ctx context.Context, a *app) error {
	logging.Log.Infof("Watching library %s (rescan interval: %s)", a.Conf.Library.Root, a.Conf.Library.RescanInterval)
	a.Rescan.Start()

	<-ctx.Done()
	logging.Log.Info("Shutting down...")

	a.Rescan.Stop()
	logging.Log.Info("Scheduler stopped")
	return nil
}
