package cli

import (
	"context"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/r0zar/innkeeper/internal/control"
)

// sweepCmd runs exactly one validation sweep and exits. Intended for external
// schedulers (cron, one-shot jobs) that own the cadence themselves.
var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run one validation sweep and exit",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := setup()

		app, err := control.New(cfg)
		if err != nil {
			slog.Error("Failed to initialize Innkeeper", "error", err)
			os.Exit(1)
		}
		defer app.Stop(context.Background())

		if err := app.Sweep(context.Background()); err != nil {
			slog.Error("Sweep failed", "error", err)
			os.Exit(1)
		}
		slog.Info("Sweep completed")
	},
}

func init() {
	rootCmd.AddCommand(sweepCmd)
}
