package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"larder/internal/persist"

	"github.com/spf13/cobra"
)

// NewSweepCmd returns the long-running maintenance command: a janitor
// refreshing expired sources on a cron schedule, plus a catalog watcher
// keeping the mirror in sync with out-of-process writers.
func NewSweepCmd(logger *slog.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Refresh expired sources, once or on a schedule",
		RunE: func(cmd *cobra.Command, args []string) error {
			schedule, _ := cmd.Flags().GetString("schedule")
			parallel, _ := cmd.Flags().GetInt("parallel")
			once, _ := cmd.Flags().GetBool("once")

			s, err := storeFromCmd(cmd, logger)
			if err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
			defer cancel()

			j, err := persist.NewJanitor(s, persist.JanitorConfig{
				Schedule: schedule,
				Parallel: parallel,
				Logger:   logger,
			})
			if err != nil {
				return err
			}
			defer j.Stop()

			if once {
				n := j.Sweep(ctx)
				fmt.Printf("Refreshed %d sources\n", n)
				return nil
			}

			w, err := persist.NewWatcher(s, logger)
			if err != nil {
				return err
			}
			defer w.Close()

			j.Start()
			<-ctx.Done()
			return nil
		},
	}
	cmd.Flags().String("schedule", "* * * * *", "cron schedule for sweeps")
	cmd.Flags().Int("parallel", 4, "concurrent refreshes per sweep")
	cmd.Flags().Bool("once", false, "run a single sweep and exit")
	return cmd
}
