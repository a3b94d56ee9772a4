// Command larder manages a local store of persisted data sources.
//
// Logging:
//   - Base logger is created here with output format and level
//   - Logger is injected into long-running commands; one-shot commands
//     run silent so their output stays parseable
//   - No global slog configuration (no slog.SetDefault)
//   - Components scope loggers with their own attributes
package main

import (
	"fmt"
	"log/slog"
	"os"

	"larder/cmd/larder/cli"
	"larder/internal/logging"

	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	// Base logger with ComponentFilterHandler for per-component level control.
	baseHandler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelDebug, // Allow all levels; filtering done by ComponentFilterHandler
	})
	filterHandler := logging.NewComponentFilterHandler(baseHandler, slog.LevelInfo)
	logger := slog.New(filterHandler)

	rootCmd := &cobra.Command{
		Use:   "larder",
		Short: "Registry of persisted data sources",
	}

	rootCmd.PersistentFlags().String("path", "", "larder directory (default: $LARDER_PATH or platform config dir)")
	rootCmd.PersistentFlags().StringP("output", "o", "table", "output format: table or json")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(version)
		},
	}

	rootCmd.AddCommand(
		cli.NewListCmd(),
		cli.NewInfoCmd(),
		cli.NewRemoveCmd(),
		cli.NewRefreshCmd(),
		cli.NewPruneCmd(),
		cli.NewClearCmd(),
		cli.NewSweepCmd(logger),
		versionCmd,
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
