// Package cli implements the larder subcommands for inspecting and
// maintaining a local larder directory.
package cli

import (
	"log/slog"

	"larder/internal/home"
	"larder/internal/persist"
	"larder/internal/source"

	"github.com/spf13/cobra"
)

// storeFromCmd opens the store named by the persistent --path flag,
// falling back to $LARDER_PATH and then the platform default. One-shot
// commands pass a nil logger so their output stays clean; the sweep
// command injects the process logger.
func storeFromCmd(cmd *cobra.Command, logger *slog.Logger) (*persist.Store, error) {
	path, _ := cmd.Flags().GetString("path")
	dir, err := home.Resolve(path)
	if err != nil {
		return nil, err
	}

	registry := source.NewRegistry(logger)
	if err := source.RegisterBuiltins(registry); err != nil {
		return nil, err
	}
	return persist.Open(persist.Config{
		Dir:      dir.Root(),
		Registry: registry,
		Logger:   logger,
	})
}

// outputFormat returns "json" or "table" from the --output flag.
func outputFormat(cmd *cobra.Command) string {
	f, _ := cmd.Flags().GetString("output")
	return f
}
