package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
)

func NewRefreshCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh <token-or-name>",
		Short: "Re-materialize a persisted source from its original",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := storeFromCmd(cmd, nil)
			if err != nil {
				return err
			}
			tok, err := resolveToken(s.Entries(), args[0])
			if err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
			defer cancel()

			if _, err := s.Refresh(ctx, tok); err != nil {
				return err
			}
			e, err := s.Get(tok)
			if err != nil {
				return err
			}
			fmt.Printf("Refreshed %s (%s rows, %s)\n",
				shortToken(tok), formatRows(e.Metadata.Rows), formatBytes(e.Metadata.Bytes))
			return nil
		},
	}
}
