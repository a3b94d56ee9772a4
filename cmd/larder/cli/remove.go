package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func NewRemoveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "remove <token-or-name>",
		Aliases: []string{"rm"},
		Short:   "Remove a persisted source",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			keep, _ := cmd.Flags().GetBool("keep-files")

			s, err := storeFromCmd(cmd, nil)
			if err != nil {
				return err
			}
			tok, err := resolveToken(s.Entries(), args[0])
			if err != nil {
				return err
			}
			if err := s.Remove(tok, !keep); err != nil {
				return err
			}
			fmt.Printf("Removed %s\n", shortToken(tok))
			return nil
		},
	}
	cmd.Flags().Bool("keep-files", false, "keep the artifact directory on disk")
	return cmd
}
