package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func NewPruneCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Remove every expired source",
		RunE: func(cmd *cobra.Command, args []string) error {
			keep, _ := cmd.Flags().GetBool("keep-files")

			s, err := storeFromCmd(cmd, nil)
			if err != nil {
				return err
			}
			pruned, err := s.Prune(!keep)
			for _, tok := range pruned {
				fmt.Printf("Pruned %s\n", shortToken(string(tok)))
			}
			if err != nil {
				return err
			}
			if len(pruned) == 0 {
				fmt.Println("Nothing to prune")
			}
			return nil
		},
	}
	cmd.Flags().Bool("keep-files", false, "keep artifact directories on disk")
	return cmd
}
