package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func NewClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete every persisted source and reset the store",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := storeFromCmd(cmd, nil)
			if err != nil {
				return err
			}
			n := s.Len()
			if err := s.Clear(); err != nil {
				return err
			}
			fmt.Printf("Cleared %d sources\n", n)
			return nil
		},
	}
}
