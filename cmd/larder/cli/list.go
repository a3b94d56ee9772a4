package cli

import (
	"time"

	"github.com/spf13/cobra"
)

func NewListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List persisted sources",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := storeFromCmd(cmd, nil)
			if err != nil {
				return err
			}

			entries := s.Entries()
			p := newPrinter(outputFormat(cmd))
			if outputFormat(cmd) == "json" {
				return p.json(entries)
			}

			now := time.Now()
			var rows [][]string
			for _, tok := range s.Tokens() {
				e := entries[tok]
				rows = append(rows, []string{
					shortToken(tok),
					e.Name,
					sourceDriver(e),
					formatRows(e.Metadata.Rows),
					formatBytes(e.Metadata.Bytes),
					formatAge(e.Metadata.Timestamp, now),
					formatTTL(e.Metadata.TTL),
					status(e, now),
				})
			}
			p.table([]string{"TOKEN", "NAME", "SOURCE", "ROWS", "SIZE", "AGE", "TTL", "STATUS"}, rows)
			return nil
		},
	}
}
