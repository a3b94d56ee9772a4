package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func NewInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info <token-or-name>",
		Short: "Show details of a persisted source",
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
			e, err := s.Get(tok)
			if err != nil {
				return err
			}

			p := newPrinter(outputFormat(cmd))
			if outputFormat(cmd) == "json" {
				return p.json(map[string]any{"token": tok, "entry": e})
			}

			now := time.Now()
			pairs := [][2]string{
				{"Token", tok},
				{"Name", e.Name},
				{"Source", sourceDriver(e)},
				{"Created", time.Unix(e.Metadata.Timestamp, 0).UTC().Format(time.RFC3339)},
				{"Age", formatAge(e.Metadata.Timestamp, now)},
				{"TTL", formatTTL(e.Metadata.TTL)},
				{"Status", status(e, now)},
				{"Rows", formatRows(e.Metadata.Rows)},
				{"Size", formatBytes(e.Metadata.Bytes)},
				{"Digest", e.Metadata.Digest},
				{"Artifact ID", e.Metadata.ArtifactID},
			}
			if e.Metadata.OriginalName != "" {
				pairs = append(pairs, [2]string{"Original name", e.Metadata.OriginalName})
			}
			if len(e.Metadata.PersistKwargs) > 0 {
				pairs = append(pairs, [2]string{"Persist options", fmt.Sprintf("%v", e.Metadata.PersistKwargs)})
			}
			p.kv(pairs)
			return nil
		},
	}
}
