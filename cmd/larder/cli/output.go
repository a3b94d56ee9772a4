package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"larder/internal/catalog"
)

// printer handles table or JSON output.
type printer struct {
	format string
	w      io.Writer
}

func newPrinter(format string) *printer {
	return &printer{format: format, w: os.Stdout}
}

// json marshals v as indented JSON.
func (p *printer) json(v any) error {
	enc := json.NewEncoder(p.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// table writes rows using tabwriter. header is the first row.
func (p *printer) table(header []string, rows [][]string) {
	tw := tabwriter.NewWriter(p.w, 0, 4, 2, ' ', 0)
	for i, h := range header {
		if i > 0 {
			_, _ = fmt.Fprint(tw, "\t")
		}
		_, _ = fmt.Fprint(tw, h)
	}
	_, _ = fmt.Fprintln(tw)
	for _, row := range rows {
		for i, col := range row {
			if i > 0 {
				_, _ = fmt.Fprint(tw, "\t")
			}
			_, _ = fmt.Fprint(tw, col)
		}
		_, _ = fmt.Fprintln(tw)
	}
	_ = tw.Flush()
}

// kv prints a key-value detail view.
func (p *printer) kv(pairs [][2]string) {
	tw := tabwriter.NewWriter(p.w, 0, 4, 2, ' ', 0)
	for _, pair := range pairs {
		_, _ = fmt.Fprintf(tw, "%s:\t%s\n", pair[0], pair[1])
	}
	_ = tw.Flush()
}

// shortToken abbreviates a token for table display.
func shortToken(tok string) string {
	if len(tok) <= 12 {
		return tok
	}
	return tok[:12]
}

// status classifies an entry against the clock.
func status(e catalog.Entry, now time.Time) string {
	if e.Metadata.TTL == nil {
		return "-"
	}
	if e.Metadata.Expired(now) {
		return "stale"
	}
	return "fresh"
}

// sourceDriver names the driver the artifact was materialized from.
func sourceDriver(e catalog.Entry) string {
	if e.Metadata.OriginalSource != nil {
		return e.Metadata.OriginalSource.Driver
	}
	return e.Driver
}

func formatRows(n int64) string {
	return strconv.FormatInt(n, 10)
}

// formatBytes renders a byte count with a binary unit suffix.
func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return strconv.FormatInt(n, 10) + " B"
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

// formatAge renders the time elapsed since an epoch timestamp.
func formatAge(ts int64, now time.Time) string {
	if ts == 0 {
		return "-"
	}
	age := now.Sub(time.Unix(ts, 0))
	if age < 0 {
		age = 0
	}
	return age.Truncate(time.Second).String()
}

// formatTTL renders a ttl in seconds, "-" when never expiring.
func formatTTL(ttl *int64) string {
	if ttl == nil {
		return "-"
	}
	return (time.Duration(*ttl) * time.Second).String()
}
