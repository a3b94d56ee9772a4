package source

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"slices"
	"unicode/utf8"

	"larder/internal/frame"

	"github.com/bmatcuk/doublestar/v4"
)

// DriverCSV is the registered name of the csv driver.
const DriverCSV = "csv"

// CSV reads delimited text files. The path arg accepts doublestar glob
// patterns ("data/**/*.csv"), expanded at cursor-open time so a refresh
// picks up files added since the last materialization.
//
// Args:
//
//	path:      pattern string, or list of pattern strings
//	delimiter: optional single-character field delimiter, default ","
//
// The first row of each matched file is its header; every data row becomes
// one record mapping header names to string values.
type CSV struct {
	Base
	patterns  []string
	delimiter rune
}

// NewCSV is the factory for the csv driver.
func NewCSV(args map[string]any) (Source, error) {
	patterns, err := patternList(args["path"])
	if err != nil {
		return nil, err
	}

	delimiter := ','
	if raw, ok := args["delimiter"]; ok {
		s, ok := raw.(string)
		if !ok || utf8.RuneCountInString(s) != 1 {
			return nil, fmt.Errorf("delimiter must be a single character, got %v", raw)
		}
		delimiter, _ = utf8.DecodeRuneInString(s)
	}

	return &CSV{
		Base:      NewBase(DriverCSV, args),
		patterns:  patterns,
		delimiter: delimiter,
	}, nil
}

func patternList(raw any) ([]string, error) {
	switch x := raw.(type) {
	case string:
		if x == "" {
			return nil, fmt.Errorf("path must not be empty")
		}
		return []string{x}, nil
	case []string:
		if len(x) == 0 {
			return nil, fmt.Errorf("path must not be empty")
		}
		return slices.Clone(x), nil
	case []any:
		if len(x) == 0 {
			return nil, fmt.Errorf("path must not be empty")
		}
		patterns := make([]string, len(x))
		for i, e := range x {
			s, ok := e.(string)
			if !ok {
				return nil, fmt.Errorf("path element %d is not a string, got %T", i, e)
			}
			patterns[i] = s
		}
		return patterns, nil
	case nil:
		return nil, fmt.Errorf("missing path arg")
	}
	return nil, fmt.Errorf("path must be a string or list of strings, got %T", raw)
}

// Cursor expands the path patterns and returns a cursor streaming the
// matched files in sorted order.
func (s *CSV) Cursor(ctx context.Context) (Cursor, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var files []string
	for _, pattern := range s.patterns {
		matches, err := doublestar.FilepathGlob(pattern)
		if err != nil {
			return nil, fmt.Errorf("bad path pattern %q: %w", pattern, err)
		}
		files = append(files, matches...)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no files match %v", s.patterns)
	}
	slices.Sort(files)
	files = slices.Compact(files)

	return &csvCursor{files: files, delimiter: s.delimiter}, nil
}

type csvCursor struct {
	files     []string
	delimiter rune

	idx    int
	file   *os.File
	reader *csv.Reader
	header []string
}

func (c *csvCursor) Next() (frame.Record, error) {
	for {
		if c.reader == nil {
			if c.idx >= len(c.files) {
				return nil, ErrNoMoreRecords
			}
			if err := c.openNext(); err != nil {
				return nil, err
			}
			continue
		}

		row, err := c.reader.Read()
		if err == io.EOF {
			c.closeCurrent()
			continue
		}
		if err != nil {
			name := c.files[c.idx-1]
			c.closeCurrent()
			return nil, fmt.Errorf("read %s: %w", name, err)
		}

		rec := make(frame.Record, len(c.header))
		for i, col := range c.header {
			if i < len(row) {
				rec[col] = row[i]
			}
		}
		return rec, nil
	}
}

// openNext opens the next file and consumes its header row. Files that are
// empty are skipped.
func (c *csvCursor) openNext() error {
	name := c.files[c.idx]
	c.idx++

	f, err := os.Open(name)
	if err != nil {
		return err
	}

	r := csv.NewReader(f)
	r.Comma = c.delimiter

	header, err := r.Read()
	if err == io.EOF {
		f.Close()
		return nil
	}
	if err != nil {
		f.Close()
		return fmt.Errorf("read header of %s: %w", name, err)
	}

	c.file = f
	c.reader = r
	c.header = header
	return nil
}

func (c *csvCursor) closeCurrent() {
	if c.file != nil {
		c.file.Close()
	}
	c.file = nil
	c.reader = nil
	c.header = nil
}

func (c *csvCursor) Close() error {
	c.closeCurrent()
	return nil
}
