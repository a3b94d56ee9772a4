package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"larder/internal/frame"
)

// DriverArtifact is the registered name of the artifact driver.
const DriverArtifact = "artifact"

// Artifact reads a materialized frame file from an artifact directory.
// Persisting any source produces an entry with this driver; opening the
// entry streams the stored copy instead of the original.
//
// Args:
//
//	path: artifact directory containing the data file
type Artifact struct {
	Base
	dir string
}

// NewArtifact is the factory for the artifact driver.
func NewArtifact(args map[string]any) (Source, error) {
	dir, ok := args["path"].(string)
	if !ok || dir == "" {
		return nil, fmt.Errorf("missing path arg")
	}
	return &Artifact{Base: NewBase(DriverArtifact, args), dir: dir}, nil
}

// Dir returns the artifact directory.
func (s *Artifact) Dir() string { return s.dir }

// Cursor opens the artifact's data file.
func (s *Artifact) Cursor(ctx context.Context) (Cursor, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r, err := frame.NewReader(filepath.Join(s.dir, frame.DataFileName))
	if err != nil {
		return nil, fmt.Errorf("open artifact %s: %w", s.dir, err)
	}
	return &artifactCursor{r: r}, nil
}

type artifactCursor struct {
	r *frame.Reader
}

func (c *artifactCursor) Next() (frame.Record, error) {
	rec, err := c.r.Next()
	if errors.Is(err, io.EOF) {
		return nil, ErrNoMoreRecords
	}
	return rec, err
}

func (c *artifactCursor) Close() error { return c.r.Close() }
