package source

import (
	"context"
	"path/filepath"
	"testing"

	"larder/internal/frame"
)

func writeArtifact(t *testing.T, dir string, recs []frame.Record) {
	t.Helper()
	w, err := frame.NewWriter(filepath.Join(dir, frame.DataFileName), frame.CompressionZstd)
	if err != nil {
		t.Fatalf("new writer: %v", err)
	}
	for _, rec := range recs {
		if err := w.Append(rec); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	if _, err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestArtifactReadsFrameFile(t *testing.T) {
	dir := t.TempDir()
	writeArtifact(t, dir, []frame.Record{
		{"name": "beans", "qty": int64(12)},
		{"name": "rice"},
	})

	src, err := NewArtifact(map[string]any{"path": dir})
	if err != nil {
		t.Fatalf("new artifact: %v", err)
	}

	cur, err := src.Cursor(context.Background())
	if err != nil {
		t.Fatalf("cursor: %v", err)
	}
	out := drain(t, cur)

	if len(out) != 2 {
		t.Fatalf("expected 2 records, got %d", len(out))
	}
	if out[0]["name"] != "beans" || out[0]["qty"] != int64(12) {
		t.Fatalf("record corrupted: %v", out[0])
	}
}

func TestArtifactMissingDataFile(t *testing.T) {
	src, err := NewArtifact(map[string]any{"path": t.TempDir()})
	if err != nil {
		t.Fatalf("new artifact: %v", err)
	}
	if _, err := src.Cursor(context.Background()); err == nil {
		t.Fatal("expected error for missing data file")
	}
}

func TestArtifactRejectsMissingPath(t *testing.T) {
	if _, err := NewArtifact(map[string]any{}); err == nil {
		t.Fatal("expected error for missing path arg")
	}
	if _, err := NewArtifact(map[string]any{"path": ""}); err == nil {
		t.Fatal("expected error for empty path arg")
	}
}
