package source

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeCSV(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func csvSource(t *testing.T, args map[string]any) Source {
	t.Helper()
	src, err := NewCSV(args)
	if err != nil {
		t.Fatalf("new csv: %v", err)
	}
	return src
}

func TestCSVReadsFilesInOrder(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, filepath.Join(dir, "b.csv"), "name,qty\nrice,3\n")
	writeCSV(t, filepath.Join(dir, "a.csv"), "name,qty\nbeans,12\nsalt,1\n")

	src := csvSource(t, map[string]any{"path": filepath.Join(dir, "*.csv")})

	cur, err := src.Cursor(context.Background())
	if err != nil {
		t.Fatalf("cursor: %v", err)
	}
	out := drain(t, cur)

	if len(out) != 3 {
		t.Fatalf("expected 3 records, got %d", len(out))
	}
	// a.csv sorts before b.csv.
	if out[0]["name"] != "beans" || out[1]["name"] != "salt" || out[2]["name"] != "rice" {
		t.Fatalf("records out of order: %v", out)
	}
	if out[0]["qty"] != "12" {
		t.Fatalf("header mapping broken: %v", out[0])
	}
}

func TestCSVDoublestarGlob(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, filepath.Join(dir, "2024", "jan.csv"), "v\n1\n")
	writeCSV(t, filepath.Join(dir, "2024", "deep", "feb.csv"), "v\n2\n")
	writeCSV(t, filepath.Join(dir, "skip.txt"), "v\n9\n")

	src := csvSource(t, map[string]any{"path": filepath.Join(dir, "**", "*.csv")})

	cur, err := src.Cursor(context.Background())
	if err != nil {
		t.Fatalf("cursor: %v", err)
	}
	out := drain(t, cur)

	if len(out) != 2 {
		t.Fatalf("expected 2 records, got %d: %v", len(out), out)
	}
}

func TestCSVMultiplePatterns(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, filepath.Join(dir, "a.csv"), "v\n1\n")
	writeCSV(t, filepath.Join(dir, "b.csv"), "v\n2\n")

	src := csvSource(t, map[string]any{"path": []any{
		filepath.Join(dir, "a.csv"),
		filepath.Join(dir, "b.csv"),
		filepath.Join(dir, "a.csv"), // duplicate match, counted once
	}})

	cur, err := src.Cursor(context.Background())
	if err != nil {
		t.Fatalf("cursor: %v", err)
	}
	if out := drain(t, cur); len(out) != 2 {
		t.Fatalf("expected 2 records, got %d", len(out))
	}
}

func TestCSVDelimiter(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, filepath.Join(dir, "a.csv"), "name;qty\nbeans;12\n")

	src := csvSource(t, map[string]any{
		"path":      filepath.Join(dir, "a.csv"),
		"delimiter": ";",
	})

	cur, err := src.Cursor(context.Background())
	if err != nil {
		t.Fatalf("cursor: %v", err)
	}
	out := drain(t, cur)

	if len(out) != 1 || out[0]["qty"] != "12" {
		t.Fatalf("delimiter not honored: %v", out)
	}
}

func TestCSVSkipsEmptyFile(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, filepath.Join(dir, "a.csv"), "")
	writeCSV(t, filepath.Join(dir, "b.csv"), "v\n1\n")

	src := csvSource(t, map[string]any{"path": filepath.Join(dir, "*.csv")})

	cur, err := src.Cursor(context.Background())
	if err != nil {
		t.Fatalf("cursor: %v", err)
	}
	if out := drain(t, cur); len(out) != 1 {
		t.Fatalf("expected 1 record, got %d", len(out))
	}
}

func TestCSVNoMatches(t *testing.T) {
	src := csvSource(t, map[string]any{"path": filepath.Join(t.TempDir(), "*.csv")})
	if _, err := src.Cursor(context.Background()); err == nil {
		t.Fatal("expected error when no files match")
	}
}

func TestCSVRejectsBadArgs(t *testing.T) {
	cases := map[string]map[string]any{
		"missing path":     {},
		"empty path":       {"path": ""},
		"empty list":       {"path": []any{}},
		"non-string entry": {"path": []any{42}},
		"bad path type":    {"path": 42},
		"long delimiter":   {"path": "a.csv", "delimiter": ";;"},
		"non-string delim": {"path": "a.csv", "delimiter": 9},
	}
	for name, args := range cases {
		if _, err := NewCSV(args); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestCSVTokenIgnoresFileContents(t *testing.T) {
	dir := t.TempDir()
	pattern := filepath.Join(dir, "*.csv")

	a := csvSource(t, map[string]any{"path": pattern})
	writeCSV(t, filepath.Join(dir, "new.csv"), "v\n1\n")
	b := csvSource(t, map[string]any{"path": pattern})

	// Identity comes from the definition, not from what currently matches.
	if a.Token() != b.Token() {
		t.Fatalf("token changed with directory contents: %s vs %s", a.Token(), b.Token())
	}

	other := csvSource(t, map[string]any{"path": filepath.Join(dir, "other.csv")})
	if a.Token() == other.Token() {
		t.Fatal("different definitions must yield different tokens")
	}

	cur, err := b.Cursor(context.Background())
	if err != nil {
		t.Fatalf("cursor: %v", err)
	}
	if out := drain(t, cur); len(out) != 1 {
		t.Fatalf("expected 1 record, got %d", len(out))
	}
}

func TestCSVCursorCloseMidStream(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, filepath.Join(dir, "a.csv"), "v\n1\n2\n3\n")

	src := csvSource(t, map[string]any{"path": filepath.Join(dir, "a.csv")})
	cur, err := src.Cursor(context.Background())
	if err != nil {
		t.Fatalf("cursor: %v", err)
	}

	if _, err := cur.Next(); err != nil {
		t.Fatalf("next: %v", err)
	}
	if err := cur.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	// After close the cursor reports exhaustion rather than reading on.
	if _, err := cur.Next(); !errors.Is(err, ErrNoMoreRecords) {
		t.Fatalf("expected ErrNoMoreRecords after close, got %v", err)
	}
}
