package frame

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFrames(t *testing.T, path string, comp Compression, recs []Record) Stats {
	t.Helper()
	w, err := NewWriter(path, comp)
	if err != nil {
		t.Fatalf("new writer: %v", err)
	}
	for _, rec := range recs {
		if err := w.Append(rec); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	stats, err := w.Close()
	if err != nil {
		t.Fatalf("close: %v", err)
	}
	return stats
}

func readAll(t *testing.T, path string) []Record {
	t.Helper()
	r, err := NewReader(path)
	if err != nil {
		t.Fatalf("new reader: %v", err)
	}
	defer r.Close()

	var out []Record
	for {
		rec, err := r.Next()
		if err == io.EOF {
			return out
		}
		if err != nil {
			t.Fatalf("next: %v", err)
		}
		out = append(out, rec)
	}
}

func TestRoundTrip(t *testing.T) {
	for _, comp := range []Compression{CompressionNone, CompressionZstd, CompressionBrotli} {
		t.Run(string(comp), func(t *testing.T) {
			path := filepath.Join(t.TempDir(), DataFileName)
			in := []Record{
				{"name": "black beans", "qty": int64(12)},
				{"name": "rice", "qty": int64(3), "organic": true},
				{"name": "salt"},
			}
			stats := writeFrames(t, path, comp, in)

			if stats.Rows != 3 {
				t.Fatalf("expected 3 rows, got %d", stats.Rows)
			}
			if !strings.HasPrefix(stats.Digest, "sha256:") {
				t.Fatalf("bad digest format: %s", stats.Digest)
			}
			fi, err := os.Stat(path)
			if err != nil {
				t.Fatalf("stat: %v", err)
			}
			if stats.Bytes != fi.Size() {
				t.Fatalf("stats bytes %d != file size %d", stats.Bytes, fi.Size())
			}

			out := readAll(t, path)
			if len(out) != len(in) {
				t.Fatalf("expected %d records, got %d", len(in), len(out))
			}
			if out[0]["name"] != "black beans" {
				t.Fatalf("first record corrupted: %v", out[0])
			}
			if out[0]["qty"] != int64(12) {
				t.Fatalf("expected int64(12), got %T(%v)", out[0]["qty"], out[0]["qty"])
			}
			if out[1]["organic"] != true {
				t.Fatalf("bool lost: %v", out[1])
			}
		})
	}
}

func TestEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), DataFileName)
	stats := writeFrames(t, path, CompressionZstd, nil)
	if stats.Rows != 0 {
		t.Fatalf("expected 0 rows, got %d", stats.Rows)
	}
	if out := readAll(t, path); len(out) != 0 {
		t.Fatalf("expected no records, got %d", len(out))
	}
}

func TestReaderRejectsBadHeader(t *testing.T) {
	dir := t.TempDir()

	cases := map[string][]byte{
		"short":     {Signature},
		"signature": {'X', TypeFrames, Version, 0},
		"type":      {Signature, 'x', Version, 0},
		"version":   {Signature, TypeFrames, Version + 1, 0},
	}
	for name, hdr := range cases {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, hdr, 0o644); err != nil {
			t.Fatalf("seed %s: %v", name, err)
		}
		if _, err := NewReader(path); err == nil {
			t.Errorf("%s: expected header error", name)
		}
	}
}

func TestDigestChangesWithContent(t *testing.T) {
	dir := t.TempDir()
	a := writeFrames(t, filepath.Join(dir, "a"), CompressionNone, []Record{{"v": int64(1)}})
	b := writeFrames(t, filepath.Join(dir, "b"), CompressionNone, []Record{{"v": int64(2)}})
	if a.Digest == b.Digest {
		t.Fatal("different content must yield different digests")
	}
}

func TestParseCompression(t *testing.T) {
	if c, err := ParseCompression(""); err != nil || c != CompressionNone {
		t.Fatalf("empty string: %v %v", c, err)
	}
	if c, err := ParseCompression("zstd"); err != nil || c != CompressionZstd {
		t.Fatalf("zstd: %v %v", c, err)
	}
	if c, err := ParseCompression("brotli"); err != nil || c != CompressionBrotli {
		t.Fatalf("brotli: %v %v", c, err)
	}
	if _, err := ParseCompression("snappy"); err == nil {
		t.Fatal("expected error for unknown compression")
	}
}
