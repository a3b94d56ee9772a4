package frame

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"os"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/zstd"
	"github.com/vmihailenco/msgpack/v5"
)

// Stats describes a finished frame file.
type Stats struct {
	Rows   int64
	Bytes  int64
	Digest string // sha256 over the file as written
}

// Writer streams records into a frame file.
//
// The digest covers the file bytes as written (header plus body, after
// compression), so it identifies the on-disk artifact exactly.
type Writer struct {
	f      *os.File
	digest hash.Hash
	count  int64
	cw     io.WriteCloser
	enc    *msgpack.Encoder
	rows   int64
	closed bool
}

// countTo tees writes into the digest and byte counter.
type countTo struct {
	w *Writer
}

func (c countTo) Write(p []byte) (int, error) {
	n, err := c.w.f.Write(p)
	if n > 0 {
		c.w.digest.Write(p[:n])
		c.w.count += int64(n)
	}
	return n, err
}

// NewWriter creates path and prepares it for records. Any existing file
// at path is truncated.
func NewWriter(path string, comp Compression) (*Writer, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("create frame file: %w", err)
	}

	w := &Writer{f: f, digest: sha256.New()}

	var flags byte
	switch comp {
	case CompressionZstd:
		flags |= FlagZstd
	case CompressionBrotli:
		flags |= FlagBrotli
	}
	hdr := header{Type: TypeFrames, Version: Version, Flags: flags}.encode()
	if _, err := (countTo{w}).Write(hdr[:]); err != nil {
		f.Close()
		os.Remove(path)
		return nil, fmt.Errorf("write frame header: %w", err)
	}

	var body io.Writer = countTo{w}
	switch comp {
	case CompressionZstd:
		zw, err := zstd.NewWriter(body)
		if err != nil {
			f.Close()
			os.Remove(path)
			return nil, fmt.Errorf("init zstd encoder: %w", err)
		}
		w.cw = zw
		body = zw
	case CompressionBrotli:
		bw := brotli.NewWriter(body)
		w.cw = bw
		body = bw
	}
	w.enc = msgpack.NewEncoder(body)
	return w, nil
}

// Append writes one record.
func (w *Writer) Append(rec Record) error {
	if w.closed {
		return fmt.Errorf("frame writer is closed")
	}
	if err := w.enc.Encode(map[string]any(rec)); err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	w.rows++
	return nil
}

// Close flushes and finalizes the file, returning its stats.
func (w *Writer) Close() (Stats, error) {
	if w.closed {
		return Stats{}, fmt.Errorf("frame writer already closed")
	}
	w.closed = true

	if w.cw != nil {
		if err := w.cw.Close(); err != nil {
			w.f.Close()
			return Stats{}, fmt.Errorf("flush compressed stream: %w", err)
		}
	}
	if err := w.f.Sync(); err != nil {
		w.f.Close()
		return Stats{}, fmt.Errorf("sync frame file: %w", err)
	}
	if err := w.f.Close(); err != nil {
		return Stats{}, fmt.Errorf("close frame file: %w", err)
	}

	return Stats{
		Rows:   w.rows,
		Bytes:  w.count,
		Digest: "sha256:" + hex.EncodeToString(w.digest.Sum(nil)),
	}, nil
}

// Abort closes and removes a partially written file. Safe to call after
// Close, where it does nothing.
func (w *Writer) Abort() {
	if w.closed {
		return
	}
	w.closed = true
	if w.cw != nil {
		w.cw.Close()
	}
	path := w.f.Name()
	w.f.Close()
	os.Remove(path)
}
