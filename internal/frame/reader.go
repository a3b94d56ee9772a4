package frame

import (
	"fmt"
	"io"
	"math"
	"os"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/zstd"
	"github.com/vmihailenco/msgpack/v5"
)

// Reader streams records out of a frame file.
// Next returns io.EOF once the body is exhausted.
type Reader struct {
	f   *os.File
	zr  *zstd.Decoder
	dec *msgpack.Decoder
}

// NewReader opens path and validates its header.
func NewReader(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open frame file: %w", err)
	}

	var hdr [HeaderSize]byte
	if _, err := io.ReadFull(f, hdr[:]); err != nil {
		f.Close()
		return nil, ErrHeaderTooSmall
	}
	h, err := decodeHeader(hdr[:])
	if err != nil {
		f.Close()
		return nil, err
	}

	r := &Reader{f: f}
	var body io.Reader = f
	switch {
	case h.Flags&FlagZstd != 0:
		zr, err := zstd.NewReader(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("init zstd decoder: %w", err)
		}
		r.zr = zr
		body = zr
	case h.Flags&FlagBrotli != 0:
		body = brotli.NewReader(f)
	}
	r.dec = msgpack.NewDecoder(body)
	return r, nil
}

// Next decodes the next record. Returns io.EOF at the end of the body.
func (r *Reader) Next() (Record, error) {
	var rec map[string]any
	if err := r.dec.Decode(&rec); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("decode record: %w", err)
	}
	for k, v := range rec {
		rec[k] = normalize(v)
	}
	return Record(rec), nil
}

// normalize widens msgpack's size-matched number types so a record reads
// back with the same value shapes it was written with: integers become
// int64 (uint64 only when the value exceeds the int64 range), floats
// become float64. Nested maps and lists are normalized in place.
func normalize(v any) any {
	switch x := v.(type) {
	case int:
		return int64(x)
	case int8:
		return int64(x)
	case int16:
		return int64(x)
	case int32:
		return int64(x)
	case uint8:
		return int64(x)
	case uint16:
		return int64(x)
	case uint32:
		return int64(x)
	case uint:
		if x <= math.MaxInt64 {
			return int64(x)
		}
		return uint64(x)
	case uint64:
		if x <= math.MaxInt64 {
			return int64(x)
		}
		return x
	case float32:
		return float64(x)
	case map[string]any:
		for k, e := range x {
			x[k] = normalize(e)
		}
		return x
	case []any:
		for i, e := range x {
			x[i] = normalize(e)
		}
		return x
	}
	return v
}

// Close releases the underlying file.
func (r *Reader) Close() error {
	if r.zr != nil {
		r.zr.Close()
	}
	return r.f.Close()
}
