// Package frame implements the materialized-artifact file format.
//
// A frame file holds the records of one persisted source:
//
//	header (4 bytes): signature 'L', type 'f', version, flags
//	body: concatenated msgpack-encoded records
//
// The flag bits mark the body compression. Records are opaque
// string-keyed maps; the persist layer does not interpret them.
package frame

import "errors"

const (
	Signature  = 'L'
	HeaderSize = 4

	TypeFrames = 'f'
	Version    = 1

	// FlagZstd marks a zstd-compressed body.
	FlagZstd = 0x01

	// FlagBrotli marks a brotli-compressed body.
	FlagBrotli = 0x02

	// DataFileName is the frame file inside an artifact directory.
	DataFileName = "data.lf"
)

var (
	ErrHeaderTooSmall    = errors.New("frame header too small")
	ErrSignatureMismatch = errors.New("frame signature mismatch")
	ErrTypeMismatch      = errors.New("frame type mismatch")
	ErrVersionMismatch   = errors.New("frame version mismatch")
)

// Record is one row of source data.
type Record map[string]any

// Compression selects the body compression algorithm.
type Compression string

const (
	CompressionNone   Compression = "none"
	CompressionZstd   Compression = "zstd"
	CompressionBrotli Compression = "brotli"
)

// ParseCompression normalizes a compression name. The empty string means
// no compression.
func ParseCompression(s string) (Compression, error) {
	switch s {
	case "", string(CompressionNone):
		return CompressionNone, nil
	case string(CompressionZstd):
		return CompressionZstd, nil
	case string(CompressionBrotli):
		return CompressionBrotli, nil
	}
	return "", errors.New("unknown compression: " + s)
}

// header is the decoded 4-byte frame file header.
type header struct {
	Type    byte
	Version byte
	Flags   byte
}

func (h header) encode() [HeaderSize]byte {
	return [HeaderSize]byte{Signature, h.Type, h.Version, h.Flags}
}

func decodeHeader(buf []byte) (header, error) {
	if len(buf) < HeaderSize {
		return header{}, ErrHeaderTooSmall
	}
	if buf[0] != Signature {
		return header{}, ErrSignatureMismatch
	}
	h := header{Type: buf[1], Version: buf[2], Flags: buf[3]}
	if h.Type != TypeFrames {
		return header{}, ErrTypeMismatch
	}
	if h.Version != Version {
		return header{}, ErrVersionMismatch
	}
	return h, nil
}
