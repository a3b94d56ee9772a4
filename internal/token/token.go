// Package token provides stable identity for data sources.
//
// A Token is an opaque string derived from a source definition (driver
// name plus constructor args). Two source objects describing the same
// logical data must yield the same token; the token is the primary key
// of the persist catalog.
//
// Resolution rule: a persisted copy is always identified by the token of
// the thing it represents, never by its own token. Otherwise refreshing a
// refreshed copy would grow an unbounded chain of distinct keys.
package token

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"slices"
	"strconv"
)

// Token is a stable content-derived identity string for a data source.
type Token string

// ErrUnresolvable is returned when a value is none of the accepted
// identity shapes (string, catalog entry, live source).
var ErrUnresolvable = errors.New("cannot resolve token")

// Identified is implemented by catalog entries and live sources.
// OriginalToken returns the token of the pre-persistence source when the
// value is a persisted copy, and "" otherwise.
type Identified interface {
	Token() Token
	OriginalToken() Token
}

// Resolve extracts a token from a raw string, a catalog entry, or a live
// source. Entries and sources that are persisted copies resolve to the
// original source's token.
func Resolve(v any) (Token, error) {
	switch x := v.(type) {
	case Token:
		return x, nil
	case string:
		return Token(x), nil
	case Identified:
		if ot := x.OriginalToken(); ot != "" {
			return ot, nil
		}
		return x.Token(), nil
	}
	return "", fmt.Errorf("%w: unsupported type %T", ErrUnresolvable, v)
}

// Derive computes the token for a source definition.
//
// The definition is canonicalized before hashing: map keys are sorted and
// every value is written with a type tag and length prefix, so the token
// is independent of map iteration order and stable across processes and
// YAML round trips.
func Derive(driver string, args map[string]any) Token {
	h := sha256.New()
	writeString(h, driver)
	writeValue(h, args)
	return Token(hex.EncodeToString(h.Sum(nil)))
}

func writeString(h hash.Hash, s string) {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], uint32(len(s)))
	h.Write(buf[:])
	h.Write([]byte(s))
}

// writeValue writes a canonical, type-tagged encoding of v.
// Plain YAML/JSON types get dedicated tags; anything else falls back to
// its fmt representation, which is stable enough for in-process use but
// not guaranteed across type changes. Drivers keep args to plain types.
func writeValue(h hash.Hash, v any) {
	switch x := v.(type) {
	case nil:
		h.Write([]byte{'z'})
	case bool:
		if x {
			h.Write([]byte{'b', 1})
		} else {
			h.Write([]byte{'b', 0})
		}
	case string:
		h.Write([]byte{'s'})
		writeString(h, x)
	case int:
		writeInt(h, int64(x))
	case int64:
		writeInt(h, x)
	case uint:
		writeUint(h, uint64(x))
	case uint64:
		writeUint(h, x)
	case float32:
		writeFloat(h, float64(x))
	case float64:
		writeFloat(h, x)
	case []any:
		h.Write([]byte{'l'})
		var buf [4]byte
		binary.LittleEndian.PutUint32(buf[:], uint32(len(x)))
		h.Write(buf[:])
		for _, e := range x {
			writeValue(h, e)
		}
	case []string:
		h.Write([]byte{'l'})
		var buf [4]byte
		binary.LittleEndian.PutUint32(buf[:], uint32(len(x)))
		h.Write(buf[:])
		for _, e := range x {
			writeValue(h, e)
		}
	case map[string]any:
		h.Write([]byte{'m'})
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		var buf [4]byte
		binary.LittleEndian.PutUint32(buf[:], uint32(len(keys)))
		h.Write(buf[:])
		for _, k := range keys {
			writeString(h, k)
			writeValue(h, x[k])
		}
	default:
		h.Write([]byte{'?'})
		writeString(h, fmt.Sprintf("%T=%v", v, v))
	}
}

func writeInt(h hash.Hash, n int64) {
	h.Write([]byte{'i'})
	writeString(h, strconv.FormatInt(n, 10))
}

func writeUint(h hash.Hash, n uint64) {
	// Unsigned values that fit in int64 hash identically to their signed
	// form, so YAML round trips (which decode to int) keep the token.
	if n <= 1<<63-1 {
		writeInt(h, int64(n))
		return
	}
	h.Write([]byte{'u'})
	writeString(h, strconv.FormatUint(n, 10))
}

func writeFloat(h hash.Hash, f float64) {
	h.Write([]byte{'f'})
	writeString(h, strconv.FormatFloat(f, 'g', -1, 64))
}
