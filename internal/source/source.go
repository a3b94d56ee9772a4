// Package source provides the data-source abstraction consumed by the
// persist store.
//
// A Source knows its own content-derived token, carries a metadata block,
// and can stream its records through a Cursor. Sources are constructed by
// driver factories looked up in a Registry by driver name; the registry is
// populated explicitly at startup, never by reflection or import side
// effects.
package source

import (
	"context"
	"errors"

	"larder/internal/catalog"
	"larder/internal/frame"
	"larder/internal/token"
)

var (
	ErrNoMoreRecords = errors.New("no more records")

	// ErrUnknownDriver is returned when no factory is registered under a
	// driver name. Seeing it on backtrack means the process forgot to
	// register the original source's driver.
	ErrUnknownDriver = errors.New("unknown driver")
)

// Cursor iterates over the records of a source.
type Cursor interface {
	// Next returns the next record, or ErrNoMoreRecords when exhausted.
	Next() (frame.Record, error)
	Close() error
}

// Source is a readable data source.
type Source interface {
	Name() string
	SetName(name string)

	// Token is the source's own content-derived identity.
	Token() token.Token

	// OriginalToken is the token of the pre-persistence source when this
	// source is a persisted copy, and "" otherwise.
	OriginalToken() token.Token

	Metadata() catalog.Metadata
	SetMetadata(meta catalog.Metadata)

	// Entry serializes the source's definition as a catalog entry.
	Entry() catalog.Entry

	// Cursor opens a record stream. The context bounds the open and any
	// underlying file access.
	Cursor(ctx context.Context) (Cursor, error)
}

// Base carries the identity and metadata shared by all driver
// implementations. Drivers embed it and implement Cursor.
type Base struct {
	name   string
	driver string
	args   map[string]any
	meta   catalog.Metadata
}

// NewBase builds the shared state for a driver instance.
func NewBase(driver string, args map[string]any) Base {
	return Base{driver: driver, args: args}
}

func (b *Base) Name() string        { return b.name }
func (b *Base) SetName(name string) { b.name = name }

func (b *Base) Metadata() catalog.Metadata        { return b.meta }
func (b *Base) SetMetadata(meta catalog.Metadata) { b.meta = meta }

// Token derives the source's own token from its definition.
func (b *Base) Token() token.Token {
	return token.Derive(b.driver, b.args)
}

// OriginalToken reads the original source's token from the metadata
// block, present only on persisted copies.
func (b *Base) OriginalToken() token.Token {
	return token.Token(b.meta.OriginalTok)
}

// Entry serializes the definition: driver, args, name, metadata.
func (b *Base) Entry() catalog.Entry {
	return catalog.Entry{
		Name:     b.name,
		Driver:   b.driver,
		Args:     b.args,
		Metadata: b.meta,
	}
}

// Args returns the constructor args. The map is shared, not copied;
// drivers treat args as immutable after construction.
func (b *Base) Args() map[string]any { return b.args }

// Driver returns the registered driver name.
func (b *Base) Driver() string { return b.driver }
