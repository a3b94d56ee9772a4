package source

import (
	"context"
	"fmt"
	"maps"

	"larder/internal/frame"
)

// DriverInline is the registered name of the inline driver.
const DriverInline = "inline"

// Inline serves records embedded directly in its args. It is the simplest
// possible source, used for seeding stores and in tests.
//
// Args:
//
//	records: list of mappings, one per record
type Inline struct {
	Base
	records []frame.Record
}

// NewInline is the factory for the inline driver.
//
// The records arg is normalized to plain []any of map[string]any before it
// enters the definition, so the source's token survives a YAML round trip
// of its args.
func NewInline(args map[string]any) (Source, error) {
	raw, ok := args["records"]
	if !ok {
		return nil, fmt.Errorf("missing records arg")
	}

	var items []any
	switch x := raw.(type) {
	case []any:
		items = x
	case []map[string]any:
		items = make([]any, len(x))
		for i, m := range x {
			items[i] = m
		}
	case []frame.Record:
		items = make([]any, len(x))
		for i, m := range x {
			items[i] = m
		}
	default:
		return nil, fmt.Errorf("records must be a list, got %T", raw)
	}

	records := make([]frame.Record, len(items))
	normalized := make([]any, len(items))
	for i, item := range items {
		var m map[string]any
		switch v := item.(type) {
		case map[string]any:
			m = v
		case frame.Record:
			m = map[string]any(v)
		default:
			return nil, fmt.Errorf("record %d is not a mapping, got %T", i, item)
		}
		records[i] = frame.Record(m)
		normalized[i] = m
	}

	clean := maps.Clone(args)
	clean["records"] = normalized

	return &Inline{Base: NewBase(DriverInline, clean), records: records}, nil
}

// Cursor returns a cursor over the embedded records.
func (s *Inline) Cursor(ctx context.Context) (Cursor, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &inlineCursor{records: s.records}, nil
}

type inlineCursor struct {
	records []frame.Record
	pos     int
}

func (c *inlineCursor) Next() (frame.Record, error) {
	if c.pos >= len(c.records) {
		return nil, ErrNoMoreRecords
	}
	rec := c.records[c.pos]
	c.pos++
	return rec, nil
}

func (c *inlineCursor) Close() error { return nil }
