package logging

import (
	"context"
	"log/slog"
	"sync"
)

// ComponentFilterHandler filters log records by the "component" attribute,
// allowing per-component level overrides on top of a default level. Levels
// can be changed at runtime; every logger derived from the handler sees the
// change immediately.
//
// Components attach their identity once, at construction time, with
// logger.With("component", name). The handler resolves that attribute either
// from attrs bound via WithAttrs or from the record itself.
type ComponentFilterHandler struct {
	state *filterState
	inner slog.Handler

	// component is the identity bound via WithAttrs, "" when unknown.
	// When set, Enabled can answer precisely without seeing the record.
	component string
}

// filterState is shared by a handler and all its WithAttrs/WithGroup
// clones, so level changes apply everywhere at once.
type filterState struct {
	mu           sync.RWMutex
	levels       map[string]slog.Level
	defaultLevel slog.Level
}

// NewComponentFilterHandler wraps inner with per-component level filtering.
// Records below defaultLevel are dropped unless their component has an
// override set.
func NewComponentFilterHandler(inner slog.Handler, defaultLevel slog.Level) *ComponentFilterHandler {
	return &ComponentFilterHandler{
		state: &filterState{
			levels:       make(map[string]slog.Level),
			defaultLevel: defaultLevel,
		},
		inner: inner,
	}
}

// SetLevel overrides the level for one component.
func (h *ComponentFilterHandler) SetLevel(component string, level slog.Level) {
	h.state.mu.Lock()
	defer h.state.mu.Unlock()
	h.state.levels[component] = level
}

// ClearLevel removes a component override, returning it to the default level.
func (h *ComponentFilterHandler) ClearLevel(component string) {
	h.state.mu.Lock()
	defer h.state.mu.Unlock()
	delete(h.state.levels, component)
}

// Level returns the effective level for a component.
func (h *ComponentFilterHandler) Level(component string) slog.Level {
	h.state.mu.RLock()
	defer h.state.mu.RUnlock()
	if level, ok := h.state.levels[component]; ok {
		return level
	}
	return h.state.defaultLevel
}

// DefaultLevel returns the level applied to components without an override.
func (h *ComponentFilterHandler) DefaultLevel() slog.Level {
	h.state.mu.RLock()
	defer h.state.mu.RUnlock()
	return h.state.defaultLevel
}

// Enabled reports whether a record at this level could pass the filter.
// When the component is not yet known, the most permissive configured level
// decides; Handle does the precise check once the record's attributes are
// visible.
func (h *ComponentFilterHandler) Enabled(_ context.Context, level slog.Level) bool {
	if h.component != "" {
		return level >= h.Level(h.component)
	}

	h.state.mu.RLock()
	defer h.state.mu.RUnlock()
	min := h.state.defaultLevel
	for _, l := range h.state.levels {
		if l < min {
			min = l
		}
	}
	return level >= min
}

// Handle drops the record if it is below the effective level for its
// component, otherwise passes it to the inner handler.
func (h *ComponentFilterHandler) Handle(ctx context.Context, r slog.Record) error {
	component := h.component
	if component == "" {
		r.Attrs(func(a slog.Attr) bool {
			if a.Key == "component" && a.Value.Kind() == slog.KindString {
				component = a.Value.String()
				return false
			}
			return true
		})
	}

	if r.Level < h.Level(component) {
		return nil
	}
	if h.inner == nil {
		return nil
	}
	return h.inner.Handle(ctx, r)
}

// WithAttrs captures a "component" attribute if present, so the clone can
// filter precisely, and forwards the attrs to the inner handler. The clone
// shares level state with its parent.
func (h *ComponentFilterHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	for _, a := range attrs {
		if a.Key == "component" && a.Value.Kind() == slog.KindString {
			clone.component = a.Value.String()
		}
	}
	if h.inner != nil {
		clone.inner = h.inner.WithAttrs(attrs)
	}
	return &clone
}

// WithGroup forwards the group to the inner handler. Filtering still works:
// the "component" attribute is read from the record before the inner handler
// qualifies it with the group name.
func (h *ComponentFilterHandler) WithGroup(name string) slog.Handler {
	clone := *h
	if h.inner != nil {
		clone.inner = h.inner.WithGroup(name)
	}
	return &clone
}
