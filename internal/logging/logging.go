// Package logging holds the structured logging conventions shared by all
// larder components.
//
// Loggers are dependency-injected, never global. A component receives a
// *slog.Logger at construction, scopes it once with its component name,
// and keeps the scoped logger for its lifetime:
//
//	func Open(dir string, logger *slog.Logger) *Store {
//	    return &Store{logger: logging.Default(logger).With("component", "persist-store")}
//	}
//
// A nil logger is always legal and means "log nothing". Output format,
// level, and destination are decided in main() only; no component calls
// slog.SetDefault.
//
// Log points sit at lifecycle boundaries (open, persist, refresh, sweep)
// and at non-fatal failures that the caller never sees as an error, such
// as artifact directory cleanup. Nothing logs per record.
package logging

import (
	"context"
	"log/slog"
)

// discardHandler drops every record and reports every level disabled.
type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (d discardHandler) WithAttrs([]slog.Attr) slog.Handler      { return d }
func (d discardHandler) WithGroup(string) slog.Handler           { return d }

// Discard returns a logger that produces no output.
func Discard() *slog.Logger {
	return slog.New(discardHandler{})
}

// Default maps a nil logger to a discard logger so components can call
// their logger unconditionally.
func Default(logger *slog.Logger) *slog.Logger {
	if logger != nil {
		return logger
	}
	return Discard()
}
