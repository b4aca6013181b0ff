// Package logging provides structured logging helpers shared by the module.
//
// Loggers are dependency-injected, never global: each component receives a
// *slog.Logger at construction and scopes it with its own attributes via
// slog.With. A nil logger falls back to a discard logger, so logging is
// always optional. Output format, level, and destination are decided only
// in main(); components never call slog.SetDefault.
//
// Compilation itself never logs. The intended log points are the surfaces
// around it: schema loading, sink connections, query execution.
package logging

import (
	"context"
	"io"
	"log/slog"
)

// discardHandler drops every record.
type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (d discardHandler) WithAttrs([]slog.Attr) slog.Handler      { return d }
func (d discardHandler) WithGroup(string) slog.Handler           { return d }

// Discard returns a logger that drops all output.
func Discard() *slog.Logger {
	return slog.New(discardHandler{})
}

// Default returns logger if non-nil, otherwise a discard logger. This is the
// standard pattern for optional logger parameters:
//
//	func NewStore(logger *slog.Logger) *Store {
//	    logger = logging.Default(logger)
//	    return &Store{logger: logger.With("component", "store")}
//	}
func Default(logger *slog.Logger) *slog.Logger {
	if logger != nil {
		return logger
	}
	return Discard()
}

// New builds the base logger for main(). Format is "text" or "json";
// anything else falls back to text.
func New(w io.Writer, format string, level slog.Level) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	var h slog.Handler
	switch format {
	case "json":
		h = slog.NewJSONHandler(w, opts)
	default:
		h = slog.NewTextHandler(w, opts)
	}
	return slog.New(h)
}
