// Package logging configures the process-wide slog logger.
package logging

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"time"
)

// ParseLevel converts a level name to slog.Level, defaulting to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Options controls Setup
type Options struct {
	Level   string
	Console io.Writer // nil disables console output
	File    io.Writer // optional second sink
	JSON    bool      // JSON records instead of key=value text
}

// New builds a logger writing to every configured sink. Time is printed as
// RFC3339 in UTC.
func New(opts Options) *slog.Logger {
	handlerOpts := &slog.HandlerOptions{
		Level: ParseLevel(opts.Level),
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				if t, ok := a.Value.Any().(time.Time); ok {
					a.Value = slog.StringValue(t.UTC().Format(time.RFC3339))
				}
			}
			return a
		},
	}
	mk := func(w io.Writer) slog.Handler {
		if opts.JSON {
			return slog.NewJSONHandler(w, handlerOpts)
		}
		return slog.NewTextHandler(w, handlerOpts)
	}

	var handlers []slog.Handler
	if opts.Console != nil {
		handlers = append(handlers, mk(opts.Console))
	}
	if opts.File != nil {
		handlers = append(handlers, mk(opts.File))
	}
	if len(handlers) == 0 {
		handlers = append(handlers, mk(io.Discard))
	}
	return slog.New(Fanout(handlers...))
}

// Setup builds a logger with New and installs it as slog's default.
func Setup(opts Options) *slog.Logger {
	l := New(opts)
	slog.SetDefault(l)
	l.Debug("logging initialized", "level", opts.Level)
	return l
}

// Or returns l, or slog.Default() when l is nil.
func Or(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.Default()
	}
	return l
}

// fanout sends every record to all handlers that accept its level.
type fanout struct {
	handlers []slog.Handler
}

// Fanout combines handlers into one.
func Fanout(handlers ...slog.Handler) slog.Handler {
	if len(handlers) == 1 {
		return handlers[0]
	}
	return &fanout{handlers: handlers}
}

func (f *fanout) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (f *fanout) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, h := range f.handlers {
		if h.Enabled(ctx, r.Level) {
			if err := h.Handle(ctx, r.Clone()); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

func (f *fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make([]slog.Handler, len(f.handlers))
	for i, h := range f.handlers {
		out[i] = h.WithAttrs(attrs)
	}
	return &fanout{handlers: out}
}

func (f *fanout) WithGroup(name string) slog.Handler {
	out := make([]slog.Handler, len(f.handlers))
	for i, h := range f.handlers {
		out[i] = h.WithGroup(name)
	}
	return &fanout{handlers: out}
}
