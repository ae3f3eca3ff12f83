// SPDX-License-Identifier: Unlicense OR MIT

// Package log holds the logger shared by the gpu packages and their
// backends. Logging is silent until a logger is installed with Set.
package log

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// nopHandler discards every record. Enabled reports false so callers
// skip formatting entirely.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

var logger atomic.Pointer[slog.Logger]

func init() {
	logger.Store(Nop())
}

// Nop returns a logger that discards all output.
func Nop() *slog.Logger {
	return slog.New(nopHandler{})
}

// Set installs l as the shared logger. A nil l restores the silent
// default.
func Set(l *slog.Logger) {
	if l == nil {
		l = Nop()
	}
	logger.Store(l)
}

// Get returns the shared logger.
func Get() *slog.Logger {
	return logger.Load()
}

// With returns a logger that tags records with the component name. It
// forwards to the shared logger installed at the time of each call, so
// package level loggers follow later calls to Set.
func With(component string) *slog.Logger {
	attrs := []slog.Attr{slog.String("component", component)}
	return slog.New(&forward{wrap: func(h slog.Handler) slog.Handler {
		return h.WithAttrs(attrs)
	}})
}

type forward struct {
	wrap func(slog.Handler) slog.Handler
}

func (f *forward) Enabled(ctx context.Context, l slog.Level) bool {
	return Get().Handler().Enabled(ctx, l)
}

func (f *forward) Handle(ctx context.Context, r slog.Record) error {
	return f.wrap(Get().Handler()).Handle(ctx, r)
}

func (f *forward) WithAttrs(attrs []slog.Attr) slog.Handler {
	wrap := f.wrap
	return &forward{wrap: func(h slog.Handler) slog.Handler {
		return wrap(h).WithAttrs(attrs)
	}}
}

func (f *forward) WithGroup(name string) slog.Handler {
	wrap := f.wrap
	return &forward{wrap: func(h slog.Handler) slog.Handler {
		return wrap(h).WithGroup(name)
	}}
}
