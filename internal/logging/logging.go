// Package logging builds the process logger. Output goes through the
// standard log package; callers hold a logr.Logger.
package logging

import (
	"context"
	"io"
	"log"

	"github.com/go-logr/logr"
	"github.com/go-logr/stdr"
)

// New returns a logger writing to w. Messages at V(n) with n > verbosity are dropped.
func New(w io.Writer, verbosity int) logr.Logger {
	stdr.SetVerbosity(verbosity)
	return stdr.NewWithOptions(log.New(w, "afkmon ", log.LstdFlags), stdr.Options{LogCaller: stdr.None})
}

// Discard returns a logger that drops everything.
func Discard() logr.Logger {
	return logr.Discard()
}

// IntoContext returns ctx carrying l.
func IntoContext(ctx context.Context, l logr.Logger) context.Context {
	return logr.NewContext(ctx, l)
}

// FromContext returns the logger in ctx, or fallback when there is none.
func FromContext(ctx context.Context, fallback logr.Logger) logr.Logger {
	if l, err := logr.FromContext(ctx); err == nil {
		return l
	}
	return fallback
}
