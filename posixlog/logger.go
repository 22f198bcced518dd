package posixlog

import (
	"io"

	"github.com/joeycumines/logiface"
	stumpy "github.com/joeycumines/stumpy"
)

// Logger is the structured logger every posixcore package accepts as an
// optional dependency. It is a thin alias over the stumpy-backed logiface
// logger: construction and field-chaining are delegated entirely to those
// packages rather than reimplemented.
type Logger = logiface.Logger[*stumpy.Event]

// New builds a Logger that writes newline-delimited JSON to w, one object
// per log call, via stumpy's Event encoder.
func New(w io.Writer) *Logger {
	return stumpy.L.New(
		stumpy.L.WithStumpy(),
		stumpy.L.WithWriter(w),
	)
}

// Nop builds a Logger that discards everything written to it. Packages that
// accept a *Logger leave it nil by default; Event and EventErr treat a nil
// logger as a no-op.
func Nop() *Logger {
	return New(io.Discard)
}

// Event logs msg at level on logger, tagged with category, iff logger is
// non-nil and level is enabled. It is the call every posixcore package
// funnels its diagnostics through, so the category field is never
// forgotten on one call site and missing on another.
func Event(logger *Logger, level logiface.Level, category Category, msg string) {
	if logger == nil {
		return
	}
	logger.Build(level).Str(`category`, string(category)).Log(msg)
}

// EventErr is Event plus an attached error, for failure paths.
func EventErr(logger *Logger, level logiface.Level, category Category, err error, msg string) {
	if logger == nil {
		return
	}
	logger.Build(level).Str(`category`, string(category)).Err(err).Log(msg)
}
