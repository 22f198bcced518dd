// Package mux implements a descriptor multiplexer in the shape of
// diminuto_mux: five independent registration classes (read, write,
// accept, urgent, interrupt) backed by descriptor bitmaps, a single
// pselect-style wait primitive that atomically unblocks a configured set
// of signals for the duration of the wait, and round-robin readiness
// iteration per class.
//
// A Multiplexer is not safe for concurrent use; each goroutine that
// drives an event loop owns its own instance, mirroring the
// single-threaded-cooperative model the rest of this module assumes.
package mux
