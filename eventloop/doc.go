// Package eventloop wires a Multiplexer, a set of SignalLatches, and the
// caller's per-descriptor callbacks into a single cooperative run loop,
// adapted from the teacher event loop's run-loop shape (timers and
// promises there, descriptors and signals here).
//
// A Loop owns exactly one mux.Multiplexer and drives it from a single
// goroutine; it is not safe for concurrent use, matching the
// single-threaded-cooperative scheduling model the rest of this module
// assumes.
package eventloop
