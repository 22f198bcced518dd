// Package clock provides a monotonic tick source and tick/seconds
// conversion helpers, free of floating point.
//
// A Tick is a signed 64-bit count of some monotonic clock running at a
// fixed, process-wide Frequency (ticks per second). Intervals are integer
// tick counts; zero means "poll, don't wait" and negative means
// "wait indefinitely" to the packages that consume a Tick as a timeout
// (see mux.Multiplexer.Wait).
package clock
