package eventloop

import (
	"github.com/dimcore/posixcore/clock"
	"github.com/dimcore/posixcore/posixlog"
)

// loopOptions holds configuration gathered from LoopOption values, grounded
// on the teacher's loopOptions/LoopOption split (an unexported options
// struct, an exported functional-option interface).
type loopOptions struct {
	logger      *posixlog.Logger
	pollTimeout clock.Tick
}

// LoopOption configures a Loop at construction.
type LoopOption interface {
	applyLoop(*loopOptions)
}

type loopOptionFunc func(*loopOptions)

func (f loopOptionFunc) applyLoop(opts *loopOptions) { f(opts) }

// WithLogger attaches a logger used for ERROR-level reporting of callback
// panics recovered by Run. Dispatch decisions are not logged.
func WithLogger(logger *posixlog.Logger) LoopOption {
	return loopOptionFunc(func(opts *loopOptions) { opts.logger = logger })
}

// WithPollTimeout sets the timeout Run passes to every Multiplexer.Wait
// call. The default is to block
// indefinitely (a negative tick count) until a descriptor or signal wakes
// the loop.
func WithPollTimeout(timeout clock.Tick) LoopOption {
	return loopOptionFunc(func(opts *loopOptions) { opts.pollTimeout = timeout })
}

// resolveLoopOptions applies opts over the documented defaults.
func resolveLoopOptions(opts []LoopOption) *loopOptions {
	cfg := &loopOptions{pollTimeout: -1}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt.applyLoop(cfg)
	}
	return cfg
}
