// Package siglatch implements a family of one-shot, saturating signal
// counters — SignalLatch in the vocabulary this module was specified
// against — plus UninterruptibleScope, a scoped signal-mask block/restore
// helper the latch's Check method composes with.
//
// Each latch tracks exactly one signal. Delivery increments a saturating
// counter from a goroutine fed by os/signal; Check atomically reads and
// zeroes it. That goroutine does nothing but the saturating increment,
// plus one DEBUG log entry per delivery when the latch was installed
// WithVerbose.
package siglatch
