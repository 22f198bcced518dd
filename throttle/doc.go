// Package throttle implements a single-contract Generic Cell Rate
// Algorithm (GCRA) virtual scheduler, grounded on Diminuto's
// diminuto_throttle family. It admits or delays events against an
// interarrival increment and a jitter-tolerance limit, tracking enough
// history to report level and edge predicates (empty/full/alarmed and
// their just-transitioned variants).
package throttle
