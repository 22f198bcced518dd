// Package debounce implements a three-sample majority-vote debouncer and
// edge classifier, grounded on Diminuto's "Cue" algorithm
// (diminuto_cue_init/_debounce/_edge).
//
// The algorithm assumes the caller samples at a roughly fixed period (for
// example 10ms for mechanical contacts); this package does not schedule
// sampling, only transforms whatever samples it is handed.
package debounce
