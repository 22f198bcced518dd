// Package shaper composes two throttle.Throttle contracts — a peak
// contract and a sustained contract — into a single traffic shaper,
// grounded on Diminuto's diminuto_shaper family. A stream conforms only
// when both contracts are satisfied; it is alarmed if either is violated.
package shaper
