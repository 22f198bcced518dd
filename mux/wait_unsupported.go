//go:build !linux && !darwin

package mux

import (
	"errors"

	"golang.org/x/sys/unix"

	"github.com/dimcore/posixcore/clock"
	"github.com/dimcore/posixcore/internal/bitset"
)

var errUnsupportedPlatform = errors.New(`mux: Wait requires linux or darwin`)

func waitPselect(int, *bitset.Set, *bitset.Set, *bitset.Set, clock.Tick, map[unix.Signal]bool, bool) (int, error) {
	return 0, errUnsupportedPlatform
}
