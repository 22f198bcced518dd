package mux

import (
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	"github.com/dimcore/posixcore/internal/bitset"
	"github.com/dimcore/posixcore/siglatch"
)

func TestRegisterRejectsOutOfRange(t *testing.T) {
	m := New()
	err := m.RegisterRead(bitset.Size)
	var rangeErr *RangeError
	require.True(t, errors.As(err, &rangeErr))
	assert.Equal(t, bitset.Size, rangeErr.FD)
	assert.ErrorIs(t, err, ErrRange)
}

func TestRegisterRejectsDuplicate(t *testing.T) {
	m := New()
	require.NoError(t, m.RegisterRead(5))
	assert.ErrorIs(t, m.RegisterRead(5), ErrInvalid)
}

func TestUnregisterRejectsUnknown(t *testing.T) {
	m := New()
	assert.ErrorIs(t, m.UnregisterRead(5), ErrInvalid)
}

func TestRegisterUnregisterRecomputesMinMax(t *testing.T) {
	m := New()
	require.NoError(t, m.RegisterRead(3))
	require.NoError(t, m.RegisterRead(7))
	require.NoError(t, m.RegisterRead(5))
	assert.Equal(t, 3, m.read.min)
	assert.Equal(t, 7, m.read.max)

	require.NoError(t, m.UnregisterRead(3))
	assert.Equal(t, 5, m.read.min)
	assert.Equal(t, 7, m.read.max)

	require.NoError(t, m.UnregisterRead(7))
	require.NoError(t, m.UnregisterRead(5))
	assert.Equal(t, mostPositive, m.read.min)
	assert.Equal(t, mostNegative, m.read.max)
	assert.Equal(t, -1, m.read.cursor)
}

func TestReadyRoundRobinWrapsAndExhausts(t *testing.T) {
	m := New()
	require.NoError(t, m.RegisterRead(2))
	require.NoError(t, m.RegisterRead(4))
	require.NoError(t, m.RegisterRead(6))

	m.read.ready.Set(2)
	m.read.ready.Set(4)
	m.read.ready.Set(6)
	m.read.cursor = 4

	assert.Equal(t, 4, m.ReadyRead())
	assert.Equal(t, 6, m.ReadyRead())
	assert.Equal(t, 2, m.ReadyRead())
	assert.Equal(t, -1, m.ReadyRead())
}

func TestRegisterSignalDuplicateFails(t *testing.T) {
	m := New()
	latch := siglatch.New(unix.SIGUSR1)
	require.NoError(t, m.RegisterSignal(latch))
	assert.ErrorIs(t, m.RegisterSignal(latch), ErrInvalid)
	require.NoError(t, m.UnregisterSignal(unix.SIGUSR1))
	assert.ErrorIs(t, m.UnregisterSignal(unix.SIGUSR1), ErrInvalid)
}

func TestRegisterSignalTracksRestartFlag(t *testing.T) {
	m := New()
	latch := siglatch.New(unix.SIGUSR2)
	require.NoError(t, latch.Install(siglatch.WithRestartSyscalls(true)))
	defer latch.Uninstall()

	require.NoError(t, m.RegisterSignal(latch))
	assert.True(t, m.restartOnInterrupt())
}

func TestCloseReportsInvalidForUntrackedFD(t *testing.T) {
	m := New()
	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer w.Close()

	fd := int(r.Fd())
	err = m.Close(fd)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestCloseSucceedsForTrackedFD(t *testing.T) {
	m := New()
	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer w.Close()

	fd := int(r.Fd())
	require.NoError(t, m.RegisterRead(fd))

	require.NoError(t, m.Close(fd))
	assert.False(t, m.read.active.IsSet(fd))
}

func TestWaitZeroTimeoutPollsWithoutBlockingWhenNothingRegistered(t *testing.T) {
	m := New()
	n, err := m.Wait(0)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestWaitObservesReadableFD(t *testing.T) {
	m := New()
	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer r.Close()
	defer w.Close()

	require.NoError(t, m.RegisterRead(int(r.Fd())))

	_, err = w.Write([]byte(`x`))
	require.NoError(t, err)

	n, err := m.Wait(0)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, int(r.Fd()), m.ReadyRead())
	assert.Equal(t, -1, m.ReadyRead())
}

func TestWaitTimesOutWithNoActivity(t *testing.T) {
	m := New()
	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer r.Close()
	defer w.Close()

	require.NoError(t, m.RegisterRead(int(r.Fd())))

	n, err := m.Wait(0)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}
