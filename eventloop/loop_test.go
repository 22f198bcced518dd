package eventloop

import (
	"bytes"
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	"github.com/dimcore/posixcore/posixlog"
	"github.com/dimcore/posixcore/siglatch"
)

func TestOnReadableDispatchesAndStops(t *testing.T) {
	l := New(WithPollTimeout(0))

	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer r.Close()
	defer w.Close()

	fired := make(chan int, 1)
	require.NoError(t, l.OnReadable(int(r.Fd()), func(fd int) {
		fired <- fd
		l.Stop()
	}))

	_, err = w.Write([]byte(`x`))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	err = l.Run(ctx)
	assert.ErrorIs(t, err, ErrStopped)

	select {
	case fd := <-fired:
		assert.Equal(t, int(r.Fd()), fd)
	default:
		t.Fatal(`callback never fired`)
	}
}

func TestRunReturnsContextError(t *testing.T) {
	l := New(WithPollTimeout(0))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := l.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRegistrationFailsAfterStop(t *testing.T) {
	l := New()
	l.Stop()

	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer r.Close()
	defer w.Close()

	assert.ErrorIs(t, l.OnReadable(int(r.Fd()), func(int) {}), ErrStopped)
	assert.ErrorIs(t, l.OnWritable(int(w.Fd()), func(int) {}), ErrStopped)
	assert.ErrorIs(t, l.OnAcceptable(int(r.Fd()), func(int) {}), ErrStopped)
}

func TestRemoveReadableUnregistersFromMultiplexer(t *testing.T) {
	l := New()

	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer r.Close()
	defer w.Close()

	require.NoError(t, l.OnReadable(int(r.Fd()), func(int) {}))
	require.NoError(t, l.RemoveReadable(int(r.Fd())))
	assert.NotContains(t, l.onRead, int(r.Fd()))
}

func TestWatchSignalDeliversCount(t *testing.T) {
	latch := siglatch.New(unix.SIGUSR1)
	require.NoError(t, latch.Install())
	defer latch.Uninstall()

	l := New(WithPollTimeout(0))
	require.NoError(t, latch.Send(os.Getpid()))

	deliveries := make(chan int32, 1)
	require.NoError(t, l.WatchSignal(latch, func(count int32) {
		deliveries <- count
		l.Stop()
	}))

	time.Sleep(10 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	err := l.Run(ctx)
	assert.ErrorIs(t, err, ErrStopped)

	select {
	case count := <-deliveries:
		assert.GreaterOrEqual(t, count, int32(1))
	default:
		t.Fatal(`signal callback never fired`)
	}
}

func TestInvokeRecoversPanicIntoLoggedCallbackError(t *testing.T) {
	var logged bytes.Buffer
	l := New(WithLogger(posixlog.New(&logged)))

	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer r.Close()
	defer w.Close()

	require.NoError(t, l.OnReadable(int(r.Fd()), func(fd int) {
		panic(`boom`)
	}))

	assert.NotPanics(t, func() {
		l.invoke(int(r.Fd()), l.onRead[int(r.Fd())])
	})
	assert.Contains(t, logged.String(), `boom`)
}

func TestMultiplexerExposesUnderlyingMux(t *testing.T) {
	l := New()
	assert.NotNil(t, l.Multiplexer())
}
