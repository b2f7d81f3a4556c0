package sender

import (
	"context"
	"errors"
	"net"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrcodeacademy/enrollbot/internal/logger"
)

func TestMain(m *testing.M) {
	_ = logger.Init(nil)
	os.Exit(m.Run())
}

func TestDispatcherRunsJob(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1})
	defer d.Close()

	done := make(chan struct{})
	err := d.Enqueue(context.Background(), "send.text", "sendMessage", func() error {
		close(done)
		return nil
	})
	require.NoError(t, err)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("job never ran")
	}
	assert.Equal(t, uint64(0), d.ErrorCount())
}

func TestDispatcherCountsFailures(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1})

	permErr := errors.New("403 forbidden")
	require.NoError(t, d.Enqueue(context.Background(), "send.to", "sendMessage", func() error {
		return permErr
	}))
	require.NoError(t, d.Enqueue(context.Background(), "send.to", "sendMessage", func() error {
		return nil
	}))

	d.Close()
	assert.Equal(t, uint64(1), d.ErrorCount())
}

func TestDispatcherRetriesTransientError(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1, MaxRetries: 2, RetryBackoff: time.Millisecond})

	var calls atomic.Int32
	require.NoError(t, d.Enqueue(context.Background(), "send.to", "sendMessage", func() error {
		if calls.Add(1) == 1 {
			return &net.OpError{Op: "dial", Net: "tcp", Err: context.DeadlineExceeded}
		}
		return nil
	}))

	d.Close()
	assert.Equal(t, int32(2), calls.Load())
	assert.Equal(t, uint64(0), d.ErrorCount())
}

func TestDispatcherRejectsAfterClose(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1})
	d.Close()

	err := d.Enqueue(context.Background(), "send.text", "sendMessage", func() error { return nil })
	assert.ErrorIs(t, err, ErrQueueClosed)
}

func TestDispatcherQueueFull(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1, QueueSize: 1})
	defer d.Close()

	block := make(chan struct{})
	_ = d.Enqueue(context.Background(), "send.text", "sendMessage", func() error {
		<-block
		return nil
	})

	// Fill the queue behind the blocked worker, then overflow it.
	var sawFull bool
	for i := 0; i < 3; i++ {
		if err := d.Enqueue(context.Background(), "send.text", "sendMessage", func() error { return nil }); err != nil {
			require.ErrorIs(t, err, ErrQueueFull)
			sawFull = true
			break
		}
	}
	close(block)
	assert.True(t, sawFull)
}

func TestSanitizeErrorMessageRedactsToken(t *testing.T) {
	err := errors.New("Post \"https://api.telegram.org/bot123456:AAHdqTcvbF1xYz_abc/sendMessage\": EOF")
	got := sanitizeErrorMessage(err)
	assert.NotContains(t, got, "123456:AAHdqTcvbF1xYz_abc")
	assert.Contains(t, got, "bot<redacted>")
}
