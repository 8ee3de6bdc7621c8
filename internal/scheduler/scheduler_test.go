package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestNew_InvalidSpec(t *testing.T) {
	_, err := New(context.Background(), "not a schedule", func(context.Context) error { return nil }, nil)
	require.Error(t, err)
}

func TestNew_RejectsFiveFieldSpec(t *testing.T) {
	_, err := New(context.Background(), "0 2 * * *", func(context.Context) error { return nil }, nil)
	require.Error(t, err)
}

func TestRun_FiresAndRecovers(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls atomic.Int32
	fired := make(chan struct{}, 4)
	job := func(context.Context) error {
		n := calls.Add(1)
		select {
		case fired <- struct{}{}:
		default:
		}
		switch n {
		case 1:
			panic("boom")
		case 2:
			return errors.New("stage failed")
		}
		return nil
	}

	s, err := New(ctx, "@every 1s", job, zaptest.NewLogger(t))
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	for i := 0; i < 3; i++ {
		select {
		case <-fired:
		case <-time.After(5 * time.Second):
			t.Fatalf("job fired %d times, want 3", i)
		}
	}
	cancel()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("scheduler did not stop")
	}
	assert.GreaterOrEqual(t, calls.Load(), int32(3))
}

func TestRun_PanicDoesNotSkipLaterTicks(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	fired := make(chan struct{}, 4)
	job := func(context.Context) error {
		select {
		case fired <- struct{}{}:
		default:
		}
		panic("stage panicked")
	}

	s, err := New(ctx, "@every 1s", job, zaptest.NewLogger(t))
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	for i := 0; i < 2; i++ {
		select {
		case <-fired:
		case <-time.After(5 * time.Second):
			t.Fatalf("job fired %d times after panics, want 2", i)
		}
	}
	cancel()
	<-done
}
