package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_Sweep(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	}
	advance := func(d time.Duration) {
		mu.Lock()
		defer mu.Unlock()
		now = now.Add(d)
	}

	s := NewMemoryStore(WithClock(clock))
	defer s.Close()

	ctx := context.Background()
	_, err := s.Hit(ctx, "short", 5, time.Minute)
	require.NoError(t, err)
	_, err = s.Hit(ctx, "long", 5, 2*time.Hour)
	require.NoError(t, err)
	require.Equal(t, 2, s.Len())

	assert.Equal(t, 0, s.sweep(), "nothing expired yet")

	advance(time.Hour)
	assert.Equal(t, 1, s.sweep())
	assert.Equal(t, 1, s.Len())

	// A swept key starts a fresh window.
	res, err := s.Hit(ctx, "short", 5, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 4, res.Remaining)

	advance(3 * time.Hour)
	assert.Equal(t, 2, s.sweep())
	assert.Zero(t, s.Len())
}

func TestMemoryStore_SweepLoop(t *testing.T) {
	t.Parallel()

	swept := make(chan int, 8)
	s := NewMemoryStore(
		WithSweepInterval(10*time.Millisecond),
		WithSweepHook(func(removed int) {
			select {
			case swept <- removed:
			default:
			}
		}),
	)
	defer s.Close()

	_, err := s.Hit(context.Background(), "k", 1, time.Millisecond)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return s.Len() == 0
	}, time.Second, 5*time.Millisecond)

	select {
	case <-swept:
	case <-time.After(time.Second):
		t.Fatal("sweep hook not called")
	}
}

func TestMemoryStore_Close(t *testing.T) {
	t.Parallel()

	s := NewMemoryStore(WithSweepInterval(time.Millisecond))
	_, err := s.Hit(context.Background(), "k", 1, time.Minute)
	require.NoError(t, err)

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	select {
	case <-s.sweepDone:
	default:
		t.Fatal("sweep goroutine still running after Close")
	}

	assert.Zero(t, s.Len())
	_, err = s.Hit(context.Background(), "k", 1, time.Minute)
	assert.ErrorIs(t, err, ErrStoreClosed)
}

func TestMemoryStore_CancelledContext(t *testing.T) {
	t.Parallel()

	s := NewMemoryStore()
	defer s.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Hit(ctx, "k", 1, time.Minute)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, s.Len())
}

func TestMemoryStore_Options(t *testing.T) {
	t.Parallel()

	s := NewMemoryStore(WithSweepInterval(0), WithClock(nil))
	defer s.Close()

	assert.Equal(t, DefaultSweepInterval, s.sweepInterval)
	assert.NotNil(t, s.now)
}
