package ratelimit

import (
	"context"
	"sync"
	"time"
)

// DefaultSweepInterval is how often MemoryStore drops expired entries.
const DefaultSweepInterval = time.Hour

// MemoryStore keeps fixed-window counters in process memory.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]*entry
	closed  bool

	now           func() time.Time
	sweepInterval time.Duration
	onSweep       func(removed int)

	stopSweep chan struct{}
	sweepDone chan struct{}
	closeOnce sync.Once
}

type entry struct {
	count   int
	resetAt time.Time
}

// MemoryStoreOption configures a MemoryStore.
type MemoryStoreOption func(*MemoryStore)

// WithSweepInterval sets how often expired entries are removed.
func WithSweepInterval(interval time.Duration) MemoryStoreOption {
	return func(s *MemoryStore) {
		if interval > 0 {
			s.sweepInterval = interval
		}
	}
}

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) MemoryStoreOption {
	return func(s *MemoryStore) {
		if now != nil {
			s.now = now
		}
	}
}

// WithSweepHook registers a callback invoked after every sweep with the
// number of entries removed.
func WithSweepHook(fn func(removed int)) MemoryStoreOption {
	return func(s *MemoryStore) {
		s.onSweep = fn
	}
}

// NewMemoryStore creates a store and starts its background sweep.
// Call Close to stop it.
func NewMemoryStore(opts ...MemoryStoreOption) *MemoryStore {
	s := &MemoryStore{
		entries:       make(map[string]*entry),
		now:           time.Now,
		sweepInterval: DefaultSweepInterval,
		stopSweep:     make(chan struct{}),
		sweepDone:     make(chan struct{}),
	}

	for _, opt := range opts {
		opt(s)
	}

	go s.sweepLoop()

	return s
}

// Hit implements Store.
func (s *MemoryStore) Hit(ctx context.Context, key string, limit int, window time.Duration) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	now := s.now()
	e, ok := s.entries[key]

	// An expired entry is replaced, never incremented.
	if !ok || now.After(e.resetAt) {
		e = &entry{count: 1, resetAt: now.Add(window)}
		s.entries[key] = e
		return &Result{Allowed: true, Limit: limit, Remaining: limit - 1, ResetAt: e.resetAt}, nil
	}

	if e.count >= limit {
		return &Result{Allowed: false, Limit: limit, Remaining: 0, ResetAt: e.resetAt}, nil
	}

	e.count++
	return &Result{Allowed: true, Limit: limit, Remaining: limit - e.count, ResetAt: e.resetAt}, nil
}

// Len returns the number of tracked keys, expired or not.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Close stops the sweep and drops all entries. Close is idempotent.
func (s *MemoryStore) Close() error {
	s.closeOnce.Do(func() {
		close(s.stopSweep)
		<-s.sweepDone

		s.mu.Lock()
		s.closed = true
		clear(s.entries)
		s.mu.Unlock()
	})
	return nil
}

func (s *MemoryStore) sweepLoop() {
	defer close(s.sweepDone)

	ticker := time.NewTicker(s.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			removed := s.sweep()
			if s.onSweep != nil {
				s.onSweep(removed)
			}
		case <-s.stopSweep:
			return
		}
	}
}

// sweep removes entries whose window has expired and returns how many were dropped.
func (s *MemoryStore) sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for key, e := range s.entries {
		if now.After(e.resetAt) {
			delete(s.entries, key)
			removed++
		}
	}
	return removed
}
