package ratelimit

import (
	"context"
	"time"
)

// Governor validates rate limit checks and delegates counting to a Store.
// It is safe for concurrent use when the store is.
type Governor struct {
	store Store
}

// NewGovernor creates a governor backed by store.
func NewGovernor(store Store) (*Governor, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	return &Governor{store: store}, nil
}

// Check counts one hit for key. A denial is reported through Result.Allowed,
// not as an error.
func (g *Governor) Check(ctx context.Context, key string, limit int, window time.Duration) (*Result, error) {
	if key == "" {
		return nil, ErrKeyRequired
	}
	if limit <= 0 {
		return nil, ErrInvalidLimit
	}
	if window <= 0 {
		return nil, ErrInvalidWindow
	}
	return g.store.Hit(ctx, key, limit, window)
}

// FixedWindow is a Limiter with a fixed limit and window.
type FixedWindow struct {
	governor *Governor
	limit    int
	window   time.Duration
}

// NewFixedWindow creates a limiter allowing limit hits per window for each key.
func NewFixedWindow(store Store, limit int, window time.Duration) (*FixedWindow, error) {
	g, err := NewGovernor(store)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		return nil, ErrInvalidLimit
	}
	if window <= 0 {
		return nil, ErrInvalidWindow
	}
	return &FixedWindow{governor: g, limit: limit, window: window}, nil
}

// Allow counts one hit for key.
func (fw *FixedWindow) Allow(ctx context.Context, key string) (*Result, error) {
	return fw.governor.Check(ctx, key, fw.limit, fw.window)
}
