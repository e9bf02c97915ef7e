package ratelimit

import (
	"context"
	"time"
)

// Result contains the outcome of a rate limit check.
type Result struct {
	// Allowed indicates whether the hit was admitted.
	Allowed bool

	// Limit is the maximum number of hits allowed in the window.
	Limit int

	// Remaining is the number of hits left in the current window.
	Remaining int

	// ResetAt is the time the current window expires.
	ResetAt time.Time
}

// RetryAfter returns how long to wait before the next hit can be admitted.
// Returns 0 if the hit was allowed or the window already expired.
func (r *Result) RetryAfter() time.Duration {
	if r.Allowed {
		return 0
	}
	return max(time.Until(r.ResetAt), 0)
}

// Store records hits against fixed windows.
type Store interface {
	// Hit counts one hit for key under a window of the given duration and
	// reports whether it fits within limit. Arguments are validated by the caller.
	Hit(ctx context.Context, key string, limit int, window time.Duration) (*Result, error)
}

// Limiter admits or rejects hits for a key under a preconfigured policy.
type Limiter interface {
	Allow(ctx context.Context, key string) (*Result, error)
}
