// Package ratelimit implements a fixed-window request governor.
//
// A window opens on the first hit for a key and lasts for the configured
// duration. Hits inside the window are counted; once the count reaches the
// limit further hits are denied until the window expires, at which point the
// next hit starts a fresh window with a count of one. Across a window boundary
// a client can therefore get up to twice the limit through in quick succession.
//
// Two stores are provided. MemoryStore keeps entries in a map and sweeps
// expired ones on a background ticker until Close is called. RedisStore runs
// the same algorithm atomically in a Lua script and relies on key TTLs for
// expiry, so several processes can share one budget.
//
//	store := ratelimit.NewMemoryStore()
//	defer store.Close()
//
//	gov, _ := ratelimit.NewGovernor(store)
//	res, err := gov.Check(ctx, "push:"+userID, 5, time.Minute)
//	if err == nil && !res.Allowed {
//		// reject using res.ResetAt
//	}
//
// Middleware wraps a FixedWindow limiter for HTTP handlers, setting the
// X-RateLimit-* headers and answering 429 with Retry-After on denial. It fails
// open when the store returns an error.
package ratelimit
