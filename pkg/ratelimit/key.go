package ratelimit

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net"
	"net/http"
	"strings"
)

// maxKeyLength is the maximum allowed length for a rate limit key
// to keep storage keys short in backends like Redis.
const maxKeyLength = 64

// KeyFunc extracts a rate limit key from an HTTP request.
// An empty key skips rate limiting for that request.
type KeyFunc func(*http.Request) string

// Static returns a KeyFunc that always yields name. Combine it with Composite
// to give each endpoint its own budget.
func Static(name string) KeyFunc {
	return func(*http.Request) string { return name }
}

// ByRemoteIP keys requests by the client IP in RemoteAddr.
func ByRemoteIP() KeyFunc {
	return func(r *http.Request) string {
		host, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			return r.RemoteAddr
		}
		return host
	}
}

// ByContext keys requests by a value read from the request context,
// typically the authenticated user ID.
func ByContext(fn func(context.Context) string) KeyFunc {
	return func(r *http.Request) string {
		return fn(r.Context())
	}
}

// Composite combines multiple key extraction functions into a single key.
// If any part is empty the whole key is empty. Keys longer than 64 chars are
// hashed to 32 hex chars using SHA256.
func Composite(keyFuncs ...KeyFunc) KeyFunc {
	return func(r *http.Request) string {
		parts := make([]string, 0, len(keyFuncs))
		for _, fn := range keyFuncs {
			key := fn(r)
			if key == "" {
				return ""
			}
			parts = append(parts, key)
		}

		if len(parts) == 0 {
			return ""
		}

		combined := strings.Join(parts, ":")
		if len(combined) > maxKeyLength {
			hash := sha256.Sum256([]byte(combined))
			return hex.EncodeToString(hash[:16])
		}

		return combined
	}
}
