package ratelimit

import "errors"

var (
	ErrInvalidLimit  = errors.New("ratelimit: limit must be positive")
	ErrInvalidWindow = errors.New("ratelimit: window must be positive")
	ErrKeyRequired   = errors.New("ratelimit: key is required")
	ErrStoreRequired = errors.New("ratelimit: store is required")
	ErrStoreClosed   = errors.New("ratelimit: store is closed")
)
