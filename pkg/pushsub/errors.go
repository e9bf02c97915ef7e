package pushsub

import "errors"

var (
	ErrInvalidSubscription = errors.New("pushsub: invalid subscription")
	ErrNotFound            = errors.New("pushsub: subscription not found")
)
