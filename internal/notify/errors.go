package notify

import "errors"

var (
	ErrRecipientRequired = errors.New("notify: recipient is required")
	ErrRequesterRequired = errors.New("notify: requester is required")
	ErrOutsideCampus     = errors.New("notify: origin is outside the campus")
	ErrInvalidRadius     = errors.New("notify: radius must be positive")
)
