package stream

import "errors"

var (
	ErrUnauthorized          = errors.New("stream: unauthorized")
	ErrSessionStarted        = errors.New("stream: session already started")
	ErrSubscriptionClosed    = errors.New("stream: subscription closed by bus")
	ErrTooManyWriteFailures  = errors.New("stream: too many consecutive write failures")
	ErrWriterClosed          = errors.New("stream: writer is closed")
	ErrStreamingNotSupported = errors.New("stream: response writer does not support flushing")
)
