package broadcast

import "errors"

var (
	// ErrBusClosed is returned by Subscribe and Publish after Close.
	ErrBusClosed = errors.New("broadcast: bus is closed")

	// ErrTopicRequired is returned when an empty topic is used.
	ErrTopicRequired = errors.New("broadcast: topic is required")
)
