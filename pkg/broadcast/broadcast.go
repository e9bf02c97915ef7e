package broadcast

import (
	"context"
	"sync"
	"time"
)

// Message wraps data of type T with delivery metadata.
type Message[T any] struct {
	ID        string
	Topic     string
	Data      T
	Timestamp time.Time
}

// Subscriber receives messages published to a single topic.
// Implementations must be safe for concurrent use.
type Subscriber[T any] interface {
	// ID returns the unique subscriber identifier.
	ID() string

	// Topic returns the topic this subscriber is registered under.
	Topic() string

	// Receive returns the channel messages are delivered on. The channel is
	// closed once the subscriber is removed from the bus. Cancellation is
	// bound to the context given to Subscribe; ctx here is not observed.
	Receive(ctx context.Context) <-chan Message[T]

	// Close unsubscribes and closes the receive channel.
	// Close is idempotent.
	Close() error
}

type sendResult int

const (
	sent sendResult = iota
	full
	gone
)

type subscriber[T any] struct {
	id    string
	topic string
	ch    chan Message[T]
	done  chan struct{}
	bus   *Bus[T]

	mu     sync.RWMutex
	closed bool
}

func newSubscriber[T any](bus *Bus[T], id, topic string, bufferSize int) *subscriber[T] {
	return &subscriber[T]{
		id:    id,
		topic: topic,
		ch:    make(chan Message[T], bufferSize),
		done:  make(chan struct{}),
		bus:   bus,
	}
}

func (s *subscriber[T]) ID() string    { return s.id }
func (s *subscriber[T]) Topic() string { return s.topic }

func (s *subscriber[T]) Receive(_ context.Context) <-chan Message[T] {
	return s.ch
}

func (s *subscriber[T]) Close() error {
	_ = s.bus.remove(s)
	return nil
}

// close marks the subscriber closed and closes its channels.
// Holding the write lock guarantees no send is in flight afterwards.
func (s *subscriber[T]) close() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false
	}
	s.closed = true
	close(s.done)
	close(s.ch)
	return true
}

func (s *subscriber[T]) send(msg Message[T]) sendResult {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return gone
	}

	select {
	case s.ch <- msg:
		return sent
	default:
		return full
	}
}
