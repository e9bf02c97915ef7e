package broadcast

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/campusnotify/pkg/logger"
)

// DefaultBufferSize is the per-subscriber channel capacity used when no
// WithBufferSize option is given.
const DefaultBufferSize = 64

// Bus routes messages to the subscribers of a topic.
// All methods are safe for concurrent use.
type Bus[T any] struct {
	topics map[string]map[*subscriber[T]]struct{}
	closed bool
	mu     sync.RWMutex

	cleanupWg sync.WaitGroup // tracks per-subscriber cancellation watchers

	bufferSize int
	logger     *slog.Logger
	countHook  func(topic string, subscribers int)
	evictHook  func(topic, subscriberID string)
}

// Option configures a Bus.
type Option func(*busConfig)

type busConfig struct {
	bufferSize int
	logger     *slog.Logger
	countHook  func(topic string, subscribers int)
	evictHook  func(topic, subscriberID string)
}

// WithBufferSize sets the per-subscriber channel capacity. Values below 1 are raised to 1.
func WithBufferSize(size int) Option {
	return func(c *busConfig) {
		c.bufferSize = max(size, 1)
	}
}

// WithLogger sets the logger used for eviction diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(c *busConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithSubscriberCountHook registers a callback invoked with the new number of
// subscribers of a topic after every subscribe or removal.
func WithSubscriberCountHook(fn func(topic string, subscribers int)) Option {
	return func(c *busConfig) {
		c.countHook = fn
	}
}

// WithEvictHook registers a callback invoked when a slow subscriber is evicted.
func WithEvictHook(fn func(topic, subscriberID string)) Option {
	return func(c *busConfig) {
		c.evictHook = fn
	}
}

// NewBus creates an empty bus.
func NewBus[T any](opts ...Option) *Bus[T] {
	cfg := busConfig{
		bufferSize: DefaultBufferSize,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Bus[T]{
		topics:     make(map[string]map[*subscriber[T]]struct{}),
		bufferSize: cfg.bufferSize,
		logger:     cfg.logger,
		countHook:  cfg.countHook,
		evictHook:  cfg.evictHook,
	}
}

// Subscribe registers a new subscriber under topic. The subscriber is removed
// automatically when ctx is cancelled.
func (b *Bus[T]) Subscribe(ctx context.Context, topic string) (Subscriber[T], error) {
	if topic == "" {
		return nil, ErrTopicRequired
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil, ErrBusClosed
	}

	sub := newSubscriber(b, uuid.NewString(), topic, b.bufferSize)
	subs, ok := b.topics[topic]
	if !ok {
		subs = make(map[*subscriber[T]]struct{})
		b.topics[topic] = subs
	}
	subs[sub] = struct{}{}
	count := len(subs)

	// Registered under the lock so Close never races Add against Wait.
	b.cleanupWg.Add(1)
	b.mu.Unlock()

	go func() {
		defer b.cleanupWg.Done()
		select {
		case <-ctx.Done():
			_ = b.remove(sub)
		case <-sub.done:
		}
	}()

	b.notifyCount(topic, count)
	return sub, nil
}

// Unsubscribe removes sub from the bus. It is idempotent and safe to call
// after the topic has no subscribers left.
func (b *Bus[T]) Unsubscribe(sub Subscriber[T]) {
	if sub == nil {
		return
	}
	_ = sub.Close()
}

// Publish delivers data to every subscriber currently registered under topic.
// It never blocks on a subscriber: a subscriber with a full buffer is evicted.
// Publishing to a topic without subscribers is a no-op.
func (b *Bus[T]) Publish(ctx context.Context, topic string, data T) error {
	if topic == "" {
		return ErrTopicRequired
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	// Snapshot under the read lock; sends happen without holding it.
	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return ErrBusClosed
	}
	subs := b.topics[topic]
	targets := make([]*subscriber[T], 0, len(subs))
	for sub := range subs {
		targets = append(targets, sub)
	}
	b.mu.RUnlock()

	if len(targets) == 0 {
		return nil
	}

	msg := Message[T]{
		ID:        uuid.NewString(),
		Topic:     topic,
		Data:      data,
		Timestamp: time.Now(),
	}

	for _, sub := range targets {
		if sub.send(msg) == full {
			b.evict(ctx, sub)
		}
	}

	return nil
}

// SubscriberCount returns the number of subscribers registered under topic.
func (b *Bus[T]) SubscriberCount(topic string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.topics[topic])
}

// Topics returns the topics that currently have at least one subscriber.
func (b *Bus[T]) Topics() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	topics := make([]string, 0, len(b.topics))
	for topic := range b.topics {
		topics = append(topics, topic)
	}
	return topics
}

// Close removes and closes every subscriber. Subsequent Subscribe and Publish
// calls return ErrBusClosed. Close is idempotent.
func (b *Bus[T]) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true

	var subs []*subscriber[T]
	for _, topicSubs := range b.topics {
		for sub := range topicSubs {
			subs = append(subs, sub)
		}
	}
	clear(b.topics)
	b.mu.Unlock()

	for _, sub := range subs {
		sub.close()
	}

	b.cleanupWg.Wait()
	return nil
}

func (b *Bus[T]) evict(ctx context.Context, sub *subscriber[T]) {
	// Concurrent publishers may both see the buffer full; only the first one reports.
	if !b.remove(sub) {
		return
	}
	b.logger.LogAttrs(ctx, slog.LevelWarn, "Evicted slow subscriber",
		logger.Topic(sub.topic),
		logger.SubscriberID(sub.id),
		slog.Int("buffer_size", b.bufferSize),
	)
	if b.evictHook != nil {
		b.evictHook(sub.topic, sub.id)
	}
}

// remove deletes sub from its topic, dropping the topic when it becomes empty,
// and closes the subscriber. It reports whether sub was still registered.
func (b *Bus[T]) remove(sub *subscriber[T]) bool {
	b.mu.Lock()
	removed := false
	count := 0
	if subs, ok := b.topics[sub.topic]; ok {
		if _, ok := subs[sub]; ok {
			delete(subs, sub)
			removed = true
		}
		count = len(subs)
		if count == 0 {
			delete(b.topics, sub.topic)
		}
	}
	b.mu.Unlock()

	sub.close()

	if removed {
		b.notifyCount(sub.topic, count)
	}
	return removed
}

func (b *Bus[T]) notifyCount(topic string, count int) {
	if b.countHook != nil {
		b.countHook(topic, count)
	}
}
