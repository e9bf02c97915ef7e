package stream

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dmitrymomot/campusnotify/pkg/broadcast"
	"github.com/dmitrymomot/campusnotify/pkg/logger"
)

const (
	// DefaultHeartbeatInterval is how often an idle session emits a heartbeat.
	DefaultHeartbeatInterval = 30 * time.Second

	// DefaultMaxWriteFailures is the number of consecutive failed writes
	// after which a session gives up on the connection.
	DefaultMaxWriteFailures = 3
)

// State is the lifecycle stage of a Session.
type State int32

const (
	StateInit State = iota
	StateOpen
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateOpen:
		return "open"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Source hands out bus subscriptions. *broadcast.Bus[Event] implements it.
type Source interface {
	Subscribe(ctx context.Context, topic string) (broadcast.Subscriber[Event], error)
}

// Observer receives session lifecycle and frame notifications.
// Methods are called synchronously from the session goroutine.
type Observer interface {
	SessionOpened(userID string)
	SessionClosed(userID string, reason error)
	FrameWritten(kind Kind)
	FrameFailed(kind Kind, err error)
}

// NopObserver ignores every notification.
type NopObserver struct{}

func (NopObserver) SessionOpened(string)        {}
func (NopObserver) SessionClosed(string, error) {}
func (NopObserver) FrameWritten(Kind)           {}
func (NopObserver) FrameFailed(Kind, error)     {}

// Option configures a Session.
type Option func(*options)

type options struct {
	heartbeat        time.Duration
	maxWriteFailures int
	observer         Observer
	logger           *slog.Logger
}

// WithHeartbeatInterval overrides DefaultHeartbeatInterval. Non-positive values are ignored.
func WithHeartbeatInterval(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.heartbeat = d
		}
	}
}

// WithMaxWriteFailures overrides DefaultMaxWriteFailures. Non-positive values are ignored.
func WithMaxWriteFailures(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxWriteFailures = n
		}
	}
}

// WithObserver registers an Observer.
func WithObserver(obs Observer) Option {
	return func(o *options) {
		if obs != nil {
			o.observer = obs
		}
	}
}

// WithLogger sets the session logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

func newOptions(opts []Option) options {
	o := options{
		heartbeat:        DefaultHeartbeatInterval,
		maxWriteFailures: DefaultMaxWriteFailures,
		observer:         NopObserver{},
		logger:           slog.Default(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Session relays bus events for one user to one connection.
type Session struct {
	userID string
	source Source
	writer FrameWriter
	opts   options

	state atomic.Int32

	// mu serializes frame writes against the transition to StateClosed.
	mu       sync.Mutex
	failures int
}

// NewSession creates a session in StateInit. Nothing is subscribed until Run.
func NewSession(source Source, w FrameWriter, userID string, opts ...Option) *Session {
	return &Session{
		userID: userID,
		source: source,
		writer: w,
		opts:   newOptions(opts),
	}
}

// UserID returns the identity the session was created for.
func (s *Session) UserID() string { return s.userID }

// State returns the current lifecycle stage.
func (s *Session) State() State { return State(s.state.Load()) }

// Run opens the session and blocks until it closes. It returns nil when ctx
// is cancelled, ErrUnauthorized for an empty identity, ErrSubscriptionClosed
// when the bus drops the subscription and ErrTooManyWriteFailures when the
// connection stops accepting writes.
func (s *Session) Run(ctx context.Context) error {
	if s.userID == "" {
		s.state.Store(int32(StateClosed))
		return ErrUnauthorized
	}
	if !s.state.CompareAndSwap(int32(StateInit), int32(StateOpen)) {
		return ErrSessionStarted
	}

	log := s.opts.logger.With(logger.UserID(s.userID), logger.Component("stream"))

	sub, err := s.source.Subscribe(ctx, s.userID)
	if err != nil {
		s.state.Store(int32(StateClosed))
		return errors.Join(err, s.writer.Close())
	}

	ticker := time.NewTicker(s.opts.heartbeat)
	s.opts.observer.SessionOpened(s.userID)
	log.DebugContext(ctx, "Stream opened", logger.SubscriberID(sub.ID()))

	reason := s.loop(ctx, sub, ticker, log)

	if err := s.close(ticker, sub); err != nil {
		log.LogAttrs(context.WithoutCancel(ctx), slog.LevelWarn, "Stream cleanup failed", logger.Error(err))
	}
	s.opts.observer.SessionClosed(s.userID, reason)
	log.DebugContext(context.WithoutCancel(ctx), "Stream closed", logger.Error(reason))

	return reason
}

func (s *Session) loop(ctx context.Context, sub broadcast.Subscriber[Event], ticker *time.Ticker, log *slog.Logger) error {
	if err := s.emit(ctx, Connected(s.userID), log); err != nil {
		return err
	}

	events := sub.Receive(ctx)
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-events:
			if !ok {
				// Cancellation also closes the channel through the bus cleanup.
				if ctx.Err() != nil {
					return nil
				}
				return ErrSubscriptionClosed
			}
			if err := s.emit(ctx, msg.Data, log); err != nil {
				return err
			}
		case <-ticker.C:
			if err := s.emit(ctx, Heartbeat(), log); err != nil {
				return err
			}
		}
	}
}

// emit writes ev and returns an error only once the failure budget is spent.
func (s *Session) emit(ctx context.Context, ev Event, log *slog.Logger) error {
	err := s.Send(ev)
	if err == nil {
		return nil
	}

	s.mu.Lock()
	failures := s.failures
	s.mu.Unlock()

	log.LogAttrs(ctx, slog.LevelWarn, "Stream write failed",
		logger.Kind(string(ev.Kind)),
		slog.Int("consecutive_failures", failures),
		logger.Error(err),
	)
	if failures >= s.opts.maxWriteFailures {
		return ErrTooManyWriteFailures
	}
	return nil
}

// Send writes ev to the connection. A successful write resets the failure
// count. Once the session is closed Send does nothing and returns nil.
func (s *Session) Send(ev Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.State() == StateClosed {
		return nil
	}

	if err := s.writer.WriteFrame(ev); err != nil {
		s.failures++
		s.opts.observer.FrameFailed(ev.Kind, err)
		return err
	}

	s.failures = 0
	s.opts.observer.FrameWritten(ev.Kind)
	return nil
}

// close stops the ticker, closes the subscription and releases the writer.
// Every step runs regardless of the others.
func (s *Session) close(ticker *time.Ticker, sub broadcast.Subscriber[Event]) error {
	s.mu.Lock()
	s.state.Store(int32(StateClosed))
	s.mu.Unlock()

	ticker.Stop()
	return errors.Join(
		sub.Close(),
		s.writer.Close(),
	)
}
