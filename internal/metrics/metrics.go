// Package metrics exposes Prometheus collectors for streams, the bus, rate
// limiting and HTTP traffic.
package metrics

import (
	"errors"
	"net/http"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dmitrymomot/campusnotify/pkg/stream"
)

const namespace = "campusnotify"

// Metrics owns every collector of the service on its own registry.
type Metrics struct {
	registry *prometheus.Registry

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Stream metrics
	sessionsActive prometheus.Gauge
	sessionsOpened prometheus.Counter
	sessionsClosed *prometheus.CounterVec
	framesWritten  *prometheus.CounterVec
	framesFailed   *prometheus.CounterVec

	// Bus metrics
	busTopics      prometheus.Gauge
	busSubscribers prometheus.Gauge
	busEvictions   prometheus.Counter

	// Rate limiting
	rateLimitDenied *prometheus.CounterVec
	rateLimitSwept  prometheus.Counter

	mu          sync.Mutex
	topicCounts map[string]int
}

// New creates the collectors together with Go runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		registry:    reg,
		topicCounts: make(map[string]int),

		httpRequestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed",
		}, []string{"method", "route", "status"}),

		httpRequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"method", "route"}),

		sessionsActive: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "stream",
			Name:      "sessions_active",
			Help:      "Currently open stream sessions",
		}),

		sessionsOpened: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "stream",
			Name:      "sessions_opened_total",
			Help:      "Total stream sessions opened",
		}),

		sessionsClosed: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "stream",
			Name:      "sessions_closed_total",
			Help:      "Total stream sessions closed by reason",
		}, []string{"reason"}),

		framesWritten: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "stream",
			Name:      "frames_written_total",
			Help:      "Total frames written to clients",
		}, []string{"kind"}),

		framesFailed: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "stream",
			Name:      "frames_failed_total",
			Help:      "Total frames that failed to write",
		}, []string{"kind"}),

		busTopics: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "bus",
			Name:      "topics",
			Help:      "Topics with at least one subscriber",
		}),

		busSubscribers: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "bus",
			Name:      "subscribers",
			Help:      "Current bus subscribers across all topics",
		}),

		busEvictions: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "bus",
			Name:      "evictions_total",
			Help:      "Subscribers evicted because their buffer was full",
		}),

		rateLimitDenied: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ratelimit",
			Name:      "denied_total",
			Help:      "Requests denied by the rate governor",
		}, []string{"action"}),

		rateLimitSwept: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ratelimit",
			Name:      "swept_entries_total",
			Help:      "Expired rate limit entries removed by the sweep",
		}),
	}
}

// Registry returns the registry backing the collectors.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// SubscriberCountChanged is a broadcast.WithSubscriberCountHook callback.
func (m *Metrics) SubscriberCountChanged(topic string, subscribers int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if subscribers <= 0 {
		delete(m.topicCounts, topic)
	} else {
		m.topicCounts[topic] = subscribers
	}

	total := 0
	for _, n := range m.topicCounts {
		total += n
	}
	m.busTopics.Set(float64(len(m.topicCounts)))
	m.busSubscribers.Set(float64(total))
}

// SubscriberEvicted is a broadcast.WithEvictHook callback.
func (m *Metrics) SubscriberEvicted(string, string) {
	m.busEvictions.Inc()
}

// RateLimitSwept is a ratelimit.WithSweepHook callback.
func (m *Metrics) RateLimitSwept(removed int) {
	m.rateLimitSwept.Add(float64(removed))
}

// RateLimitDenied counts a denied action.
func (m *Metrics) RateLimitDenied(action string) {
	m.rateLimitDenied.WithLabelValues(action).Inc()
}

// RegisterPool exposes pgx pool statistics.
func (m *Metrics) RegisterPool(pool *pgxpool.Pool) {
	gauge := func(name, help string, value func(*pgxpool.Stat) float64) prometheus.GaugeFunc {
		return prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "db",
			Name:      name,
			Help:      help,
		}, func() float64 { return value(pool.Stat()) })
	}

	m.registry.MustRegister(
		gauge("pool_conns_open", "Total connections open in the database pool",
			func(s *pgxpool.Stat) float64 { return float64(s.TotalConns()) }),
		gauge("pool_conns_acquired", "Connections currently acquired from the database pool",
			func(s *pgxpool.Stat) float64 { return float64(s.AcquiredConns()) }),
		gauge("pool_conns_idle", "Idle connections in the database pool",
			func(s *pgxpool.Stat) float64 { return float64(s.IdleConns()) }),
	)
}

// SessionOpened implements stream.Observer.
func (m *Metrics) SessionOpened(string) {
	m.sessionsOpened.Inc()
	m.sessionsActive.Inc()
}

func (m *Metrics) SessionClosed(_ string, reason error) {
	m.sessionsActive.Dec()
	m.sessionsClosed.WithLabelValues(closeReason(reason)).Inc()
}

func (m *Metrics) FrameWritten(kind stream.Kind) {
	m.framesWritten.WithLabelValues(string(kind)).Inc()
}

func (m *Metrics) FrameFailed(kind stream.Kind, _ error) {
	m.framesFailed.WithLabelValues(string(kind)).Inc()
}

func closeReason(err error) string {
	switch {
	case err == nil:
		return "client_gone"
	case errors.Is(err, stream.ErrSubscriptionClosed):
		return "evicted"
	case errors.Is(err, stream.ErrTooManyWriteFailures):
		return "write_failures"
	default:
		return "error"
	}
}

var _ stream.Observer = (*Metrics)(nil)
