package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/campusnotify/pkg/stream"
)

func TestMetrics_StreamObserver(t *testing.T) {
	t.Parallel()
	m := New()

	m.SessionOpened("u1")
	m.SessionOpened("u2")
	m.FrameWritten(stream.KindConnected)
	m.FrameWritten(stream.KindHeartbeat)
	m.FrameFailed(stream.KindHeartbeat, errors.New("broken pipe"))
	m.SessionClosed("u1", nil)
	m.SessionClosed("u2", stream.ErrSubscriptionClosed)

	assert.Equal(t, 0.0, testutil.ToFloat64(m.sessionsActive))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.sessionsOpened))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.sessionsClosed.WithLabelValues("client_gone")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.sessionsClosed.WithLabelValues("evicted")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.framesWritten.WithLabelValues("heartbeat")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.framesFailed.WithLabelValues("heartbeat")))
}

func TestCloseReason(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "client_gone", closeReason(nil))
	assert.Equal(t, "evicted", closeReason(stream.ErrSubscriptionClosed))
	assert.Equal(t, "write_failures", closeReason(stream.ErrTooManyWriteFailures))
	assert.Equal(t, "error", closeReason(errors.New("x")))
}

func TestMetrics_BusHooks(t *testing.T) {
	t.Parallel()
	m := New()

	m.SubscriberCountChanged("a", 1)
	m.SubscriberCountChanged("a", 2)
	m.SubscriberCountChanged("b", 1)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.busTopics))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.busSubscribers))

	m.SubscriberCountChanged("a", 0)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.busTopics))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.busSubscribers))

	m.SubscriberEvicted("b", "sub-1")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.busEvictions))
}

func TestMetrics_RateLimit(t *testing.T) {
	t.Parallel()
	m := New()

	m.RateLimitSwept(3)
	m.RateLimitSwept(0)
	m.RateLimitDenied("push_subscribe")

	assert.Equal(t, 3.0, testutil.ToFloat64(m.rateLimitSwept))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.rateLimitDenied.WithLabelValues("push_subscribe")))
}

func TestMetrics_MiddlewareAndHandler(t *testing.T) {
	t.Parallel()
	m := New()

	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/items/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	r.Handle("/metrics", m.Handler())

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/items/42", nil))
	require.Equal(t, http.StatusTeapot, rec.Code)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequestsTotal.WithLabelValues("GET", "/items/{id}", "418")))

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "campusnotify_http_requests_total")
	assert.Contains(t, string(body), "go_goroutines")
}
