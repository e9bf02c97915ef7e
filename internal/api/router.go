// Package api wires the HTTP surface of the notification service.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dmitrymomot/campusnotify/internal/notify"
	"github.com/dmitrymomot/campusnotify/pkg/geo"
	"github.com/dmitrymomot/campusnotify/pkg/httpserver"
	"github.com/dmitrymomot/campusnotify/pkg/jwt"
	"github.com/dmitrymomot/campusnotify/pkg/logger"
	"github.com/dmitrymomot/campusnotify/pkg/pushsub"
	"github.com/dmitrymomot/campusnotify/pkg/ratelimit"
	"github.com/dmitrymomot/campusnotify/pkg/stream"
)

// Roles allowed to publish ride updates.
const (
	RoleDriver = "driver"
	RoleAdmin  = "admin"
)

// Rate limit action names, used in keys and metrics.
const (
	ActionPushSubscribe = "push_subscribe"
	ActionAssistance    = "assistance"
)

// Policy is a fixed-window budget.
type Policy struct {
	Limit  int
	Window time.Duration
}

// LocationReporter records a user's last known position.
type LocationReporter interface {
	Report(userID, role string, loc geo.Coordinate) error
}

// MetricsRecorder receives HTTP and rate limit observations.
type MetricsRecorder interface {
	Middleware(next http.Handler) http.Handler
	Handler() http.Handler
	RateLimitDenied(action string)
}

// Deps are the collaborators of the router. Metrics and ReadinessChecks are
// optional.
type Deps struct {
	Logger        *slog.Logger
	Source        stream.Source
	Authenticator *jwt.Authenticator
	Notifier      *notify.Service
	Locations     LocationReporter
	Directory     pushsub.Directory
	Governor      *ratelimit.Governor
	RateStore     ratelimit.Store

	PushSubscribe Policy
	Assistance    Policy

	StreamOptions   []stream.Option
	Metrics         MetricsRecorder
	ReadinessChecks []httpserver.Check
}

// NewRouter builds the HTTP handler. It panics if a required dependency is
// missing or a rate limit policy is invalid.
func NewRouter(d Deps) http.Handler {
	if d.Source == nil || d.Authenticator == nil || d.Notifier == nil ||
		d.Locations == nil || d.Directory == nil || d.Governor == nil || d.RateStore == nil {
		panic("api.NewRouter: missing dependency")
	}
	if d.Logger == nil {
		d.Logger = logger.Discard()
	}
	log := d.Logger.With(logger.Component("api"))

	assistanceLimiter, err := ratelimit.NewFixedWindow(d.RateStore, d.Assistance.Limit, d.Assistance.Window)
	if err != nil {
		panic("api.NewRouter: assistance policy: " + err.Error())
	}

	h := &handlers{
		log:       log,
		notifier:  d.Notifier,
		locations: d.Locations,
		directory: d.Directory,
		governor:  d.Governor,
		push:      d.PushSubscribe,
		metrics:   d.Metrics,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	if d.Metrics != nil {
		r.Use(d.Metrics.Middleware)
	}
	r.Use(accessLog(log))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", httpserver.HealthCheckHandler(log, 0))
	r.Get("/readyz", httpserver.HealthCheckHandler(log, 5*time.Second, d.ReadinessChecks...))
	if d.Metrics != nil {
		r.Handle("/metrics", d.Metrics.Handler())
	}

	streamOpts := append([]stream.Option{stream.WithLogger(log)}, d.StreamOptions...)

	r.Route("/api", func(r chi.Router) {
		r.Get("/notifications/stream", stream.Handler(d.Source, d.Authenticator, streamOpts...).ServeHTTP)

		r.Group(func(r chi.Router) {
			r.Use(jwt.AuthenticatorMiddleware(d.Authenticator))

			r.Put("/location", h.reportLocation)

			r.Get("/push/subscriptions", h.listSubscriptions)
			r.Post("/push/subscriptions", h.subscribe)
			r.Delete("/push/subscriptions", h.unsubscribe)

			r.With(jwt.RequireRole(RoleDriver, RoleAdmin)).
				Post("/events/ride-updates", h.rideUpdate)

			r.With(ratelimit.Middleware(assistanceLimiter,
				ratelimit.Composite(ratelimit.Static(ActionAssistance), ratelimit.ByContext(jwt.UserIDFromContext)),
				ratelimit.WithMiddlewareLogger(log),
				ratelimit.WithOnLimitReached(h.limitReached(ActionAssistance)),
			)).Post("/events/assistance", h.assistance)
		})
	})

	return r
}

// accessLog logs one line per request after it completes.
func accessLog(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			level := slog.LevelInfo
			if status >= http.StatusInternalServerError {
				level = slog.LevelError
			}
			log.LogAttrs(r.Context(), level, "HTTP request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", status),
				slog.Int("bytes", ww.BytesWritten()),
				logger.Duration(time.Since(start)),
				slog.String("remote_ip", r.RemoteAddr),
			)
		})
	}
}

// RequestIDExtractor adds chi's request ID to every record logged with a
// request context.
func RequestIDExtractor() logger.ContextExtractor {
	return logger.FromContextValue("request_id", middleware.RequestIDKey)
}
