package stream

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/dmitrymomot/campusnotify/pkg/logger"
)

// Authenticator resolves the user behind a stream request.
type Authenticator interface {
	Authenticate(r *http.Request) (userID string, err error)
}

// AuthenticatorFunc adapts a function to Authenticator.
type AuthenticatorFunc func(r *http.Request) (string, error)

func (f AuthenticatorFunc) Authenticate(r *http.Request) (string, error) {
	return f(r)
}

// Handler serves one Session per request. Requests that fail authentication
// get 401 before anything is subscribed. Session options apply to every
// session the handler creates.
func Handler(source Source, auth Authenticator, opts ...Option) http.Handler {
	if source == nil {
		panic("stream.Handler: source is required")
	}
	if auth == nil {
		panic("stream.Handler: authenticator is required")
	}
	log := newOptions(opts).logger

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, err := auth.Authenticate(r)
		if err != nil || userID == "" {
			log.LogAttrs(r.Context(), slog.LevelDebug, "Stream rejected", logger.Error(err))
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}

		sw, err := NewSSEWriter(w)
		if err != nil {
			log.LogAttrs(r.Context(), slog.LevelError, "Stream unavailable", logger.Error(err))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		// Streams outlive any server-wide write timeout.
		_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})

		h := w.Header()
		h.Set("Content-Type", "text/event-stream")
		h.Set("Cache-Control", "no-cache")
		h.Set("Connection", "keep-alive")
		h.Set("X-Accel-Buffering", "no")
		w.WriteHeader(http.StatusOK)

		err = NewSession(source, sw, userID, opts...).Run(r.Context())
		if err != nil && !errors.Is(err, ErrSubscriptionClosed) {
			log.LogAttrs(r.Context(), slog.LevelWarn, "Stream ended with error",
				logger.UserID(userID),
				logger.Error(err),
			)
		}
	})
}
