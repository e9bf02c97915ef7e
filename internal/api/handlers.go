package api

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/dmitrymomot/campusnotify/internal/notify"
	"github.com/dmitrymomot/campusnotify/pkg/geo"
	"github.com/dmitrymomot/campusnotify/pkg/jwt"
	"github.com/dmitrymomot/campusnotify/pkg/logger"
	"github.com/dmitrymomot/campusnotify/pkg/pushsub"
	"github.com/dmitrymomot/campusnotify/pkg/ratelimit"
)

type handlers struct {
	log       *slog.Logger
	notifier  *notify.Service
	locations LocationReporter
	directory pushsub.Directory
	governor  *ratelimit.Governor
	push      Policy
	metrics   MetricsRecorder
}

type subscribeRequest struct {
	Endpoint string       `json:"endpoint"`
	Keys     pushsub.Keys `json:"keys"`
}

type unsubscribeRequest struct {
	Endpoint string `json:"endpoint"`
}

type locationRequest struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type rideUpdateRequest struct {
	RecipientID string          `json:"recipientId"`
	RideID      string          `json:"rideId"`
	Status      string          `json:"status"`
	Message     string          `json:"message,omitempty"`
	Location    *geo.Coordinate `json:"location,omitempty"`
}

type assistanceRequest struct {
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
	Message      string  `json:"message,omitempty"`
	RadiusMeters float64 `json:"radiusMeters,omitempty"`
	TargetRole   string  `json:"targetRole,omitempty"`
}

type assistanceResponse struct {
	Matches []notify.Match `json:"matches"`
}

func identity(r *http.Request) jwt.Identity {
	id, _ := jwt.FromContext(r.Context())
	return id
}

func (h *handlers) reportLocation(w http.ResponseWriter, r *http.Request) {
	var req locationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.log, err)
		return
	}

	id := identity(r)
	loc := geo.Coordinate{Latitude: req.Latitude, Longitude: req.Longitude}
	if err := h.locations.Report(id.UserID, id.Role, loc); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) listSubscriptions(w http.ResponseWriter, r *http.Request) {
	subs, err := h.directory.ListByUser(r.Context(), identity(r).UserID)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	if subs == nil {
		subs = []pushsub.Subscription{}
	}
	writeJSON(w, http.StatusOK, subs)
}

func (h *handlers) subscribe(w http.ResponseWriter, r *http.Request) {
	userID := identity(r).UserID

	// Denied attempts count against the window too.
	result, err := h.governor.Check(r.Context(), ActionPushSubscribe+":"+userID, h.push.Limit, h.push.Window)
	switch {
	case err != nil:
		h.log.LogAttrs(r.Context(), slog.LevelWarn, "Rate governor failed, allowing request",
			logger.UserID(userID),
			logger.Error(err),
		)
	case !result.Allowed:
		ratelimit.SetHeaders(w, result)
		h.limitReached(ActionPushSubscribe)(w, r, result)
		return
	default:
		ratelimit.SetHeaders(w, result)
	}

	var req subscribeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.log, err)
		return
	}

	sub, err := h.directory.Upsert(r.Context(), pushsub.Subscription{
		UserID:   userID,
		Endpoint: req.Endpoint,
		Keys:     req.Keys,
	})
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

func (h *handlers) unsubscribe(w http.ResponseWriter, r *http.Request) {
	var req unsubscribeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	if req.Endpoint == "" {
		writeError(w, r, h.log, ErrUnprocessableEntity)
		return
	}

	if err := h.directory.DeleteByEndpoint(r.Context(), identity(r).UserID, req.Endpoint); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) rideUpdate(w http.ResponseWriter, r *http.Request) {
	var req rideUpdateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	if req.Location != nil {
		if err := req.Location.Validate(); err != nil {
			writeError(w, r, h.log, err)
			return
		}
	}

	err := h.notifier.NotifyUser(r.Context(), req.RecipientID, notify.RideUpdate{
		RideID:   req.RideID,
		Status:   req.Status,
		Message:  req.Message,
		DriverID: identity(r).UserID,
		Location: req.Location,
	})
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (h *handlers) assistance(w http.ResponseWriter, r *http.Request) {
	var req assistanceRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.log, err)
		return
	}

	matches, err := h.notifier.NotifyNearby(r.Context(), notify.Assistance{
		RequesterID:  identity(r).UserID,
		Origin:       geo.Coordinate{Latitude: req.Latitude, Longitude: req.Longitude},
		Message:      req.Message,
		RadiusMeters: req.RadiusMeters,
		TargetRole:   req.TargetRole,
	})
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, assistanceResponse{Matches: matches})
}

// limitReached answers 429 with Retry-After and counts the denial.
func (h *handlers) limitReached(action string) func(http.ResponseWriter, *http.Request, *ratelimit.Result) {
	return func(w http.ResponseWriter, r *http.Request, result *ratelimit.Result) {
		if h.metrics != nil {
			h.metrics.RateLimitDenied(action)
		}
		retryAfter := max(int(result.RetryAfter().Seconds()), 1)
		w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
		writeError(w, r, h.log, ErrTooManyRequests)
	}
}
