// Package notify produces stream notifications for ride updates and
// proximity-targeted assistance requests.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dmitrymomot/campusnotify/pkg/geo"
	"github.com/dmitrymomot/campusnotify/pkg/logger"
	"github.com/dmitrymomot/campusnotify/pkg/stream"
)

const (
	TypeRideUpdate        = "ride_update"
	TypeAssistanceRequest = "assistance_request"
)

// DefaultAssistanceRadius applies when a request does not set one.
const DefaultAssistanceRadius = 1500.0

// Publisher delivers an event to every live session of a recipient.
type Publisher interface {
	Publish(ctx context.Context, topic string, ev stream.Event) error
}

// RideUpdate is the payload of a ride-request status change.
type RideUpdate struct {
	Type      string          `json:"type"`
	RideID    string          `json:"rideId"`
	Status    string          `json:"status"`
	Message   string          `json:"message,omitempty"`
	DriverID  string          `json:"driverId,omitempty"`
	Location  *geo.Coordinate `json:"location,omitempty"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// Assistance is a breakdown-assistance request.
type Assistance struct {
	RequesterID  string
	Origin       geo.Coordinate
	Message      string
	RadiusMeters float64
	// TargetRole limits matches to users with this role. Empty matches anyone.
	TargetRole string
}

// AssistanceNotice is what a matched user receives.
type AssistanceNotice struct {
	Type           string         `json:"type"`
	RequesterID    string         `json:"requesterId"`
	Message        string         `json:"message,omitempty"`
	Origin         geo.Coordinate `json:"origin"`
	Distance       string         `json:"distance"`
	DistanceMeters float64        `json:"distanceMeters"`
}

// Match is one user notified about an assistance request.
type Match struct {
	UserID         string  `json:"userId"`
	Distance       string  `json:"distance"`
	DistanceMeters float64 `json:"distanceMeters"`
}

// Service publishes producer events through a Publisher.
type Service struct {
	pub     Publisher
	roster  Roster
	regions []geo.Region
	radius  float64
	log     *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithRegions replaces the campus regions used to accept assistance origins.
func WithRegions(regions ...geo.Region) Option {
	return func(s *Service) {
		if len(regions) > 0 {
			s.regions = regions
		}
	}
}

// WithDefaultRadius sets the radius used when a request does not set one.
func WithDefaultRadius(meters float64) Option {
	return func(s *Service) {
		if meters > 0 {
			s.radius = meters
		}
	}
}

// WithLogger sets the service logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.log = l
		}
	}
}

// NewService creates a Service. It panics when pub or roster is nil.
func NewService(pub Publisher, roster Roster, opts ...Option) *Service {
	if pub == nil {
		panic("notify.NewService: publisher is required")
	}
	if roster == nil {
		panic("notify.NewService: roster is required")
	}

	s := &Service{
		pub:     pub,
		roster:  roster,
		regions: []geo.Region{geo.DefaultCampus},
		radius:  DefaultAssistanceRadius,
		log:     logger.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With(logger.Component("notify"))
	return s
}

// NotifyUser publishes a ride update to recipientID. It succeeds when the
// recipient has no open session.
func (s *Service) NotifyUser(ctx context.Context, recipientID string, update RideUpdate) error {
	if recipientID == "" {
		return ErrRecipientRequired
	}
	update.Type = TypeRideUpdate
	if update.UpdatedAt.IsZero() {
		update.UpdatedAt = time.Now().UTC()
	}

	if err := s.pub.Publish(ctx, recipientID, stream.Notification(update)); err != nil {
		return fmt.Errorf("notify: publish ride update: %w", err)
	}
	return nil
}

// NotifyNearby sends the assistance request to every candidate within the
// radius of its origin, nearest first, and returns who was notified.
func (s *Service) NotifyNearby(ctx context.Context, req Assistance) ([]Match, error) {
	if req.RequesterID == "" {
		return nil, ErrRequesterRequired
	}
	if err := req.Origin.Validate(); err != nil {
		return nil, err
	}
	if _, ok := geo.FindRegion(req.Origin, s.regions); !ok {
		return nil, ErrOutsideCampus
	}
	radius := req.RadiusMeters
	if radius == 0 {
		radius = s.radius
	}
	if radius < 0 {
		return nil, ErrInvalidRadius
	}

	candidates, err := s.roster.Candidates(ctx)
	if err != nil {
		return nil, fmt.Errorf("notify: list candidates: %w", err)
	}

	eligible := candidates[:0:0]
	for _, c := range candidates {
		if c.UserID == req.RequesterID {
			continue
		}
		if req.TargetRole != "" && c.Role != req.TargetRole {
			continue
		}
		eligible = append(eligible, c)
	}

	ranked := geo.Within(req.Origin, radius, eligible, func(c Candidate) geo.Coordinate { return c.Location })

	matches := make([]Match, 0, len(ranked))
	for _, r := range ranked {
		distance := geo.FormatDistance(r.DistanceMeters)
		notice := AssistanceNotice{
			Type:           TypeAssistanceRequest,
			RequesterID:    req.RequesterID,
			Message:        req.Message,
			Origin:         req.Origin,
			Distance:       distance,
			DistanceMeters: r.DistanceMeters,
		}
		if err := s.pub.Publish(ctx, r.Item.UserID, stream.Notification(notice)); err != nil {
			s.log.WarnContext(ctx, "Failed to publish assistance notice",
				logger.UserID(r.Item.UserID),
				logger.Error(err),
			)
			continue
		}
		matches = append(matches, Match{
			UserID:         r.Item.UserID,
			Distance:       distance,
			DistanceMeters: r.DistanceMeters,
		})
	}

	s.log.InfoContext(ctx, "Assistance request dispatched",
		logger.UserID(req.RequesterID),
		slog.Int("candidates", len(eligible)),
		slog.Int("matches", len(matches)),
	)
	return matches, nil
}
