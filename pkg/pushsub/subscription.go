package pushsub

import (
	"context"
	"fmt"
	"net/url"
	"time"
)

// Keys are the client encryption keys from PushSubscription.getKey.
type Keys struct {
	P256dh string `json:"p256dh"`
	Auth   string `json:"auth"`
}

// Subscription is a push endpoint owned by a user.
type Subscription struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Endpoint  string    `json:"endpoint"`
	Keys      Keys      `json:"keys"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Validate checks the fields a client supplies.
func (s Subscription) Validate() error {
	if s.UserID == "" {
		return fmt.Errorf("%w: user id is required", ErrInvalidSubscription)
	}
	u, err := url.Parse(s.Endpoint)
	if err != nil || u.Scheme != "https" || u.Host == "" {
		return fmt.Errorf("%w: endpoint must be an absolute https URL", ErrInvalidSubscription)
	}
	if s.Keys.P256dh == "" || s.Keys.Auth == "" {
		return fmt.Errorf("%w: p256dh and auth keys are required", ErrInvalidSubscription)
	}
	return nil
}

// Directory stores subscriptions keyed by endpoint.
type Directory interface {
	// Upsert stores sub, replacing owner and keys if the endpoint exists.
	// The stored subscription is returned.
	Upsert(ctx context.Context, sub Subscription) (Subscription, error)

	// Get returns the subscription for endpoint or ErrNotFound.
	Get(ctx context.Context, endpoint string) (Subscription, error)

	// ListByUser returns the user's subscriptions, oldest first.
	ListByUser(ctx context.Context, userID string) ([]Subscription, error)

	// DeleteByEndpoint removes the endpoint if userID owns it, else ErrNotFound.
	DeleteByEndpoint(ctx context.Context, userID, endpoint string) error
}
