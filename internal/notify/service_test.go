package notify_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/campusnotify/internal/notify"
	"github.com/dmitrymomot/campusnotify/pkg/broadcast"
	"github.com/dmitrymomot/campusnotify/pkg/geo"
	"github.com/dmitrymomot/campusnotify/pkg/stream"
)

type published struct {
	topic string
	event stream.Event
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []published
	failOn string
}

func (p *recordingPublisher) Publish(_ context.Context, topic string, ev stream.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if topic == p.failOn {
		return errors.New("boom")
	}
	p.events = append(p.events, published{topic: topic, event: ev})
	return nil
}

func (p *recordingPublisher) topics() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.topic)
	}
	return out
}

var campusCenter = geo.Coordinate{Latitude: 6.172, Longitude: 1.215}

func newRoster(t *testing.T) *notify.MemoryRoster {
	t.Helper()
	r := notify.NewMemoryRoster(0)
	// roughly 111m per 0.001 degree of latitude
	require.NoError(t, r.Report("requester", "student", campusCenter))
	require.NoError(t, r.Report("near", "driver", geo.Coordinate{Latitude: 6.173, Longitude: 1.215}))
	require.NoError(t, r.Report("mid", "student", geo.Coordinate{Latitude: 6.177, Longitude: 1.215}))
	require.NoError(t, r.Report("far", "driver", geo.Coordinate{Latitude: 6.2, Longitude: 1.215}))
	return r
}

func TestService_NotifyUser(t *testing.T) {
	t.Parallel()

	pub := &recordingPublisher{}
	svc := notify.NewService(pub, notify.NewMemoryRoster(0))

	err := svc.NotifyUser(context.Background(), "u42", notify.RideUpdate{RideID: "r1", Status: "accepted"})
	require.NoError(t, err)

	require.Len(t, pub.events, 1)
	assert.Equal(t, "u42", pub.events[0].topic)
	assert.Equal(t, stream.KindNotification, pub.events[0].event.Kind)

	update, ok := pub.events[0].event.Data.(notify.RideUpdate)
	require.True(t, ok)
	assert.Equal(t, notify.TypeRideUpdate, update.Type)
	assert.Equal(t, "accepted", update.Status)
	assert.False(t, update.UpdatedAt.IsZero())

	assert.ErrorIs(t, svc.NotifyUser(context.Background(), "", notify.RideUpdate{}), notify.ErrRecipientRequired)
}

func TestService_NotifyNearby(t *testing.T) {
	t.Parallel()

	t.Run("ranks matches and skips requester", func(t *testing.T) {
		t.Parallel()
		pub := &recordingPublisher{}
		svc := notify.NewService(pub, newRoster(t))

		matches, err := svc.NotifyNearby(context.Background(), notify.Assistance{
			RequesterID:  "requester",
			Origin:       campusCenter,
			Message:      "flat tyre",
			RadiusMeters: 1000,
		})
		require.NoError(t, err)
		require.Len(t, matches, 2)
		assert.Equal(t, "near", matches[0].UserID)
		assert.Equal(t, "mid", matches[1].UserID)
		assert.Equal(t, "111m", matches[0].Distance)
		assert.Equal(t, []string{"near", "mid"}, pub.topics())

		notice, ok := pub.events[0].event.Data.(notify.AssistanceNotice)
		require.True(t, ok)
		assert.Equal(t, notify.TypeAssistanceRequest, notice.Type)
		assert.Equal(t, "requester", notice.RequesterID)
		assert.Equal(t, "flat tyre", notice.Message)
		assert.Equal(t, matches[0].Distance, notice.Distance)
	})

	t.Run("target role", func(t *testing.T) {
		t.Parallel()
		pub := &recordingPublisher{}
		svc := notify.NewService(pub, newRoster(t))

		matches, err := svc.NotifyNearby(context.Background(), notify.Assistance{
			RequesterID:  "requester",
			Origin:       campusCenter,
			RadiusMeters: 10000,
			TargetRole:   "driver",
		})
		require.NoError(t, err)
		require.Len(t, matches, 2)
		assert.Equal(t, "near", matches[0].UserID)
		assert.Equal(t, "far", matches[1].UserID)
		assert.Contains(t, matches[1].Distance, "km")
	})

	t.Run("publish failure skips the match", func(t *testing.T) {
		t.Parallel()
		pub := &recordingPublisher{failOn: "near"}
		svc := notify.NewService(pub, newRoster(t))

		matches, err := svc.NotifyNearby(context.Background(), notify.Assistance{
			RequesterID:  "requester",
			Origin:       campusCenter,
			RadiusMeters: 1000,
		})
		require.NoError(t, err)
		require.Len(t, matches, 1)
		assert.Equal(t, "mid", matches[0].UserID)
	})

	t.Run("default radius", func(t *testing.T) {
		t.Parallel()
		pub := &recordingPublisher{}
		svc := notify.NewService(pub, newRoster(t))

		matches, err := svc.NotifyNearby(context.Background(), notify.Assistance{
			RequesterID: "requester",
			Origin:      campusCenter,
		})
		require.NoError(t, err)
		assert.Len(t, matches, 2)
	})
}

func TestService_NotifyNearby_Rejects(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		req  notify.Assistance
		want error
	}{
		{"no requester", notify.Assistance{Origin: campusCenter}, notify.ErrRequesterRequired},
		{"invalid origin", notify.Assistance{RequesterID: "r", Origin: geo.Coordinate{Latitude: 91}}, geo.ErrInvalidCoordinate},
		{"outside campus", notify.Assistance{RequesterID: "r", Origin: geo.Coordinate{Latitude: 48.85, Longitude: 2.35}}, notify.ErrOutsideCampus},
		{"negative radius", notify.Assistance{RequesterID: "r", Origin: campusCenter, RadiusMeters: -1}, notify.ErrInvalidRadius},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			pub := &recordingPublisher{}
			svc := notify.NewService(pub, newRoster(t))

			_, err := svc.NotifyNearby(context.Background(), tt.req)
			assert.ErrorIs(t, err, tt.want)
			assert.Empty(t, pub.events)
		})
	}
}

func TestService_WithDefaultRadius(t *testing.T) {
	t.Parallel()

	pub := &recordingPublisher{}
	svc := notify.NewService(pub, newRoster(t), notify.WithDefaultRadius(200))

	matches, err := svc.NotifyNearby(context.Background(), notify.Assistance{
		RequesterID: "requester",
		Origin:      campusCenter,
	})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "near", matches[0].UserID)
}

func TestService_WithRegions(t *testing.T) {
	t.Parallel()

	paris := geo.Region{Name: "paris", MinLat: 48.8, MaxLat: 48.9, MinLng: 2.3, MaxLng: 2.4}
	svc := notify.NewService(&recordingPublisher{}, notify.NewMemoryRoster(0), notify.WithRegions(paris))

	_, err := svc.NotifyNearby(context.Background(), notify.Assistance{RequesterID: "r", Origin: campusCenter})
	assert.ErrorIs(t, err, notify.ErrOutsideCampus)

	matches, err := svc.NotifyNearby(context.Background(), notify.Assistance{
		RequesterID: "r",
		Origin:      geo.Coordinate{Latitude: 48.85, Longitude: 2.35},
	})
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestService_DeliversThroughBus(t *testing.T) {
	t.Parallel()

	bus := broadcast.NewBus[stream.Event]()
	t.Cleanup(func() { _ = bus.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sub, err := bus.Subscribe(ctx, "u42")
	require.NoError(t, err)

	svc := notify.NewService(bus, notify.NewMemoryRoster(0))
	require.NoError(t, svc.NotifyUser(ctx, "u42", notify.RideUpdate{RideID: "r9", Status: "arrived"}))

	select {
	case msg := <-sub.Receive(ctx):
		assert.Equal(t, stream.KindNotification, msg.Data.Kind)
	case <-time.After(time.Second):
		t.Fatal("notification not delivered")
	}
}

func TestNewService_Panics(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() { notify.NewService(nil, notify.NewMemoryRoster(0)) })
	assert.Panics(t, func() { notify.NewService(&recordingPublisher{}, nil) })
}
