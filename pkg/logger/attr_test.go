package logger_test

import (
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/campusnotify/pkg/logger"
)

func TestGroup(t *testing.T) {
	attr := logger.Group("req", slog.String("id", "1"), slog.Int("n", 2))
	require.Equal(t, "req", attr.Key)
	require.Equal(t, slog.KindGroup, attr.Value.Kind())
	g := attr.Value.Group()
	require.Len(t, g, 2)
	assert.Equal(t, "id", g[0].Key)
	assert.Equal(t, "n", g[1].Key)
}

func TestErrors(t *testing.T) {
	err1 := errors.New("first")
	err2 := errors.New("second")

	attr := logger.Errors(err1, nil, err2)
	require.Equal(t, "errors", attr.Key)
	g := attr.Value.Group()
	require.Len(t, g, 2)
	assert.Equal(t, err1, g[0].Value.Any())
	assert.Equal(t, err2, g[1].Value.Any())

	assert.True(t, logger.Errors(nil).Equal(slog.Attr{}))
}

func TestError(t *testing.T) {
	err := errors.New("boom")
	attr := logger.Error(err)
	require.Equal(t, "error", attr.Key)
	assert.Equal(t, err, attr.Value.Any())

	assert.True(t, logger.Error(nil).Equal(slog.Attr{}))
}

func TestStringAttrs(t *testing.T) {
	tests := []struct {
		name string
		attr slog.Attr
		key  string
		want string
	}{
		{"user id", logger.UserID("u42"), "user_id", "u42"},
		{"role", logger.Role("driver"), "role", "driver"},
		{"request id", logger.RequestID("abc"), "request_id", "abc"},
		{"topic", logger.Topic("u42"), "topic", "u42"},
		{"subscriber id", logger.SubscriberID("s1"), "subscriber_id", "s1"},
		{"kind", logger.Kind("heartbeat"), "kind", "heartbeat"},
		{"rate key", logger.RateKey("report:u42"), "rate_key", "report:u42"},
		{"component", logger.Component("stream"), "component", "stream"},
		{"event", logger.Event("evicted"), "event", "evicted"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.key, tt.attr.Key)
			assert.Equal(t, tt.want, tt.attr.Value.String())
		})
	}
}

func TestEmptyIdentifiersDropped(t *testing.T) {
	assert.True(t, logger.UserID("").Equal(slog.Attr{}))
	assert.True(t, logger.Role("").Equal(slog.Attr{}))
	assert.True(t, logger.RequestID("").Equal(slog.Attr{}))
}

func TestDuration(t *testing.T) {
	attr := logger.Duration(30 * time.Second)
	require.Equal(t, "duration", attr.Key)
	assert.Equal(t, 30*time.Second, attr.Value.Duration())
}
