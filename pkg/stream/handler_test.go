package stream_test

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/campusnotify/pkg/broadcast"
	"github.com/dmitrymomot/campusnotify/pkg/stream"
)

type frame struct {
	ID    string
	Event stream.Event
	Data  map[string]any
}

// readFrames decodes SSE frames from body until EOF.
func readFrames(t *testing.T, body *bufio.Reader) <-chan frame {
	t.Helper()
	out := make(chan frame, 16)
	go func() {
		defer close(out)
		var f frame
		for {
			line, err := body.ReadString('\n')
			if err != nil {
				return
			}
			line = strings.TrimRight(line, "\n")
			switch {
			case strings.HasPrefix(line, "id: "):
				f.ID = strings.TrimPrefix(line, "id: ")
			case strings.HasPrefix(line, "data: "):
				raw := []byte(strings.TrimPrefix(line, "data: "))
				_ = json.Unmarshal(raw, &f.Event)
				_ = json.Unmarshal(raw, &f.Data)
			case line == "":
				out <- f
				f = frame{}
			}
		}
	}()
	return out
}

func nextFrame(t *testing.T, frames <-chan frame) frame {
	t.Helper()
	select {
	case f, ok := <-frames:
		require.True(t, ok, "stream ended")
		return f
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for frame")
	}
	return frame{}
}

func staticAuth(userID string) stream.Authenticator {
	return stream.AuthenticatorFunc(func(*http.Request) (string, error) {
		return userID, nil
	})
}

func TestHandler_Stream(t *testing.T) {
	t.Parallel()

	bus := broadcast.NewBus[stream.Event]()
	defer bus.Close()

	srv := httptest.NewServer(stream.Handler(bus, staticAuth("u42"), stream.WithHeartbeatInterval(time.Hour), quiet()))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, nil)
	require.NoError(t, err)
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))
	assert.Equal(t, "no-cache", resp.Header.Get("Cache-Control"))
	assert.Equal(t, "no", resp.Header.Get("X-Accel-Buffering"))

	frames := readFrames(t, bufio.NewReader(resp.Body))

	connected := nextFrame(t, frames)
	assert.NotEmpty(t, connected.ID)
	assert.Equal(t, stream.KindConnected, connected.Event.Kind)
	assert.Equal(t, "u42", connected.Data["userId"])
	assert.NotContains(t, connected.Data, "data")

	require.NoError(t, bus.Publish(ctx, "u42", stream.Notification(map[string]any{"rideId": "r1", "status": "accepted"})))

	note := nextFrame(t, frames)
	assert.NotEqual(t, connected.ID, note.ID)
	assert.Equal(t, stream.KindNotification, note.Event.Kind)
	assert.Equal(t, map[string]any{"rideId": "r1", "status": "accepted"}, note.Data["data"])
	assert.NotContains(t, note.Data, "userId")

	cancel()
	require.Eventually(t, func() bool {
		return bus.SubscriberCount("u42") == 0
	}, 2*time.Second, 10*time.Millisecond)

	assert.NoError(t, bus.Publish(context.Background(), "u42", stream.Notification("late")))
}

func TestHandler_Unauthorized(t *testing.T) {
	t.Parallel()

	bus := broadcast.NewBus[stream.Event]()
	defer bus.Close()

	tests := []struct {
		name string
		auth stream.Authenticator
	}{
		{"error", stream.AuthenticatorFunc(func(*http.Request) (string, error) {
			return "", errors.New("invalid token")
		})},
		{"empty identity", staticAuth("")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := stream.Handler(bus, tt.auth, quiet())

			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/stream", nil))

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.NotEqual(t, "text/event-stream", rec.Header().Get("Content-Type"))
			assert.Empty(t, bus.Topics())
		})
	}
}

type noFlushWriter struct {
	http.ResponseWriter
}

func TestHandler_NoFlusher(t *testing.T) {
	t.Parallel()

	bus := broadcast.NewBus[stream.Event]()
	defer bus.Close()

	rec := httptest.NewRecorder()
	stream.Handler(bus, staticAuth("u42"), quiet()).ServeHTTP(
		noFlushWriter{rec},
		httptest.NewRequest(http.MethodGet, "/stream", nil),
	)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Empty(t, bus.Topics())
}

func TestHandler_PanicsWithoutDependencies(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() { stream.Handler(nil, staticAuth("u")) })
	assert.Panics(t, func() { stream.Handler(broadcast.NewBus[stream.Event](), nil) })
}

func TestSSEWriter(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	w, err := stream.NewSSEWriter(rec)
	require.NoError(t, err)

	require.NoError(t, w.WriteFrame(stream.Heartbeat()))
	body := rec.Body.String()
	assert.True(t, strings.HasPrefix(body, "id: "))
	assert.Contains(t, body, "\ndata: {\"kind\":\"heartbeat\"")
	assert.True(t, strings.HasSuffix(body, "\n\n"))
	assert.True(t, rec.Flushed)

	t.Run("encode error", func(t *testing.T) {
		err := w.WriteFrame(stream.Notification(make(chan int)))
		assert.Error(t, err)
	})

	require.NoError(t, w.Close())
	assert.ErrorIs(t, w.WriteFrame(stream.Heartbeat()), stream.ErrWriterClosed)

	_, err = stream.NewSSEWriter(noFlushWriter{httptest.NewRecorder()})
	assert.ErrorIs(t, err, stream.ErrStreamingNotSupported)
}
