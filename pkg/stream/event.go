package stream

import "time"

// Kind discriminates stream events on the wire.
type Kind string

const (
	KindConnected    Kind = "connected"
	KindHeartbeat    Kind = "heartbeat"
	KindNotification Kind = "notification"
)

// Event is a single frame sent to the client.
type Event struct {
	Kind      Kind      `json:"kind"`
	UserID    string    `json:"userId,omitempty"`
	Data      any       `json:"data,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Connected is the first event of every session.
func Connected(userID string) Event {
	return Event{Kind: KindConnected, UserID: userID, Timestamp: time.Now().UTC()}
}

// Heartbeat keeps idle connections alive.
func Heartbeat() Event {
	return Event{Kind: KindHeartbeat, Timestamp: time.Now().UTC()}
}

// Notification wraps a producer payload. data must be JSON-serializable.
func Notification(data any) Event {
	return Event{Kind: KindNotification, Data: data, Timestamp: time.Now().UTC()}
}
