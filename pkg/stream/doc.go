// Package stream delivers bus events to a connected client over Server-Sent
// Events.
//
// A Session moves through three states. It starts in StateInit, where the
// user identity is checked. Run subscribes to the bus topic named after the
// user, writes a connected frame and enters StateOpen. From there it waits on
// the next bus event, the heartbeat ticker and context cancellation, writing
// one frame per event. When the context is cancelled, the bus drops the
// subscription or writes keep failing, the session moves to StateClosed: the
// ticker is stopped, the subscription is closed and the writer is released,
// each step running even if an earlier one failed.
//
// A failed write is logged and otherwise ignored. Only a run of consecutive
// failures (see WithMaxWriteFailures) ends the session. Writes to a closed
// session do nothing.
//
// Handler wires a Session to an HTTP request:
//
//	bus := broadcast.NewBus[stream.Event]()
//	r.Get("/api/notifications/stream", stream.Handler(bus, auth).ServeHTTP)
//
// Each frame is encoded as
//
//	id: <uuid>
//	data: {"kind":"notification","data":{...},"timestamp":"..."}
//
// followed by a blank line.
package stream
