// Package broadcast provides a type-safe, topic-keyed publish/subscribe bus
// for fanning events out to live connections inside a single process.
//
// Topics are opaque strings (typically a recipient user ID). A topic may have
// any number of independent subscribers, e.g. one per open browser tab.
//
// Basic usage:
//
//	bus := broadcast.NewBus[Event](broadcast.WithBufferSize(64))
//	defer bus.Close()
//
//	sub, err := bus.Subscribe(ctx, "user-42")
//	if err != nil {
//		return err
//	}
//	defer sub.Close()
//
//	_ = bus.Publish(ctx, "user-42", Event{Kind: "notification"})
//
//	for msg := range sub.Receive(ctx) {
//		fmt.Println(msg.Topic, msg.Data)
//	}
//
// Delivery never blocks the publisher. Each subscriber owns a buffered channel;
// when it is full the subscriber is evicted and its channel closed, so a stuck
// connection cannot hold up delivery to anyone else. Subscribers are removed
// when their context is cancelled, when Close is called on them, or when the
// bus is closed. A removed subscriber never receives another message.
//
// Messages published to one topic reach each of its subscribers in publish
// order. Nothing is persisted: publishing to a topic without subscribers is a
// silent no-op.
package broadcast
