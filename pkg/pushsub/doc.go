// Package pushsub stores Web Push subscriptions per user.
//
// A subscription is identified by its endpoint URL. Upsert inserts a new
// endpoint or, when the endpoint is already known, moves it to the given user
// and replaces its keys. This matches browsers that reuse an endpoint after a
// different user signs in on the same device.
//
// MemoryDirectory serves tests and single-instance deployments.
// PostgresDirectory persists to the push_subscriptions table created by the
// service migrations.
package pushsub
