// Package redis connects to Redis with retries and exposes a readiness probe.
// The client backs the shared rate limit store when RATE_LIMIT_STORE=redis.
//
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer client.Close()
//
//	store, _ := ratelimit.NewRedisStore(client)
package redis
