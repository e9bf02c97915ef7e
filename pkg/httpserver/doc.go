// Package httpserver runs an http.Server until its context is cancelled and
// then shuts it down gracefully.
//
// Request contexts derive from a base context that is cancelled as soon as
// shutdown begins. Long-lived responses such as event streams observe the
// cancellation and return, so shutdown does not wait for the full timeout on
// connections that would otherwise never go idle.
//
//	srv := httpserver.NewFromConfig(cfg.HTTP, httpserver.WithLogger(log))
//	if err := srv.Run(ctx, router); err != nil {
//		return err
//	}
//
// HealthCheckHandler serves liveness and readiness probes.
package httpserver
