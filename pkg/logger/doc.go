// Package logger builds the service's *slog.Logger and provides attribute
// constructors for the keys used across packages.
//
// New applies functional options on top of JSON/INFO defaults. The
// environment option picks text output at DEBUG level for development and JSON
// at INFO level otherwise. Context extractors registered with
// WithContextExtractors are evaluated on every record, so request-scoped
// values such as request IDs are attached without threading them through
// every call:
//
//	log := logger.New(
//		logger.WithEnvironment(cfg.Env, "campusnotify"),
//		logger.WithContextExtractors(requestIDExtractor),
//	)
//	log.InfoContext(ctx, "Stream opened", logger.UserID(id), logger.Topic(id))
//
// Attribute helpers return an empty slog.Attr for nil inputs, which slog
// drops from the output.
package logger
