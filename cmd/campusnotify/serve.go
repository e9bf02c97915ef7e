package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/campusnotify/internal/api"
	"github.com/dmitrymomot/campusnotify/internal/config"
	"github.com/dmitrymomot/campusnotify/internal/db/migrations"
	"github.com/dmitrymomot/campusnotify/internal/metrics"
	"github.com/dmitrymomot/campusnotify/internal/notify"
	"github.com/dmitrymomot/campusnotify/pkg/broadcast"
	"github.com/dmitrymomot/campusnotify/pkg/geo"
	"github.com/dmitrymomot/campusnotify/pkg/httpserver"
	"github.com/dmitrymomot/campusnotify/pkg/jwt"
	"github.com/dmitrymomot/campusnotify/pkg/logger"
	"github.com/dmitrymomot/campusnotify/pkg/pg"
	"github.com/dmitrymomot/campusnotify/pkg/pushsub"
	"github.com/dmitrymomot/campusnotify/pkg/ratelimit"
	"github.com/dmitrymomot/campusnotify/pkg/redis"
	"github.com/dmitrymomot/campusnotify/pkg/stream"
)

func newServeCmd() *cobra.Command {
	var migrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig()
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg, log, migrate)
		},
	}

	cmd.Flags().BoolVar(&migrate, "migrate", false, "apply pending migrations before serving (postgres directory only)")
	return cmd
}

func serve(ctx context.Context, cfg config.Config, log *slog.Logger, migrate bool) error {
	m := metrics.New()
	var checks []httpserver.Check

	regions, err := loadRegions(cfg.App)
	if err != nil {
		return err
	}

	tokens, err := jwt.NewFromString(cfg.App.JWTSigningKey)
	if err != nil {
		return err
	}

	bus := broadcast.NewBus[stream.Event](
		broadcast.WithBufferSize(cfg.App.BusBufferSize),
		broadcast.WithLogger(log),
		broadcast.WithSubscriberCountHook(m.SubscriberCountChanged),
		broadcast.WithEvictHook(m.SubscriberEvicted),
	)
	defer func() {
		if err := bus.Close(); err != nil {
			log.Error("Failed to close bus", logger.Error(err))
		}
	}()

	var store ratelimit.Store
	switch cfg.App.RateLimitStore {
	case config.StoreRedis:
		client, err := redis.Connect(ctx, cfg.Redis)
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		defer client.Close()

		store, err = ratelimit.NewRedisStore(client)
		if err != nil {
			return err
		}
		checks = append(checks, httpserver.Check{Name: "redis", Probe: redis.Healthcheck(client)})
	default:
		mem := ratelimit.NewMemoryStore(
			ratelimit.WithSweepInterval(cfg.App.RateLimitSweepInterval),
			ratelimit.WithSweepHook(m.RateLimitSwept),
		)
		defer mem.Close()
		store = mem
	}

	governor, err := ratelimit.NewGovernor(store)
	if err != nil {
		return err
	}

	var directory pushsub.Directory = pushsub.NewMemoryDirectory()
	if cfg.App.DirectoryStore == config.StorePostgres {
		pool, err := pg.Connect(ctx, cfg.PG)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer pool.Close()

		if migrate {
			if err := pg.Migrate(ctx, pool, migrations.FS, cfg.PG, log); err != nil {
				return err
			}
		}
		m.RegisterPool(pool)
		directory = pushsub.NewPostgresDirectory(pool)
		checks = append(checks, httpserver.Check{Name: "postgres", Probe: pg.Healthcheck(pool)})
	}

	roster := notify.NewMemoryRoster(cfg.App.LocationMaxAge)
	notifier := notify.NewService(bus, roster,
		notify.WithRegions(regions...),
		notify.WithDefaultRadius(cfg.App.AssistanceRadius),
		notify.WithLogger(log),
	)

	router := api.NewRouter(api.Deps{
		Logger:        log,
		Source:        bus,
		Authenticator: jwt.NewAuthenticator(tokens, nil),
		Notifier:      notifier,
		Locations:     roster,
		Directory:     directory,
		Governor:      governor,
		RateStore:     store,
		PushSubscribe: api.Policy{Limit: cfg.App.PushSubscribeLimit, Window: cfg.App.PushSubscribeWindow},
		Assistance:    api.Policy{Limit: cfg.App.AssistanceLimit, Window: cfg.App.AssistanceWindow},
		StreamOptions: []stream.Option{
			stream.WithHeartbeatInterval(cfg.App.StreamHeartbeatInterval),
			stream.WithMaxWriteFailures(cfg.App.StreamMaxWriteFailures),
			stream.WithObserver(m),
		},
		Metrics:         m,
		ReadinessChecks: checks,
	})

	srv := httpserver.NewFromConfig(cfg.HTTP, httpserver.WithLogger(log))
	log.Info("Starting campusnotify",
		slog.String("addr", cfg.HTTP.Addr),
		slog.String("rate_limit_store", cfg.App.RateLimitStore),
		slog.String("directory_store", cfg.App.DirectoryStore),
		slog.Int("regions", len(regions)),
	)
	return srv.Run(ctx, router)
}

// loadRegions reads the campus regions file, or falls back to the default
// campus. CAMPUS_REGION narrows the list to one named region.
func loadRegions(app config.App) ([]geo.Region, error) {
	regions := []geo.Region{geo.DefaultCampus}
	if app.CampusRegionsFile != "" {
		f, err := os.Open(app.CampusRegionsFile)
		if err != nil {
			return nil, fmt.Errorf("open regions file: %w", err)
		}
		defer f.Close()

		regions, err = geo.LoadRegions(f)
		if err != nil {
			return nil, err
		}
	}

	if app.CampusRegionName == "" {
		return regions, nil
	}
	for _, r := range regions {
		if r.Name == app.CampusRegionName {
			return []geo.Region{r}, nil
		}
	}
	return nil, errors.Join(geo.ErrInvalidRegion, fmt.Errorf("region %q not found", app.CampusRegionName))
}
