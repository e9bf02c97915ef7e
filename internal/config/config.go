// Package config assembles the service configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"time"

	pkgconfig "github.com/dmitrymomot/campusnotify/pkg/config"
	"github.com/dmitrymomot/campusnotify/pkg/httpserver"
	"github.com/dmitrymomot/campusnotify/pkg/logger"
	"github.com/dmitrymomot/campusnotify/pkg/pg"
	"github.com/dmitrymomot/campusnotify/pkg/redis"
)

const (
	StoreMemory   = "memory"
	StoreRedis    = "redis"
	StorePostgres = "postgres"
)

var ErrInvalidConfig = errors.New("invalid configuration")

// App holds service-level settings.
type App struct {
	Env      string `env:"APP_ENV" envDefault:"development"`
	Name     string `env:"APP_NAME" envDefault:"campusnotify"`
	LogLevel string `env:"LOG_LEVEL"`

	JWTSigningKey string        `env:"JWT_SIGNING_KEY,required,notEmpty"`
	JWTTokenTTL   time.Duration `env:"JWT_TOKEN_TTL" envDefault:"24h"`

	StreamHeartbeatInterval time.Duration `env:"STREAM_HEARTBEAT_INTERVAL" envDefault:"30s"`
	StreamMaxWriteFailures  int           `env:"STREAM_MAX_WRITE_FAILURES" envDefault:"3"`
	BusBufferSize           int           `env:"BUS_BUFFER_SIZE" envDefault:"64"`

	RateLimitStore         string        `env:"RATE_LIMIT_STORE" envDefault:"memory"`
	RateLimitSweepInterval time.Duration `env:"RATE_LIMIT_SWEEP_INTERVAL" envDefault:"1h"`
	PushSubscribeLimit     int           `env:"PUSH_SUBSCRIBE_LIMIT" envDefault:"5"`
	PushSubscribeWindow    time.Duration `env:"PUSH_SUBSCRIBE_WINDOW" envDefault:"1m"`
	AssistanceLimit        int           `env:"ASSISTANCE_LIMIT" envDefault:"10"`
	AssistanceWindow       time.Duration `env:"ASSISTANCE_WINDOW" envDefault:"1m"`
	AssistanceRadius       float64       `env:"ASSISTANCE_RADIUS_METERS" envDefault:"1500"`

	DirectoryStore    string `env:"DIRECTORY_STORE" envDefault:"memory"`
	CampusRegionsFile string `env:"CAMPUS_REGIONS_FILE"`
	CampusRegionName  string `env:"CAMPUS_REGION"`

	LocationMaxAge time.Duration `env:"LOCATION_MAX_AGE" envDefault:"15m"`
}

// Config is the full service configuration.
type Config struct {
	App   App
	HTTP  httpserver.Config
	Redis redis.Config
	PG    pg.Config
}

// Load reads every section from the environment and validates the result.
func Load() (Config, error) {
	var cfg Config
	if err := pkgconfig.Load(&cfg.App); err != nil {
		return Config{}, err
	}
	if err := pkgconfig.Load(&cfg.HTTP); err != nil {
		return Config{}, err
	}
	if err := pkgconfig.Load(&cfg.Redis); err != nil {
		return Config{}, err
	}
	if err := pkgconfig.Load(&cfg.PG); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings the service cannot run with.
func (c Config) Validate() error {
	var errs []error

	switch c.App.Env {
	case logger.EnvDevelopment, logger.EnvStaging, logger.EnvProduction:
	default:
		errs = append(errs, fmt.Errorf("APP_ENV %q is not one of development, staging, production", c.App.Env))
	}
	switch c.App.RateLimitStore {
	case StoreMemory, StoreRedis:
	default:
		errs = append(errs, fmt.Errorf("RATE_LIMIT_STORE %q is not one of memory, redis", c.App.RateLimitStore))
	}
	switch c.App.DirectoryStore {
	case StoreMemory:
	case StorePostgres:
		if c.PG.ConnectionString == "" {
			errs = append(errs, errors.New("PG_CONN_URL is required when DIRECTORY_STORE=postgres"))
		}
	default:
		errs = append(errs, fmt.Errorf("DIRECTORY_STORE %q is not one of memory, postgres", c.App.DirectoryStore))
	}

	if c.App.StreamHeartbeatInterval <= 0 {
		errs = append(errs, errors.New("STREAM_HEARTBEAT_INTERVAL must be positive"))
	}
	if c.App.StreamMaxWriteFailures < 1 {
		errs = append(errs, errors.New("STREAM_MAX_WRITE_FAILURES must be at least 1"))
	}
	if c.App.BusBufferSize < 1 {
		errs = append(errs, errors.New("BUS_BUFFER_SIZE must be at least 1"))
	}
	if c.App.PushSubscribeLimit < 1 || c.App.PushSubscribeWindow <= 0 {
		errs = append(errs, errors.New("PUSH_SUBSCRIBE_LIMIT and PUSH_SUBSCRIBE_WINDOW must be positive"))
	}
	if c.App.AssistanceLimit < 1 || c.App.AssistanceWindow <= 0 {
		errs = append(errs, errors.New("ASSISTANCE_LIMIT and ASSISTANCE_WINDOW must be positive"))
	}
	if c.App.AssistanceRadius <= 0 {
		errs = append(errs, errors.New("ASSISTANCE_RADIUS_METERS must be positive"))
	}

	if len(errs) > 0 {
		return errors.Join(append([]error{ErrInvalidConfig}, errs...)...)
	}
	return nil
}

// UsesRedis reports whether any component needs a Redis connection.
func (c Config) UsesRedis() bool {
	return c.App.RateLimitStore == StoreRedis
}

// UsesPostgres reports whether any component needs a Postgres pool.
func (c Config) UsesPostgres() bool {
	return c.App.DirectoryStore == StorePostgres
}
