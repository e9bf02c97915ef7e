package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/campusnotify/internal/api"
	"github.com/dmitrymomot/campusnotify/internal/config"
	pkgconfig "github.com/dmitrymomot/campusnotify/pkg/config"
	"github.com/dmitrymomot/campusnotify/pkg/logger"
)

func newRootCmd() *cobra.Command {
	var envFiles []string

	cmd := &cobra.Command{
		Use:           "campusnotify",
		Short:         "Campus notification service",
		Long:          "campusnotify streams ride updates and nearby assistance requests to connected campus users.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if len(envFiles) == 0 {
				return nil
			}
			return pkgconfig.LoadEnv(envFiles...)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.PersistentFlags().StringSliceVar(&envFiles, "env-file", nil, "dotenv files to load before reading the environment")

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newMigrateCmd())
	cmd.AddCommand(newTokenCmd())
	return cmd
}

// loadConfig reads the configuration and builds the process logger.
func loadConfig() (config.Config, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, nil, err
	}

	opts := []logger.Option{
		logger.WithEnvironment(cfg.App.Env, cfg.App.Name),
		logger.WithContextExtractors(api.RequestIDExtractor()),
	}
	if cfg.App.LogLevel != "" {
		level, err := logger.ParseLevel(cfg.App.LogLevel)
		if err != nil {
			return config.Config{}, nil, err
		}
		opts = append(opts, logger.WithLevel(level))
	}

	log := logger.New(opts...)
	logger.SetAsDefault(log)
	return cfg, log, nil
}
