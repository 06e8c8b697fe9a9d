package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/cwrk-planet/meeting-service/config"
	"github.com/cwrk-planet/meeting-service/internal/badgerstore"
	"github.com/cwrk-planet/meeting-service/internal/logger"
	"github.com/cwrk-planet/meeting-service/internal/postgres"
	"github.com/cwrk-planet/meeting-service/internal/repository"
	"github.com/cwrk-planet/meeting-service/internal/service"

	"github.com/spf13/cobra"
)

// loadConfig honours --config before CONFIG_PATH.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		return config.Load(path)
	}
	return config.LoadConfig()
}

func initLogger(cfg *config.Config) (func() error, error) {
	level, err := logger.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return nil, fmt.Errorf("logging.level: %w", err)
	}
	var env logger.Env // пусто: New возьмёт APP_ENV
	if cfg.Logging.Env != "" {
		env = logger.ParseEnv(cfg.Logging.Env)
	}
	closeFn := logger.Init(logger.Config{
		Env:       env,
		Service:   cfg.Logging.Service,
		Version:   cfg.Logging.Version,
		Backend:   logger.Backend(cfg.Logging.Backend),
		Level:     level,
		AddSource: cfg.Logging.AddSource,
		Debug:     cfg.Logging.Debug,
		File: logger.FileConfig{
			Path:      cfg.Logging.File,
			MaxSizeMB: cfg.Logging.MaxSizeMB,
		},
	})
	return closeFn, nil
}

// openStore connects the configured backend.
func openStore(ctx context.Context, cfg *config.Config) (*repository.Store, error) {
	switch cfg.Storage.Driver {
	case config.DriverBadger:
		db, err := badgerstore.Open(badgerstore.Config{
			Path:     cfg.Storage.Badger.Path,
			InMemory: cfg.Storage.Badger.InMemory,
		}, logger.L())
		if err != nil {
			return nil, err
		}
		slog.Info("storage: badger", "path", cfg.Storage.Badger.Path)
		return badgerstore.NewStore(db), nil
	default:
		db, err := openPostgres(ctx, cfg)
		if err != nil {
			return nil, err
		}
		slog.Info("storage: postgres")
		return postgres.NewStore(db), nil
	}
}

func openPostgres(ctx context.Context, cfg *config.Config) (*postgres.DB, error) {
	pg := cfg.Storage.Postgres
	db, err := postgres.New(ctx, postgres.Config{
		DSN:               pg.DSN,
		MaxConns:          pg.MaxConns,
		MinConns:          pg.MinConns,
		MaxConnLifetime:   pg.MaxConnLifetime,
		MaxConnIdleTime:   pg.MaxConnIdleTime,
		HealthCheckPeriod: pg.HealthCheckPeriod,
		ApplicationName:   cfg.Logging.Service,
	})
	if err != nil {
		return nil, fmt.Errorf("postgres: %w", err)
	}
	return db, nil
}

func newSession(cfg *config.Config, store *repository.Store) *service.Session {
	sess := service.NewSession(store, nil)
	sess.Meetings().SetCapacityLimits(cfg.Meetings.DefaultMaxParticipants, cfg.Meetings.MaxParticipantsLimit)
	sess.Signals().SetRetention(cfg.Signals.Retention)
	sess.Signals().SetFetchLimit(cfg.Signals.FetchLimit)
	return sess
}

// bootstrap loads config and logger; the returned func flushes the logger.
func bootstrap(cmd *cobra.Command) (*config.Config, func(), error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	closeLog, err := initLogger(cfg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, func() {
		if err := closeLog(); err != nil {
			fmt.Fprintf(os.Stderr, "close log file: %v\n", err)
		}
	}, nil
}
