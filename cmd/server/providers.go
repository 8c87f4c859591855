package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/benbjohnson/clock"

	"github.com/ICPWorkOfficial/ICPWork-sub002/internal/config"
	"github.com/ICPWorkOfficial/ICPWork-sub002/internal/handler"
	"github.com/ICPWorkOfficial/ICPWork-sub002/internal/hub"
	"github.com/ICPWorkOfficial/ICPWork-sub002/internal/repository/mongo"
	"github.com/ICPWorkOfficial/ICPWork-sub002/internal/repository/postgres"
	"github.com/ICPWorkOfficial/ICPWork-sub002/internal/repository/sqlite"
	"github.com/ICPWorkOfficial/ICPWork-sub002/internal/service"
)

func provideContext() (context.Context, func()) {
	ctx, cancel := context.WithCancel(context.Background())
	return ctx, func() { cancel() }
}

func provideLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, nil))
}

func provideClock() clock.Clock {
	return clock.New()
}

func provideHubOptions(cfg *config.Config) hub.Options {
	return hub.Options{
		GracePeriod:     cfg.GracePeriod,
		SweepInterval:   cfg.SweepInterval,
		LivenessTimeout: cfg.LivenessTimeout,
	}
}

func provideMessageStore(ctx context.Context, cfg *config.Config) (service.IMessageStore, func(), error) {
	switch cfg.MessageStore {
	case config.StoreMongo:
		db, err := mongo.NewDB(ctx, cfg.MongoURL, cfg.MongoDatabase)
		if err != nil {
			return nil, nil, err
		}
		cleanup := func() { db.Client().Disconnect(ctx) }
		return mongo.NewMessageStore(db), cleanup, nil
	case config.StoreSQLite:
		store, err := sqlite.New(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		cleanup := func() { store.Close() }
		return store, cleanup, nil
	default:
		return nil, nil, fmt.Errorf("unknown message store backend: %q", cfg.MessageStore)
	}
}

func provideIdentityVerifier(cfg *config.Config) (service.IIdentityVerifier, func(), error) {
	switch cfg.IdentityProvider {
	case config.IdentityOpen:
		return service.NewOpenVerifier(), func() {}, nil
	case config.IdentityPostgres:
		if err := postgres.RunMigrations(cfg.PostgresURL); err != nil {
			return nil, nil, err
		}
		db, err := postgres.NewDB(cfg.PostgresURL)
		if err != nil {
			return nil, nil, err
		}
		cleanup := func() { db.Close() }
		return service.NewDirectoryVerifier(postgres.NewIdentityRepository(db)), cleanup, nil
	default:
		return nil, nil, fmt.Errorf("unknown identity provider: %q", cfg.IdentityProvider)
	}
}

func provideHandler(cfg *config.Config, h *hub.Hub, verifier service.IIdentityVerifier, log *slog.Logger) *handler.WebsocketHandler {
	return handler.NewWebsocketHandler(h, verifier, cfg.AllowedOrigins, log)
}
