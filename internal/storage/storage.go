// Package storage opens the configured backing store.
package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dukerupert/epharmacy/internal"
	"github.com/dukerupert/epharmacy/internal/domain"
	"github.com/dukerupert/epharmacy/internal/memstore"
	"github.com/dukerupert/epharmacy/internal/mongodb"
	"github.com/dukerupert/epharmacy/internal/postgres"
)

// Options controls the one-time setup Open performs.
type Options struct {
	// Migrate applies pending Postgres migrations and ensures Mongo indexes.
	Migrate bool
}

// Open returns the Store selected by cfg.Driver:
//   - "memory": process-local maps, for development and tests
//   - "postgres": pgx pool, optionally migrated with goose
//   - "mongo": MongoDB replica set, optionally with indexes ensured
func Open(ctx context.Context, cfg internal.StoreConfig, opts Options, logger *slog.Logger) (domain.Store, error) {
	switch cfg.Driver {
	case internal.DriverMemory, "":
		logger.Warn("using in-memory store; data is lost on restart")
		return memstore.New(), nil

	case internal.DriverPostgres:
		store, err := postgres.Open(ctx, cfg.DatabaseURL, logger)
		if err != nil {
			return nil, err
		}
		if opts.Migrate {
			logger.Info("running database migrations")
			if err := internal.RunMigrations(store.Pool()); err != nil {
				store.Close(ctx)
				return nil, fmt.Errorf("migration failed: %w", err)
			}
		}
		return store, nil

	case internal.DriverMongo:
		store, err := mongodb.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase, logger)
		if err != nil {
			return nil, err
		}
		if opts.Migrate {
			logger.Info("ensuring mongo indexes")
			if err := store.EnsureIndexes(ctx); err != nil {
				store.Close(ctx)
				return nil, fmt.Errorf("failed to ensure indexes: %w", err)
			}
		}
		return store, nil

	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}
