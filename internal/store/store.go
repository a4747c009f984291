// Package store mirrors the user aggregate and the auth token to a key-value
// backend. Writes are last-write-wins; there is no schema versioning.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-redis/redis/v8"

	"github.com/claude/cirqulofit/internal/config"
)

// ErrNotFound is returned by Get when the key has never been written.
var ErrNotFound = errors.New("store: key not found")

// Store is an opaque key-value backend.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Open builds the backend selected by cfg.Driver. The postgres driver applies
// pending migrations before connecting.
func Open(ctx context.Context, cfg config.StoreConfig, log *slog.Logger) (Store, error) {
	switch cfg.Driver {
	case config.DriverMemory:
		log.Warn("using in-memory store, state is lost on restart")
		return NewMemory(), nil
	case config.DriverSQLite, "":
		return OpenSQLite(cfg.SQLite.Path)
	case config.DriverPostgres:
		dsn := cfg.Database.DSN()
		if err := RunMigrations(dsn, cfg.Database.Migrations); err != nil {
			return nil, err
		}
		log.Info("migrations applied")
		return NewPostgres(ctx, dsn)
	case config.DriverRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			rdb.Close()
			return nil, fmt.Errorf("pinging redis: %w", err)
		}
		return NewRedis(rdb, cfg.Redis.KeyPrefix), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}
