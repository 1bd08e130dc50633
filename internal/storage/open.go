package storage

import (
	"context"
	"fmt"
	"log/slog"
)

// Storage drivers
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverBolt     = "bolt"
	DriverRedis    = "redis"
)

// Config selects and configures a Repository backend
type Config struct {
	Driver        string
	Postgres      PostgresConfig
	MigrationsDir string
	Redis         RedisConfig
	BoltPath      string
}

// Open creates the repository for cfg.Driver. Postgres migrations run before the pool is opened.
func Open(ctx context.Context, cfg Config) (Repository, error) {
	switch cfg.Driver {
	case DriverMemory, "":
		slog.Info("using in-memory storage")
		return NewMemoryRepository(), nil

	case DriverPostgres:
		slog.Info("running database migrations", "dir", cfg.MigrationsDir)
		if err := MigrateFromDSN(ctx, cfg.Postgres.DSN, cfg.MigrationsDir); err != nil {
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		repo, err := NewPostgresRepository(ctx, cfg.Postgres)
		if err != nil {
			return nil, err
		}
		slog.Info("database connected successfully")
		return repo, nil

	case DriverBolt:
		repo, err := NewBoltRepository(cfg.BoltPath)
		if err != nil {
			return nil, err
		}
		slog.Info("bolt database opened", "path", cfg.BoltPath)
		return repo, nil

	case DriverRedis:
		repo, err := NewRedisRepository(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		slog.Info("redis connected successfully", "address", cfg.Redis.Address)
		return repo, nil

	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
