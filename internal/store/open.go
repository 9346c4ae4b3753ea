package store

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"field-agent/internal/config"
	"field-agent/internal/database"
	"field-agent/internal/db"
)

// Open builds the backend named by cfg.Driver
func Open(ctx context.Context, cfg config.StoreConfig, logger *zap.Logger) (KV, error) {
	switch cfg.Driver {
	case "", "sqlite":
		kv, err := NewSQLiteKV(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		logger.Info("local store ready", zap.String("driver", "sqlite"), zap.String("path", cfg.SQLitePath))
		return kv, nil

	case "redis":
		kv, err := NewRedisKV(RedisOptions{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Prefix:   cfg.Redis.Prefix,
		})
		if err != nil {
			return nil, err
		}
		logger.Info("local store ready", zap.String("driver", "redis"), zap.String("addr", cfg.Redis.Addr))
		return kv, nil

	case "postgres":
		pool, err := db.Connect(ctx, cfg)
		if err != nil {
			return nil, err
		}
		if err := database.NewMigrator(pool, logger).RunMigrations(ctx); err != nil {
			pool.Close()
			return nil, err
		}
		logger.Info("local store ready", zap.String("driver", "postgres"), zap.String("host", cfg.Postgres.Host))
		return NewPostgresKV(pool), nil

	case "memory":
		logger.Warn("local store is in-memory, nothing survives a restart")
		return NewMemoryKV(), nil
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
}
