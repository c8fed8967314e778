package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tic-iptv/tic-ui/config"
	"github.com/tic-iptv/tic-ui/internal/storage"
)

const redisConnectTimeout = 5 * time.Second

// BuildStore constructs the client-state store for the configured backend.
// The returned close function releases backend resources; it is a no-op
// for backends without connections.
func BuildStore(ctx context.Context, cfg config.StorageConfig, logger *slog.Logger) (storage.Store, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Backend {
	case config.StorageBackendMemory:
		return storage.NewMemoryStore(), noop, nil

	case config.StorageBackendFile:
		store, err := storage.NewFileStore(cfg.FilePath, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("open state file: %w", err)
		}
		return store, noop, nil

	case config.StorageBackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, redisConnectTimeout)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("connect redis: %w", err)
		}
		return storage.NewRedisStore(client, cfg.KeyPrefix), client.Close, nil

	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}
