package cache

import (
	"context"

	"github.com/redis/go-redis/v9"

	"creator-hub/infrastructure/logger"
)

// NewCache connects to Redis. A failed connection returns nil; callers treat
// a nil client as "caching disabled".
func NewCache(ctx context.Context, addr, username, password string) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Username: username,
		Password: password,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		logger.GetLogger().WithField("error", err).Warn("Redis not available - continuing without cache")
		return nil
	}
	return client
}
