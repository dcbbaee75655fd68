package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"creator-hub/infrastructure/logger"
)

// CachedToken is the value stored per (creator, platform). Only the access
// token and its horizon are cached; refresh tokens never leave Postgres.
type CachedToken struct {
	AccessToken string     `json:"access_token"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
}

type ITokenCache interface {
	Get(ctx context.Context, creatorID, platform string) (*CachedToken, bool)
	Put(ctx context.Context, creatorID, platform string, token CachedToken)
	Invalidate(ctx context.Context, creatorID, platform string)
}

// TokenCache is a read-through cache in front of the credential store. All
// operations are best-effort: a nil client or a Redis error degrades to a
// cache miss, never to a caller-visible failure.
type TokenCache struct {
	redisClient *redis.Client
	ttl         time.Duration
}

func NewTokenCache(redisClient *redis.Client) ITokenCache {
	return &TokenCache{redisClient: redisClient, ttl: 5 * time.Minute}
}

func tokenKey(creatorID, platform string) string {
	return fmt.Sprintf("token:%s:%s", creatorID, platform)
}

func (c *TokenCache) Get(ctx context.Context, creatorID, platform string) (*CachedToken, bool) {
	if c.redisClient == nil {
		return nil, false
	}
	raw, err := c.redisClient.Get(ctx, tokenKey(creatorID, platform)).Result()
	if err != nil {
		if err != redis.Nil {
			logger.GetLogger().WithField("error", err).Warn("token cache read failed")
		}
		return nil, false
	}
	var token CachedToken
	if err := json.Unmarshal([]byte(raw), &token); err != nil {
		logger.GetLogger().WithField("error", err).Warn("token cache entry malformed")
		return nil, false
	}
	return &token, true
}

// Put caches the token until shortly before its expiry so a cached read can
// never outlive the token's validity horizon.
func (c *TokenCache) Put(ctx context.Context, creatorID, platform string, token CachedToken) {
	if c.redisClient == nil {
		return
	}
	ttl := c.ttl
	if token.ExpiresAt != nil {
		until := time.Until(token.ExpiresAt.Add(-time.Minute))
		if until <= 0 {
			return
		}
		if until < ttl {
			ttl = until
		}
	}
	raw, err := json.Marshal(token)
	if err != nil {
		return
	}
	if err := c.redisClient.Set(ctx, tokenKey(creatorID, platform), raw, ttl).Err(); err != nil {
		logger.GetLogger().WithField("error", err).Warn("token cache write failed")
	}
}

func (c *TokenCache) Invalidate(ctx context.Context, creatorID, platform string) {
	if c.redisClient == nil {
		return
	}
	if err := c.redisClient.Del(ctx, tokenKey(creatorID, platform)).Err(); err != nil {
		logger.GetLogger().WithField("error", err).Warn("token cache invalidate failed")
	}
}
