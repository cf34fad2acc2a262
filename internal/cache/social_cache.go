package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Eursukkul/discovery-service/internal/models"
)

const keyPrefix = "discovery:social:"

func NewRedisClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

// SocialCache keeps social snapshots in Redis for a short TTL. Every
// failure is treated as a miss.
type SocialCache struct {
	client redis.Cmdable
	ttl    time.Duration
}

func NewSocialCache(client redis.Cmdable, ttl time.Duration) *SocialCache {
	return &SocialCache{client: client, ttl: ttl}
}

func key(userID string) string {
	return keyPrefix + userID
}

func (c *SocialCache) Get(ctx context.Context, userID string) (*models.SocialSnapshot, bool) {
	raw, err := c.client.Get(ctx, key(userID)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			slog.WarnContext(ctx, "social cache read failed", "user_id", userID, "error", err)
		}
		return nil, false
	}

	var snap models.SocialSnapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		slog.WarnContext(ctx, "social cache entry corrupt", "user_id", userID, "error", err)
		return nil, false
	}
	return &snap, true
}

func (c *SocialCache) Set(ctx context.Context, snap models.SocialSnapshot) {
	raw, err := json.Marshal(snap)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, key(snap.UserID), raw, c.ttl).Err(); err != nil {
		slog.WarnContext(ctx, "social cache write failed", "user_id", snap.UserID, "error", err)
	}
}

func (c *SocialCache) Invalidate(ctx context.Context, userIDs ...string) {
	if len(userIDs) == 0 {
		return
	}
	keys := make([]string, len(userIDs))
	for i, id := range userIDs {
		keys[i] = key(id)
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		slog.WarnContext(ctx, "social cache invalidation failed", "user_ids", userIDs, "error", err)
	}
}
