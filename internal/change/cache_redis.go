package change

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	platformredis "ontoreg/internal/platform/redis"
	id "ontoreg/pkg/domain"
)

// RedisCache stores serialized change sets keyed by the version-ID pair.
// Entries carry a TTL purely to bound memory; correctness does not depend
// on expiry since cached diffs are between immutable versions.
type RedisCache struct {
	client *platformredis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewRedisCache constructs the cache. Returns nil when client is nil (redis
// not configured), which the detector treats as caching disabled.
func NewRedisCache(client *platformredis.Client, ttl time.Duration, logger *slog.Logger) *RedisCache {
	if client == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisCache{client: client, ttl: ttl, logger: logger}
}

func cacheKey(oldID, newID id.VersionID) string {
	return fmt.Sprintf("ontoreg:diff:%s:%s", oldID, newID)
}

// Get fetches a cached change set. Cache failures degrade to a miss.
func (c *RedisCache) Get(ctx context.Context, oldID, newID id.VersionID) (*ChangeSet, bool) {
	raw, err := c.client.Get(ctx, cacheKey(oldID, newID)).Bytes()
	if err != nil {
		return nil, false
	}
	var cs ChangeSet
	if err := json.Unmarshal(raw, &cs); err != nil {
		c.logger.WarnContext(ctx, "corrupt diff cache entry, ignoring",
			"old_version_id", oldID.String(),
			"new_version_id", newID.String(),
			"error", err.Error(),
		)
		return nil, false
	}
	return &cs, true
}

// Set stores a change set. Failures are logged and ignored; the next caller
// recomputes.
func (c *RedisCache) Set(ctx context.Context, cs *ChangeSet) {
	raw, err := json.Marshal(cs)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, cacheKey(cs.OldVersionID, cs.NewVersionID), raw, c.ttl).Err(); err != nil {
		c.logger.WarnContext(ctx, "failed to cache diff",
			"old_version_id", cs.OldVersionID.String(),
			"new_version_id", cs.NewVersionID.String(),
			"error", err.Error(),
		)
	}
}
