package catalog

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache wraps a Provider with a redis response cache. Cache failures fall
// through to the underlying provider; only successful lookups are stored.
type Cache struct {
	next   Provider
	rc     *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

func NewCache(next Provider, rc *redis.Client, ttl time.Duration, logger *slog.Logger) *Cache {
	return &Cache{
		next:   next,
		rc:     rc,
		ttl:    ttl,
		logger: logger,
	}
}

func (c *Cache) searchKey(query string, maxResults int) string {
	return "catalog:search:" + strconv.Itoa(maxResults) + ":" + query
}

func (c *Cache) videoKey(id string) string {
	return "catalog:video:" + id
}

func (c *Cache) Search(ctx context.Context, query string, maxResults int) ([]Video, error) {
	key := c.searchKey(query, maxResults)

	var cached []Video
	if c.get(ctx, key, &cached) {
		return cached, nil
	}

	videos, err := c.next.Search(ctx, query, maxResults)
	if err != nil {
		return nil, err
	}

	c.set(ctx, key, videos)
	return videos, nil
}

func (c *Cache) Video(ctx context.Context, id string) (VideoDetails, error) {
	key := c.videoKey(id)

	var cached VideoDetails
	if c.get(ctx, key, &cached) {
		return cached, nil
	}

	details, err := c.next.Video(ctx, id)
	if err != nil {
		return VideoDetails{}, err
	}

	c.set(ctx, key, details)
	return details, nil
}

func (c *Cache) get(ctx context.Context, key string, dst any) bool {
	raw, err := c.rc.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.WarnContext(ctx, "catalog cache read failed", "key", key, "error", err)
		}
		return false
	}

	if err := json.Unmarshal(raw, dst); err != nil {
		c.logger.WarnContext(ctx, "catalog cache entry corrupt", "key", key, "error", err)
		return false
	}

	return true
}

func (c *Cache) set(ctx context.Context, key string, value any) {
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}

	if err := c.rc.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		c.logger.WarnContext(ctx, "catalog cache write failed", "key", key, "error", err)
	}
}
