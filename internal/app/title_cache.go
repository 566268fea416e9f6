/**
 * @description
 * This file implements an optional read-through cache for catalog book titles
 * backed by Redis. The denormalized title on a borrow record is best-effort by
 * contract, so every cache failure is treated as a miss and never surfaces.
 * The cache is nil-safe: the service runs with direct catalog lookups when
 * Redis is not configured.
 */

package app

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultTitleCacheTTL = time.Hour

// RedisTitleCache caches catalog titles keyed by book id.
type RedisTitleCache struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewRedisTitleCache creates a title cache with the given key prefix and TTL.
func NewRedisTitleCache(client redis.UniversalClient, prefix string, ttl time.Duration) *RedisTitleCache {
	trimmedPrefix := strings.TrimSpace(prefix)
	if trimmedPrefix == "" {
		trimmedPrefix = "borrowing:title"
	}
	trimmedPrefix = strings.TrimSuffix(trimmedPrefix, ":")
	if ttl <= 0 {
		ttl = defaultTitleCacheTTL
	}

	return &RedisTitleCache{
		client: client,
		prefix: trimmedPrefix,
		ttl:    ttl,
	}
}

// Get returns the cached title for a book id. Any Redis failure is a miss.
func (c *RedisTitleCache) Get(ctx context.Context, bookID string) (string, bool) {
	if c == nil || c.client == nil || strings.TrimSpace(bookID) == "" {
		return "", false
	}

	title, err := c.client.Get(ctx, c.key(bookID)).Result()
	if err != nil || title == "" {
		return "", false
	}
	return title, true
}

// Set stores a title for a book id with the configured TTL.
func (c *RedisTitleCache) Set(ctx context.Context, bookID, title string) {
	if c == nil || c.client == nil || strings.TrimSpace(bookID) == "" || title == "" {
		return
	}

	if err := c.client.Set(ctx, c.key(bookID), title, c.ttl).Err(); err != nil {
		log.Printf("level=warn component=title_cache msg=\"cache write failed\" book_id=%s err=%v", bookID, err)
	}
}

func (c *RedisTitleCache) key(bookID string) string {
	return fmt.Sprintf("%s:%s", c.prefix, strings.TrimSpace(bookID))
}
