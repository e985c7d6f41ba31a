// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// document.go provides a Valkey-backed cache for the serialized public
// site-data response. The public site polls this endpoint on every page
// load, so serving it from Valkey keeps the read path off PostgreSQL.
package cache

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// documentKey is the Valkey key for the cached site-data payload.
	documentKey = "sitedata:payload"

	// DefaultDocumentTTL is how long the payload stays cached. Saves
	// invalidate explicitly; the TTL only bounds staleness when an
	// invalidation is lost.
	DefaultDocumentTTL = 5 * time.Minute
)

// DocumentCache holds the JSON-encoded site-data response in Valkey.
type DocumentCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewDocumentCache creates a document cache backed by the given Valkey client.
func NewDocumentCache(client *redis.Client, ttl time.Duration) *DocumentCache {
	if ttl == 0 {
		ttl = DefaultDocumentTTL
	}
	return &DocumentCache{client: client, ttl: ttl}
}

// Get retrieves the cached payload. Returns nil, false on miss. Cache errors
// degrade to a miss; the database remains the source of truth.
func (dc *DocumentCache) Get(ctx context.Context) ([]byte, bool) {
	val, err := dc.client.Get(ctx, documentKey).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		slog.Warn("document cache get error", "error", err)
		return nil, false
	}
	slog.Debug("document cache hit")
	return val, true
}

// Set stores the serialized payload with the configured TTL.
func (dc *DocumentCache) Set(ctx context.Context, payload []byte) {
	if err := dc.client.Set(ctx, documentKey, payload, dc.ttl).Err(); err != nil {
		slog.Warn("document cache set error", "error", err)
	}
}

// Invalidate removes the cached payload. Called after every admin save so
// the public site sees the new document immediately.
func (dc *DocumentCache) Invalidate(ctx context.Context) {
	if err := dc.client.Del(ctx, documentKey).Err(); err != nil {
		slog.Warn("document cache invalidate error", "error", err)
	}
	slog.Debug("document cache invalidated")
}
