// Package cache implements the content cache in front of the page retriever.
package cache

import (
	"context"
	"encoding/base64"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/manoa-its/helpdesk-assistant/internal/kv"
	"github.com/manoa-its/helpdesk-assistant/internal/model"
	"github.com/manoa-its/helpdesk-assistant/pkg/logger"
	"github.com/manoa-its/helpdesk-assistant/pkg/metrics"
)

const (
	// maxKeyLen bounds the URL prefix used to derive the cache key.
	maxKeyLen = 200

	// maxPayloadBytes is the serialized-size cap above which entries are
	// refused rather than stored.
	maxPayloadBytes = 1_024_000
)

// ContentCache maps a normalized URL to previously extracted page text.
// Expiry is handled by the bucket TTL; the only other invalidation path is
// the purge of corrupt entries on read.
type ContentCache struct {
	store  kv.Store
	logger *logger.Logger
}

// New creates a content cache over the given bucket.
func New(store kv.Store, log *logger.Logger) *ContentCache {
	return &ContentCache{
		store:  store,
		logger: log,
	}
}

// Key derives the bucket key for a URL. The URL is truncated to a bounded
// prefix and encoded because the bucket restricts the key alphabet.
func Key(url string) string {
	if len(url) > maxKeyLen {
		url = url[:maxKeyLen]
	}
	return "scrape." + base64.RawURLEncoding.EncodeToString([]byte(url))
}

// Get returns the cached page for a URL, or absence. Corrupt or
// structurally invalid entries are deleted and reported as a miss; they
// are never served.
func (c *ContentCache) Get(ctx context.Context, url string) (*model.CachedPage, bool) {
	key := Key(url)

	data, found, err := c.store.Get(ctx, key)
	if err != nil {
		c.logger.Warn("page cache read failed", zap.String("url", url), zap.Error(err))
		metrics.RecordCacheMiss()
		return nil, false
	}
	if !found {
		metrics.RecordCacheMiss()
		return nil, false
	}

	var page model.CachedPage
	if err := json.Unmarshal(data, &page); err != nil {
		c.purge(ctx, key, url, "undecodable entry")
		return nil, false
	}
	if page.URL == "" || page.CachedAt.IsZero() {
		c.purge(ctx, key, url, "missing required fields")
		return nil, false
	}

	metrics.RecordCacheHit()
	return &page, true
}

// Put stores a page under its URL key, overwriting any existing entry.
// Oversized payloads are refused silently; the caller is not informed.
func (c *ContentCache) Put(ctx context.Context, url string, page *model.CachedPage) {
	data, err := json.Marshal(page)
	if err != nil {
		c.logger.Warn("page cache marshal failed", zap.String("url", url), zap.Error(err))
		return
	}

	if len(data) > maxPayloadBytes {
		c.logger.Info("page cache payload too large, not storing",
			zap.String("url", url),
			zap.Int("bytes", len(data)),
		)
		metrics.RecordCacheReject()
		return
	}

	if err := c.store.Put(ctx, Key(url), data); err != nil {
		c.logger.Warn("page cache write failed", zap.String("url", url), zap.Error(err))
	}
}

func (c *ContentCache) purge(ctx context.Context, key, url, reason string) {
	c.logger.Warn("purging corrupt page cache entry",
		zap.String("url", url),
		zap.String("reason", reason),
	)
	if err := c.store.Delete(ctx, key); err != nil {
		c.logger.Warn("page cache purge failed", zap.String("url", url), zap.Error(err))
	}
	metrics.RecordCachePurge()
	metrics.RecordCacheMiss()
}
