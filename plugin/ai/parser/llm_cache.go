package parser

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/hrygo/appointment-assistant/plugin/ai/cache"
)

// CachedExtractor memoizes extraction results. The key includes the request
// day because relative phrases like "tomorrow" resolve differently as the
// reference date moves.
type CachedExtractor struct {
	inner Extractor
	cache *cache.Cache
}

// NewCachedExtractor wraps an extractor with a cache.
func NewCachedExtractor(inner Extractor, c *cache.Cache) *CachedExtractor {
	return &CachedExtractor{inner: inner, cache: c}
}

// Extract serves repeated utterances from the cache, delegating misses to
// the wrapped extractor. Errors are never cached.
func (e *CachedExtractor) Extract(ctx context.Context, text string, now time.Time) (*Extraction, error) {
	key := now.Format("2006-01-02") + "|" + strings.ToLower(strings.TrimSpace(text))

	if data, ok := e.cache.Get(key); ok {
		var ext Extraction
		if err := json.Unmarshal(data, &ext); err == nil {
			return &ext, nil
		}
		e.cache.Delete(key)
	}

	ext, err := e.inner.Extract(ctx, text, now)
	if err != nil || ext == nil {
		return ext, err
	}
	if data, err := json.Marshal(ext); err == nil {
		e.cache.Set(key, data, 0)
	}
	return ext, nil
}
