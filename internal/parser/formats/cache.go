package formats

import (
	"context"
	"crypto/md5"
	"encoding/base64"
	"encoding/hex"
)

// responseCache is the narrow contract the PDF extraction chain's caching
// decorator needs — satisfied by *redis.CacheService without formats
// importing the redis package's full surface.
type responseCache interface {
	CacheDoc2XResponse(ctx context.Context, md5Hash string, response interface{}) error
	GetDoc2XResponse(ctx context.Context, md5Hash string, dest interface{}) error
}

type cachedExtractorResponse struct {
	Markdown string            `json:"markdown"`
	Images   map[string]string `json:"images"`
}

// cachedExtractor wraps a DocumentExtractor with an MD5-keyed response
// cache: a hit skips the (expensive, HTTP-bound) extractor call entirely.
// A cache read or write failure is non-fatal — it falls through to the
// real extractor, matching the collaborator's best-effort contract.
type cachedExtractor struct {
	inner DocumentExtractor
	cache responseCache
}

func withResponseCache(inner DocumentExtractor, cache responseCache) DocumentExtractor {
	if cache == nil {
		return inner
	}
	return &cachedExtractor{inner: inner, cache: cache}
}

func (c *cachedExtractor) Extract(ctx context.Context, data []byte) (string, map[string][]byte, error) {
	sum := md5.Sum(data)
	key := hex.EncodeToString(sum[:])

	var cached cachedExtractorResponse
	if err := c.cache.GetDoc2XResponse(ctx, key, &cached); err == nil && cached.Markdown != "" {
		return cached.Markdown, decodeImageMap(cached.Images), nil
	}

	md, images, err := c.inner.Extract(ctx, data)
	if err == nil && md != "" {
		_ = c.cache.CacheDoc2XResponse(ctx, key, cachedExtractorResponse{
			Markdown: md,
			Images:   encodeImageMap(images),
		})
	}
	return md, images, err
}

func encodeImageMap(images map[string][]byte) map[string]string {
	if len(images) == 0 {
		return nil
	}
	out := make(map[string]string, len(images))
	for path, data := range images {
		out[path] = base64.StdEncoding.EncodeToString(data)
	}
	return out
}

func decodeImageMap(images map[string]string) map[string][]byte {
	if len(images) == 0 {
		return nil
	}
	out := make(map[string][]byte, len(images))
	for path, encoded := range images {
		raw, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			continue
		}
		out[path] = raw
	}
	return out
}
