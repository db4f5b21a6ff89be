package redis

import (
	"context"
	"fmt"
	"time"
)

// CacheService is the response cache fronting the PDF extractors: a
// Redis-backed, MD5-keyed cache of the raw extractor response, so a
// previously-converted file never re-invokes MinerU/Markitdown.
type CacheService struct {
	client RedisClient
}

func NewCacheService(client RedisClient) *CacheService {
	return &CacheService{client: client}
}

// Doc2XCacheTTL bounds how long a cached response is trusted before its
// source document could plausibly have changed.
const Doc2XCacheTTL = 7 * 24 * time.Hour

// CacheDoc2XResponse stores the raw extractor response under the source
// file's MD5 hash. A write failure is the caller's to log and ignore: the
// cache is an optimization, not a correctness dependency.
func (s *CacheService) CacheDoc2XResponse(ctx context.Context, md5Hash string, response interface{}) error {
	key := fmt.Sprintf("doc2x:%s", md5Hash)
	return s.client.SetJSON(ctx, key, response, Doc2XCacheTTL)
}

// GetDoc2XResponse looks up a previously cached extractor response. A miss
// leaves dest untouched and returns a nil error; callers distinguish a hit
// from a miss themselves (e.g. by checking a non-zero field in dest).
func (s *CacheService) GetDoc2XResponse(ctx context.Context, md5Hash string, dest interface{}) error {
	key := fmt.Sprintf("doc2x:%s", md5Hash)
	return s.client.GetJSON(ctx, key, dest)
}
