package toolcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"campus-qa-be/pkg/rag/tools"

	"github.com/redis/go-redis/v9"
)

// Cache stores successful tool results in redis, keyed by tool name and
// normalized parameters. Every failure path is non-fatal: a broken cache
// degrades to uncached execution.
type Cache struct {
	client *redis.Client
	logger *log.Logger
}

func NewCache(client *redis.Client, logger *log.Logger) *Cache {
	return &Cache{client: client, logger: logger}
}

// Get returns the cached result for a tool invocation, or nil on miss or
// any cache error.
func (c *Cache) Get(ctx context.Context, tool string, params map[string]interface{}) *tools.Result {
	if c == nil || c.client == nil {
		return nil
	}

	raw, err := c.client.Get(ctx, cacheKey(tool, params)).Bytes()
	if err == redis.Nil {
		return nil
	}
	if err != nil {
		c.logger.Printf("[TOOLCACHE] get failed for %s: %v", tool, err)
		return nil
	}

	var result tools.Result
	if err := json.Unmarshal(raw, &result); err != nil {
		c.logger.Printf("[TOOLCACHE] corrupt entry for %s: %v", tool, err)
		return nil
	}
	return &result
}

// Set stores a successful result. Empty and error results are never
// cached; neither are results for tools with a zero TTL.
func (c *Cache) Set(ctx context.Context, tool string, params map[string]interface{}, result *tools.Result, ttl time.Duration) {
	if c == nil || c.client == nil || ttl <= 0 {
		return
	}
	if result == nil || result.Status != tools.StatusSuccess {
		return
	}

	raw, err := json.Marshal(result)
	if err != nil {
		c.logger.Printf("[TOOLCACHE] marshal failed for %s: %v", tool, err)
		return
	}
	if err := c.client.Set(ctx, cacheKey(tool, params), raw, ttl).Err(); err != nil {
		c.logger.Printf("[TOOLCACHE] set failed for %s: %v", tool, err)
	}
}

// cacheKey hashes the canonical JSON encoding of the parameters; map keys
// marshal in sorted order so equivalent invocations share one key.
func cacheKey(tool string, params map[string]interface{}) string {
	raw, err := json.Marshal(params)
	if err != nil {
		raw = []byte(fmt.Sprintf("%v", params))
	}
	sum := sha256.Sum256(raw)
	return "toolcache:" + tool + ":" + hex.EncodeToString(sum[:16])
}
