// internal/catalog/cache.go
package catalog

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"shop-assistant/internal/common/logger"
	"shop-assistant/internal/models"
)

const (
	intentCacheKey      = "catalog:intents"
	capabilityKeysCache = "catalog:capability_keys"
)

// Cache is the explicitly constructed, injected cache for the resolved intent
// catalog and the capability-key list. Read-through against redis with an
// in-process copy; entries expire after TTL and can be refreshed explicitly.
// Shared read-only across concurrent requests.
type Cache struct {
	store  *Store
	redis  *redis.Client
	ttl    time.Duration
	logger logger.Logger

	mu              sync.RWMutex
	intents         []models.Intent
	intentsByID     map[string]models.Intent
	capabilityKeys  []string
	intentsLoadedAt time.Time
	capsLoadedAt    time.Time
}

func NewCache(store *Store, rdb *redis.Client, ttl time.Duration, log logger.Logger) *Cache {
	return &Cache{
		store:  store,
		redis:  rdb,
		ttl:    ttl,
		logger: log.With(map[string]interface{}{"component": "catalog-cache"}),
	}
}

// Intents returns the cached intent catalog, loading it on first use.
func (c *Cache) Intents(ctx context.Context) ([]models.Intent, error) {
	c.mu.RLock()
	if c.intents != nil && time.Since(c.intentsLoadedAt) < c.ttl {
		out := c.intents
		c.mu.RUnlock()
		return out, nil
	}
	c.mu.RUnlock()

	return c.loadIntents(ctx)
}

// IntentByID resolves a single intent from the cached catalog.
func (c *Cache) IntentByID(ctx context.Context, intentID string) (models.Intent, bool) {
	if _, err := c.Intents(ctx); err != nil {
		return models.Intent{}, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	it, ok := c.intentsByID[intentID]
	return it, ok
}

// CapabilityKeys returns the cached capability-key list.
func (c *Cache) CapabilityKeys(ctx context.Context) ([]string, error) {
	c.mu.RLock()
	if c.capabilityKeys != nil && time.Since(c.capsLoadedAt) < c.ttl {
		out := c.capabilityKeys
		c.mu.RUnlock()
		return out, nil
	}
	c.mu.RUnlock()

	return c.loadCapabilityKeys(ctx)
}

// Refresh repopulates both cached tables from the store, bypassing redis.
func (c *Cache) Refresh(ctx context.Context) error {
	intents, err := c.store.ListIntents(ctx)
	if err != nil {
		return err
	}
	keys, err := c.store.CapabilityKeys(ctx)
	if err != nil {
		return err
	}

	c.setIntents(intents)
	c.setCapabilityKeys(keys)
	c.writeRedis(ctx, intentCacheKey, intents)
	c.writeRedis(ctx, capabilityKeysCache, keys)
	return nil
}

func (c *Cache) loadIntents(ctx context.Context) ([]models.Intent, error) {
	if raw, err := c.redis.Get(ctx, intentCacheKey).Result(); err == nil {
		var intents []models.Intent
		if err := json.Unmarshal([]byte(raw), &intents); err == nil && len(intents) > 0 {
			c.setIntents(intents)
			return intents, nil
		}
	}

	intents, err := c.store.ListIntents(ctx)
	if err != nil {
		return nil, err
	}
	c.setIntents(intents)
	c.writeRedis(ctx, intentCacheKey, intents)
	return intents, nil
}

func (c *Cache) loadCapabilityKeys(ctx context.Context) ([]string, error) {
	if raw, err := c.redis.Get(ctx, capabilityKeysCache).Result(); err == nil {
		var keys []string
		if err := json.Unmarshal([]byte(raw), &keys); err == nil && len(keys) > 0 {
			c.setCapabilityKeys(keys)
			return keys, nil
		}
	}

	keys, err := c.store.CapabilityKeys(ctx)
	if err != nil {
		return nil, err
	}
	c.setCapabilityKeys(keys)
	c.writeRedis(ctx, capabilityKeysCache, keys)
	return keys, nil
}

func (c *Cache) setIntents(intents []models.Intent) {
	byID := make(map[string]models.Intent, len(intents))
	for _, it := range intents {
		byID[it.IntentID] = it
	}
	c.mu.Lock()
	c.intents = intents
	c.intentsByID = byID
	c.intentsLoadedAt = time.Now()
	c.mu.Unlock()
}

func (c *Cache) setCapabilityKeys(keys []string) {
	c.mu.Lock()
	c.capabilityKeys = keys
	c.capsLoadedAt = time.Now()
	c.mu.Unlock()
}

func (c *Cache) writeRedis(ctx context.Context, key string, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := c.redis.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Warn("cache write failed", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
	}
}
