package sqldb

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	lru "github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/HatfieldAlex/MyPocketSpice/pkg/catalog"
	"github.com/HatfieldAlex/MyPocketSpice/pkg/observability"
)

const (
	recipeKeyPrefix = "spice:recipe:"
	detailCacheName = "recipe_detail"
)

// CachedStore decorates a catalog.Store with a two-level recipe detail
// cache: an in-process expirable LRU in front of an optional Redis layer.
// Every other method passes through. Writes invalidate affected entries and
// notify change listeners.
type CachedStore struct {
	catalog.Store

	l1      *lru.LRU[int64, *catalog.RecipeDetail]
	redis   *redis.Client
	ttl     time.Duration
	metrics *observability.Metrics

	mu        sync.RWMutex
	listeners []func()
}

// NewCachedStore wraps store. redisClient and metrics may be nil.
func NewCachedStore(store catalog.Store, entries int, ttl time.Duration, redisClient *redis.Client, metrics *observability.Metrics) *CachedStore {
	if entries <= 0 {
		entries = 512
	}
	return &CachedStore{
		Store:   store,
		l1:      lru.NewLRU[int64, *catalog.RecipeDetail](entries, nil, ttl),
		redis:   redisClient,
		ttl:     ttl,
		metrics: metrics,
	}
}

// OnChange registers fn to run after every successful catalogue write
func (c *CachedStore) OnChange(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, fn)
}

func (c *CachedStore) changed() {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, fn := range c.listeners {
		fn()
	}
}

func recipeKey(id int64) string {
	return recipeKeyPrefix + strconv.FormatInt(id, 10)
}

// GetRecipe serves from L1, then Redis, then the wrapped store
func (c *CachedStore) GetRecipe(ctx context.Context, id int64) (*catalog.RecipeDetail, error) {
	if detail, ok := c.l1.Get(id); ok {
		c.metrics.CacheHit(detailCacheName, "l1")
		return detail, nil
	}
	c.metrics.CacheMiss(detailCacheName, "l1")

	if c.redis != nil {
		var detail catalog.RecipeDetail
		err := getJSON(ctx, c.redis, recipeKey(id), &detail)
		switch {
		case err == nil:
			c.metrics.CacheHit(detailCacheName, "l2")
			c.l1.Add(id, &detail)
			return &detail, nil
		case errors.Is(err, errCacheMiss):
			c.metrics.CacheMiss(detailCacheName, "l2")
		default:
			observability.FromContext(ctx).WithError(err).Warn("recipe cache read failed")
		}
	}

	detail, err := c.Store.GetRecipe(ctx, id)
	if err != nil {
		return nil, err
	}

	c.l1.Add(id, detail)
	if c.redis != nil {
		if err := setJSON(ctx, c.redis, recipeKey(id), detail, c.ttl); err != nil {
			observability.FromContext(ctx).WithError(err).Warn("recipe cache write failed")
		}
	}
	return detail, nil
}

// CreateRecipe primes the cache with the new recipe
func (c *CachedStore) CreateRecipe(ctx context.Context, in *catalog.CreateRecipeInput) (*catalog.RecipeDetail, error) {
	detail, err := c.Store.CreateRecipe(ctx, in)
	if err != nil {
		return nil, err
	}
	c.l1.Add(detail.ID, detail)
	c.changed()
	return detail, nil
}

// DeleteRecipe evicts the recipe from both levels
func (c *CachedStore) DeleteRecipe(ctx context.Context, id int64) error {
	if err := c.Store.DeleteRecipe(ctx, id); err != nil {
		return err
	}
	c.l1.Remove(id)
	if c.redis != nil {
		if err := c.redis.Del(ctx, recipeKey(id)).Err(); err != nil {
			observability.FromContext(ctx).WithError(err).Warn("recipe cache delete failed")
		}
	}
	c.changed()
	return nil
}

// DeleteCategory only succeeds for unreferenced categories, so no cached
// recipe changes
func (c *CachedStore) DeleteCategory(ctx context.Context, id int64) error {
	if err := c.Store.DeleteCategory(ctx, id); err != nil {
		return err
	}
	c.changed()
	return nil
}

// DeleteSkillLevel nulls the level on recipes, so every entry is dropped
func (c *CachedStore) DeleteSkillLevel(ctx context.Context, id int64) error {
	if err := c.Store.DeleteSkillLevel(ctx, id); err != nil {
		return err
	}
	if err := c.Purge(ctx); err != nil {
		observability.FromContext(ctx).WithError(err).Warn("recipe cache purge failed")
	}
	c.changed()
	return nil
}

// Purge empties both cache levels
func (c *CachedStore) Purge(ctx context.Context) error {
	c.l1.Purge()
	if c.redis == nil {
		return nil
	}

	iter := c.redis.Scan(ctx, 0, recipeKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		if err := c.redis.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("failed to delete key %s: %w", iter.Val(), err)
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}
	return nil
}

// Len returns the number of L1 entries
func (c *CachedStore) Len() int {
	return c.l1.Len()
}
