// Package local is an in-process profile cache for single-replica deployments.
package local

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/chirino/gina-service/internal/config"
	registrycache "github.com/chirino/gina-service/internal/registry/cache"
	"github.com/dgraph-io/ristretto/v2"
)

const (
	defaultTTL        = 10 * time.Minute
	defaultMaxEntries = 10_000
)

func init() {
	registrycache.Register(registrycache.Plugin{
		Name: "local",
		Loader: func(ctx context.Context) (registrycache.ProfileCache, error) {
			cfg := config.FromContext(ctx)
			if cfg == nil {
				return New(defaultMaxEntries, defaultTTL)
			}
			return New(cfg.CacheLocalMaxEntries, cfg.CacheTTL)
		},
	})
}

// New creates a cache holding up to maxEntries profiles.
func New(maxEntries int64, ttl time.Duration) (registrycache.ProfileCache, error) {
	if maxEntries <= 0 {
		maxEntries = defaultMaxEntries
	}
	if ttl <= 0 {
		ttl = defaultTTL
	}
	c, err := ristretto.NewCache(&ristretto.Config[string, []byte]{
		NumCounters: maxEntries * 10,
		MaxCost:     maxEntries,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("local cache: %w", err)
	}
	return &localProfileCache{cache: c, ttl: ttl}, nil
}

// Profiles are stored as JSON so callers never share the cached maps.
type localProfileCache struct {
	cache *ristretto.Cache[string, []byte]
	ttl   time.Duration
}

func (c *localProfileCache) Available() bool { return true }

func (c *localProfileCache) Get(_ context.Context, userID string) (*registrycache.CachedProfile, error) {
	data, ok := c.cache.Get(userID)
	if !ok {
		return nil, nil
	}
	var cached registrycache.CachedProfile
	if err := json.Unmarshal(data, &cached); err != nil {
		return nil, err
	}
	return &cached, nil
}

func (c *localProfileCache) Set(_ context.Context, userID string, profile registrycache.CachedProfile, ttl time.Duration) error {
	data, err := json.Marshal(profile)
	if err != nil {
		return err
	}
	if ttl <= 0 {
		ttl = c.ttl
	}
	c.cache.SetWithTTL(userID, data, 1, ttl)
	c.cache.Wait()
	return nil
}

func (c *localProfileCache) Remove(_ context.Context, userID string) error {
	c.cache.Del(userID)
	return nil
}

var _ registrycache.ProfileCache = (*localProfileCache)(nil)
