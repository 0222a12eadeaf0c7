package noop

import (
	"context"
	"time"

	"github.com/chirino/gina-service/internal/registry/cache"
)

func init() {
	cache.Register(cache.Plugin{
		Name: "none",
		Loader: func(ctx context.Context) (cache.ProfileCache, error) {
			return &noopProfileCache{}, nil
		},
	})
}

type noopProfileCache struct{}

func (n *noopProfileCache) Available() bool { return false }
func (n *noopProfileCache) Get(_ context.Context, _ string) (*cache.CachedProfile, error) {
	return nil, nil
}
func (n *noopProfileCache) Set(_ context.Context, _ string, _ cache.CachedProfile, _ time.Duration) error {
	return nil
}
func (n *noopProfileCache) Remove(_ context.Context, _ string) error { return nil }

var _ cache.ProfileCache = (*noopProfileCache)(nil)
