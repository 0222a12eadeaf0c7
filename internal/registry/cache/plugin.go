package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/chirino/gina-service/internal/model"
)

type profileCacheKey struct{}

// WithProfileCacheContext returns a new context carrying the given ProfileCache.
func WithProfileCacheContext(ctx context.Context, c ProfileCache) context.Context {
	return context.WithValue(ctx, profileCacheKey{}, c)
}

// ProfileCacheFromContext retrieves the ProfileCache from the context.
// Returns nil if none was set.
func ProfileCacheFromContext(ctx context.Context) ProfileCache {
	c, _ := ctx.Value(profileCacheKey{}).(ProfileCache)
	return c
}

// CachedProfile holds the records read on every chat turn for a user.
// A nil Intake means the user has no intake record.
type CachedProfile struct {
	Intake *model.Intake `json:"intake,omitempty"`
	Facts  model.Facts   `json:"facts"`
}

// ProfileCache caches per-user intake and facts between chat turns.
type ProfileCache interface {
	Available() bool
	Get(ctx context.Context, userID string) (*CachedProfile, error)
	Set(ctx context.Context, userID string, profile CachedProfile, ttl time.Duration) error
	Remove(ctx context.Context, userID string) error
}

// Loader creates a cache from config.
type Loader func(ctx context.Context) (ProfileCache, error)

// Plugin represents a cache plugin.
type Plugin struct {
	Name   string
	Loader Loader
}

var plugins []Plugin

// Register adds a cache plugin.
func Register(p Plugin) {
	plugins = append(plugins, p)
}

// Names returns all registered cache plugin names.
func Names() []string {
	names := make([]string, len(plugins))
	for i, p := range plugins {
		names[i] = p.Name
	}
	return names
}

// Select returns the loader for the named cache plugin.
func Select(name string) (Loader, error) {
	for _, p := range plugins {
		if p.Name == name {
			return p.Loader, nil
		}
	}
	return nil, fmt.Errorf("unknown cache %q; valid: %v", name, Names())
}
