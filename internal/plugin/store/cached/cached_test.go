package cached

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/chirino/gina-service/internal/model"
	"github.com/chirino/gina-service/internal/plugin/cache/local"
	registrycache "github.com/chirino/gina-service/internal/registry/cache"
	registrystore "github.com/chirino/gina-service/internal/registry/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingStore struct {
	registrystore.RecordStore
	facts       model.Facts
	factReads   int
	intakeReads int
}

func (s *countingStore) GetIntake(context.Context, string) (*model.Intake, error) {
	s.intakeReads++
	return nil, nil
}

func (s *countingStore) GetFacts(context.Context, string) (model.Facts, error) {
	s.factReads++
	return s.facts, nil
}

func (s *countingStore) MergeFacts(_ context.Context, _ string, patch model.Facts) (model.Facts, error) {
	s.facts = s.facts.Merge(patch)
	return s.facts, nil
}

func TestProfileReadsAreCachedUntilAWrite(t *testing.T) {
	ctx := context.Background()
	c, err := local.New(10, time.Minute)
	require.NoError(t, err)
	inner := &countingStore{facts: model.Facts{"a": "1"}}
	store := Wrap(inner, c, time.Minute)

	facts, err := store.GetFacts(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, model.Facts{"a": "1"}, facts)
	intake, err := store.GetIntake(ctx, "u1")
	require.NoError(t, err)
	assert.Nil(t, intake)
	assert.Equal(t, 1, inner.factReads)
	assert.Equal(t, 1, inner.intakeReads)

	_, err = store.MergeFacts(ctx, "u1", model.Facts{"b": "2"})
	require.NoError(t, err)

	facts, err = store.GetFacts(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, model.Facts{"a": "1", "b": "2"}, facts)
	assert.Equal(t, 2, inner.factReads)
}

func TestWrapWithoutCacheReturnsInner(t *testing.T) {
	inner := &countingStore{}
	assert.Same(t, registrystore.RecordStore(inner), Wrap(inner, nil, time.Minute))
}

// mapCache stores synchronously so a stale write would be visible at once.
type mapCache struct {
	mu       sync.Mutex
	profiles map[string]registrycache.CachedProfile
}

func (c *mapCache) Available() bool { return true }

func (c *mapCache) Get(_ context.Context, userID string) (*registrycache.CachedProfile, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.profiles[userID]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (c *mapCache) Set(_ context.Context, userID string, p registrycache.CachedProfile, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.profiles[userID] = p
	return nil
}

func (c *mapCache) Remove(_ context.Context, userID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.profiles, userID)
	return nil
}

// pausingStore hands out the facts it held when the read started, then waits
// for release before returning them.
type pausingStore struct {
	registrystore.RecordStore
	mu      sync.Mutex
	facts   model.Facts
	reading chan struct{}
	release chan struct{}
}

func (s *pausingStore) GetIntake(context.Context, string) (*model.Intake, error) {
	return nil, nil
}

func (s *pausingStore) GetFacts(context.Context, string) (model.Facts, error) {
	s.mu.Lock()
	snapshot := s.facts
	s.mu.Unlock()
	if s.reading != nil {
		close(s.reading)
		s.reading = nil
		<-s.release
	}
	return snapshot, nil
}

func (s *pausingStore) MergeFacts(_ context.Context, _ string, patch model.Facts) (model.Facts, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.facts = s.facts.Merge(patch)
	return s.facts, nil
}

func TestReadRacingAWriteDoesNotCacheStaleProfile(t *testing.T) {
	ctx := context.Background()
	inner := &pausingStore{
		facts:   model.Facts{"a": "1"},
		reading: make(chan struct{}),
		release: make(chan struct{}),
	}
	reading := inner.reading
	cache := &mapCache{profiles: map[string]registrycache.CachedProfile{}}
	store := Wrap(inner, cache, time.Minute)

	done := make(chan model.Facts)
	go func() {
		facts, err := store.GetFacts(ctx, "u1")
		assert.NoError(t, err)
		done <- facts
	}()

	<-reading
	_, err := store.MergeFacts(ctx, "u1", model.Facts{"b": "2"})
	require.NoError(t, err)
	close(inner.release)
	assert.Equal(t, model.Facts{"a": "1"}, <-done)

	cached, err := cache.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Nil(t, cached)

	facts, err := store.GetFacts(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, model.Facts{"a": "1", "b": "2"}, facts)
}
