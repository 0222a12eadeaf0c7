// Package cached puts a ProfileCache in front of the intake and facts reads
// that every chat turn performs.
package cached

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/chirino/gina-service/internal/model"
	registrycache "github.com/chirino/gina-service/internal/registry/cache"
	registrystore "github.com/chirino/gina-service/internal/registry/store"
	"github.com/chirino/gina-service/internal/security"
)

// Wrap returns inner unchanged when c is nil or unavailable.
func Wrap(inner registrystore.RecordStore, c registrycache.ProfileCache, ttl time.Duration) registrystore.RecordStore {
	if c == nil || !c.Available() {
		return inner
	}
	return &cachedStore{RecordStore: inner, cache: c, ttl: ttl, gens: map[string]uint64{}}
}

// cachedStore counts writes per user. A miss only fills the cache when no
// write landed while it was reading the store, so a read racing a write
// cannot cache the pre-write profile. The count is per process.
type cachedStore struct {
	registrystore.RecordStore
	cache registrycache.ProfileCache
	ttl   time.Duration

	mu   sync.Mutex
	gens map[string]uint64
}

func (s *cachedStore) generation(userID string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gens[userID]
}

func (s *cachedStore) profile(ctx context.Context, userID string) (*registrycache.CachedProfile, error) {
	cached, err := s.cache.Get(ctx, userID)
	if err != nil {
		log.Warn("Profile cache read failed", "userId", userID, "err", err)
	}
	if cached != nil {
		security.CountCacheLookup(true)
		return cached, nil
	}
	security.CountCacheLookup(false)

	gen := s.generation(userID)
	intake, err := s.RecordStore.GetIntake(ctx, userID)
	if err != nil {
		return nil, err
	}
	facts, err := s.RecordStore.GetFacts(ctx, userID)
	if err != nil {
		return nil, err
	}
	p := registrycache.CachedProfile{Intake: intake, Facts: facts}
	s.mu.Lock()
	if s.gens[userID] == gen {
		if err := s.cache.Set(ctx, userID, p, s.ttl); err != nil {
			log.Warn("Profile cache write failed", "userId", userID, "err", err)
		}
	}
	s.mu.Unlock()
	return &p, nil
}

func (s *cachedStore) invalidate(ctx context.Context, userID string) {
	s.mu.Lock()
	s.gens[userID]++
	s.mu.Unlock()
	if err := s.cache.Remove(ctx, userID); err != nil {
		log.Warn("Profile cache invalidation failed", "userId", userID, "err", err)
	}
}

func (s *cachedStore) GetIntake(ctx context.Context, userID string) (*model.Intake, error) {
	p, err := s.profile(ctx, userID)
	if err != nil {
		return nil, err
	}
	return p.Intake, nil
}

func (s *cachedStore) GetFacts(ctx context.Context, userID string) (model.Facts, error) {
	p, err := s.profile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if p.Facts == nil {
		return model.Facts{}, nil
	}
	return p.Facts, nil
}

func (s *cachedStore) UpsertIntake(ctx context.Context, userID string, update registrystore.IntakeUpdate) (*model.Intake, error) {
	defer s.invalidate(ctx, userID)
	return s.RecordStore.UpsertIntake(ctx, userID, update)
}

func (s *cachedStore) ReplaceFacts(ctx context.Context, userID string, facts model.Facts) error {
	defer s.invalidate(ctx, userID)
	return s.RecordStore.ReplaceFacts(ctx, userID, facts)
}

func (s *cachedStore) MergeFacts(ctx context.Context, userID string, patch model.Facts) (model.Facts, error) {
	defer s.invalidate(ctx, userID)
	return s.RecordStore.MergeFacts(ctx, userID, patch)
}

func (s *cachedStore) DeleteUser(ctx context.Context, userID string) error {
	defer s.invalidate(ctx, userID)
	return s.RecordStore.DeleteUser(ctx, userID)
}

var _ registrystore.RecordStore = (*cachedStore)(nil)
