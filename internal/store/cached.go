package store

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/AnshRaj112/recuerdos-backend/internal/models"
)

// ListCache holds list and search results per owner. Entries are keyed by
// the owner's generation; Invalidate moves the owner to a new generation so
// results loaded before a write are never served after it. A miss is
// (nil, false, nil).
type ListCache interface {
	Generation(ctx context.Context, userID string) (uint64, error)
	GetList(ctx context.Context, userID string, gen uint64, scope string) ([]models.Recuerdo, bool, error)
	SetList(ctx context.Context, userID string, gen uint64, scope string, list []models.Recuerdo) error
	Invalidate(ctx context.Context, userID string) error
}

const scopeList = "list"

func searchScope(term string) string {
	return "search:" + strings.ToLower(strings.TrimSpace(term))
}

// CachedStore serves List and Search from a ListCache and drops an owner's
// cached results after every successful write by that owner. Concurrent
// misses for the same key share one backend call. Cache failures are logged
// and never fail the request.
type CachedStore struct {
	next  Store
	cache ListCache
	group singleflight.Group

	mu  sync.Mutex
	gen map[string]uint64
	// stale holds owners whose invalidation has not completed; their reads
	// skip the cache.
	stale map[string]bool
}

func NewCachedStore(next Store, cache ListCache) *CachedStore {
	return &CachedStore{next: next, cache: cache, gen: make(map[string]uint64), stale: make(map[string]bool)}
}

func (s *CachedStore) List(ctx context.Context, userID string) ([]models.Recuerdo, error) {
	return s.cachedList(ctx, userID, scopeList, func(ctx context.Context) ([]models.Recuerdo, error) {
		return s.next.List(ctx, userID)
	})
}

func (s *CachedStore) Search(ctx context.Context, userID, term string) ([]models.Recuerdo, error) {
	if strings.TrimSpace(term) == "" {
		return []models.Recuerdo{}, nil
	}
	return s.cachedList(ctx, userID, searchScope(term), func(ctx context.Context) ([]models.Recuerdo, error) {
		return s.next.Search(ctx, userID, term)
	})
}

func (s *CachedStore) Get(ctx context.Context, id, userID string) (models.Recuerdo, error) {
	return s.next.Get(ctx, id, userID)
}

func (s *CachedStore) Create(ctx context.Context, r models.Recuerdo) (models.Recuerdo, error) {
	created, err := s.next.Create(ctx, r)
	if err != nil {
		return created, err
	}
	s.invalidate(ctx, r.UserID)
	return created, nil
}

func (s *CachedStore) Update(ctx context.Context, r models.Recuerdo) (models.Recuerdo, error) {
	updated, err := s.next.Update(ctx, r)
	if err != nil {
		return updated, err
	}
	s.invalidate(ctx, r.UserID)
	return updated, nil
}

func (s *CachedStore) Delete(ctx context.Context, id, userID string) error {
	if err := s.next.Delete(ctx, id, userID); err != nil {
		return err
	}
	s.invalidate(ctx, userID)
	return nil
}

func (s *CachedStore) Ping(ctx context.Context) error { return s.next.Ping(ctx) }

func (s *CachedStore) Close() error { return s.next.Close() }

func (s *CachedStore) cachedList(ctx context.Context, userID, scope string, load func(context.Context) ([]models.Recuerdo, error)) ([]models.Recuerdo, error) {
	// Both generations are read before anything else, so a call that starts
	// after a write never shares a load or an entry from before it.
	local, stale := s.generation(userID)
	if stale && !s.retryInvalidate(ctx, userID) {
		return load(ctx)
	}
	gen, err := s.cache.Generation(ctx, userID)
	if err != nil {
		log.Printf("⚠️  recuerdos cache generation read failed (user=%s): %v", userID, err)
		return load(ctx)
	}

	if list, ok, err := s.cache.GetList(ctx, userID, gen, scope); err != nil {
		log.Printf("⚠️  recuerdos cache read failed (user=%s scope=%s): %v", userID, scope, err)
	} else if ok {
		return list, nil
	}

	key := fmt.Sprintf("%s\x00%d\x00%d\x00%s", userID, local, gen, scope)
	v, err, _ := s.group.Do(key, func() (interface{}, error) {
		list, err := load(ctx)
		if err != nil {
			return nil, err
		}
		if err := s.cache.SetList(ctx, userID, gen, scope, list); err != nil {
			log.Printf("⚠️  recuerdos cache write failed (user=%s scope=%s): %v", userID, scope, err)
		}
		return list, nil
	})
	if err != nil {
		return nil, err
	}
	shared := v.([]models.Recuerdo)
	out := make([]models.Recuerdo, len(shared))
	copy(out, shared)
	return out, nil
}

func (s *CachedStore) generation(userID string) (uint64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen[userID], s.stale[userID]
}

func (s *CachedStore) invalidate(ctx context.Context, userID string) {
	// Reads skip the cache until the new generation is stored.
	s.mu.Lock()
	s.gen[userID]++
	s.stale[userID] = true
	s.mu.Unlock()
	if !s.retryInvalidate(ctx, userID) {
		log.Printf("⚠️  recuerdos cache invalidation failed (user=%s); bypassing cache until it succeeds", userID)
	}
}

func (s *CachedStore) retryInvalidate(ctx context.Context, userID string) bool {
	if err := s.cache.Invalidate(ctx, userID); err != nil {
		return false
	}
	s.mu.Lock()
	delete(s.stale, userID)
	s.mu.Unlock()
	return true
}
