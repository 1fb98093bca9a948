package templates

import (
	"context"
	"time"

	"github.com/akmatori/snowbridge/internal/cache"
	"github.com/akmatori/snowbridge/internal/ticket"
)

// CachedStore serves lookups from a TTL cache in front of another store.
// Templates are immutable, so cached values are shared between requests.
type CachedStore struct {
	next  Store
	cache *cache.Cache[*ticket.Template]
}

// NewCachedStore wraps next with a cache of the given TTL
func NewCachedStore(next Store, ttl time.Duration) *CachedStore {
	return &CachedStore{
		next:  next,
		cache: cache.New[*ticket.Template](ttl, time.Minute),
	}
}

// Lookup returns the cached template or loads it from the wrapped store.
// Misses are not cached.
func (s *CachedStore) Lookup(ctx context.Context, key Key) (*ticket.Template, error) {
	if tmpl, ok := s.cache.Get(key.String()); ok {
		return tmpl, nil
	}

	tmpl, err := s.next.Lookup(ctx, key)
	if err != nil {
		return nil, err
	}

	s.cache.Set(key.String(), tmpl)
	return tmpl, nil
}

// List bypasses the cache
func (s *CachedStore) List(ctx context.Context) ([]Entry, error) {
	return s.next.List(ctx)
}

// Put writes through and drops the cached entry
func (s *CachedStore) Put(ctx context.Context, key Key, tmpl *ticket.Template) error {
	defer s.cache.Delete(key.String())
	return s.next.Put(ctx, key, tmpl)
}

// Delete writes through and drops the cached entry
func (s *CachedStore) Delete(ctx context.Context, key Key) error {
	defer s.cache.Delete(key.String())
	return s.next.Delete(ctx, key)
}

// Stop releases the cache cleanup goroutine
func (s *CachedStore) Stop() {
	s.cache.Stop()
}
