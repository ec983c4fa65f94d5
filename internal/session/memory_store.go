package session

import (
	"context"

	"github.com/patrickmn/go-cache"
)

// MemoryStore keeps sessions in process memory. Several stores may share one
// cache as long as their namespaces differ.
type MemoryStore struct {
	cache     *cache.Cache
	namespace string
}

func NewMemoryStore(c *cache.Cache, namespace string) *MemoryStore {
	if c == nil {
		c = cache.New(cache.NoExpiration, 0)
	}
	return &MemoryStore{cache: c, namespace: namespace}
}

func (s *MemoryStore) key(k string) string {
	return s.namespace + ":" + k
}

func (s *MemoryStore) Get(_ context.Context, key string) (string, error) {
	v, ok := s.cache.Get(s.key(key))
	if !ok {
		return "", ErrNotFound
	}
	str, ok := v.(string)
	if !ok {
		return "", ErrNotFound
	}
	return str, nil
}

func (s *MemoryStore) Set(_ context.Context, key, value string) error {
	s.cache.Set(s.key(key), value, cache.NoExpiration)
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, keys ...string) error {
	for _, k := range keys {
		s.cache.Delete(s.key(k))
	}
	return nil
}
