package service

import (
	"context"
	"sync"
	"time"
)

// UserListCacheStore caches serialized listing responses under a namespace so
// any user mutation can blow the whole namespace away at once.
type UserListCacheStore interface {
	Get(ctx context.Context, namespace, key string) ([]byte, bool, error)
	Set(ctx context.Context, namespace, key string, value []byte, ttl time.Duration) error
	InvalidateNamespace(ctx context.Context, namespace string) error
}

type NoopUserListCacheStore struct{}

func NewNoopUserListCacheStore() *NoopUserListCacheStore {
	return &NoopUserListCacheStore{}
}

func (s *NoopUserListCacheStore) Get(context.Context, string, string) ([]byte, bool, error) {
	return nil, false, nil
}

func (s *NoopUserListCacheStore) Set(context.Context, string, string, []byte, time.Duration) error {
	return nil
}

func (s *NoopUserListCacheStore) InvalidateNamespace(context.Context, string) error {
	return nil
}

type listCacheEntry struct {
	payload   []byte
	expiresAt time.Time
}

type InMemoryUserListCacheStore struct {
	mu    sync.RWMutex
	store map[string]map[string]listCacheEntry
}

func NewInMemoryUserListCacheStore() *InMemoryUserListCacheStore {
	return &InMemoryUserListCacheStore{store: make(map[string]map[string]listCacheEntry)}
}

func (s *InMemoryUserListCacheStore) Get(_ context.Context, namespace, key string) ([]byte, bool, error) {
	now := time.Now().UTC()
	s.mu.RLock()
	entry, ok := s.store[namespace][key]
	s.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if now.After(entry.expiresAt) {
		s.mu.Lock()
		if ns, ok := s.store[namespace]; ok {
			delete(ns, key)
			if len(ns) == 0 {
				delete(s.store, namespace)
			}
		}
		s.mu.Unlock()
		return nil, false, nil
	}
	return append([]byte(nil), entry.payload...), true, nil
}

func (s *InMemoryUserListCacheStore) Set(_ context.Context, namespace, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	ns, ok := s.store[namespace]
	if !ok {
		ns = make(map[string]listCacheEntry)
		s.store[namespace] = ns
	}
	ns[key] = listCacheEntry{
		payload:   append([]byte(nil), value...),
		expiresAt: time.Now().UTC().Add(ttl),
	}
	return nil
}

func (s *InMemoryUserListCacheStore) InvalidateNamespace(_ context.Context, namespace string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.store, namespace)
	return nil
}
