package tokenstore

import (
	"context"
	"sync"
	"time"
)

// MemoryStore 内存存储，过期条目由后台定期清理
type MemoryStore struct {
	mu    sync.RWMutex
	items map[string]memoryItem
	ttl   time.Duration
	now   func() time.Time
}

type memoryItem struct {
	tokens    Tokens
	expiresAt time.Time
}

// NewMemoryStore creates a store whose entries live for ttl; zero keeps them
// until cleared.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		items: make(map[string]memoryItem),
		ttl:   ttl,
		now:   time.Now,
	}
}

func (s *MemoryStore) Load(ctx context.Context, key string) (Tokens, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.items[key]
	if !ok || s.expired(item) {
		return Tokens{}, errNotFound(key)
	}
	return item.tokens, nil
}

func (s *MemoryStore) Save(ctx context.Context, key string, t Tokens) error {
	item := memoryItem{tokens: t}
	if s.ttl > 0 {
		item.expiresAt = s.now().Add(s.ttl)
	}

	s.mu.Lock()
	s.items[key] = item
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Clear(ctx context.Context, key string) error {
	s.mu.Lock()
	delete(s.items, key)
	s.mu.Unlock()
	return nil
}

// Cleanup 清理过期条目，直到 ctx 结束
func (s *MemoryStore) Cleanup(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.mu.Lock()
			for key, item := range s.items {
				if s.expired(item) {
					delete(s.items, key)
				}
			}
			s.mu.Unlock()
		case <-ctx.Done():
			return
		}
	}
}

func (s *MemoryStore) expired(item memoryItem) bool {
	return !item.expiresAt.IsZero() && s.now().After(item.expiresAt)
}
