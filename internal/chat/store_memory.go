package chat

import (
	"container/list"
	"context"
	"sync"
	"time"
)

// MemoryStore is an LRU session store with TTL and size-based eviction.
// It backs single-instance deployments and tests; multi-instance
// deployments use the Redis store.
type MemoryStore struct {
	mu      sync.Mutex
	maxSize int
	ttl     time.Duration
	items   map[string]*list.Element
	lru     *list.List
}

type storeItem struct {
	phone     string
	session   Session
	expiresAt time.Time
}

func NewMemoryStore(maxSize int, ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		maxSize: maxSize,
		ttl:     ttl,
		items:   make(map[string]*list.Element),
		lru:     list.New(),
	}
}

func (s *MemoryStore) Get(_ context.Context, phone string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	elem, exists := s.items[phone]
	if !exists {
		return nil, ErrSessionNotFound
	}
	item := elem.Value.(*storeItem)
	if time.Now().After(item.expiresAt) {
		s.removeElement(elem)
		return nil, ErrSessionNotFound
	}
	s.lru.MoveToFront(elem)
	session := item.session
	return &session, nil
}

func (s *MemoryStore) Put(_ context.Context, session *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	item := &storeItem{
		phone:     session.Phone,
		session:   *session,
		expiresAt: time.Now().Add(s.ttl),
	}
	if elem, exists := s.items[session.Phone]; exists {
		elem.Value = item
		s.lru.MoveToFront(elem)
		return nil
	}
	elem := s.lru.PushFront(item)
	s.items[session.Phone] = elem
	if s.lru.Len() > s.maxSize {
		if oldest := s.lru.Back(); oldest != nil {
			s.removeElement(oldest)
		}
	}
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, phone string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if elem, exists := s.items[phone]; exists {
		s.removeElement(elem)
	}
	return nil
}

// CleanExpired drops every expired session and reports how many were
// removed.
func (s *MemoryStore) CleanExpired() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	cleaned := 0
	for elem := s.lru.Back(); elem != nil; {
		prev := elem.Prev()
		if now.After(elem.Value.(*storeItem).expiresAt) {
			s.removeElement(elem)
			cleaned++
		}
		elem = prev
	}
	return cleaned
}

// Size returns the number of live sessions.
func (s *MemoryStore) Size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lru.Len()
}

func (s *MemoryStore) removeElement(elem *list.Element) {
	item := elem.Value.(*storeItem)
	delete(s.items, item.phone)
	s.lru.Remove(elem)
}
