// Package cache keeps short-lived, size-bounded sets of keys.
package cache

import (
	"container/list"
	"sync"
	"time"
)

// SeenSet remembers recently marked keys with TTL and LRU eviction.
type SeenSet struct {
	mu      sync.Mutex
	maxSize int
	ttl     time.Duration
	now     func() time.Time
	items   map[string]*list.Element
	lru     *list.List
}

type seenItem struct {
	key       string
	expiresAt time.Time
}

func NewSeenSet(maxSize int, ttl time.Duration) *SeenSet {
	if maxSize < 1 {
		maxSize = 1
	}
	return &SeenSet{
		maxSize: maxSize,
		ttl:     ttl,
		now:     time.Now,
		items:   make(map[string]*list.Element),
		lru:     list.New(),
	}
}

// Contains reports whether key was marked and has not expired.
func (s *SeenSet) Contains(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	elem, ok := s.items[key]
	if !ok {
		return false
	}
	if s.now().After(elem.Value.(*seenItem).expiresAt) {
		s.remove(elem)
		return false
	}
	s.lru.MoveToFront(elem)
	return true
}

// Mark records key, evicting the least recently used entry when full.
func (s *SeenSet) Mark(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	expires := s.now().Add(s.ttl)
	if elem, ok := s.items[key]; ok {
		elem.Value.(*seenItem).expiresAt = expires
		s.lru.MoveToFront(elem)
		return
	}

	s.items[key] = s.lru.PushFront(&seenItem{key: key, expiresAt: expires})
	if s.lru.Len() > s.maxSize {
		s.remove(s.lru.Back())
	}
}

func (s *SeenSet) remove(elem *list.Element) {
	delete(s.items, elem.Value.(*seenItem).key)
	s.lru.Remove(elem)
}

// CleanExpired drops expired keys and returns how many were removed.
func (s *SeenSet) CleanExpired() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for elem := s.lru.Back(); elem != nil; {
		prev := elem.Prev()
		if now.After(elem.Value.(*seenItem).expiresAt) {
			s.remove(elem)
			removed++
		}
		elem = prev
	}
	return removed
}

func (s *SeenSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}
