// Package cache provides the bounded in-memory caches used by the resolver,
// the rate limiters and the fetch cache. Nothing in here persists.
package cache

import (
	"fmt"
	"sync"

	"github.com/hashicorp/golang-lru/v2/simplelru"
)

// Cache is a fixed capacity LRU map. Get and Set both mark the key as the
// most recently used one; inserting a new key into a full cache evicts the
// least recently used key first.
type Cache[K comparable, V any] struct {
	mu  sync.Mutex
	lru *simplelru.LRU[K, V]
}

// New panics if size is smaller than 1.
func New[K comparable, V any](size int) *Cache[K, V] {
	l, err := simplelru.NewLRU[K, V](size, nil)
	if err != nil {
		panic(fmt.Sprintf("cache: invalid size %d: %v", size, err))
	}
	return &Cache[K, V]{lru: l}
}

func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Get(key)
}

func (c *Cache[K, V]) Set(key K, value V) {
	c.mu.Lock()
	c.lru.Add(key, value)
	c.mu.Unlock()
}

func (c *Cache[K, V]) Remove(key K) {
	c.mu.Lock()
	c.lru.Remove(key)
	c.mu.Unlock()
}

func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}

// Set is an LRU bounded set of keys.
type Set[K comparable] struct {
	inner *Cache[K, struct{}]
}

func NewSet[K comparable](size int) *Set[K] {
	return &Set[K]{inner: New[K, struct{}](size)}
}

func (s *Set[K]) Insert(key K) {
	s.inner.Set(key, struct{}{})
}

func (s *Set[K]) Has(key K) bool {
	_, ok := s.inner.Get(key)
	return ok
}

func (s *Set[K]) Remove(key K) {
	s.inner.Remove(key)
}
