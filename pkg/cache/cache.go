// Package cache provides the read-through feed cache. Caching is an
// injectable policy: handlers accept a nil *Feed, which disables caching
// entirely and every request goes upstream.
package cache

import (
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Feed caches serialized calendar feeds. Entries invalidate on a timer
// basis and the store is a bounded LRU, so an abandoned station ages out.
type Feed struct {
	ttl time.Duration
	lru *lru.Cache[string, element]

	// locks serializes fillers per key so concurrent requests for the
	// same station/day-count pair trigger a single upstream fetch. The
	// key space is bounded by the station table, so entries are never
	// removed.
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// element holds a timestamped value to save.
type element struct {
	value    []byte
	creation time.Time
}

// NewFeed creates a Feed cache holding at most size entries, each valid
// for the given TTL.
func NewFeed(size int, ttl time.Duration) (*Feed, error) {
	store, err := lru.New[string, element](size)
	if err != nil {
		return nil, err
	}
	return &Feed{
		ttl:   ttl,
		lru:   store,
		locks: make(map[string]*sync.Mutex),
	}, nil
}

// Set assigns a value to a key.
func (c *Feed) Set(key string, val []byte) {
	c.set(key, val, time.Now())
}

// set performs Set's work with the wall clock factored out.
func (c *Feed) set(key string, val []byte, t time.Time) {
	c.lru.Add(key, element{
		value:    val,
		creation: t,
	})
}

// Get retrieves a value for a key. The value may not exist or have
// expired, in which case ok will be false.
func (c *Feed) Get(key string) (value []byte, ok bool) {
	return c.get(key, time.Now())
}

// get is like set in that the time is factored out.
func (c *Feed) get(key string, t time.Time) (value []byte, ok bool) {
	el, ok := c.lru.Get(key)
	if !ok {
		return nil, false
	}

	// stored elements might still be invalid
	if elapsed := t.Sub(el.creation); elapsed > c.ttl {
		c.lru.Remove(key)
		return nil, false
	}

	return el.value, true
}

// Do returns the cached value for key, or runs fill to produce it and
// stores the result. cached reports whether the value was served from the
// cache. A nil receiver always fills.
func (c *Feed) Do(key string, fill func() ([]byte, error)) (value []byte, cached bool, err error) {
	if c == nil {
		value, err = fill()
		return value, false, err
	}

	if v, ok := c.Get(key); ok {
		return v, true, nil
	}

	kl := c.keyLock(key)
	kl.Lock()
	defer kl.Unlock()

	// another request may have filled the key while we waited
	if v, ok := c.Get(key); ok {
		return v, true, nil
	}

	v, err := fill()
	if err != nil {
		return nil, false, err
	}
	c.Set(key, v)
	return v, false, nil
}

func (c *Feed) keyLock(key string) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()
	kl, ok := c.locks[key]
	if !ok {
		kl = &sync.Mutex{}
		c.locks[key] = kl
	}
	return kl
}
