package cache

import (
	"sync"
	"time"
)

const defaultCleanupInterval = 5 * time.Minute

// cacheEntry wraps a cached value with expiration time
type cacheEntry[T any] struct {
	value     T
	expiresAt time.Time
}

func (e cacheEntry[T]) isExpired(now time.Time) bool {
	return !now.Before(e.expiresAt)
}

// ttlMap is a mutex-guarded map whose entries expire. A background loop
// evicts expired entries until close is called.
type ttlMap[T any] struct {
	mu        sync.RWMutex
	entries   map[string]cacheEntry[T]
	stopChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

func newTTLMap[T any](cleanupInterval time.Duration) *ttlMap[T] {
	if cleanupInterval <= 0 {
		cleanupInterval = defaultCleanupInterval
	}
	m := &ttlMap[T]{
		entries:  make(map[string]cacheEntry[T]),
		stopChan: make(chan struct{}),
	}
	m.wg.Add(1)
	go m.cleanupLoop(cleanupInterval)
	return m
}

func (m *ttlMap[T]) get(key string) (T, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.entries[key]
	if !ok || e.isExpired(time.Now()) {
		var zero T
		return zero, false
	}
	return e.value, true
}

func (m *ttlMap[T]) set(key string, value T, ttl time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = cacheEntry[T]{value: value, expiresAt: time.Now().Add(ttl)}
}

// setIfAbsent stores value unless a live entry exists and reports whether it stored
func (m *ttlMap[T]) setIfAbsent(key string, value T, ttl time.Duration) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	if e, ok := m.entries[key]; ok && !e.isExpired(now) {
		return false
	}
	m.entries[key] = cacheEntry[T]{value: value, expiresAt: now.Add(ttl)}
	return true
}

func (m *ttlMap[T]) delete(keys ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		delete(m.entries, key)
	}
}

func (m *ttlMap[T]) deletePrefix(prefix string) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for key := range m.entries {
		if len(key) >= len(prefix) && key[:len(prefix)] == prefix {
			delete(m.entries, key)
			n++
		}
	}
	return n
}

func (m *ttlMap[T]) size() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

func (m *ttlMap[T]) close() {
	m.closeOnce.Do(func() {
		close(m.stopChan)
		m.wg.Wait()
	})
}

func (m *ttlMap[T]) cleanupLoop(interval time.Duration) {
	defer m.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stopChan:
			return
		case <-ticker.C:
			m.cleanup()
		}
	}
}

// cleanup removes expired entries
func (m *ttlMap[T]) cleanup() {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	for key, e := range m.entries {
		if e.isExpired(now) {
			delete(m.entries, key)
		}
	}
}
