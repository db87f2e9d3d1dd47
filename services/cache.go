package services

import (
	"context"
	"fmt"
	"path"
	"strconv"
	"sync"
	"time"
)

// Cache is the TTL key-value store the admin gateway coordinates through.
// All counters, fingerprints and audit records live behind this interface
// so components take an explicit cache dependency instead of reaching for
// a shared global, and tests can swap in a deterministic implementation.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	GetInt(ctx context.Context, key string) (int64, error)
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	Exists(ctx context.Context, key string) (bool, error)
	Increment(ctx context.Context, key string) (int64, error)
	Keys(ctx context.Context, pattern string) ([]string, error)
}

// MemoryCache is an in-process Cache with real TTL expiry. It backs local
// development when REDIS_ADDR is unset and doubles as the test fixture.
// Entries are evicted lazily on access.
type MemoryCache struct {
	mu    sync.Mutex
	items map[string]memoryEntry
	now   func() time.Time
}

type memoryEntry struct {
	value    string
	expireAt time.Time
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		items: make(map[string]memoryEntry),
		now:   time.Now,
	}
}

func (m *MemoryCache) lookup(key string) (memoryEntry, bool) {
	entry, ok := m.items[key]
	if !ok {
		return memoryEntry{}, false
	}
	if !entry.expireAt.IsZero() && m.now().After(entry.expireAt) {
		delete(m.items, key)
		return memoryEntry{}, false
	}
	return entry, true
}

func (m *MemoryCache) Get(ctx context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.lookup(key)
	if !ok {
		return "", nil
	}
	return entry.value, nil
}

func (m *MemoryCache) GetInt(ctx context.Context, key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.lookup(key)
	if !ok {
		return 0, nil
	}
	n, err := strconv.ParseInt(entry.value, 10, 64)
	if err != nil {
		return 0, err
	}
	return n, nil
}

func (m *MemoryCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var expireAt time.Time
	if expiration > 0 {
		expireAt = m.now().Add(expiration)
	}
	m.items[key] = memoryEntry{value: stringify(value), expireAt: expireAt}
	return nil
}

func (m *MemoryCache) Delete(ctx context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, key := range keys {
		delete(m.items, key)
	}
	return nil
}

func (m *MemoryCache) Exists(ctx context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, ok := m.lookup(key)
	return ok, nil
}

func (m *MemoryCache) Increment(ctx context.Context, key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.lookup(key)
	if !ok {
		m.items[key] = memoryEntry{value: "1"}
		return 1, nil
	}
	n, err := strconv.ParseInt(entry.value, 10, 64)
	if err != nil {
		return 0, err
	}
	n++
	entry.value = strconv.FormatInt(n, 10)
	m.items[key] = entry
	return n, nil
}

func (m *MemoryCache) Keys(ctx context.Context, pattern string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var keys []string
	for key := range m.items {
		if _, ok := m.lookup(key); !ok {
			continue
		}
		if matched, _ := path.Match(pattern, key); matched {
			keys = append(keys, key)
		}
	}
	return keys, nil
}

// Advance shifts the cache clock forward, expiring entries whose TTL has
// elapsed. Test-only hook for deterministic TTL behavior.
func (m *MemoryCache) Advance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	frozen := m.now().Add(d)
	m.now = func() time.Time { return frozen }
}

func stringify(value interface{}) string {
	switch v := value.(type) {
	case string:
		return v
	case []byte:
		return string(v)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case bool:
		if v {
			return "1"
		}
		return "0"
	default:
		return fmt.Sprint(v)
	}
}
