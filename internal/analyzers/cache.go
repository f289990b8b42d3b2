package analyzers

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"cortex/internal/adapters/redis"
	"cortex/internal/metrics"
	"cortex/pkg/logger"
)

// Store is the raw byte-level cache backend behind an analyzer Cache.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
}

// MemoryStore is an in-process TTL store. Entries past their TTL read as
// misses but remain in the map until overwritten or lazily pruned once the
// entry count exceeds maxEntries.
type MemoryStore struct {
	mu         sync.Mutex
	entries    map[string]memoryEntry
	maxEntries int
}

type memoryEntry struct {
	data    []byte
	written time.Time
	ttl     time.Duration
}

// NewMemoryStore creates a memory store bounded at maxEntries.
func NewMemoryStore(maxEntries int) *MemoryStore {
	if maxEntries <= 0 {
		maxEntries = 1024
	}
	return &MemoryStore{
		entries:    make(map[string]memoryEntry),
		maxEntries: maxEntries,
	}
}

// Get returns the entry if it exists and is fresher than its TTL.
func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	if !ok {
		return nil, false, nil
	}
	if time.Since(entry.written) >= entry.ttl {
		return nil, false, nil
	}
	return entry.data, true, nil
}

// Set stores an entry, pruning stale entries when the map outgrows the bound.
func (s *MemoryStore) Set(_ context.Context, key string, data []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.entries) >= s.maxEntries {
		s.pruneLocked()
	}

	s.entries[key] = memoryEntry{data: data, written: time.Now(), ttl: ttl}
	return nil
}

// pruneLocked drops all expired entries; if none are expired the oldest
// entry is evicted so writes always make progress.
func (s *MemoryStore) pruneLocked() {
	var oldestKey string
	var oldestAt time.Time
	dropped := 0

	for key, entry := range s.entries {
		if time.Since(entry.written) >= entry.ttl {
			delete(s.entries, key)
			dropped++
			continue
		}
		if oldestKey == "" || entry.written.Before(oldestAt) {
			oldestKey = key
			oldestAt = entry.written
		}
	}

	if dropped == 0 && oldestKey != "" {
		delete(s.entries, oldestKey)
	}
}

// RedisStore backs an analyzer cache with Redis; TTL is enforced server-side.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a Redis-backed store.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var data []byte
	ok, err := s.client.Get(ctx, key, &data)
	return data, ok, err
}

func (s *RedisStore) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	return s.client.Set(ctx, key, data, ttl)
}

// Cache is a typed TTL cache for one analyzer.
type Cache struct {
	name  string
	ttl   time.Duration
	store Store
	log   *logger.Logger
}

// NewCache creates an analyzer cache with a fixed TTL.
func NewCache(name string, ttl time.Duration, store Store) *Cache {
	return &Cache{
		name:  name,
		ttl:   ttl,
		store: store,
		log:   logger.Get().With("component", "analyzer_cache", "analyzer", name),
	}
}

// Key derives a stable cache key from any JSON-serializable context value.
func (c *Cache) Key(contextValue interface{}) string {
	data, err := json.Marshal(contextValue)
	if err != nil {
		data = []byte(fmt.Sprintf("%v", contextValue))
	}
	hash := sha256.Sum256(data)
	return fmt.Sprintf("%s:%x", c.name, hash[:8])
}

// Get loads a cached value into dest; returns false on miss or backend error.
func (c *Cache) Get(ctx context.Context, key string, dest interface{}) bool {
	data, ok, err := c.store.Get(ctx, key)
	if err != nil {
		c.log.Warn("Cache read failed", "key", key, "error", err)
		metrics.CacheRequests.WithLabelValues(c.name, "miss").Inc()
		return false
	}
	if !ok {
		metrics.CacheRequests.WithLabelValues(c.name, "miss").Inc()
		return false
	}
	if err := json.Unmarshal(data, dest); err != nil {
		c.log.Warn("Cache entry is corrupt", "key", key, "error", err)
		metrics.CacheRequests.WithLabelValues(c.name, "miss").Inc()
		return false
	}
	metrics.CacheRequests.WithLabelValues(c.name, "hit").Inc()
	return true
}

// Set stores a value; backend failures are logged, not propagated.
func (c *Cache) Set(ctx context.Context, key string, value interface{}) {
	data, err := json.Marshal(value)
	if err != nil {
		c.log.Warn("Cache value not serializable", "key", key, "error", err)
		return
	}
	if err := c.store.Set(ctx, key, data, c.ttl); err != nil {
		c.log.Warn("Cache write failed", "key", key, "error", err)
	}
}
