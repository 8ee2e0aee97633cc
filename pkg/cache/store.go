// Package cache provides the aggregate cache used by the unread-badge and
// KPI services.
//
// The cache is never the source of truth: a miss, an error or an empty
// backend only costs a recomputation. Invalidation is a delete, never an
// update; the next read recomputes.
//
// Two backends implement Store:
//   - memory: ttlMap, single instance deploys and tests
//   - redis:  go-redis, shared between instances
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Store is a byte-oriented key/value cache with per-entry TTL.
type Store interface {
	// Get returns (value, true, nil) on hit and (nil, false, nil) on miss.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	Close() error
}

// GetJSON decodes a cached JSON value into T.
func GetJSON[T any](ctx context.Context, s Store, key string) (T, bool, error) {
	var out T
	raw, ok, err := s.Get(ctx, key)
	if err != nil || !ok {
		return out, false, err
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, false, fmt.Errorf("cache: decode %s: %w", key, err)
	}
	return out, true, nil
}

// SetJSON encodes value as JSON and stores it.
func SetJSON(ctx context.Context, s Store, key string, value any, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache: encode %s: %w", key, err)
	}
	return s.Set(ctx, key, raw, ttl)
}

// ─── Memory backend ───

type memoryStore struct {
	entries *ttlMap
}

// NewMemoryStore returns a Store backed by an in-process ttlMap.
func NewMemoryStore(defaultTTL time.Duration) Store {
	sweep := defaultTTL
	if sweep <= 0 || sweep > time.Minute {
		sweep = time.Minute
	}
	return &memoryStore{entries: newTTLMap(defaultTTL, sweep)}
}

func (s *memoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := s.entries.get(key)
	return v, ok, nil
}

func (s *memoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	s.entries.put(key, value, ttl)
	return nil
}

func (s *memoryStore) Delete(_ context.Context, keys ...string) error {
	s.entries.remove(keys...)
	return nil
}

func (s *memoryStore) Close() error {
	s.entries.stop()
	return nil
}
