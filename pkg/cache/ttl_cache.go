package cache

import (
	"sync"
	"time"
)

type ttlEntry struct {
	value    []byte
	deadline time.Time
}

// ttlMap holds the memory backend's entries. Reads treat an entry past its
// deadline as absent; a ticker goroutine reclaims those entries.
type ttlMap struct {
	mu         sync.RWMutex
	items      map[string]ttlEntry
	defaultTTL time.Duration

	done     chan struct{}
	stopOnce sync.Once
}

func newTTLMap(defaultTTL, sweepEvery time.Duration) *ttlMap {
	m := &ttlMap{
		items:      make(map[string]ttlEntry),
		defaultTTL: defaultTTL,
		done:       make(chan struct{}),
	}
	go m.sweepLoop(sweepEvery)
	return m
}

func (m *ttlMap) get(key string) ([]byte, bool) {
	m.mu.RLock()
	e, ok := m.items[key]
	m.mu.RUnlock()

	if !ok || !time.Now().Before(e.deadline) {
		return nil, false
	}
	return e.value, true
}

// put stores value for ttl; ttl <= 0 falls back to the map default.
func (m *ttlMap) put(key string, value []byte, ttl time.Duration) {
	if ttl <= 0 {
		ttl = m.defaultTTL
	}
	m.mu.Lock()
	m.items[key] = ttlEntry{value: value, deadline: time.Now().Add(ttl)}
	m.mu.Unlock()
}

func (m *ttlMap) remove(keys ...string) {
	m.mu.Lock()
	for _, k := range keys {
		delete(m.items, k)
	}
	m.mu.Unlock()
}

func (m *ttlMap) stop() {
	m.stopOnce.Do(func() { close(m.done) })
}

func (m *ttlMap) sweepLoop(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-m.done:
			return
		case now := <-ticker.C:
			m.mu.Lock()
			for k, e := range m.items {
				if !now.Before(e.deadline) {
					delete(m.items, k)
				}
			}
			m.mu.Unlock()
		}
	}
}
