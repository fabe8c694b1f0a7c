package cache

import (
	"context"
	"sync"
	"time"
)

// PermissionCache stores the permission codes granted to a role name
type PermissionCache interface {
	Get(ctx context.Context, role string) (codes []string, found bool, err error)
	Set(ctx context.Context, role string, codes []string) error
	// Invalidate drops one role, or every role when role is empty
	Invalidate(ctx context.Context, role string) error
}

type memoryEntry struct {
	codes     []string
	expiresAt time.Time
}

// MemoryCache is the in-process fallback used when Redis is not configured
type MemoryCache struct {
	entries sync.Map
	ttl     time.Duration
	now     func() time.Time
}

func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{ttl: ttl, now: time.Now}
}

func (m *MemoryCache) Get(_ context.Context, role string) ([]string, bool, error) {
	v, ok := m.entries.Load(role)
	if !ok {
		return nil, false, nil
	}
	entry := v.(memoryEntry)
	if !m.now().Before(entry.expiresAt) {
		m.entries.Delete(role)
		return nil, false, nil
	}
	return entry.codes, true, nil
}

func (m *MemoryCache) Set(_ context.Context, role string, codes []string) error {
	m.entries.Store(role, memoryEntry{codes: codes, expiresAt: m.now().Add(m.ttl)})
	return nil
}

func (m *MemoryCache) Invalidate(_ context.Context, role string) error {
	if role != "" {
		m.entries.Delete(role)
		return nil
	}
	m.entries.Range(func(key, _ interface{}) bool {
		m.entries.Delete(key)
		return true
	})
	return nil
}
