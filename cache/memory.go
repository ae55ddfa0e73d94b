package cache

import (
	"context"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/syssam/saint"
)

// CleanupInterval is how often a Memory cache drops expired entries.
const CleanupInterval = time.Minute

// Memory is a process local cache backed by go-cache. It is safe for
// concurrent use.
type Memory struct {
	items *gocache.Cache
	now   func() time.Time
}

// NewMemory returns an empty memory cache.
func NewMemory() *Memory {
	return &Memory{
		items: gocache.New(gocache.NoExpiration, CleanupInterval),
		now:   time.Now,
	}
}

// Get implements saint.Cache.
func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	v, exp, ok := m.items.GetWithExpiration(key)
	if !ok {
		return nil, nil
	}
	if !exp.IsZero() && !m.now().Before(exp) {
		m.items.Delete(key)
		return nil, nil
	}
	return append([]byte(nil), v.([]byte)...), nil
}

// Set implements saint.Cache. A zero ttl keeps the entry until it is
// deleted.
func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = gocache.NoExpiration
	}
	m.items.Set(key, append([]byte(nil), value...), ttl)
	return nil
}

// Delete implements saint.Cache.
func (m *Memory) Delete(_ context.Context, key string) error {
	m.items.Delete(key)
	return nil
}

// DeletePrefix implements saint.Cache.
func (m *Memory) DeletePrefix(_ context.Context, prefix string) error {
	for k := range m.items.Items() {
		if strings.HasPrefix(k, prefix) {
			m.items.Delete(k)
		}
	}
	return nil
}

// Clear implements saint.Cache.
func (m *Memory) Clear(context.Context) error {
	m.items.Flush()
	return nil
}

// Len returns the number of entries, expired ones not yet cleaned up
// included.
func (m *Memory) Len() int {
	return m.items.ItemCount()
}

var _ saint.Cache = (*Memory)(nil)
