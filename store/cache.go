package store

import (
	"fmt"

	"github.com/patrickmn/go-cache"
)

// MemorySlot keeps values in process memory only. Nothing survives a restart.
type MemorySlot struct {
	items *cache.Cache
}

func NewMemorySlot() *MemorySlot {
	return &MemorySlot{items: cache.New(cache.NoExpiration, 0)}
}

func (m *MemorySlot) Get(key string) (string, error) {
	v, ok := m.items.Get(key)
	if !ok {
		return "", ErrNotFound
	}
	return v.(string), nil
}

func (m *MemorySlot) Set(key, value string) error {
	m.items.Set(key, value, cache.NoExpiration)
	return nil
}

func (m *MemorySlot) Remove(key string) error {
	m.items.Delete(key)
	return nil
}

func (m *MemorySlot) Locate(key string) string {
	return fmt.Sprintf("process memory (key %q)", key)
}
