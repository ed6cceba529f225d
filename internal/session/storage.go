package session

import (
	"context"
	"sync"
)

// Keys under which the session is persisted.
const (
	KeyIdentityMarker = "user_email"
	KeyTokenBlob      = "gmail_tokens"
	KeyDisplayName    = "user_name"
)

// Storage is process-wide, string-keyed, string-valued storage with no
// expiry. GetItem reports absence with ok == false rather than an error.
type Storage interface {
	GetItem(ctx context.Context, key string) (value string, ok bool, err error)
	SetItem(ctx context.Context, key, value string) error
	RemoveItem(ctx context.Context, key string) error
}

// MemoryStorage is a Storage kept in process memory. The zero value is ready
// to use.
type MemoryStorage struct {
	mu    sync.RWMutex
	items map[string]string
}

// NewMemoryStorage returns an empty MemoryStorage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{items: make(map[string]string)}
}

// GetItem returns the value stored under key.
func (m *MemoryStorage) GetItem(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.items[key]
	return v, ok, nil
}

// SetItem stores value under key.
func (m *MemoryStorage) SetItem(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.items == nil {
		m.items = make(map[string]string)
	}
	m.items[key] = value
	return nil
}

// RemoveItem deletes key. Removing an absent key is not an error.
func (m *MemoryStorage) RemoveItem(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, key)
	return nil
}
