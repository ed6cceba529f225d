package credential

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/99designs/keyring"
)

// Config selects the keyring service and the directory for the file
// backend used when no OS keychain is available.
type Config struct {
	ServiceName string
	FileDir     string

	// FilePassword unlocks the file backend.
	FilePassword string

	// Backends overrides the allowed backends; empty means the defaults.
	Backends []keyring.BackendType
}

// defaultBackends are tried in order.
var defaultBackends = []keyring.BackendType{
	keyring.KeychainBackend,
	keyring.SecretServiceBackend,
	keyring.WinCredBackend,
	keyring.PassBackend,
	keyring.FileBackend,
}

// Store persists session values in the system keyring. It implements
// session.Storage.
type Store struct {
	ring keyring.Keyring
}

// Open returns a Store over a configured keyring instance.
func Open(cfg Config) (*Store, error) {
	backends := cfg.Backends
	if len(backends) == 0 {
		backends = defaultBackends
	}
	password := cfg.FilePassword
	if password == "" {
		password = cfg.ServiceName + "-file-key"
	}

	ring, err := keyring.Open(keyring.Config{
		ServiceName:              cfg.ServiceName,
		AllowedBackends:          backends,
		FileDir:                  cfg.FileDir,
		FilePasswordFunc:         keyring.FixedStringPrompt(password),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return New(ring), nil
}

// New wraps an already opened keyring.
func New(ring keyring.Keyring) *Store {
	return &Store{ring: ring}
}

// GetItem retrieves a value by key. A missing key is reported with
// ok == false.
func (s *Store) GetItem(_ context.Context, key string) (string, bool, error) {
	item, err := s.ring.Get(key)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("getting credential %q: %w", key, err)
	}
	return string(item.Data), true, nil
}

// SetItem stores a value by key.
func (s *Store) SetItem(_ context.Context, key, value string) error {
	err := s.ring.Set(keyring.Item{
		Key:  key,
		Data: []byte(value),
	})
	if err != nil {
		return fmt.Errorf("setting credential %q: %w", key, err)
	}
	return nil
}

// RemoveItem deletes a value by key. Removing a missing key succeeds.
func (s *Store) RemoveItem(_ context.Context, key string) error {
	err := s.ring.Remove(key)
	if err != nil && !errors.Is(err, keyring.ErrKeyNotFound) && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("deleting credential %q: %w", key, err)
	}
	return nil
}
