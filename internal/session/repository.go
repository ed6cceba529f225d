package session

import (
	"context"
	"fmt"

	"github.com/nhle/mailgate/internal/model"
)

// Repository is the single access point for the persisted session. Both
// the gate and the inbox renderer depend on it instead of on storage.
type Repository interface {
	Get(ctx context.Context) (model.Session, error)
	Set(ctx context.Context, s model.Session) error
	Clear(ctx context.Context) error
}

// KeyedRepository stores a session as three Storage items.
type KeyedRepository struct {
	storage Storage
}

// NewRepository returns a Repository backed by storage.
func NewRepository(storage Storage) *KeyedRepository {
	return &KeyedRepository{storage: storage}
}

// Get reads all three items. Missing items leave the field empty.
func (r *KeyedRepository) Get(ctx context.Context) (model.Session, error) {
	var s model.Session

	marker, _, err := r.storage.GetItem(ctx, KeyIdentityMarker)
	if err != nil {
		return model.Session{}, fmt.Errorf("reading %s: %w", KeyIdentityMarker, err)
	}
	s.IdentityMarker = marker

	blob, _, err := r.storage.GetItem(ctx, KeyTokenBlob)
	if err != nil {
		return model.Session{}, fmt.Errorf("reading %s: %w", KeyTokenBlob, err)
	}
	if blob != "" {
		s.TokenBlob = model.TokenBlob(blob)
	}

	name, _, err := r.storage.GetItem(ctx, KeyDisplayName)
	if err != nil {
		return model.Session{}, fmt.Errorf("reading %s: %w", KeyDisplayName, err)
	}
	s.DisplayName = name

	return s, nil
}

// Set writes the session. An empty display name removes the stored one.
func (r *KeyedRepository) Set(ctx context.Context, s model.Session) error {
	if err := r.storage.SetItem(ctx, KeyIdentityMarker, s.IdentityMarker); err != nil {
		return fmt.Errorf("writing %s: %w", KeyIdentityMarker, err)
	}
	if err := r.storage.SetItem(ctx, KeyTokenBlob, string(s.TokenBlob)); err != nil {
		return fmt.Errorf("writing %s: %w", KeyTokenBlob, err)
	}
	if s.DisplayName == "" {
		if err := r.storage.RemoveItem(ctx, KeyDisplayName); err != nil {
			return fmt.Errorf("removing %s: %w", KeyDisplayName, err)
		}
		return nil
	}
	if err := r.storage.SetItem(ctx, KeyDisplayName, s.DisplayName); err != nil {
		return fmt.Errorf("writing %s: %w", KeyDisplayName, err)
	}
	return nil
}

// Clear removes all three items regardless of whether they exist.
func (r *KeyedRepository) Clear(ctx context.Context) error {
	for _, key := range []string{KeyIdentityMarker, KeyTokenBlob, KeyDisplayName} {
		if err := r.storage.RemoveItem(ctx, key); err != nil {
			return fmt.Errorf("removing %s: %w", key, err)
		}
	}
	return nil
}
