package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T, path string) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLiteStoreItems(t *testing.T) {
	ctx := context.Background()
	s := newStore(t, ":memory:")

	_, ok, err := s.GetItem(ctx, "user_email")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.SetItem(ctx, "user_email", "a@b.com"))
	require.NoError(t, s.SetItem(ctx, "user_email", "c@d.com"))
	require.NoError(t, s.SetItem(ctx, "gmail_tokens", `{"token":"t"}`))

	v, ok, err := s.GetItem(ctx, "user_email")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "c@d.com", v)

	v, ok, err = s.GetItem(ctx, "gmail_tokens")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"token":"t"}`, v)

	require.NoError(t, s.RemoveItem(ctx, "user_email"))
	require.NoError(t, s.RemoveItem(ctx, "user_email"))
	_, ok, err = s.GetItem(ctx, "user_email")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSQLiteStoreEmptyValueIsPresent(t *testing.T) {
	ctx := context.Background()
	s := newStore(t, ":memory:")

	require.NoError(t, s.SetItem(ctx, "user_name", ""))
	v, ok, err := s.GetItem(ctx, "user_name")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, v)
}

func TestSQLiteStoreReopenKeepsDataAndSkipsMigrations(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "session.db")

	first, err := NewSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, first.SetItem(ctx, "gmail_tokens", `{"token":"t"}`))
	require.NoError(t, first.Close())

	second := newStore(t, path)
	v, ok, err := second.GetItem(ctx, "gmail_tokens")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"token":"t"}`, v)

	var versions int
	require.NoError(t, second.db.Get(&versions, "SELECT COUNT(*) FROM schema_version"))
	assert.Equal(t, 1, versions)
}
