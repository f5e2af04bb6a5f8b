package sqlite

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nadzzz/polyglot/internal/message"
	"github.com/nadzzz/polyglot/internal/store"
)

func setupTestDB(t *testing.T) *Store {
	s, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore_AppendListGet(t *testing.T) {
	ctx := context.Background()
	s := setupTestDB(t)
	now := time.UnixMilli(1_700_000_000_000).UTC()

	long := message.New(5, strings.Repeat("a", 151), "en", 0, now)
	short := message.New(3, "Bonjour tout le monde", "fr", 0, now)
	require.NoError(t, s.Append(ctx, long))
	require.NoError(t, s.Append(ctx, short))

	got, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, int64(5), got[0].ID)
	assert.True(t, got[0].ShowSummarize)
	assert.Equal(t, int64(3), got[1].ID)
	assert.Equal(t, "fr", got[1].Language)
	assert.False(t, got[1].ShowSummarize)

	m, err := s.Get(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, "Bonjour tout le monde", m.Text)

	_, err = s.Get(ctx, 4)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestStore_DuplicateIDRejected(t *testing.T) {
	ctx := context.Background()
	s := setupTestDB(t)

	require.NoError(t, s.Append(ctx, message.New(1, "Hello", "en", 0, time.Now())))
	assert.Error(t, s.Append(ctx, message.New(1, "Hello again", "en", 0, time.Now())))
}

func TestStore_Clear(t *testing.T) {
	ctx := context.Background()
	s := setupTestDB(t)

	require.NoError(t, s.Clear(ctx))
	require.NoError(t, s.Append(ctx, message.New(1, "Hello", "en", 0, time.Now())))
	require.NoError(t, s.Clear(ctx))
	require.NoError(t, s.Clear(ctx))

	got, err := s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestStore_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "polyglot.db")

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Append(ctx, message.New(7, "Hello", "en", 0, time.Now())))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()

	last, err := store.LastID(ctx, s)
	require.NoError(t, err)
	assert.Equal(t, int64(7), last)
}
