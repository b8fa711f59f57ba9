package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStore_RecordAndRecent(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	base := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)
	entries := []Entry{
		{RequestID: "r1", Keyword: "camera", Category: "Electronics", Locale: "jp", ResultCount: 10, RequestedAt: base},
		{RequestID: "r2", Keyword: "book", Locale: "us", Error: "paapi error: status 403", RequestedAt: base.Add(time.Minute)},
		{RequestID: "r3", Keyword: "デジタルカメラ", Category: "Electronics", Locale: "jp", ResultCount: 2, RequestedAt: base.Add(2 * time.Minute)},
	}
	for _, e := range entries {
		id, err := store.Record(ctx, e)
		require.NoError(t, err)
		assert.Positive(t, id)
	}

	recent, err := store.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)

	assert.Equal(t, "r3", recent[0].RequestID, "newest first")
	assert.Equal(t, "デジタルカメラ", recent[0].Keyword)
	assert.Equal(t, 2, recent[0].ResultCount)
	assert.True(t, base.Add(2*time.Minute).Equal(recent[0].RequestedAt))

	assert.Equal(t, "r2", recent[1].RequestID)
	assert.Equal(t, "paapi error: status 403", recent[1].Error)
	assert.Empty(t, recent[1].Category)
}

func TestStore_RecordDefaultsTime(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	before := time.Now().Add(-time.Second)
	_, err := store.Record(ctx, Entry{RequestID: "r1", Keyword: "camera"})
	require.NoError(t, err)

	recent, err := store.Recent(ctx, 0)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.True(t, recent[0].RequestedAt.After(before))
}

func TestOpen_CreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "history.db")

	store, err := Open(context.Background(), path)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	// Повторное открытие той же базы не ломает схему
	store, err = Open(context.Background(), path)
	require.NoError(t, err)
	require.NoError(t, store.Close())
}
