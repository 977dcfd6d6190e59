package actionlog

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stores(t *testing.T) map[string]Store {
	t.Helper()
	sqlite, err := OpenSqlite(filepath.Join(t.TempDir(), "actions.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlite.Close() })

	return map[string]Store{
		"memory": NewMemoryStore(),
		"sqlite": sqlite,
	}
}

func TestRecordWatchedIsIdempotentPerSession(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, store.RecordWatched(ctx, 5, "session-a"))
			require.NoError(t, store.RecordWatched(ctx, 5, "session-a"))
			require.NoError(t, store.RecordWatched(ctx, 5, "session-b"))

			entries, err := store.Recent(ctx, 0)
			require.NoError(t, err)
			assert.Len(t, entries, 2)
		})
	}
}

func TestRecentIsNewestFirstAndLimited(t *testing.T) {
	base := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	clock := func(offset time.Duration) func() time.Time {
		return func() time.Time { return base.Add(offset) }
	}

	sqlite, err := OpenSqlite(filepath.Join(t.TempDir(), "actions.sqlite"))
	require.NoError(t, err)
	defer sqlite.Close()
	memory := NewMemoryStore()

	ctx := context.Background()
	for i, videoID := range []int{1, 2, 3} {
		sqlite.now = clock(time.Duration(i) * time.Minute)
		memory.now = clock(time.Duration(i) * time.Minute)
		require.NoError(t, sqlite.RecordWatched(ctx, videoID, "s"))
		require.NoError(t, memory.RecordWatched(ctx, videoID, "s"))
	}

	for name, store := range map[string]Store{"sqlite": sqlite, "memory": memory} {
		t.Run(name, func(t *testing.T) {
			entries, err := store.Recent(ctx, 2)
			require.NoError(t, err)
			require.Len(t, entries, 2)
			assert.Equal(t, 3, entries[0].VideoID)
			assert.Equal(t, 2, entries[1].VideoID)
			assert.Equal(t, base.Add(2*time.Minute), entries[0].WatchedAt)
		})
	}
}

func TestMigrationsSurviveReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "actions.sqlite")

	first, err := OpenSqlite(path)
	require.NoError(t, err)
	require.NoError(t, first.RecordWatched(context.Background(), 9, "s"))
	require.NoError(t, first.Close())

	second, err := OpenSqlite(path)
	require.NoError(t, err)
	defer second.Close()

	var version int
	require.NoError(t, second.db.QueryRow("PRAGMA user_version").Scan(&version))
	assert.Equal(t, len(migrations), version)

	entries, err := second.Recent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 9, entries[0].VideoID)
}

func TestNewStoreWithoutPathUsesMemory(t *testing.T) {
	store, err := NewStore("")
	require.NoError(t, err)
	_, ok := store.(*MemoryStore)
	assert.True(t, ok)
}

func TestCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, NewMemoryStore().RecordWatched(ctx, 1, "s"))
}
