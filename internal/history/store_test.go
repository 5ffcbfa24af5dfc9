package history_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/cromfel/go-mpv/internal/history"
	"github.com/cromfel/go-mpv/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func historyTestCtx() context.Context {
	logger := logging.NewFromConfigValues("debug", "console")
	return logging.WithContext(context.Background(), logger)
}

func openTestStore(t *testing.T) (*history.Store, context.Context) {
	t.Helper()

	ctx := historyTestCtx()
	dbPath := filepath.Join(t.TempDir(), "history.sqlite")

	store, err := history.Open(ctx, dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	return store, ctx
}

func TestStore_TouchCreatesAndIncrements(t *testing.T) {
	store, ctx := openTestStore(t)

	require.NoError(t, store.Touch(ctx, "file:///music/a.flac", "Track A"))
	require.NoError(t, store.Touch(ctx, "file:///music/a.flac", "Track A"))

	entry, err := store.Lookup(ctx, "file:///music/a.flac")
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, int64(2), entry.Plays)
	assert.Equal(t, "Track A", entry.Title)
}

func TestStore_TouchKeepsTitleWhenNewOneIsEmpty(t *testing.T) {
	store, ctx := openTestStore(t)

	require.NoError(t, store.Touch(ctx, "file:///music/a.flac", "Track A"))
	require.NoError(t, store.Touch(ctx, "file:///music/a.flac", ""))

	entry, err := store.Lookup(ctx, "file:///music/a.flac")
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, "Track A", entry.Title)
}

func TestStore_LookupUnknownURI(t *testing.T) {
	store, ctx := openTestStore(t)

	entry, err := store.Lookup(ctx, "file:///nope.mkv")
	require.NoError(t, err)
	assert.Nil(t, entry)
}

func TestStore_SavePositionRoundTrip(t *testing.T) {
	store, ctx := openTestStore(t)

	require.NoError(t, store.Touch(ctx, "file:///movie.mkv", "Movie"))
	require.NoError(t, store.SavePosition(ctx, "file:///movie.mkv", 1234.5, 5400))

	entry, err := store.Lookup(ctx, "file:///movie.mkv")
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.InDelta(t, 1234.5, entry.PositionSecs, 0.001)
	assert.InDelta(t, 5400, entry.DurationSecs, 0.001)
}

func TestStore_SavePositionWithoutTouch(t *testing.T) {
	store, ctx := openTestStore(t)

	// A position saved during shutdown must survive even when playback
	// start was never recorded.
	require.NoError(t, store.SavePosition(ctx, "file:///movie.mkv", 10, 100))

	entry, err := store.Lookup(ctx, "file:///movie.mkv")
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, int64(0), entry.Plays)
	assert.InDelta(t, 10, entry.PositionSecs, 0.001)
}

func TestStore_RecentOrdersByLastPlayed(t *testing.T) {
	store, ctx := openTestStore(t)

	require.NoError(t, store.Touch(ctx, "file:///1.mkv", "One"))
	require.NoError(t, store.Touch(ctx, "file:///2.mkv", "Two"))
	require.NoError(t, store.Touch(ctx, "file:///3.mkv", "Three"))

	entries, err := store.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	// Same-second inserts fall back to insertion order, newest first.
	assert.Equal(t, "file:///3.mkv", entries[0].URI)
	assert.Equal(t, "file:///2.mkv", entries[1].URI)
}

func TestStore_RecentEmpty(t *testing.T) {
	store, ctx := openTestStore(t)

	entries, err := store.Recent(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestStore_Forget(t *testing.T) {
	store, ctx := openTestStore(t)

	require.NoError(t, store.Touch(ctx, "file:///secret.mkv", ""))
	require.NoError(t, store.Forget(ctx, "file:///secret.mkv"))

	entry, err := store.Lookup(ctx, "file:///secret.mkv")
	require.NoError(t, err)
	assert.Nil(t, entry)

	// Forgetting again is a no-op, not an error.
	require.NoError(t, store.Forget(ctx, "file:///secret.mkv"))
}

func TestStore_Purge(t *testing.T) {
	store, ctx := openTestStore(t)

	require.NoError(t, store.Touch(ctx, "file:///1.mkv", ""))
	require.NoError(t, store.Touch(ctx, "file:///2.mkv", ""))
	require.NoError(t, store.Purge(ctx))

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestStore_PruneKeepsNewest(t *testing.T) {
	store, ctx := openTestStore(t)

	for _, uri := range []string{"file:///1.mkv", "file:///2.mkv", "file:///3.mkv", "file:///4.mkv"} {
		require.NoError(t, store.Touch(ctx, uri, ""))
	}

	require.NoError(t, store.Prune(ctx, 2))

	entries, err := store.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "file:///4.mkv", entries[0].URI)
	assert.Equal(t, "file:///3.mkv", entries[1].URI)
}

func TestStore_PruneDisabled(t *testing.T) {
	store, ctx := openTestStore(t)

	require.NoError(t, store.Touch(ctx, "file:///1.mkv", ""))
	require.NoError(t, store.Prune(ctx, 0))

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestStore_MigrationStatus(t *testing.T) {
	ctx := historyTestCtx()
	dbPath := filepath.Join(t.TempDir(), "history.sqlite")

	db, err := history.NewConnection(ctx, dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	version, err := history.GetMigrationStatus(db)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, version, int64(1))
}
