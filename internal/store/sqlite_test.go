package store_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Movie-Song/sns-contents-tracker/internal/config"
	"github.com/Movie-Song/sns-contents-tracker/internal/content"
	"github.com/Movie-Song/sns-contents-tracker/internal/store"
)

func openTestSQLite(t *testing.T) *store.SQLite {
	t.Helper()
	db, err := store.OpenSQLite(filepath.Join(t.TempDir(), "nested", "contents.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestSQLite_CreateAndQuery(t *testing.T) {
	ctx := context.Background()
	db := openTestSQLite(t)

	recs := []content.Record{
		{Title: "Old", URL: "https://b.com/1", Published: day(2024, 1, 1), Platform: "Blog (b.com)"},
		{Title: "New", URL: "https://b.com/2", Published: day(2024, 1, 5), Platform: "Blog (b.com)"},
		{
			Title:     "tweet",
			URL:       "https://twitter.com/alice/status/9",
			Published: time.Date(2024, 1, 5, 22, 0, 0, 0, time.UTC),
			HasTime:   true,
			Platform:  "Twitter (@alice)",
		},
	}
	for _, rec := range recs {
		stored, err := db.Create(ctx, rec)
		require.NoError(t, err)
		assert.NotEmpty(t, stored.ID)
	}

	n, err := db.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	byURL, err := db.Query(ctx, store.Query{Filter: store.Filter{URL: "https://b.com/2"}})
	require.NoError(t, err)
	require.Len(t, byURL, 1)
	assert.Equal(t, "New", byURL[0].Title)

	byDate, err := db.Query(ctx, store.Query{Filter: store.Filter{Date: "2024-01-05"}})
	require.NoError(t, err)
	assert.Len(t, byDate, 2, "date filter matches both date-only and timestamped values")

	since, err := db.Query(ctx, store.Query{Filter: store.Filter{Since: "2024-01-02"}, SortDateDesc: true})
	require.NoError(t, err)
	require.Len(t, since, 2)
	assert.Equal(t, "2024-01-05T22:00:00", since[0].Published)
	assert.Equal(t, "2024-01-05", since[1].Published)

	all, err := db.Query(ctx, store.Query{})
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestSQLite_AllowsDuplicateRows(t *testing.T) {
	ctx := context.Background()
	db := openTestSQLite(t)

	rec := content.Record{Title: "Same", URL: "https://b.com/1", Published: day(2024, 1, 1), Platform: "Blog (b.com)"}
	_, err := db.Create(ctx, rec)
	require.NoError(t, err)
	_, err = db.Create(ctx, rec)
	require.NoError(t, err)

	n, err := db.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestSQLite_ClosedDBFails(t *testing.T) {
	db, err := store.OpenSQLite(filepath.Join(t.TempDir(), "contents.db"))
	require.NoError(t, err)
	require.NoError(t, db.Close())

	_, err = db.Query(context.Background(), store.Query{})
	assert.ErrorIs(t, err, store.ErrQuery)

	_, err = db.Create(context.Background(), content.Record{Title: "x", URL: "https://b.com/x"})
	assert.ErrorIs(t, err, store.ErrWrite)
}

func TestOpen(t *testing.T) {
	s, closeFn, err := store.Open(config.StoreConfig{
		Backend:    config.BackendSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "contents.db"),
	}, nil)
	require.NoError(t, err)
	assert.IsType(t, &store.SQLite{}, s)
	require.NoError(t, closeFn())

	s, closeFn, err = store.Open(config.StoreConfig{Backend: config.BackendNotion}, nil)
	require.NoError(t, err)
	assert.IsType(t, &store.Notion{}, s)
	require.NoError(t, closeFn())

	_, _, err = store.Open(config.StoreConfig{Backend: "mongo"}, nil)
	assert.Error(t, err)
}
