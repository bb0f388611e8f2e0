package store_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskview/internal/store"
)

func openTestStore(t *testing.T) *store.Store {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "tasks.db")
	st, err := store.Open(context.Background(), store.DriverSQLite, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := store.Open(context.Background(), "oracle", "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported store driver")
}

func TestOpen_DriverAliases(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "alias.db")
	st, err := store.Open(context.Background(), "SQLite", dsn)
	require.NoError(t, err)
	defer st.Close()
	assert.Equal(t, store.DriverSQLite, st.Dialect())
}

func TestOpen_MigrateIsIdempotent(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "twice.db")
	ctx := context.Background()

	first, err := store.Open(ctx, store.DriverSQLite, dsn)
	require.NoError(t, err)
	_, err = first.CreateTask(ctx, "survives reopen")
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := store.Open(ctx, store.DriverSQLite, dsn)
	require.NoError(t, err)
	defer second.Close()

	all, err := second.AllTasks(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "survives reopen", all[0].Title)
}

func TestCreateAndAll_OrderedByID(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	a, err := st.CreateTask(ctx, "first")
	require.NoError(t, err)
	b, err := st.CreateTask(ctx, "second")
	require.NoError(t, err)
	assert.Greater(t, b.ID, a.ID)

	all, err := st.AllTasks(ctx)
	require.NoError(t, err)
	assert.Equal(t, []store.Task{a, b}, all)
}

func TestAllTasks_EmptyIsNotNil(t *testing.T) {
	st := openTestStore(t)

	all, err := st.AllTasks(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, all)
	assert.Empty(t, all)
}

func TestGetTask(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	created, err := st.CreateTask(ctx, "Buy milk")
	require.NoError(t, err)

	got, ok, err := st.GetTask(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, created, got)

	_, ok, err = st.GetTask(ctx, created.ID+100)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestUpdateTask(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	created, err := st.CreateTask(ctx, "Buy milk")
	require.NoError(t, err)

	require.NoError(t, st.UpdateTask(ctx, created.ID, "Buy bread"))
	// unchanged title is not an error
	require.NoError(t, st.UpdateTask(ctx, created.ID, "Buy bread"))

	got, ok, err := st.GetTask(ctx, created.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Buy bread", got.Title)

	n, err := st.CountTasks(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestDeleteTask(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	keep, err := st.CreateTask(ctx, "keep")
	require.NoError(t, err)
	drop, err := st.CreateTask(ctx, "drop")
	require.NoError(t, err)

	require.NoError(t, st.DeleteTask(ctx, drop.ID))
	assert.ErrorIs(t, st.DeleteTask(ctx, drop.ID), store.ErrNotFound)

	all, err := st.AllTasks(ctx)
	require.NoError(t, err)
	assert.Equal(t, []store.Task{keep}, all)
}
