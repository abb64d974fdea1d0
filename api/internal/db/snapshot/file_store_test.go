package snapshot

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reacthost/console/api/internal/core/domain"
)

func TestFileStore_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	_, err = store.Load(ctx, domain.SnapshotKey)
	assert.ErrorIs(t, err, domain.ErrSnapshotNotFound)

	require.NoError(t, store.Save(ctx, domain.SnapshotKey, []byte(`[{"id":"1"}]`)))
	require.NoError(t, store.Save(ctx, domain.SnapshotKey, []byte(`[]`)))

	data, err := store.Load(ctx, domain.SnapshotKey)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))

	// No temp files are left behind after a replace
	matches, err := filepath.Glob(filepath.Join(dir, "*.tmp"))
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestFileStore_SingleWriter(t *testing.T) {
	dir := t.TempDir()
	first, err := NewFileStore(dir)
	require.NoError(t, err)

	_, err = NewFileStore(dir)
	assert.Error(t, err, "second process must not share the data directory")

	require.NoError(t, first.Close())
	second, err := NewFileStore(dir)
	require.NoError(t, err)
	second.Close()
}

func TestFileStore_RejectsPathKeys(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	err = store.Save(context.Background(), "../escape", []byte("x"))
	assert.Error(t, err)
}

func TestFileStore_PingMissingDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")
	store, err := NewFileStore(dir)
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Ping(context.Background()))
	require.NoError(t, os.RemoveAll(dir))
	assert.Error(t, store.Ping(context.Background()))
}
