package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newRegistryForTest(t *testing.T) (*FileRegistry, *LocalStorage) {
	t.Helper()
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	return NewFileRegistry(store, nil), store
}

func TestFileRegistryRegisterAndResolve(t *testing.T) {
	registry, store := newRegistryForTest(t)

	rel, err := store.Save("customers.csv", []byte("id,name\n"))
	require.NoError(t, err)

	file := registry.Register(ExportFile{ID: "file-1", Name: "customers.csv", Path: rel, Size: 9}, time.Hour)
	require.False(t, file.ExpiresAt.IsZero())

	resolved, path, ok := registry.Resolve("file-1")
	require.True(t, ok)
	require.Equal(t, "customers.csv", resolved.Name)
	require.Equal(t, store.Path(rel), path)
}

func TestFileRegistryUnknownID(t *testing.T) {
	registry, _ := newRegistryForTest(t)

	_, _, ok := registry.Resolve("missing")
	require.False(t, ok)
}

func TestFileRegistryExpiredEntry(t *testing.T) {
	registry, store := newRegistryForTest(t)

	rel, err := store.Save("old.csv", []byte("id\n"))
	require.NoError(t, err)
	registry.Register(ExportFile{
		ID:        "file-old",
		Name:      "old.csv",
		Path:      rel,
		CreatedAt: time.Now().UTC().Add(-2 * time.Hour),
	}, time.Hour)

	_, _, ok := registry.Resolve("file-old")
	require.False(t, ok)
}

func TestFileRegistryMissingOnDisk(t *testing.T) {
	registry, store := newRegistryForTest(t)

	rel, err := store.Save("gone.csv", []byte("id\n"))
	require.NoError(t, err)
	registry.Register(ExportFile{ID: "file-gone", Name: "gone.csv", Path: rel}, time.Hour)
	require.NoError(t, store.Delete(rel))

	_, _, ok := registry.Resolve("file-gone")
	require.False(t, ok)
}

func TestFileRegistrySweepExpired(t *testing.T) {
	registry, store := newRegistryForTest(t)

	relOld, err := store.Save("expired.csv", []byte("id\n"))
	require.NoError(t, err)
	registry.Register(ExportFile{
		ID:        "expired",
		Path:      relOld,
		CreatedAt: time.Now().UTC().Add(-48 * time.Hour),
	}, time.Hour)

	relFresh, err := store.Save("fresh.csv", []byte("id\n"))
	require.NoError(t, err)
	registry.Register(ExportFile{ID: "fresh", Path: relFresh}, time.Hour)

	removed := registry.SweepExpired()
	require.Equal(t, []string{"expired"}, removed)

	_, _, ok := registry.Resolve("fresh")
	require.True(t, ok)
}
