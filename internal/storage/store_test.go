package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spatialdeck/backend/internal/shared/types"
)

func newStore(t *testing.T, compress bool) *DiskStore {
	t.Helper()
	store, err := NewDiskStore(t.TempDir(), compress, nil)
	require.NoError(t, err)
	return store
}

func TestWriteReadRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newStore(t, false)

	payload := []byte(`{"cells": []}`)
	require.NoError(t, store.Write(ctx, "analysis", payload))

	got, err := store.Read(ctx, "analysis")
	require.NoError(t, err)
	assert.Equal(t, payload, got)

	// Names with the extension already attached resolve to the same file.
	got, err = store.Read(ctx, "analysis.ipynb")
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestCompressedRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newStore(t, true)

	payload := []byte(`{"cells": [], "nbformat": 4}`)
	require.NoError(t, store.Write(ctx, "analysis", payload))

	// The file on disk is the gz variant.
	_, err := os.Stat(filepath.Join(store.Root(), "analysis"+GzExt))
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(store.Root(), "analysis"+Ext))
	assert.True(t, os.IsNotExist(err))

	got, err := store.Read(ctx, "analysis")
	require.NoError(t, err)
	assert.Equal(t, payload, got)

	info, err := store.Stat(ctx, "analysis")
	require.NoError(t, err)
	assert.True(t, info.Compressed)
	assert.Equal(t, "analysis", info.Name)
}

func TestWriteReplacesOtherVariant(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()

	plain, err := NewDiskStore(root, false, nil)
	require.NoError(t, err)
	gz, err := NewDiskStore(root, true, nil)
	require.NoError(t, err)

	require.NoError(t, plain.Write(ctx, "ws", []byte("v1")))
	require.NoError(t, gz.Write(ctx, "ws", []byte("v2")))

	// Only the compressed copy remains.
	_, err = os.Stat(filepath.Join(root, "ws"+Ext))
	assert.True(t, os.IsNotExist(err))

	got, err := gz.Read(ctx, "ws")
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), got)
}

func TestReadMissing(t *testing.T) {
	store := newStore(t, false)

	_, err := store.Read(context.Background(), "missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrFileRead)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	store := newStore(t, false)

	require.NoError(t, store.Write(ctx, "ws", []byte("x")))
	require.NoError(t, store.Delete(ctx, "ws"))

	err := store.Delete(ctx, "ws")
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestListSorted(t *testing.T) {
	ctx := context.Background()
	store := newStore(t, false)

	require.NoError(t, store.Write(ctx, "zeta", []byte("{}")))
	require.NoError(t, store.Write(ctx, "alpha", []byte("{}")))

	// Unrelated files are ignored.
	require.NoError(t, os.WriteFile(filepath.Join(store.Root(), "notes.txt"), []byte("x"), 0o644))

	names, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "zeta"}, names)
}

func TestSanitizeRejectsTraversal(t *testing.T) {
	ctx := context.Background()
	store := newStore(t, false)

	for _, name := range []string{"", ".", "..", "../evil", "a/b", `a\b`} {
		assert.Error(t, store.Write(ctx, name, []byte("x")), "name %q", name)
		_, err := store.Read(ctx, name)
		assert.Error(t, err, "name %q", name)
	}
}

func TestTrimExt(t *testing.T) {
	base, ok := TrimExt("ws.ipynb")
	assert.True(t, ok)
	assert.Equal(t, "ws", base)

	base, ok = TrimExt("ws.ipynb.gz")
	assert.True(t, ok)
	assert.Equal(t, "ws", base)

	_, ok = TrimExt("notes.txt")
	assert.False(t, ok)
}
