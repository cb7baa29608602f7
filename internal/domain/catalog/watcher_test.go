package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spatialdeck/backend/internal/domain/codec"
	"github.com/spatialdeck/backend/internal/shared/types"
	"github.com/spatialdeck/backend/internal/storage"
)

func TestRescanIndexesExistingDocuments(t *testing.T) {
	ctx := context.Background()
	store, err := storage.NewDiskStore(t.TempDir(), false, nil)
	require.NoError(t, err)

	cdc := codec.New()
	data, err := cdc.EncodeBytes([]types.WindowRecord{
		{ID: 1, Kind: types.KindChart, Position: types.DefaultPosition(),
			State: types.WindowState{Opacity: 1.0, Tags: []string{"demo"}}},
	})
	require.NoError(t, err)
	require.NoError(t, store.Write(ctx, "analysis", data))
	require.NoError(t, store.Write(ctx, "scratch", []byte("not a notebook")))

	cat := New()
	w, err := NewWatcher(cat, store, cdc, nil)
	require.NoError(t, err)
	t.Cleanup(func() {
		cancelCtx, cancel := context.WithCancel(ctx)
		cancel()
		w.Run(cancelCtx)
	})

	require.NoError(t, w.Rescan(ctx))

	// Both documents index; the undecodable one gets a minimal descriptor.
	assert.Equal(t, 2, cat.Count())

	meta, ok := cat.GetByName("analysis")
	require.True(t, ok)
	assert.Equal(t, 1, meta.WindowCount)
	assert.Contains(t, meta.Tags, "demo")
	assert.Greater(t, meta.SizeBytes, int64(0))

	bare, ok := cat.GetByName("scratch")
	require.True(t, ok)
	assert.Zero(t, bare.WindowCount)
}
