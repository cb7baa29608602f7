package restore

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spatialdeck/backend/internal/domain/codec"
	"github.com/spatialdeck/backend/internal/domain/registry"
	"github.com/spatialdeck/backend/internal/shared/types"
)

// memReader serves documents from memory and can inject read failures.
type memReader struct {
	docs map[string][]byte
	err  error
}

func (m *memReader) Read(_ context.Context, name string) ([]byte, error) {
	if m.err != nil {
		return nil, m.err
	}
	data, ok := m.docs[name]
	if !ok {
		return nil, fmt.Errorf("read %q: %w", name, types.ErrFileRead)
	}
	return data, nil
}

func encodeDoc(t *testing.T, records ...types.WindowRecord) []byte {
	t.Helper()
	data, err := codec.New().EncodeBytes(records)
	require.NoError(t, err)
	return data
}

func record(id int, kind types.WindowKind, tags ...string) types.WindowRecord {
	return types.WindowRecord{
		ID:       id,
		Kind:     kind,
		Position: types.DefaultPosition(),
		State:    types.WindowState{Opacity: 1.0, Content: "body", Tags: tags},
	}
}

func newOrchestrator(docs map[string][]byte) (*Orchestrator, *registry.Registry) {
	reg := registry.New()
	o := New(reg, codec.New(), &memReader{docs: docs}, nil)
	return o, reg
}

func TestRestoreEmptyWorkspace(t *testing.T) {
	o, reg := newOrchestrator(map[string][]byte{
		"empty": encodeDoc(t),
	})

	result, err := o.Restore(context.Background(), "empty", Options{}, nil)

	require.NoError(t, err)
	assert.True(t, result.IsFullySuccessful())
	assert.Empty(t, result.Import.RestoredWindows)
	assert.Empty(t, result.OpenedWindows)
	assert.Empty(t, result.Import.IDMap)
	assert.Equal(t, 0, reg.Count())
}

func TestRestoreSingleWindow(t *testing.T) {
	o, reg := newOrchestrator(map[string][]byte{
		"one": encodeDoc(t, record(5, types.KindChart, "demo")),
	})

	result, err := o.Restore(context.Background(), "one", Options{}, nil)

	require.NoError(t, err)
	assert.True(t, result.IsFullySuccessful())
	require.Len(t, result.Import.RestoredWindows, 1)
	assert.Equal(t, []int{5}, result.OpenedWindows)
	assert.Empty(t, result.Import.IDMap)

	got, ok := reg.Get(5)
	require.True(t, ok)
	assert.Equal(t, types.KindChart, got.Kind)
	assert.True(t, got.State.HasTag("demo"))
}

func TestRestoreRemapsCollidingIDs(t *testing.T) {
	o, reg := newOrchestrator(map[string][]byte{
		"ws": encodeDoc(t, record(5, types.KindChart)),
	})
	reg.CreateWithID(5, types.KindVolume, types.DefaultPosition())

	result, err := o.Restore(context.Background(), "ws", Options{}, nil)

	require.NoError(t, err)
	assert.Equal(t, map[int]int{5: 6}, result.Import.IDMap)
	assert.Equal(t, []int{6}, result.OpenedWindows)
	assert.Equal(t, 2, reg.Count())

	// The pre-existing window is untouched, the restored one lives at 6.
	existing, _ := reg.Get(5)
	assert.Equal(t, types.KindVolume, existing.Kind)
	restored, _ := reg.Get(6)
	assert.Equal(t, types.KindChart, restored.Kind)
}

func TestRestoreMergePreservesNonColliding(t *testing.T) {
	o, reg := newOrchestrator(map[string][]byte{
		"ws": encodeDoc(t,
			record(1, types.KindChart),
			record(2, types.KindVolume),
			record(3, types.KindDataFrame),
		),
	})
	reg.CreateWithID(2, types.KindModel3D, types.DefaultPosition())

	result, err := o.Restore(context.Background(), "ws", Options{}, nil)

	require.NoError(t, err)
	require.Len(t, result.Import.RestoredWindows, 3)
	assert.Equal(t, 4, reg.Count())

	// The colliding id moved somewhere free.
	remapped, ok := result.Import.IDMap[2]
	require.True(t, ok)
	assert.NotEqual(t, 2, remapped)

	ids := make(map[int]bool)
	for _, rec := range reg.Snapshot() {
		require.False(t, ids[rec.ID], "duplicate id %d after merge", rec.ID)
		ids[rec.ID] = true
	}
}

func TestRestoreClearExistingIsIdempotent(t *testing.T) {
	doc := encodeDoc(t, record(1, types.KindChart), record(2, types.KindVolume))
	o, reg := newOrchestrator(map[string][]byte{"ws": doc})
	reg.Create(types.KindPointCloud, types.DefaultPosition())

	first, err := o.Restore(context.Background(), "ws", Options{ClearExisting: true}, nil)
	require.NoError(t, err)
	second, err := o.Restore(context.Background(), "ws", Options{ClearExisting: true}, nil)
	require.NoError(t, err)

	assert.Empty(t, first.Import.IDMap)
	assert.Empty(t, second.Import.IDMap)
	assert.Equal(t, first.OpenedWindows, second.OpenedWindows)
	assert.Equal(t, 2, reg.Count())
	assert.True(t, reg.Has(1))
	assert.True(t, reg.Has(2))
}

func TestRestoreClearExistingWithEmptyDocument(t *testing.T) {
	o, reg := newOrchestrator(map[string][]byte{"empty": encodeDoc(t)})
	reg.Create(types.KindChart, types.DefaultPosition())

	result, err := o.Restore(context.Background(), "empty", Options{ClearExisting: true}, nil)

	require.NoError(t, err)
	assert.True(t, result.IsFullySuccessful())
	assert.Equal(t, 0, reg.Count(), "clear must run even when nothing decoded")
}

func TestRestorePartialFailureAccounting(t *testing.T) {
	// Two good cells and one malformed one.
	doc := []byte(`{
	 "cells": [
	  {"cell_type": "code", "metadata": {"window_id": 1, "window_type": "chart"}, "source": []},
	  {"cell_type": "code", "metadata": {"window_type": "chart"}, "source": []},
	  {"cell_type": "code", "metadata": {"window_id": 3, "window_type": "volume"}, "source": []}
	 ],
	 "metadata": {},
	 "nbformat": 4,
	 "nbformat_minor": 4
	}`)
	o, reg := newOrchestrator(map[string][]byte{"ws": doc})

	failed := errors.New("gpu context lost")
	result, err := o.Restore(context.Background(), "ws", Options{}, func(id int) error {
		if id == 3 {
			return failed
		}
		return nil
	})

	require.NoError(t, err)
	assert.False(t, result.IsFullySuccessful())

	// Decoded records plus decode errors account for every cell.
	assert.Equal(t, 3, len(result.Import.RestoredWindows)+len(result.Import.DecodeErrors))
	// Every imported record is either opened or failed.
	assert.Equal(t, len(result.Import.RestoredWindows), len(result.OpenedWindows)+len(result.FailedWindows))

	assert.Equal(t, []int{1}, result.OpenedWindows)
	require.Len(t, result.FailedWindows, 1)
	assert.Equal(t, 3, result.FailedWindows[0].ID)
	assert.Equal(t, "gpu context lost", result.FailedWindows[0].Reason)

	// A window that failed to open is still imported.
	assert.True(t, reg.Has(3))
}

func TestRestoreReadFailureIsFatal(t *testing.T) {
	reg := registry.New()
	reg.Create(types.KindChart, types.DefaultPosition())
	o := New(reg, codec.New(), &memReader{err: types.ErrFileRead}, nil)

	result, err := o.Restore(context.Background(), "missing", Options{ClearExisting: true}, nil)

	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrFileRead)
	require.NotNil(t, result)
	assert.NotEmpty(t, result.FatalError)
	assert.False(t, result.IsFullySuccessful())
	assert.Empty(t, result.OpenedWindows)
	assert.Equal(t, 1, reg.Count(), "a fatal read must not touch the registry")
}

func TestRestoreProgressMonotonic(t *testing.T) {
	doc := encodeDoc(t,
		record(1, types.KindChart),
		record(2, types.KindVolume),
		record(3, types.KindDataFrame),
	)
	reg := registry.New()

	type event struct {
		state State
		done  int
		total int
	}
	var events []event
	o := New(reg, codec.New(), &memReader{docs: map[string][]byte{"ws": doc}}, nil).
		WithProgress(func(state State, done, total int) {
			events = append(events, event{state, done, total})
		})

	_, err := o.Restore(context.Background(), "ws", Options{}, nil)
	require.NoError(t, err)

	require.NotEmpty(t, events)
	assert.Equal(t, StateReading, events[0].state)
	assert.Equal(t, StateCompleted, events[len(events)-1].state)

	// Fractions never decrease, and the final report is complete.
	prev := 0.0
	for _, ev := range events {
		if ev.total == 0 {
			continue
		}
		frac := float64(ev.done) / float64(ev.total)
		assert.GreaterOrEqual(t, frac, prev, "progress regressed at state %s", ev.state)
		prev = frac
	}
	last := events[len(events)-1]
	assert.Equal(t, last.total, last.done)
	assert.Equal(t, 3, last.total)
}

func TestRestoreCancelledImportsWithoutOpening(t *testing.T) {
	doc := encodeDoc(t, record(1, types.KindChart), record(2, types.KindVolume))
	o, reg := newOrchestrator(map[string][]byte{"ws": doc})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	opened := 0
	result, err := o.Restore(ctx, "ws", Options{}, func(int) error {
		opened++
		return nil
	})

	require.NoError(t, err)
	assert.Zero(t, opened, "materialize must not run after cancellation")
	assert.Empty(t, result.OpenedWindows)
	require.Len(t, result.FailedWindows, 2)
	assert.Contains(t, result.FailedWindows[0].Reason, "cancel")

	// Cancellation does not roll back imports.
	assert.Equal(t, 2, reg.Count())
	assert.Len(t, result.Import.RestoredWindows, 2)
}

func TestResultSummary(t *testing.T) {
	result := &types.EnvironmentRestoreResult{
		Import: types.ImportResult{
			RestoredWindows: []types.WindowRecord{{ID: 1}, {ID: 2}},
			DecodeErrors:    []types.DecodeError{{CellIndex: 0, Message: "bad"}},
			IDMap:           map[int]int{5: 6},
		},
		OpenedWindows: []int{1},
		FailedWindows: []types.FailedWindow{{ID: 2, Reason: "x"}},
	}

	s := result.Summary()
	assert.Contains(t, s, "2 window(s) imported")
	assert.Contains(t, s, "1 opened")
	assert.Contains(t, s, "1 imported but not opened")
	assert.Contains(t, s, "1 cell(s) could not be decoded")
	assert.Contains(t, s, "1 id(s) remapped")
}
