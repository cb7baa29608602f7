package catalog

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spatialdeck/backend/internal/shared/types"
)

func TestRegisterAssignsID(t *testing.T) {
	c := New()

	entry := c.Register(types.WorkspaceMetadata{Name: "analysis"})

	assert.NotEmpty(t, entry.ID)
	assert.Equal(t, 1, c.Count())

	got, ok := c.Get(entry.ID)
	require.True(t, ok)
	assert.Equal(t, "analysis", got.Name)
}

func TestRegisterSameNameReplaces(t *testing.T) {
	c := New()

	first := c.Register(types.WorkspaceMetadata{Name: "analysis", WindowCount: 2})
	second := c.Register(types.WorkspaceMetadata{Name: "analysis", WindowCount: 5})

	assert.Equal(t, first.ID, second.ID, "re-saving must reuse the id")
	assert.Equal(t, 1, c.Count())

	got, ok := c.GetByName("analysis")
	require.True(t, ok)
	assert.Equal(t, 5, got.WindowCount)
}

func TestListSortedAndFiltered(t *testing.T) {
	c := New()
	c.Register(types.WorkspaceMetadata{Name: "zeta"})
	c.Register(types.WorkspaceMetadata{Name: "alpha", IsTemplate: true})
	c.Register(types.WorkspaceMetadata{Name: "mid"})

	all := c.List(false)
	require.Len(t, all, 3)
	assert.Equal(t, "alpha", all[0].Name)
	assert.Equal(t, "mid", all[1].Name)
	assert.Equal(t, "zeta", all[2].Name)

	templates := c.List(true)
	require.Len(t, templates, 1)
	assert.Equal(t, "alpha", templates[0].Name)
}

func TestSearch(t *testing.T) {
	c := New()
	c.Register(types.WorkspaceMetadata{Name: "Sensor Analysis", Description: "daily readings"})
	c.Register(types.WorkspaceMetadata{Name: "demo", Tags: []string{"Sensors", "test"}})
	c.Register(types.WorkspaceMetadata{Name: "unrelated"})

	hits := c.Search("sensor")
	require.Len(t, hits, 2)
	assert.Equal(t, "Sensor Analysis", hits[0].Name)
	assert.Equal(t, "demo", hits[1].Name)

	byDesc := c.Search("READINGS")
	require.Len(t, byDesc, 1)
	assert.Equal(t, "Sensor Analysis", byDesc[0].Name)

	// Blank query behaves like a full listing.
	assert.Len(t, c.Search("  "), 3)
	assert.Empty(t, c.Search("nothing-matches"))
}

func TestRemove(t *testing.T) {
	c := New()
	entry := c.Register(types.WorkspaceMetadata{Name: "analysis"})

	assert.False(t, c.Remove("missing-id"))
	assert.True(t, c.Remove(entry.ID))
	assert.Equal(t, 0, c.Count())

	c.Register(types.WorkspaceMetadata{Name: "other"})
	assert.False(t, c.RemoveByName("analysis"))
	assert.True(t, c.RemoveByName("other"))
	assert.Equal(t, 0, c.Count())
}

func TestGetReturnsCopy(t *testing.T) {
	c := New()
	entry := c.Register(types.WorkspaceMetadata{Name: "analysis", Tags: []string{"a"}})

	got, ok := c.Get(entry.ID)
	require.True(t, ok)
	got.Tags[0] = "mutated"

	again, _ := c.Get(entry.ID)
	assert.Equal(t, "a", again.Tags[0])
}

func TestDescribe(t *testing.T) {
	exported := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	export := &types.WorkspaceExport{
		ExportDate:   exported,
		TotalWindows: 3,
		WindowTypes:  []string{"chart", "volume"},
		AllTags:      []string{"demo", TemplateTag},
	}

	meta := Describe("analysis", export, 2048)

	assert.Equal(t, "analysis", meta.Name)
	assert.Equal(t, int64(2048), meta.SizeBytes)
	assert.Equal(t, 3, meta.WindowCount)
	assert.Equal(t, []string{"chart", "volume"}, meta.WindowTypes)
	assert.True(t, meta.IsTemplate, "template tag must mark the descriptor")
	assert.Equal(t, exported, meta.CreatedAt)

	// A document without an export block still gets a minimal descriptor.
	bare := Describe("legacy", nil, 10)
	assert.Equal(t, "legacy", bare.Name)
	assert.Zero(t, bare.WindowCount)
	assert.False(t, bare.IsTemplate)
}
