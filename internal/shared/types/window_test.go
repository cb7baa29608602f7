package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWindowKindValid(t *testing.T) {
	for _, k := range Kinds() {
		assert.True(t, k.Valid(), "kind %s", k)
	}
	assert.False(t, WindowKind("teleporter").Valid())
	assert.False(t, WindowKind("").Valid())
}

func TestAddTag(t *testing.T) {
	var s WindowState

	s.AddTag("a")
	s.AddTag("b")
	s.AddTag("a") // duplicate
	s.AddTag("")  // empty, ignored

	assert.Equal(t, []string{"a", "b"}, s.Tags)
	assert.True(t, s.HasTag("a"))
	assert.False(t, s.HasTag("c"))
}

func TestCloneIsDeep(t *testing.T) {
	depth := 1.5
	rec := WindowRecord{
		ID:       1,
		Kind:     KindChart,
		Position: Position{Width: 400, Height: 300, Depth: &depth},
		State: WindowState{
			Tags: []string{"a"},
			Payload: &Payload{Chart: &ChartPayload{
				Series: []ChartSeries{{Name: "s", Points: []float64{1, 2}}},
			}},
		},
	}

	clone := rec.Clone()
	clone.State.Tags[0] = "mutated"
	*clone.Position.Depth = 9
	clone.State.Payload.Chart.Series[0].Points[0] = 99

	assert.Equal(t, "a", rec.State.Tags[0])
	assert.Equal(t, 1.5, *rec.Position.Depth)
	assert.Equal(t, 1.0, rec.State.Payload.Chart.Series[0].Points[0])
}

func TestValidate(t *testing.T) {
	rec := WindowRecord{ID: 1, Kind: KindChart}
	require.NoError(t, rec.Validate())

	rec.State.Payload = &Payload{Chart: &ChartPayload{ChartType: "line"}}
	require.NoError(t, rec.Validate())

	rec.State.Payload = &Payload{DataFrame: &DataFramePayload{Columns: []string{"a"}}}
	err := rec.Validate()
	require.Error(t, err)
	var mismatch *PayloadMismatchError
	assert.ErrorAs(t, err, &mismatch)

	bad := WindowRecord{ID: 2, Kind: "teleporter"}
	err = bad.Validate()
	require.Error(t, err)
	var invalid *InvalidKindError
	assert.ErrorAs(t, err, &invalid)
}

func TestPayloadVariant(t *testing.T) {
	assert.Equal(t, WindowKind(""), (*Payload)(nil).Variant())
	assert.Equal(t, KindChart, (&Payload{Chart: &ChartPayload{}}).Variant())
	assert.Equal(t, KindPointCloud, (&Payload{PointCloud: &PointCloudPayload{}}).Variant())

	// Two variants set is ambiguous.
	both := &Payload{Chart: &ChartPayload{}, Model3D: &Model3DPayload{}}
	assert.Equal(t, WindowKind(""), both.Variant())
	assert.False(t, both.MatchesKind(KindChart))

	// An empty payload agrees with every kind.
	empty := &Payload{}
	for _, k := range Kinds() {
		assert.True(t, empty.MatchesKind(k))
	}
}
