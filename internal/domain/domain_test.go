package domain

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegionBounds_Defaults(t *testing.T) {
	dims := []Dimension{{Name: "N_PROF", Len: 3}, {Name: "N_LEVELS", Len: 10}}

	begin, end, err := All.Bounds(dims)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 0}, begin)
	assert.Equal(t, []int{3, 10}, end)
}

func TestRegionShape_Row(t *testing.T) {
	dims := []Dimension{{Name: "N_PROF", Len: 3}, {Name: "N_PARAM", Len: 2}, {Name: "STRING16", Len: 16}}

	shape, err := Row(2, dims).Shape(dims)
	require.NoError(t, err)
	assert.Equal(t, []Dimension{{Name: "N_PROF", Len: 1}, {Name: "N_PARAM", Len: 2}, {Name: "STRING16", Len: 16}}, shape)
}

func TestRegionBounds_OutOfRange(t *testing.T) {
	dims := []Dimension{{Name: "N_PROF", Len: 3}}

	_, _, err := Row(3, dims).Bounds(dims)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "N_PROF")
}

func TestRegionBounds_RankMismatch(t *testing.T) {
	dims := []Dimension{{Name: "N_PROF", Len: 3}}

	_, _, err := Region{Begin: []int{0, 0}}.Bounds(dims)
	require.Error(t, err)
}

func TestScalarMarshalJSON_NaNBecomesNull(t *testing.T) {
	data, err := json.Marshal(Array{Scalar{V: 1.5}, Scalar{V: math.NaN()}, Scalar{V: "R"}, Null})
	require.NoError(t, err)
	assert.JSONEq(t, `[1.5, null, "R", null]`, string(data))
}

func TestArrayNative(t *testing.T) {
	v := Array{Array{Scalar{V: int32(1)}, Scalar{V: int32(2)}}, Array{}}
	assert.Equal(t, []any{[]any{int32(1), int32(2)}, []any{}}, v.Native())
}

func TestToFloat(t *testing.T) {
	for _, leaf := range []any{int8(3), uint16(3), int64(3), float32(3), 3.0} {
		f, ok := ToFloat(leaf)
		assert.True(t, ok, "%T", leaf)
		assert.Equal(t, 3.0, f, "%T", leaf)
	}
	_, ok := ToFloat("3")
	assert.False(t, ok)
}

func TestMetadataSameDescription_IgnoresID(t *testing.T) {
	a := MetadataRecord{ID: "a", PlatformNumber: "6902746", PIName: []string{"A", "B"}}
	b := MetadataRecord{ID: "b", PlatformNumber: "6902746", PIName: []string{"A", "B"}}
	assert.True(t, a.SameDescription(b))

	b.PIName = []string{"B", "A"}
	assert.False(t, a.SameDescription(b))
}

func TestProfileID(t *testing.T) {
	assert.Equal(t, "R6902746_001_0", ProfileID("R6902746_001", 0))
}

func TestNewPoint_LonLatOrder(t *testing.T) {
	p := NewPoint(-45.5, 120.25)
	assert.Equal(t, "Point", p.Type)
	assert.Equal(t, [2]float64{120.25, -45.5}, p.Coordinates)
	assert.Equal(t, -45.5, p.Lat())
	assert.Equal(t, 120.25, p.Lon())
}

func TestSetClock(t *testing.T) {
	fixed := time.Date(2024, time.April, 26, 12, 0, 0, 0, time.UTC)
	SetClock(clockwork.NewFakeClockAt(fixed))
	t.Cleanup(func() { SetClock(nil) })

	assert.Equal(t, fixed, Now())
}
