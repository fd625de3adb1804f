package decode

import (
	"errors"
	"testing"

	"github.com/couchcryptid/argo-profile-etl/internal/domain"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func leaves(n int) []Leaf {
	out := make([]Leaf, n)
	for i := range out {
		out[i] = float64(i)
	}
	return out
}

func depth(v domain.Value) int {
	a, ok := v.(domain.Array)
	if !ok {
		return 0
	}
	if len(a) == 0 {
		return 1
	}
	return 1 + depth(a[0])
}

func TestReshape_RankZeroIsEmptyArray(t *testing.T) {
	v, err := Reshape(nil, nil)
	require.NoError(t, err)
	assert.Equal(t, domain.Array{}, v)
}

func TestReshape_RankOne(t *testing.T) {
	v, err := Reshape([]Leaf{int16(4), int16(5)}, []int{2})
	require.NoError(t, err)
	assert.Equal(t, domain.Array{domain.Scalar{V: int16(4)}, domain.Scalar{V: int16(5)}}, v)
}

func TestReshape_FlattenRoundTrip(t *testing.T) {
	shapes := [][]int{{1}, {6}, {2, 3}, {3, 2}, {2, 3, 4}, {1, 1, 5}, {2, 0}, {4, 1, 2, 1}}
	for _, shape := range shapes {
		n := 1
		for _, d := range shape {
			n *= d
		}
		flat := leaves(n)

		v, err := Reshape(flat, shape)
		require.NoError(t, err, "shape %v", shape)

		got := Flatten(v)
		if n == 0 {
			assert.Empty(t, got, "shape %v", shape)
		} else if diff := cmp.Diff(flat, got); diff != "" {
			t.Errorf("shape %v: flatten mismatch (-want +got):\n%s", shape, diff)
		}
		if n > 0 {
			assert.Equal(t, len(shape), depth(v), "shape %v", shape)
		}
	}
}

func TestReshape_NestedLayout(t *testing.T) {
	v, err := Reshape([]Leaf{1.0, 2.0, 3.0, 4.0, 5.0, 6.0}, []int{2, 3})
	require.NoError(t, err)

	want := domain.Array{
		domain.Array{domain.Scalar{V: 1.0}, domain.Scalar{V: 2.0}, domain.Scalar{V: 3.0}},
		domain.Array{domain.Scalar{V: 4.0}, domain.Scalar{V: 5.0}, domain.Scalar{V: 6.0}},
	}
	if diff := cmp.Diff(want, v); diff != "" {
		t.Errorf("reshape mismatch (-want +got):\n%s", diff)
	}
}

func TestReshape_LengthMismatch(t *testing.T) {
	_, err := Reshape(leaves(5), []int{2, 3})
	require.Error(t, err)

	var dm *DimensionMismatchError
	require.True(t, errors.As(err, &dm))
	assert.Contains(t, dm.Error(), "want 6")
}

func TestReshape_NegativeLength(t *testing.T) {
	_, err := Reshape(nil, []int{-1})
	var dm *DimensionMismatchError
	require.ErrorAs(t, err, &dm)
}
