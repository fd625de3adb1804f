package decode

import (
	"io"
	"log/slog"
	"math"
	"testing"

	"github.com/couchcryptid/argo-profile-etl/internal/domain"
	"github.com/couchcryptid/argo-profile-etl/internal/domain/domaintest"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRegistry_DoubleRoundTrip(t *testing.T) {
	f := domaintest.NewFile().Dim("x", 2).Dim("y", 3).
		Add("V", domain.TypeFloat64, []string{"x", "y"}, []float64{1, 2, 3, 4, 5, 6.000000000000001}, nil)
	v, _ := f.Variable("V")

	got, err := NewRegistry(DefaultVocabulary()).Decode(v, domain.All)
	require.NoError(t, err)

	want := domain.Array{
		domain.Array{domain.Scalar{V: 1.0}, domain.Scalar{V: 2.0}, domain.Scalar{V: 3.0}},
		domain.Array{domain.Scalar{V: 4.0}, domain.Scalar{V: 5.0}, domain.Scalar{V: 6.000000000000001}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("decode mismatch (-want +got):\n%s", diff)
	}
}

func TestRegistry_IntegerTypesKeepTheirGoType(t *testing.T) {
	f := domaintest.NewFile().Dim("n", 2).
		Add("B", domain.TypeInt8, []string{"n"}, []int8{-1, 1}, nil).
		Add("U", domain.TypeUint64, []string{"n"}, []uint64{math.MaxUint64, 0}, nil).
		Add("S", domain.TypeInt16, []string{"n"}, []int16{-300, 300}, nil)
	r := NewRegistry(DefaultVocabulary())

	b, _ := f.Variable("B")
	got, err := r.Decode(b, domain.All)
	require.NoError(t, err)
	assert.Equal(t, domain.Array{domain.Scalar{V: int8(-1)}, domain.Scalar{V: int8(1)}}, got)

	u, _ := f.Variable("U")
	got, err = r.Decode(u, domain.All)
	require.NoError(t, err)
	assert.Equal(t, domain.Scalar{V: uint64(math.MaxUint64)}, got.(domain.Array)[0])
}

func TestRegistry_Region(t *testing.T) {
	f := domaintest.NewFile().Dim("N_PROF", 2).Dim("N_LEVELS", 3).
		Add("TEMP", domain.TypeFloat32, []string{"N_PROF", "N_LEVELS"}, []float32{1, 2, 3, 4, 5, 6}, nil)
	v, _ := f.Variable("TEMP")

	got, err := NewRegistry(DefaultVocabulary()).Decode(v, domain.Row(1, v.Dimensions()))
	require.NoError(t, err)
	assert.Equal(t, []Leaf{float32(4), float32(5), float32(6)}, Flatten(got))
}

func TestRegistry_DimensionlessNumberIsScalar(t *testing.T) {
	f := domaintest.NewFile().Add("CONFIG", domain.TypeInt32, nil, []int32{7}, nil)
	v, _ := f.Variable("CONFIG")

	got, err := NewRegistry(DefaultVocabulary()).Decode(v, domain.All)
	require.NoError(t, err)
	assert.Equal(t, domain.Scalar{V: int32(7)}, got)
}

func TestRegistry_TextVariable(t *testing.T) {
	f := domaintest.NewFile().Dim("STRING16", 16).AddText("DATA_TYPE", []string{"STRING16"}, "Argo profile")
	v, _ := f.Variable("DATA_TYPE")

	got, err := NewRegistry(DefaultVocabulary()).Decode(v, domain.All)
	require.NoError(t, err)
	assert.Equal(t, domain.Scalar{V: "Argo profile"}, got)
}

func TestRegistry_UnsupportedTypeDegradesToNull(t *testing.T) {
	f := domaintest.NewFile().Dim("n", 1).Add("X", domain.TypeUnknown, []string{"n"}, []int32{1}, nil)
	v, _ := f.Variable("X")

	got, err := NewRegistry(DefaultVocabulary()).Decode(v, domain.All)
	assert.Equal(t, domain.Null, got)

	var unsupported *UnsupportedTypeError
	require.ErrorAs(t, err, &unsupported)
	assert.Equal(t, "X", unsupported.Variable)
}

func TestRegistry_RegisterExtendsTable(t *testing.T) {
	r := NewRegistry(DefaultVocabulary())
	_, ok := r.Lookup(domain.TypeUnknown)
	require.False(t, ok)

	r.Register(domain.TypeUnknown, func(domain.Variable, domain.Region) (domain.Value, error) {
		return domain.Scalar{V: "opaque"}, nil
	})
	f := domaintest.NewFile().Add("X", domain.TypeUnknown, nil, []int32{1}, nil)
	v, _ := f.Variable("X")

	got, err := r.Decode(v, domain.All)
	require.NoError(t, err)
	assert.Equal(t, domain.Scalar{V: "opaque"}, got)
}

func TestRegistry_TypeMismatchFromReader(t *testing.T) {
	f := domaintest.NewFile().Dim("n", 1).Add("X", domain.TypeFloat64, []string{"n"}, []float32{1}, nil)
	v, _ := f.Variable("X")

	_, err := NewRegistry(DefaultVocabulary()).Decode(v, domain.All)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected []float64")
}

func TestRegistry_DimensionMismatchNamesVariable(t *testing.T) {
	f := domaintest.NewFile().Dim("STRING3", 3).Add("X", domain.TypeChar, []string{"STRING3"}, []byte("abc"), nil)
	v, _ := f.Variable("X")

	_, err := NewRegistry(DefaultVocabulary().With("STRING3")).Decode(v, domain.All)
	var dm *DimensionMismatchError
	require.ErrorAs(t, err, &dm)
	assert.Equal(t, "X", dm.Variable)
}

func TestRegistry_DecodeFile(t *testing.T) {
	f := domaintest.NewFile().Dim("N_PROF", 2).Dim("STRING8", 8).
		AddText("PLATFORM_NUMBER", []string{"N_PROF", "STRING8"}, "6902746", "6902747").
		Add("CYCLE_NUMBER", domain.TypeInt32, []string{"N_PROF"}, []int32{1, 2}, nil).
		Add("HISTORY", domain.TypeUnknown, []string{"N_PROF"}, []int32{0, 0}, nil)

	got, err := NewRegistry(DefaultVocabulary()).DecodeFile(f, discardLogger())
	require.NoError(t, err)

	assert.Equal(t, domain.Array{domain.Scalar{V: "6902746"}, domain.Scalar{V: "6902747"}}, got["PLATFORM_NUMBER"])
	assert.Equal(t, domain.Array{domain.Scalar{V: int32(1)}, domain.Scalar{V: int32(2)}}, got["CYCLE_NUMBER"])
	assert.Equal(t, domain.Null, got["HISTORY"])
}
