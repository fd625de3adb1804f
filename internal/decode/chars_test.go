package decode

import (
	"testing"

	"github.com/couchcryptid/argo-profile-etl/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dims(pairs ...any) []domain.Dimension {
	out := make([]domain.Dimension, 0, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		out = append(out, domain.Dimension{Name: pairs[i].(string), Len: pairs[i+1].(int)})
	}
	return out
}

func TestCharDecoder_LabelDimensionCollapsesToScalar(t *testing.T) {
	d := CharDecoder{Vocabulary: DefaultVocabulary()}

	v, err := d.Decode([]byte("6902746 "), dims("STRING8", 8))
	require.NoError(t, err)
	assert.Equal(t, domain.Scalar{V: "6902746"}, v)
}

func TestCharDecoder_UnrecognizedDimensionKeepsCharacters(t *testing.T) {
	d := CharDecoder{Vocabulary: DefaultVocabulary()}

	v, err := d.Decode([]byte("11114444"), dims("N_LEVELS", 8))
	require.NoError(t, err)

	arr, ok := v.(domain.Array)
	require.True(t, ok)
	require.Len(t, arr, 8)
	assert.Equal(t, domain.Scalar{V: "1"}, arr[0])
	assert.Equal(t, domain.Scalar{V: "4"}, arr[7])
}

func TestCharDecoder_StripsNullsAndWhitespace(t *testing.T) {
	d := CharDecoder{Vocabulary: DefaultVocabulary()}

	v, err := d.Decode([]byte("  ARGO\x00\x00 \x00"), dims("STRING8", 8))
	require.NoError(t, err)
	assert.Equal(t, domain.Scalar{V: "ARGO"}, v)
}

func TestCharDecoder_MultiDimensionalStrings(t *testing.T) {
	d := CharDecoder{Vocabulary: DefaultVocabulary()}
	buf := []byte("PRES    TEMP    PSAL    " + "PRES    " + "\x00\x00\x00\x00\x00\x00\x00\x00" + "        ")

	v, err := d.Decode(buf, dims("N_PROF", 2, "N_PARAM", 3, "STRING8", 8))
	require.NoError(t, err)

	want := domain.Array{
		domain.Array{domain.Scalar{V: "PRES"}, domain.Scalar{V: "TEMP"}, domain.Scalar{V: "PSAL"}},
		domain.Array{domain.Scalar{V: "PRES"}, domain.Scalar{V: ""}, domain.Scalar{V: ""}},
	}
	assert.Equal(t, want, v)
}

func TestCharDecoder_SingleStringWithOuterAxisStaysArray(t *testing.T) {
	d := CharDecoder{Vocabulary: DefaultVocabulary()}

	v, err := d.Decode([]byte("20240426120000"), dims("N_PROF", 1, "DATE_TIME", 14))
	require.NoError(t, err)
	assert.Equal(t, domain.Array{domain.Scalar{V: "20240426120000"}}, v)
}

func TestCharDecoder_PerCharacterQCFlags(t *testing.T) {
	d := CharDecoder{Vocabulary: DefaultVocabulary()}

	v, err := d.Decode([]byte("12 4"), dims("N_PROF", 2, "N_LEVELS", 2))
	require.NoError(t, err)
	assert.Equal(t, domain.Array{
		domain.Array{domain.Scalar{V: "1"}, domain.Scalar{V: "2"}},
		domain.Array{domain.Scalar{V: ""}, domain.Scalar{V: "4"}},
	}, v)
}

func TestCharDecoder_EmptyBuffer(t *testing.T) {
	d := CharDecoder{Vocabulary: DefaultVocabulary()}

	v, err := d.Decode(nil, dims("N_PROF", 0, "STRING8", 8))
	require.NoError(t, err)
	assert.Equal(t, domain.Array{}, v)
}

func TestCharDecoder_UnsupportedWidth(t *testing.T) {
	d := CharDecoder{Vocabulary: DefaultVocabulary().With("STRING3")}

	_, err := d.Decode([]byte("abc"), dims("STRING3", 3))
	var dm *DimensionMismatchError
	require.ErrorAs(t, err, &dm)
	assert.Contains(t, dm.Reason, "width 3")
}

func TestCharDecoder_BufferShapeMismatch(t *testing.T) {
	d := CharDecoder{Vocabulary: DefaultVocabulary()}

	_, err := d.Decode([]byte("abc"), dims("STRING4", 4))
	var dm *DimensionMismatchError
	require.ErrorAs(t, err, &dm)
}

func TestCharDecoder_InvalidUTF8IsReplaced(t *testing.T) {
	d := CharDecoder{Vocabulary: DefaultVocabulary()}

	v, err := d.Decode([]byte{'A', 0xff, 'B', ' '}, dims("STRING4", 4))
	require.NoError(t, err)
	assert.Equal(t, domain.Scalar{V: "A�B"}, v)
}

func TestVocabulary(t *testing.T) {
	v := DefaultVocabulary()
	assert.True(t, v.Contains("DATE_TIME"))
	assert.True(t, v.Contains("STRING256"))
	assert.False(t, v.Contains("STRING14"))
	assert.False(t, v.Contains("N_LEVELS"))

	extended := v.With("CALIB_LABEL", " ")
	assert.True(t, extended.Contains("CALIB_LABEL"))
	assert.False(t, v.Contains("CALIB_LABEL"))
	assert.Contains(t, extended.Names(), "STRING1")
	assert.Len(t, extended.Names(), len(v.Names())+1)
}
