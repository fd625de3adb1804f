package profile

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/couchcryptid/argo-profile-etl/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func series(fill float64, vals ...float64) Series {
	return Series{Values: vals, Fill: fill}
}

func TestTrimFill(t *testing.T) {
	assert.Equal(t, []float64{1, 2}, TrimFill(series(99999, 1, 2, 99999, 99999)))
	assert.Equal(t, []float64{1, 99999, 3}, TrimFill(series(99999, 1, 99999, 3)))
	assert.Equal(t, []float64{1}, TrimFill(series(99999, 1, math.NaN())))
	assert.Empty(t, TrimFill(series(99999, 99999, 99999)))
	assert.Empty(t, TrimFill(Series{}))
}

func TestTrimEmpty(t *testing.T) {
	assert.Equal(t, []string{"1", "", "4"}, TrimEmpty([]string{"1", "", "4", "", ""}))
	assert.Empty(t, TrimEmpty([]string{"", ""}))
}

func TestEnforceConsistency_PadsToLongestParameter(t *testing.T) {
	in := map[string]RawLevels{
		"PRES": {
			Value: series(99999, 1, 2, 3, 4, 5, 99999, 99999, 99999, 99999, 99999),
			QC:    []string{"1", "1", "1", "1", "1", "", "", "", "", ""},
		},
		"TEMP": {
			Value:    series(99999, 10, 11, 12, 13, 14, 15, 16, 17, 99999, 99999),
			Adjusted: series(99999, 10.1, 11.1, 99999, 99999, 99999, 99999, 99999, 99999, 99999, 99999),
		},
	}

	out := EnforceConsistency(in)
	require.Len(t, out, 2)

	pres := out["PRES"]
	assert.Equal(t, []float64{1, 2, 3, 4, 5, 99999, 99999, 99999}, pres.Value)
	assert.Equal(t, []string{"1", "1", "1", "1", "1", "", "", ""}, pres.QC)
	assert.Nil(t, pres.Adjusted)

	temp := out["TEMP"]
	assert.Len(t, temp.Value, 8)
	assert.Equal(t, []float64{10.1, 11.1, 99999, 99999, 99999, 99999, 99999, 99999}, temp.Adjusted)
	assert.Nil(t, temp.QC)
}

func TestEnforceConsistency_UsesDeclaredFill(t *testing.T) {
	out := EnforceConsistency(map[string]RawLevels{
		"A": {Value: series(-1, 1, -1)},
		"B": {Value: series(99999, 1, 2, 3)},
	})
	assert.Equal(t, []float64{1, -1, -1}, out["A"].Value)
}

func TestEnforceConsistency_NaNReplaced(t *testing.T) {
	out := EnforceConsistency(map[string]RawLevels{
		"A": {Value: series(math.NaN(), 1, math.NaN(), 3)},
		"B": {Value: series(99999, 1, 2, 3, 4)},
	})
	assert.Equal(t, []float64{1, DefaultFill, 3, DefaultFill}, out["A"].Value)
}

func TestEnforceConsistency_InfinityReplaced(t *testing.T) {
	out := EnforceConsistency(map[string]RawLevels{
		"TEMP": {Value: series(99999, 1, math.Inf(1), 3), Adjusted: series(99999, 1, 2, math.Inf(-1))},
	})
	assert.Equal(t, []float64{1, DefaultFill, 3}, out["TEMP"].Value)
	assert.Equal(t, []float64{1, 2, 99999}, out["TEMP"].Adjusted)

	_, err := json.Marshal(domain.ProfileRecord{ID: "R1_001_0", Data: out})
	require.NoError(t, err)
}

func TestEnforceConsistency_DropsEmptyParameters(t *testing.T) {
	out := EnforceConsistency(map[string]RawLevels{
		"DOXY": {Value: series(99999, 99999, 99999), QC: []string{"", ""}},
		"PRES": {Value: series(99999, 5)},
	})
	assert.Equal(t, map[string]domain.LevelArrays{"PRES": {Value: []float64{5}}}, out)
}

func TestEnforceConsistency_AllEmpty(t *testing.T) {
	assert.Empty(t, EnforceConsistency(map[string]RawLevels{"PRES": {}}))
	assert.Empty(t, EnforceConsistency(nil))
}
