package profile

import (
	"math"

	"github.com/couchcryptid/argo-profile-etl/internal/domain"
)

// DefaultFill is the Argo _FillValue for per-level parameters.
const DefaultFill = 99999.0

// Series is a per-level numeric array together with its fill sentinel.
type Series struct {
	Values []float64
	Fill   float64
}

// RawLevels is the untrimmed per-level data of one parameter, read at the full
// N_LEVELS length. Arrays that were skipped or absent are nil.
type RawLevels struct {
	Value      Series
	Adjusted   Series
	QC         []string
	AdjustedQC []string
}

// TrimFill drops the trailing run of fill (or non-finite) values.
func TrimFill(s Series) []float64 {
	n := len(s.Values)
	for n > 0 && isFill(s.Values[n-1], s.Fill) {
		n--
	}
	return s.Values[:n]
}

// TrimEmpty drops the trailing run of empty flags.
func TrimEmpty(flags []string) []string {
	n := len(flags)
	for n > 0 && flags[n-1] == "" {
		n--
	}
	return flags[:n]
}

// EnforceConsistency trims every array of every parameter, then pads each
// non-empty array back to the longest retained length in the profile so level
// indexes line up across parameters. Parameters left with no data are dropped.
func EnforceConsistency(in map[string]RawLevels) map[string]domain.LevelArrays {
	type trimmed struct {
		value, adjusted         []float64
		valueFill, adjustedFill float64
		qc, adjustedQC          []string
	}

	kept := make(map[string]trimmed, len(in))
	maxLen := 0
	for name, raw := range in {
		t := trimmed{
			value:        TrimFill(raw.Value),
			adjusted:     TrimFill(raw.Adjusted),
			valueFill:    padFill(raw.Value.Fill),
			adjustedFill: padFill(raw.Adjusted.Fill),
			qc:           TrimEmpty(raw.QC),
			adjustedQC:   TrimEmpty(raw.AdjustedQC),
		}
		if len(t.value)+len(t.adjusted)+len(t.qc)+len(t.adjustedQC) == 0 {
			continue
		}
		maxLen = max(maxLen, len(t.value), len(t.adjusted), len(t.qc), len(t.adjustedQC))
		kept[name] = t
	}

	out := make(map[string]domain.LevelArrays, len(kept))
	for name, t := range kept {
		out[name] = domain.LevelArrays{
			Value:      padSeries(t.value, maxLen, t.valueFill),
			Adjusted:   padSeries(t.adjusted, maxLen, t.adjustedFill),
			QC:         padFlags(t.qc, maxLen),
			AdjustedQC: padFlags(t.adjustedQC, maxLen),
		}
	}
	return out
}

// padSeries copies vals into an array of length n, replacing NaN and infinities
// and filling the tail with fill. Empty input stays nil.
func padSeries(vals []float64, n int, fill float64) []float64 {
	if len(vals) == 0 {
		return nil
	}
	out := make([]float64, n)
	for i := range out {
		if i < len(vals) && finite(vals[i]) {
			out[i] = vals[i]
			continue
		}
		out[i] = fill
	}
	return out
}

func padFlags(flags []string, n int) []string {
	if len(flags) == 0 {
		return nil
	}
	out := make([]string, n)
	copy(out, flags)
	return out
}

func isFill(v, fill float64) bool {
	return !finite(v) || v == fill
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// padFill is the value written into padded slots. Non-finite fills are replaced
// so records stay encodable as JSON.
func padFill(fill float64) float64 {
	if !finite(fill) {
		return DefaultFill
	}
	return fill
}
