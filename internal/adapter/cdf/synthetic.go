package cdf

import (
	"bytes"
	"fmt"
	"math/rand/v2"
	"os"
	"slices"
	"strings"

	"github.com/ctessum/cdf"
)

// SyntheticFill is the _FillValue written for per-level parameters.
const SyntheticFill = 99999

// SyntheticParameters are the station parameters of every synthetic profile.
var SyntheticParameters = []string{"PRES", "TEMP", "PSAL"}

// Synthetic describes a generated real-time profile file. Profile i holds
// Levels-i valid levels (at least one) followed by fill.
type Synthetic struct {
	Platform string
	Cycle    int
	Profiles int
	Levels   int
	Seed     uint64
}

// FixedText packs values into a CHAR buffer, each space padded to width.
// Values longer than width are cut.
func FixedText(width int, values ...string) []byte {
	var buf bytes.Buffer
	for _, v := range values {
		if len(v) > width {
			v = v[:width]
		}
		buf.WriteString(v)
		buf.WriteString(strings.Repeat(" ", width-len(v)))
	}
	return buf.Bytes()
}

var syntheticDims = []struct {
	name string
	len  int
}{
	{"N_PARAM", len(SyntheticParameters)},
	{"STRING2", 2}, {"STRING4", 4}, {"STRING8", 8}, {"STRING16", 16},
	{"STRING32", 32}, {"STRING64", 64}, {"DATE_TIME", 14},
}

var syntheticParamInfo = map[string]struct{ units, long string }{
	"PRES": {"decibar", "Sea water pressure, equals 0 at sea-level"},
	"TEMP": {"degree_Celsius", "Sea temperature in-situ ITS-90 scale"},
	"PSAL": {"psu", "Practical salinity"},
}

type column struct {
	name string
	dims []string
	data any
}

// WriteSynthetic writes a NetCDF classic file shaped like an Argo core profile
// file to path.
func WriteSynthetic(path string, s Synthetic) error {
	if s.Profiles <= 0 || s.Levels <= 0 {
		return fmt.Errorf("synthetic file needs profiles and levels, got %d and %d", s.Profiles, s.Levels)
	}
	if s.Platform == "" {
		s.Platform = "1900001"
	}
	if len(s.Platform) > 8 {
		return fmt.Errorf("platform number %q longer than 8 characters", s.Platform)
	}
	if s.Cycle <= 0 {
		s.Cycle = 1
	}
	rng := rand.New(rand.NewPCG(s.Seed, s.Seed^0x9e3779b97f4a7c15))

	names := []string{"N_PROF", "N_LEVELS"}
	lengths := []int{s.Profiles, s.Levels}
	for _, d := range syntheticDims {
		names = append(names, d.name)
		lengths = append(lengths, d.len)
	}
	h := cdf.NewHeader(names, lengths)

	cols := syntheticColumns(s, rng)
	for _, c := range cols {
		switch c.data.(type) {
		case []byte:
			h.AddVariable(c.name, c.dims, "")
		case []int32:
			h.AddVariable(c.name, c.dims, []int32{0})
		case []float64:
			h.AddVariable(c.name, c.dims, []float64{0})
		case []float32:
			h.AddVariable(c.name, c.dims, []float32{0})
		}
	}
	h.AddAttribute("JULD", "units", "days since 1950-01-01 00:00:00 UTC")
	h.AddAttribute("LATITUDE", "_FillValue", []float64{99999})
	h.AddAttribute("LONGITUDE", "_FillValue", []float64{99999})
	for _, p := range SyntheticParameters {
		info := syntheticParamInfo[p]
		h.AddAttribute(p, "units", info.units)
		h.AddAttribute(p, "long_name", info.long)
		h.AddAttribute(p, "_FillValue", []float32{SyntheticFill})
	}
	h.Define()
	if errs := h.Check(); len(errs) > 0 {
		return fmt.Errorf("synthetic header: %v", errs[0])
	}

	ff, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer ff.Close()
	f, err := cdf.Create(ff, h)
	if err != nil {
		return fmt.Errorf("write header %s: %w", path, err)
	}

	for _, c := range cols {
		end := make([]int, len(c.dims))
		for i, d := range c.dims {
			end[i] = lengths[slices.Index(names, d)]
		}
		if _, err := f.Writer(c.name, make([]int, len(end)), end).Write(c.data); err != nil {
			return fmt.Errorf("write %s: %w", c.name, err)
		}
	}
	return nil
}

func syntheticColumns(s Synthetic, rng *rand.Rand) []column {
	n := s.Profiles
	repeat := func(v string) []string {
		out := make([]string, n)
		for i := range out {
			out[i] = v
		}
		return out
	}
	prof := []string{"N_PROF"}
	text := func(width int, values []string) []byte { return FixedText(width, values...) }

	cycles := make([]int32, n)
	missions := make([]int32, n)
	juld := make([]float64, n)
	juldLoc := make([]float64, n)
	lat := make([]float64, n)
	lon := make([]float64, n)
	stations := make([]string, 0, n*len(SyntheticParameters))
	levels := map[string][]float32{}
	qc := map[string][]string{}
	for i := range n {
		cycles[i] = int32(s.Cycle)
		missions[i] = 1
		juld[i] = 25000 + float64(s.Cycle)*10 + rng.Float64()
		juldLoc[i] = juld[i] - 0.01
		lat[i] = rng.Float64()*120 - 60
		lon[i] = rng.Float64() * 360
		stations = append(stations, SyntheticParameters...)
		valid := max(s.Levels-i, 1)
		for k := range s.Levels {
			if k >= valid {
				for _, p := range SyntheticParameters {
					levels[p] = append(levels[p], SyntheticFill)
					qc[p] = append(qc[p], " ")
				}
				continue
			}
			depth := float32(5 + 10*k)
			levels["PRES"] = append(levels["PRES"], depth)
			levels["TEMP"] = append(levels["TEMP"], 25-depth/100+float32(rng.NormFloat64()*0.1))
			levels["PSAL"] = append(levels["PSAL"], 35+float32(rng.NormFloat64()*0.05))
			for _, p := range SyntheticParameters {
				qc[p] = append(qc[p], "1")
			}
		}
	}

	cols := []column{
		{"DATA_TYPE", []string{"STRING16"}, FixedText(16, "Argo profile")},
		{"FORMAT_VERSION", []string{"STRING4"}, FixedText(4, "3.1")},
		{"HANDBOOK_VERSION", []string{"STRING4"}, FixedText(4, "1.2")},
		{"REFERENCE_DATE_TIME", []string{"DATE_TIME"}, FixedText(14, "19500101000000")},
		{"DATE_CREATION", []string{"DATE_TIME"}, FixedText(14, "20240101000000")},
		{"DATE_UPDATE", []string{"DATE_TIME"}, FixedText(14, "20240102000000")},
		{"PLATFORM_NUMBER", []string{"N_PROF", "STRING8"}, text(8, repeat(s.Platform))},
		{"PROJECT_NAME", []string{"N_PROF", "STRING64"}, text(64, repeat("SYNTHETIC"))},
		{"PI_NAME", []string{"N_PROF", "STRING64"}, text(64, repeat("Ann Author, Bob Builder"))},
		{"DATA_CENTRE", []string{"N_PROF", "STRING2"}, text(2, repeat("XX"))},
		{"PLATFORM_TYPE", []string{"N_PROF", "STRING32"}, text(32, repeat("APEX"))},
		{"FIRMWARE_VERSION", []string{"N_PROF", "STRING32"}, text(32, repeat("1.0"))},
		{"WMO_INST_TYPE", []string{"N_PROF", "STRING4"}, text(4, repeat("846"))},
		{"DATA_STATE_INDICATOR", []string{"N_PROF", "STRING4"}, text(4, repeat("2B"))},
		{"DATA_MODE", prof, text(1, repeat("R"))},
		{"DIRECTION", prof, text(1, repeat("A"))},
		{"JULD_QC", prof, text(1, repeat("1"))},
		{"POSITION_QC", prof, text(1, repeat("1"))},
		{"STATION_PARAMETERS", []string{"N_PROF", "N_PARAM", "STRING16"}, text(16, stations)},
		{"CYCLE_NUMBER", prof, cycles},
		{"CONFIG_MISSION_NUMBER", prof, missions},
		{"JULD", prof, juld},
		{"JULD_LOCATION", prof, juldLoc},
		{"LATITUDE", prof, lat},
		{"LONGITUDE", prof, lon},
	}
	grid := []string{"N_PROF", "N_LEVELS"}
	for _, p := range SyntheticParameters {
		cols = append(cols,
			column{p, grid, levels[p]},
			column{p + "_QC", grid, text(1, qc[p])},
			column{"PROFILE_" + p + "_QC", prof, text(1, repeat("A"))},
		)
	}
	return cols
}
