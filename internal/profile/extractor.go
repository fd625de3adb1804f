package profile

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"strings"

	"github.com/couchcryptid/argo-profile-etl/internal/decode"
	"github.com/couchcryptid/argo-profile-etl/internal/domain"
	lru "github.com/hashicorp/golang-lru/v2"
)

// Dimension and variable names the extractor depends on.
const (
	DimProfiles = "N_PROF"
	DimLevels   = "N_LEVELS"

	// Sentinels substituted for absent numeric fields.
	IntSentinel  = 99999
	JuldSentinel = 999999.0
	PosSentinel  = 99999.0

	// Data mode of parameters that only carry real-time values.
	ModeRealTime = "R"
)

// DefaultRawOnly lists parameters that never have adjusted values.
var DefaultRawOnly = []string{"NB_SAMPLE_CTD"}

// Options configures an Extractor.
type Options struct {
	// Source is the identifier stored in every record's source_file.
	Source string
	// Stem is the file name without extension, used to build profile ids.
	Stem string
	// RawOnly parameters skip the adjusted arrays. Defaults to DefaultRawOnly.
	RawOnly []string
	// AttributeCacheSize bounds the per-variable attribute cache. Defaults to 256.
	AttributeCacheSize int
	Logger             *slog.Logger
}

// Extractor reads per-profile fields from one open file.
type Extractor struct {
	file     domain.FileReader
	decoders *decode.Registry
	opts     Options
	logger   *slog.Logger

	nProf   int
	nLevels int

	globals     globals
	attrs       *lru.Cache[string, varAttrs]
	unsupported map[string]struct{}
}

type globals struct {
	dataType, formatVersion, handbookVersion, referenceDateTime string
	dateCreation, dateUpdate                                    string
}

type varAttrs struct {
	units    string
	longName string
	fill     float64
}

// NewExtractor checks that fr has the N_PROF and N_LEVELS dimensions and reads
// the file-level fields. A missing dimension is a *domain.SourceFormatError.
func NewExtractor(fr domain.FileReader, decoders *decode.Registry, opts Options) (*Extractor, error) {
	if opts.RawOnly == nil {
		opts.RawOnly = DefaultRawOnly
	}
	if opts.AttributeCacheSize <= 0 {
		opts.AttributeCacheSize = 256
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	prof, ok := fr.Dimension(DimProfiles)
	if !ok {
		return nil, &domain.SourceFormatError{Source: opts.Source, Missing: "dimension " + DimProfiles}
	}
	levels, ok := fr.Dimension(DimLevels)
	if !ok {
		return nil, &domain.SourceFormatError{Source: opts.Source, Missing: "dimension " + DimLevels}
	}

	cache, err := lru.New[string, varAttrs](opts.AttributeCacheSize)
	if err != nil {
		return nil, fmt.Errorf("create attribute cache: %w", err)
	}

	e := &Extractor{
		file:     fr,
		decoders: decoders,
		opts:     opts,
		logger:   opts.Logger,
		nProf:    prof.Len,
		nLevels:  levels.Len,
		attrs:    cache,

		unsupported: make(map[string]struct{}),
	}
	if err := e.readGlobals(); err != nil {
		return nil, err
	}
	return e, nil
}

// NumProfiles returns the length of the N_PROF dimension.
func (e *Extractor) NumProfiles() int { return e.nProf }

// Unsupported returns the number of distinct variables skipped so far because
// their storage type has no decoder.
func (e *Extractor) Unsupported() int { return len(e.unsupported) }

// NumLevels returns the length of the N_LEVELS dimension.
func (e *Extractor) NumLevels() int { return e.nLevels }

func (e *Extractor) readGlobals() error {
	fields := []struct {
		name string
		dst  *string
	}{
		{"DATA_TYPE", &e.globals.dataType},
		{"FORMAT_VERSION", &e.globals.formatVersion},
		{"HANDBOOK_VERSION", &e.globals.handbookVersion},
		{"REFERENCE_DATE_TIME", &e.globals.referenceDateTime},
		{"DATE_CREATION", &e.globals.dateCreation},
		{"DATE_UPDATE", &e.globals.dateUpdate},
	}
	for _, f := range fields {
		s, err := e.text(f.name, 0)
		if err != nil {
			return err
		}
		*f.dst = s
	}
	return nil
}

// Profile assembles the record for profile i together with its metadata
// candidate. The record's Metadata id and ProcessedAt are left for the caller.
func (e *Extractor) Profile(i int) (domain.ProfileRecord, domain.MetadataRecord, error) {
	if i < 0 || i >= e.nProf {
		return domain.ProfileRecord{}, domain.MetadataRecord{}, fmt.Errorf("profile index %d out of range [0,%d)", i, e.nProf)
	}

	var (
		rec  = domain.ProfileRecord{ID: domain.ProfileID(e.opts.Stem, i), SourceFile: e.opts.Source}
		meta = domain.MetadataRecord{
			DataType:          e.globals.dataType,
			FormatVersion:     e.globals.formatVersion,
			HandbookVersion:   e.globals.handbookVersion,
			ReferenceDateTime: e.globals.referenceDateTime,
		}
		piName string
	)
	rec.DateCreation = e.globals.dateCreation
	rec.DateUpdate = e.globals.dateUpdate

	textFields := []struct {
		name string
		dst  *string
	}{
		{"PLATFORM_NUMBER", &meta.PlatformNumber},
		{"PROJECT_NAME", &meta.ProjectName},
		{"PI_NAME", &piName},
		{"DATA_CENTRE", &meta.DataCentre},
		{"PLATFORM_TYPE", &meta.PlatformType},
		{"FLOAT_SERIAL_NO", &meta.FloatSerialNo},
		{"FIRMWARE_VERSION", &meta.FirmwareVersion},
		{"WMO_INST_TYPE", &meta.WMOInstType},
		{"POSITIONING_SYSTEM", &meta.PositioningSystem},
		{"DIRECTION", &rec.Direction},
		{"DC_REFERENCE", &rec.DCReference},
		{"DATA_STATE_INDICATOR", &rec.DataStateIndicator},
		{"DATA_MODE", &rec.DataMode},
		{"JULD_QC", &rec.JuldQC},
		{"POSITION_QC", &rec.PositionQC},
		{"VERTICAL_SAMPLING_SCHEME", &rec.VerticalSamplingScheme},
	}
	for _, f := range textFields {
		s, err := e.text(f.name, i)
		if err != nil {
			return rec, meta, err
		}
		*f.dst = s
	}
	meta.PIName = SplitDelimited(piName, ",")

	numFields := []struct {
		name     string
		sentinel float64
		dst      *float64
	}{
		{"JULD", JuldSentinel, &rec.Juld},
		{"JULD_LOCATION", JuldSentinel, &rec.JuldLocation},
	}
	for _, f := range numFields {
		v, err := e.number(f.name, i, f.sentinel)
		if err != nil {
			return rec, meta, err
		}
		*f.dst = v
	}
	cycle, err := e.number("CYCLE_NUMBER", i, IntSentinel)
	if err != nil {
		return rec, meta, err
	}
	rec.CycleNumber = int32(cycle)
	mission, err := e.number("CONFIG_MISSION_NUMBER", i, IntSentinel)
	if err != nil {
		return rec, meta, err
	}
	rec.ConfigMissionNumber = int32(mission)

	lat, err := e.number("LATITUDE", i, PosSentinel)
	if err != nil {
		return rec, meta, err
	}
	lon, err := e.number("LONGITUDE", i, PosSentinel)
	if err != nil {
		return rec, meta, err
	}
	rec.Geolocation = NormalizeGeolocation(lat, lon)

	params, err := e.texts("STATION_PARAMETERS", i)
	if err != nil {
		return rec, meta, err
	}
	modes, err := e.parameterModes(i, params, rec.DataMode)
	if err != nil {
		return rec, meta, err
	}

	raw, err := e.Levels(i, params, modes)
	if err != nil {
		return rec, meta, err
	}
	rec.Data = EnforceConsistency(raw)
	rec.StationParameters = slices.DeleteFunc(slices.Clone(params), func(p string) bool { return p == "" })

	rec.DataInfo, err = e.DataInfo(i, params, modes)
	if err != nil {
		return rec, meta, err
	}
	return rec, meta, nil
}

// parameterModes returns the data mode of each station parameter, falling back
// to the profile DATA_MODE when PARAMETER_DATA_MODE is absent or short.
func (e *Extractor) parameterModes(i int, params []string, profileMode string) ([]string, error) {
	var declared []string
	if _, ok := e.file.Variable("PARAMETER_DATA_MODE"); ok {
		var err error
		declared, err = e.texts("PARAMETER_DATA_MODE", i)
		if err != nil {
			return nil, err
		}
	}
	modes := make([]string, len(params))
	for k := range params {
		modes[k] = profileMode
		if k < len(declared) && declared[k] != "" {
			modes[k] = declared[k]
		}
	}
	return modes, nil
}

// Levels reads the untrimmed per-level arrays of every named parameter for
// profile i. modes[k] is the data mode of params[k]; real-time and raw-only
// parameters skip the adjusted pair. Blank names are ignored.
func (e *Extractor) Levels(i int, params, modes []string) (map[string]RawLevels, error) {
	out := make(map[string]RawLevels, len(params))
	for k, p := range params {
		if p == "" {
			continue
		}
		var (
			lv  RawLevels
			err error
		)
		if lv.Value, err = e.series(p, i); err != nil {
			return nil, err
		}
		if lv.QC, err = e.texts(p+"_QC", i); err != nil {
			return nil, err
		}
		if e.hasAdjusted(p, modeAt(modes, k)) {
			if lv.Adjusted, err = e.series(p+"_ADJUSTED", i); err != nil {
				return nil, err
			}
			if lv.AdjustedQC, err = e.texts(p+"_ADJUSTED_QC", i); err != nil {
				return nil, err
			}
		}
		out[p] = lv
	}
	return out, nil
}

// DataInfo describes each station parameter that has a variable in the file.
func (e *Extractor) DataInfo(i int, params, modes []string) (map[string]domain.ParameterInfo, error) {
	out := make(map[string]domain.ParameterInfo, len(params))
	for k, p := range params {
		if p == "" {
			continue
		}
		v, ok := e.file.Variable(p)
		if !ok {
			continue
		}
		attrs := e.attributes(v)
		qc, err := e.text("PROFILE_"+p+"_QC", i)
		if err != nil {
			return nil, err
		}
		out[p] = domain.ParameterInfo{
			DataMode:  modeAt(modes, k),
			Units:     attrs.units,
			LongName:  attrs.longName,
			ProfileQC: qc,
		}
	}
	return out, nil
}

func (e *Extractor) hasAdjusted(param, mode string) bool {
	return mode != ModeRealTime && !slices.Contains(e.opts.RawOnly, param)
}

func modeAt(modes []string, k int) string {
	if k < len(modes) {
		return modes[k]
	}
	return ""
}

// decodeRow decodes the slice of variable name that belongs to profile i, or the
// whole variable when it is not indexed by N_PROF. ok is false when the variable
// is absent or of an unsupported type.
func (e *Extractor) decodeRow(name string, i int) (val domain.Value, ok bool, err error) {
	v, found := e.file.Variable(name)
	if !found {
		return nil, false, nil
	}
	dims := v.Dimensions()
	region := domain.All
	if len(dims) > 0 && dims[0].Name == DimProfiles {
		region = domain.Row(i, dims)
	}
	val, err = e.decoders.Decode(v, region)
	var unsupported *decode.UnsupportedTypeError
	if errors.As(err, &unsupported) {
		if _, seen := e.unsupported[name]; seen {
			return nil, false, nil
		}
		e.unsupported[name] = struct{}{}
		e.logger.Warn("unsupported variable type, using sentinel", "variable", name, "type", v.Type().String())
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return val, true, nil
}

// text reads a text field. Per-character arrays are joined; absent variables
// yield "".
func (e *Extractor) text(name string, i int) (string, error) {
	val, ok, err := e.decodeRow(name, i)
	if err != nil || !ok {
		return "", err
	}
	var b strings.Builder
	for _, leaf := range decode.Flatten(val) {
		switch x := leaf.(type) {
		case string:
			b.WriteString(x)
		case nil:
		default:
			fmt.Fprint(&b, x)
		}
	}
	return strings.TrimSpace(b.String()), nil
}

// texts reads a list of strings (or single-character flags).
func (e *Extractor) texts(name string, i int) ([]string, error) {
	val, ok, err := e.decodeRow(name, i)
	if err != nil || !ok {
		return nil, err
	}
	leaves := decode.Flatten(val)
	out := make([]string, len(leaves))
	for k, leaf := range leaves {
		if s, isText := leaf.(string); isText {
			out[k] = s
		}
	}
	return out, nil
}

// number reads the first numeric element of a field, or sentinel when absent.
func (e *Extractor) number(name string, i int, sentinel float64) (float64, error) {
	val, ok, err := e.decodeRow(name, i)
	if err != nil || !ok {
		return sentinel, err
	}
	leaves := decode.Flatten(val)
	if len(leaves) == 0 {
		return sentinel, nil
	}
	f, isNum := domain.ToFloat(leaves[0])
	if !isNum || math.IsNaN(f) || math.IsInf(f, 0) {
		return sentinel, nil
	}
	return f, nil
}

// series reads a per-level numeric array with its fill value. Absent variables
// yield an empty series.
func (e *Extractor) series(name string, i int) (Series, error) {
	v, found := e.file.Variable(name)
	if !found {
		return Series{Fill: DefaultFill}, nil
	}
	val, ok, err := e.decodeRow(name, i)
	if err != nil || !ok {
		return Series{Fill: DefaultFill}, err
	}
	fill := e.attributes(v).fill
	leaves := decode.Flatten(val)
	values := make([]float64, len(leaves))
	for k, leaf := range leaves {
		f, isNum := domain.ToFloat(leaf)
		if !isNum {
			f = fill
		}
		values[k] = f
	}
	return Series{Values: values, Fill: fill}, nil
}

// attributes returns the cached units, long_name and _FillValue of v.
func (e *Extractor) attributes(v domain.Variable) varAttrs {
	if a, ok := e.attrs.Get(v.Name()); ok {
		return a
	}
	a := varAttrs{fill: DefaultFill}
	if raw, ok := v.Attribute("units"); ok {
		a.units = attrText(raw)
	}
	if raw, ok := v.Attribute("long_name"); ok {
		a.longName = attrText(raw)
	}
	if raw, ok := v.Attribute("_FillValue"); ok {
		if f, isNum := attrFloat(raw); isNum {
			a.fill = f
		}
	}
	e.attrs.Add(v.Name(), a)
	return a
}

func attrText(raw any) string {
	switch x := raw.(type) {
	case string:
		return strings.TrimSpace(strings.Trim(x, "\x00"))
	case []byte:
		return strings.TrimSpace(strings.Trim(string(x), "\x00"))
	default:
		return ""
	}
}

// attrFloat reads a numeric attribute, which may be a scalar or a one-element slice.
func attrFloat(raw any) (float64, bool) {
	switch x := raw.(type) {
	case []int8:
		return first(x)
	case []int16:
		return first(x)
	case []int32:
		return first(x)
	case []float32:
		return first(x)
	case []float64:
		return first(x)
	default:
		return domain.ToFloat(raw)
	}
}

func first[T int8 | int16 | int32 | float32 | float64](xs []T) (float64, bool) {
	if len(xs) == 0 {
		return 0, false
	}
	return float64(xs[0]), true
}
