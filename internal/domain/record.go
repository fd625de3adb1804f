package domain

import (
	"fmt"
	"slices"
	"time"
)

// GeoPoint is a GeoJSON point. Coordinates are [longitude, latitude].
type GeoPoint struct {
	Type        string     `json:"type" bson:"type"`
	Coordinates [2]float64 `json:"coordinates" bson:"coordinates"`
}

// NewPoint builds a GeoJSON point from a latitude/longitude pair.
func NewPoint(lat, lon float64) GeoPoint {
	return GeoPoint{Type: "Point", Coordinates: [2]float64{lon, lat}}
}

// Lat returns the latitude of p.
func (p GeoPoint) Lat() float64 { return p.Coordinates[1] }

// Lon returns the longitude of p.
func (p GeoPoint) Lon() float64 { return p.Coordinates[0] }

// LevelArrays holds the parallel per-level arrays of one parameter. After
// consistency enforcement every non-nil array in a profile has the same length.
type LevelArrays struct {
	Value      []float64 `json:"value,omitempty" bson:"value,omitempty"`
	Adjusted   []float64 `json:"adjusted,omitempty" bson:"adjusted,omitempty"`
	QC         []string  `json:"qc,omitempty" bson:"qc,omitempty"`
	AdjustedQC []string  `json:"adjusted_qc,omitempty" bson:"adjusted_qc,omitempty"`
}

// Empty reports whether none of the arrays retained any level.
func (l LevelArrays) Empty() bool {
	return len(l.Value) == 0 && len(l.Adjusted) == 0 && len(l.QC) == 0 && len(l.AdjustedQC) == 0
}

// ParameterInfo describes one station parameter of a profile.
type ParameterInfo struct {
	DataMode  string `json:"DATA_MODE" bson:"DATA_MODE"`
	Units     string `json:"UNITS" bson:"UNITS"`
	LongName  string `json:"LONG_NAME" bson:"LONG_NAME"`
	ProfileQC string `json:"PROFILE_PARAMETER_QC" bson:"PROFILE_PARAMETER_QC"`
}

// ProfileRecord is one assembled profile, ready for the persistence sink.
type ProfileRecord struct {
	ID          string   `json:"_id" bson:"_id"`
	Geolocation GeoPoint `json:"geolocation" bson:"geolocation"`
	Metadata    string   `json:"metadata" bson:"metadata"`
	SourceFile  string   `json:"source_file" bson:"source_file"`

	CycleNumber            int32    `json:"CYCLE_NUMBER" bson:"CYCLE_NUMBER"`
	Direction              string   `json:"DIRECTION" bson:"DIRECTION"`
	DataStateIndicator     string   `json:"DATA_STATE_INDICATOR" bson:"DATA_STATE_INDICATOR"`
	DataMode               string   `json:"DATA_MODE" bson:"DATA_MODE"`
	DateCreation           string   `json:"DATE_CREATION" bson:"DATE_CREATION"`
	DateUpdate             string   `json:"DATE_UPDATE" bson:"DATE_UPDATE"`
	DCReference            string   `json:"DC_REFERENCE" bson:"DC_REFERENCE"`
	Juld                   float64  `json:"JULD" bson:"JULD"`
	JuldQC                 string   `json:"JULD_QC" bson:"JULD_QC"`
	JuldLocation           float64  `json:"JULD_LOCATION" bson:"JULD_LOCATION"`
	PositionQC             string   `json:"POSITION_QC" bson:"POSITION_QC"`
	VerticalSamplingScheme string   `json:"VERTICAL_SAMPLING_SCHEME" bson:"VERTICAL_SAMPLING_SCHEME"`
	ConfigMissionNumber    int32    `json:"CONFIG_MISSION_NUMBER" bson:"CONFIG_MISSION_NUMBER"`
	StationParameters      []string `json:"STATION_PARAMETERS" bson:"STATION_PARAMETERS"`

	Data     map[string]LevelArrays   `json:"data" bson:"data"`
	DataInfo map[string]ParameterInfo `json:"data_info" bson:"data_info"`

	ProcessedAt time.Time `json:"processed_at" bson:"processed_at"`
}

// ProfileID builds the record id for profile index i of the file with the given stem.
func ProfileID(fileStem string, i int) string {
	return fmt.Sprintf("%s_%d", fileStem, i)
}

// MetadataRecord holds the descriptive, rarely changing attributes of a float.
type MetadataRecord struct {
	ID string `json:"_id" bson:"_id"`

	DataType          string   `json:"DATA_TYPE" bson:"DATA_TYPE"`
	FormatVersion     string   `json:"FORMAT_VERSION" bson:"FORMAT_VERSION"`
	HandbookVersion   string   `json:"HANDBOOK_VERSION" bson:"HANDBOOK_VERSION"`
	ReferenceDateTime string   `json:"REFERENCE_DATE_TIME" bson:"REFERENCE_DATE_TIME"`
	ProjectName       string   `json:"PROJECT_NAME" bson:"PROJECT_NAME"`
	PIName            []string `json:"PI_NAME" bson:"PI_NAME"`
	DataCentre        string   `json:"DATA_CENTRE" bson:"DATA_CENTRE"`
	PlatformType      string   `json:"PLATFORM_TYPE" bson:"PLATFORM_TYPE"`
	PlatformNumber    string   `json:"PLATFORM_NUMBER" bson:"PLATFORM_NUMBER"`
	FloatSerialNo     string   `json:"FLOAT_SERIAL_NO" bson:"FLOAT_SERIAL_NO"`
	FirmwareVersion   string   `json:"FIRMWARE_VERSION" bson:"FIRMWARE_VERSION"`
	WMOInstType       string   `json:"WMO_INST_TYPE" bson:"WMO_INST_TYPE"`
	PositioningSystem string   `json:"POSITIONING_SYSTEM" bson:"POSITIONING_SYSTEM"`
}

// SameDescription reports whether m and o carry identical descriptive fields.
// The id is not compared.
func (m MetadataRecord) SameDescription(o MetadataRecord) bool {
	return m.DataType == o.DataType &&
		m.FormatVersion == o.FormatVersion &&
		m.HandbookVersion == o.HandbookVersion &&
		m.ReferenceDateTime == o.ReferenceDateTime &&
		m.ProjectName == o.ProjectName &&
		slices.Equal(m.PIName, o.PIName) &&
		m.DataCentre == o.DataCentre &&
		m.PlatformType == o.PlatformType &&
		m.PlatformNumber == o.PlatformNumber &&
		m.FloatSerialNo == o.FloatSerialNo &&
		m.FirmwareVersion == o.FirmwareVersion &&
		m.WMOInstType == o.WMOInstType &&
		m.PositioningSystem == o.PositioningSystem
}

// SourceFormatError reports that a file lacks a dimension or variable the
// pipeline cannot do without. It aborts processing of the whole file.
type SourceFormatError struct {
	Source  string
	Missing string
}

func (e *SourceFormatError) Error() string {
	return fmt.Sprintf("source %s: required %s not found", e.Source, e.Missing)
}
