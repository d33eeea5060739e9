package model

import (
	"strings"

	"github.com/m-mizutani/goerr/v2"
)

// DataType identifies one of the Chronicle data categories available for
// download.
type DataType int

const (
	// DataTypeRaw is raw Android usage events.
	DataTypeRaw DataType = iota
	// DataTypePreprocessed is server-side preprocessed usage data.
	DataTypePreprocessed
	// DataTypeSurvey is app usage survey responses.
	DataTypeSurvey
	// DataTypeIOSSensor is iOS sensor data.
	DataTypeIOSSensor
	// DataTypeTUDDaytime is daytime time-use-diary entries.
	DataTypeTUDDaytime
	// DataTypeTUDNighttime is nighttime time-use-diary entries.
	DataTypeTUDNighttime
	// DataTypeTUDSummarized is summarized time-use-diary entries.
	DataTypeTUDSummarized
)

// AllDataTypes returns every data type in stable declaration order.
func AllDataTypes() []DataType {
	return []DataType{
		DataTypeRaw,
		DataTypePreprocessed,
		DataTypeSurvey,
		DataTypeIOSSensor,
		DataTypeTUDDaytime,
		DataTypeTUDNighttime,
		DataTypeTUDSummarized,
	}
}

// APIValue returns the dataType query parameter value the Chronicle API
// expects for d.
func (d DataType) APIValue() string {
	switch d {
	case DataTypeRaw:
		return "UsageEvents"
	case DataTypePreprocessed:
		return "Preprocessed"
	case DataTypeSurvey:
		return "AppUsageSurvey"
	case DataTypeIOSSensor:
		return "IOSSensor"
	case DataTypeTUDDaytime:
		return "DayTime"
	case DataTypeTUDNighttime:
		return "NightTime"
	case DataTypeTUDSummarized:
		return "Summarized"
	}
	return "Unknown"
}

// Slug returns the short name used on the command line and as the
// per-data-type directory in the output tree.
func (d DataType) Slug() string {
	switch d {
	case DataTypeRaw:
		return "raw"
	case DataTypePreprocessed:
		return "preprocessed"
	case DataTypeSurvey:
		return "survey"
	case DataTypeIOSSensor:
		return "ios-sensor"
	case DataTypeTUDDaytime:
		return "tud-daytime"
	case DataTypeTUDNighttime:
		return "tud-nighttime"
	case DataTypeTUDSummarized:
		return "tud-summarized"
	}
	return "unknown"
}

// String returns the slug.
func (d DataType) String() string {
	return d.Slug()
}

// TimeUseDiary reports whether d is served by the time-use-diary endpoint
// rather than the study data endpoint.
func (d DataType) TimeUseDiary() bool {
	switch d {
	case DataTypeTUDDaytime, DataTypeTUDNighttime, DataTypeTUDSummarized:
		return true
	}
	return false
}

// Extension returns the output file extension for d, including the dot.
// Study data endpoints serve CSV; time-use-diary endpoints serve JSON.
func (d DataType) Extension() string {
	if d.TimeUseDiary() {
		return ".json"
	}
	return ".csv"
}

// ParseDataType resolves a slug or API value to a DataType. Matching is
// case-insensitive.
func ParseDataType(s string) (DataType, error) {
	for _, d := range AllDataTypes() {
		if strings.EqualFold(s, d.Slug()) || strings.EqualFold(s, d.APIValue()) {
			return d, nil
		}
	}
	return 0, goerr.New("unknown data type", goerr.V("value", s))
}
