package model

import (
	"errors"
	"testing"
	"time"

	"github.com/m-mizutani/goerr/v2"
)

func TestParseDataType(t *testing.T) {
	tests := []struct {
		input   string
		want    DataType
		wantErr bool
	}{
		{"raw", DataTypeRaw, false},
		{"UsageEvents", DataTypeRaw, false},
		{"usageevents", DataTypeRaw, false},
		{"preprocessed", DataTypePreprocessed, false},
		{"survey", DataTypeSurvey, false},
		{"AppUsageSurvey", DataTypeSurvey, false},
		{"ios-sensor", DataTypeIOSSensor, false},
		{"IOSSensor", DataTypeIOSSensor, false},
		{"tud-daytime", DataTypeTUDDaytime, false},
		{"DayTime", DataTypeTUDDaytime, false},
		{"tud-nighttime", DataTypeTUDNighttime, false},
		{"tud-summarized", DataTypeTUDSummarized, false},
		{"bogus", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseDataType(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseDataType(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err == nil && got != tt.want {
				t.Errorf("ParseDataType(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestDataType_Extension(t *testing.T) {
	for _, d := range AllDataTypes() {
		ext := d.Extension()
		if d.TimeUseDiary() && ext != ".json" {
			t.Errorf("%v.Extension() = %q, want .json", d, ext)
		}
		if !d.TimeUseDiary() && ext != ".csv" {
			t.Errorf("%v.Extension() = %q, want .csv", d, ext)
		}
	}
}

func TestDataType_SlugsUnique(t *testing.T) {
	seen := make(map[string]bool)
	for _, d := range AllDataTypes() {
		if seen[d.Slug()] {
			t.Errorf("duplicate slug %q", d.Slug())
		}
		seen[d.Slug()] = true
	}
}

func TestStudyRequest_Validate(t *testing.T) {
	valid := StudyRequest{
		StudyID:    "study-1",
		Token:      "tok",
		DataTypes:  []DataType{DataTypeRaw},
		OutputRoot: "/tmp/out",
	}

	tests := []struct {
		name    string
		mutate  func(*StudyRequest)
		wantErr bool
	}{
		{"valid", func(r *StudyRequest) {}, false},
		{"missing study id", func(r *StudyRequest) { r.StudyID = "" }, true},
		{"missing token", func(r *StudyRequest) { r.Token = "" }, true},
		{"no data types", func(r *StudyRequest) { r.DataTypes = nil }, true},
		{"missing output root", func(r *StudyRequest) { r.OutputRoot = "" }, true},
		{"inverted date range", func(r *StudyRequest) {
			r.StartDate = time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
			r.EndDate = time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
		}, true},
		{"valid date range", func(r *StudyRequest) {
			r.StartDate = time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
			r.EndDate = time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid
			tt.mutate(&req)
			if err := req.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestErrorKind(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"auth", goerr.New("denied", goerr.T(TagAuth)), "auth"},
		{"not found", goerr.New("missing", goerr.T(TagNotFound)), "not_found"},
		{"exhausted wraps transient", goerr.Wrap(
			goerr.New("boom", goerr.T(TagTransient)),
			"gave up", goerr.T(TagExhausted)), "retry_exhausted"},
		{"plain error", errors.New("plain"), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ErrorKind(tt.err); got != tt.want {
				t.Errorf("ErrorKind() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSummarize(t *testing.T) {
	outcomes := []TaskOutcome{
		{Status: StatusSuccess, BytesWritten: 10},
		{Status: StatusSuccess, BytesWritten: 20},
		{Status: StatusEmpty},
		{Status: StatusFailed, Err: goerr.New("nope", goerr.T(TagNotFound))},
		{Status: StatusNotAttempted},
	}

	s := Summarize(outcomes, 2, 3*time.Second)

	if s.Succeeded != 2 || s.Empty != 1 || len(s.Failed) != 1 || s.NotAttempted != 1 {
		t.Errorf("unexpected counts: %+v", s)
	}
	if s.Total() != len(outcomes) {
		t.Errorf("Total() = %d, want %d", s.Total(), len(outcomes))
	}
	if s.DroppedFilterIDs != 2 {
		t.Errorf("DroppedFilterIDs = %d, want 2", s.DroppedFilterIDs)
	}
}
