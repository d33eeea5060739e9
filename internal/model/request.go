package model

import (
	"time"

	"github.com/m-mizutani/goerr/v2"
)

// FilterMode selects how the participant id list of a filter is applied.
type FilterMode int

const (
	// FilterExclude removes the listed ids from the participant universe.
	// An empty list means the entire universe.
	FilterExclude FilterMode = iota

	// FilterInclude keeps only the listed ids. An empty list means no
	// participants.
	FilterInclude
)

// String returns "exclude" or "include".
func (m FilterMode) String() string {
	if m == FilterInclude {
		return "include"
	}
	return "exclude"
}

// ParticipantFilter narrows the participant universe of a study.
type ParticipantFilter struct {
	Mode FilterMode
	IDs  []string

	// Strict makes include-mode ids that are absent from the study a hard
	// error instead of silently dropping them.
	Strict bool
}

// StudyRequest describes one download run. It is built once from caller
// input and only read afterwards.
type StudyRequest struct {
	StudyID    string
	Token      string
	DataTypes  []DataType
	Filter     ParticipantFilter
	OutputRoot string

	// CleanZeroByte removes zero-length result files after the run.
	CleanZeroByte bool

	// Archive bundles the completed study tree into a zip file.
	Archive bool

	// StartDate and EndDate bound the requested data range when non-zero.
	StartDate time.Time
	EndDate   time.Time
}

// Validate rejects contradictory or incomplete requests before any network
// call is made.
func (r *StudyRequest) Validate() error {
	if r.StudyID == "" {
		return goerr.New("study id is required")
	}
	if r.Token == "" {
		return goerr.New("authorization token is required")
	}
	if len(r.DataTypes) == 0 {
		return goerr.New("at least one data type must be selected")
	}
	if r.OutputRoot == "" {
		return goerr.New("output root directory is required")
	}
	if !r.StartDate.IsZero() && !r.EndDate.IsZero() && r.EndDate.Before(r.StartDate) {
		return goerr.New("end date is before start date",
			goerr.V("start", r.StartDate), goerr.V("end", r.EndDate))
	}
	return nil
}
