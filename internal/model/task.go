package model

import "time"

// DownloadTask is one (participant, data type) fetch-and-store unit.
// Immutable once planned; one task maps to one network fetch and one
// output file.
type DownloadTask struct {
	ParticipantID string
	DataType      DataType
	URL           string
	DestPath      string
}

// TaskStatus is the terminal state of a task.
type TaskStatus int

const (
	// StatusSuccess means the payload was fetched and written.
	StatusSuccess TaskStatus = iota
	// StatusEmpty means the fetch succeeded but the payload was zero bytes.
	StatusEmpty
	// StatusFailed means the task reached a terminal error.
	StatusFailed
	// StatusNotAttempted means the run ended before the task was started.
	StatusNotAttempted
)

// String returns a short stable name for the status.
func (s TaskStatus) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusEmpty:
		return "empty"
	case StatusFailed:
		return "failed"
	case StatusNotAttempted:
		return "not_attempted"
	}
	return "unknown"
}

// TaskOutcome records the terminal result of one task. Produced exactly
// once per planned task.
type TaskOutcome struct {
	Task         DownloadTask
	Status       TaskStatus
	BytesWritten int64
	Attempts     int
	Err          error
}

// RunSummary aggregates every planned task's outcome for one run. Read-only
// once the run completes.
type RunSummary struct {
	Succeeded    int
	Empty        int
	Failed       []TaskOutcome
	NotAttempted int

	// DroppedFilterIDs counts include-mode filter ids that were not present
	// in the study. Informational only.
	DroppedFilterIDs int

	Duration time.Duration
}

// Total returns the number of planned tasks covered by the summary.
func (s *RunSummary) Total() int {
	return s.Succeeded + s.Empty + len(s.Failed) + s.NotAttempted
}

// Summarize folds task outcomes into a RunSummary.
func Summarize(outcomes []TaskOutcome, droppedFilterIDs int, duration time.Duration) *RunSummary {
	s := &RunSummary{
		DroppedFilterIDs: droppedFilterIDs,
		Duration:         duration,
	}
	for _, o := range outcomes {
		switch o.Status {
		case StatusSuccess:
			s.Succeeded++
		case StatusEmpty:
			s.Empty++
		case StatusFailed:
			s.Failed = append(s.Failed, o)
		case StatusNotAttempted:
			s.NotAttempted++
		}
	}
	return s
}
