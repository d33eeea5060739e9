package download

import (
	"path/filepath"

	"github.com/methodic-labs/chronicle-bulk-downloader/internal/chronicle"
	ioutils "github.com/methodic-labs/chronicle-bulk-downloader/internal/io"
	"github.com/methodic-labs/chronicle-bulk-downloader/internal/model"
)

// Plan expands a request and the resolved participant set into the ordered
// task collection: exactly one task per (participant, data type) pair,
// participant-major, data-type-minor. Duplicate data types in the request
// are collapsed, so destination paths are unique and re-running the same
// request overwrites rather than duplicates. Execution order is not
// guaranteed to follow planning order; only file placement is
// deterministic.
func Plan(req *model.StudyRequest, participants []string, baseURL string) []model.DownloadTask {
	dataTypes := make([]model.DataType, 0, len(req.DataTypes))
	seen := make(map[model.DataType]bool, len(req.DataTypes))
	for _, dt := range req.DataTypes {
		if !seen[dt] {
			seen[dt] = true
			dataTypes = append(dataTypes, dt)
		}
	}

	tasks := make([]model.DownloadTask, 0, len(participants)*len(dataTypes))
	for _, pid := range participants {
		for _, dt := range dataTypes {
			tasks = append(tasks, model.DownloadTask{
				ParticipantID: pid,
				DataType:      dt,
				URL: chronicle.DataURL(baseURL, req.StudyID, pid, dt,
					req.StartDate, req.EndDate),
				DestPath: filepath.Join(req.OutputRoot, req.StudyID, dt.Slug(),
					ioutils.SanitizeFileName(pid)+dt.Extension()),
			})
		}
	}
	return tasks
}
