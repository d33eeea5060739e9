package download

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"golang.org/x/sync/errgroup"

	"github.com/methodic-labs/chronicle-bulk-downloader/internal/chronicle"
	"github.com/methodic-labs/chronicle-bulk-downloader/internal/config"
	"github.com/methodic-labs/chronicle-bulk-downloader/internal/filter"
	ioutils "github.com/methodic-labs/chronicle-bulk-downloader/internal/io"
	"github.com/methodic-labs/chronicle-bulk-downloader/internal/model"
	"github.com/methodic-labs/chronicle-bulk-downloader/internal/ratelimit"
)

// ProgressLevel indicates the severity/type of a progress message.
type ProgressLevel int

const (
	LevelInfo ProgressLevel = iota
	LevelVerbose
	LevelWarning
	LevelError
	LevelSuccess
)

// ProgressEvent represents a download progress update.
type ProgressEvent struct {
	Message string
	Level   ProgressLevel
}

// Manager coordinates one bulk-download run: participant lookup, filter
// resolution, task planning, and rate-limited concurrent fetching.
type Manager struct {
	settings   *config.Settings
	onProgress func(ProgressEvent)

	totalTasks     int32
	completedTasks int32
	receivedBytes  int64

	mu    sync.Mutex
	fatal error
}

// NewManager creates a new download Manager.
func NewManager(settings *config.Settings, onProgress func(ProgressEvent)) *Manager {
	return &Manager{
		settings:   settings,
		onProgress: onProgress,
	}
}

// GetProgress returns current run progress.
func (m *Manager) GetProgress() (completed, total int32, receivedBytes int64) {
	return atomic.LoadInt32(&m.completedTasks), atomic.LoadInt32(&m.totalTasks),
		atomic.LoadInt64(&m.receivedBytes)
}

// Run executes a study request end to end and returns the run summary.
// Every planned task is accounted for in the summary even when the run is
// aborted: an authorization rejection cancels all remaining work, marks
// undispatched tasks not-attempted, and is returned as the run error
// alongside the summary. Caller cancellation likewise surfaces as a
// cancelled-tagged run error with the partial summary; a nil error always
// means the run drained every planned task.
func (m *Manager) Run(ctx context.Context, req *model.StudyRequest) (*model.RunSummary, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if err := m.settings.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()

	client := chronicle.NewClient(chronicle.Options{
		BaseURL: m.settings.BaseURL,
		Token:   req.Token,
		Timeout: m.settings.RequestTimeout(),
		Retry:   m.settings.RetryPolicy(),
	})

	m.progress(ProgressEvent{Message: fmt.Sprintf("Fetching participant list for study %s", req.StudyID), Level: LevelInfo})

	universe, err := client.ListParticipants(ctx, req.StudyID)
	if err != nil {
		return nil, goerr.Wrap(err, "list participants", goerr.V("study", req.StudyID))
	}
	slog.Debug("participant universe fetched",
		"study", req.StudyID, "participants", len(universe))

	pf := req.Filter
	if m.settings.StrictInclude {
		pf.Strict = true
	}
	resolved, err := filter.Resolve(universe, pf)
	if err != nil {
		return nil, err
	}
	if resolved.Dropped > 0 {
		m.progress(ProgressEvent{Message: fmt.Sprintf("%d filter id(s) not present in study, skipped", resolved.Dropped), Level: LevelWarning})
	}
	if len(resolved.Participants) == 0 {
		return nil, goerr.New("filter leaves no participants to download",
			goerr.V("study", req.StudyID), goerr.V("universe", len(universe)),
			goerr.T(model.TagInvalidFilter))
	}

	tasks := Plan(req, resolved.Participants, client.BaseURL())
	atomic.StoreInt32(&m.totalTasks, int32(len(tasks)))
	atomic.StoreInt32(&m.completedTasks, 0)
	atomic.StoreInt64(&m.receivedBytes, 0)

	m.progress(ProgressEvent{Message: fmt.Sprintf("Planned %d downloads (%d participants)", len(tasks), len(resolved.Participants)), Level: LevelInfo})

	limiter := ratelimit.New(m.settings.RatePerSecond, m.settings.RateBurst, m.settings.MaxInFlight)

	runCtx, cancelRun := context.WithCancel(ctx)
	defer cancelRun()

	outcomes := make([]model.TaskOutcome, len(tasks))

	g := &errgroup.Group{}
	g.SetLimit(m.settings.MaxConcurrentDownloads)

	for i, task := range tasks {
		if runCtx.Err() != nil {
			outcomes[i] = model.TaskOutcome{Task: task, Status: model.StatusNotAttempted}
			atomic.AddInt32(&m.completedTasks, 1)
			continue
		}
		g.Go(func() error {
			outcome := m.runTask(runCtx, client, limiter, task, cancelRun)
			outcomes[i] = outcome
			atomic.AddInt32(&m.completedTasks, 1)
			slog.Debug("task finished",
				"participant", task.ParticipantID,
				"data_type", task.DataType.Slug(),
				"status", outcome.Status.String(),
				"attempts", outcome.Attempts,
				"bytes", outcome.BytesWritten)
			return nil
		})
	}
	g.Wait()

	summary := model.Summarize(outcomes, resolved.Dropped, time.Since(start))

	if req.CleanZeroByte {
		studyRoot := filepath.Join(req.OutputRoot, req.StudyID)
		removed, err := ioutils.CleanZeroByteFiles(studyRoot)
		if err != nil {
			m.progress(ProgressEvent{Message: fmt.Sprintf("Zero-byte cleanup failed: %v", err), Level: LevelWarning})
		} else if len(removed) > 0 {
			m.progress(ProgressEvent{Message: fmt.Sprintf("Removed %d empty file(s)", len(removed)), Level: LevelVerbose})
		}
	}

	m.mu.Lock()
	fatal := m.fatal
	m.mu.Unlock()

	if fatal == nil && ctx.Err() != nil {
		fatal = goerr.Wrap(ctx.Err(), "run cancelled",
			goerr.V("study", req.StudyID), goerr.T(model.TagCancelled))
		m.progress(ProgressEvent{Message: "Run cancelled", Level: LevelWarning})
	}

	if fatal == nil && req.Archive {
		archivePath, err := ioutils.ArchiveStudy(req.OutputRoot, req.StudyID)
		if err != nil {
			m.progress(ProgressEvent{Message: fmt.Sprintf("Archive failed: %v", err), Level: LevelWarning})
		} else {
			m.progress(ProgressEvent{Message: fmt.Sprintf("Archived study to %s", archivePath), Level: LevelSuccess})
		}
	}

	slog.Info("run finished",
		"study", req.StudyID,
		"succeeded", summary.Succeeded,
		"empty", summary.Empty,
		"failed", len(summary.Failed),
		"not_attempted", summary.NotAttempted,
		"duration", summary.Duration)

	if fatal != nil {
		return summary, fatal
	}
	return summary, nil
}

// runTask drives one task to a terminal outcome. Failures never propagate
// as errors; only an authorization rejection aborts the run, via cancelRun.
func (m *Manager) runTask(ctx context.Context, client *chronicle.Client, limiter *ratelimit.Limiter, task model.DownloadTask, cancelRun context.CancelFunc) model.TaskOutcome {
	outcome := model.TaskOutcome{Task: task}

	if ctx.Err() != nil {
		outcome.Status = model.StatusNotAttempted
		return outcome
	}

	if err := limiter.Acquire(ctx); err != nil {
		outcome.Status = model.StatusNotAttempted
		return outcome
	}
	data, attempts, err := client.Fetch(ctx, task.URL)
	limiter.Release()

	outcome.Attempts = attempts
	if err != nil {
		outcome.Status = model.StatusFailed
		outcome.Err = err
		if goerr.HasTag(err, model.TagCancelled) {
			// Aborted while the request was in flight. Stays a failed
			// outcome with the cancelled tag; only tasks that never
			// started are recorded not-attempted.
			return outcome
		}
		m.progress(ProgressEvent{Message: fmt.Sprintf("Failed %s/%s: %s", task.ParticipantID, task.DataType, model.ErrorKind(err)), Level: LevelError})
		if goerr.HasTag(err, model.TagAuth) {
			m.abort(err)
			cancelRun()
		}
		return outcome
	}

	if err := ioutils.WriteFileAtomic(task.DestPath, data); err != nil {
		outcome.Status = model.StatusFailed
		outcome.Err = err
		m.progress(ProgressEvent{Message: fmt.Sprintf("Write failed for %s: %v", filepath.Base(task.DestPath), err), Level: LevelError})
		return outcome
	}

	atomic.AddInt64(&m.receivedBytes, int64(len(data)))
	outcome.BytesWritten = int64(len(data))

	if len(data) == 0 {
		outcome.Status = model.StatusEmpty
		m.progress(ProgressEvent{Message: fmt.Sprintf("No data for %s/%s", task.ParticipantID, task.DataType), Level: LevelVerbose})
		return outcome
	}

	outcome.Status = model.StatusSuccess
	m.progress(ProgressEvent{Message: fmt.Sprintf("Downloaded %s (%d bytes)", filepath.Base(task.DestPath), len(data)), Level: LevelVerbose})
	return outcome
}

// abort records the first fatal error of the run.
func (m *Manager) abort(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fatal == nil {
		m.fatal = err
		m.progress(ProgressEvent{Message: "Authorization rejected, aborting run", Level: LevelError})
	}
}

func (m *Manager) progress(event ProgressEvent) {
	if m.onProgress != nil {
		m.onProgress(event)
	}
}
