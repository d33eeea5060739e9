// Package tui provides a Bubble Tea terminal user interface for
// chronicle-dl.
package tui

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/methodic-labs/chronicle-bulk-downloader/internal/config"
	"github.com/methodic-labs/chronicle-bulk-downloader/internal/download"
	"github.com/methodic-labs/chronicle-bulk-downloader/internal/filter"
	"github.com/methodic-labs/chronicle-bulk-downloader/internal/model"
)

// Styles for the TUI
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF6B6B")).
			MarginBottom(1)

	subtitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#4ECDC4"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#95E1A3"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFE66D"))

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#A8DADC"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6C757D"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#4ECDC4")).
			Padding(1, 2)

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F8B500"))
)

// State represents the current UI state.
type State int

const (
	StateInput State = iota
	StateRunning
	StateComplete
	StateError
)

// Focusable input fields on the request form.
const (
	fieldStudyID = iota
	fieldToken
	fieldParticipants
	fieldOutput
	fieldCount
)

// LogEntry represents a log message in the UI.
type LogEntry struct {
	Message string
	Level   download.ProgressLevel
}

// eventLog collects progress callbacks from worker goroutines so the
// Update loop can drain them on its own schedule.
type eventLog struct {
	mu      sync.Mutex
	entries []LogEntry
}

func (l *eventLog) append(e download.ProgressEvent) {
	l.mu.Lock()
	l.entries = append(l.entries, LogEntry{Message: e.Message, Level: e.Level})
	l.mu.Unlock()
}

func (l *eventLog) drain() []LogEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := l.entries
	l.entries = nil
	return out
}

// Model is the Bubble Tea model for the TUI.
type Model struct {
	state    State
	inputs   []textinput.Model
	focused  int
	spinner  spinner.Model
	progress progress.Model
	settings *config.Settings
	logs     []LogEntry
	err      error

	// Request options
	dataTypes map[model.DataType]bool
	include   bool
	cleanZero bool
	archive   bool
	verbose   bool

	// Run state
	ctx     context.Context
	cancel  context.CancelFunc
	manager *download.Manager
	events  *eventLog
	summary *model.RunSummary

	completedTasks int32
	totalTasks     int32
	receivedBytes  int64

	width  int
	height int
}

// NewModel creates a new TUI model pre-filled from the stored settings.
func NewModel(settings *config.Settings) Model {
	inputs := make([]textinput.Model, fieldCount)

	study := textinput.New()
	study.Placeholder = "study id"
	study.CharLimit = 128
	study.Width = 50
	study.SetValue(settings.StudyID)
	study.Focus()
	inputs[fieldStudyID] = study

	token := textinput.New()
	token.Placeholder = "authorization token"
	token.CharLimit = 4096
	token.Width = 50
	token.EchoMode = textinput.EchoPassword
	inputs[fieldToken] = token

	parts := textinput.New()
	parts.Placeholder = "participant ids, comma separated (optional)"
	parts.CharLimit = 4096
	parts.Width = 50
	parts.SetValue(settings.ParticipantIDs)
	inputs[fieldParticipants] = parts

	output := textinput.New()
	output.Placeholder = "output directory"
	output.CharLimit = 512
	output.Width = 50
	output.SetValue(settings.DownloadsPath)
	inputs[fieldOutput] = output

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))

	prog := progress.New(progress.WithDefaultGradient())
	prog.Width = 50

	types := make(map[model.DataType]bool)
	for _, name := range settings.DataTypes {
		if dt, err := model.ParseDataType(name); err == nil {
			types[dt] = true
		}
	}
	if len(types) == 0 {
		types[model.DataTypeRaw] = true
	}

	ctx, cancel := context.WithCancel(context.Background())

	return Model{
		state:     StateInput,
		inputs:    inputs,
		spinner:   sp,
		progress:  prog,
		settings:  settings,
		dataTypes: types,
		include:   settings.InclusiveFilter,
		cleanZero: settings.CleanZeroByte,
		archive:   settings.Archive,
		events:    &eventLog{},
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick)
}

// Message types
type (
	// RunDoneMsg is sent when the download run completes.
	RunDoneMsg struct {
		Summary *model.RunSummary
		Err     error
	}

	// TickMsg is for periodic progress updates.
	TickMsg struct{}
)

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.progress.Width = msg.Width - 20
		if m.progress.Width > 80 {
			m.progress.Width = 80
		}
		if m.progress.Width < 20 {
			m.progress.Width = 20
		}
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.cancel()
			return m, tea.Quit

		case "esc":
			if m.state == StateInput {
				return m, tea.Quit
			}
			if m.state == StateRunning {
				m.cancel()
			}

		case "tab", "shift+tab", "up", "down":
			if m.state == StateInput {
				if msg.String() == "shift+tab" || msg.String() == "up" {
					m.focused--
				} else {
					m.focused++
				}
				m.focused = (m.focused + fieldCount) % fieldCount
				for i := range m.inputs {
					if i == m.focused {
						m.inputs[i].Focus()
					} else {
						m.inputs[i].Blur()
					}
				}
				return m, nil
			}

		case "enter":
			if m.state == StateInput {
				req, err := m.buildRequest()
				if err != nil {
					m.err = err
					return m, nil
				}
				m.err = nil
				m.state = StateRunning
				m.persistLastUsed()
				return m, tea.Batch(m.startRun(req), m.tickProgress(), m.spinner.Tick)
			}

		// Function keys so that digits still type into the focused field;
		// study ids are UUIDs.
		case "f1", "f2", "f3", "f4", "f5", "f6", "f7":
			if m.state == StateInput {
				idx := int(msg.String()[1] - '1')
				all := model.AllDataTypes()
				if idx < len(all) {
					m.dataTypes[all[idx]] = !m.dataTypes[all[idx]]
				}
				return m, nil
			}

		case "ctrl+f":
			if m.state == StateInput {
				m.include = !m.include
			}

		case "ctrl+z":
			if m.state == StateInput {
				m.cleanZero = !m.cleanZero
			}

		case "ctrl+a":
			if m.state == StateInput {
				m.archive = !m.archive
			}

		case "ctrl+v":
			m.verbose = !m.verbose

		case "q":
			if m.state == StateComplete || m.state == StateError {
				return m, tea.Quit
			}

		case "r":
			if m.state == StateComplete || m.state == StateError {
				m.state = StateInput
				m.logs = nil
				m.err = nil
				m.summary = nil
				m.manager = nil
				m.completedTasks = 0
				m.totalTasks = 0
				m.receivedBytes = 0
				m.events = &eventLog{}
				m.ctx, m.cancel = context.WithCancel(context.Background())
			}
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case RunDoneMsg:
		m.summary = msg.Summary
		m.appendLogs(m.events.drain())
		if m.manager != nil {
			m.completedTasks, m.totalTasks, m.receivedBytes = m.manager.GetProgress()
		}
		if msg.Err != nil {
			m.state = StateError
			m.err = msg.Err
		} else {
			m.state = StateComplete
		}

	case TickMsg:
		if m.state == StateRunning && m.manager != nil {
			m.completedTasks, m.totalTasks, m.receivedBytes = m.manager.GetProgress()
			m.appendLogs(m.events.drain())

			var percent float64
			if m.totalTasks > 0 {
				percent = float64(m.completedTasks) / float64(m.totalTasks)
			}
			cmds = append(cmds, m.progress.SetPercent(percent), m.tickProgress())
		}

	case progress.FrameMsg:
		progressModel, cmd := m.progress.Update(msg)
		m.progress = progressModel.(progress.Model)
		cmds = append(cmds, cmd)
	}

	// Update the focused text input
	if m.state == StateInput {
		var cmd tea.Cmd
		m.inputs[m.focused], cmd = m.inputs[m.focused].Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m *Model) appendLogs(entries []LogEntry) {
	for _, e := range entries {
		if e.Level == download.LevelVerbose && !m.verbose {
			continue
		}
		m.logs = append(m.logs, e)
	}
	// Keep only last 10 logs
	if len(m.logs) > 10 {
		m.logs = m.logs[len(m.logs)-10:]
	}
}

// buildRequest assembles a StudyRequest from the form.
func (m *Model) buildRequest() (*model.StudyRequest, error) {
	var types []model.DataType
	for _, dt := range model.AllDataTypes() {
		if m.dataTypes[dt] {
			types = append(types, dt)
		}
	}

	mode := model.FilterExclude
	if m.include {
		mode = model.FilterInclude
	}

	req := &model.StudyRequest{
		StudyID:   strings.TrimSpace(m.inputs[fieldStudyID].Value()),
		Token:     strings.TrimSpace(m.inputs[fieldToken].Value()),
		DataTypes: types,
		Filter: model.ParticipantFilter{
			Mode: mode,
			IDs:  filter.ParseIDList(m.inputs[fieldParticipants].Value()),
		},
		OutputRoot:    strings.TrimSpace(m.inputs[fieldOutput].Value()),
		CleanZeroByte: m.cleanZero,
		Archive:       m.archive,
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return req, nil
}

// persistLastUsed saves the request shape back to the settings file so the
// next session starts from it. Best effort.
func (m *Model) persistLastUsed() {
	m.settings.StudyID = m.inputs[fieldStudyID].Value()
	m.settings.ParticipantIDs = m.inputs[fieldParticipants].Value()
	m.settings.DownloadsPath = m.inputs[fieldOutput].Value()
	m.settings.InclusiveFilter = m.include
	m.settings.CleanZeroByte = m.cleanZero
	m.settings.Archive = m.archive

	var names []string
	for _, dt := range model.AllDataTypes() {
		if m.dataTypes[dt] {
			names = append(names, dt.Slug())
		}
	}
	m.settings.DataTypes = names

	if path, err := config.DefaultPath(); err == nil {
		_ = m.settings.Save(path)
	}
}

// startRun runs the download in the background.
func (m *Model) startRun(req *model.StudyRequest) tea.Cmd {
	events := m.events
	m.manager = download.NewManager(m.settings, events.append)
	manager := m.manager
	ctx := m.ctx

	return func() tea.Msg {
		summary, err := manager.Run(ctx, req)
		return RunDoneMsg{Summary: summary, Err: err}
	}
}

// tickProgress returns a command to tick progress updates.
func (m Model) tickProgress() tea.Cmd {
	return tea.Tick(200*time.Millisecond, func(_ time.Time) tea.Msg {
		return TickMsg{}
	})
}

// View renders the UI.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Chronicle Bulk Downloader"))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("Download study data from Chronicle"))
	b.WriteString("\n\n")

	switch m.state {
	case StateInput:
		b.WriteString(m.viewInput())
	case StateRunning:
		b.WriteString(m.viewRunning())
	case StateComplete:
		b.WriteString(m.viewComplete())
	case StateError:
		b.WriteString(m.viewError())
	}

	b.WriteString("\n")
	b.WriteString(dimStyle.Render(m.getHelpText()))

	return b.String()
}

func (m Model) viewInput() string {
	var b strings.Builder

	labels := [fieldCount]string{"Study ID:", "Token:", "Participants:", "Output:"}
	for i, input := range m.inputs {
		label := labels[i]
		if i == m.focused {
			b.WriteString(selectedStyle.Render(label))
		} else {
			b.WriteString(subtitleStyle.Render(label))
		}
		b.WriteString("\n")
		b.WriteString(input.View())
		b.WriteString("\n")
	}
	b.WriteString("\n")

	b.WriteString(infoStyle.Render("Data types (toggle with F1-F7):"))
	b.WriteString("\n")
	for i, dt := range model.AllDataTypes() {
		check := "[ ]"
		if m.dataTypes[dt] {
			check = "[x]"
		}
		b.WriteString(fmt.Sprintf("  %s F%d %s\n", check, i+1, dt))
	}
	b.WriteString("\n")

	mode := "exclude listed"
	if m.include {
		mode = "include only listed"
	}
	b.WriteString(infoStyle.Render("Options:"))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("  Participant filter: %s (ctrl+f)\n", mode))
	b.WriteString(fmt.Sprintf("  %s Remove empty result files (ctrl+z)\n", checkbox(m.cleanZero)))
	b.WriteString(fmt.Sprintf("  %s Archive study to zip (ctrl+a)\n", checkbox(m.archive)))

	if m.err != nil {
		b.WriteString("\n")
		b.WriteString(errorStyle.Render("  " + m.err.Error()))
		b.WriteString("\n")
	}

	return b.String()
}

func checkbox(on bool) string {
	if on {
		return "[x]"
	}
	return "[ ]"
}

func (m Model) viewRunning() string {
	var b strings.Builder

	b.WriteString(m.spinner.View())
	b.WriteString(" ")
	b.WriteString(subtitleStyle.Render("Downloading..."))
	b.WriteString("\n\n")

	var percent float64
	if m.totalTasks > 0 {
		percent = float64(m.completedTasks) / float64(m.totalTasks)
	}
	b.WriteString(m.progress.ViewAs(percent))
	b.WriteString("\n")

	b.WriteString(infoStyle.Render(fmt.Sprintf(
		"Files: %d/%d | Downloaded: %.2f MB",
		m.completedTasks,
		m.totalTasks,
		float64(m.receivedBytes)/1024/1024,
	)))
	b.WriteString("\n\n")

	b.WriteString(m.renderLogs())

	return b.String()
}

func (m Model) viewComplete() string {
	var b strings.Builder

	s := m.summary
	if s == nil {
		s = &model.RunSummary{}
	}

	box := boxStyle.Render(fmt.Sprintf(
		"Download Complete\n\n"+
			"Succeeded: %d\n"+
			"Empty:     %d\n"+
			"Failed:    %d\n"+
			"Size:      %.2f MB\n"+
			"Duration:  %s",
		s.Succeeded,
		s.Empty,
		len(s.Failed),
		float64(m.receivedBytes)/1024/1024,
		s.Duration.Round(time.Second),
	))
	b.WriteString(box)

	if len(s.Failed) > 0 {
		b.WriteString("\n\n")
		b.WriteString(warningStyle.Render("Failed downloads:"))
		b.WriteString("\n")
		for _, o := range s.Failed {
			b.WriteString(fmt.Sprintf("  %s / %s: %s\n",
				o.Task.ParticipantID, o.Task.DataType, model.ErrorKind(o.Err)))
		}
	}

	return b.String()
}

func (m Model) viewError() string {
	var b strings.Builder

	b.WriteString(errorStyle.Render("Run failed:"))
	b.WriteString("\n\n")
	if m.err != nil {
		b.WriteString(fmt.Sprintf("  %s", m.err.Error()))
	}
	if m.summary != nil && m.summary.Total() > 0 {
		b.WriteString("\n\n")
		b.WriteString(dimStyle.Render(fmt.Sprintf(
			"  %d succeeded, %d failed, %d not attempted before abort",
			m.summary.Succeeded, len(m.summary.Failed), m.summary.NotAttempted)))
	}

	return b.String()
}

func (m Model) renderLogs() string {
	var b strings.Builder

	for _, log := range m.logs {
		var style lipgloss.Style
		prefix := "-"
		switch log.Level {
		case download.LevelError:
			style = errorStyle
			prefix = "x"
		case download.LevelWarning:
			style = warningStyle
			prefix = "!"
		case download.LevelSuccess:
			style = successStyle
			prefix = "+"
		case download.LevelInfo:
			style = infoStyle
			prefix = ">"
		default:
			style = dimStyle
		}
		b.WriteString(style.Render(prefix + " " + log.Message))
		b.WriteString("\n")
	}

	return b.String()
}

func (m Model) getHelpText() string {
	switch m.state {
	case StateInput:
		return "enter: start | tab: next field | F1-F7: data types | ctrl+f/z/a: options | esc: quit"
	case StateRunning:
		return "esc: cancel"
	case StateComplete, StateError:
		return "r: new run | q: quit"
	}
	return ""
}

// Run starts the TUI application.
func Run() error {
	path, err := config.DefaultPath()
	if err != nil {
		return err
	}
	settings, err := config.Load(path)
	if err != nil {
		return err
	}

	p := tea.NewProgram(NewModel(settings), tea.WithAltScreen())
	_, err = p.Run()
	return err
}
