package ui

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"zilkit/internal/model"
	"zilkit/internal/progress"
	"zilkit/internal/util/format"
)

// RunFunc executes the whole encode run, emitting events to the reporter, and
// returns the aggregated summary. The TUI drives it in the background and
// renders whatever jobs the run announces.
type RunFunc func(ctx context.Context, rep progress.Reporter) (model.Summary, error)

type Model struct {
	ctx    context.Context
	cancel context.CancelFunc
	fn     RunFunc

	jobs     map[string]*jobState
	jobOrder []string

	summary  model.Summary
	runErr   error
	finished bool

	width, height int
	styles        Styles
	spinner       spinner.Model

	// Internal event channel used by the reporter to feed tea messages.
	eventCh chan tea.Msg
}

func NewModel(ctx context.Context, fn RunFunc) Model {
	c, cancel := context.WithCancel(ctx)
	sty := defaultStyles()
	sp := spinner.New()
	sp.Style = sty.Spinner

	return Model{
		ctx:     c,
		cancel:  cancel,
		fn:      fn,
		jobs:    make(map[string]*jobState),
		styles:  sty,
		spinner: sp,
		eventCh: make(chan tea.Msg, 256),
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		m.listenEventsCmd(),
		m.startRunCmd(),
	)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.cancel()
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height

	case spinner.TickMsg:
		var c tea.Cmd
		m.spinner, c = m.spinner.Update(msg)
		return m, c

	case jobUpdateMsg:
		m.applyUpdate(msg.U)
	case jobLogMsg:
		m.applyLog(msg.L)
	case jobResultMsg:
		m.applyResult(msg.R)
	case runDoneMsg:
		m.finished = true
		m.summary = msg.Summary
		m.runErr = msg.Err
		m.drainEvents()
		return m, tea.Quit
	}

	return m, m.listenEventsCmd()
}

func (m Model) View() string {
	summary := m.viewSummary()
	if summary != "" {
		return m.viewHeader() + "\n\n" + m.viewJobs() + "\n" + summary
	}
	return m.viewHeader() + "\n\n" + m.viewJobs()
}

// job returns the state for id, creating it on first sight. Jobs are
// announced implicitly by their first event, in run order.
func (m *Model) job(id string) *jobState {
	if js, ok := m.jobs[id]; ok {
		return js
	}
	js := newJobState(id)
	m.jobs[id] = js
	m.jobOrder = append(m.jobOrder, id)
	return js
}

func (m *Model) applyUpdate(u progress.Update) {
	js := m.job(u.JobID)
	js.stage = u.Stage
	js.status = u.Message
	if u.Percent > 0 {
		js.percent = u.Percent
	}
	if u.Frame > 0 {
		js.frame = u.Frame
	}
	if rest, ok := strings.CutPrefix(u.Message, "Encoding: "); ok {
		js.label = rest
	}
	if u.Stage == progress.StageError {
		js.done = true
	}
}

func (m *Model) applyLog(l progress.Log) {
	js := m.job(l.JobID)
	line := strings.TrimRight(l.Line, "\r\n")
	if len(js.logsRing) > 1000 {
		js.logsRing = js.logsRing[1:]
	}
	js.logsRing = append(js.logsRing, line)
}

func (m *Model) applyResult(r progress.Result) {
	js := m.job(r.JobID)
	js.done = true
	js.err = r.Err
	if r.Err != nil {
		js.stage = progress.StageError
		js.status = r.Err.Error()
		js.percent = -1
		return
	}
	js.stage = progress.StageCompleted
	js.percent = 100
	js.outputPath = r.OutputPath
	js.bytes = r.Bytes
	if r.OutputPath != "" {
		js.status = "Saved: " + filepath.Base(r.OutputPath) + " (" + format.HumanizeBytes(r.Bytes) + ")"
	} else {
		js.status = "Completed"
	}
}

func (m Model) listenEventsCmd() tea.Cmd {
	return func() tea.Msg {
		select {
		case <-m.ctx.Done():
			return nil
		case msg := <-m.eventCh:
			return msg
		}
	}
}

func (m Model) startRunCmd() tea.Cmd {
	return func() tea.Msg {
		rep := teaReporter{ch: m.eventCh}
		sum, err := m.fn(m.ctx, rep)
		return runDoneMsg{Summary: sum, Err: err}
	}
}

// drainEvents applies any events still buffered when the run finishes, so
// the final frame shows every result.
func (m *Model) drainEvents() {
	for {
		select {
		case msg := <-m.eventCh:
			switch msg := msg.(type) {
			case jobUpdateMsg:
				m.applyUpdate(msg.U)
			case jobLogMsg:
				m.applyLog(msg.L)
			case jobResultMsg:
				m.applyResult(msg.R)
			}
		default:
			return
		}
	}
}
