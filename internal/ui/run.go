package ui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"zilkit/internal/model"
	"zilkit/internal/progress"
)

// Run launches the TUI and drives fn to completion, returning its summary.
func Run(ctx context.Context, fn RunFunc) (model.Summary, error) {
	m := NewModel(ctx, fn)
	prog := tea.NewProgram(m, tea.WithContext(ctx))
	final, err := prog.Run()
	if err != nil {
		return model.Summary{}, err
	}
	if fm, ok := final.(Model); ok {
		return fm.summary, fm.runErr
	}
	return model.Summary{}, nil
}

type teaReporter struct {
	ch chan tea.Msg
}

func (r teaReporter) Update(u progress.Update) {
	// Block on completion messages to ensure they're delivered.
	if u.Stage == progress.StageCompleted || u.Stage == progress.StageError {
		r.ch <- jobUpdateMsg{U: u}
		return
	}
	select {
	case r.ch <- jobUpdateMsg{U: u}:
	default:
	}
}

func (r teaReporter) Log(l progress.Log) {
	select {
	case r.ch <- jobLogMsg{L: l}:
	default:
	}
}

func (r teaReporter) Result(res progress.Result) {
	// Always block on Result messages, they decide the summary display.
	r.ch <- jobResultMsg{R: res}
}
