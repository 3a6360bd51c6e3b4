package ui

import (
	bubblesprogress "github.com/charmbracelet/bubbles/progress"

	"zilkit/internal/progress"
)

type jobState struct {
	id     string
	label  string
	stage  progress.Stage
	status string
	err    error
	done   bool

	outputPath string
	bytes      int64
	percent    float64 // -1 means unknown
	frame      int

	bar bubblesprogress.Model

	// Recent non-stats encoder lines (kept small).
	logsRing []string
}

func newJobState(id string) *jobState {
	bar := bubblesprogress.New(
		bubblesprogress.WithDefaultGradient(),
		bubblesprogress.WithWidth(40),
	)
	return &jobState{
		id:      id,
		label:   id,
		stage:   progress.StageQueued,
		status:  "Queued",
		percent: -1,
		bar:     bar,
	}
}
