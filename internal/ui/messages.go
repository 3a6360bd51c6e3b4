package ui

import (
	"zilkit/internal/model"
	"zilkit/internal/progress"
)

type jobUpdateMsg struct {
	U progress.Update
}

type jobLogMsg struct {
	L progress.Log
}

type jobResultMsg struct {
	R progress.Result
}

// runDoneMsg is emitted once when the whole run finishes.
type runDoneMsg struct {
	Summary model.Summary
	Err     error
}
