// Package progress defines the event types encode jobs emit and the Reporter
// interface observers implement.
package progress

// Stage identifies a high-level step in the pipeline.
type Stage string

const (
	StageQueued    Stage = "queued"
	StageScanning  Stage = "scanning"
	StageEncoding  Stage = "encoding"
	StageCompleted Stage = "completed"
	StageError     Stage = "error"
)

// LogStream indicates which stream produced a log line.
type LogStream int

const (
	StreamStdout LogStream = iota
	StreamStderr
)

// Update conveys progress or stage changes for a job. Percent is 0..100 when
// known; a negative value means unknown. ffmpeg stats lines do not carry a
// frame total, so encodes without one report the raw stats line in Message.
type Update struct {
	JobID   string
	Stage   Stage
	Percent float64 // 0..100, or <0 if unknown
	Frame   int     // last reported frame, 0 if unknown
	Message string  // short human-friendly status line
}

// Log is a structured log line associated with a job.
type Log struct {
	JobID  string
	Stream LogStream
	Line   string
}

// Result is emitted once per job when it completes or fails.
type Result struct {
	JobID      string
	OutputPath string
	Bytes      int64
	Err        error // nil on success
}

// Reporter is implemented by the UI or any observer interested in progress
// events.
type Reporter interface {
	Update(u Update)
	Log(l Log)
	Result(r Result)
}
