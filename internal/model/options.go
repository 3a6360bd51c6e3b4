// Package model holds the shared value types passed between the CLI, the
// pipeline, and the UI.
package model

// CLIOptions holds user-configurable runtime options as parsed from flags.
type CLIOptions struct {
	OutDir     string // Output directory; empty = alongside the source.
	PresetID   string // Preset id; empty = store default.
	CustomText string // Optional filename text; periods are stripped.
	Initials   string // Optional user initials for output names.
	Resolution string // Explicit resolution override: full|half|quarter|scale.
	Framerate  int    // Explicit framerate override; 0 = effective default.
	CRF        int    // Explicit H.264 quality override; 0 = effective default.
	Recursive  bool   // Scan subdirectories too.
	DryRun     bool   // Print planned commands without executing.
	Verbose    bool   // Stream full encoder output.

	NoUI bool // Disable TUI when true.
}

// ItemFailure records one failed item for the end-of-batch summary.
type ItemFailure struct {
	Label   string
	Message string
}

// Summary aggregates per-item outcomes of a batch. A single item's failure
// never aborts the rest of the batch; everything is collected here instead.
type Summary struct {
	Succeeded int
	Failed    int
	Failures  []ItemFailure
}

// Add merges one item outcome into the summary.
func (s *Summary) Add(label string, err error) {
	if err == nil {
		s.Succeeded++
		return
	}
	s.Failed++
	s.Failures = append(s.Failures, ItemFailure{Label: label, Message: err.Error()})
}
