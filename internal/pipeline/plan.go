package pipeline

import (
	"fmt"
	"path/filepath"
	"strings"

	"zilkit/internal/config"
	"zilkit/internal/encoder"
	"zilkit/internal/sequence"
	"zilkit/internal/util"
)

// Job is one fully planned encoder invocation: the complete argv plus the
// metadata the UI needs to display it. Planning is pure; nothing is executed
// until the job is handed to the runner.
type Job struct {
	ID         string
	Label      string
	Argv       []string
	OutputPath string
	Frames     int // total frame count, sequences only
}

// resolve produces the effective settings for one interactive encode:
// catalog defaults, stored overrides, then explicit CLI flags on top.
func (s *Service) resolve(presetID string) (config.Effective, error) {
	if presetID == "" {
		presetID = s.store.DefaultPreset()
	}
	eff, err := s.store.EffectiveSettings(presetID, false)
	if err != nil {
		return config.Effective{}, err
	}
	s.applyFlags(&eff)
	return eff, nil
}

// applyFlags layers explicit command-line values over the resolved settings.
// Flags the user did not pass keep their zero value and change nothing.
func (s *Service) applyFlags(eff *config.Effective) {
	if s.opts.Resolution != "" {
		eff.Resolution = s.opts.Resolution
	}
	if s.opts.Framerate > 0 {
		eff.Framerate = s.opts.Framerate
	}
	if s.opts.CRF > 0 {
		eff.CRF = s.opts.CRF
	}
}

// planSequence turns a detected frame sequence into a runnable Job.
func (s *Service) planSequence(id string, seq sequence.Sequence, eff config.Effective, customText string) (Job, error) {
	pattern, start, err := sequence.ResolvePattern(seq)
	if err != nil {
		return Job{}, err
	}
	first := seq.First()
	if !util.FileExists(first.Path) {
		return Job{}, fmt.Errorf("first frame missing: %s", first.Path)
	}

	stem := strings.TrimSuffix(filepath.Base(first.Path), filepath.Ext(first.Path))
	base := sequence.DeriveBaseName(stem)
	outPath := filepath.Join(s.outDir(seq.Dir), encoder.OutputName(base, eff.Profile, customText, s.initials()))

	argv, err := encoder.BuildSequenceArgs(s.ffmpegPath, pattern, start, outPath, eff)
	if err != nil {
		return Job{}, err
	}
	return Job{
		ID:         id,
		Label:      seq.Name(),
		Argv:       argv,
		OutputPath: outPath,
		Frames:     seq.Len(),
	}, nil
}

// planMovie turns a movie file into a runnable Job. Movies keep their full
// filename stem as the output base name; only sequences strip frame digits.
func (s *Service) planMovie(id, path string, eff config.Effective, customText string) (Job, error) {
	if !util.FileExists(path) {
		return Job{}, fmt.Errorf("movie missing: %s", path)
	}
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	outPath := filepath.Join(s.outDir(filepath.Dir(path)), encoder.OutputName(base, eff.Profile, customText, s.initials()))

	argv, err := encoder.BuildMovieArgs(s.ffmpegPath, path, outPath, eff)
	if err != nil {
		return Job{}, err
	}
	return Job{
		ID:         id,
		Label:      filepath.Base(path),
		Argv:       argv,
		OutputPath: outPath,
	}, nil
}

// outDir picks the destination directory: the --out-dir flag when given,
// otherwise alongside the source.
func (s *Service) outDir(sourceDir string) string {
	if s.opts.OutDir != "" {
		return s.opts.OutDir
	}
	return sourceDir
}

// initials resolves the filename initials token: explicit flag first, then
// the stored setting.
func (s *Service) initials() string {
	if s.opts.Initials != "" {
		return s.opts.Initials
	}
	return s.store.UserInitials()
}
