// Package pipeline orchestrates the scan -> resolve -> encode workflow for
// frame sequences and movie files.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"zilkit/internal/config"
	"zilkit/internal/encoder"
	"zilkit/internal/model"
	"zilkit/internal/progress"
	"zilkit/internal/sequence"
	"zilkit/internal/util"
	"zilkit/internal/util/format"
)

// Service orchestrates scanning, settings resolution, and sequential
// encoding. Items run strictly one at a time; a failed item is recorded and
// the run continues.
type Service struct {
	ffmpegPath string
	store      *config.Store
	opts       model.CLIOptions
	runner     encoder.Runner
	reporter   progress.Reporter
}

// Option configures a Service.
type Option func(*Service)

// WithFFmpegPath sets the ffmpeg binary path.
func WithFFmpegPath(p string) Option {
	return func(s *Service) { s.ffmpegPath = p }
}

// WithStore attaches the configuration store used for settings resolution.
func WithStore(st *config.Store) Option {
	return func(s *Service) { s.store = st }
}

// WithCLIOptions sets the CLI options used for planning and execution.
func WithCLIOptions(o model.CLIOptions) Option {
	return func(s *Service) { s.opts = o }
}

// WithRunner injects a custom encoder runner (useful for testing).
func WithRunner(r encoder.Runner) Option {
	return func(s *Service) { s.runner = r }
}

// WithReporter attaches a progress reporter (used by TUI and plain output).
func WithReporter(rp progress.Reporter) Option {
	return func(s *Service) { s.reporter = rp }
}

// NewService constructs a new Service with the provided options.
// It applies sensible defaults for missing components.
func NewService(opts ...Option) *Service {
	s := &Service{}
	for _, o := range opts {
		o(s)
	}
	if s.runner == nil {
		s.runner = encoder.NewRunner()
	}
	return s
}

// Sequences returns the frame sequences under root, in the root itself and,
// with the recursive option, every subdirectory.
func (s *Service) Sequences(root string) ([]sequence.Sequence, error) {
	dirs, err := s.scanDirs(root)
	if err != nil {
		return nil, err
	}
	var out []sequence.Sequence
	for _, d := range dirs {
		out = append(out, sequence.Scan(d)...)
	}
	return out, nil
}

// Movies returns the movie files under root, honoring the recursive option.
func (s *Service) Movies(root string) ([]string, error) {
	dirs, err := s.scanDirs(root)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, d := range dirs {
		out = append(out, sequence.FindMovies(d)...)
	}
	sort.Strings(out)
	return out, nil
}

func (s *Service) scanDirs(root string) ([]string, error) {
	fi, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("scan root: %w", err)
	}
	if !fi.IsDir() {
		return nil, fmt.Errorf("scan root is not a directory: %s", root)
	}
	if !s.opts.Recursive {
		return []string{root}, nil
	}
	return util.WalkDirectories(root)
}

// RunSequences converts every detected sequence under root.
func (s *Service) RunSequences(ctx context.Context, root string) (model.Summary, error) {
	var sum model.Summary
	if err := s.checkEncoder(); err != nil {
		return sum, err
	}
	seqs, err := s.Sequences(root)
	if err != nil {
		return sum, err
	}
	for i, seq := range seqs {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		id := fmt.Sprintf("seq-%d", i+1)
		eff, err := s.resolve(s.opts.PresetID)
		if err != nil {
			sum.Add(seq.Name(), err)
			s.emitFailed(id, seq.Name(), err)
			continue
		}
		job, err := s.planSequence(id, seq, eff, s.opts.CustomText)
		if err != nil {
			sum.Add(seq.Name(), err)
			s.emitFailed(id, seq.Name(), err)
			continue
		}
		sum.Add(job.Label, s.execute(ctx, job))
	}
	return sum, nil
}

// RunMovies re-encodes every movie file under root.
func (s *Service) RunMovies(ctx context.Context, root string) (model.Summary, error) {
	var sum model.Summary
	if err := s.checkEncoder(); err != nil {
		return sum, err
	}
	movies, err := s.Movies(root)
	if err != nil {
		return sum, err
	}
	for i, path := range movies {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		id := fmt.Sprintf("mov-%d", i+1)
		label := filepath.Base(path)
		eff, err := s.resolve(s.opts.PresetID)
		if err != nil {
			sum.Add(label, err)
			s.emitFailed(id, label, err)
			continue
		}
		job, err := s.planMovie(id, path, eff, s.opts.CustomText)
		if err != nil {
			sum.Add(label, err)
			s.emitFailed(id, label, err)
			continue
		}
		sum.Add(job.Label, s.execute(ctx, job))
	}
	return sum, nil
}

// RunBatch produces the configured multi-output conversions for every
// sequence and movie under root. Per-conversion settings are authoritative:
// global overrides and CLI setting flags do not apply here.
func (s *Service) RunBatch(ctx context.Context, root string) (model.Summary, error) {
	var sum model.Summary
	if err := s.checkEncoder(); err != nil {
		return sum, err
	}
	mo, ok := s.store.MultiOutput()
	if !ok || len(mo.Conversions) == 0 {
		return sum, fmt.Errorf("no multi-output conversions configured")
	}

	seqs, err := s.Sequences(root)
	if err != nil {
		return sum, err
	}
	movies, err := s.Movies(root)
	if err != nil {
		return sum, err
	}

	n := 0
	for _, seq := range seqs {
		for _, conv := range mo.Conversions {
			if err := ctx.Err(); err != nil {
				return sum, err
			}
			n++
			id := fmt.Sprintf("batch-%d", n)
			label := seq.Name() + " -> " + conv.Preset
			eff, err := s.resolveConversion(conv)
			if err != nil {
				sum.Add(label, err)
				s.emitFailed(id, label, err)
				continue
			}
			job, err := s.planSequence(id, seq, eff, conv.FilenameSuffix)
			if err != nil {
				sum.Add(label, err)
				s.emitFailed(id, label, err)
				continue
			}
			sum.Add(label, s.execute(ctx, job))
		}
	}
	for _, path := range movies {
		for _, conv := range mo.Conversions {
			if err := ctx.Err(); err != nil {
				return sum, err
			}
			n++
			id := fmt.Sprintf("batch-%d", n)
			label := filepath.Base(path) + " -> " + conv.Preset
			eff, err := s.resolveConversion(conv)
			if err != nil {
				sum.Add(label, err)
				s.emitFailed(id, label, err)
				continue
			}
			job, err := s.planMovie(id, path, eff, conv.FilenameSuffix)
			if err != nil {
				sum.Add(label, err)
				s.emitFailed(id, label, err)
				continue
			}
			sum.Add(label, s.execute(ctx, job))
		}
	}
	return sum, nil
}

// resolveConversion resolves settings for one batch conversion. Global
// overrides are suppressed; the conversion's own values win instead.
func (s *Service) resolveConversion(conv config.Conversion) (config.Effective, error) {
	eff, err := s.store.EffectiveSettings(conv.Preset, true)
	if err != nil {
		return config.Effective{}, err
	}
	if conv.Resolution != "" {
		eff.Resolution = conv.Resolution
	}
	if conv.Framerate > 0 {
		eff.Framerate = conv.Framerate
	}
	return eff, nil
}

func (s *Service) checkEncoder() error {
	if s.opts.DryRun {
		return nil
	}
	if s.ffmpegPath == "" {
		return fmt.Errorf("ffmpeg path is required")
	}
	return nil
}

// execute runs one planned job, or just reports it when dry-run is set.
func (s *Service) execute(ctx context.Context, job Job) error {
	if s.opts.DryRun {
		s.emitPlanned(job)
		return nil
	}

	if err := util.EnsureDir(filepath.Dir(job.OutputPath)); err != nil {
		s.emitFailed(job.ID, job.Label, err)
		return err
	}

	s.emitUpdate(progress.Update{
		JobID:   job.ID,
		Stage:   progress.StageEncoding,
		Message: "Encoding: " + job.Label,
	})

	res := s.runner.Run(ctx, job.Argv, encoder.RunOptions{
		ProgressLine: func(line string) { s.emitProgress(job, line) },
		OutputLine: func(line string) {
			if s.reporter != nil && s.opts.Verbose {
				s.reporter.Log(progress.Log{JobID: job.ID, Stream: progress.StreamStderr, Line: line})
			}
		},
	})
	if !res.Success {
		err := fmt.Errorf("%s", res.Message)
		s.emitFailed(job.ID, job.Label, err)
		return err
	}

	var bytes int64
	if fi, err := os.Stat(job.OutputPath); err == nil {
		bytes = fi.Size()
	}
	s.emitSaved(job, bytes)
	return nil
}

// emitProgress translates a live encoder stats line into a percent update
// when the total frame count is known.
func (s *Service) emitProgress(job Job, line string) {
	if s.reporter == nil {
		return
	}
	u := progress.Update{
		JobID:   job.ID,
		Stage:   progress.StageEncoding,
		Message: strings.TrimSpace(line),
	}
	if frame, ok := encoder.ParseFrame(line); ok {
		u.Frame = frame
		if job.Frames > 0 {
			u.Percent = float64(frame) / float64(job.Frames) * 100
			if u.Percent > 100 {
				u.Percent = 100
			}
		}
	}
	s.reporter.Update(u)
}

func (s *Service) emitUpdate(u progress.Update) {
	if s.reporter != nil {
		s.reporter.Update(u)
	}
}

// emitPlanned sends a final "planned" update and result for dry-run display.
func (s *Service) emitPlanned(job Job) {
	if s.reporter == nil {
		return
	}
	s.reporter.Log(progress.Log{
		JobID:  job.ID,
		Stream: progress.StreamStdout,
		Line:   strings.Join(job.Argv, " "),
	})
	s.reporter.Update(progress.Update{
		JobID:   job.ID,
		Stage:   progress.StageCompleted,
		Percent: 100,
		Message: fmt.Sprintf("Planned: %s (dry-run)", filepath.Base(job.OutputPath)),
	})
	s.reporter.Result(progress.Result{JobID: job.ID, OutputPath: job.OutputPath})
}

// emitSaved sends a final "saved" update and result.
func (s *Service) emitSaved(job Job, bytes int64) {
	if s.reporter == nil {
		return
	}
	s.reporter.Update(progress.Update{
		JobID:   job.ID,
		Stage:   progress.StageCompleted,
		Percent: 100,
		Message: fmt.Sprintf("Saved: %s (%s)", filepath.Base(job.OutputPath), format.HumanizeBytes(bytes)),
	})
	s.reporter.Result(progress.Result{JobID: job.ID, OutputPath: job.OutputPath, Bytes: bytes})
}

func (s *Service) emitFailed(jobID, label string, err error) {
	if s.reporter == nil {
		return
	}
	s.reporter.Update(progress.Update{
		JobID:   jobID,
		Stage:   progress.StageError,
		Message: fmt.Sprintf("Failed: %s: %v", label, err),
	})
	s.reporter.Result(progress.Result{JobID: jobID, Err: err})
}
