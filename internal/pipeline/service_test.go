package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"zilkit/internal/config"
	"zilkit/internal/encoder"
	"zilkit/internal/model"
	"zilkit/internal/progress"
)

type recordingReporter struct {
	updates []progress.Update
	results []progress.Result
	logs    []progress.Log
}

func (r *recordingReporter) Update(u progress.Update) { r.updates = append(r.updates, u) }
func (r *recordingReporter) Log(l progress.Log)       { r.logs = append(r.logs, l) }
func (r *recordingReporter) Result(res progress.Result) {
	r.results = append(r.results, res)
}

// fakeRunner records every argv and fabricates the output file on success.
type fakeRunner struct {
	argvs [][]string
	fail  bool
}

func (f *fakeRunner) Run(_ context.Context, argv []string, opts encoder.RunOptions) encoder.Result {
	f.argvs = append(f.argvs, argv)
	if opts.ProgressLine != nil {
		opts.ProgressLine("frame=  2 fps=30 speed=1.0x")
	}
	if f.fail {
		return encoder.Result{Success: false, Message: "encoder failed (exit 1): boom", Code: 1}
	}
	out := argv[len(argv)-1]
	if err := os.WriteFile(out, []byte("video"), 0o644); err != nil {
		return encoder.Result{Success: false, Message: err.Error(), Code: -1}
	}
	return encoder.Result{Success: true, Message: "encode completed"}
}

func writeFrames(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, n := range names {
		if err := os.WriteFile(filepath.Join(dir, n), []byte("img"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func newTestStore(t *testing.T) *config.Store {
	t.Helper()
	return config.NewStore(filepath.Join(t.TempDir(), "config.json"))
}

func newTestService(store *config.Store, runner encoder.Runner, rep progress.Reporter, opts model.CLIOptions) *Service {
	return NewService(
		WithFFmpegPath("/bin/ffmpeg"),
		WithStore(store),
		WithCLIOptions(opts),
		WithRunner(runner),
		WithReporter(rep),
	)
}

func TestRunSequences_EncodesDetectedSequence(t *testing.T) {
	dir := t.TempDir()
	writeFrames(t, dir, "render_0001.png", "render_0002.png", "render_0003.png")

	store := newTestStore(t)
	if err := store.SetUserInitials("AB"); err != nil {
		t.Fatal(err)
	}
	fr := &fakeRunner{}
	rep := &recordingReporter{}
	s := newTestService(store, fr, rep, model.CLIOptions{PresetID: "h264-mp4"})

	sum, err := s.RunSequences(context.Background(), dir)
	if err != nil {
		t.Fatalf("RunSequences: %v", err)
	}
	if sum.Succeeded != 1 || sum.Failed != 0 {
		t.Fatalf("summary = %+v", sum)
	}
	if len(fr.argvs) != 1 {
		t.Fatalf("runner invocations = %d, want 1", len(fr.argvs))
	}

	argv := fr.argvs[0]
	joined := strings.Join(argv, " ")
	if argv[0] != "/bin/ffmpeg" {
		t.Errorf("argv[0] = %q", argv[0])
	}
	if !strings.Contains(joined, "-start_number 1") {
		t.Errorf("argv missing start number: %v", argv)
	}
	if !strings.Contains(joined, filepath.Join(dir, "render_%04d.png")) {
		t.Errorf("argv missing input pattern: %v", argv)
	}
	wantOut := filepath.Join(dir, "render_h264_AB.mp4")
	if argv[len(argv)-1] != wantOut {
		t.Errorf("output = %q, want %q", argv[len(argv)-1], wantOut)
	}

	last := rep.updates[len(rep.updates)-1]
	if last.Stage != progress.StageCompleted || !strings.Contains(last.Message, "Saved:") {
		t.Errorf("final update = %+v", last)
	}
	if len(rep.results) != 1 || rep.results[0].Err != nil {
		t.Errorf("results = %+v", rep.results)
	}
}

func TestRunSequences_FlagOverridesWin(t *testing.T) {
	dir := t.TempDir()
	writeFrames(t, dir, "a_001.png", "a_002.png")

	store := newTestStore(t)
	crf := 20
	if err := store.SetGlobalOverrides(config.Overrides{CRF: &crf}); err != nil {
		t.Fatal(err)
	}
	fr := &fakeRunner{}
	s := newTestService(store, fr, nil, model.CLIOptions{
		PresetID:   "h264-mp4",
		CRF:        26,
		Resolution: "half",
		Framerate:  24,
	})

	if _, err := s.RunSequences(context.Background(), dir); err != nil {
		t.Fatalf("RunSequences: %v", err)
	}
	joined := strings.Join(fr.argvs[0], " ")
	if !strings.Contains(joined, "-crf 26") {
		t.Errorf("explicit --crf must beat the global override: %v", joined)
	}
	if !strings.Contains(joined, "scale=iw*0.5:ih*0.5") {
		t.Errorf("explicit --resolution half not applied: %v", joined)
	}
	if !strings.Contains(joined, "-framerate 24") {
		t.Errorf("explicit --framerate not applied: %v", joined)
	}
}

func TestRunSequences_OutDirAndCustomText(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(t.TempDir(), "out")
	writeFrames(t, dir, "clip_001.png", "clip_002.png")

	fr := &fakeRunner{}
	s := newTestService(newTestStore(t), fr, nil, model.CLIOptions{
		OutDir:     out,
		CustomText: "finalcut",
		Initials:   "AB",
	})

	sum, err := s.RunSequences(context.Background(), dir)
	if err != nil {
		t.Fatalf("RunSequences: %v", err)
	}
	if sum.Failed != 0 {
		t.Fatalf("summary = %+v", sum)
	}
	wantOut := filepath.Join(out, "clip_h264_finalcut_AB.mp4")
	if got := fr.argvs[0][len(fr.argvs[0])-1]; got != wantOut {
		t.Errorf("output = %q, want %q", got, wantOut)
	}
	if _, err := os.Stat(wantOut); err != nil {
		t.Errorf("output file missing: %v", err)
	}
}

func TestRunMovies(t *testing.T) {
	dir := t.TempDir()
	writeFrames(t, dir, "take.mov")

	fr := &fakeRunner{}
	s := newTestService(newTestStore(t), fr, nil, model.CLIOptions{})

	sum, err := s.RunMovies(context.Background(), dir)
	if err != nil {
		t.Fatalf("RunMovies: %v", err)
	}
	if sum.Succeeded != 1 {
		t.Fatalf("summary = %+v", sum)
	}
	joined := strings.Join(fr.argvs[0], " ")
	if !strings.Contains(joined, "-i "+filepath.Join(dir, "take.mov")) {
		t.Errorf("argv missing input: %v", joined)
	}
	if !strings.Contains(joined, "-c:a copy") {
		t.Errorf("movie argv must copy audio: %v", joined)
	}
	// Movies keep the whole stem; no digit stripping applies.
	wantOut := filepath.Join(dir, "take_h264.mp4")
	if got := fr.argvs[0][len(fr.argvs[0])-1]; got != wantOut {
		t.Errorf("output = %q, want %q", got, wantOut)
	}
}

func TestRun_DryRunPlansWithoutExecuting(t *testing.T) {
	dir := t.TempDir()
	writeFrames(t, dir, "render_0001.png", "render_0002.png")

	fr := &fakeRunner{}
	rep := &recordingReporter{}
	s := newTestService(newTestStore(t), fr, rep, model.CLIOptions{DryRun: true})

	sum, err := s.RunSequences(context.Background(), dir)
	if err != nil {
		t.Fatalf("RunSequences: %v", err)
	}
	if sum.Succeeded != 1 || len(fr.argvs) != 0 {
		t.Fatalf("dry run must not execute: sum=%+v argvs=%d", sum, len(fr.argvs))
	}
	if len(rep.logs) != 1 || !strings.Contains(rep.logs[0].Line, "render_%04d.png") {
		t.Errorf("dry run should log the planned argv: %+v", rep.logs)
	}
	last := rep.updates[len(rep.updates)-1]
	if !strings.Contains(last.Message, "Planned:") {
		t.Errorf("final update = %+v", last)
	}
}

func TestRunSequences_FailureContinues(t *testing.T) {
	dir := t.TempDir()
	writeFrames(t, dir, "a_001.png", "a_002.png", "b_001.png", "b_002.png")

	fr := &fakeRunner{fail: true}
	rep := &recordingReporter{}
	s := newTestService(newTestStore(t), fr, rep, model.CLIOptions{})

	sum, err := s.RunSequences(context.Background(), dir)
	if err != nil {
		t.Fatalf("RunSequences: %v", err)
	}
	if sum.Failed != 2 || sum.Succeeded != 0 {
		t.Fatalf("summary = %+v", sum)
	}
	if len(fr.argvs) != 2 {
		t.Errorf("a failed item must not stop the run: invocations = %d", len(fr.argvs))
	}
	for _, f := range sum.Failures {
		if !strings.Contains(f.Message, "exit 1") {
			t.Errorf("failure message = %q", f.Message)
		}
	}
}

func TestRunSequences_MissingFFmpeg(t *testing.T) {
	s := NewService(WithStore(newTestStore(t)), WithRunner(&fakeRunner{}))
	if _, err := s.RunSequences(context.Background(), t.TempDir()); err == nil || !strings.Contains(err.Error(), "ffmpeg path is required") {
		t.Errorf("err = %v, want ffmpeg path error", err)
	}
}

func TestRunSequences_BadRoot(t *testing.T) {
	s := newTestService(newTestStore(t), &fakeRunner{}, nil, model.CLIOptions{})
	if _, err := s.RunSequences(context.Background(), filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("expected error for missing scan root")
	}
}

func TestRunSequences_Recursive(t *testing.T) {
	root := t.TempDir()
	sub := filepath.Join(root, "shots")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	writeFrames(t, sub, "s_001.png", "s_002.png")

	fr := &fakeRunner{}
	s := newTestService(newTestStore(t), fr, nil, model.CLIOptions{Recursive: true})
	sum, err := s.RunSequences(context.Background(), root)
	if err != nil {
		t.Fatalf("RunSequences: %v", err)
	}
	if sum.Succeeded != 1 {
		t.Errorf("recursive scan missed the subdirectory: %+v", sum)
	}

	// Without the flag, the subdirectory is not visited.
	fr2 := &fakeRunner{}
	s2 := newTestService(newTestStore(t), fr2, nil, model.CLIOptions{})
	sum2, err := s2.RunSequences(context.Background(), root)
	if err != nil {
		t.Fatalf("RunSequences: %v", err)
	}
	if sum2.Succeeded != 0 || len(fr2.argvs) != 0 {
		t.Errorf("non-recursive scan should ignore subdirectories: %+v", sum2)
	}
}

func TestRunBatch(t *testing.T) {
	dir := t.TempDir()
	writeFrames(t, dir, "render_0001.png", "render_0002.png")

	store := newTestStore(t)
	crf := 18
	if err := store.SetGlobalOverrides(config.Overrides{CRF: &crf}); err != nil {
		t.Fatal(err)
	}
	if err := store.SetMultiOutput(config.MultiOutput{
		UserInitials:  "CD",
		HAPChunkCount: 4,
		Conversions: []config.Conversion{
			{Preset: "h264-mp4", Resolution: "half", Framerate: 24, FilenameSuffix: "review"},
			{Preset: "hap-q"},
		},
	}); err != nil {
		t.Fatal(err)
	}

	fr := &fakeRunner{}
	s := newTestService(store, fr, nil, model.CLIOptions{})

	sum, err := s.RunBatch(context.Background(), dir)
	if err != nil {
		t.Fatalf("RunBatch: %v", err)
	}
	if sum.Succeeded != 2 || sum.Failed != 0 {
		t.Fatalf("summary = %+v", sum)
	}
	if len(fr.argvs) != 2 {
		t.Fatalf("runner invocations = %d, want 2", len(fr.argvs))
	}

	h264 := strings.Join(fr.argvs[0], " ")
	if !strings.Contains(h264, "scale=iw*0.5:ih*0.5") || !strings.Contains(h264, "-framerate 24") {
		t.Errorf("conversion settings not applied: %v", h264)
	}
	// Global overrides never apply to batch runs.
	if !strings.Contains(h264, "-crf 23") {
		t.Errorf("batch must ignore global overrides: %v", h264)
	}
	if got, want := fr.argvs[0][len(fr.argvs[0])-1], filepath.Join(dir, "render_h264_review_CD.mp4"); got != want {
		t.Errorf("h264 output = %q, want %q", got, want)
	}

	hap := strings.Join(fr.argvs[1], " ")
	if !strings.Contains(hap, "-c:v hap -format hap_q -chunks 4") {
		t.Errorf("hap conversion block wrong: %v", hap)
	}
	if got, want := fr.argvs[1][len(fr.argvs[1])-1], filepath.Join(dir, "render_hapq_CD.mov"); got != want {
		t.Errorf("hap output = %q, want %q", got, want)
	}
}

func TestRunBatch_NoConfig(t *testing.T) {
	s := newTestService(newTestStore(t), &fakeRunner{}, nil, model.CLIOptions{})
	if _, err := s.RunBatch(context.Background(), t.TempDir()); err == nil || !strings.Contains(err.Error(), "no multi-output conversions") {
		t.Errorf("err = %v, want missing-config error", err)
	}
}
