package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/term"

	"zilkit/internal/config"
	"zilkit/internal/model"
	"zilkit/internal/pipeline"
	"zilkit/internal/progress"
	"zilkit/internal/ui"
	"zilkit/internal/util/deps"
)

// runTarget selects which item kind a run converts.
type runTarget int

const (
	targetSequences runTarget = iota
	targetMovies
	targetBatch
)

func newEncodeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "encode [dir]",
		Short:         "Convert numbered frame sequences to video",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConvert(cmd, args, targetSequences)
		},
	}
	bindEncodeFlags(cmd.Flags())
	return cmd
}

func bindEncodeFlags(fs *pflag.FlagSet) {
	fs.StringP("preset", "p", "", "Encode preset id (default: configured default preset)")
	fs.String("text", "", "Custom text inserted into output filenames")
	fs.String("initials", "", "Initials appended to output filenames")
	fs.String("resolution", "", "Resolution: full, half, quarter, or a scale factor")
	fs.Int("framerate", 0, "Output framerate; 0 uses the resolved default")
	fs.Int("crf", 0, "H.264 quality factor (18-28); 0 uses the resolved default")
	fs.BoolP("recursive", "r", false, "Also scan subdirectories")
	fs.Bool("dry-run", false, "Print the planned encoder commands without executing")
	fs.Bool("no-ui", false, "Disable TUI; use plain textual output")
}

// assembleOptions collects persistent and command flags into CLIOptions and
// resolves the scan root from args.
func assembleOptions(cmd *cobra.Command, args []string) (string, model.CLIOptions, error) {
	root := "."
	if len(args) == 1 {
		root = args[0]
	}
	root = filepath.Clean(root)

	crf, _ := cmd.Flags().GetInt("crf")
	if crf != 0 && (crf < 18 || crf > 28) {
		return "", model.CLIOptions{}, fmt.Errorf("invalid --crf: %d (valid: 18-28)", crf)
	}
	framerate, _ := cmd.Flags().GetInt("framerate")
	if framerate < 0 {
		return "", model.CLIOptions{}, fmt.Errorf("invalid --framerate: %d", framerate)
	}

	presetID, _ := cmd.Flags().GetString("preset")
	text, _ := cmd.Flags().GetString("text")
	initials, _ := cmd.Flags().GetString("initials")
	resolution, _ := cmd.Flags().GetString("resolution")
	recursive, _ := cmd.Flags().GetBool("recursive")
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	noUI, _ := cmd.Flags().GetBool("no-ui")

	opts := model.CLIOptions{
		OutDir:     getPersistentString(cmd, "out-dir", ""),
		PresetID:   presetID,
		CustomText: text,
		Initials:   initials,
		Resolution: resolution,
		Framerate:  framerate,
		CRF:        crf,
		Recursive:  recursive,
		DryRun:     dryRun,
		Verbose:    getPersistentBool(cmd, "verbose", false),
		NoUI:       noUI,
	}
	return root, opts, nil
}

// runConvert is the shared execution path of the encode, movies, and batch
// commands.
func runConvert(cmd *cobra.Command, args []string, target runTarget) error {
	root, opts, err := assembleOptions(cmd, args)
	if err != nil {
		return &ExitError{Code: ExitCLIError, Err: err}
	}

	store, err := openStore()
	if err != nil {
		return &ExitError{Code: ExitCLIError, Err: err}
	}
	if opts.PresetID != "" {
		if _, ok := store.Preset(opts.PresetID); !ok {
			return &ExitError{Code: ExitCLIError, Err: fmt.Errorf("unknown preset %q (see 'zilkit config show')", opts.PresetID)}
		}
	}

	ffmpegPath, err := deps.FindFFmpeg(getPersistentString(cmd, "ffmpeg-path", store.FFmpegPath()))
	if err != nil {
		if !opts.DryRun {
			return &ExitError{Code: ExitMissingDep, Err: err}
		}
		// Dry-run still prints a plausible command.
		ffmpegPath = "ffmpeg"
	}

	run := func(ctx context.Context, rep progress.Reporter) (model.Summary, error) {
		svc := pipeline.NewService(
			pipeline.WithFFmpegPath(ffmpegPath),
			pipeline.WithStore(store),
			pipeline.WithCLIOptions(opts),
			pipeline.WithReporter(rep),
		)
		switch target {
		case targetMovies:
			return svc.RunMovies(ctx, root)
		case targetBatch:
			return svc.RunBatch(ctx, root)
		default:
			return svc.RunSequences(ctx, root)
		}
	}

	var sum model.Summary
	if !opts.NoUI && !opts.DryRun && isTerminal() {
		sum, err = ui.Run(cmd.Context(), run)
	} else {
		sum, err = run(cmd.Context(), plainReporter{verbose: opts.Verbose || opts.DryRun})
	}
	if err != nil {
		return &ExitError{Code: ExitScanError, Err: err}
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Done: %d succeeded, %d failed\n", sum.Succeeded, sum.Failed)
	if sum.Failed > 0 {
		for _, f := range sum.Failures {
			fmt.Fprintf(cmd.ErrOrStderr(), "- %s: %s\n", f.Label, f.Message)
		}
		return &ExitError{Code: ExitEncodeError, Err: fmt.Errorf("%d item(s) failed", sum.Failed)}
	}
	return nil
}

func openStore() (*config.Store, error) {
	path, err := config.SettingsPath()
	if err != nil {
		return nil, fmt.Errorf("locate settings: %w", err)
	}
	return config.NewStore(path), nil
}

func isTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// plainReporter prints progress events as plain lines for non-TTY and
// dry-run output.
type plainReporter struct {
	verbose bool
}

func (p plainReporter) Update(u progress.Update) {
	switch u.Stage {
	case progress.StageCompleted, progress.StageError:
		fmt.Println(u.Message)
	case progress.StageEncoding:
		if p.verbose {
			fmt.Println(u.Message)
		}
	}
}

func (p plainReporter) Log(l progress.Log) {
	if p.verbose {
		fmt.Println(l.Line)
	}
}

func (p plainReporter) Result(r progress.Result) {}
