package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"zilkit/internal/config"
)

const (
	ExitOK          = 0
	ExitCLIError    = 1
	ExitMissingDep  = 2
	ExitScanError   = 3
	ExitEncodeError = 4
)

// ExitError wraps an error with a process exit code.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return ""
	}
	return e.Err.Error()
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "zilkit",
		Short:         "Convert image-frame sequences and movies to video",
		Long:          "ZilKit scans a directory for numbered image-frame sequences and movie files and converts them to video through ffmpeg, using packaged encode presets (H.264, ProRes, HAP) with layered setting overrides.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Persistent flags available to all subcommands
	root.PersistentFlags().StringP("out-dir", "o", "", "Output directory (default: alongside the source)")
	root.PersistentFlags().BoolP("verbose", "v", false, "Show full encoder output")
	root.PersistentFlags().String("ffmpeg-path", "", "Path to the ffmpeg binary")

	_ = config.Init(root)

	// Subcommands
	root.AddCommand(newEncodeCmd())
	root.AddCommand(newMoviesCmd())
	root.AddCommand(newBatchCmd())
	root.AddCommand(newScanCmd())
	root.AddCommand(newConfigCmd())
	root.AddCommand(newDoctorCmd())
	root.AddCommand(newCompletionCmd())

	return root
}

// Execute runs the CLI with the provided context.
func Execute(ctx context.Context) error {
	root := newRootCmd()
	return root.ExecuteContext(ctx)
}

// Helpers
func getPersistentString(cmd *cobra.Command, name, def string) string {
	v, err := cmd.InheritedFlags().GetString(name)
	if err != nil || v == "" {
		return def
	}
	return v
}

func getPersistentBool(cmd *cobra.Command, name string, def bool) bool {
	v, err := cmd.InheritedFlags().GetBool(name)
	if err != nil {
		return def
	}
	return v
}
