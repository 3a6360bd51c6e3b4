package cmd

import (
	"github.com/spf13/cobra"
)

func newBatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "batch [dir]",
		Short:         "Produce every configured multi-output conversion",
		Long:          "Batch converts each sequence and movie under the directory once per configured conversion. Per-conversion settings are authoritative; global overrides and setting flags are ignored.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConvert(cmd, args, targetBatch)
		},
	}
	// Batch takes its settings from the multi-output config, so only the
	// traversal and output flags apply.
	cmd.Flags().BoolP("recursive", "r", false, "Also scan subdirectories")
	cmd.Flags().Bool("dry-run", false, "Print the planned encoder commands without executing")
	cmd.Flags().Bool("no-ui", false, "Disable TUI; use plain textual output")
	cmd.Flags().StringP("preset", "p", "", "")
	cmd.Flags().String("text", "", "")
	cmd.Flags().String("initials", "", "Initials appended to output filenames")
	cmd.Flags().String("resolution", "", "")
	cmd.Flags().Int("framerate", 0, "")
	cmd.Flags().Int("crf", 0, "")
	_ = cmd.Flags().MarkHidden("preset")
	_ = cmd.Flags().MarkHidden("text")
	_ = cmd.Flags().MarkHidden("resolution")
	_ = cmd.Flags().MarkHidden("framerate")
	_ = cmd.Flags().MarkHidden("crf")
	return cmd
}
