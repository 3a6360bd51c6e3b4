package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"zilkit/internal/util/deps"
)

func newDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:           "doctor",
		Short:         "Diagnose the external encoder dependency",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := openStore()
			if err != nil {
				return &ExitError{Code: ExitCLIError, Err: err}
			}
			ff, ferr := deps.FindFFmpeg(getPersistentString(cmd, "ffmpeg-path", store.FFmpegPath()))
			if ferr != nil {
				return &ExitError{Code: ExitMissingDep, Err: ferr}
			}
			version, verr := deps.ValidateFFmpeg(cmd.Context(), ff)
			if verr != nil {
				return &ExitError{Code: ExitMissingDep, Err: verr}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "FFmpeg:  %s\n", ff)
			fmt.Fprintf(cmd.OutOrStdout(), "Version: %s\n", version)
			return nil
		},
	}
}
