package cmd

import (
	"github.com/spf13/cobra"
)

func newMoviesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "movies [dir]",
		Short:         "Re-encode movie files with an encode preset",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConvert(cmd, args, targetMovies)
		},
	}
	bindEncodeFlags(cmd.Flags())
	return cmd
}
