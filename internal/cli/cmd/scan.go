package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"zilkit/internal/model"
	"zilkit/internal/pipeline"
	"zilkit/internal/sequence"
	"zilkit/internal/util/format"
)

func newScanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "scan [dir]",
		Short:         "List detected frame sequences and movie files",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.MaximumNArgs(1),
		RunE:          runScan,
	}
	cmd.Flags().BoolP("recursive", "r", false, "Also scan subdirectories")
	return cmd
}

func runScan(cmd *cobra.Command, args []string) error {
	root := "."
	if len(args) == 1 {
		root = args[0]
	}
	root = filepath.Clean(root)
	recursive, _ := cmd.Flags().GetBool("recursive")

	svc := pipeline.NewService(
		pipeline.WithCLIOptions(model.CLIOptions{Recursive: recursive}),
	)
	seqs, err := svc.Sequences(root)
	if err != nil {
		return &ExitError{Code: ExitScanError, Err: err}
	}
	movies, err := svc.Movies(root)
	if err != nil {
		return &ExitError{Code: ExitScanError, Err: err}
	}

	if len(seqs) == 0 && len(movies) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No sequences or movies found.")
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.AppendHeader(table.Row{"Type", "Name", "Directory", "Frames", "Size"})
	for _, s := range seqs {
		t.AppendRow(table.Row{"sequence", s.Name(), s.Dir, s.Len(), sequenceSize(s)})
	}
	for _, m := range movies {
		t.AppendRow(table.Row{"movie", filepath.Base(m), filepath.Dir(m), "", fileSize(m)})
	}
	t.SetStyle(table.StyleLight)
	t.Render()
	return nil
}

func sequenceSize(s sequence.Sequence) string {
	var total int64
	for _, f := range s.Frames {
		if fi, err := os.Stat(f.Path); err == nil {
			total += fi.Size()
		}
	}
	return format.HumanizeBytes(total)
}

func fileSize(path string) string {
	fi, err := os.Stat(path)
	if err != nil {
		return ""
	}
	return format.HumanizeBytes(fi.Size())
}
