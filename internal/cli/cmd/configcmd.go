package cmd

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"zilkit/internal/config"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "config",
		Short:         "Inspect and change stored settings",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.AddCommand(newConfigShowCmd())
	cmd.AddCommand(newConfigDefaultPresetCmd())
	cmd.AddCommand(newConfigInitialsCmd())
	cmd.AddCommand(newConfigFFmpegCmd())
	cmd.AddCommand(newConfigOverrideCmd())
	cmd.AddCommand(newConfigGlobalCmd())
	return cmd
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:           "show",
		Short:         "Show effective settings and the preset catalog",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := openStore()
			if err != nil {
				return &ExitError{Code: ExitCLIError, Err: err}
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Default preset: %s\n", store.DefaultPreset())
			if v := store.UserInitials(); v != "" {
				fmt.Fprintf(out, "Initials:       %s\n", v)
			}
			if v := store.FFmpegPath(); v != "" {
				fmt.Fprintf(out, "FFmpeg path:    %s\n", v)
			}
			if g := store.GlobalOverrides(); !g.Empty() {
				fmt.Fprintf(out, "Global:         %s\n", describeOverrides(g))
			}

			t := table.NewWriter()
			t.SetOutputMirror(out)
			t.AppendHeader(table.Row{"Preset", "Codec", "Container", "Override"})
			for _, id := range store.PresetIDs() {
				p, _ := store.Preset(id)
				ov := ""
				if o, ok := store.PresetOverride(id); ok && !o.Empty() {
					ov = describeOverrides(o)
				}
				t.AppendRow(table.Row{id, string(p.Codec), p.Container, ov})
			}
			t.SetStyle(table.StyleLight)
			t.Render()

			if mo, ok := store.MultiOutput(); ok {
				fmt.Fprintf(out, "Multi-output: %d conversion(s), hap chunks %d\n", len(mo.Conversions), mo.HAPChunkCount)
				for _, c := range mo.Conversions {
					fmt.Fprintf(out, "  - %s res=%s fps=%d suffix=%q\n", c.Preset, c.Resolution, c.Framerate, c.FilenameSuffix)
				}
			}
			return nil
		},
	}
}

func newConfigDefaultPresetCmd() *cobra.Command {
	return &cobra.Command{
		Use:           "default-preset [id]",
		Short:         "Show or set the default encode preset",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return &ExitError{Code: ExitCLIError, Err: err}
			}
			if len(args) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), store.DefaultPreset())
				return nil
			}
			if err := store.SetDefaultPreset(args[0]); err != nil {
				return &ExitError{Code: ExitCLIError, Err: err}
			}
			return nil
		},
	}
}

func newConfigInitialsCmd() *cobra.Command {
	return &cobra.Command{
		Use:           "initials [letters]",
		Short:         "Show or set the initials appended to output filenames",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return &ExitError{Code: ExitCLIError, Err: err}
			}
			if len(args) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), store.UserInitials())
				return nil
			}
			if err := store.SetUserInitials(args[0]); err != nil {
				return &ExitError{Code: ExitCLIError, Err: err}
			}
			return nil
		},
	}
}

func newConfigFFmpegCmd() *cobra.Command {
	return &cobra.Command{
		Use:           "ffmpeg [path]",
		Short:         "Show or set the stored ffmpeg path",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return &ExitError{Code: ExitCLIError, Err: err}
			}
			if len(args) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), store.FFmpegPath())
				return nil
			}
			if err := store.SetFFmpegPath(args[0]); err != nil {
				return &ExitError{Code: ExitCLIError, Err: err}
			}
			return nil
		},
	}
}

func newConfigOverrideCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "override <preset-id>",
		Short:         "Set, show, or clear per-preset setting overrides",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return &ExitError{Code: ExitCLIError, Err: err}
			}
			id := args[0]

			clear, _ := cmd.Flags().GetBool("clear")
			if clear {
				if err := store.ClearPresetOverride(id); err != nil {
					return &ExitError{Code: ExitCLIError, Err: err}
				}
				return nil
			}

			o := overridesFromFlags(cmd.Flags())
			if o.Empty() {
				if cur, ok := store.PresetOverride(id); ok && !cur.Empty() {
					fmt.Fprintln(cmd.OutOrStdout(), describeOverrides(cur))
				} else {
					fmt.Fprintln(cmd.OutOrStdout(), "no override set")
				}
				return nil
			}
			// Merge over an existing override so single-flag edits keep the
			// other fields.
			if cur, ok := store.PresetOverride(id); ok {
				o = mergeOverrides(cur, o)
			}
			if err := store.SetPresetOverride(id, o); err != nil {
				return &ExitError{Code: ExitCLIError, Err: err}
			}
			return nil
		},
	}
	bindOverrideFlags(cmd.Flags())
	return cmd
}

func newConfigGlobalCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "global",
		Short:         "Set, show, or clear global setting overrides",
		Long:          "Global overrides win over per-preset overrides for interactive encodes. Batch runs ignore them entirely.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := openStore()
			if err != nil {
				return &ExitError{Code: ExitCLIError, Err: err}
			}

			clear, _ := cmd.Flags().GetBool("clear")
			if clear {
				if err := store.ClearGlobalOverrides(); err != nil {
					return &ExitError{Code: ExitCLIError, Err: err}
				}
				return nil
			}

			o := overridesFromFlags(cmd.Flags())
			if o.Empty() {
				if cur := store.GlobalOverrides(); !cur.Empty() {
					fmt.Fprintln(cmd.OutOrStdout(), describeOverrides(cur))
				} else {
					fmt.Fprintln(cmd.OutOrStdout(), "no global overrides set")
				}
				return nil
			}
			o = mergeOverrides(store.GlobalOverrides(), o)
			if err := store.SetGlobalOverrides(o); err != nil {
				return &ExitError{Code: ExitCLIError, Err: err}
			}
			return nil
		},
	}
	bindOverrideFlags(cmd.Flags())
	return cmd
}

func bindOverrideFlags(fs *pflag.FlagSet) {
	fs.String("resolution", "", "Resolution: full, half, quarter, or a scale factor")
	fs.Int("framerate", 0, "Output framerate")
	fs.Int("crf", 0, "H.264 quality factor (18-28)")
	fs.String("speed-preset", "", "x264 speed/quality preset name")
	fs.String("pix-fmt", "", "Pixel format")
	fs.Int("hap-chunks", 0, "HAP chunk count (1-8)")
	fs.Bool("clear", false, "Remove the override")
}

// overridesFromFlags builds an override set from the flags that were
// actually passed; untouched flags stay nil.
func overridesFromFlags(fs *pflag.FlagSet) config.Overrides {
	var o config.Overrides
	if fs.Changed("resolution") {
		v, _ := fs.GetString("resolution")
		o.Resolution = &v
	}
	if fs.Changed("framerate") {
		v, _ := fs.GetInt("framerate")
		o.Framerate = &v
	}
	if fs.Changed("crf") {
		v, _ := fs.GetInt("crf")
		o.CRF = &v
	}
	if fs.Changed("speed-preset") {
		v, _ := fs.GetString("speed-preset")
		o.SpeedPreset = &v
	}
	if fs.Changed("pix-fmt") {
		v, _ := fs.GetString("pix-fmt")
		o.PixFmt = &v
	}
	if fs.Changed("hap-chunks") {
		v, _ := fs.GetInt("hap-chunks")
		o.HAPChunks = &v
	}
	return o
}

func mergeOverrides(base, over config.Overrides) config.Overrides {
	if over.Resolution != nil {
		base.Resolution = over.Resolution
	}
	if over.Framerate != nil {
		base.Framerate = over.Framerate
	}
	if over.CRF != nil {
		base.CRF = over.CRF
	}
	if over.SpeedPreset != nil {
		base.SpeedPreset = over.SpeedPreset
	}
	if over.PixFmt != nil {
		base.PixFmt = over.PixFmt
	}
	if over.HAPChunks != nil {
		base.HAPChunks = over.HAPChunks
	}
	return base
}

func describeOverrides(o config.Overrides) string {
	var parts []string
	if o.Resolution != nil {
		parts = append(parts, "resolution="+*o.Resolution)
	}
	if o.Framerate != nil {
		parts = append(parts, fmt.Sprintf("framerate=%d", *o.Framerate))
	}
	if o.CRF != nil {
		parts = append(parts, fmt.Sprintf("crf=%d", *o.CRF))
	}
	if o.SpeedPreset != nil {
		parts = append(parts, "preset="+*o.SpeedPreset)
	}
	if o.PixFmt != nil {
		parts = append(parts, "pix_fmt="+*o.PixFmt)
	}
	if o.HAPChunks != nil {
		parts = append(parts, fmt.Sprintf("hap_chunks=%d", *o.HAPChunks))
	}
	return strings.Join(parts, " ")
}
