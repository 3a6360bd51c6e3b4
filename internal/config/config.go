// Package config holds the layered settings store (user config file, packaged
// preset catalog, override precedence) and the viper wiring for CLI flags.
package config

import (
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"zilkit/internal/dirs"
)

// SettingsPath returns the location of the user settings file.
func SettingsPath() (string, error) {
	cfgDir, err := dirs.ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cfgDir, "config.json"), nil
}

// Init wires viper with config paths, env, and flag bindings. It is
// non-fatal: any errors are returned for optional handling by the caller.
func Init(root *cobra.Command) error {
	_ = dirs.EnsureAll()

	if cfgDir, err := dirs.ConfigDir(); err == nil {
		_ = dirs.Ensure(cfgDir)
		viper.AddConfigPath(cfgDir)
	}
	viper.SetConfigName("cli") // supports cli.{yaml|yml|json|toml}

	// Environment variables: ZILKIT_*
	viper.SetEnvPrefix("ZILKIT")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	// Bind root persistent flags to viper keys
	_ = viper.BindPFlag("out_dir", root.PersistentFlags().Lookup("out-dir"))
	_ = viper.BindPFlag("verbose", root.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("ffmpeg_path", root.PersistentFlags().Lookup("ffmpeg-path"))

	// Read config file if present (ignore not found)
	_ = viper.ReadInConfig()

	return nil
}
