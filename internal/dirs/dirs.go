// Package dirs resolves the per-user directories ZilKit stores its settings
// and data in.
package dirs

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
)

const appName = "ZilKit"

// AppName returns the canonical application name for directory paths.
func AppName() string {
	return appName
}

// ConfigDir returns the app's configuration directory.
// - Windows: %LocalAppData%/ZilKit (fallback to os.UserConfigDir)
// - Linux: $XDG_CONFIG_HOME/ZilKit or ~/.config/ZilKit
// - macOS: ~/Library/Application Support/ZilKit
func ConfigDir() (string, error) {
	switch runtime.GOOS {
	case "windows":
		if la := os.Getenv("LOCALAPPDATA"); la != "" {
			return filepath.Join(la, AppName()), nil
		}
		cfg, err := os.UserConfigDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(cfg, AppName()), nil
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, "Library", "Application Support", AppName()), nil
	case "linux":
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, AppName()), nil
		}
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, ".config", AppName()), nil
	default:
		cfg, err := os.UserConfigDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(cfg, AppName()), nil
	}
}

// DataDir returns the app's data directory (logs and the like).
// - Windows: %LocalAppData%/ZilKit (same tree as config)
// - Linux: $XDG_DATA_HOME/ZilKit or ~/.local/share/ZilKit
// - macOS: ~/Library/Application Support/ZilKit
func DataDir() (string, error) {
	switch runtime.GOOS {
	case "linux":
		if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
			return filepath.Join(xdg, AppName()), nil
		}
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, ".local", "share", AppName()), nil
	default:
		return ConfigDir()
	}
}

// Ensure creates the directory if it doesn't exist.
func Ensure(path string) error {
	if path == "" {
		return errors.New("empty path")
	}
	return os.MkdirAll(path, 0o755)
}

// EnsureAll ensures the config and data dirs exist.
func EnsureAll() error {
	if p, err := ConfigDir(); err == nil {
		if err := Ensure(p); err != nil {
			return err
		}
	}
	if p, err := DataDir(); err == nil {
		if err := Ensure(p); err != nil {
			return err
		}
	}
	return nil
}
