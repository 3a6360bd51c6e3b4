// Package deps locates and validates the external encoder binary.
package deps

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"
)

// EnvFFmpegPath overrides every other discovery source when set.
const EnvFFmpegPath = "ZILKIT_FFMPEG_PATH"

const validateTimeout = 5 * time.Second

// FindFFmpeg returns the path to the ffmpeg binary. Discovery order: the
// ZILKIT_FFMPEG_PATH environment variable, then the configured path, then
// PATH lookup.
func FindFFmpeg(configuredPath string) (string, error) {
	if p := os.Getenv(EnvFFmpegPath); p != "" {
		if resolved, err := resolve(p); err == nil {
			return resolved, nil
		}
		return "", fmt.Errorf("could not find ffmpeg at %q (from %s)", p, EnvFFmpegPath)
	}
	if configuredPath != "" {
		if resolved, err := resolve(configuredPath); err == nil {
			return resolved, nil
		}
		return "", fmt.Errorf("could not find ffmpeg at configured path %q", configuredPath)
	}
	if p, err := exec.LookPath("ffmpeg"); err == nil {
		return p, nil
	}
	return "", fmt.Errorf("ffmpeg not found in PATH")
}

func resolve(path string) (string, error) {
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}
	return exec.LookPath(path)
}

// ValidateFFmpeg runs `ffmpeg -version` with a short timeout and returns the
// first version line. A binary that exists but cannot execute fails here, not
// mid-encode.
func ValidateFFmpeg(ctx context.Context, path string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, validateTimeout)
	defer cancel()

	out, err := exec.CommandContext(ctx, path, "-version").Output()
	if err != nil {
		return "", fmt.Errorf("ffmpeg at %q is not runnable: %w", path, err)
	}
	line := strings.SplitN(strings.TrimSpace(string(out)), "\n", 2)[0]
	if !strings.Contains(strings.ToLower(line), "ffmpeg") {
		return "", fmt.Errorf("binary at %q does not look like ffmpeg", path)
	}
	return line, nil
}
