package encoder

import (
	"regexp"
	"strconv"
	"strings"
)

// progressKeywords mark the live stats lines ffmpeg rewrites while encoding.
// Lines carrying any of them are ephemeral display output, not diagnostics.
var progressKeywords = []string{"frame=", "fps=", "bitrate=", "time=", "speed="}

// IsProgressLine reports whether a line is a live encode-stats line.
func IsProgressLine(line string) bool {
	l := strings.ToLower(line)
	for _, kw := range progressKeywords {
		if strings.Contains(l, kw) {
			return true
		}
	}
	return false
}

var frameField = regexp.MustCompile(`frame=\s*(\d+)`)

// ParseFrame extracts the frame counter from a stats line, for display.
func ParseFrame(line string) (int, bool) {
	m := frameField.FindStringSubmatch(line)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}
