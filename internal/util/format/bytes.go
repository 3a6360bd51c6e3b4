// Package format renders values for the job board and the scan listing.
package format

import "strconv"

var byteUnits = []string{"KB", "MB", "GB", "TB"}

// HumanizeBytes renders an output-file size like "1.5 MB". Units are binary
// (1024-based) with one fractional digit, matching how encode results are
// reported.
func HumanizeBytes(b int64) string {
	const unit = 1024
	if b < unit {
		return strconv.FormatInt(b, 10) + " B"
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	var buf [20]byte
	s := strconv.AppendFloat(buf[:0], float64(b)/float64(div), 'f', 1, 64)
	return string(s) + " " + byteUnits[exp]
}
