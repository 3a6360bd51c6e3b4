package sequence

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

// ErrNoDigitRun reports a filename with no frame-number field. Sequences are
// grouped on a digit run, so hitting this on a real Sequence means the input
// is inconsistent; it is surfaced, never silently defaulted.
var ErrNoDigitRun = errors.New("no digit run in filename stem")

var trailingDigits = regexp.MustCompile(`[_\s]*[0-9]+$`)

// ResolvePattern derives the encoder input pattern and start index for a
// sequence: the rightmost digit run of the first frame's stem becomes a
// %0Nd placeholder of the same width, all other characters are preserved, and
// the result is joined with the sequence directory.
func ResolvePattern(seq Sequence) (pattern string, start int, err error) {
	if len(seq.Frames) == 0 {
		return "", 0, errors.New("empty sequence")
	}
	name, err := patternName(filepath.Base(seq.First().Path))
	if err != nil {
		return "", 0, err
	}
	return filepath.Join(seq.Dir, name), seq.Start, nil
}

// patternName replaces the rightmost digit run in the stem of name with a
// positional placeholder of the run's exact width, matching how the sequence
// was grouped.
func patternName(name string) (string, error) {
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	start, end, ok := rightmostDigitRun(stem)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrNoDigitRun, name)
	}
	width := end - start
	return stem[:start] + fmt.Sprintf("%%0%dd", width) + stem[end:] + ext, nil
}

// rightmostDigitRun locates the last run of decimal digits in s. The
// rightmost run wins so shot or version numbers earlier in the name are left
// alone (e.g. "shot01_frame007" selects "007").
func rightmostDigitRun(s string) (start, end int, ok bool) {
	end = -1
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] >= '0' && s[i] <= '9' {
			if end == -1 {
				end = i + 1
			}
			start = i
		} else if end != -1 {
			return start, end, true
		}
	}
	if end == -1 {
		return 0, 0, false
	}
	return start, end, true
}

// DeriveBaseName strips a trailing digit run (and any underscore or
// whitespace before it) from a filename stem for output naming. Stems that
// are almost entirely numeric keep their original form so output names never
// degenerate to one character or nothing.
func DeriveBaseName(stem string) string {
	base := trailingDigits.ReplaceAllString(stem, "")
	if len(base) < 2 {
		return stem
	}
	return base
}
