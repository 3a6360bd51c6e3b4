// Package sequence finds numbered image-frame sequences and movie files in a
// directory and derives the positional input patterns an encoder needs.
package sequence

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// Frame is one member file of a sequence.
type Frame struct {
	Path   string // absolute or directory-joined path
	Number int    // parsed frame number
}

// Sequence is an ordered group of same-pattern numbered frame files in one
// directory. Members share a common non-numeric prefix/suffix and a
// fixed-width zero-padded frame-number run.
type Sequence struct {
	Dir    string
	Frames []Frame
	Width  int // zero-padding width of the frame-number run
	Start  int // lowest frame number
}

// Len returns the number of frames.
func (s Sequence) Len() int { return len(s.Frames) }

// First returns the lowest-numbered frame.
func (s Sequence) First() Frame { return s.Frames[0] }

// Name returns a short human label for the sequence, e.g. "shot01_frame%03d.png [7-9]".
func (s Sequence) Name() string {
	base := filepath.Base(s.First().Path)
	name, err := patternName(base)
	if err != nil {
		name = base
	}
	last := s.Frames[len(s.Frames)-1].Number
	return fmt.Sprintf("%s [%d-%d]", name, s.Start, last)
}

// Extensions never grouped into sequences: EXR needs specialized handling,
// and movie containers are detected separately by FindMovies.
var excludedExtensions = map[string]bool{
	".exr": true, ".mp4": true, ".mov": true, ".avi": true, ".mkv": true,
	".webm": true, ".flv": true, ".wmv": true, ".m4v": true, ".mpg": true,
	".mpeg": true, ".m2v": true, ".mxf": true,
}

var movieExtensions = map[string]bool{
	".mp4": true, ".mov": true, ".avi": true, ".mkv": true, ".webm": true,
	".flv": true, ".wmv": true, ".m4v": true, ".mpg": true, ".mpeg": true,
	".m2v": true, ".mxf": true,
}

// candidate is a directory entry whose stem carries a digit run.
type candidate struct {
	path    string
	number  int
	regular bool
}

// Scan groups the direct children of dir into frame sequences. Entries whose
// extension is excluded are never grouped. A group is dropped whole when it
// has fewer than two members or when any member is not an existing regular
// file. Unreadable directories yield an empty result, not an error.
func Scan(dir string) []Sequence {
	entries, err := os.ReadDir(dir)
	if err != nil {
		slog.Warn("cannot scan directory", "dir", dir, "error", err)
		return nil
	}

	// Group by (prefix, suffix, width) of the rightmost digit run.
	type group struct {
		width   int
		members []candidate
		allFile bool
	}
	groups := make(map[string]*group)
	var order []string

	for _, e := range entries {
		name := e.Name()
		ext := strings.ToLower(filepath.Ext(name))
		if excludedExtensions[ext] {
			continue
		}
		stem := strings.TrimSuffix(name, filepath.Ext(name))
		start, end, ok := rightmostDigitRun(stem)
		if !ok {
			continue
		}
		num, err := strconv.Atoi(stem[start:end])
		if err != nil {
			continue
		}
		width := end - start
		key := stem[:start] + "\x00" + stem[end:] + filepath.Ext(name) + "\x00" + strconv.Itoa(width)

		path := filepath.Join(dir, name)
		g, exists := groups[key]
		if !exists {
			g = &group{width: width, allFile: true}
			groups[key] = g
			order = append(order, key)
		}
		g.members = append(g.members, candidate{
			path:    path,
			number:  num,
			regular: isRegularFile(path),
		})
	}

	var out []Sequence
	for _, key := range order {
		g := groups[key]
		if len(g.members) < 2 {
			continue
		}
		// A single non-file member (subdirectory, broken link) disqualifies
		// the whole group, not just that member.
		ok := true
		for _, m := range g.members {
			if !m.regular {
				ok = false
				break
			}
		}
		if !ok {
			slog.Debug("discarding sequence with non-file member", "dir", dir)
			continue
		}
		sort.Slice(g.members, func(i, j int) bool { return g.members[i].number < g.members[j].number })
		seq := Sequence{Dir: dir, Width: g.width, Start: g.members[0].number}
		for _, m := range g.members {
			seq.Frames = append(seq.Frames, Frame{Path: m.path, Number: m.number})
		}
		out = append(out, seq)
	}
	return out
}

// FindMovies returns the movie files directly inside dir, identified by
// container extension. Unreadable directories yield an empty result.
func FindMovies(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		slog.Warn("cannot scan directory for movies", "dir", dir, "error", err)
		return nil
	}
	var out []string
	for _, e := range entries {
		name := e.Name()
		if !movieExtensions[strings.ToLower(filepath.Ext(name))] {
			continue
		}
		path := filepath.Join(dir, name)
		if isRegularFile(path) {
			out = append(out, path)
		}
	}
	sort.Strings(out)
	return out
}

// isRegularFile follows symlinks, so a broken link or directory reports false.
func isRegularFile(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.Mode().IsRegular()
}
