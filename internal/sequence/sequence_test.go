package sequence

import (
	"os"
	"path/filepath"
	"testing"
)

func touch(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestScan_GroupsByPatternAndWidth(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "shot01_frame007.png")
	touch(t, dir, "shot01_frame008.png")
	touch(t, dir, "shot01_frame009.png")
	// Different padding width: separate group, too small to survive.
	touch(t, dir, "shot01_frame0010.png")
	// Different prefix.
	touch(t, dir, "other_0001.tif")
	touch(t, dir, "other_0002.tif")
	// No digit run at all.
	touch(t, dir, "notes.txt")

	seqs := Scan(dir)
	if len(seqs) != 2 {
		t.Fatalf("Scan returned %d sequences, want 2", len(seqs))
	}

	byStart := map[int]Sequence{}
	for _, s := range seqs {
		byStart[s.Start] = s
	}

	shot, ok := byStart[7]
	if !ok {
		t.Fatalf("missing shot sequence, got %+v", seqs)
	}
	if shot.Len() != 3 || shot.Width != 3 {
		t.Errorf("shot sequence len=%d width=%d, want 3/3", shot.Len(), shot.Width)
	}
	if got := shot.First().Number; got != 7 {
		t.Errorf("first frame number = %d, want 7", got)
	}

	other, ok := byStart[1]
	if !ok {
		t.Fatalf("missing other sequence")
	}
	if other.Len() != 2 || other.Width != 4 {
		t.Errorf("other sequence len=%d width=%d, want 2/4", other.Len(), other.Width)
	}
}

func TestScan_SortsFramesByNumber(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "clip_010.jpg")
	touch(t, dir, "clip_002.jpg")
	touch(t, dir, "clip_007.jpg")

	seqs := Scan(dir)
	if len(seqs) != 1 {
		t.Fatalf("Scan returned %d sequences, want 1", len(seqs))
	}
	want := []int{2, 7, 10}
	for i, f := range seqs[0].Frames {
		if f.Number != want[i] {
			t.Errorf("frame[%d].Number = %d, want %d", i, f.Number, want[i])
		}
	}
}

func TestScan_RejectsSmallGroups(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "lonely_0001.png")

	if seqs := Scan(dir); len(seqs) != 0 {
		t.Errorf("single-member group should be dropped, got %+v", seqs)
	}
}

func TestScan_ExcludedExtensionsNeverGroup(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "render_0001.exr")
	touch(t, dir, "render_0002.exr")
	touch(t, dir, "take_001.mov")
	touch(t, dir, "take_002.mov")

	if seqs := Scan(dir); len(seqs) != 0 {
		t.Errorf("excluded extensions should never form sequences, got %+v", seqs)
	}
}

func TestScan_SubdirectoryDisqualifiesGroup(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "mix_001.png")
	touch(t, dir, "mix_002.png")
	if err := os.Mkdir(filepath.Join(dir, "mix_003.png"), 0o755); err != nil {
		t.Fatal(err)
	}

	if seqs := Scan(dir); len(seqs) != 0 {
		t.Errorf("group with a directory member should be dropped whole, got %+v", seqs)
	}
}

func TestScan_UnreadableDirReturnsNil(t *testing.T) {
	if seqs := Scan(filepath.Join(t.TempDir(), "missing")); seqs != nil {
		t.Errorf("Scan of missing dir = %+v, want nil", seqs)
	}
}

func TestFindMovies(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "b.mov")
	touch(t, dir, "a.mp4")
	touch(t, dir, "clip.MKV")
	touch(t, dir, "frame_0001.png")
	touch(t, dir, "readme.txt")

	got := FindMovies(dir)
	want := []string{
		filepath.Join(dir, "a.mp4"),
		filepath.Join(dir, "b.mov"),
		filepath.Join(dir, "clip.MKV"),
	}
	if len(got) != len(want) {
		t.Fatalf("FindMovies = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("FindMovies[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestSequenceName(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "shot01_frame007.png")
	touch(t, dir, "shot01_frame008.png")
	touch(t, dir, "shot01_frame009.png")

	seqs := Scan(dir)
	if len(seqs) != 1 {
		t.Fatalf("Scan returned %d sequences, want 1", len(seqs))
	}
	if got, want := seqs[0].Name(), "shot01_frame%03d.png [7-9]"; got != want {
		t.Errorf("Name() = %q, want %q", got, want)
	}
}
