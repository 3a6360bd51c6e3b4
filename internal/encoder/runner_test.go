package encoder

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"
)

func TestExecRunner_Success(t *testing.T) {
	var lines []string
	res := NewRunner().Run(context.Background(),
		[]string{"sh", "-c", "echo starting; echo done >&2"},
		RunOptions{OutputLine: func(l string) { lines = append(lines, l) }})

	if !res.Success {
		t.Fatalf("expected success, got %+v", res)
	}
	if res.Code != 0 {
		t.Errorf("Code = %d, want 0", res.Code)
	}
	if len(lines) != 2 {
		t.Errorf("retained lines = %v, want both streams", lines)
	}
}

func TestExecRunner_Failure(t *testing.T) {
	res := NewRunner().Run(context.Background(),
		[]string{"sh", "-c", "echo oops >&2; exit 3"},
		RunOptions{})

	if res.Success {
		t.Fatal("expected failure")
	}
	if res.Code != 3 {
		t.Errorf("Code = %d, want 3", res.Code)
	}
	if !strings.Contains(res.Message, "exit 3") || !strings.Contains(res.Message, "oops") {
		t.Errorf("Message = %q, want exit code and diagnostics", res.Message)
	}
	if len(res.Tail) != 1 || res.Tail[0] != "oops" {
		t.Errorf("Tail = %v, want [oops]", res.Tail)
	}
}

func TestExecRunner_ProgressLinesNotRetained(t *testing.T) {
	script := "echo 'frame=  10 fps=30 speed=1.0x' >&2; echo 'real diagnostic' >&2; exit 1"

	var progressLines []string
	res := NewRunner().Run(context.Background(),
		[]string{"sh", "-c", script},
		RunOptions{ProgressLine: func(l string) { progressLines = append(progressLines, l) }})

	if res.Success {
		t.Fatal("expected failure")
	}
	if len(progressLines) != 1 || !strings.Contains(progressLines[0], "frame=") {
		t.Errorf("progress lines = %v", progressLines)
	}
	for _, l := range res.Tail {
		if strings.Contains(l, "frame=") {
			t.Errorf("stats line leaked into the retained tail: %v", res.Tail)
		}
	}
	if len(res.Tail) != 1 || res.Tail[0] != "real diagnostic" {
		t.Errorf("Tail = %v, want [real diagnostic]", res.Tail)
	}
}

func TestExecRunner_TailCapped(t *testing.T) {
	var sb strings.Builder
	for i := 1; i <= 30; i++ {
		fmt.Fprintf(&sb, "echo line%d >&2; ", i)
	}
	sb.WriteString("exit 1")

	res := NewRunner().Run(context.Background(), []string{"sh", "-c", sb.String()}, RunOptions{})
	if res.Success {
		t.Fatal("expected failure")
	}
	if len(res.Tail) != tailLines {
		t.Fatalf("tail length = %d, want %d", len(res.Tail), tailLines)
	}
	if res.Tail[0] != "line11" || res.Tail[len(res.Tail)-1] != "line30" {
		t.Errorf("tail window = [%s .. %s], want [line11 .. line30]", res.Tail[0], res.Tail[len(res.Tail)-1])
	}
}

func TestExecRunner_TailSurvivesExitBurst(t *testing.T) {
	// A failing encoder typically dumps its diagnostics in one burst right
	// before exiting; none of it may be lost to the exit racing the drain.
	script := "for i in $(seq 1 50); do echo diag$i >&2; done; exit 1"

	for i := 0; i < 25; i++ {
		res := NewRunner().Run(context.Background(), []string{"sh", "-c", script}, RunOptions{})
		if res.Success {
			t.Fatal("expected failure")
		}
		if len(res.Tail) != tailLines {
			t.Fatalf("run %d: tail length = %d, want %d (diagnostics lost)", i, len(res.Tail), tailLines)
		}
		if res.Tail[len(res.Tail)-1] != "diag50" {
			t.Fatalf("run %d: tail ends with %q, want diag50", i, res.Tail[len(res.Tail)-1])
		}
	}
}

func TestExecRunner_ContextCancelKillsChild(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	res := NewRunner().Run(ctx, []string{"sh", "-c", "sleep 10"}, RunOptions{})
	elapsed := time.Since(start)

	if res.Success {
		t.Fatal("expected failure after cancellation")
	}
	if !strings.Contains(res.Message, "interrupted") {
		t.Errorf("Message = %q, want cancellation message", res.Message)
	}
	if elapsed > 5*time.Second {
		t.Errorf("run took %v, child was not killed promptly", elapsed)
	}
}

func TestExecRunner_MessageTruncated(t *testing.T) {
	script := "yes x 2>/dev/null | head -c 1000 | tr -d '\\n' >&2; echo >&2; exit 1"
	res := NewRunner().Run(context.Background(), []string{"sh", "-c", script}, RunOptions{})
	if res.Success {
		t.Fatal("expected failure")
	}
	const prefix = "encoder failed (exit 1): "
	if len(res.Message) > len(prefix)+maxMessageLen {
		t.Errorf("message length = %d, want at most %d", len(res.Message), len(prefix)+maxMessageLen)
	}
}

func TestExecRunner_EmptyCommand(t *testing.T) {
	res := NewRunner().Run(context.Background(), nil, RunOptions{})
	if res.Success || res.Code != -1 {
		t.Errorf("empty argv should fail with code -1, got %+v", res)
	}
}

func TestExecRunner_SpawnFailure(t *testing.T) {
	res := NewRunner().Run(context.Background(), []string{"/nonexistent/zilkit-binary"}, RunOptions{})
	if res.Success {
		t.Fatal("expected failure")
	}
	if res.Code != -1 {
		t.Errorf("Code = %d, want -1 for spawn failure", res.Code)
	}
	if !strings.Contains(res.Message, "start encoder") {
		t.Errorf("Message = %q", res.Message)
	}
}
