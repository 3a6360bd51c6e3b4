// Package encoder synthesizes ffmpeg command lines from resolved settings and
// runs the encoder subprocess, classifying the outcome.
package encoder

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"sync"
)

const (
	// tailLines bounds the diagnostic tail kept from a failed run.
	tailLines = 20
	// maxMessageLen bounds the failure message for downstream display.
	maxMessageLen = 200
)

// Result is the outcome of one encoder invocation.
type Result struct {
	Success bool
	Message string   // short human message; truncated diagnostics on failure
	Tail    []string // last retained output lines, failures only
	Code    int      // process exit code; -1 when the process never ran
}

// RunOptions control output handling during a run.
type RunOptions struct {
	// ProgressLine receives live stats lines (frame=/fps=/... ) as they
	// arrive. These lines are ephemeral and never retained.
	ProgressLine func(line string)
	// OutputLine receives every retained (non-stats) line.
	OutputLine func(line string)
}

// Runner executes an encoder argv. The interface exists so the pipeline can
// be tested without a real ffmpeg binary.
type Runner interface {
	Run(ctx context.Context, argv []string, opts RunOptions) Result
}

// ExecRunner runs the encoder as a real subprocess with both output streams
// piped and drained concurrently: ffmpeg writes progress to stderr at a rate
// that fills an OS pipe buffer quickly, so a single sequential reader can
// stall the child.
type ExecRunner struct{}

// NewRunner returns the default subprocess-backed runner.
func NewRunner() Runner { return ExecRunner{} }

// Run executes argv and classifies the outcome from the exit code. It never
// returns an error: spawn failures, non-zero exits, and cancellation all
// surface as a failure Result. Cancelling ctx kills the child process.
func (ExecRunner) Run(ctx context.Context, argv []string, opts RunOptions) Result {
	if len(argv) == 0 {
		return Result{Success: false, Message: "empty command", Code: -1}
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return Result{Success: false, Message: fmt.Sprintf("pipe stdout: %v", err), Code: -1}
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return Result{Success: false, Message: fmt.Sprintf("pipe stderr: %v", err), Code: -1}
	}

	if err := cmd.Start(); err != nil {
		return Result{Success: false, Message: fmt.Sprintf("start encoder: %v", err), Code: -1}
	}

	var (
		mu       sync.Mutex
		retained []string
	)
	drain := func(r interface{ Read([]byte) (int, error) }) {
		sc := bufio.NewScanner(r)
		// Encoder banner/config lines can be long; default 64KB is plenty
		// but keep headroom for filter graphs.
		buf := make([]byte, 0, 64*1024)
		sc.Buffer(buf, 1024*1024)
		for sc.Scan() {
			line := strings.TrimRight(sc.Text(), "\r")
			if line == "" {
				continue
			}
			if IsProgressLine(line) {
				if opts.ProgressLine != nil {
					opts.ProgressLine(line)
				}
				continue
			}
			mu.Lock()
			retained = append(retained, line)
			mu.Unlock()
			if opts.OutputLine != nil {
				opts.OutputLine(line)
			}
		}
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() { defer wg.Done(); drain(stdout) }()
	go func() { defer wg.Done(); drain(stderr) }()

	// Drain to EOF before Wait: Wait closes the pipes once the child exits,
	// discarding anything still buffered, and a failed encode's diagnostics
	// often land in that last burst.
	wg.Wait()
	waitErr := cmd.Wait()

	if waitErr == nil {
		return Result{Success: true, Message: "encode completed", Code: 0}
	}

	code := -1
	var exitErr *exec.ExitError
	if errors.As(waitErr, &exitErr) {
		code = exitErr.ExitCode()
	}

	mu.Lock()
	tail := retained
	if len(tail) > tailLines {
		tail = tail[len(tail)-tailLines:]
	}
	tail = append([]string(nil), tail...)
	mu.Unlock()

	msg := fmt.Sprintf("encoder failed (exit %d)", code)
	if ctx.Err() != nil {
		msg = fmt.Sprintf("encode interrupted: %v", ctx.Err())
	}
	if len(tail) > 0 {
		msg = msg + ": " + truncate(strings.Join(tail, "\n"), maxMessageLen)
	}
	return Result{Success: false, Message: msg, Tail: tail, Code: code}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
