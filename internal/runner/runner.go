// Package runner executes external commands with a hard timeout and
// deadlock-safe output capture.
package runner

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"time"

	"github.com/rs/zerolog"

	"github.com/blackwell-systems/brewdeck/internal/logging"
)

// Result is the outcome of one external command invocation. Output carries
// stdout when present, otherwise stderr, so diagnostics from failing tools
// are never lost.
type Result struct {
	Output   string
	Success  bool
	TimedOut bool
}

// Runner executes commands with a per-invocation timeout.
type Runner struct {
	timeout time.Duration
	log     zerolog.Logger
}

// New creates a Runner with the given default timeout.
func New(timeout time.Duration) *Runner {
	return &Runner{
		timeout: timeout,
		log:     logging.GetLogger("runner"),
	}
}

// Run executes name with args under the runner's default timeout.
func (r *Runner) Run(ctx context.Context, name string, args ...string) Result {
	return r.RunTimeout(ctx, r.timeout, name, args...)
}

// RunTimeout executes name with args, forcibly terminating the process once
// timeout elapses. Stdout and stderr are drained by independent goroutines:
// both pipes can fill simultaneously, and a sequential read of one while the
// other's buffer is full deadlocks the child.
func (r *Runner) RunTimeout(ctx context.Context, timeout time.Duration, name string, args ...string) Result {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, name, args...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return Result{Output: fmt.Sprintf("failed to open stdout pipe: %v", err)}
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return Result{Output: fmt.Sprintf("failed to open stderr pipe: %v", err)}
	}

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return Result{Output: fmt.Sprintf("failed to launch %s: %v", name, err)}
	}

	outCh := drain(stdout)
	errCh := drain(stderr)

	// Both pipes must be fully consumed before Wait closes them.
	stdoutBytes := <-outCh
	stderrBytes := <-errCh
	waitErr := cmd.Wait()

	r.log.Debug().
		Str("command", name).
		Strs("args", args).
		Dur("duration", time.Since(start)).
		Msg("command finished")

	if ctx.Err() == context.DeadlineExceeded {
		return Result{
			Output:   fmt.Sprintf("%s timed out after %s", name, timeout),
			TimedOut: true,
		}
	}

	output := string(bytes.TrimSpace(stdoutBytes))
	if output == "" && len(bytes.TrimSpace(stderrBytes)) > 0 {
		output = string(bytes.TrimSpace(stderrBytes))
	}

	return Result{
		Output:  output,
		Success: waitErr == nil,
	}
}

// drain reads a pipe to EOF on its own goroutine and delivers the bytes over
// a channel, so both streams are always consumed concurrently.
func drain(pipe io.Reader) <-chan []byte {
	ch := make(chan []byte, 1)
	go func() {
		data, _ := io.ReadAll(pipe)
		ch <- data
	}()
	return ch
}
