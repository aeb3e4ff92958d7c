package output

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-isatty"
)

// writerIsTTY returns true if the given writer exposes an Fd() method
// (e.g. *os.File) and that fd is a terminal. Falls back to false for
// plain io.Writer values such as *bytes.Buffer.
func writerIsTTY(w io.Writer) bool {
	type fder interface {
		Fd() uintptr
	}
	if f, ok := w.(fder); ok {
		return isatty.IsTerminal(f.Fd())
	}
	return false
}

// Spinner displays an animated spinner with a message while an external
// command runs. Example: |  Installing wget...
type Spinner struct {
	message    string
	running    bool
	chars      []string
	mu         sync.Mutex
	writer     io.Writer
	ticker     *time.Ticker
	done       chan struct{}
	timeout    time.Duration
	startTime  time.Time
	showTiming bool
}

// NewSpinner creates a new spinner with a message.
// If stdout is not a TTY, the animation goroutine is skipped and the
// message is printed once so that log output is not cluttered.
func NewSpinner(message string) *Spinner {
	return &Spinner{
		message: message,
		chars:   []string{"|", "/", "-", "\\"},
		writer:  os.Stdout,
		done:    make(chan struct{}),
	}
}

// WithTimeout configures the spinner to show remaining time against the
// given deadline, matching the timeout the command actually runs under.
// Must be called before Start(); returns the spinner for chaining.
func (s *Spinner) WithTimeout(timeout time.Duration) *Spinner {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.timeout = timeout
	s.showTiming = true
	return s
}

// SetWriter sets the output writer (useful for testing).
func (s *Spinner) SetWriter(w io.Writer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writer = w
}

// Start begins the spinner animation.
// On a non-TTY writer the animation goroutine is not started; the message
// is printed once instead so that non-interactive output stays clean.
func (s *Spinner) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return
	}

	s.running = true
	s.startTime = time.Now()

	if !writerIsTTY(s.writer) {
		fmt.Fprintf(s.writer, "%s...\n", s.message)
		return
	}

	s.ticker = time.NewTicker(100 * time.Millisecond)

	go func() {
		idx := 0
		for {
			select {
			case <-s.ticker.C:
				s.mu.Lock()
				if !s.running {
					s.mu.Unlock()
					return
				}
				msg := s.formatMessage()
				fmt.Fprintf(s.writer, "\r%s  %s", s.chars[idx], msg)
				idx = (idx + 1) % len(s.chars)
				s.mu.Unlock()

			case <-s.done:
				return
			}
		}
	}()
}

// formatMessage returns the spinner message with optional timing
// information. Must be called with lock held.
func (s *Spinner) formatMessage() string {
	if !s.showTiming {
		return s.message
	}

	elapsed := time.Since(s.startTime)
	if s.timeout > 0 {
		remaining := s.timeout - elapsed
		if remaining < 0 {
			remaining = 0
		}
		return fmt.Sprintf("%s (%ds remaining)", s.message, int(remaining.Seconds()))
	}
	return fmt.Sprintf("%s (%ds elapsed)", s.message, int(elapsed.Seconds()))
}

// UpdateMessage updates the spinner message while it's running.
func (s *Spinner) UpdateMessage(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.message = message
}

// Stop stops the spinner animation and clears the line.
func (s *Spinner) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}

	s.running = false
	if s.ticker != nil {
		s.ticker.Stop()
	}
	close(s.done)

	// Clear the line only on a TTY; on non-TTY the \r does not overwrite.
	if writerIsTTY(s.writer) {
		fmt.Fprintf(s.writer, "\r%s\r", strings.Repeat(" ", len(s.message)+4))
	}
}

// StopWithMessage stops the spinner and displays a final message.
func (s *Spinner) StopWithMessage(message string) {
	s.Stop()
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintln(s.writer, message)
}
