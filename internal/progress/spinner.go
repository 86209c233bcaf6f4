// Package progress shows a status line while the CLI waits on GitHub or
// an archive host.
package progress

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/term"
)

// IsTerminalFunc is the function used to check if a file descriptor is a terminal.
// It can be overridden for testing.
var IsTerminalFunc = term.IsTerminal

// spinnerFrames defines the animation characters for the spinner.
var spinnerFrames = []string{"|", "/", "-", "\\"}

// spinnerInterval is the time between spinner frame updates.
const spinnerInterval = 100 * time.Millisecond

const lineWidth = 80

// Spinner displays an animated status line with the elapsed time.
// In non-TTY environments, it prints the message once without animation.
type Spinner struct {
	mu      sync.Mutex
	output  io.Writer
	message string
	started time.Time
	now     func() time.Time
	done    chan struct{}
	wg      sync.WaitGroup
	running bool
	stopped bool
	isTTY   bool
}

// NewSpinner creates a spinner writing to output, or os.Stderr if nil.
func NewSpinner(output io.Writer) *Spinner {
	if output == nil {
		output = os.Stderr
	}
	return &Spinner{
		output: output,
		now:    time.Now,
		done:   make(chan struct{}),
		isTTY:  ShouldShowProgress(),
	}
}

// ShouldShowProgress reports whether stderr is a terminal.
func ShouldShowProgress() bool {
	return IsTerminalFunc(int(os.Stderr.Fd()))
}

// Start begins the animation. A spinner can be started once.
func (s *Spinner) Start(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running || s.stopped {
		return
	}
	s.message = message
	s.started = s.now()
	s.running = true

	if !s.isTTY {
		fmt.Fprintf(s.output, "%s\n", message)
		return
	}

	s.wg.Add(1)
	go s.animate()
}

// SetMessage updates the message while the spinner is running.
func (s *Spinner) SetMessage(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.message = message
	if s.running && !s.isTTY {
		fmt.Fprintf(s.output, "%s\n", message)
	}
}

// Stop halts the animation and clears the line.
func (s *Spinner) Stop() {
	s.stop("")
}

// StopWithMessage halts the animation and prints a final message.
func (s *Spinner) StopWithMessage(message string) {
	s.stop(message)
}

func (s *Spinner) stop(final string) {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	s.mu.Unlock()

	close(s.done)
	s.wg.Wait()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isTTY && s.running {
		fmt.Fprintf(s.output, "\r%s\r", strings.Repeat(" ", lineWidth))
	}
	if final != "" {
		fmt.Fprintf(s.output, "%s\n", final)
	}
}

func (s *Spinner) animate() {
	defer s.wg.Done()
	frame := 0
	ticker := time.NewTicker(spinnerInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.mu.Lock()
			fmt.Fprint(s.output, s.line(frame))
			s.mu.Unlock()
			frame++
		}
	}
}

// line renders one frame. Callers hold s.mu.
func (s *Spinner) line(frame int) string {
	elapsed := s.now().Sub(s.started).Truncate(time.Second)
	line := fmt.Sprintf("\r%s %s (%s)", spinnerFrames[frame%len(spinnerFrames)], s.message, elapsed)
	if len(line) < lineWidth {
		line += strings.Repeat(" ", lineWidth-len(line))
	}
	return line
}
