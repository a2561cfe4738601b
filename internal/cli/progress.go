// Package cli provides terminal helpers for lifectl: progress bars, spinners
// and colored status lines.
package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// Color codes for terminal output
const (
	ColorReset  = "\033[0m"
	ColorRed    = "\033[31m"
	ColorGreen  = "\033[32m"
	ColorYellow = "\033[33m"
	ColorCyan   = "\033[36m"
	ColorBold   = "\033[1m"
)

// ProgressBar tracks generations received out of a requested total.
type ProgressBar struct {
	total     int
	current   int
	width     int
	prefix    string
	mu        sync.Mutex
	writer    io.Writer
	startTime time.Time
	colorize  bool
}

// NewProgressBar creates a progress bar writing to w.
func NewProgressBar(w io.Writer, total int, prefix string) *ProgressBar {
	if total < 1 {
		total = 1
	}
	return &ProgressBar{
		total:     total,
		width:     40,
		prefix:    prefix,
		writer:    w,
		startTime: time.Now(),
		colorize:  IsTerminal(w),
	}
}

// SetWidth sets the width of the bar in characters.
func (pb *ProgressBar) SetWidth(width int) *ProgressBar {
	pb.width = max(width, 1)
	return pb
}

// DisableColor disables colored output
func (pb *ProgressBar) DisableColor() *ProgressBar {
	pb.colorize = false
	return pb
}

// Increment advances the bar by one generation.
func (pb *ProgressBar) Increment() {
	pb.mu.Lock()
	defer pb.mu.Unlock()

	pb.current = min(pb.current+1, pb.total)
	pb.render()
}

// Current returns the number of generations counted so far.
func (pb *ProgressBar) Current() int {
	pb.mu.Lock()
	defer pb.mu.Unlock()
	return pb.current
}

// Finish draws the final state and ends the line. A stream that stopped at
// the increment limit leaves the bar short of full.
func (pb *ProgressBar) Finish() {
	pb.mu.Lock()
	defer pb.mu.Unlock()

	pb.render()
	fmt.Fprintln(pb.writer)
}

func (pb *ProgressBar) render() {
	percent := float64(pb.current) / float64(pb.total)
	filled := int(float64(pb.width) * percent)

	bar := strings.Repeat("#", filled) + strings.Repeat("-", pb.width-filled)
	if pb.colorize {
		switch {
		case percent < 0.5:
			bar = ColorYellow + bar + ColorReset
		case percent < 1.0:
			bar = ColorCyan + bar + ColorReset
		default:
			bar = ColorGreen + bar + ColorReset
		}
	}

	output := fmt.Sprintf("\r%s [%s] %d/%d", pb.prefix, bar, pb.current, pb.total)
	if pb.current > 0 {
		output += " | " + formatDuration(time.Since(pb.startTime))
	}
	fmt.Fprint(pb.writer, output)
}

// Spinner shows activity while a request such as final is in flight.
type Spinner struct {
	frames   []string
	current  int
	prefix   string
	mu       sync.Mutex
	writer   io.Writer
	active   bool
	colorize bool
	done     chan struct{}
	stopped  chan struct{}
}

// NewSpinner creates a spinner writing to w.
func NewSpinner(w io.Writer, prefix string) *Spinner {
	return &Spinner{
		frames:   []string{"|", "/", "-", "\\"},
		prefix:   prefix,
		writer:   w,
		colorize: IsTerminal(w),
	}
}

// Start starts the spinner; calling it twice is a no-op.
func (s *Spinner) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active {
		return
	}
	s.active = true
	s.done = make(chan struct{})
	s.stopped = make(chan struct{})

	go func(done, stopped chan struct{}) {
		defer close(stopped)
		ticker := time.NewTicker(100 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.mu.Lock()
				s.render()
				s.current = (s.current + 1) % len(s.frames)
				s.mu.Unlock()
			case <-done:
				return
			}
		}
	}(s.done, s.stopped)
}

// Stop stops the spinner and clears its line.
func (s *Spinner) Stop() {
	s.mu.Lock()
	if !s.active {
		s.mu.Unlock()
		return
	}
	s.active = false
	close(s.done)
	stopped := s.stopped
	s.mu.Unlock()

	<-stopped
	fmt.Fprint(s.writer, "\r"+strings.Repeat(" ", len(s.prefix)+2)+"\r")
}

func (s *Spinner) render() {
	frame := s.frames[s.current]
	if s.colorize {
		frame = ColorCyan + frame + ColorReset
	}
	fmt.Fprintf(s.writer, "\r%s %s", frame, s.prefix)
}

// Colorize wraps text in color when w is a terminal.
func Colorize(w io.Writer, text, color string) string {
	if !IsTerminal(w) {
		return text
	}
	return color + text + ColorReset
}

// Success prints a success line.
func Success(w io.Writer, message string) {
	fmt.Fprintf(w, "%s %s\n", Colorize(w, "ok", ColorGreen), message)
}

// Warning prints a warning line.
func Warning(w io.Writer, message string) {
	fmt.Fprintf(w, "%s %s\n", Colorize(w, "warning", ColorYellow), message)
}

// Error prints an error line.
func Error(w io.Writer, message string) {
	fmt.Fprintf(w, "%s %s\n", Colorize(w, "error", ColorRed), message)
}

// IsTerminal reports whether w is a character device.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return "< 1s"
	}
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
}
