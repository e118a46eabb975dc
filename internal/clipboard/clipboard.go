// Package clipboard writes text to the system clipboard.
package clipboard

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/atotto/clipboard"
	"github.com/muesli/termenv"
)

// Writer puts text on a clipboard.
type Writer interface {
	Write(text string) error
}

var (
	_ Writer = (*System)(nil)
	_ Writer = (*OSC52)(nil)
	_ Writer = (*Recorder)(nil)
)

// System writes to the native clipboard and falls back to an OSC 52 escape
// sequence when no native clipboard is available, e.g. over SSH.
type System struct {
	fallback Writer
}

// NewSystem creates a System writer. The OSC 52 fallback is written to out;
// a nil out disables it.
func NewSystem(out io.Writer) *System {
	s := &System{}
	if out != nil {
		s.fallback = NewOSC52(out)
	}
	return s
}

// Write implements Writer.
func (s *System) Write(text string) error {
	if !clipboard.Unsupported {
		err := clipboard.WriteAll(text)
		if err == nil {
			return nil
		}
		if s.fallback == nil {
			return fmt.Errorf("failed to write clipboard: %w", err)
		}
	}

	if s.fallback == nil {
		return fmt.Errorf("no clipboard available")
	}
	return s.fallback.Write(text)
}

// OSC52 asks the terminal to set the clipboard.
type OSC52 struct {
	output *termenv.Output
}

// NewOSC52 creates an OSC52 writer on the terminal output w.
func NewOSC52(w io.Writer) *OSC52 {
	return &OSC52{output: termenv.NewOutput(w)}
}

// Write implements Writer. Terminals give no acknowledgement, so it never
// fails.
func (o *OSC52) Write(text string) error {
	o.output.Copy(text)
	return nil
}

// Terminal is a terminal file whose writes are serialized. Handing the same
// Terminal to the program renderer and to NewSystem keeps an OSC 52 escape
// from landing in the middle of a frame.
type Terminal struct {
	*os.File

	mu sync.Mutex
}

// NewTerminal wraps f.
func NewTerminal(f *os.File) *Terminal {
	return &Terminal{File: f}
}

// Write writes p in one piece.
func (t *Terminal) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.File.Write(p)
}

// WriteString writes s in one piece.
func (t *Terminal) WriteString(s string) (int, error) {
	return t.Write([]byte(s))
}

// Recorder keeps written text in memory.
type Recorder struct {
	// Err, when set, is returned by Write and nothing is recorded.
	Err error

	mu     sync.Mutex
	writes []string
}

// Write implements Writer.
func (r *Recorder) Write(text string) error {
	if r.Err != nil {
		return r.Err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.writes = append(r.writes, text)
	return nil
}

// Writes returns every recorded text in order.
func (r *Recorder) Writes() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.writes...)
}

// Last returns the most recent text.
func (r *Recorder) Last() (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.writes) == 0 {
		return "", false
	}
	return r.writes[len(r.writes)-1], true
}
