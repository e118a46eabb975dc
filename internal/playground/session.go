// Package playground holds the state of an editing session: the schema
// source text, the output derived from it, and whether deriving it failed.
package playground

import (
	stderrors "errors"
	"log/slog"

	"github.com/mcncl/schemaplay/internal/clipboard"
	"github.com/mcncl/schemaplay/internal/errors"
)

// Converter derives output from source text. *pipeline.Pipeline implements
// it.
type Converter interface {
	Recompute(source string) (string, error)
	Format(source string) (string, error)
}

// Snapshot is the state after a change.
type Snapshot struct {
	Source string
	Output string
	Failed bool
}

// Session owns the source text and keeps the derived output consistent with
// it. It is not safe for concurrent use; the playground only touches it from
// its event loop.
type Session struct {
	converter Converter
	logger    *slog.Logger

	source string
	output string
	failed bool

	observers map[int]func(Snapshot)
	nextID    int
}

// NewSession creates a session and derives the output of initial.
func NewSession(converter Converter, initial string, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	s := &Session{
		converter: converter,
		logger:    logger,
		observers: make(map[int]func(Snapshot)),
	}
	s.setSource(initial)
	return s
}

// Source returns the schema source text.
func (s *Session) Source() string {
	return s.source
}

// Output returns the derived output: Go source, or the error message when
// Failed is true.
func (s *Session) Output() string {
	return s.output
}

// Failed reports whether the last conversion attempt failed.
func (s *Session) Failed() bool {
	return s.failed
}

// CanFormat reports whether Format is enabled.
func (s *Session) CanFormat() bool {
	return !s.failed
}

// CanCopy reports whether Copy is enabled.
func (s *Session) CanCopy() bool {
	return !s.failed
}

// Snapshot returns the current state.
func (s *Session) Snapshot() Snapshot {
	return Snapshot{Source: s.source, Output: s.output, Failed: s.failed}
}

// SetSource replaces the source text and recomputes the output.
func (s *Session) SetSource(source string) {
	s.setSource(source)
	s.notify()
}

func (s *Session) setSource(source string) {
	s.source = source

	output, err := s.converter.Recompute(source)
	if err != nil {
		s.setError(err)
		return
	}
	s.output = output
	s.failed = false
}

func (s *Session) setError(err error) {
	var convErr *errors.ConversionError
	if !stderrors.As(err, &convErr) {
		convErr = errors.NewConversionError(errors.ErrorTypeUnknown, err)
	}
	s.output = convErr.Error()
	s.failed = true
}

// Format replaces the source text with its canonical form and recomputes.
// It does nothing and returns false while the session has failed. When
// formatting fails the source is kept and the error is shown instead.
func (s *Session) Format() bool {
	if !s.CanFormat() {
		return false
	}

	formatted, err := s.converter.Format(s.source)
	if err != nil {
		s.logger.Debug("format failed", "error", err)
		s.setError(err)
		s.notify()
		return true
	}

	s.SetSource(formatted)
	return true
}

// Copy writes the output to the clipboard. It does nothing and returns
// false while the session has failed. Clipboard errors are logged only.
func (s *Session) Copy(w clipboard.Writer) bool {
	if !s.CanCopy() {
		return false
	}

	if err := w.Write(s.output); err != nil {
		s.logger.Warn("failed to copy output", "error", err)
	}
	return true
}

// Subscribe registers fn to be called after every change. The returned
// func unregisters it.
func (s *Session) Subscribe(fn func(Snapshot)) func() {
	id := s.nextID
	s.nextID++
	s.observers[id] = fn
	return func() {
		delete(s.observers, id)
	}
}

func (s *Session) notify() {
	snapshot := s.Snapshot()
	for _, fn := range s.observers {
		fn(snapshot)
	}
}
