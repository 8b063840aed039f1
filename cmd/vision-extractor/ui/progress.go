package ui

import (
	"io"
	"time"

	"github.com/briandowns/spinner"
)

// Spinner wraps a spinner instance for indeterminate progress display.
type Spinner struct {
	spinner *spinner.Spinner
	active  bool
}

// NewSpinner creates a new spinner with the given message.
func NewSpinner(w io.Writer, message string) *Spinner {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	s.Suffix = " " + message
	s.Writer = w
	return &Spinner{spinner: s}
}

// Start starts the spinner animation.
func (s *Spinner) Start() {
	if s.active {
		return
	}
	s.active = true
	s.spinner.Start()
}

// Stop stops the spinner animation and clears the line. Safe to call when
// not started.
func (s *Spinner) Stop() {
	if !s.active {
		return
	}
	s.active = false
	s.spinner.Stop()
}
