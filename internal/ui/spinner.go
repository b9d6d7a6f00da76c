package ui

import (
	"io"
	"os"
	"time"

	"github.com/briandowns/spinner"
)

// ProgressReporter receives progress messages from long-running work such
// as a batch run or an agent turn.
type ProgressReporter interface {
	Update(message string)
	Stop()
}

// SpinnerProgress implements ProgressReporter using briandowns/spinner
type SpinnerProgress struct {
	spinner *spinner.Spinner
}

// NewSpinnerProgress creates a spinner that writes to w, or to stderr when
// w is nil so stdout stays clean for reports.
func NewSpinnerProgress(w io.Writer) *SpinnerProgress {
	if w == nil {
		w = os.Stderr
	}
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(w))
	s.Prefix = "  "
	_ = s.Color("cyan", "bold")

	return &SpinnerProgress{
		spinner: s,
	}
}

// Start starts the spinner with an initial message
func (sp *SpinnerProgress) Start(message string) {
	sp.Update(message)
	sp.spinner.Start()
}

func (sp *SpinnerProgress) Update(message string) {
	sp.spinner.Lock()
	sp.spinner.Suffix = "  " + message
	sp.spinner.Unlock()
}

// Message returns the current spinner message.
func (sp *SpinnerProgress) Message() string {
	sp.spinner.Lock()
	defer sp.spinner.Unlock()
	return sp.spinner.Suffix
}

// Stop stops the spinner. It is safe to call more than once.
func (sp *SpinnerProgress) Stop() {
	if sp.spinner.Active() {
		sp.spinner.Stop()
	}
}
