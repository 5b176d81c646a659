package cli

import (
	"io"
	"time"

	"github.com/briandowns/spinner"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// NewKeyValueTable creates a two-column table with the standard styling.
func NewKeyValueTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{
		text.FgHiCyan.Sprint("FIELD"),
		text.FgHiCyan.Sprint("VALUE"),
	})
	return t
}

// Spinner is a progress indicator that does nothing when output is quiet.
type Spinner struct {
	s *spinner.Spinner
}

// StartSpinner starts a spinner writing to w with the given suffix. When
// quiet is set the returned Spinner is inert.
func StartSpinner(w io.Writer, suffix string, quiet bool) *Spinner {
	if quiet {
		return &Spinner{}
	}
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(w))
	s.Suffix = " " + suffix
	s.Start()
	return &Spinner{s: s}
}

// Stop stops the spinner and prints msg in its place, if non-empty.
func (s *Spinner) Stop(msg string) {
	if s == nil || s.s == nil {
		return
	}
	if msg != "" {
		s.s.FinalMSG = msg + "\n"
	}
	s.s.Stop()
}

// Success formats a success line.
func Success(msg string) string {
	return text.FgGreen.Sprint("✓ ") + msg
}

// Failure formats a failure line.
func Failure(msg string) string {
	return text.FgRed.Sprint("✗ ") + msg
}

// Warning formats a warning line.
func Warning(msg string) string {
	return text.FgYellow.Sprint(msg)
}
