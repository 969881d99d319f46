package display

import (
	"strings"
	"sync/atomic"

	"github.com/pterm/pterm"
)

var quiet atomic.Bool

// SetQuiet disables spinners, for JSON logging or non-interactive output.
func SetQuiet(q bool) {
	quiet.Store(q)
}

// Spinner is a progress spinner that can persist intermediate steps.
// A nil printer means spinners are disabled; warnings are still collected.
type Spinner struct {
	printer  *pterm.SpinnerPrinter
	text     string
	warnings []string
}

// Outcome is how a spinner ended.
type Outcome int

const (
	Succeeded Outcome = iota
	Warned
	Failed
)

// WithSpinner runs fn behind a spinner showing text. On success the spinner
// ends with text. If fn reported warnings through Warn it ends with
// "warningText: warnings" instead, and on failure with "errorText: err".
// Warnings never turn into an error.
func WithSpinner(text, errorText, warningText string, fn func(*Spinner) error) error {
	s := &Spinner{text: text}
	if !quiet.Load() {
		s.printer, _ = pterm.DefaultSpinner.Start(text)
	}

	err := fn(s)
	outcome, msg := s.result(err, errorText, warningText)
	if s.printer != nil {
		switch outcome {
		case Failed:
			s.printer.Fail(msg)
		case Warned:
			s.printer.Warning(msg)
		default:
			s.printer.Success(msg)
		}
	}
	return err
}

// result decides how the spinner ends and the line it leaves behind.
func (s *Spinner) result(err error, errorText, warningText string) (Outcome, string) {
	if err != nil {
		return Failed, errorText + ": " + err.Error()
	}
	if len(s.warnings) > 0 {
		return Warned, warningText + ": " + strings.Join(s.warnings, "; ")
	}
	return Succeeded, s.text
}

// Step persists "subject text" above the spinner and keeps it spinning.
func Step(s *Spinner, subject, text string) {
	if s == nil || s.printer == nil {
		return
	}
	line := subject
	if text != "" {
		line = subject + " " + text
	}
	s.printer.Info(pterm.FgGray.Sprint(line))
	s.printer, _ = s.printer.Start(s.text)
}

// Warn records a warning. The spinner ends with a warning instead of success.
func (s *Spinner) Warn(msg string) {
	if s == nil {
		return
	}
	s.warnings = append(s.warnings, msg)
}

// Warnings returns the warnings recorded so far.
func (s *Spinner) Warnings() []string {
	if s == nil {
		return nil
	}
	return s.warnings
}

// Update changes the spinner text.
func (s *Spinner) Update(text string) {
	if s == nil || s.printer == nil {
		return
	}
	s.text = text
	s.printer.UpdateText(text)
}
