// Package ui provides terminal output for starmirror commands. Components
// receive a *UI at construction instead of logging through package globals, so
// the run entry point owns the output lifecycle.
package ui

import (
	"fmt"
	"io"
	"os"
)

// UI writes human-readable progress and outcome lines.
type UI struct {
	Verbose bool
	Quiet   bool
	out     io.Writer
}

// New creates a UI writing to stdout.
func New(verbose, quiet bool) *UI {
	return &UI{Verbose: verbose, Quiet: quiet, out: os.Stdout}
}

// NewWriter creates a UI writing to w. Used by tests.
func NewWriter(w io.Writer, verbose, quiet bool) *UI {
	return &UI{Verbose: verbose, Quiet: quiet, out: w}
}

// Printf prints formatted output if not in quiet mode
func (u *UI) Printf(format string, args ...interface{}) {
	if !u.Quiet {
		fmt.Fprintf(u.out, format, args...)
	}
}

// Info prints an informational line
func (u *UI) Info(format string, args ...interface{}) {
	if !u.Quiet {
		fmt.Fprintf(u.out, "%s %s\n", ColorInfo("·"), fmt.Sprintf(format, args...))
	}
}

// Success prints a success line
func (u *UI) Success(format string, args ...interface{}) {
	if !u.Quiet {
		fmt.Fprintf(u.out, "%s %s\n", ColorSuccess("✓"), fmt.Sprintf(format, args...))
	}
}

// Warning prints a warning line
func (u *UI) Warning(format string, args ...interface{}) {
	if !u.Quiet {
		fmt.Fprintf(u.out, "%s %s\n", ColorWarning("⚠"), fmt.Sprintf(format, args...))
	}
}

// Error prints an error line. Errors print even in quiet mode.
func (u *UI) Error(format string, args ...interface{}) {
	fmt.Fprintf(u.out, "%s %s\n", ColorError("✗"), fmt.Sprintf(format, args...))
}

// VerbosePrintf prints formatted output only in verbose mode
func (u *UI) VerbosePrintf(format string, args ...interface{}) {
	if u.Verbose && !u.Quiet {
		fmt.Fprintf(u.out, format, args...)
	}
}
