// Package terminal decides whether output goes to a terminal and whether colour may be
// used there.
package terminal

import (
	"os"
	"strings"

	"golang.org/x/term"
)

// Info holds the resolved terminal state for the current process.
type Info struct {
	// IsTerminal is true when stdout is connected to a TTY.
	IsTerminal bool
	// StderrIsTerminal is true when stderr is connected to a TTY; log lines are
	// coloured only then.
	StderrIsTerminal bool
	// ColorEnabled is true when ANSI colours should be emitted on stdout.
	ColorEnabled bool
	// LogColorEnabled is true when ANSI colours should be emitted in log lines.
	LogColorEnabled bool
}

// Detect inspects the environment. noColor is the --no-color flag; the NO_COLOR
// convention (https://no-color.org/) and TERM=dumb disable colour as well.
func Detect(noColor bool) Info {
	isTTY := term.IsTerminal(int(os.Stdout.Fd()))
	stderrTTY := term.IsTerminal(int(os.Stderr.Fd()))

	allowed := !noColor && os.Getenv("NO_COLOR") == "" && !IsDumb()

	return Info{
		IsTerminal:       isTTY,
		StderrIsTerminal: stderrTTY,
		ColorEnabled:     isTTY && allowed,
		LogColorEnabled:  stderrTTY && allowed,
	}
}

// IsDumb returns true when the terminal is known to have no capabilities
// (e.g. TERM=dumb or running inside Emacs).
func IsDumb() bool {
	t := strings.ToLower(os.Getenv("TERM"))
	return t == "dumb" || t == ""
}
