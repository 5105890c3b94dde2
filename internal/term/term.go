// Package term adapts an interactive terminal for the editor front end:
// raw mode switching, key decoding, and newline translation for output
// written while in raw mode.
package term

import (
	"os"

	xterm "golang.org/x/term"
)

// IsTerminal returns true if f is connected to a terminal.
func IsTerminal(f *os.File) bool {
	return f != nil && xterm.IsTerminal(int(f.Fd()))
}

// Width returns the column count of the terminal on f, or fallback if it
// cannot be determined.
func Width(f *os.File, fallback int) int {
	if f == nil {
		return fallback
	}
	if w, _, err := xterm.GetSize(int(f.Fd())); err == nil && w > 0 {
		return w
	}
	return fallback
}
