//go:build linux || darwin || freebsd || netbsd || openbsd

package term

import (
	"errors"
	"os"
	"sync"

	"golang.org/x/sys/unix"

	"github.com/pkg/term/termios"
)

// Terminal switches an input terminal between its original (canonical) mode
// and raw mode.
type Terminal struct {
	input *os.File

	canAttr unix.Termios
	rawAttr unix.Termios

	mu  sync.Mutex
	raw bool
}

// Open captures the current attributes of the terminal on input.
func Open(input *os.File) (*Terminal, error) {
	if !IsTerminal(input) {
		return nil, errors.New("input is not a TTY")
	}
	t := &Terminal{input: input}
	if err := termios.Tcgetattr(input.Fd(), &t.canAttr); err != nil {
		return nil, err
	}
	t.rawAttr = t.canAttr
	termios.Cfmakeraw(&t.rawAttr)
	return t, nil
}

// RawMode puts the terminal into raw mode.
func (t *Terminal) RawMode() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := termios.Tcsetattr(t.input.Fd(), termios.TCIFLUSH, &t.rawAttr); err != nil {
		return err
	}
	t.raw = true
	return nil
}

// CanonicalMode restores the attributes captured by Open; it is safe to call
// more than once, and from a signal handling goroutine.
func (t *Terminal) CanonicalMode() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.raw {
		return nil
	}
	t.raw = false
	return termios.Tcsetattr(t.input.Fd(), termios.TCIFLUSH, &t.canAttr)
}

// Raw returns true while the terminal is in raw mode.
func (t *Terminal) Raw() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.raw
}
