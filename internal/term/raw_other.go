//go:build !(linux || darwin || freebsd || netbsd || openbsd)

package term

import (
	"errors"
	"os"
)

// Terminal is unsupported on this platform.
type Terminal struct{}

// Open always fails on this platform.
func Open(input *os.File) (*Terminal, error) {
	return nil, errors.New("raw terminal mode is not supported on this platform")
}

// RawMode does nothing.
func (t *Terminal) RawMode() error { return nil }

// CanonicalMode does nothing.
func (t *Terminal) CanonicalMode() error { return nil }

// Raw is always false.
func (t *Terminal) Raw() bool { return false }
