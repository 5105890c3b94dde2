package mem

import "fmt"

// DefaultTapeSize is the classic tape length.
const DefaultTapeSize = 30000

// MaxTapeSize bounds the tape allocation; 1 GiB of cells.
const MaxTapeSize = 1 << 30

// Tape provides a fixed size array of byte cells with a data pointer that
// may not leave the array. Cell arithmetic wraps modulo 256.
type Tape struct {
	cells []byte
	ptr   int
}

// NewTape allocates a zeroed tape of size cells; non-positive sizes get
// DefaultTapeSize.
func NewTape(size int) *Tape {
	if size <= 0 {
		size = DefaultTapeSize
	}
	return &Tape{cells: make([]byte, size)}
}

// BoundsError indicates that a pointer move would leave the tape.
type BoundsError struct {
	Ptr   int
	Delta int
	Len   int
}

func (bnd BoundsError) Error() string {
	return fmt.Sprintf("pointer out of bounds by move %+d @%v (tape length %v)", bnd.Delta, bnd.Ptr, bnd.Len)
}

// Len returns the number of cells.
func (t *Tape) Len() int { return len(t.cells) }

// Ptr returns the data pointer.
func (t *Tape) Ptr() int { return t.ptr }

// Move shifts the data pointer by delta, returning a BoundsError and leaving
// the pointer unchanged if the result is outside [0, Len).
func (t *Tape) Move(delta int) error {
	to := t.ptr + delta
	if to < 0 || to >= len(t.cells) {
		return BoundsError{t.ptr, delta, len(t.cells)}
	}
	t.ptr = to
	return nil
}

// Add adds delta to the current cell, wrapping.
func (t *Tape) Add(delta byte) { t.cells[t.ptr] += delta }

// Load returns the current cell.
func (t *Tape) Load() byte { return t.cells[t.ptr] }

// Stor sets the current cell.
func (t *Tape) Stor(val byte) { t.cells[t.ptr] = val }

// At returns the cell at addr, or 0 if addr is out of range.
func (t *Tape) At(addr int) byte {
	if addr < 0 || addr >= len(t.cells) {
		return 0
	}
	return t.cells[addr]
}

// WindowBase returns the base address of the size-aligned window that
// contains the data pointer.
func (t *Tape) WindowBase(size int) int {
	if size <= 0 {
		return 0
	}
	return t.ptr / size * size
}

// LoadInto copies cells starting at base into buf, zero filling any part of
// buf past the end of the tape; it returns the number of tape cells copied.
func (t *Tape) LoadInto(base int, buf []byte) int {
	n := 0
	if base >= 0 && base < len(t.cells) {
		n = copy(buf, t.cells[base:])
	}
	for i := range buf[n:] {
		buf[n+i] = 0
	}
	return n
}

// Reset zeroes every cell and the pointer.
func (t *Tape) Reset() {
	for i := range t.cells {
		t.cells[i] = 0
	}
	t.ptr = 0
}
