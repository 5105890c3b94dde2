// Package flushio provides buffered program output sinks that are flushed at
// well defined points: before input is requested and when a run halts.
package flushio

import (
	"bufio"
	"fmt"
	"io"
)

// WriteFlusher is a flush-able io.Writer.
type WriteFlusher interface {
	io.Writer
	Flush() error
}

var discardWriteFlusher WriteFlusher = nopFlusher{io.Discard}

// NewWriteFlusher creates a new flushable writer: in memory buffers and the
// discard writer get a noop Flush, an existing WriteFlusher is returned
// as-is, and anything else is wrapped by a bufio.Writer.
func NewWriteFlusher(w io.Writer) WriteFlusher {
	if w == nil || w == io.Discard {
		return discardWriteFlusher
	}

	if wf, is := w.(WriteFlusher); is {
		return wf
	}

	// bytes.Buffer and strings.Builder need no flushing
	type buffer interface {
		io.Writer
		Len() int
		Grow(n int)
		Reset()
	}
	if _, isBuffer := w.(buffer); isBuffer {
		return nopFlusher{w}
	}

	return bufio.NewWriter(w)
}

type nopFlusher struct{ io.Writer }

func (nf nopFlusher) Flush() error { return nil }

// Sink writes program output to a WriteFlusher, tracking whether the last
// byte written ended a line.
type Sink struct {
	WriteFlusher
	n        int64
	lastByte byte
}

// NewSink returns a Sink writing to w, copied into any tee writers.
func NewSink(w io.Writer, tee ...io.Writer) *Sink {
	primary := NewWriteFlusher(w)
	if len(tee) == 0 {
		return &Sink{WriteFlusher: primary}
	}
	t := &teeFlusher{primary: primary}
	for _, c := range tee {
		if c != nil {
			t.copies = append(t.copies, NewWriteFlusher(c))
		}
	}
	return &Sink{WriteFlusher: t}
}

// teeFlusher copies writes to its primary into zero or more copies. A copy
// that fails is dropped, so output keeps reaching the primary; the copy's
// error is returned by the next Flush.
type teeFlusher struct {
	primary WriteFlusher
	copies  []WriteFlusher
	err     error
}

func (t *teeFlusher) Write(p []byte) (int, error) {
	n, err := t.primary.Write(p)
	if err != nil {
		return n, err
	}
	if n != len(p) {
		return n, io.ErrShortWrite
	}
	kept := t.copies[:0]
	for _, c := range t.copies {
		if cn, cerr := c.Write(p); cerr != nil || cn != len(p) {
			if cerr == nil {
				cerr = io.ErrShortWrite
			}
			t.drop(cerr)
			continue
		}
		kept = append(kept, c)
	}
	t.copies = kept
	return n, nil
}

func (t *teeFlusher) Flush() error {
	err := t.primary.Flush()
	kept := t.copies[:0]
	for _, c := range t.copies {
		if cerr := c.Flush(); cerr != nil {
			t.drop(cerr)
			continue
		}
		kept = append(kept, c)
	}
	t.copies = kept
	if err == nil {
		err, t.err = t.err, nil
	}
	return err
}

func (t *teeFlusher) drop(err error) {
	if t.err == nil {
		t.err = fmt.Errorf("tee: %w", err)
	}
}

func (s *Sink) Write(p []byte) (int, error) {
	n, err := s.WriteFlusher.Write(p)
	if n > 0 {
		s.n += int64(n)
		s.lastByte = p[n-1]
	}
	return n, err
}

// AtLineStart returns true if nothing was written or the last byte written
// was a line feed.
func (s *Sink) AtLineStart() bool { return s.n == 0 || s.lastByte == '\n' }
