package main

import (
	"bytes"
	"fmt"
	"io"
	"strconv"

	"github.com/jcorbin/gobf/internal/vm"
)

type cellClass int

const (
	cellEmpty cellClass = iota
	cellNonzero
	cellPointer
)

// tapeDumper renders a tape snapshot as rows of cells, skipping rows that
// are entirely zero and do not hold the data pointer.
type tapeDumper struct {
	out  io.Writer
	tape vm.TapeEvent

	perRow    int
	addrWidth int

	// style, if non-nil, decorates each rendered cell
	style func(cls cellClass, s string) string
}

func (dump tapeDumper) dump() {
	if dump.perRow <= 0 {
		dump.perRow = 16
	}
	if dump.addrWidth == 0 {
		dump.addrWidth = len(strconv.Itoa(dump.tape.Base+vm.WindowSize)) + 1
	}

	var val byte
	if i := dump.tape.Ptr - dump.tape.Base; i >= 0 && i < vm.WindowSize {
		val = dump.tape.Window[i]
	}
	fmt.Fprintf(dump.out, "# Tape @%v ptr=%v cell=%v\n", dump.tape.Base, dump.tape.Ptr, val)

	var buf lineBuffer
	end := dump.tape.Base + vm.WindowSize
	for addr := dump.tape.Base; addr < end; {
		fmt.Fprintf(&buf, "  @% *v ", dump.addrWidth, addr)
		n := buf.Len()

		addr = dump.formatRow(&buf, addr)
		if buf.Len() == n {
			buf.Reset()
		} else {
			buf.WriteTo(dump.out)
		}
	}
}

func (dump tapeDumper) formatRow(buf *lineBuffer, addr int) int {
	end := min(addr+dump.perRow, dump.tape.Base+vm.WindowSize)
	cells := dump.tape.Window[addr-dump.tape.Base : end-dump.tape.Base]

	ptr := dump.tape.Ptr
	if ptr < addr || ptr >= end {
		empty := true
		for _, c := range cells {
			if c != 0 {
				empty = false
				break
			}
		}
		if empty {
			return end
		}
	}

	for i, c := range cells {
		at := addr + i
		switch {
		case at == ptr:
			buf.WriteByte('[')
		case at == ptr+1:
			buf.WriteByte(']')
		default:
			buf.WriteByte(' ')
		}
		s := fmt.Sprintf("%3d", c)
		if dump.style != nil {
			cls := cellEmpty
			if at == ptr {
				cls = cellPointer
			} else if c != 0 {
				cls = cellNonzero
			}
			s = dump.style(cls, s)
		}
		buf.WriteString(s)
	}
	if ptr == end-1 {
		buf.WriteByte(']')
	}
	return end
}

// lineBuffer accumulates a line of output, terminating it on WriteTo.
type lineBuffer struct{ bytes.Buffer }

func (buf *lineBuffer) WriteTo(w io.Writer) (int64, error) {
	if b := buf.Bytes(); len(b) > 0 && b[len(b)-1] != '\n' {
		buf.WriteByte('\n')
	}
	return buf.Buffer.WriteTo(w)
}

func dumpTape(tape vm.TapeEvent) string {
	var sb bytes.Buffer
	tapeDumper{out: &sb, tape: tape}.dump()
	return sb.String()
}
