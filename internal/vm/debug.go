package vm

import (
	"bytes"
	"fmt"
	"io"

	"github.com/jcorbin/gobf/internal/program"
)

// debugTable renders one row per executed step; it also stands in for the
// run's I/O, suppressing output and reading every input as EOF.
type debugTable struct {
	out io.Writer
	buf bytes.Buffer
}

func (dt *debugTable) header() error {
	dt.buf.WriteString("STEP | IP  | PTR | CELL | INSTR | ACTION\n")
	dt.buf.WriteString("-----+-----+-----+------+-------+------------------------------------------------\n")
	return dt.flush()
}

func (dt *debugTable) output(b byte) error  { return nil }
func (dt *debugTable) input() (Input, error) { return Input{EOF: true}, nil }

// row describes the step that just moved sess from pc with the data pointer
// at ptr holding cell.
func (dt *debugTable) row(sess *session, pc, ptr int, cell byte) error {
	op := sess.prog.Ops[pc]
	fmt.Fprintf(&dt.buf, "%-4d | %-3d | %-3d | %-4d |  %v    | ", sess.steps-1, pc, ptr, cell, op)
	now := sess.tape.Load()
	switch op {
	case program.OpRight, program.OpLeft:
		fmt.Fprintf(&dt.buf, "Moved pointer head to index %d", sess.tape.Ptr())
	case program.OpInc:
		fmt.Fprintf(&dt.buf, "Increment cell[%d] from %d to %d", ptr, cell, now)
	case program.OpDec:
		fmt.Fprintf(&dt.buf, "Decrement cell[%d] from %d to %d", ptr, cell, now)
	case program.OpOutput:
		fmt.Fprintf(&dt.buf, "Output byte %q (suppressed in debug)", rune(cell))
	case program.OpInput:
		dt.buf.WriteString("Read byte -> simulated EOF (set cell to 0)")
	case program.OpOpen:
		if cell == 0 {
			fmt.Fprintf(&dt.buf, "Cell is 0; jump forward to matching ']' at IP %d", sess.prog.Jump[pc])
		} else {
			dt.buf.WriteString("Enter loop (cell != 0)")
		}
	case program.OpClose:
		if cell != 0 {
			fmt.Fprintf(&dt.buf, "Cell != 0; jump back to matching '[' at IP %d", sess.prog.Jump[pc])
		} else {
			dt.buf.WriteString("Exit loop (cell is 0)")
		}
	}
	dt.buf.WriteByte('\n')
	if dt.buf.Len() >= 32*1024 {
		return dt.flush()
	}
	return nil
}

func (dt *debugTable) flush() error {
	if dt.buf.Len() == 0 {
		return nil
	}
	_, err := dt.buf.WriteTo(dt.out)
	return err
}
