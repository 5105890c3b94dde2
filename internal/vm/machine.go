package vm

import (
	"time"

	"github.com/jcorbin/gobf/internal/mem"
	"github.com/jcorbin/gobf/internal/program"
)

// machineIO is how the machine performs its two effectful ops.
type machineIO interface {
	output(b byte) error
	input() (Input, error)
}

// session is the state of a single run; it is owned by the run's worker
// goroutine and dropped when the run halts.
type session struct {
	prog *program.Program
	tape *mem.Tape
	pc   int

	steps    uint64
	start    time.Time
	deadline time.Time

	input []byte
}

func newSession(prog *program.Program, cfg Config) *session {
	sess := &session{
		prog:  prog,
		tape:  mem.NewTape(cfg.TapeSize),
		start: time.Now(),
	}
	if cfg.Timeout > 0 {
		sess.deadline = sess.start.Add(cfg.Timeout)
	}
	if len(cfg.Input) > 0 {
		sess.input = append([]byte(nil), cfg.Input...)
	}
	return sess
}

func (sess *session) done() bool { return sess.pc >= len(sess.prog.Ops) }

// step executes the op under the cursor and advances the cursor; the step
// count only advances if the op completes.
func (sess *session) step(sys machineIO) error {
	pc := sess.pc
	op := sess.prog.Ops[pc]
	switch op {
	case program.OpRight, program.OpLeft:
		delta := 1
		if op == program.OpLeft {
			delta = -1
		}
		if err := sess.tape.Move(delta); err != nil {
			bnd, _ := err.(mem.BoundsError)
			return &PointerError{Pos: pc, Ptr: sess.tape.Ptr(), Op: op, Err: bnd}
		}

	case program.OpInc:
		sess.tape.Add(1)

	case program.OpDec:
		sess.tape.Add(0xff)

	case program.OpOutput:
		if err := sys.output(sess.tape.Load()); err != nil {
			return err
		}

	case program.OpInput:
		in, err := sess.read(sys)
		if err != nil {
			return err
		}
		if in.EOF {
			sess.tape.Stor(0)
		} else {
			sess.tape.Stor(in.Byte)
		}

	case program.OpOpen:
		if sess.tape.Load() == 0 {
			if err := sess.jump(pc); err != nil {
				return err
			}
		}

	case program.OpClose:
		if sess.tape.Load() != 0 {
			if err := sess.jump(pc); err != nil {
				return err
			}
		}
	}
	sess.pc++
	sess.steps++
	return nil
}

// read takes pre-buffered input first, then asks sys.
func (sess *session) read(sys machineIO) (Input, error) {
	if len(sess.input) > 0 {
		b := sess.input[0]
		sess.input = sess.input[1:]
		return Input{Byte: b}, nil
	}
	in, err := sys.input()
	if err == nil && in.Err != nil {
		err = &IOError{in.Err}
	}
	return in, err
}

func (sess *session) jump(pc int) error {
	to := -1
	if pc < len(sess.prog.Jump) {
		to = sess.prog.Jump[pc]
	}
	if to < 0 || to >= len(sess.prog.Ops) {
		return &BracketError{Pos: pc}
	}
	sess.pc = to
	return nil
}

// snapshot captures the tape window around the data pointer.
func (sess *session) snapshot() (ev TapeEvent) {
	ev.Ptr = sess.tape.Ptr()
	ev.Base = sess.tape.WindowBase(WindowSize)
	sess.tape.LoadInto(ev.Base, ev.Window[:])
	return ev
}
