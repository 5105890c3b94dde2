// Package vm implements a cancellable tape machine execution engine.
//
// An Engine runs at most one program at a time on a worker goroutine. Each
// run reports back over its own ordered event channel, ending with exactly
// one HaltedEvent, and may be stopped or suspended awaiting input at any
// point.
package vm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jcorbin/gobf/internal/mem"
	"github.com/jcorbin/gobf/internal/panicerr"
	"github.com/jcorbin/gobf/internal/program"
)

// checkInterval is how many steps run between stop flag and deadline checks.
const checkInterval = 1024

// ErrBusy is returned when starting a run while another is active.
var ErrBusy = errors.New("a program is already running")

// ErrNotAwaiting is returned when providing input that nothing asked for.
var ErrNotAwaiting = errors.New("no input requested")

// Config parameterizes a single run.
type Config struct {
	TapeSize int           // non-positive means mem.DefaultTapeSize
	MaxSteps uint64        // 0 means unlimited
	Timeout  time.Duration // 0 means none
	Input    []byte        // consumed before any NeedsInputEvent

	// CountSuspended makes time spent awaiting input count against Timeout.
	CountSuspended bool
}

// Engine arbitrates runs: it starts them, and routes stop and input
// commands to the active one.
type Engine struct {
	logging
	debug            io.Writer
	outputBatch      int
	snapshotInterval uint64

	mu     sync.Mutex
	active *Run
}

// New creates an Engine with no active run.
func New(opts ...Option) *Engine {
	var e Engine
	defaultOptions.apply(&e)
	Options(opts).apply(&e)
	return &e
}

// Active returns the running Run, or nil.
func (e *Engine) Active() *Run {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.active
}

// Start begins executing prog on a new worker goroutine. Cancelling ctx
// stops the run as if by Stop.
func (e *Engine) Start(ctx context.Context, prog *program.Program, cfg Config) (*Run, error) {
	if prog == nil {
		return nil, errors.New("no program given")
	}
	if cfg.TapeSize > mem.MaxTapeSize {
		return nil, fmt.Errorf("tape size %v exceeds the maximum of %v", cfg.TapeSize, mem.MaxTapeSize)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.active != nil {
		return nil, ErrBusy
	}

	run := &Run{
		events: make(chan Event, 16),
		stop:   make(chan struct{}),
		input:  make(chan Input, 1),
		done:   make(chan struct{}),
	}
	e.active = run

	rn := &runner{
		logging:          e.logging,
		run:              run,
		cfg:              cfg,
		sess:             newSession(prog, cfg),
		outputBatch:      e.outputBatch,
		snapshotInterval: e.snapshotInterval,
	}
	if e.debug != nil {
		rn.debug = &debugTable{out: e.debug}
	}
	unwatch := context.AfterFunc(ctx, run.Stop)

	e.logf(">", "start ops:%v tape:%v max_steps:%v timeout:%v",
		prog.Len(), rn.sess.tape.Len(), cfg.MaxSteps, cfg.Timeout)

	errch := panicerr.Go("tape machine", rn.exec)
	go func() {
		err := <-errch
		unwatch()
		e.mu.Lock()
		if e.active == run {
			e.active = nil
		}
		e.mu.Unlock()
		rn.halt(err)
	}()
	return run, nil
}

// Stop signals the active run to halt with ErrStopped; it does nothing if
// no run is active.
func (e *Engine) Stop() {
	if run := e.Active(); run != nil {
		run.Stop()
	}
}

// ProvideInput answers the active run's outstanding NeedsInputEvent.
func (e *Engine) ProvideInput(in Input) error {
	run := e.Active()
	if run == nil {
		return ErrNotAwaiting
	}
	return run.ProvideInput(in)
}

// Run is the caller's handle on a single execution.
type Run struct {
	events   chan Event
	stop     chan struct{}
	stopOnce sync.Once
	stopped  atomic.Bool
	awaiting atomic.Bool
	input    chan Input
	done     chan struct{}
	halted   HaltedEvent
}

// Events returns the run's ordered event channel. It must be drained: it
// delivers zero or more Output, Tape, and NeedsInput events, then exactly
// one HaltedEvent, then closes.
func (run *Run) Events() <-chan Event { return run.events }

// Done is closed after the run's HaltedEvent has been delivered.
func (run *Run) Done() <-chan struct{} { return run.done }

// Halted returns the run's final event; it is only valid after Done closes.
func (run *Run) Halted() HaltedEvent { return run.halted }

// Stop requests the run to halt; it is idempotent and safe after the run has
// already halted.
func (run *Run) Stop() {
	run.stopOnce.Do(func() {
		run.stopped.Store(true)
		close(run.stop)
	})
}

// Awaiting returns true while a NeedsInputEvent is outstanding.
func (run *Run) Awaiting() bool { return run.awaiting.Load() }

// ProvideInput resumes a run suspended on NeedsInputEvent, returning
// ErrNotAwaiting if no input is outstanding.
func (run *Run) ProvideInput(in Input) error {
	if !run.awaiting.CompareAndSwap(true, false) {
		return ErrNotAwaiting
	}
	run.input <- in
	return nil
}

// runner is the worker side of a Run.
type runner struct {
	logging
	run  *Run
	cfg  Config
	sess *session

	debug            *debugTable
	outputBatch      int
	snapshotInterval uint64
	pending          []byte
}

func (rn *runner) exec() error {
	sess := rn.sess
	sys := machineIO(rn)
	if rn.debug != nil {
		sys = rn.debug
		if err := rn.debug.header(); err != nil {
			return &IOError{err}
		}
	}
	for !sess.done() {
		if limit := rn.cfg.MaxSteps; limit > 0 && sess.steps >= limit {
			return &StepLimitError{Limit: limit}
		}
		if sess.steps%checkInterval == 0 {
			if err := rn.check(); err != nil {
				return err
			}
		}

		pc, ptr, cell := sess.pc, sess.tape.Ptr(), sess.tape.Load()
		if err := sess.step(sys); err != nil {
			return err
		}
		if rn.debug != nil {
			if err := rn.debug.row(sess, pc, ptr, cell); err != nil {
				return &IOError{err}
			}
		}

		if n := rn.snapshotInterval; n > 0 && sess.steps%n == 0 {
			if err := rn.emit(sess.snapshot()); err != nil {
				return err
			}
		}
	}
	return nil
}

// check flushes pending output, and enforces the stop flag and deadline.
func (rn *runner) check() error {
	if err := rn.flush(); err != nil {
		return err
	}
	if rn.run.stopped.Load() {
		return ErrStopped
	}
	if deadline := rn.sess.deadline; !deadline.IsZero() && !time.Now().Before(deadline) {
		return &TimeoutError{Timeout: rn.cfg.Timeout}
	}
	return nil
}

func (rn *runner) output(b byte) error {
	if rn.pending == nil {
		rn.pending = make([]byte, 0, rn.outputBatch)
	}
	rn.pending = append(rn.pending, b)
	if len(rn.pending) >= rn.outputBatch {
		return rn.flush()
	}
	return nil
}

func (rn *runner) input() (Input, error) {
	if err := rn.flush(); err != nil {
		return Input{}, err
	}
	if err := rn.emit(rn.sess.snapshot()); err != nil {
		return Input{}, err
	}

	rn.run.awaiting.Store(true)
	if err := rn.emit(NeedsInputEvent{}); err != nil {
		rn.run.awaiting.Store(false)
		return Input{}, err
	}
	rn.logf("?", "awaiting input @%v", rn.sess.pc)

	suspended := time.Now()
	var expire <-chan time.Time
	if deadline := rn.sess.deadline; rn.cfg.CountSuspended && !deadline.IsZero() {
		timer := time.NewTimer(time.Until(deadline))
		defer timer.Stop()
		expire = timer.C
	}

	select {
	case in := <-rn.run.input:
		if !rn.cfg.CountSuspended && !rn.sess.deadline.IsZero() {
			rn.sess.deadline = rn.sess.deadline.Add(time.Since(suspended))
		}
		return in, nil
	case <-rn.run.stop:
		rn.run.awaiting.Store(false)
		return Input{}, ErrStopped
	case <-expire:
		rn.run.awaiting.Store(false)
		return Input{}, &TimeoutError{Timeout: rn.cfg.Timeout}
	}
}

// emit sends an event unless the run is stopped first.
func (rn *runner) emit(ev Event) error {
	select {
	case rn.run.events <- ev:
		return nil
	case <-rn.run.stop:
		return ErrStopped
	}
}

func (rn *runner) flush() error {
	if len(rn.pending) == 0 {
		return nil
	}
	if err := rn.emit(OutputEvent{Bytes: rn.pending}); err != nil {
		return err
	}
	rn.pending = nil
	return nil
}

// halt delivers any unsent output, a final snapshot, and the HaltedEvent,
// then closes the event channel.
func (rn *runner) halt(err error) {
	if rn.debug != nil {
		if ferr := rn.debug.flush(); err == nil && ferr != nil {
			err = &IOError{ferr}
		}
	}

	sess := rn.sess
	halted := HaltedEvent{
		Reason:  Reason(err),
		Err:     err,
		Steps:   sess.steps,
		Elapsed: time.Since(sess.start),
	}
	rn.logf("#", "halt %v after %v steps in %v: %v", halted.Reason, halted.Steps, halted.Elapsed, err)

	run := rn.run
	if len(rn.pending) > 0 {
		run.events <- OutputEvent{Bytes: rn.pending}
		rn.pending = nil
	}
	run.events <- sess.snapshot()
	run.halted = halted
	run.events <- halted
	close(run.events)
	close(run.done)
}
