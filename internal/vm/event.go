package vm

import (
	"errors"
	"fmt"
	"time"

	"github.com/jcorbin/gobf/internal/mem"
	"github.com/jcorbin/gobf/internal/panicerr"
	"github.com/jcorbin/gobf/internal/program"
)

// WindowSize is the number of tape cells carried by a TapeEvent.
const WindowSize = 128

// Event is sent from a run's worker to its caller over Run.Events.
type Event interface{ isEvent() }

// OutputEvent carries program output bytes in emission order.
type OutputEvent struct{ Bytes []byte }

// TapeEvent is a snapshot of the tape around the data pointer; Window holds
// cells [Base, Base+WindowSize), zero padded past the end of the tape.
type TapeEvent struct {
	Ptr    int
	Base   int
	Window [WindowSize]byte
}

// NeedsInputEvent means the run is suspended until exactly one input is
// provided, or until it is stopped.
type NeedsInputEvent struct{}

// HaltedEvent is the final event of every run.
type HaltedEvent struct {
	Reason  HaltReason
	Err     error
	Steps   uint64
	Elapsed time.Duration
}

func (OutputEvent) isEvent()     {}
func (TapeEvent) isEvent()       {}
func (NeedsInputEvent) isEvent() {}
func (HaltedEvent) isEvent()     {}

// HaltReason classifies how a run ended.
type HaltReason int

// Halt reasons; see Reason.
const (
	Completed HaltReason = iota
	PointerOutOfBounds
	StepLimitExceeded
	TimeoutExceeded
	Stopped
	IOFailure
	BracketFailure
	Internal
)

var haltReasonNames = [...]string{
	Completed:          "completed",
	PointerOutOfBounds: "pointer out of bounds",
	StepLimitExceeded:  "step limit exceeded",
	TimeoutExceeded:    "timeout exceeded",
	Stopped:            "stopped",
	IOFailure:          "io error",
	BracketFailure:     "bracket error",
	Internal:           "internal error",
}

func (reason HaltReason) String() string {
	if int(reason) < len(haltReasonNames) {
		return haltReasonNames[reason]
	}
	return fmt.Sprintf("HaltReason(%d)", int(reason))
}

// Reason classifies a run's halt error; a nil error is Completed and any
// unrecognized error is Internal.
func Reason(err error) HaltReason {
	var (
		ptrErr     *PointerError
		limitErr   *StepLimitError
		timeoutErr *TimeoutError
		ioErr      *IOError
		bracketErr *BracketError
	)
	switch {
	case err == nil:
		return Completed
	case panicerr.IsPanic(err), panicerr.IsExit(err):
		return Internal
	case errors.Is(err, ErrStopped):
		return Stopped
	case errors.As(err, &ptrErr):
		return PointerOutOfBounds
	case errors.As(err, &limitErr):
		return StepLimitExceeded
	case errors.As(err, &timeoutErr):
		return TimeoutExceeded
	case errors.As(err, &ioErr):
		return IOFailure
	case errors.As(err, &bracketErr):
		return BracketFailure
	}
	return Internal
}

// ErrStopped is the halt error of a run ended by Stop or by cancellation of
// its context.
var ErrStopped = errors.New("execution stopped")

// PointerError is a runtime failure: the op at Pos tried to move the data
// pointer off the tape from Ptr.
type PointerError struct {
	Pos int
	Ptr int
	Op  program.Op
	Err mem.BoundsError
}

func (err *PointerError) Error() string {
	return fmt.Sprintf("pointer out of bounds (ptr=%v, op=%v)", err.Ptr, err.Op)
}

func (err *PointerError) Unwrap() error { return err.Err }

// StepLimitError halts a run after exactly Limit instructions.
type StepLimitError struct{ Limit uint64 }

func (err *StepLimitError) Error() string {
	return fmt.Sprintf("step limit exceeded (%v)", err.Limit)
}

// TimeoutError halts a run that outlived its deadline.
type TimeoutError struct{ Timeout time.Duration }

func (err *TimeoutError) Error() string {
	return fmt.Sprintf("timeout exceeded (%v)", err.Timeout)
}

// IOError wraps a failure of the byte source answering NeedsInput.
type IOError struct{ Err error }

func (err *IOError) Error() string { return fmt.Sprintf("input error: %v", err.Err) }
func (err *IOError) Unwrap() error { return err.Err }

// BracketError means the program reached a bracket with no recorded match.
type BracketError struct{ Pos int }

func (err *BracketError) Error() string {
	return fmt.Sprintf("unmatched bracket at instruction %v", err.Pos)
}
