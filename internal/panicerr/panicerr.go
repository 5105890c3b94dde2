// Package panicerr turns goroutine panics and runtime.Goexit calls into
// ordinary error values.
package panicerr

import (
	"errors"
	"fmt"
	"runtime/debug"
)

// Go runs f in a new goroutine, returning a channel that receives exactly one
// value: f's return, or an error describing a panic or Goexit that prevented
// f from returning. The channel is closed after that value.
func Go(name string, f func() error) <-chan error {
	errch := make(chan error, 1)
	go func() {
		returned := false
		defer close(errch)
		defer func() {
			if returned {
				return
			}
			if e := recover(); e != nil {
				errch <- panicError{name, e, debug.Stack()}
			} else {
				errch <- exitError(name)
			}
		}()
		err := f()
		returned = true
		errch <- err
	}()
	return errch
}

// Recover runs f in a new goroutine and waits for it, recovering any
// abnormal exits or panics as non-nil error returns.
func Recover(name string, f func() error) error {
	return <-Go(name, f)
}

type exitError string

func (name exitError) Error() string {
	if name == "" {
		return "runtime.Goexit called"
	}
	return fmt.Sprintf("%v called runtime.Goexit", string(name))
}

type panicError struct {
	name  string
	e     interface{}
	stack []byte
}

func (pe panicError) Error() string {
	return fmt.Sprint(pe)
}

func (pe panicError) Format(f fmt.State, c rune) {
	if pe.name == "" {
		fmt.Fprintf(f, "paniced: %v", pe.e)
	} else {
		fmt.Fprintf(f, "%v paniced: %v", pe.name, pe.e)
	}
	if c == 'v' && f.Flag('+') {
		fmt.Fprintf(f, "\nPanic stack: %s", pe.stack)
	}
}

func (pe panicError) Unwrap() error {
	err, _ := pe.e.(error)
	return err
}

// IsExit returns true if err indicates a recovered goroutine exit.
func IsExit(err error) bool {
	var xe exitError
	return errors.As(err, &xe)
}

// IsPanic returns true if err indicates a recovered goroutine panic.
func IsPanic(err error) bool {
	var pe panicError
	return errors.As(err, &pe)
}

// PanicStack returns a non-empty stacktrace string if err is a recovered
// goroutine panic.
func PanicStack(err error) string {
	var pe panicError
	if errors.As(err, &pe) {
		return string(pe.stack)
	}
	return ""
}
