// Package editor implements the dual-mode input controller: a multi-line
// program buffer that switches into history browsing through the row 0,
// column 0 "gate", and submits validated programs.
package editor

import (
	"fmt"
	"strings"

	"github.com/jcorbin/gobf/internal/program"
)

// Mode is the controller's input mode.
type Mode int

// Controller modes.
const (
	Edit Mode = iota
	HistoryBrowse
)

func (mode Mode) String() string {
	switch mode {
	case Edit:
		return "edit"
	case HistoryBrowse:
		return "history"
	}
	return fmt.Sprintf("Mode(%d)", int(mode))
}

// Submitter accepts validated programs; returning an error rejects the
// submission, keeping the buffer.
type Submitter interface {
	Submit(prog *program.Program) error
}

// SubmitterFunc adapts a function to Submitter.
type SubmitterFunc func(prog *program.Program) error

// Submit calls f.
func (f SubmitterFunc) Submit(prog *program.Program) error { return f(prog) }

// EffectKind classifies the outcome of handling a key.
type EffectKind int

// Effect kinds.
const (
	EffectNone      EffectKind = iota // nothing changed
	EffectRedraw                      // buffer, cursor, or mode changed
	EffectSubmitted                   // Program was accepted by the Submitter
	EffectInvalid                     // Err is a validation error; buffer kept
	EffectRejected                    // Err came from the Submitter; buffer kept
	EffectOutput                      // Text should be printed, to stderr if Stderr
	EffectError                       // Err came from a meta command
	EffectExit                        // the session should end
)

// Effect tells the front end what to render after a key.
type Effect struct {
	Kind    EffectKind
	Err     error
	Program *program.Program
	Source  string
	Text    string
	Stderr  bool
}

// Controller is the input state machine; it is owned by a single goroutine.
type Controller struct {
	mode    Mode
	buf     Buffer
	saved   *Buffer
	index   int
	history History

	submitter Submitter
	lenient   bool
	metas     map[string]meta
}

// New returns a controller in Edit mode with an empty buffer and history.
func New(submitter Submitter) *Controller {
	ctl := &Controller{submitter: submitter}
	ctl.addBuiltinMetas()
	return ctl
}

// SetLenient makes submissions drop non-instruction characters before
// validation.
func (ctl *Controller) SetLenient(lenient bool) { ctl.lenient = lenient }

// Mode returns the current mode.
func (ctl *Controller) Mode() Mode { return ctl.mode }

// Buffer returns the buffer being edited, or the previewed entry while
// browsing.
func (ctl *Controller) Buffer() *Buffer { return &ctl.buf }

// History returns the submission history.
func (ctl *Controller) History() *History { return &ctl.history }

// HistoryIndex returns the previewed history index while browsing; it equals
// History().Len() on the slot holding the saved buffer.
func (ctl *Controller) HistoryIndex() int { return ctl.index }

// Load replaces the buffer with text, returning to Edit mode.
func (ctl *Controller) Load(text string) {
	ctl.mode, ctl.saved = Edit, nil
	ctl.buf = NewBuffer(text)
}

// Handle applies one key; it is total over every mode and key.
func (ctl *Controller) Handle(k Key) Effect {
	if k.Code == KeyInterrupt {
		return Effect{Kind: EffectExit}
	}
	if ctl.mode == HistoryBrowse {
		return ctl.browse(k)
	}
	return ctl.edit(k)
}

var redraw = Effect{Kind: EffectRedraw}

func (ctl *Controller) edit(k Key) Effect {
	buf := &ctl.buf
	switch k.Code {
	case KeyRune:
		if k.Rune == '\n' || k.Rune == '\r' {
			return ctl.enter()
		}
		buf.Insert(k.Rune)
	case KeyEnter:
		return ctl.enter()
	case KeyBackspace:
		buf.Backspace()
	case KeyDelete:
		buf.Delete()
	case KeyLeft:
		buf.Left()
	case KeyRight:
		buf.Right()
	case KeyHome:
		buf.Home()
	case KeyEnd:
		buf.End()
	case KeyDown:
		buf.Down()
	case KeyUp:
		if buf.AtGate() || buf.Empty() {
			return ctl.startBrowse()
		}
		buf.Up()
	case KeyBrowse:
		return ctl.startBrowse()
	case KeySubmit:
		return ctl.submit()
	default:
		return Effect{}
	}
	return redraw
}

func (ctl *Controller) browse(k Key) Effect {
	switch k.Code {
	case KeyUp, KeyBrowse:
		if ctl.index > 0 {
			ctl.preview(ctl.index - 1)
		}
		return redraw
	case KeyDown:
		if ctl.index < ctl.history.Len() {
			ctl.preview(ctl.index + 1)
		}
		return redraw
	case KeyEnter:
		ctl.accept()
		return redraw
	case KeyEsc:
		ctl.buf = *ctl.saved
		ctl.mode, ctl.saved = Edit, nil
		return redraw
	case KeySubmit:
		return Effect{}
	}
	ctl.accept()
	ctl.edit(k)
	return redraw
}

func (ctl *Controller) startBrowse() Effect {
	n := ctl.history.Len()
	if n == 0 {
		return Effect{}
	}
	saved := ctl.buf.clone()
	ctl.saved = &saved
	ctl.mode = HistoryBrowse
	ctl.preview(n - 1)
	return redraw
}

func (ctl *Controller) preview(i int) {
	ctl.index = i
	if i >= ctl.history.Len() {
		ctl.buf = ctl.saved.clone()
	} else {
		ctl.buf = NewBuffer(ctl.history.At(i))
	}
}

// accept keeps the previewed buffer, leaving browse mode.
func (ctl *Controller) accept() {
	if ctl.index < ctl.history.Len() {
		ctl.buf = NewBuffer(ctl.history.At(ctl.index))
	} else {
		ctl.buf = *ctl.saved
	}
	ctl.mode, ctl.saved = Edit, nil
}

func (ctl *Controller) enter() Effect {
	row := ctl.buf.Cursor().Row
	if line := ctl.buf.Line(row); strings.HasPrefix(line, ":") {
		ctl.buf.RemoveRow(row)
		return ctl.runMeta(line)
	}
	ctl.buf.NewLine()
	return redraw
}

func (ctl *Controller) submit() Effect {
	src := ctl.buf.Joined()
	if ctl.lenient {
		src = program.Filter(src)
	}
	if src == "" {
		return Effect{}
	}
	prog, err := program.Parse(src)
	if err != nil {
		return Effect{Kind: EffectInvalid, Err: err, Source: src}
	}
	if ctl.submitter != nil {
		if err := ctl.submitter.Submit(prog); err != nil {
			return Effect{Kind: EffectRejected, Err: err, Source: src}
		}
	}
	ctl.history.Append(ctl.buf.Text())
	ctl.buf = Buffer{}
	return Effect{Kind: EffectSubmitted, Program: prog, Source: src}
}
