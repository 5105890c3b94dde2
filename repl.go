package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/jcorbin/gobf/internal/config"
	"github.com/jcorbin/gobf/internal/editor"
	"github.com/jcorbin/gobf/internal/flushio"
	"github.com/jcorbin/gobf/internal/program"
	"github.com/jcorbin/gobf/internal/term"
	"github.com/jcorbin/gobf/internal/vm"
)

type replCmd struct {
	*cli
	engine  engineFlags
	bare    bool
	editor  bool
	lenient bool
}

func (c *cli) replCmd() *cobra.Command {
	rc := &replCmd{cli: c}
	cmd := &cobra.Command{
		Use:   "repl",
		Short: "Edit and run programs interactively",
		Long: `Start a read-eval-print loop.

In editor mode (the default when stdin is a terminal) the buffer may span
several lines: Enter starts a new line and Ctrl-D runs the buffer. Up at the
very start of the buffer, or Ctrl-R anywhere, browses previously run
programs; Esc leaves browsing with the buffer unchanged, or stops a running
program. While a program waits for input, keystrokes are its input and
Ctrl-D is end of input. Ctrl-C exits.

In bare mode all of stdin is read as keystrokes and the buffer is run at end
of input, so that programs may be piped in.

A line starting with ':' is a meta command; try :help.

Set ` + config.EnvReplOnce + `=1 to exit after the first run.`,
		RunE: rc.run,
	}
	flags := cmd.Flags()
	flags.BoolVar(&rc.bare, "bare", false, "read stdin as keystrokes without prompts (env "+config.EnvReplMode+"=bare)")
	flags.BoolVar(&rc.editor, "editor", false, "use the interactive editor; stdin must be a terminal (env "+config.EnvReplMode+"=editor)")
	flags.BoolVar(&rc.lenient, "lenient", false, "ignore non-instruction characters in submissions")
	cmd.MarkFlagsMutuallyExclusive("bare", "editor")
	rc.engine.register(cmd)
	return cmd
}

// errExit ends a session normally.
var errExit = errors.New("exit")

func (rc *replCmd) run(cmd *cobra.Command, _ []string) error {
	over := rc.engine.overrides(cmd)
	switch {
	case rc.bare:
		mode := config.ModeBare
		over.Mode = &mode
	case rc.editor:
		mode := config.ModeEditor
		over.Mode = &mode
	}
	settings, err := rc.resolve(over)
	if err != nil {
		return err
	}

	stdin, _ := rc.stdin.(*os.File)
	mode := settings.Mode
	if mode == config.ModeAuto {
		mode = config.ModeBare
		if term.IsTerminal(stdin) {
			mode = config.ModeEditor
		}
	}

	rs := &replSession{
		eng:    vm.New(rc.engineOptions()...),
		cfg:    settings.EngineConfig(),
		once:   settings.Once,
		rep:    newErrorReport(rc.stderr, rc.loadTheme()),
		stdout: rc.stdout,
		stderr: rc.stderr,
	}

	if mode == config.ModeEditor {
		if stdin == nil || !term.IsTerminal(stdin) {
			return errors.New("editor mode requires a terminal on stdin")
		}
		t, err := term.Open(stdin)
		if err != nil {
			return fmt.Errorf("editor mode: %w", err)
		}
		if err := t.RawMode(); err != nil {
			return fmt.Errorf("editor mode: %w", err)
		}
		rc.atExit(func() { t.CanonicalMode() })

		rs.stdout = term.NewlineWriter{W: rc.stdout, Raw: t.Raw}
		rs.stderr = term.NewlineWriter{W: rc.stderr, Raw: t.Raw}
		rs.view = &editorView{out: rs.stdout}
		rs.echo = true
		rs.keys = term.NewDecoder(stdin)
		if f, ok := rc.stderr.(*os.File); ok && term.IsTerminal(f) {
			io.WriteString(rs.stderr, "Tape machine REPL: Ctrl-D runs the buffer, :help lists meta commands, Ctrl-C exits.\n")
		}
	} else {
		rs.keys = term.NewBareDecoder(rc.stdin)
		rs.holdKeys = true
	}

	rs.out = flushio.NewSink(rs.stdout)
	rc.atExit(func() { rs.out.Flush() })
	rs.ctl = editor.New(editor.SubmitterFunc(rs.submit))
	rs.ctl.SetLenient(rc.lenient)
	rs.ctl.AddMeta("tape", "print the tape around the pointer after the last run", rs.metaTape)

	return rs.loop(cmd.Context())
}

// replSession drives one controller and engine. Everything but key decoding
// happens on the goroutine running control.
type replSession struct {
	ctl  *editor.Controller
	eng  *vm.Engine
	cfg  vm.Config
	once bool
	keys *term.Decoder

	stdout io.Writer
	stderr io.Writer
	out    *flushio.Sink
	rep    errorReport
	view   *editorView
	echo   bool

	// holdKeys leaves keys unread while a run is busy; piped keystrokes
	// then reach a program only when it asks for input.
	holdKeys bool

	ctx       context.Context
	run       *vm.Run
	source    string
	typeahead []vm.Input
	keysDone  bool
	lastTape  *vm.TapeEvent
}

func (rs *replSession) loop(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	keys := make(chan editor.Key)
	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		defer close(keys)
		for {
			k, err := rs.keys.ReadKey(ctx)
			if errors.Is(err, io.EOF) || errors.Is(err, context.Canceled) {
				return nil
			} else if err != nil {
				return err
			}
			select {
			case keys <- k:
			case <-ctx.Done():
				return nil
			}
		}
	})
	eg.Go(func() error {
		defer cancel()
		err := rs.control(ctx, keys)
		if rs.run != nil {
			rs.run.Stop()
		}
		if errors.Is(err, errExit) {
			return nil
		}
		return err
	})
	return eg.Wait()
}

func (rs *replSession) control(ctx context.Context, keys <-chan editor.Key) error {
	rs.ctx = ctx
	rs.view.draw(rs.ctl)
	for keys != nil || rs.run != nil {
		var events <-chan vm.Event
		in := keys
		if rs.run != nil {
			events = rs.run.Events()
			if rs.holdKeys && !rs.run.Awaiting() {
				in = nil
			}
		}

		select {
		case <-ctx.Done():
			return nil

		case k, ok := <-in:
			if !ok {
				keys, rs.keysDone = nil, true
				rs.typeahead = append(rs.typeahead, vm.Input{EOF: true})
				rs.feedInput()
				continue
			}
			if err := rs.handleKey(k); err != nil {
				return err
			}

		case ev := <-events:
			if err := rs.handleEvent(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

func (rs *replSession) handleKey(k editor.Key) error {
	if rs.run == nil {
		return rs.apply(rs.ctl.Handle(k))
	}
	switch k.Code {
	case editor.KeyInterrupt:
		return errExit
	case editor.KeyEsc:
		rs.run.Stop()
		return nil
	}
	if in := keyInput(k); len(in) > 0 {
		if rs.echo {
			rs.echoInput(in)
		}
		rs.typeahead = append(rs.typeahead, in...)
		rs.feedInput()
	}
	return nil
}

// keyInput returns the program input produced by a key typed while a
// program runs.
func keyInput(k editor.Key) []vm.Input {
	switch k.Code {
	case editor.KeyRune:
		var buf [utf8.UTFMax]byte
		n := utf8.EncodeRune(buf[:], k.Rune)
		in := make([]vm.Input, n)
		for i, b := range buf[:n] {
			in[i] = vm.Input{Byte: b}
		}
		return in
	case editor.KeyEnter:
		return []vm.Input{{Byte: '\n'}}
	case editor.KeyBackspace:
		return []vm.Input{{Byte: 0x7f}}
	case editor.KeySubmit:
		return []vm.Input{{EOF: true}}
	}
	return nil
}

func (rs *replSession) echoInput(in []vm.Input) {
	var buf []byte
	for _, i := range in {
		if !i.EOF && (i.Byte >= 0x20 && i.Byte != 0x7f || i.Byte == '\n' || i.Byte == '\t') {
			buf = append(buf, i.Byte)
		}
	}
	if len(buf) > 0 {
		rs.out.Write(buf)
		rs.out.Flush()
	}
}

// feedInput answers an outstanding input request from typeahead.
func (rs *replSession) feedInput() {
	if rs.run == nil || len(rs.typeahead) == 0 || !rs.run.Awaiting() {
		return
	}
	if err := rs.run.ProvideInput(rs.typeahead[0]); err == nil {
		rs.typeahead = rs.typeahead[1:]
	}
}

func (rs *replSession) handleEvent(ev vm.Event) error {
	switch ev := ev.(type) {
	case vm.OutputEvent:
		rs.out.Write(ev.Bytes)
		rs.out.Flush()
	case vm.TapeEvent:
		rs.lastTape = &ev
	case vm.NeedsInputEvent:
		rs.out.Flush()
		rs.feedInput()
	case vm.HaltedEvent:
		return rs.halted(ev)
	}
	return nil
}

func (rs *replSession) halted(ev vm.HaltedEvent) error {
	rs.run = nil
	rs.out.Flush()
	if ev.Reason != vm.Completed {
		io.WriteString(rs.stderr, rs.rep.format(ev.Err, rs.source))
	}
	io.WriteString(rs.out, "\n")
	rs.out.Flush()
	if rs.once {
		return errExit
	}
	rs.view.draw(rs.ctl)
	return nil
}

func (rs *replSession) submit(prog *program.Program) error {
	run, err := rs.eng.Start(rs.ctx, prog, rs.cfg)
	if err != nil {
		return err
	}
	rs.run = run
	// drop input left over from a previous run, except for end of input
	rs.typeahead = rs.typeahead[:0]
	if rs.keysDone {
		rs.typeahead = append(rs.typeahead, vm.Input{EOF: true})
	}
	return nil
}

func (rs *replSession) apply(eff editor.Effect) error {
	switch eff.Kind {
	case editor.EffectNone:
		return nil
	case editor.EffectRedraw:
	case editor.EffectSubmitted:
		rs.view.commit()
		rs.source = eff.Source
		return nil
	case editor.EffectInvalid:
		rs.view.commit()
		io.WriteString(rs.stderr, rs.rep.format(eff.Err, eff.Source))
	case editor.EffectRejected:
		rs.view.commit()
		fmt.Fprintf(rs.stderr, "%v\n", eff.Err)
	case editor.EffectOutput:
		rs.view.commit()
		if eff.Stderr {
			io.WriteString(rs.stderr, eff.Text)
		} else {
			io.WriteString(rs.out, eff.Text)
			rs.out.Flush()
		}
	case editor.EffectError:
		rs.view.commit()
		fmt.Fprintf(rs.stderr, "%v\n", eff.Err)
	case editor.EffectExit:
		rs.view.commit()
		return errExit
	}
	rs.view.draw(rs.ctl)
	return nil
}

func (rs *replSession) metaTape(_ *editor.Controller, args []string) editor.Effect {
	if len(args) > 0 {
		return editor.Effect{Kind: editor.EffectError, Err: fmt.Errorf("tape: unexpected arguments %q", args)}
	}
	if rs.lastTape == nil {
		return editor.Effect{Kind: editor.EffectError, Err: errors.New("tape: nothing has run yet")}
	}
	return editor.Effect{Kind: editor.EffectOutput, Text: dumpTape(*rs.lastTape)}
}

// Prompts are all the same width so that columns line up across rows.
const (
	promptFirst  = "bf> "
	promptCont   = "... "
	promptBrowse = "hi> "
)

// editorView draws the controller's buffer on a raw mode terminal,
// redrawing every row after each change.
type editorView struct {
	out  io.Writer
	rows int // rows drawn by the last draw
	row  int // terminal cursor row within those
}

func (v *editorView) draw(ctl *editor.Controller) {
	if v == nil {
		return
	}
	var sb strings.Builder
	if v.row > 0 {
		fmt.Fprintf(&sb, "\x1b[%dA", v.row)
	}
	sb.WriteString("\r\x1b[J")

	buf := ctl.Buffer()
	lines := buf.Lines()
	for i, line := range lines {
		switch {
		case i > 0:
			sb.WriteString("\r\n")
			sb.WriteString(promptCont)
		case ctl.Mode() == editor.HistoryBrowse:
			sb.WriteString(promptBrowse)
		default:
			sb.WriteString(promptFirst)
		}
		sb.WriteString(line)
	}

	cur := buf.Cursor()
	if up := len(lines) - 1 - cur.Row; up > 0 {
		fmt.Fprintf(&sb, "\x1b[%dA", up)
	}
	fmt.Fprintf(&sb, "\r\x1b[%dC", len(promptFirst)+cur.Col)
	v.rows, v.row = len(lines), cur.Row

	io.WriteString(v.out, sb.String())
}

// commit leaves the drawn rows as they are, moving to a fresh line below.
func (v *editorView) commit() {
	if v == nil || v.rows == 0 {
		return
	}
	var sb strings.Builder
	if down := v.rows - 1 - v.row; down > 0 {
		fmt.Fprintf(&sb, "\x1b[%dB", down)
	}
	sb.WriteString("\r\n")
	v.rows, v.row = 0, 0
	io.WriteString(v.out, sb.String())
}
