package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/jcorbin/gobf/internal/config"
	"github.com/jcorbin/gobf/internal/editor"
	"github.com/jcorbin/gobf/internal/program"
	"github.com/jcorbin/gobf/internal/runeio"
	"github.com/jcorbin/gobf/internal/term"
	"github.com/jcorbin/gobf/internal/vm"
)

// maxOutput bounds how much program output the tui retains.
const maxOutput = 1 << 20

type tuiCmd struct {
	*cli
	engine engineFlags
	file   string
	strict bool
}

func (c *cli) tuiCmd() *cobra.Command {
	tc := &tuiCmd{cli: c}
	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Edit and run programs in a full screen interface",
		Long: `Edit a program with live output and tape panes.

Keys: Ctrl-R or F5 runs the program, Esc stops it, Ctrl-E toggles escaped
output, Ctrl-P browses history, Ctrl-Q quits. While a program waits for
input, keystrokes are its input and Ctrl-D is end of input.

Colors are read from the [colors] table of ` + config.ThemeFile + ` in the user
configuration directory.`,
		Args: cobra.NoArgs,
		RunE: tc.run,
	}
	flags := cmd.Flags()
	flags.StringVarP(&tc.file, "file", "f", "", "load the program from `PATH`")
	flags.BoolVar(&tc.strict, "strict", false, "reject non-instruction characters rather than ignoring them")
	tc.engine.register(cmd)
	return cmd
}

func (tc *tuiCmd) run(cmd *cobra.Command, _ []string) error {
	settings, err := tc.resolve(tc.engine.overrides(cmd))
	if err != nil {
		return err
	}
	stdin, _ := tc.stdin.(*os.File)
	if !term.IsTerminal(stdin) {
		return errors.New("tui requires a terminal on stdin")
	}

	m := newTUIModel(cmd.Context(), vm.New(tc.engineOptions()...), settings.EngineConfig(), tc.loadTheme())
	m.ctl.SetLenient(!tc.strict)
	if tc.file != "" {
		data, err := os.ReadFile(tc.file)
		if err != nil {
			return err
		}
		m.ctl.Load(strings.TrimSuffix(string(data), "\n"))
		m.status = fmt.Sprintf("loaded %v", tc.file)
	}

	prog := tea.NewProgram(m,
		tea.WithContext(cmd.Context()),
		tea.WithInput(tc.stdin),
		tea.WithOutput(tc.stdout),
		tea.WithAltScreen(),
	)
	_, err = prog.Run()
	if m.run != nil {
		m.run.Stop()
	}
	if errors.Is(err, tea.ErrProgramKilled) {
		err = nil
	}
	return err
}

type tuiStyles struct {
	title, titleDim lipgloss.Style
	gutter          lipgloss.Style
	ops             map[rune]lipgloss.Style
	nonOp           lipgloss.Style
	cursor          lipgloss.Style
	pane, paneDim   lipgloss.Style
	cells           [3]lipgloss.Style
	status          lipgloss.Style
	err             lipgloss.Style
	hint            lipgloss.Style
}

func newTUIStyles(theme config.Theme) tuiStyles {
	fg := func(c string) lipgloss.Style { return lipgloss.NewStyle().Foreground(lipgloss.Color(c)) }
	border := func(c string) lipgloss.Style {
		return lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(c)).
			Padding(0, 1)
	}
	return tuiStyles{
		title:    fg(theme.EditorTitleFocused).Bold(true),
		titleDim: fg(theme.EditorTitleUnfocused),
		gutter:   fg(theme.GutterText),
		ops: map[rune]lipgloss.Style{
			'>': fg(theme.OpRight),
			'<': fg(theme.OpLeft),
			'+': fg(theme.OpInc),
			'-': fg(theme.OpDec),
			'.': fg(theme.OpOutput),
			',': fg(theme.OpInput),
			'[': fg(theme.OpBracket),
			']': fg(theme.OpBracket),
		},
		nonOp:   fg(theme.NonOp),
		cursor:  lipgloss.NewStyle().Reverse(true),
		pane:    border(theme.TapeBorderFocused),
		paneDim: border(theme.TapeBorderUnfocused),
		cells: [3]lipgloss.Style{
			cellEmpty:   fg(theme.TapeCellEmpty),
			cellNonzero: fg(theme.TapeCellNonzero),
			cellPointer: fg(theme.TapeCellPointer).Bold(true),
		},
		status: fg(theme.StatusText),
		err:    fg(theme.DialogError).Bold(true),
		hint:   fg(theme.HelpHint),
	}
}

func (st tuiStyles) op(r rune) lipgloss.Style {
	if s, ok := st.ops[r]; ok {
		return s
	}
	return st.nonOp
}

// runEventMsg carries one event from a run's channel into the update loop.
type runEventMsg struct {
	run *vm.Run
	ev  vm.Event
	ok  bool
}

func waitEvent(run *vm.Run) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-run.Events()
		return runEventMsg{run, ev, ok}
	}
}

type tuiModel struct {
	ctx    context.Context
	ctl    *editor.Controller
	eng    *vm.Engine
	cfg    vm.Config
	styles tuiStyles
	rep    errorReport

	run       *vm.Run
	source    string
	typeahead []vm.Input
	output    []byte
	escaped   bool
	tape      *vm.TapeEvent
	status    string
	errText   string

	width, height int
}

func newTUIModel(ctx context.Context, eng *vm.Engine, cfg vm.Config, theme config.Theme) *tuiModel {
	m := &tuiModel{
		ctx:    ctx,
		eng:    eng,
		cfg:    cfg,
		styles: newTUIStyles(theme),
		status: "ready",
		width:  80,
		height: 24,
	}
	m.ctl = editor.New(editor.SubmitterFunc(m.submit))
	m.ctl.AddMeta("tape", "show the tape pane's contents in the output pane", func(*editor.Controller, []string) editor.Effect {
		if m.tape == nil {
			return editor.Effect{Kind: editor.EffectError, Err: errors.New("tape: nothing has run yet")}
		}
		return editor.Effect{Kind: editor.EffectOutput, Text: dumpTape(*m.tape)}
	})
	return m
}

func (m *tuiModel) Init() tea.Cmd { return nil }

func (m *tuiModel) submit(prog *program.Program) error {
	run, err := m.eng.Start(m.ctx, prog, m.cfg)
	if err != nil {
		return err
	}
	m.run = run
	m.typeahead = nil
	m.output = m.output[:0]
	m.errText = ""
	m.status = "running"
	return nil
}

func (m *tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
	case tea.KeyMsg:
		return m, m.handleKey(msg)
	case runEventMsg:
		return m, m.handleEvent(msg)
	}
	return m, nil
}

func (m *tuiModel) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyCtrlQ, tea.KeyCtrlC:
		if m.run != nil {
			m.run.Stop()
		}
		return tea.Quit
	case tea.KeyCtrlE:
		m.escaped = !m.escaped
		return nil
	}

	if m.run != nil {
		switch msg.Type {
		case tea.KeyEsc:
			m.run.Stop()
			m.status = "stopping"
			return nil
		case tea.KeyCtrlD:
			m.typeahead = append(m.typeahead, vm.Input{EOF: true})
		default:
			for _, k := range teaKeys(msg) {
				m.typeahead = append(m.typeahead, keyInput(k)...)
			}
		}
		m.feedInput()
		return nil
	}

	switch msg.Type {
	case tea.KeyCtrlR, tea.KeyF5:
		return m.apply(m.ctl.Handle(editor.Key{Code: editor.KeySubmit}))
	case tea.KeyCtrlP:
		return m.apply(m.ctl.Handle(editor.Key{Code: editor.KeyBrowse}))
	}
	var cmd tea.Cmd
	for _, k := range teaKeys(msg) {
		if c := m.apply(m.ctl.Handle(k)); c != nil {
			cmd = c
		}
	}
	return cmd
}

// teaKeys translates a bubbletea key into controller keys.
func teaKeys(msg tea.KeyMsg) []editor.Key {
	code := func(c editor.KeyCode) []editor.Key { return []editor.Key{{Code: c}} }
	switch msg.Type {
	case tea.KeyRunes:
		keys := make([]editor.Key, len(msg.Runes))
		for i, r := range msg.Runes {
			keys[i] = editor.Rune(r)
		}
		return keys
	case tea.KeySpace:
		return []editor.Key{editor.Rune(' ')}
	case tea.KeyTab:
		return []editor.Key{editor.Rune('\t')}
	case tea.KeyEnter:
		return code(editor.KeyEnter)
	case tea.KeyBackspace:
		return code(editor.KeyBackspace)
	case tea.KeyDelete:
		return code(editor.KeyDelete)
	case tea.KeyUp:
		return code(editor.KeyUp)
	case tea.KeyDown:
		return code(editor.KeyDown)
	case tea.KeyLeft:
		return code(editor.KeyLeft)
	case tea.KeyRight:
		return code(editor.KeyRight)
	case tea.KeyHome:
		return code(editor.KeyHome)
	case tea.KeyEnd:
		return code(editor.KeyEnd)
	case tea.KeyEsc:
		return code(editor.KeyEsc)
	}
	return nil
}

func (m *tuiModel) apply(eff editor.Effect) tea.Cmd {
	switch eff.Kind {
	case editor.EffectSubmitted:
		m.source = eff.Source
		return waitEvent(m.run)
	case editor.EffectInvalid:
		m.errText = m.rep.format(eff.Err, eff.Source)
		m.status = "invalid program"
	case editor.EffectRejected, editor.EffectError:
		m.errText = eff.Err.Error()
	case editor.EffectOutput:
		m.output = append(m.output[:0], eff.Text...)
	case editor.EffectExit:
		return tea.Quit
	}
	return nil
}

func (m *tuiModel) feedInput() {
	if m.run == nil || len(m.typeahead) == 0 || !m.run.Awaiting() {
		return
	}
	in := m.typeahead[0]
	if err := m.run.ProvideInput(in); err == nil {
		m.typeahead = m.typeahead[1:]
		m.status = "running, read " + inputLabel(in)
	}
}

// inputLabel names an input for the status line.
func inputLabel(in vm.Input) string {
	switch {
	case in.EOF:
		return "EOF"
	case in.Byte >= 0x80:
		return fmt.Sprintf("0x%02x", in.Byte)
	}
	if name := runeio.Mnemonic(rune(in.Byte)); name != "" {
		return name
	}
	return strconv.QuoteRune(rune(in.Byte))
}

func (m *tuiModel) handleEvent(msg runEventMsg) tea.Cmd {
	if !msg.ok {
		return nil
	}
	switch ev := msg.ev.(type) {
	case vm.OutputEvent:
		m.output = append(m.output, ev.Bytes...)
		if over := len(m.output) - maxOutput; over > 0 {
			m.output = append(m.output[:0], m.output[over:]...)
		}
	case vm.TapeEvent:
		m.tape = &ev
	case vm.NeedsInputEvent:
		m.status = "waiting for input"
		m.feedInput()
	case vm.HaltedEvent:
		if msg.run == m.run {
			m.run = nil
		}
		m.status = fmt.Sprintf("%v after %v steps in %v", ev.Reason, ev.Steps, ev.Elapsed.Round(time.Microsecond))
		if ev.Reason != vm.Completed {
			m.errText = m.rep.format(ev.Err, m.source)
		}
	}
	return waitEvent(msg.run)
}

func (m *tuiModel) View() string {
	inner := max(20, m.width-4)
	running := m.run != nil

	editorTitle, outputTitle := m.styles.title, m.styles.titleDim
	editorPane, outputPane := m.styles.pane, m.styles.paneDim
	if running {
		editorTitle, outputTitle = outputTitle, editorTitle
		editorPane, outputPane = outputPane, editorPane
	}

	mode := "raw"
	if m.escaped {
		mode = "escaped"
	}
	tapeView := m.tapeView()
	tapeRows := strings.Count(tapeView, "\n") + 1
	editRows := max(3, (m.height-tapeRows-10)/2)
	outRows := max(3, m.height-tapeRows-editRows-10)

	return lipgloss.JoinVertical(lipgloss.Left,
		editorPane.Width(inner).Render(
			editorTitle.Render(m.editorTitle())+"\n"+m.editorView(editRows)),
		outputPane.Width(inner).Render(
			outputTitle.Render("Output ("+mode+")")+"\n"+m.outputView(outRows)),
		m.styles.paneDim.Width(inner).Render(
			m.styles.titleDim.Render("Tape")+"\n"+tapeView),
		m.statusView(),
	)
}

func (m *tuiModel) editorTitle() string {
	if m.ctl.Mode() == editor.HistoryBrowse {
		return fmt.Sprintf("Editor (history %v/%v)", m.ctl.HistoryIndex()+1, m.ctl.History().Len())
	}
	return "Editor"
}

func (m *tuiModel) editorView(rows int) string {
	buf := m.ctl.Buffer()
	cur := buf.Cursor()
	lines := buf.Lines()
	width := len(strconv.Itoa(len(lines)))
	showCursor := m.run == nil

	first := max(0, min(cur.Row-rows/2, len(lines)-rows))
	last := min(len(lines), first+rows)

	var sb strings.Builder
	for i := first; i < last; i++ {
		if i > first {
			sb.WriteByte('\n')
		}
		sb.WriteString(m.styles.gutter.Render(fmt.Sprintf("%*d ", width, i+1)))
		runes := []rune(lines[i])
		for j, r := range runes {
			if showCursor && i == cur.Row && j == cur.Col {
				sb.WriteString(m.styles.cursor.Render(string(r)))
			} else {
				sb.WriteString(m.styles.op(r).Render(string(r)))
			}
		}
		if showCursor && i == cur.Row && cur.Col >= len(runes) {
			sb.WriteString(m.styles.cursor.Render(" "))
		}
	}
	return sb.String()
}

func (m *tuiModel) outputView(rows int) string {
	text := string(m.output)
	if m.escaped {
		text = runeio.EscapeString(m.output)
	}
	lines := strings.Split(text, "\n")
	if len(lines) > rows {
		lines = lines[len(lines)-rows:]
	}
	return strings.Join(lines, "\n")
}

func (m *tuiModel) tapeView() string {
	if m.tape == nil {
		return m.styles.hint.Render("(no run yet)")
	}
	var sb strings.Builder
	tapeDumper{
		out:  &sb,
		tape: *m.tape,
		style: func(cls cellClass, s string) string {
			return m.styles.cells[cls].Render(s)
		},
	}.dump()
	return strings.TrimSuffix(sb.String(), "\n")
}

func (m *tuiModel) statusView() string {
	var sb strings.Builder
	sb.WriteString(m.styles.status.Render(m.status))
	if m.errText != "" {
		sb.WriteByte('\n')
		sb.WriteString(m.styles.err.Render(strings.TrimSuffix(m.errText, "\n")))
	}
	sb.WriteByte('\n')
	sb.WriteString(m.styles.hint.Render("Ctrl-R/F5 run  Esc stop  Ctrl-E escape output  Ctrl-P history  Ctrl-Q quit"))
	return sb.String()
}
