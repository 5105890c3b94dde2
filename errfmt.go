package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jcorbin/gobf/internal/config"
	"github.com/jcorbin/gobf/internal/fileinput"
	"github.com/jcorbin/gobf/internal/panicerr"
	"github.com/jcorbin/gobf/internal/program"
	"github.com/jcorbin/gobf/internal/term"
	"github.com/jcorbin/gobf/internal/vm"
)

// contextRunes is how much program text is shown either side of an error.
const contextRunes = 32

// errorReport renders validation errors and run halts as a message line,
// followed by a caret under the offending instruction when there is one.
type errorReport struct {
	prefix string
	locate func(pos int) (fileinput.Location, bool)

	color bool
	mess  lipgloss.Style
	caret lipgloss.Style
}

func newErrorReport(out io.Writer, theme config.Theme) errorReport {
	var rep errorReport
	if f, ok := out.(*os.File); ok && term.IsTerminal(f) {
		r := lipgloss.NewRenderer(out)
		rep.color = true
		rep.mess = r.NewStyle().Bold(true).Foreground(lipgloss.Color(theme.DialogError))
		rep.caret = r.NewStyle().Bold(true).Foreground(lipgloss.Color(theme.OpOutput))
	}
	return rep
}

// describe returns the message for err and the instruction position it
// refers to, if any.
func describe(err error) (mess string, pos int, hasPos bool) {
	var (
		synErr     *program.SyntaxError
		ptrErr     *vm.PointerError
		bracketErr *vm.BracketError
		ioErr      *vm.IOError
		limitErr   *vm.StepLimitError
		timeoutErr *vm.TimeoutError
	)
	switch {
	case errors.As(err, &synErr):
		return fmt.Sprintf("Parse error: %v %q", synErr.Kind, synErr.Char), synErr.Pos, true
	case errors.As(err, &ptrErr):
		return "Runtime error: " + ptrErr.Error(), ptrErr.Pos, true
	case errors.As(err, &bracketErr):
		return "Runtime error: unmatched bracket", bracketErr.Pos, true
	case errors.As(err, &ioErr):
		return fmt.Sprintf("I/O error: %v", ioErr.Err), 0, false
	case errors.As(err, &limitErr):
		return "Execution aborted: " + limitErr.Error(), 0, false
	case errors.As(err, &timeoutErr):
		return "Execution aborted: " + timeoutErr.Error(), 0, false
	case errors.Is(err, vm.ErrStopped):
		return "Execution stopped", 0, false
	case panicerr.IsPanic(err):
		return fmt.Sprintf("Internal error: %v", err), 0, false
	}
	return err.Error(), 0, false
}

// format renders err, with context taken from the program text it refers
// to; the result ends in a newline.
func (rep errorReport) format(err error, text string) string {
	mess, pos, hasPos := describe(err)

	var sb strings.Builder
	line := rep.prefix + mess
	if hasPos {
		line += fmt.Sprintf(" at instruction %v", pos)
		if rep.locate != nil {
			if loc, ok := rep.locate(pos); ok {
				line += fmt.Sprintf(" (%v)", loc)
			}
		}
	}
	if rep.color {
		line = rep.mess.Render(line)
	}
	sb.WriteString(line)
	sb.WriteByte('\n')
	if !hasPos {
		return sb.String()
	}

	window, offset := contextWindow(text, pos)
	sb.WriteString("  ")
	sb.WriteString(window)
	sb.WriteString("\n  ")
	sb.WriteString(strings.Repeat(" ", offset))
	if rep.color {
		sb.WriteString(rep.caret.Render("^"))
	} else {
		sb.WriteByte('^')
	}
	sb.WriteByte('\n')
	return sb.String()
}

// contextWindow returns up to contextRunes runes of text either side of pos,
// with control characters blanked, and the column of pos within it.
func contextWindow(text string, pos int) (string, int) {
	runes := []rune(text)
	if pos < 0 {
		pos = 0
	}
	if pos > len(runes) {
		pos = len(runes)
	}
	start := max(0, pos-contextRunes)
	end := min(len(runes), pos+contextRunes+1)
	window := make([]rune, 0, end-start)
	for _, r := range runes[start:end] {
		if r < 0x20 || r == 0x7f {
			r = ' '
		}
		window = append(window, r)
	}
	return string(window), pos - start
}
