package main

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcorbin/gobf/internal/config"
	"github.com/jcorbin/gobf/internal/editor"
	"github.com/jcorbin/gobf/internal/vm"
)

func typeText(m *tuiModel, s string) tea.Cmd {
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
	return cmd
}

func pressKey(m *tuiModel, kt tea.KeyType) tea.Cmd {
	_, cmd := m.Update(tea.KeyMsg{Type: kt})
	return cmd
}

// pump feeds run events back into m until the run's channel is drained.
func pump(t *testing.T, m *tuiModel, cmd tea.Cmd) {
	for cmd != nil {
		msg, ok := cmd().(runEventMsg)
		require.True(t, ok, "expected a run event")
		_, cmd = m.Update(msg)
	}
}

func newTestTUI() *tuiModel {
	return newTUIModel(context.Background(), vm.New(), vm.Config{}, config.DefaultTheme())
}

func TestTUIModel_run(t *testing.T) {
	m := newTestTUI()
	assert.Nil(t, typeText(m, "+++++++++[>+++++++<-]>."))
	cmd := pressKey(m, tea.KeyCtrlR)
	require.NotNil(t, cmd)
	assert.NotNil(t, m.run)
	assert.Equal(t, "", m.ctl.Buffer().Text(), "submitted buffer is cleared")

	pump(t, m, cmd)
	assert.Nil(t, m.run)
	assert.Equal(t, "?", string(m.output))
	assert.Contains(t, m.status, " steps in ")
	assert.Empty(t, m.errText)
	require.NotNil(t, m.tape)
	assert.Equal(t, 1, m.tape.Ptr)
	assert.Equal(t, 1, m.ctl.History().Len())
}

func TestTUIModel_input(t *testing.T) {
	m := newTestTUI()
	typeText(m, ",.,.")
	cmd := pressKey(m, tea.KeyCtrlR)
	require.NotNil(t, cmd)

	// keys typed during a run are its input
	typeText(m, "x")
	pressKey(m, tea.KeyCtrlD)

	pump(t, m, cmd)
	assert.Equal(t, "x\x00", string(m.output))
	assert.Empty(t, m.typeahead)
}

func TestTUIModel_errors(t *testing.T) {
	m := newTestTUI()
	typeText(m, "+x")
	assert.Nil(t, pressKey(m, tea.KeyCtrlR))
	assert.Equal(t, "invalid program", m.status)
	assert.Contains(t, m.errText, "Parse error: invalid character 'x' at instruction 1")
	assert.Equal(t, "+x", m.ctl.Buffer().Text(), "invalid buffer is kept")

	m = newTestTUI()
	typeText(m, "<")
	pump(t, m, pressKey(m, tea.KeyCtrlR))
	assert.Contains(t, m.errText, "Runtime error: pointer out of bounds (ptr=0, op=<) at instruction 0")
}

func TestTUIModel_history(t *testing.T) {
	m := newTestTUI()
	typeText(m, "+.")
	pump(t, m, pressKey(m, tea.KeyCtrlR))

	pressKey(m, tea.KeyCtrlP)
	assert.Equal(t, editor.HistoryBrowse, m.ctl.Mode())
	assert.Equal(t, "Editor (history 1/1)", m.editorTitle())
	assert.Equal(t, "+.", m.ctl.Buffer().Text())

	pressKey(m, tea.KeyEsc)
	assert.Equal(t, editor.Edit, m.ctl.Mode())
	assert.Equal(t, "", m.ctl.Buffer().Text())
}

func TestTUIModel_quit(t *testing.T) {
	m := newTestTUI()
	cmd := pressKey(m, tea.KeyCtrlQ)
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())

	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyCtrlE})
	assert.Nil(t, cmd)
	assert.True(t, m.escaped)
}

func TestTeaKeys(t *testing.T) {
	assert.Equal(t,
		[]editor.Key{editor.Rune('a'), editor.Rune('b')},
		teaKeys(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("ab")}))
	assert.Equal(t, []editor.Key{editor.Rune(' ')}, teaKeys(tea.KeyMsg{Type: tea.KeySpace}))
	assert.Equal(t, []editor.Key{{Code: editor.KeyUp}}, teaKeys(tea.KeyMsg{Type: tea.KeyUp}))
	assert.Equal(t, []editor.Key{{Code: editor.KeyEnter}}, teaKeys(tea.KeyMsg{Type: tea.KeyEnter}))
	assert.Nil(t, teaKeys(tea.KeyMsg{Type: tea.KeyF12}))
}

func TestInputLabel(t *testing.T) {
	assert.Equal(t, "EOF", inputLabel(vm.Input{EOF: true}))
	assert.Equal(t, "<NUL>", inputLabel(vm.Input{}))
	assert.Equal(t, "<NL>", inputLabel(vm.Input{Byte: '\n'}))
	assert.Equal(t, "<SP>", inputLabel(vm.Input{Byte: ' '}))
	assert.Equal(t, "'x'", inputLabel(vm.Input{Byte: 'x'}))
	assert.Equal(t, "0xe2", inputLabel(vm.Input{Byte: 0xe2}))
}
