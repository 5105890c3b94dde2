package editor_test

import (
	"errors"
	"testing"

	"github.com/jcorbin/gobf/internal/editor"
	"github.com/jcorbin/gobf/internal/program"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	up        = editor.Key{Code: editor.KeyUp}
	down      = editor.Key{Code: editor.KeyDown}
	enter     = editor.Key{Code: editor.KeyEnter}
	esc       = editor.Key{Code: editor.KeyEsc}
	backspace = editor.Key{Code: editor.KeyBackspace}
	browse    = editor.Key{Code: editor.KeyBrowse}
	submit    = editor.Key{Code: editor.KeySubmit}
	interrupt = editor.Key{Code: editor.KeyInterrupt}
)

type recorder struct {
	progs []string
	err   error
}

func (rec *recorder) Submit(prog *program.Program) error {
	if rec.err != nil {
		return rec.err
	}
	rec.progs = append(rec.progs, prog.String())
	return nil
}

// feed handles keys in order, returning the last effect.
func feed(ctl *editor.Controller, keys ...editor.Key) (eff editor.Effect) {
	for _, k := range keys {
		eff = ctl.Handle(k)
	}
	return eff
}

func typed(s string) []editor.Key { return editor.Runes(s) }

// withHistory returns a controller that has already submitted each entry.
func withHistory(t *testing.T, rec *recorder, entries ...string) *editor.Controller {
	ctl := editor.New(rec)
	for _, entry := range entries {
		feed(ctl, typed(entry)...)
		eff := feed(ctl, submit)
		require.Equal(t, editor.EffectSubmitted, eff.Kind, "submitting %q", entry)
	}
	require.Equal(t, entries, ctl.History().Entries())
	return ctl
}

func TestController_gate(t *testing.T) {
	var rec recorder
	ctl := withHistory(t, &rec, "+", "++", "+++")

	feed(ctl, typed("-->")...)
	feed(ctl, enter)
	feed(ctl, typed("<<")...)
	require.Equal(t, []string{"-->", "<<"}, ctl.Buffer().Lines())
	require.Equal(t, editor.Cursor{Row: 1, Col: 2}, ctl.Buffer().Cursor())

	feed(ctl, up)
	assert.Equal(t, editor.Edit, ctl.Mode(), "row 1 up stays in edit")
	assert.Equal(t, editor.Cursor{Row: 0, Col: 2}, ctl.Buffer().Cursor())

	feed(ctl, up)
	assert.Equal(t, editor.Edit, ctl.Mode(), "row 0 col > 0 up stays in edit")
	assert.Equal(t, editor.Cursor{Row: 0, Col: 0}, ctl.Buffer().Cursor())

	feed(ctl, up)
	require.Equal(t, editor.HistoryBrowse, ctl.Mode(), "up at the gate browses")
	assert.Equal(t, "+++", ctl.Buffer().Text(), "newest entry first")
	assert.Equal(t, 2, ctl.HistoryIndex())

	feed(ctl, up, up, up, up)
	assert.Equal(t, "+", ctl.Buffer().Text(), "older is clamped at the oldest")
	assert.Equal(t, 0, ctl.HistoryIndex())

	feed(ctl, esc)
	assert.Equal(t, editor.Edit, ctl.Mode())
	assert.Equal(t, []string{"-->", "<<"}, ctl.Buffer().Lines(), "esc restores the saved buffer")
	assert.Equal(t, editor.Cursor{Row: 0, Col: 0}, ctl.Buffer().Cursor(), "esc restores the saved cursor")
}

func TestController_browseDown(t *testing.T) {
	var rec recorder
	ctl := withHistory(t, &rec, "+", "++")
	feed(ctl, typed("<>")...)
	feed(ctl, browse)
	require.Equal(t, editor.HistoryBrowse, ctl.Mode(), "browse works away from the gate")
	assert.Equal(t, "++", ctl.Buffer().Text())

	feed(ctl, up)
	assert.Equal(t, "+", ctl.Buffer().Text())
	feed(ctl, down)
	assert.Equal(t, "++", ctl.Buffer().Text())
	feed(ctl, down)
	assert.Equal(t, "<>", ctl.Buffer().Text(), "past the newest shows the saved buffer")
	assert.Equal(t, 2, ctl.HistoryIndex())
	feed(ctl, down, down)
	assert.Equal(t, "<>", ctl.Buffer().Text(), "never below the saved slot")
	assert.Equal(t, editor.HistoryBrowse, ctl.Mode())
}

func TestController_browseAccept(t *testing.T) {
	t.Run("enter", func(t *testing.T) {
		var rec recorder
		ctl := withHistory(t, &rec, "+\n-", "++")
		feed(ctl, up, up, enter)
		assert.Equal(t, editor.Edit, ctl.Mode())
		assert.Equal(t, []string{"+", "-"}, ctl.Buffer().Lines())
		assert.Equal(t, editor.Cursor{Row: 1, Col: 1}, ctl.Buffer().Cursor(), "cursor at end of accepted entry")
		assert.Equal(t, []string{"+\n-", "++"}, ctl.History().Entries(), "accepting does not alter history")
	})

	t.Run("editing key", func(t *testing.T) {
		var rec recorder
		ctl := withHistory(t, &rec, "++")
		feed(ctl, up)
		feed(ctl, editor.Rune('.'))
		assert.Equal(t, editor.Edit, ctl.Mode())
		assert.Equal(t, "++.", ctl.Buffer().Text(), "key applies to the accepted entry")

		feed(ctl, up)
		require.Equal(t, editor.Edit, ctl.Mode(), "cursor not at the gate")
		feed(ctl, up)
		require.Equal(t, editor.HistoryBrowse, ctl.Mode())
		feed(ctl, backspace)
		assert.Equal(t, editor.Edit, ctl.Mode())
		assert.Equal(t, "+", ctl.Buffer().Text())
	})

	t.Run("submit ignored", func(t *testing.T) {
		var rec recorder
		ctl := withHistory(t, &rec, "+")
		feed(ctl, up)
		eff := feed(ctl, submit)
		assert.Equal(t, editor.EffectNone, eff.Kind)
		assert.Equal(t, editor.HistoryBrowse, ctl.Mode())
		assert.Equal(t, []string{"+"}, rec.progs)
	})

	t.Run("empty history", func(t *testing.T) {
		ctl := editor.New(nil)
		assert.Equal(t, editor.EffectNone, feed(ctl, up).Kind)
		assert.Equal(t, editor.EffectNone, feed(ctl, browse).Kind)
		assert.Equal(t, editor.Edit, ctl.Mode())
	})
}

func TestController_submit(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		var rec recorder
		ctl := editor.New(&rec)
		assert.Equal(t, editor.EffectNone, feed(ctl, submit).Kind)
		assert.Empty(t, rec.progs)
		assert.Equal(t, 0, ctl.History().Len())
	})

	t.Run("multi line", func(t *testing.T) {
		var rec recorder
		ctl := editor.New(&rec)
		feed(ctl, typed("++\n>+\n")...)
		eff := feed(ctl, submit)
		require.Equal(t, editor.EffectSubmitted, eff.Kind)
		assert.Equal(t, "++>+", eff.Source, "rows are joined without line breaks")
		assert.Equal(t, []string{"++>+"}, rec.progs)
		assert.Equal(t, []string{"++\n>+\n"}, ctl.History().Entries())
		assert.True(t, ctl.Buffer().Empty(), "a new empty buffer starts")
	})

	t.Run("invalid", func(t *testing.T) {
		var rec recorder
		ctl := editor.New(&rec)
		feed(ctl, typed("+[")...)
		eff := feed(ctl, submit)
		require.Equal(t, editor.EffectInvalid, eff.Kind)
		var synErr *program.SyntaxError
		require.True(t, errors.As(eff.Err, &synErr))
		assert.Equal(t, program.UnmatchedBracket, synErr.Kind)
		assert.Equal(t, 1, synErr.Pos)
		assert.Equal(t, "+[", ctl.Buffer().Text(), "buffer kept for correction")
		assert.Equal(t, 0, ctl.History().Len())
		assert.Empty(t, rec.progs)
	})

	t.Run("lenient", func(t *testing.T) {
		var rec recorder
		ctl := editor.New(&rec)
		ctl.SetLenient(true)
		feed(ctl, typed("+ + # add two")...)
		eff := feed(ctl, submit)
		require.Equal(t, editor.EffectSubmitted, eff.Kind)
		assert.Equal(t, []string{"++"}, rec.progs)

		feed(ctl, typed("just words")...)
		assert.Equal(t, editor.EffectNone, feed(ctl, submit).Kind)
	})

	t.Run("rejected", func(t *testing.T) {
		rec := recorder{err: errors.New("busy")}
		ctl := editor.New(&rec)
		feed(ctl, typed("+")...)
		eff := feed(ctl, submit)
		assert.Equal(t, editor.EffectRejected, eff.Kind)
		assert.EqualError(t, eff.Err, "busy")
		assert.Equal(t, "+", ctl.Buffer().Text())
		assert.Equal(t, 0, ctl.History().Len())
	})
}

func TestController_meta(t *testing.T) {
	t.Run("exit", func(t *testing.T) {
		ctl := editor.New(nil)
		feed(ctl, typed(":exit")...)
		assert.Equal(t, editor.EffectExit, feed(ctl, enter).Kind)
	})

	t.Run("reset keeps history", func(t *testing.T) {
		var rec recorder
		ctl := withHistory(t, &rec, "+++")
		feed(ctl, typed("--\n:reset")...)
		eff := feed(ctl, enter)
		assert.Equal(t, editor.EffectRedraw, eff.Kind)
		assert.True(t, ctl.Buffer().Empty())
		assert.Equal(t, []string{"+++"}, ctl.History().Entries())
	})

	t.Run("dump", func(t *testing.T) {
		ctl := editor.New(nil)
		feed(ctl, typed("+\n-\n:dump -n --stderr")...)
		eff := feed(ctl, enter)
		require.Equal(t, editor.EffectOutput, eff.Kind)
		assert.True(t, eff.Stderr)
		assert.Equal(t, "   1  +\n   2  -\n", eff.Text)
		assert.Equal(t, []string{"+", "-"}, ctl.Buffer().Lines(), "dump does not mutate the buffer")

		feed(ctl, enter)
		feed(ctl, typed(":dump")...)
		eff = feed(ctl, enter)
		assert.False(t, eff.Stderr)
		assert.Equal(t, "+\n-\n", eff.Text)
	})

	t.Run("history", func(t *testing.T) {
		var rec recorder
		ctl := withHistory(t, &rec, "+", "-")
		feed(ctl, typed(":history")...)
		eff := feed(ctl, enter)
		assert.Equal(t, "   1  +\n   2  -\n", eff.Text)
		assert.Equal(t, 2, ctl.History().Len(), "meta commands never enter history")
	})

	t.Run("help", func(t *testing.T) {
		ctl := editor.New(nil)
		ctl.AddMeta("tape", "show the tape", func(*editor.Controller, []string) editor.Effect {
			return editor.Effect{Kind: editor.EffectOutput, Text: "tape"}
		})
		feed(ctl, typed(":help")...)
		eff := feed(ctl, enter)
		require.Equal(t, editor.EffectOutput, eff.Kind)
		assert.True(t, eff.Stderr)
		for _, name := range []string{":exit", ":help", ":reset", ":dump", ":history", ":tape"} {
			assert.Contains(t, eff.Text, name)
		}

		feed(ctl, typed(":tape")...)
		assert.Equal(t, "tape", feed(ctl, enter).Text)
	})

	t.Run("unknown", func(t *testing.T) {
		ctl := editor.New(nil)
		feed(ctl, typed(":frob")...)
		eff := feed(ctl, enter)
		assert.Equal(t, editor.EffectError, eff.Kind)
		assert.EqualError(t, eff.Err, "unknown meta command :frob, try :help")
		assert.True(t, ctl.Buffer().Empty(), "meta row is consumed")
	})

	t.Run("only at row start", func(t *testing.T) {
		ctl := editor.New(nil)
		feed(ctl, typed("+:exit")...)
		assert.Equal(t, editor.EffectRedraw, feed(ctl, enter).Kind)
		assert.Equal(t, []string{"+:exit", ""}, ctl.Buffer().Lines())
	})
}

func TestController_interrupt(t *testing.T) {
	var rec recorder
	ctl := withHistory(t, &rec, "+")
	assert.Equal(t, editor.EffectExit, feed(ctl, interrupt).Kind)
	feed(ctl, up)
	require.Equal(t, editor.HistoryBrowse, ctl.Mode())
	assert.Equal(t, editor.EffectExit, feed(ctl, interrupt).Kind)
}

func TestController_total(t *testing.T) {
	keys := []editor.Key{editor.Rune('+'), editor.Rune('\n'), editor.Rune(':')}
	for code := editor.KeyEnter; code <= editor.KeyInterrupt; code++ {
		keys = append(keys, editor.Key{Code: code})
	}
	var rec recorder
	for _, first := range keys {
		for _, second := range keys {
			for _, third := range keys {
				ctl := withHistory(t, &rec, "+", "-")
				feed(ctl, typed("<\n>")...)
				require.NotPanics(t, func() { feed(ctl, first, second, third) },
					"keys %v %v %v", first, second, third)
				switch ctl.Mode() {
				case editor.Edit, editor.HistoryBrowse:
				default:
					t.Fatalf("invalid mode %v", ctl.Mode())
				}
				cur := ctl.Buffer().Cursor()
				lines := ctl.Buffer().Lines()
				require.True(t, cur.Row >= 0 && cur.Row < len(lines), "row in range after %v %v %v", first, second, third)
				require.True(t, cur.Col >= 0 && cur.Col <= len([]rune(lines[cur.Row])), "col in range after %v %v %v", first, second, third)
			}
		}
	}
}

func TestBuffer(t *testing.T) {
	buf := editor.NewBuffer("ab\ncd")
	assert.Equal(t, editor.Cursor{Row: 1, Col: 2}, buf.Cursor())
	buf.Home()
	buf.Backspace()
	assert.Equal(t, []string{"abcd"}, buf.Lines())
	assert.Equal(t, editor.Cursor{Row: 0, Col: 2}, buf.Cursor())
	buf.NewLine()
	assert.Equal(t, []string{"ab", "cd"}, buf.Lines())
	buf.Left()
	assert.Equal(t, editor.Cursor{Row: 0, Col: 2}, buf.Cursor())
	buf.Delete()
	assert.Equal(t, []string{"abcd"}, buf.Lines())
	buf.Insert('é')
	assert.Equal(t, "abécd", buf.Text())
	buf.Right()
	buf.Right()
	buf.Right()
	assert.Equal(t, editor.Cursor{Row: 0, Col: 5}, buf.Cursor(), "right stops at the end")
	assert.Equal(t, "abécd", buf.RemoveRow(0))
	assert.True(t, buf.Empty())

}
