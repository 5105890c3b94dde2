package term_test

import (
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	"github.com/jcorbin/gobf/internal/editor"
	"github.com/jcorbin/gobf/internal/term"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readKeys(t *testing.T, dec *term.Decoder) (keys []editor.Key) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for {
		k, err := dec.ReadKey(ctx)
		if err == io.EOF {
			return keys
		}
		require.NoError(t, err)
		keys = append(keys, k)
	}
}

func code(c editor.KeyCode) editor.Key { return editor.Key{Code: c} }

func TestDecoder(t *testing.T) {
	for _, tc := range []struct {
		name  string
		input string
		want  []editor.Key
	}{
		{"runes", "+-é", editor.Runes("+-é")},
		{"controls", "\x03\x04\r\n\x7f\x08\x01\x05\x10\x0e\x12", []editor.Key{
			code(editor.KeyInterrupt),
			code(editor.KeySubmit),
			code(editor.KeyEnter),
			code(editor.KeyEnter),
			code(editor.KeyBackspace),
			code(editor.KeyBackspace),
			code(editor.KeyHome),
			code(editor.KeyEnd),
			code(editor.KeyUp),
			code(editor.KeyDown),
			code(editor.KeyBrowse),
		}},
		{"other controls ignored", "\x02+\x07", editor.Runes("+")},
		{"tab", "\t", editor.Runes("\t")},
		{"cursor keys", "\x1b[A\x1b[B\x1b[C\x1b[D", []editor.Key{
			code(editor.KeyUp),
			code(editor.KeyDown),
			code(editor.KeyRight),
			code(editor.KeyLeft),
		}},
		{"application cursor keys", "\x1bOA\x1bOH", []editor.Key{
			code(editor.KeyUp),
			code(editor.KeyHome),
		}},
		{"home end delete", "\x1b[H\x1b[F\x1b[1~\x1b[4~\x1b[3~", []editor.Key{
			code(editor.KeyHome),
			code(editor.KeyEnd),
			code(editor.KeyHome),
			code(editor.KeyEnd),
			code(editor.KeyDelete),
		}},
		{"unknown sequence skipped", "\x1b[15~+\x1b[1;5Z", editor.Runes("+")},
		{"esc then rune", "\x1bx", []editor.Key{code(editor.KeyEsc), editor.Rune('x')}},
		{"esc at end", "+\x1b", []editor.Key{editor.Rune('+'), code(editor.KeyEsc)}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			dec := term.NewDecoder(bytes.NewReader([]byte(tc.input)))
			assert.Equal(t, tc.want, readKeys(t, dec))
		})
	}
}

func TestDecoder_loneEsc(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()

	dec := term.NewDecoder(pr)
	dec.EscWait = 10 * time.Millisecond

	go pw.Write([]byte{0x1b})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	k, err := dec.ReadKey(ctx)
	require.NoError(t, err)
	assert.Equal(t, code(editor.KeyEsc), k)
}

func TestDecoder_canceled(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()

	dec := term.NewDecoder(pr)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := dec.ReadKey(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBareDecoder(t *testing.T) {
	dec := term.NewBareDecoder(bytes.NewReader([]byte("+\x1b[A\r\n:exit\n,\x04x")))
	want := append(editor.Runes("+\x1b[A"), code(editor.KeyEnter))
	want = append(want, editor.Runes(":exit")...)
	want = append(want, code(editor.KeyEnter), editor.Rune(','), code(editor.KeySubmit))
	want = append(want, editor.Rune('x'), code(editor.KeySubmit))
	assert.Equal(t, want, readKeys(t, dec))
}

func TestNewlineWriter(t *testing.T) {
	var buf bytes.Buffer
	raw := true
	nw := term.NewlineWriter{W: &buf, Raw: func() bool { return raw }}

	n, err := nw.Write([]byte("a\nb\n\nc"))
	require.NoError(t, err)
	assert.Equal(t, 6, n)
	assert.Equal(t, "a\r\nb\r\n\r\nc", buf.String())

	buf.Reset()
	raw = false
	_, err = nw.Write([]byte("a\nb"))
	require.NoError(t, err)
	assert.Equal(t, "a\nb", buf.String())
}
