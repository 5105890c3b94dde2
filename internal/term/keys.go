package term

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/jcorbin/gobf/internal/editor"
	"github.com/jcorbin/gobf/internal/runeio"
)

// key codes read from a raw mode terminal
const (
	keyCtrlA          = 0x01
	keyCtrlC          = 0x03
	keyCtrlD          = 0x04
	keyCtrlE          = 0x05
	keyCtrlH          = 0x08
	keyTab            = 0x09
	keyLineFeed       = 0x0a
	keyCarriageReturn = 0x0d
	keyCtrlN          = 0x0e
	keyCtrlP          = 0x10
	keyCtrlR          = 0x12
	keyEsc            = 0x1b
	keyBackspace      = 0x7f

	escCSI = '['
	escSS3 = 'O'
)

// DefaultEscWait is how long the decoder waits after an escape byte before
// deciding that it was a lone Esc key press rather than a sequence.
const DefaultEscWait = 50 * time.Millisecond

var errEscTimeout = errors.New("escape sequence timeout")

// Decoder turns terminal input into editor keys.
//
// In raw mode, control codes and ANSI escape sequences are decoded into
// logical keys. In bare mode (see NewBareDecoder) only newline and Ctrl-D
// are special, and end of input becomes one final KeySubmit.
type Decoder struct {
	EscWait time.Duration

	bare    bool
	eofSent bool
	runes   chan readResult
	pending []rune
	err     error
}

type readResult struct {
	r   rune
	err error
}

// NewDecoder starts reading runes from r for raw mode decoding.
func NewDecoder(r io.Reader) *Decoder {
	d := &Decoder{
		EscWait: DefaultEscWait,
		runes:   make(chan readResult),
	}
	go d.readLoop(runeio.NewReader(r))
	return d
}

// NewBareDecoder starts reading runes from r for line oriented decoding, as
// when input is piped rather than typed.
func NewBareDecoder(r io.Reader) *Decoder {
	d := NewDecoder(r)
	d.bare = true
	return d
}

func (d *Decoder) readLoop(rr runeio.Reader) {
	defer close(d.runes)
	for {
		r, _, err := rr.ReadRune()
		d.runes <- readResult{r, err}
		if err != nil {
			return
		}
	}
}

func (d *Decoder) next(ctx context.Context, wait time.Duration) (rune, error) {
	if len(d.pending) > 0 {
		r := d.pending[0]
		d.pending = d.pending[1:]
		return r, nil
	}
	if d.err != nil {
		return 0, d.err
	}

	var timeout <-chan time.Time
	if wait > 0 {
		timer := time.NewTimer(wait)
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	case <-timeout:
		return 0, errEscTimeout
	case res, ok := <-d.runes:
		if !ok {
			res.err = io.EOF
		}
		if res.err != nil {
			d.err = res.err
			return 0, res.err
		}
		return res.r, nil
	}
}

// ReadKey blocks until the next key is decoded, ctx is done, or input fails.
// Once input is exhausted, a bare decoder returns KeySubmit once and then
// io.EOF; a raw decoder returns io.EOF directly.
func (d *Decoder) ReadKey(ctx context.Context) (editor.Key, error) {
	for {
		r, err := d.next(ctx, 0)
		if err != nil {
			if d.bare && err == io.EOF && !d.eofSent {
				d.eofSent = true
				return editor.Key{Code: editor.KeySubmit}, nil
			}
			return editor.Key{}, err
		}
		if d.bare {
			switch r {
			case keyLineFeed:
				return editor.Key{Code: editor.KeyEnter}, nil
			case keyCtrlD:
				return editor.Key{Code: editor.KeySubmit}, nil
			case keyCarriageReturn:
				continue
			}
			return editor.Rune(r), nil
		}
		if k, ok := d.decode(ctx, r); ok {
			return k, nil
		}
	}
}

func (d *Decoder) decode(ctx context.Context, r rune) (editor.Key, bool) {
	switch r {
	case keyCtrlC:
		return editor.Key{Code: editor.KeyInterrupt}, true
	case keyCtrlD:
		return editor.Key{Code: editor.KeySubmit}, true
	case keyCarriageReturn, keyLineFeed:
		return editor.Key{Code: editor.KeyEnter}, true
	case keyBackspace, keyCtrlH:
		return editor.Key{Code: editor.KeyBackspace}, true
	case keyCtrlA:
		return editor.Key{Code: editor.KeyHome}, true
	case keyCtrlE:
		return editor.Key{Code: editor.KeyEnd}, true
	case keyCtrlP:
		return editor.Key{Code: editor.KeyUp}, true
	case keyCtrlN:
		return editor.Key{Code: editor.KeyDown}, true
	case keyCtrlR:
		return editor.Key{Code: editor.KeyBrowse}, true
	case keyTab:
		return editor.Rune(r), true
	case keyEsc:
		return d.escape(ctx)
	}
	if r < 0x20 {
		return editor.Key{}, false
	}
	return editor.Rune(r), true
}

func (d *Decoder) escape(ctx context.Context) (editor.Key, bool) {
	esc := editor.Key{Code: editor.KeyEsc}

	intro, err := d.next(ctx, d.EscWait)
	if err != nil {
		return esc, true
	}
	if intro != escCSI && intro != escSS3 {
		d.pending = append(d.pending, intro)
		return esc, true
	}

	var param []rune
	for {
		r, err := d.next(ctx, d.EscWait)
		if err != nil {
			return esc, true
		}
		if r >= 0x40 && r <= 0x7e {
			return sequenceKey(r, string(param))
		}
		param = append(param, r)
	}
}

func sequenceKey(final rune, param string) (editor.Key, bool) {
	var code editor.KeyCode
	switch final {
	case 'A':
		code = editor.KeyUp
	case 'B':
		code = editor.KeyDown
	case 'C':
		code = editor.KeyRight
	case 'D':
		code = editor.KeyLeft
	case 'H':
		code = editor.KeyHome
	case 'F':
		code = editor.KeyEnd
	case '~':
		switch param {
		case "1", "7":
			code = editor.KeyHome
		case "4", "8":
			code = editor.KeyEnd
		case "3":
			code = editor.KeyDelete
		default:
			return editor.Key{}, false
		}
	default:
		return editor.Key{}, false
	}
	return editor.Key{Code: code}, true
}
