// Package fileinput assembles program text from a queue of named inputs,
// mapping offsets in the combined text back to input locations.
package fileinput

import (
	"fmt"
	"io"
	"strings"

	"github.com/jcorbin/gobf/internal/runeio"
)

// Location names a 1-based line and column (in runes) within a named input.
type Location struct {
	Name string
	Line int
	Col  int
}

func (loc Location) String() string { return fmt.Sprintf("%v:%v:%v", loc.Name, loc.Line, loc.Col) }

type part struct {
	name  string
	start int // rune offset into the combined text
	runes []rune
}

// Source concatenates inputs, without separators, into one text. Readers in
// Queue are consumed by ReadQueue; strings may be added directly with Add.
type Source struct {
	Queue []io.Reader

	parts []part
	text  strings.Builder
	runes int
}

// Add appends text under name.
func (src *Source) Add(name, text string) {
	p := part{name: name, start: src.runes, runes: []rune(text)}
	src.parts = append(src.parts, p)
	src.text.WriteString(text)
	src.runes += len(p.runes)
}

// ReadQueue reads every queued reader in order, closing those that are
// io.Closers. A single trailing line break is dropped from each input.
func (src *Source) ReadQueue() error {
	for len(src.Queue) > 0 {
		r := src.Queue[0]
		src.Queue = src.Queue[1:]
		text, err := readAll(runeio.NewReader(r))
		if cl, ok := r.(io.Closer); ok {
			if cerr := cl.Close(); err == nil {
				err = cerr
			}
		}
		name := nameOf(r)
		if err != nil {
			return fmt.Errorf("%v: %w", name, err)
		}
		text = strings.TrimSuffix(text, "\n")
		text = strings.TrimSuffix(text, "\r")
		src.Add(name, text)
	}
	return nil
}

func readAll(rr io.RuneReader) (string, error) {
	var sb strings.Builder
	for {
		r, _, err := rr.ReadRune()
		if err == io.EOF {
			return sb.String(), nil
		} else if err != nil {
			return sb.String(), err
		}
		sb.WriteRune(r)
	}
}

// Text returns the combined text.
func (src *Source) Text() string { return src.text.String() }

// Len returns the number of runes in the combined text.
func (src *Source) Len() int { return src.runes }

// Names returns the input names in order.
func (src *Source) Names() []string {
	names := make([]string, len(src.parts))
	for i, p := range src.parts {
		names[i] = p.name
	}
	return names
}

// Locate maps a rune offset in the combined text to its input location; the
// end offset locates just past the last input.
func (src *Source) Locate(pos int) (Location, bool) {
	if pos < 0 || pos > src.runes || len(src.parts) == 0 {
		return Location{}, false
	}
	i := len(src.parts) - 1
	for j, p := range src.parts {
		if pos < p.start+len(p.runes) {
			i = j
			break
		}
	}
	p := src.parts[i]
	loc := Location{Name: p.name, Line: 1, Col: 1}
	for _, r := range p.runes[:pos-p.start] {
		if r == '\n' {
			loc.Line++
			loc.Col = 1
		} else {
			loc.Col++
		}
	}
	return loc, true
}

func nameOf(obj interface{}) string {
	if nom, ok := obj.(interface{ Name() string }); ok {
		return nom.Name()
	}
	return fmt.Sprintf("<unnamed %T>", obj)
}
