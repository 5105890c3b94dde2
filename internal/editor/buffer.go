package editor

import "strings"

// Cursor is a position within a Buffer; Col counts runes.
type Cursor struct{ Row, Col int }

// Buffer is a multi-line text buffer with a cursor; the zero value is a
// single empty line.
type Buffer struct {
	lines [][]rune
	cur   Cursor
}

// NewBuffer returns a buffer holding text with the cursor at its end.
func NewBuffer(text string) Buffer {
	var buf Buffer
	for _, line := range strings.Split(text, "\n") {
		buf.lines = append(buf.lines, []rune(line))
	}
	buf.cur.Row = len(buf.lines) - 1
	buf.cur.Col = len(buf.lines[buf.cur.Row])
	return buf
}

func (buf *Buffer) init() {
	if len(buf.lines) == 0 {
		buf.lines = [][]rune{nil}
	}
}

// Cursor returns the cursor position.
func (buf *Buffer) Cursor() Cursor { return buf.cur }

// Lines returns the buffer's rows.
func (buf *Buffer) Lines() []string {
	buf.init()
	lines := make([]string, len(buf.lines))
	for i, line := range buf.lines {
		lines[i] = string(line)
	}
	return lines
}

// Line returns row i, or "" if out of range.
func (buf *Buffer) Line(i int) string {
	if i < 0 || i >= len(buf.lines) {
		return ""
	}
	return string(buf.lines[i])
}

// Text returns the rows joined by newlines.
func (buf *Buffer) Text() string { return strings.Join(buf.Lines(), "\n") }

// Joined returns the rows concatenated without line breaks.
func (buf *Buffer) Joined() string { return strings.Join(buf.Lines(), "") }

// Empty returns true if the buffer holds a single empty row.
func (buf *Buffer) Empty() bool {
	return len(buf.lines) <= 1 && (len(buf.lines) == 0 || len(buf.lines[0]) == 0)
}

// AtGate returns true if the cursor is at row 0, column 0.
func (buf *Buffer) AtGate() bool { return buf.cur == Cursor{} }

func (buf *Buffer) clone() Buffer {
	buf.init()
	dup := Buffer{lines: make([][]rune, len(buf.lines)), cur: buf.cur}
	for i, line := range buf.lines {
		dup.lines[i] = append([]rune(nil), line...)
	}
	return dup
}

// Insert inserts r before the cursor; a newline splits the row.
func (buf *Buffer) Insert(r rune) {
	if r == '\n' {
		buf.NewLine()
		return
	}
	buf.init()
	line := buf.lines[buf.cur.Row]
	line = append(line, 0)
	copy(line[buf.cur.Col+1:], line[buf.cur.Col:])
	line[buf.cur.Col] = r
	buf.lines[buf.cur.Row] = line
	buf.cur.Col++
}

// NewLine splits the current row at the cursor, moving to the new row.
func (buf *Buffer) NewLine() {
	buf.init()
	row, col := buf.cur.Row, buf.cur.Col
	head := buf.lines[row][:col:col]
	tail := append([]rune(nil), buf.lines[row][col:]...)
	buf.lines = append(buf.lines, nil)
	copy(buf.lines[row+2:], buf.lines[row+1:])
	buf.lines[row] = head
	buf.lines[row+1] = tail
	buf.cur = Cursor{Row: row + 1}
}

// Backspace deletes the rune before the cursor, joining with the previous
// row at column 0.
func (buf *Buffer) Backspace() {
	buf.init()
	row, col := buf.cur.Row, buf.cur.Col
	switch {
	case col > 0:
		line := buf.lines[row]
		buf.lines[row] = append(line[:col-1], line[col:]...)
		buf.cur.Col--
	case row > 0:
		prev := buf.lines[row-1]
		buf.cur = Cursor{Row: row - 1, Col: len(prev)}
		buf.lines[row-1] = append(prev, buf.lines[row]...)
		buf.lines = append(buf.lines[:row], buf.lines[row+1:]...)
	}
}

// Delete deletes the rune under the cursor, joining with the next row at the
// end of a row.
func (buf *Buffer) Delete() {
	buf.init()
	row, col := buf.cur.Row, buf.cur.Col
	line := buf.lines[row]
	switch {
	case col < len(line):
		buf.lines[row] = append(line[:col], line[col+1:]...)
	case row+1 < len(buf.lines):
		buf.lines[row] = append(line, buf.lines[row+1]...)
		buf.lines = append(buf.lines[:row+1], buf.lines[row+2:]...)
	}
}

// Left moves back one rune, wrapping to the end of the previous row.
func (buf *Buffer) Left() {
	buf.init()
	if buf.cur.Col > 0 {
		buf.cur.Col--
	} else if buf.cur.Row > 0 {
		buf.cur.Row--
		buf.cur.Col = len(buf.lines[buf.cur.Row])
	}
}

// Right moves forward one rune, wrapping to the start of the next row.
func (buf *Buffer) Right() {
	buf.init()
	if buf.cur.Col < len(buf.lines[buf.cur.Row]) {
		buf.cur.Col++
	} else if buf.cur.Row+1 < len(buf.lines) {
		buf.cur = Cursor{Row: buf.cur.Row + 1}
	}
}

// Home moves to the start of the row.
func (buf *Buffer) Home() { buf.cur.Col = 0 }

// End moves to the end of the row.
func (buf *Buffer) End() {
	buf.init()
	buf.cur.Col = len(buf.lines[buf.cur.Row])
}

// Up moves to the previous row keeping the column where possible; on row 0
// it moves to column 0.
func (buf *Buffer) Up() {
	buf.init()
	if buf.cur.Row == 0 {
		buf.cur.Col = 0
		return
	}
	buf.cur.Row--
	buf.clampCol()
}

// Down moves to the next row keeping the column where possible; on the last
// row it moves to the end of the row.
func (buf *Buffer) Down() {
	buf.init()
	if buf.cur.Row+1 >= len(buf.lines) {
		buf.End()
		return
	}
	buf.cur.Row++
	buf.clampCol()
}

func (buf *Buffer) clampCol() {
	if n := len(buf.lines[buf.cur.Row]); buf.cur.Col > n {
		buf.cur.Col = n
	}
}

// RemoveRow deletes row i, returning its text; the cursor moves to the start
// of the row that takes its place, or the end of the buffer.
func (buf *Buffer) RemoveRow(i int) string {
	buf.init()
	if i < 0 || i >= len(buf.lines) {
		return ""
	}
	text := string(buf.lines[i])
	if len(buf.lines) == 1 {
		buf.lines[0] = nil
		buf.cur = Cursor{}
		return text
	}
	buf.lines = append(buf.lines[:i], buf.lines[i+1:]...)
	if i < len(buf.lines) {
		buf.cur = Cursor{Row: i}
	} else {
		buf.cur.Row = len(buf.lines) - 1
		buf.End()
	}
	return text
}
