// Package program validates tape machine source text into an executable
// Program: a sequence of ops together with a precomputed bracket map.
package program

import (
	"fmt"
	"strings"
)

// Op is a single tape machine instruction.
type Op byte

// The eight instructions; any other character is invalid.
const (
	OpRight  Op = '>'
	OpLeft   Op = '<'
	OpInc    Op = '+'
	OpDec    Op = '-'
	OpOutput Op = '.'
	OpInput  Op = ','
	OpOpen   Op = '['
	OpClose  Op = ']'
)

// IsOp returns true if r is one of the eight instruction characters.
func IsOp(r rune) bool {
	switch Op(r) {
	case OpRight, OpLeft, OpInc, OpDec, OpOutput, OpInput, OpOpen, OpClose:
		return r < 0x80
	}
	return false
}

func (op Op) String() string { return string(rune(op)) }

// Program is a validated op sequence. Jump is total over bracket positions:
// Jump[i] holds the index of the bracket matching Ops[i], and is -1 for every
// non-bracket op.
type Program struct {
	Ops  []Op
	Jump []int
}

// Len returns the number of ops in the program.
func (prog *Program) Len() int { return len(prog.Ops) }

func (prog *Program) String() string {
	var sb strings.Builder
	sb.Grow(len(prog.Ops))
	for _, op := range prog.Ops {
		sb.WriteByte(byte(op))
	}
	return sb.String()
}

// Parse validates text in a single left to right scan, returning a Program
// or a *SyntaxError. Positions are rune offsets into text. Nothing is
// executed or retained on failure.
func Parse(text string) (*Program, error) {
	var (
		prog  Program
		stack []int
		pos   int
	)
	prog.Ops = make([]Op, 0, len(text))
	for _, r := range text {
		if !IsOp(r) {
			return nil, &SyntaxError{Kind: InvalidCharacter, Pos: pos, Char: r}
		}
		op := Op(r)
		prog.Ops = append(prog.Ops, op)
		prog.Jump = append(prog.Jump, -1)
		switch op {
		case OpOpen:
			stack = append(stack, pos)
		case OpClose:
			i := len(stack) - 1
			if i < 0 {
				return nil, &SyntaxError{Kind: UnmatchedBracket, Pos: pos, Char: r}
			}
			open := stack[i]
			stack = stack[:i]
			prog.Jump[open] = pos
			prog.Jump[pos] = open
		}
		pos++
	}
	if i := len(stack) - 1; i >= 0 {
		return nil, &SyntaxError{Kind: UnmatchedBracket, Pos: stack[i], Char: rune(OpOpen)}
	}
	return &prog, nil
}

// MustParse is like Parse but panics on error; meant for literal programs.
func MustParse(text string) *Program {
	prog, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return prog
}

// Filter returns text with every non-instruction rune removed.
func Filter(text string) string {
	return strings.Map(func(r rune) rune {
		if IsOp(r) {
			return r
		}
		return -1
	}, text)
}

// ErrorKind classifies a SyntaxError.
type ErrorKind int

// Syntax error kinds.
const (
	InvalidCharacter ErrorKind = iota + 1
	UnmatchedBracket
)

func (kind ErrorKind) String() string {
	switch kind {
	case InvalidCharacter:
		return "invalid character"
	case UnmatchedBracket:
		return "unmatched bracket"
	}
	return fmt.Sprintf("ErrorKind(%d)", int(kind))
}

// SyntaxError is a validation failure at a rune position.
type SyntaxError struct {
	Kind ErrorKind
	Pos  int
	Char rune
}

func (err *SyntaxError) Error() string {
	return fmt.Sprintf("%v %q at %v", err.Kind, err.Char, err.Pos)
}
