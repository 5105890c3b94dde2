package program_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/jcorbin/gobf/internal/program"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	for _, tc := range []struct {
		name    string
		text    string
		wantErr *program.SyntaxError
	}{
		{name: "empty", text: ""},
		{name: "all ops", text: "><+-.,[]"},
		{name: "hello", text: "++++++++++[>+++++++>++++++++++>+++>+<<<<-]>++."},
		{name: "nested", text: "+[[-]+[-]]"},
		{name: "invalid char", text: "+a+",
			wantErr: &program.SyntaxError{Kind: program.InvalidCharacter, Pos: 1, Char: 'a'}},
		{name: "whitespace is invalid", text: "+ +",
			wantErr: &program.SyntaxError{Kind: program.InvalidCharacter, Pos: 1, Char: ' '}},
		{name: "rune positions", text: "+é+",
			wantErr: &program.SyntaxError{Kind: program.InvalidCharacter, Pos: 1, Char: 'é'}},
		{name: "stray close", text: "]",
			wantErr: &program.SyntaxError{Kind: program.UnmatchedBracket, Pos: 0, Char: ']'}},
		{name: "late close", text: "[]]",
			wantErr: &program.SyntaxError{Kind: program.UnmatchedBracket, Pos: 2, Char: ']'}},
		{name: "unclosed open", text: "[+",
			wantErr: &program.SyntaxError{Kind: program.UnmatchedBracket, Pos: 0, Char: '['}},
		{name: "innermost unclosed", text: "[[]+[",
			wantErr: &program.SyntaxError{Kind: program.UnmatchedBracket, Pos: 4, Char: '['}},
		{name: "invalid before unmatched", text: "[x",
			wantErr: &program.SyntaxError{Kind: program.InvalidCharacter, Pos: 1, Char: 'x'}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			prog, err := program.Parse(tc.text)
			if tc.wantErr != nil {
				require.Error(t, err)
				assert.Nil(t, prog, "expected no program on error")
				var synErr *program.SyntaxError
				require.True(t, errors.As(err, &synErr), "expected a SyntaxError")
				assert.Equal(t, tc.wantErr, synErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.text, prog.String())
			expectBijection(t, prog)
		})
	}
}

func expectBijection(t *testing.T, prog *program.Program) {
	require.Equal(t, len(prog.Ops), len(prog.Jump), "jump map must cover every op")
	for i, op := range prog.Ops {
		j := prog.Jump[i]
		switch op {
		case program.OpOpen:
			require.True(t, j > i, "open @%v must jump forward, got %v", i, j)
			assert.Equal(t, program.OpClose, prog.Ops[j], "open @%v must match a close", i)
			assert.Equal(t, i, prog.Jump[j], "match of open @%v must map back", i)
		case program.OpClose:
			require.True(t, j >= 0 && j < i, "close @%v must jump backward, got %v", i, j)
			assert.Equal(t, program.OpOpen, prog.Ops[j], "close @%v must match an open", i)
			assert.Equal(t, i, prog.Jump[j], "match of close @%v must map back", i)
		default:
			assert.Equal(t, -1, j, "non bracket @%v must not jump", i)
		}
	}
}

func TestParse_balancedAlwaysBijective(t *testing.T) {
	// generate deterministic balanced programs of increasing depth
	for depth := 1; depth <= 8; depth++ {
		var sb strings.Builder
		for i := 0; i < depth; i++ {
			sb.WriteString("+[")
			if i%2 == 0 {
				sb.WriteString(">[-]<")
			}
		}
		for i := 0; i < depth; i++ {
			sb.WriteString("-]")
		}
		prog, err := program.Parse(sb.String())
		require.NoError(t, err, "depth %v: %q", depth, sb.String())
		expectBijection(t, prog)
	}
}

func TestFilter(t *testing.T) {
	assert.Equal(t, "+[->+<]", program.Filter("+ [ - > + < ] # comment é"))
	assert.Equal(t, "", program.Filter("hello world"))
}

func TestSyntaxError(t *testing.T) {
	err := &program.SyntaxError{Kind: program.UnmatchedBracket, Pos: 3, Char: ']'}
	assert.EqualError(t, err, `unmatched bracket ']' at 3`)
}
