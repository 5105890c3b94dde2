package runeio

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

const hexDigits = "0123456789abcdef"

// AppendEscaped appends a printable form of the raw bytes p to dst: printable
// ASCII, newline, and tab pass through; a backslash is doubled; other
// controls become caret forms; bytes from 0x80 up become \xNN.
func AppendEscaped(dst, p []byte) []byte {
	for _, b := range p {
		switch {
		case b == '\\':
			dst = append(dst, '\\', '\\')
		case b == '\n', b == '\t', b >= 0x20 && b < 0x7f:
			dst = append(dst, b)
		case b < 0x80:
			dst = append(dst, CaretForm(rune(b))...)
		default:
			dst = append(dst, '\\', 'x', hexDigits[b>>4], hexDigits[b&0xf])
		}
	}
	return dst
}

// EscapeString is AppendEscaped for a string result.
func EscapeString(p []byte) string { return string(AppendEscaped(nil, p)) }

// Unescape decodes text given on a command line into raw bytes. Go escape
// sequences (\n, \x00, \u00e9) and control mnemonics (<NUL>, <eot>) are
// decoded; everything else is taken as UTF-8.
func Unescape(s string) ([]byte, error) {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); {
		switch s[i] {
		case '\\':
			value, multibyte, tail, err := strconv.UnquoteChar(s[i:], 0)
			if err != nil {
				return nil, fmt.Errorf("invalid escape at offset %v in %q: %w", i, s, err)
			}
			if multibyte {
				out = utf8.AppendRune(out, value)
			} else {
				out = append(out, byte(value))
			}
			i = len(s) - len(tail)
			continue

		case '<':
			if end := strings.IndexByte(s[i:], '>'); end > 0 {
				if r, ok := ControlWords[s[i:i+end+1]]; ok {
					out = append(out, byte(r))
					i += end + 1
					continue
				}
			}
		}
		out = append(out, s[i])
		i++
	}
	return out, nil
}
