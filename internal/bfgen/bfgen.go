// Package bfgen generates tape machine programs that print given bytes.
package bfgen

import (
	"math"
	"strings"
)

// Options control code generation.
type Options struct {
	// UseLoops allows building a byte from zero with a multiplication loop
	// over a scratch cell to the right of the output cell.
	UseLoops bool

	// MaxLoopFactor bounds the outer loop counter tried by UseLoops.
	MaxLoopFactor int

	// AssumeWrapping allows delta encodings that wrap around 0 or 255.
	AssumeWrapping bool
}

// DefaultOptions returns the options used by Generate.
func DefaultOptions() Options {
	return Options{
		UseLoops:       true,
		MaxLoopFactor:  16,
		AssumeWrapping: true,
	}
}

// Generate returns a program printing data, using DefaultOptions.
func Generate(data []byte) string { return DefaultOptions().Generate(data) }

// Generate returns a program that prints data. Each byte is encoded by the
// shorter of a delta from the previous byte and a clear-and-build from zero,
// preferring the delta on ties.
func (opts Options) Generate(data []byte) string {
	var sb strings.Builder
	var cur byte
	for _, b := range data {
		delta := opts.delta(cur, b)
		if build := opts.build(b); len(build) < len(delta) {
			sb.WriteString(build)
		} else {
			sb.WriteString(delta)
		}
		sb.WriteByte('.')
		cur = b
	}
	return sb.String()
}

func (opts Options) delta(from, to byte) string {
	if from == to {
		return ""
	}
	if opts.AssumeWrapping {
		up, down := to-from, from-to
		if up <= down {
			return strings.Repeat("+", int(up))
		}
		return strings.Repeat("-", int(down))
	}
	if to > from {
		return strings.Repeat("+", int(to-from))
	}
	return strings.Repeat("-", int(from-to))
}

// build sets the current cell to target from any prior value, leaving the
// scratch cell zeroed and the pointer on the current cell.
func (opts Options) build(target byte) string {
	best := "[-]" + strings.Repeat("+", int(target))
	if !opts.UseLoops || target == 0 {
		return best
	}

	for a := 1; a <= opts.MaxLoopFactor; a++ {
		b := int(math.Round(float64(target) / float64(a)))
		if b < 1 {
			b = 1
		} else if b > 255 {
			b = 255
		}

		var sb strings.Builder
		sb.WriteString("[-]>[-]<")
		sb.WriteString(strings.Repeat("+", a))
		sb.WriteString("[>")
		sb.WriteString(strings.Repeat("+", b))
		sb.WriteString("<-]>")
		if r := int(target) - a*b; r > 0 {
			sb.WriteString(strings.Repeat("+", r))
		} else if r < 0 {
			sb.WriteString(strings.Repeat("-", -r))
		}
		sb.WriteString("[<+>-]<")

		if sb.Len() < len(best) {
			best = sb.String()
		}
	}
	return best
}
