package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"github.com/jcorbin/gobf/internal/bfgen"
	"github.com/jcorbin/gobf/internal/program"
	"github.com/jcorbin/gobf/internal/vm"
)

type writeCmd struct {
	*cli
	file   string
	bytes  bool
	verify bool
	gen    bfgen.Options
	noLoop bool
	noWrap bool
}

func (c *cli) writeCmd() *cobra.Command {
	wc := &writeCmd{cli: c, gen: bfgen.DefaultOptions()}
	cmd := &cobra.Command{
		Use:   "write [flags] [TEXT...]",
		Short: "Generate a program that prints text",
		Long: `Generate a program that prints TEXT (arguments joined by spaces), the
contents of --file, or stdin when neither is given.

Input must be UTF-8 unless --bytes is given.`,
		Example: `  bf write Hello world
  bf write --bytes --file image.bin
  echo hi | bf write`,
		RunE: wc.run,
	}
	flags := cmd.Flags()
	flags.StringVarP(&wc.file, "file", "f", "", "print the contents of `PATH`")
	flags.BoolVar(&wc.bytes, "bytes", false, "accept arbitrary bytes rather than UTF-8 text")
	flags.BoolVar(&wc.verify, "verify", false, "run the generated program and check its output")
	flags.BoolVar(&wc.noLoop, "no-loops", false, "only use increments and decrements")
	flags.IntVar(&wc.gen.MaxLoopFactor, "max-loop-factor", wc.gen.MaxLoopFactor, "largest loop counter tried when building bytes")
	flags.BoolVar(&wc.noWrap, "no-wrap", false, "never rely on cells wrapping around 0 or 255")
	return cmd
}

func (wc *writeCmd) run(cmd *cobra.Command, args []string) error {
	if wc.file != "" && len(args) > 0 {
		return usagef("cannot use positional TEXT together with --file")
	}

	var (
		data []byte
		err  error
	)
	switch {
	case wc.file != "":
		data, err = os.ReadFile(wc.file)
	case len(args) > 0:
		data = []byte(strings.Join(args, " "))
	default:
		data, err = io.ReadAll(wc.stdin)
	}
	if err != nil {
		return err
	}
	if !wc.bytes && !utf8.Valid(data) {
		return fmt.Errorf("input is not valid UTF-8 (use --bytes for binary)")
	}

	gen := wc.gen
	gen.UseLoops = !wc.noLoop
	gen.AssumeWrapping = !wc.noWrap
	code := gen.Generate(data)

	if wc.verify {
		if err := verifyGenerated(cmd, code, data); err != nil {
			return err
		}
	}

	_, err = fmt.Fprintln(wc.stdout, code)
	return err
}

// verifyGenerated runs code to completion and compares its output to want.
func verifyGenerated(cmd *cobra.Command, code string, want []byte) error {
	prog, err := program.Parse(code)
	if err != nil {
		return fmt.Errorf("generated invalid program: %w", err)
	}
	run, err := vm.New().Start(cmd.Context(), prog, vm.Config{})
	if err != nil {
		return err
	}
	var got bytes.Buffer
	for ev := range run.Events() {
		switch ev := ev.(type) {
		case vm.OutputEvent:
			got.Write(ev.Bytes)
		case vm.NeedsInputEvent:
			run.ProvideInput(vm.Input{EOF: true})
		}
	}
	if halted := run.Halted(); halted.Err != nil {
		return fmt.Errorf("generated program failed: %w", halted.Err)
	}
	if !bytes.Equal(got.Bytes(), want) {
		return fmt.Errorf("generated program printed %q, expected %q", got.Bytes(), want)
	}
	return nil
}
