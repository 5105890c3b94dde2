package main

import (
	"bufio"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/jcorbin/gobf/internal/config"
	"github.com/jcorbin/gobf/internal/fileinput"
	"github.com/jcorbin/gobf/internal/flushio"
	"github.com/jcorbin/gobf/internal/program"
	"github.com/jcorbin/gobf/internal/runeio"
	"github.com/jcorbin/gobf/internal/vm"
)

type readCmd struct {
	*cli
	engine  engineFlags
	files   []string
	debug   bool
	input   string
	tee     string
	lenient bool
	watch   bool

	theme config.Theme
}

func (c *cli) readCmd() *cobra.Command {
	rc := &readCmd{cli: c}
	cmd := &cobra.Command{
		Use:   "read [flags] CODE...",
		Short: "Run a program once",
		Long: `Run a program given as arguments, which are concatenated, or read from
one or more files. Input for ',' is read from stdin one byte at a time; at
end of input the current cell is set to 0.

Any character other than the eight instructions is an error, unless
--lenient is given.`,
		Example: `  bf read '++++++++[>++++++++<-]>+.'
  bf read --file hello.bf
  bf read ',[.,]' < input.txt`,
		RunE: rc.run,
	}
	flags := cmd.Flags()
	flags.StringArrayVarP(&rc.files, "file", "f", nil, "read the program from `PATH` instead of arguments; may be repeated")
	flags.BoolVarP(&rc.debug, "debug", "d", false, "print a step by step table instead of performing I/O")
	flags.StringVar(&rc.input, "input", "", "input `TEXT` consumed before stdin; escapes like \\n and <NUL> are decoded")
	flags.StringVar(&rc.tee, "tee", "", "also write program output to `PATH`")
	flags.BoolVar(&rc.lenient, "lenient", false, "ignore non-instruction characters")
	flags.BoolVarP(&rc.watch, "watch", "w", false, "run again whenever a --file changes")
	rc.engine.register(cmd)
	return cmd
}

func (rc *readCmd) run(cmd *cobra.Command, args []string) error {
	switch {
	case len(rc.files) == 0 && len(args) == 0:
		return usagef("no program given")
	case len(rc.files) > 0 && len(args) > 0:
		return usagef("cannot use positional code together with --file")
	case rc.watch && len(rc.files) == 0:
		return usagef("--watch requires --file")
	}

	settings, err := rc.resolve(rc.engine.overrides(cmd))
	if err != nil {
		return err
	}
	cfg := settings.EngineConfig()
	if rc.input != "" {
		in, err := runeio.Unescape(rc.input)
		if err != nil {
			return usagef("invalid --input: %w", err)
		}
		cfg.Input = in
	}

	var tee []io.Writer
	if rc.tee != "" {
		f, err := os.Create(rc.tee)
		if err != nil {
			return err
		}
		rc.atExit(func() { f.Close() })
		tee = append(tee, f)
	}
	sink := flushio.NewSink(rc.stdout, tee...)
	rc.atExit(func() { sink.Flush() })

	var opts []vm.Option
	if rc.debug {
		opts = append(opts, vm.WithDebugTable(sink))
	}
	eng := vm.New(rc.engineOptions(opts...)...)
	feed := newInputFeed(rc.stdin)
	rc.theme = rc.loadTheme()

	if rc.watch {
		return rc.watchFiles(cmd.Context(), eng, cfg, sink, feed)
	}
	src, err := rc.load(args)
	if err != nil {
		return err
	}
	rc.runOnce(cmd.Context(), eng, src, cfg, sink, feed, nil)
	return nil
}

func (rc *readCmd) load(args []string) (*fileinput.Source, error) {
	var src fileinput.Source
	if len(rc.files) == 0 {
		src.Add("<args>", strings.Join(args, ""))
		return &src, nil
	}
	for _, name := range rc.files {
		f, err := os.Open(name)
		if err != nil {
			for _, r := range src.Queue {
				r.(io.Closer).Close()
			}
			return nil, err
		}
		src.Queue = append(src.Queue, f)
	}
	return &src, src.ReadQueue()
}

// runOnce validates and runs the loaded program, reporting any failure. It
// returns true if the run was cut short by a receive from restart.
func (rc *readCmd) runOnce(
	ctx context.Context,
	eng *vm.Engine,
	src *fileinput.Source,
	cfg vm.Config,
	sink *flushio.Sink,
	feed *inputFeed,
	restart <-chan struct{},
) bool {
	text := src.Text()
	rep := newErrorReport(rc.stderr, rc.theme)
	rep.prefix = "bf: "
	if rc.lenient {
		text = program.Filter(text)
	} else if len(rc.files) > 0 {
		rep.locate = src.Locate
	}

	prog, err := program.Parse(text)
	if err != nil {
		rc.log.Fail("%s", rep.format(err, text))
		return false
	}

	run, err := eng.Start(ctx, prog, cfg)
	if err != nil {
		rc.log.Fail("bf: %v", err)
		return false
	}
	halted, restarted := drive(run, sink, feed, restart)
	if restarted {
		return true
	}
	if halted.Reason != vm.Completed {
		// keep reruns apart when watching
		if restart != nil && !sink.AtLineStart() {
			io.WriteString(sink, "\n")
		}
		sink.Flush()
		rc.log.Fail("%s", rep.format(halted.Err, text))
		return false
	}
	io.WriteString(sink, "\n")
	if err := sink.Flush(); err != nil {
		rc.log.Fail("bf: %v", err)
	}
	return false
}

// drive consumes a run's events, writing output to sink and answering input
// requests from feed, until the run halts. A receive from restart stops the
// run early.
func drive(run *vm.Run, sink *flushio.Sink, feed *inputFeed, restart <-chan struct{}) (halted vm.HaltedEvent, restarted bool) {
	var inputs <-chan vm.Input
	for {
		select {
		case <-restart:
			restart, restarted = nil, true
			run.Stop()

		case in := <-inputs:
			inputs = nil
			if err := run.ProvideInput(in); err != nil {
				feed.unread(in)
			}

		case ev, ok := <-run.Events():
			if !ok {
				return run.Halted(), restarted
			}
			switch ev := ev.(type) {
			case vm.OutputEvent:
				if _, err := sink.Write(ev.Bytes); err != nil {
					run.Stop()
				}
			case vm.NeedsInputEvent:
				sink.Flush()
				if in, ok := feed.takeBack(); ok {
					if err := run.ProvideInput(in); err != nil {
						feed.unread(in)
					}
				} else {
					inputs = feed.c
				}
			case vm.HaltedEvent:
				halted = ev
			}
		}
	}
}

// inputFeed reads a byte source ahead by at most one byte, so that input
// requests can be answered from a select loop. After end of input, or a
// read error, every request is answered with EOF.
type inputFeed struct {
	c    chan vm.Input
	back []vm.Input
}

func newInputFeed(r io.Reader) *inputFeed {
	feed := &inputFeed{c: make(chan vm.Input)}
	go feed.readLoop(bufio.NewReader(r))
	return feed
}

func (feed *inputFeed) readLoop(br *bufio.Reader) {
	for {
		b, err := br.ReadByte()
		if err == nil {
			feed.c <- vm.Input{Byte: b}
			continue
		}
		if !errors.Is(err, io.EOF) {
			feed.c <- vm.Input{Err: err}
		}
		for {
			feed.c <- vm.Input{EOF: true}
		}
	}
}

func (feed *inputFeed) unread(in vm.Input) { feed.back = append(feed.back, in) }

func (feed *inputFeed) takeBack() (vm.Input, bool) {
	if len(feed.back) == 0 {
		return vm.Input{}, false
	}
	in := feed.back[0]
	feed.back = feed.back[1:]
	return in, true
}

func (rc *readCmd) watchFiles(
	ctx context.Context,
	eng *vm.Engine,
	cfg vm.Config,
	sink *flushio.Sink,
	feed *inputFeed,
) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	watched := make(map[string]bool, len(rc.files))
	for _, name := range rc.files {
		abs, err := filepath.Abs(name)
		if err != nil {
			return err
		}
		watched[abs] = true
		// editors often replace files, so watch the containing directory
		if err := watcher.Add(filepath.Dir(abs)); err != nil {
			return err
		}
	}

	changed := make(chan struct{}, 1)
	eg, ctx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		for {
			select {
			case <-ctx.Done():
				return nil
			case err, ok := <-watcher.Errors:
				if !ok {
					return nil
				}
				return err
			case ev, ok := <-watcher.Events:
				if !ok {
					return nil
				}
				if !watched[filepath.Clean(ev.Name)] {
					continue
				}
				if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) {
					select {
					case changed <- struct{}{}:
					default:
					}
				}
			}
		}
	})

	eg.Go(func() error {
		for {
			if src, err := rc.load(nil); err != nil {
				rc.log.Errorf("%v", err)
			} else if rc.runOnce(ctx, eng, src, cfg, sink, feed, changed) {
				continue
			}
			rc.log.Printf("INFO", "watching %v for changes", strings.Join(rc.files, ", "))
			select {
			case <-ctx.Done():
				return nil
			case <-changed:
			}
		}
	})

	return eg.Wait()
}
