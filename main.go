package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/jcorbin/gobf/internal/config"
	"github.com/jcorbin/gobf/internal/logio"
	"github.com/jcorbin/gobf/internal/vm"
)

func main() {
	c := newCLI(os.Stdin, os.Stdout, os.Stderr, os.LookupEnv)

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt)
	go func() {
		<-sigs
		c.cleanup()
		os.Exit(0)
	}()

	os.Exit(c.run(context.Background(), os.Args[1:]))
}

// cli carries the process streams and state shared by every subcommand.
type cli struct {
	stdin     io.Reader
	stdout    io.Writer
	stderr    io.Writer
	lookupEnv config.LookupEnv
	log       *logio.Logger

	trace     bool
	traceFile string
	tracer    *slog.Logger

	cleanMu  sync.Mutex
	cleanups []func()
}

func newCLI(stdin io.Reader, stdout, stderr io.Writer, lookupEnv config.LookupEnv) *cli {
	return &cli{
		stdin:     stdin,
		stdout:    stdout,
		stderr:    stderr,
		lookupEnv: lookupEnv,
		log:       logio.NewLogger(stderr),
	}
}

// usageError marks command line misuse; it exits with status 2.
type usageError struct{ error }

func (err usageError) Unwrap() error { return err.error }

func usagef(mess string, args ...interface{}) error {
	return usageError{fmt.Errorf(mess, args...)}
}

func (c *cli) run(ctx context.Context, args []string) int {
	root := c.rootCmd()
	root.SetArgs(args)
	root.SetIn(c.stdin)
	root.SetOut(c.stdout)
	root.SetErr(c.stderr)

	err := root.ExecuteContext(ctx)
	c.cleanup()
	if err != nil {
		var uerr usageError
		if errors.As(err, &uerr) {
			c.log.Fail("bf: %v", err)
			fmt.Fprintf(c.stderr, "Run 'bf --help' for usage.\n")
			return 2
		}
		c.log.Fail("bf: %v", err)
	}
	return c.log.ExitCode()
}

// atExit registers f to run before the process exits, whether normally or
// by interrupt; functions run in reverse order of registration.
func (c *cli) atExit(f func()) {
	c.cleanMu.Lock()
	defer c.cleanMu.Unlock()
	c.cleanups = append(c.cleanups, f)
}

func (c *cli) cleanup() {
	c.cleanMu.Lock()
	fs := c.cleanups
	c.cleanups = nil
	c.cleanMu.Unlock()
	for i := len(fs) - 1; i >= 0; i-- {
		fs[i]()
	}
}

func (c *cli) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "bf",
		Short: "Run, generate, and interactively edit tape language programs",
		Long: `bf runs programs written in the eight instruction tape language
  > < + - . , [ ]
either once (read), interactively (repl, tui), or generates them (write).

With no subcommand, bf starts the repl.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: c.setupTrace,
	}
	root.PersistentFlags().BoolVar(&c.trace, "trace", false, "log engine activity to stderr")
	root.PersistentFlags().StringVar(&c.traceFile, "trace-file", "", "log engine activity as JSON to `PATH`")
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error { return usageError{err} })

	repl := c.replCmd()
	root.AddCommand(c.readCmd(), c.writeCmd(), repl, c.tuiCmd())

	// no subcommand runs the repl with its default flags
	root.Flags().AddFlagSet(repl.Flags())
	root.RunE = repl.RunE
	return root
}

func (c *cli) setupTrace(_ *cobra.Command, _ []string) error {
	if !c.trace && c.traceFile == "" {
		return nil
	}
	var term, file io.Writer
	if c.trace {
		term = c.stderr
	}
	if c.traceFile != "" {
		f, err := os.Create(c.traceFile)
		if err != nil {
			return err
		}
		c.atExit(func() { f.Close() })
		file = f
	}
	logio.TraceLevel.Set(slog.LevelDebug)
	c.tracer = logio.NewTrace(term, file)
	return nil
}

func (c *cli) loadTheme() config.Theme {
	theme, err := config.LoadTheme()
	if err != nil {
		c.log.Printf("WARN", "theme: %v", err)
	}
	return theme
}

// engineOptions returns options common to every engine the CLI builds.
func (c *cli) engineOptions(opts ...vm.Option) []vm.Option {
	if c.tracer != nil {
		opts = append(opts, vm.WithLogf(logio.Tracef(c.tracer, "vm")))
	}
	return opts
}

// engineFlags holds flags for engine settings shared by read, repl, and tui.
type engineFlags struct {
	tapeSize       int
	maxSteps       uint64
	timeout        config.Timeout
	countSuspended bool
}

func (ef *engineFlags) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.IntVar(&ef.tapeSize, "tape-size", 0, "number of tape cells (default 30000, env "+config.EnvTapeSize+")")
	flags.Uint64Var(&ef.maxSteps, "max-steps", 0, "abort after this many steps (env "+config.EnvMaxSteps+")")
	flags.Var(&ef.timeout, "timeout", "abort after this long; a duration or integer milliseconds (env "+config.EnvTimeoutMS+")")
	flags.BoolVar(&ef.countSuspended, "count-suspended", false, "count time spent waiting for input against --timeout (env "+config.EnvCountSuspended+")")
}

// overrides collects the explicitly given engine flags.
func (ef *engineFlags) overrides(cmd *cobra.Command) (over config.Overrides) {
	flags := cmd.Flags()
	if flags.Changed("tape-size") {
		over.TapeSize = &ef.tapeSize
	}
	if flags.Changed("max-steps") {
		over.MaxSteps = &ef.maxSteps
	}
	if flags.Changed("timeout") {
		d := time.Duration(ef.timeout)
		over.Timeout = &d
	}
	if flags.Changed("count-suspended") {
		over.CountSuspended = &ef.countSuspended
	}
	return over
}

func (c *cli) resolve(over config.Overrides) (config.Settings, error) {
	settings, err := config.Resolve(over, c.lookupEnv)
	if err != nil {
		return settings, usageError{err}
	}
	return settings, nil
}
