package vm

import "io"

// Option customizes an Engine.
type Option interface{ apply(e *Engine) }

// Options is a list of Option values applied in order.
type Options []Option

var defaultOptions = Options{
	WithOutputBatch(4096),
	WithSnapshotInterval(1 << 16),
}

func (opts Options) apply(e *Engine) {
	for _, opt := range opts {
		if opt != nil {
			opt.apply(e)
		}
	}
}

// WithLogf enables trace logging of run lifecycle and halts.
func WithLogf(logfn func(mess string, args ...interface{})) Option { return withLogfn(logfn) }

// WithDebugTable makes runs print a per step trace table to w instead of
// performing I/O: output is suppressed and every input reads as EOF.
func WithDebugTable(w io.Writer) Option { return debugTableOption{w} }

// WithOutputBatch sets the maximum size of an OutputEvent.
func WithOutputBatch(n int) Option { return outputBatchOption(n) }

// WithSnapshotInterval sets how many steps pass between periodic TapeEvents;
// zero disables periodic snapshots, leaving only those sent on suspension
// and before halt.
func WithSnapshotInterval(steps uint64) Option { return snapshotIntervalOption(steps) }

type withLogfn func(mess string, args ...interface{})
type debugTableOption struct{ io.Writer }
type outputBatchOption int
type snapshotIntervalOption uint64

func (logfn withLogfn) apply(e *Engine) { e.logfn = logfn }

func (o debugTableOption) apply(e *Engine) {
	if o.Writer == nil {
		e.debug = nil
	} else {
		e.debug = o.Writer
	}
}

func (n outputBatchOption) apply(e *Engine) {
	if n < 1 {
		n = 1
	}
	e.outputBatch = int(n)
}

func (n snapshotIntervalOption) apply(e *Engine) { e.snapshotInterval = uint64(n) }
