package logio

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	slogmulti "github.com/samber/slog-multi"
)

// TraceLevel controls every trace logger built by NewTrace.
var TraceLevel = new(slog.LevelVar)

// NewTrace returns a structured logger that fans records out to a text
// handler on term and, if file is non-nil, a JSON handler on file.
func NewTrace(term, file io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: TraceLevel}
	var handlers []slog.Handler
	if term != nil {
		handlers = append(handlers, slog.NewTextHandler(term, opts))
	}
	if file != nil {
		handlers = append(handlers, slog.NewJSONHandler(file, opts))
	}
	return slog.New(slogmulti.Fanout(handlers...))
}

// Tracef adapts a structured logger to a printf-style function, logging each
// formatted message at debug level under the given component attribute.
func Tracef(logger *slog.Logger, component string) func(mess string, args ...interface{}) {
	return func(mess string, args ...interface{}) {
		if !logger.Enabled(context.Background(), slog.LevelDebug) {
			return
		}
		logger.Debug(fmt.Sprintf(mess, args...), "component", component)
	}
}
