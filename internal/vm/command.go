package vm

import (
	"context"
	"fmt"

	"github.com/jcorbin/gobf/internal/program"
)

// Input answers a NeedsInputEvent: a byte, end of input, or a byte source
// failure that halts the run with an *IOError.
type Input struct {
	Byte byte
	EOF  bool
	Err  error
}

// Command is sent from a caller to an Engine through Handle.
type Command interface{ isCommand() }

// StartCommand starts a new run.
type StartCommand struct {
	Program *program.Program
	Config  Config
}

// StopCommand stops the active run, if any.
type StopCommand struct{}

// InputCommand answers the active run's outstanding NeedsInputEvent.
type InputCommand struct{ Input Input }

func (StartCommand) isCommand() {}
func (StopCommand) isCommand()  {}
func (InputCommand) isCommand() {}

// Handle dispatches cmd; only a StartCommand returns a non-nil Run.
func (e *Engine) Handle(ctx context.Context, cmd Command) (*Run, error) {
	switch cmd := cmd.(type) {
	case StartCommand:
		return e.Start(ctx, cmd.Program, cmd.Config)
	case StopCommand:
		e.Stop()
		return nil, nil
	case InputCommand:
		return nil, e.ProvideInput(cmd.Input)
	}
	return nil, fmt.Errorf("unsupported command %T", cmd)
}
