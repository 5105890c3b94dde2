package editor

import (
	"fmt"
	"sort"
	"strings"
)

// MetaFunc runs a meta command with its whitespace separated arguments.
type MetaFunc func(ctl *Controller, args []string) Effect

type meta struct {
	usage string
	run   MetaFunc
}

// AddMeta registers (or replaces) the meta command ":name"; usage is its
// one line :help description.
func (ctl *Controller) AddMeta(name, usage string, run MetaFunc) {
	if ctl.metas == nil {
		ctl.metas = make(map[string]meta)
	}
	ctl.metas[strings.TrimPrefix(name, ":")] = meta{usage, run}
}

func (ctl *Controller) addBuiltinMetas() {
	ctl.AddMeta("exit", "leave the session", func(*Controller, []string) Effect {
		return Effect{Kind: EffectExit}
	})
	ctl.AddMeta("help", "list meta commands", (*Controller).metaHelp)
	ctl.AddMeta("reset", "clear the buffer, keeping history", func(ctl *Controller, _ []string) Effect {
		ctl.buf = Buffer{}
		return redraw
	})
	ctl.AddMeta("dump", "[-n] [--stderr] print the buffer, optionally numbered", (*Controller).metaDump)
	ctl.AddMeta("history", "list submitted programs", (*Controller).metaHistory)
}

func (ctl *Controller) runMeta(line string) Effect {
	fields := strings.Fields(strings.TrimPrefix(line, ":"))
	if len(fields) == 0 {
		return Effect{Kind: EffectError, Err: fmt.Errorf("missing meta command name, try :help")}
	}
	m, ok := ctl.metas[fields[0]]
	if !ok {
		return Effect{Kind: EffectError, Err: fmt.Errorf("unknown meta command :%v, try :help", fields[0])}
	}
	return m.run(ctl, fields[1:])
}

func (ctl *Controller) metaHelp(_ []string) Effect {
	names := make([]string, 0, len(ctl.metas))
	width := 0
	for name := range ctl.metas {
		names = append(names, name)
		if len(name) > width {
			width = len(name)
		}
	}
	sort.Strings(names)

	var sb strings.Builder
	sb.WriteString("Meta commands:\n")
	for _, name := range names {
		fmt.Fprintf(&sb, "  :%-*s  %s\n", width, name, ctl.metas[name].usage)
	}
	sb.WriteString("Keys: Up at the start of the buffer browses history; Esc leaves it unchanged.\n")
	return Effect{Kind: EffectOutput, Text: sb.String(), Stderr: true}
}

func (ctl *Controller) metaDump(args []string) Effect {
	var numbered, stderr bool
	for _, arg := range args {
		switch arg {
		case "-n":
			numbered = true
		case "--stderr":
			stderr = true
		default:
			return Effect{Kind: EffectError, Err: fmt.Errorf("dump: unknown option %q", arg)}
		}
	}

	var sb strings.Builder
	if ctl.buf.Empty() {
		return Effect{Kind: EffectOutput, Stderr: stderr}
	}
	for i, line := range ctl.buf.Lines() {
		if numbered {
			fmt.Fprintf(&sb, "%4d  ", i+1)
		}
		sb.WriteString(line)
		sb.WriteByte('\n')
	}
	return Effect{Kind: EffectOutput, Text: sb.String(), Stderr: stderr}
}

func (ctl *Controller) metaHistory(_ []string) Effect {
	var sb strings.Builder
	for i, entry := range ctl.history.entries {
		fmt.Fprintf(&sb, "%4d  %s\n", i+1, strings.ReplaceAll(entry, "\n", " "))
	}
	return Effect{Kind: EffectOutput, Text: sb.String()}
}
