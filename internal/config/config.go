// Package config resolves engine and REPL settings from explicit flags, the
// environment, and defaults, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/jcorbin/gobf/internal/mem"
	"github.com/jcorbin/gobf/internal/vm"
)

// Environment variables consulted by Resolve.
const (
	EnvTapeSize       = "BF_TAPE_SIZE"
	EnvMaxSteps       = "BF_MAX_STEPS"
	EnvTimeoutMS      = "BF_TIMEOUT_MS"
	EnvCountSuspended = "BF_COUNT_SUSPENDED"
	EnvReplMode       = "BF_REPL_MODE"
	EnvReplOnce       = "BF_REPL_ONCE"
)

// Mode selects the REPL front end.
type Mode int

// REPL modes; ModeAuto picks the editor when stdin is a terminal.
const (
	ModeAuto Mode = iota
	ModeBare
	ModeEditor
)

func (mode Mode) String() string {
	switch mode {
	case ModeAuto:
		return "auto"
	case ModeBare:
		return "bare"
	case ModeEditor:
		return "editor"
	}
	return fmt.Sprintf("Mode(%d)", int(mode))
}

// ParseMode parses a BF_REPL_MODE value.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return ModeAuto, nil
	case "bare":
		return ModeBare, nil
	case "editor":
		return ModeEditor, nil
	}
	return ModeAuto, fmt.Errorf("invalid repl mode %q, expected bare or editor", s)
}

// Settings are fully resolved.
type Settings struct {
	TapeSize       int
	MaxSteps       uint64
	Timeout        time.Duration
	CountSuspended bool
	Mode           Mode
	Once           bool
}

// Defaults returns the settings used when neither flags nor the environment
// say otherwise.
func Defaults() Settings {
	return Settings{TapeSize: mem.DefaultTapeSize}
}

// EngineConfig returns the run configuration for these settings.
func (s Settings) EngineConfig() vm.Config {
	return vm.Config{
		TapeSize:       s.TapeSize,
		MaxSteps:       s.MaxSteps,
		Timeout:        s.Timeout,
		CountSuspended: s.CountSuspended,
	}
}

// Overrides hold explicitly given flag values; nil fields were not given.
type Overrides struct {
	TapeSize       *int
	MaxSteps       *uint64
	Timeout        *time.Duration
	CountSuspended *bool
	Mode           *Mode
}

// LookupEnv has the signature of os.LookupEnv.
type LookupEnv func(key string) (string, bool)

// Resolve applies over, then the environment, then Defaults. Every invalid
// environment value is reported, joined into the returned error.
func Resolve(over Overrides, lookup LookupEnv) (Settings, error) {
	s := Defaults()
	if lookup == nil {
		lookup = func(string) (string, bool) { return "", false }
	}
	var errs []error
	env := func(key string, parse func(string) error) {
		if val, ok := lookup(key); ok && val != "" {
			if err := parse(val); err != nil {
				errs = append(errs, fmt.Errorf("invalid %v=%q: %w", key, val, err))
			}
		}
	}

	if over.TapeSize != nil {
		s.TapeSize = *over.TapeSize
	} else {
		env(EnvTapeSize, func(val string) error {
			n, err := parsePositive(val)
			if err == nil {
				s.TapeSize = n
			}
			return err
		})
	}
	if s.TapeSize <= 0 {
		errs = append(errs, fmt.Errorf("tape size must be positive, got %v", s.TapeSize))
		s.TapeSize = mem.DefaultTapeSize
	} else if s.TapeSize > mem.MaxTapeSize {
		errs = append(errs, fmt.Errorf("tape size must be at most %v, got %v", mem.MaxTapeSize, s.TapeSize))
		s.TapeSize = mem.DefaultTapeSize
	}

	if over.MaxSteps != nil {
		s.MaxSteps = *over.MaxSteps
	} else {
		env(EnvMaxSteps, func(val string) error {
			n, err := strconv.ParseUint(val, 10, 64)
			if err == nil {
				s.MaxSteps = n
			}
			return err
		})
	}

	if over.Timeout != nil {
		s.Timeout = *over.Timeout
	} else {
		env(EnvTimeoutMS, func(val string) error {
			d, err := parseMillis(val)
			if err == nil {
				s.Timeout = d
			}
			return err
		})
	}

	if over.CountSuspended != nil {
		s.CountSuspended = *over.CountSuspended
	} else {
		env(EnvCountSuspended, func(val string) error {
			b, err := strconv.ParseBool(val)
			if err == nil {
				s.CountSuspended = b
			}
			return err
		})
	}

	if over.Mode != nil {
		s.Mode = *over.Mode
	} else {
		env(EnvReplMode, func(val string) error {
			mode, err := ParseMode(val)
			if err == nil {
				s.Mode = mode
			}
			return err
		})
	}

	if val, ok := lookup(EnvReplOnce); ok {
		s.Once = val == "1"
	}

	return s, errors.Join(errs...)
}

func parsePositive(val string) (int, error) {
	n, err := strconv.Atoi(val)
	if err == nil && n <= 0 {
		err = errors.New("must be positive")
	}
	return n, err
}

// maxMillis is the longest timeout, in milliseconds, a time.Duration holds.
const maxMillis = math.MaxInt64 / uint64(time.Millisecond)

func parseMillis(val string) (time.Duration, error) {
	ms, err := strconv.ParseUint(val, 10, 64)
	if err != nil {
		return 0, err
	}
	if ms > maxMillis {
		return 0, fmt.Errorf("timeout must be at most %vms", maxMillis)
	}
	return time.Duration(ms) * time.Millisecond, nil
}

// Timeout is a flag value accepting either a Go duration ("1.5s") or a bare
// integer number of milliseconds.
type Timeout time.Duration

// ParseTimeout parses a Timeout flag value.
func ParseTimeout(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if _, err := strconv.ParseUint(s, 10, 64); err == nil {
		return parseMillis(s)
	}
	d, err := time.ParseDuration(s)
	if err == nil && d < 0 {
		err = errors.New("timeout must not be negative")
	}
	return d, err
}

func (t *Timeout) String() string { return time.Duration(*t).String() }
func (t *Timeout) Type() string   { return "duration" }

// Set implements the flag value interface.
func (t *Timeout) Set(s string) error {
	d, err := ParseTimeout(s)
	if err != nil {
		return err
	}
	*t = Timeout(d)
	return nil
}
