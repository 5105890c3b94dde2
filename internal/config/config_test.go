package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jcorbin/gobf/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func env(pairs ...string) config.LookupEnv {
	m := make(map[string]string, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		m[pairs[i]] = pairs[i+1]
	}
	return func(key string) (string, bool) {
		val, ok := m[key]
		return val, ok
	}
}

func TestResolve(t *testing.T) {
	tapeSize := 100
	maxSteps := uint64(7)
	timeout := 3 * time.Second
	countSuspended := false
	bare := config.ModeBare

	for _, tc := range []struct {
		name    string
		over    config.Overrides
		env     config.LookupEnv
		want    config.Settings
		wantErr string
	}{
		{
			name: "defaults",
			want: config.Defaults(),
		},
		{
			name: "environment",
			env: env(
				config.EnvTapeSize, "64",
				config.EnvMaxSteps, "50",
				config.EnvTimeoutMS, "250",
				config.EnvCountSuspended, "true",
				config.EnvReplMode, "Editor",
				config.EnvReplOnce, "1",
			),
			want: config.Settings{
				TapeSize:       64,
				MaxSteps:       50,
				Timeout:        250 * time.Millisecond,
				CountSuspended: true,
				Mode:           config.ModeEditor,
				Once:           true,
			},
		},
		{
			name: "flags beat environment",
			over: config.Overrides{
				TapeSize:       &tapeSize,
				MaxSteps:       &maxSteps,
				Timeout:        &timeout,
				CountSuspended: &countSuspended,
				Mode:           &bare,
			},
			env: env(
				config.EnvTapeSize, "64",
				config.EnvMaxSteps, "50",
				config.EnvTimeoutMS, "250",
				config.EnvCountSuspended, "1",
				config.EnvReplMode, "editor",
			),
			want: config.Settings{
				TapeSize: 100,
				MaxSteps: 7,
				Timeout:  3 * time.Second,
				Mode:     config.ModeBare,
			},
		},
		{
			name: "empty values are unset",
			env:  env(config.EnvMaxSteps, "", config.EnvReplOnce, "0"),
			want: config.Defaults(),
		},
		{
			name: "invalid values",
			env: env(
				config.EnvTapeSize, "-3",
				config.EnvMaxSteps, "lots",
				config.EnvReplMode, "fancy",
			),
			want: config.Defaults(),
			wantErr: "invalid BF_TAPE_SIZE=\"-3\": must be positive\n" +
				"invalid BF_MAX_STEPS=\"lots\": strconv.ParseUint: parsing \"lots\": invalid syntax\n" +
				"invalid BF_REPL_MODE=\"fancy\": invalid repl mode \"fancy\", expected bare or editor",
		},
		{
			name: "out of range values",
			env: env(
				config.EnvTapeSize, "2000000000",
				config.EnvTimeoutMS, "99999999999999",
			),
			want: config.Defaults(),
			wantErr: "tape size must be at most 1073741824, got 2000000000\n" +
				"invalid BF_TIMEOUT_MS=\"99999999999999\": timeout must be at most 9223372036854ms",
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			got, err := config.Resolve(tc.over, tc.env)
			if tc.wantErr != "" {
				assert.EqualError(t, err, tc.wantErr)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tc.want, got)
			}
		})
	}
}

func TestSettings_EngineConfig(t *testing.T) {
	s := config.Settings{TapeSize: 10, MaxSteps: 5, Timeout: time.Second, CountSuspended: true}
	cfg := s.EngineConfig()
	assert.Equal(t, 10, cfg.TapeSize)
	assert.Equal(t, uint64(5), cfg.MaxSteps)
	assert.Equal(t, time.Second, cfg.Timeout)
	assert.True(t, cfg.CountSuspended)
	assert.Nil(t, cfg.Input)
}

func TestParseTimeout(t *testing.T) {
	for in, want := range map[string]time.Duration{
		"1500":  1500 * time.Millisecond,
		"2s":    2 * time.Second,
		"150ms": 150 * time.Millisecond,
		"0":     0,
	} {
		got, err := config.ParseTimeout(in)
		require.NoError(t, err, "parsing %q", in)
		assert.Equal(t, want, got, "parsing %q", in)
	}
	_, err := config.ParseTimeout("soon")
	assert.Error(t, err)
	_, err = config.ParseTimeout("-1s")
	assert.Error(t, err)
	got, err := config.ParseTimeout("9223372036854")
	require.NoError(t, err)
	assert.Equal(t, 9223372036854*time.Millisecond, got, "longest timeout")
	_, err = config.ParseTimeout("9223372036855")
	assert.EqualError(t, err, "timeout must be at most 9223372036854ms")

	var flag config.Timeout
	require.NoError(t, flag.Set("250"))
	assert.Equal(t, "250ms", flag.String())
	assert.Equal(t, "duration", flag.Type())
}

func TestTheme(t *testing.T) {
	t.Run("decode", func(t *testing.T) {
		theme, err := config.DecodeTheme([]byte(`
# comment
[colors]
tape_cell_pointer = "#FFAA00"
editor_op_dec = "light_red"
unknown_key = "red"

[other]
tape_cell_empty = "red"
`))
		require.NoError(t, err)
		want := config.DefaultTheme()
		want.TapeCellPointer = "#ffaa00"
		want.OpDec = "9"
		assert.Equal(t, want, theme)
	})

	t.Run("invalid color", func(t *testing.T) {
		theme, err := config.DecodeTheme([]byte("[colors]\nstatus_text = \"plaid\"\n"))
		assert.EqualError(t, err, `colors.status_text: unknown color "plaid"`)
		assert.Equal(t, config.DefaultTheme().StatusText, theme.StatusText)
	})

	t.Run("missing file", func(t *testing.T) {
		theme, err := config.LoadThemeFile(filepath.Join(t.TempDir(), "nope.toml"))
		require.NoError(t, err)
		assert.Equal(t, config.DefaultTheme(), theme)
	})

	t.Run("file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), config.ThemeFile)
		require.NoError(t, os.WriteFile(path, []byte("[colors]\ngutter_text = \"white\"\n"), 0o644))
		theme, err := config.LoadThemeFile(path)
		require.NoError(t, err)
		assert.Equal(t, "15", theme.GutterText)
	})
}
