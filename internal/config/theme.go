package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// ThemeFile is the theme's file name under the user config directory.
const ThemeFile = "bf.toml"

// Theme holds front end colors as lipgloss color strings: an ANSI color
// number or "#rrggbb".
type Theme struct {
	EditorTitleFocused   string `toml:"editor_title_focused"`
	EditorTitleUnfocused string `toml:"editor_title_unfocused"`
	GutterText           string `toml:"gutter_text"`
	OutputTitleFocused   string `toml:"output_title_focused"`
	OutputTitleUnfocused string `toml:"output_title_unfocused"`
	TapeBorderFocused    string `toml:"tape_border_focused"`
	TapeBorderUnfocused  string `toml:"tape_border_unfocused"`
	TapeCellEmpty        string `toml:"tape_cell_empty"`
	TapeCellNonzero      string `toml:"tape_cell_nonzero"`
	TapeCellPointer      string `toml:"tape_cell_pointer"`
	StatusText           string `toml:"status_text"`
	DialogError          string `toml:"dialog_error"`
	HelpHint             string `toml:"help_hint"`

	OpRight   string `toml:"editor_op_right"`
	OpLeft    string `toml:"editor_op_left"`
	OpInc     string `toml:"editor_op_inc"`
	OpDec     string `toml:"editor_op_dec"`
	OpOutput  string `toml:"editor_op_output"`
	OpInput   string `toml:"editor_op_input"`
	OpBracket string `toml:"editor_op_bracket"`
	NonOp     string `toml:"editor_non_bf"`
}

// DefaultTheme returns the built-in colors.
func DefaultTheme() Theme {
	return Theme{
		EditorTitleFocused:   "6",
		EditorTitleUnfocused: "7",
		GutterText:           "8",
		OutputTitleFocused:   "6",
		OutputTitleUnfocused: "7",
		TapeBorderFocused:    "6",
		TapeBorderUnfocused:  "7",
		TapeCellEmpty:        "8",
		TapeCellNonzero:      "15",
		TapeCellPointer:      "3",
		StatusText:           "15",
		DialogError:          "1",
		HelpHint:             "7",

		OpRight:   "6",
		OpLeft:    "2",
		OpInc:     "10",
		OpDec:     "1",
		OpOutput:  "3",
		OpInput:   "5",
		OpBracket: "13",
		NonOp:     "7",
	}
}

var namedColors = map[string]string{
	"black":        "0",
	"red":          "1",
	"green":        "2",
	"yellow":       "3",
	"blue":         "4",
	"magenta":      "5",
	"cyan":         "6",
	"gray":         "7",
	"grey":         "7",
	"darkgray":     "8",
	"darkgrey":     "8",
	"lightred":     "9",
	"lightgreen":   "10",
	"lightyellow":  "11",
	"lightblue":    "12",
	"lightmagenta": "13",
	"lightcyan":    "14",
	"white":        "15",
}

// ParseColor accepts "#rrggbb" or a color name, ignoring case and
// underscores in names.
func ParseColor(s string) (string, error) {
	s = strings.TrimSpace(s)
	if hex, ok := strings.CutPrefix(s, "#"); ok {
		if len(hex) == 6 && strings.Trim(strings.ToLower(hex), "0123456789abcdef") == "" {
			return "#" + strings.ToLower(hex), nil
		}
		return "", fmt.Errorf("invalid hex color %q", s)
	}
	name := strings.ReplaceAll(strings.ToLower(s), "_", "")
	if c, ok := namedColors[name]; ok {
		return c, nil
	}
	return "", fmt.Errorf("unknown color %q", s)
}

// DecodeTheme reads a [colors] table over the default theme; unset keys keep
// their default.
func DecodeTheme(data []byte) (Theme, error) {
	var doc struct {
		Colors map[string]string `toml:"colors"`
	}
	theme := DefaultTheme()
	if err := toml.Unmarshal(data, &doc); err != nil {
		return theme, err
	}

	// round trip through toml to map keys onto struct fields
	raw := make(map[string]string, len(doc.Colors))
	var errs []error
	for key, val := range doc.Colors {
		c, err := ParseColor(val)
		if err != nil {
			errs = append(errs, fmt.Errorf("colors.%v: %w", key, err))
			continue
		}
		raw[key] = c
	}
	buf, err := toml.Marshal(raw)
	if err == nil {
		err = toml.Unmarshal(buf, &theme)
	}
	if err != nil {
		errs = append(errs, err)
	}
	return theme, errors.Join(errs...)
}

// LoadTheme loads ThemeFile from the user config directory; a missing file
// yields the default theme without error.
func LoadTheme() (Theme, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return DefaultTheme(), nil
	}
	return LoadThemeFile(filepath.Join(dir, ThemeFile))
}

// LoadThemeFile is LoadTheme for an explicit path.
func LoadThemeFile(path string) (Theme, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return DefaultTheme(), nil
	} else if err != nil {
		return DefaultTheme(), err
	}
	theme, err := DecodeTheme(data)
	if err != nil {
		err = fmt.Errorf("%v: %w", path, err)
	}
	return theme, err
}
