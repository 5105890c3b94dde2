package editor

import "fmt"

// KeyCode identifies a logical key.
type KeyCode int

// Logical keys; KeyRune carries its character in Key.Rune.
const (
	KeyRune KeyCode = iota
	KeyEnter
	KeyBackspace
	KeyDelete
	KeyUp
	KeyDown
	KeyLeft
	KeyRight
	KeyHome
	KeyEnd
	KeyEsc
	KeyBrowse    // enter history browsing from anywhere
	KeySubmit    // end of input: submit the buffer
	KeyInterrupt // terminate the session
)

var keyNames = [...]string{
	KeyRune:      "Rune",
	KeyEnter:     "Enter",
	KeyBackspace: "Backspace",
	KeyDelete:    "Delete",
	KeyUp:        "Up",
	KeyDown:      "Down",
	KeyLeft:      "Left",
	KeyRight:     "Right",
	KeyHome:      "Home",
	KeyEnd:       "End",
	KeyEsc:       "Esc",
	KeyBrowse:    "Browse",
	KeySubmit:    "Submit",
	KeyInterrupt: "Interrupt",
}

func (code KeyCode) String() string {
	if code >= 0 && int(code) < len(keyNames) {
		return keyNames[code]
	}
	return fmt.Sprintf("KeyCode(%d)", int(code))
}

// Key is a single input event for the Controller.
type Key struct {
	Code KeyCode
	Rune rune
}

// Rune returns a KeyRune key for r.
func Rune(r rune) Key { return Key{Code: KeyRune, Rune: r} }

// Runes returns one KeyRune key for every rune of s.
func Runes(s string) []Key {
	keys := make([]Key, 0, len(s))
	for _, r := range s {
		keys = append(keys, Rune(r))
	}
	return keys
}

func (k Key) String() string {
	if k.Code == KeyRune {
		return fmt.Sprintf("%q", k.Rune)
	}
	return k.Code.String()
}
