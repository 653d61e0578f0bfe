// Package keymap implements the Keymap resolver (component H): a
// context-aware chord->command table loaded from an INI-shaped file.
// Generalized from the teacher's internal/keymanager — that package's
// *stack of handlers* idea survives conceptually (the top of a context
// stack decides what a key means), but the mechanism here is a lookup
// table keyed by the current route's context rather than a pushed/popped
// fyne.KeyEvent handler, since this module's "context" is simply whichever
// Route is on top, per spec §4.H. The chord grammar itself is ported from
// original_source/crates/core/src/keymap.rs.
package keymap

import (
	"fmt"
	"strings"
)

// Chord is a parsed key chord: modifiers plus a normalized key name.
type Chord struct {
	Ctrl  bool
	Alt   bool
	Shift bool
	Key   string
}

func (c Chord) String() string {
	var b strings.Builder
	if c.Ctrl {
		b.WriteString("ctrl-")
	}
	if c.Alt {
		b.WriteString("alt-")
	}
	if c.Shift {
		b.WriteString("shift-")
	}
	b.WriteString(c.Key)
	return b.String()
}

var namedKeys = buildNamedKeySet()

func buildNamedKeySet() map[string]bool {
	names := []string{
		"enter", "esc", "tab", "backspace", "up", "down", "left", "right",
		"home", "end", "pgup", "pgdn", "insert", "delete",
		"question", "slash", "backslash", "comma", "period", "plus", "minus",
		"underscore", "equal", "semicolon", "colon", "quote", "backquote",
		"less", "greater", "asterisk", "exclamation", "space",
		"kpup", "kpdown", "kpleft", "kpright", "kphome", "kpend", "kppgup", "kppgdn", "kpenter",
	}
	set := make(map[string]bool, len(names)+24+10)
	for _, n := range names {
		set[n] = true
	}
	for i := 1; i <= 24; i++ {
		set[fmt.Sprintf("f%d", i)] = true
	}
	for i := 0; i <= 9; i++ {
		set[fmt.Sprintf("kp%d", i)] = true
	}
	return set
}

// isValidKeyName reports whether key is a single character or one of the
// named keys/function keys/keypad keys enumerated in spec §6.
func isValidKeyName(key string) bool {
	if len([]rune(key)) == 1 {
		return true
	}
	return namedKeys[key]
}

// ParseChord parses "(ctrl-|alt-|shift-)*<key>" chord grammar,
// case-insensitively on modifier prefixes and key name.
func ParseChord(s string) (Chord, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Chord{}, fmt.Errorf("empty chord")
	}

	var c Chord
	rest := strings.ToLower(s)
	for {
		switch {
		case strings.HasPrefix(rest, "ctrl-"):
			c.Ctrl = true
			rest = rest[len("ctrl-"):]
		case strings.HasPrefix(rest, "alt-"):
			c.Alt = true
			rest = rest[len("alt-"):]
		case strings.HasPrefix(rest, "shift-"):
			c.Shift = true
			rest = rest[len("shift-"):]
		default:
			goto doneModifiers
		}
	}
doneModifiers:
	if rest == "" {
		return Chord{}, fmt.Errorf("chord %q has no key after modifiers", s)
	}
	if !isValidKeyName(rest) {
		return Chord{}, fmt.Errorf("unrecognized key name %q in chord %q", rest, s)
	}
	c.Key = rest
	return c, nil
}
