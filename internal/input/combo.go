package input

import (
	"errors"
	"fmt"
	"strings"
)

// DefaultStopHotkey stops playback
const DefaultStopHotkey = "ctrl+shift+s"

var (
	// ErrInvalidHotkey is returned for combinations that cannot be registered
	ErrInvalidHotkey = errors.New("invalid hotkey")
	// ErrHotkeyUnavailable is returned by builds without global hotkey support
	ErrHotkeyUnavailable = errors.New("global hotkeys unavailable in this build")
)

// Combo is a parsed key combination such as "ctrl+shift+s"
type Combo struct {
	Modifiers []string // canonical names: ctrl, shift, alt, super
	Key       string   // lower-cased key name
}

func (c Combo) String() string {
	return strings.Join(append(append([]string(nil), c.Modifiers...), c.Key), "+")
}

var modifierAliases = map[string]string{
	"ctrl":    "ctrl",
	"control": "ctrl",
	"shift":   "shift",
	"alt":     "alt",
	"option":  "alt",
	"cmd":     "super",
	"command": "super",
	"super":   "super",
	"win":     "super",
}

var keyAliases = map[string]string{
	"return": "enter",
	"esc":    "escape",
}

// ParseCombo parses strings like "ctrl+shift+s" (case-insensitive)
func ParseCombo(s string) (Combo, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return Combo{}, fmt.Errorf("%w: empty hotkey string", ErrInvalidHotkey)
	}

	var combo Combo
	seen := make(map[string]bool)
	for _, part := range strings.Split(s, "+") {
		part = strings.TrimSpace(part)
		if mod, ok := modifierAliases[part]; ok {
			if !seen[mod] {
				combo.Modifiers = append(combo.Modifiers, mod)
				seen[mod] = true
			}
			continue
		}
		if combo.Key != "" {
			return Combo{}, fmt.Errorf("%w: multiple keys specified", ErrInvalidHotkey)
		}
		if alias, ok := keyAliases[part]; ok {
			part = alias
		}
		if !validKey(part) {
			return Combo{}, fmt.Errorf("%w: unknown key %q", ErrInvalidHotkey, part)
		}
		combo.Key = part
	}

	if combo.Key == "" {
		return Combo{}, fmt.Errorf("%w: no key specified", ErrInvalidHotkey)
	}
	return combo, nil
}

// validKey accepts letters, digits, f1-f12 and a few named keys
func validKey(k string) bool {
	switch k {
	case "space", "enter", "tab", "escape":
		return true
	}
	if len(k) == 1 {
		return (k[0] >= 'a' && k[0] <= 'z') || (k[0] >= '0' && k[0] <= '9')
	}
	if strings.HasPrefix(k, "f") {
		var n int
		if _, err := fmt.Sscanf(k, "f%d", &n); err == nil && fmt.Sprintf("f%d", n) == k {
			return n >= 1 && n <= 12
		}
	}
	return false
}
