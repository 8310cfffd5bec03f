//go:build !darwin && !(linux && hotkey)

package input

import (
	"context"
	"fmt"
)

// HotkeyListener is inert: Linux builds register global hotkeys only with
// the "hotkey" build tag, since the X11 backend aborts at startup when no
// display is present
type HotkeyListener struct {
	onPress func()
}

func NewHotkeyListener(onPress func()) *HotkeyListener {
	return &HotkeyListener{onPress: onPress}
}

// Start validates hotkeyStr and reports ErrHotkeyUnavailable
func (h *HotkeyListener) Start(ctx context.Context, hotkeyStr string) error {
	combo, err := ParseCombo(hotkeyStr)
	if err != nil {
		return err
	}
	return fmt.Errorf("cannot register %s: %w", combo, ErrHotkeyUnavailable)
}

func (h *HotkeyListener) Stop() {}

func (h *HotkeyListener) Presses() int { return 0 }
