//go:build darwin || (linux && hotkey)

package input

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.design/x/hotkey"
)

// HotkeyListener calls onPress each time a global hotkey goes down
type HotkeyListener struct {
	mu      sync.Mutex
	hk      *hotkey.Hotkey
	onPress func()
	presses int
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewHotkeyListener creates a listener; call Start to register the hotkey
func NewHotkeyListener(onPress func()) *HotkeyListener {
	return &HotkeyListener{
		onPress: onPress,
		done:    make(chan struct{}),
	}
}

// Start registers hotkeyStr and begins listening until ctx is done or Stop
func (h *HotkeyListener) Start(ctx context.Context, hotkeyStr string) error {
	combo, err := ParseCombo(hotkeyStr)
	if err != nil {
		return err
	}
	mods, key, err := resolve(combo)
	if err != nil {
		return err
	}

	h.hk = hotkey.New(mods, key)
	if err := h.hk.Register(); err != nil {
		return fmt.Errorf("failed to register hotkey %s: %w", combo, err)
	}

	ctx, h.cancel = context.WithCancel(ctx)

	go func() {
		defer close(h.done)
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-h.hk.Keydown():
				if !ok {
					return
				}
				h.mu.Lock()
				h.presses++
				h.mu.Unlock()

				if h.onPress != nil {
					h.onPress()
				}
			}
		}
	}()

	return nil
}

// Stop unregisters the hotkey
func (h *HotkeyListener) Stop() {
	if h.cancel != nil {
		h.cancel()
	}
	if h.hk != nil {
		_ = h.hk.Unregister()
	}
	// Wait briefly for goroutine to exit
	select {
	case <-h.done:
	case <-time.After(100 * time.Millisecond):
	}
}

// Presses returns how many times the hotkey fired
func (h *HotkeyListener) Presses() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.presses
}

// resolve maps a parsed combo onto the platform's hotkey codes
func resolve(c Combo) ([]hotkey.Modifier, hotkey.Key, error) {
	mods := make([]hotkey.Modifier, 0, len(c.Modifiers))
	for _, m := range c.Modifiers {
		switch m {
		case "ctrl":
			mods = append(mods, hotkey.ModCtrl)
		case "shift":
			mods = append(mods, hotkey.ModShift)
		case "alt":
			mods = append(mods, modAlt())
		case "super":
			mods = append(mods, modSuper())
		}
	}

	key, ok := keyCodes[c.Key]
	if !ok {
		return nil, 0, fmt.Errorf("%w: unsupported key %q", ErrInvalidHotkey, c.Key)
	}
	return mods, key, nil
}

var keyCodes = map[string]hotkey.Key{
	"space": hotkey.KeySpace, "enter": hotkey.KeyReturn, "tab": hotkey.KeyTab, "escape": hotkey.KeyEscape,

	"a": hotkey.KeyA, "b": hotkey.KeyB, "c": hotkey.KeyC, "d": hotkey.KeyD, "e": hotkey.KeyE,
	"f": hotkey.KeyF, "g": hotkey.KeyG, "h": hotkey.KeyH, "i": hotkey.KeyI, "j": hotkey.KeyJ,
	"k": hotkey.KeyK, "l": hotkey.KeyL, "m": hotkey.KeyM, "n": hotkey.KeyN, "o": hotkey.KeyO,
	"p": hotkey.KeyP, "q": hotkey.KeyQ, "r": hotkey.KeyR, "s": hotkey.KeyS, "t": hotkey.KeyT,
	"u": hotkey.KeyU, "v": hotkey.KeyV, "w": hotkey.KeyW, "x": hotkey.KeyX, "y": hotkey.KeyY,
	"z": hotkey.KeyZ,

	"0": hotkey.Key0, "1": hotkey.Key1, "2": hotkey.Key2, "3": hotkey.Key3, "4": hotkey.Key4,
	"5": hotkey.Key5, "6": hotkey.Key6, "7": hotkey.Key7, "8": hotkey.Key8, "9": hotkey.Key9,

	"f1": hotkey.KeyF1, "f2": hotkey.KeyF2, "f3": hotkey.KeyF3, "f4": hotkey.KeyF4,
	"f5": hotkey.KeyF5, "f6": hotkey.KeyF6, "f7": hotkey.KeyF7, "f8": hotkey.KeyF8,
	"f9": hotkey.KeyF9, "f10": hotkey.KeyF10, "f11": hotkey.KeyF11, "f12": hotkey.KeyF12,
}
