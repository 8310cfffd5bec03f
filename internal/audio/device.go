package audio

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gen2brain/malgo"
)

// ErrNoDevice is returned when no playback device matches
var ErrNoDevice = errors.New("no playback device found")

// DeviceInfo describes an output device
type DeviceInfo struct {
	ID        string // Stable index-based identifier, e.g. "playback-0"
	Name      string // Human-readable device name
	IsDefault bool   // Whether this is the system default output

	id malgo.DeviceID
}

// String returns a human-readable representation of the device
func (d DeviceInfo) String() string {
	defaultMarker := ""
	if d.IsDefault {
		defaultMarker = " [DEFAULT]"
	}
	return fmt.Sprintf("%s: %s%s", d.ID, d.Name, defaultMarker)
}

// ListDevices returns the available playback devices
func ListDevices() ([]DeviceInfo, error) {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize malgo context: %w", err)
	}
	defer func() {
		_ = ctx.Uninit()
		ctx.Free()
	}()

	return listDevices(ctx)
}

func listDevices(ctx *malgo.AllocatedContext) ([]DeviceInfo, error) {
	infos, err := ctx.Devices(malgo.Playback)
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate devices: %w", err)
	}

	devices := make([]DeviceInfo, 0, len(infos))
	for i := range infos {
		devices = append(devices, DeviceInfo{
			ID:        fmt.Sprintf("playback-%d", i),
			Name:      infos[i].Name(),
			IsDefault: infos[i].IsDefault > 0,
			id:        infos[i].ID,
		})
	}
	return devices, nil
}

// SelectDevice selects by ID or name fragment; an empty query selects the
// default device, falling back to the first one
func SelectDevice(devices []DeviceInfo, query string) (*DeviceInfo, error) {
	if len(devices) == 0 {
		return nil, ErrNoDevice
	}

	if query == "" {
		for i := range devices {
			if devices[i].IsDefault {
				return &devices[i], nil
			}
		}
		return &devices[0], nil
	}

	for i := range devices {
		if devices[i].ID == query {
			return &devices[i], nil
		}
	}
	search := strings.ToLower(query)
	for i := range devices {
		if strings.Contains(strings.ToLower(devices[i].Name), search) {
			return &devices[i], nil
		}
	}
	return nil, fmt.Errorf("%w matching %q", ErrNoDevice, query)
}
