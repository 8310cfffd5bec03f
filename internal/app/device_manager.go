package app

import (
	"fmt"
	"io"
	"os"

	"github.com/emmett/readtome/internal/audio"
)

// DeviceManager handles playback device selection and listing
type DeviceManager struct {
	out  io.Writer
	list func() ([]audio.DeviceInfo, error)
}

// NewDeviceManager creates a DeviceManager printing to out (default stdout)
func NewDeviceManager(out io.Writer) *DeviceManager {
	if out == nil {
		out = os.Stdout
	}
	return &DeviceManager{out: out, list: audio.ListDevices}
}

// ListDevices prints every playback device
func (dm *DeviceManager) ListDevices() error {
	devices, err := dm.list()
	if err != nil {
		return fmt.Errorf("failed to list devices: %w", err)
	}

	if len(devices) == 0 {
		fmt.Fprintln(dm.out, "No audio playback devices found.")
		return audio.ErrNoDevice
	}

	fmt.Fprintf(dm.out, "Found %d playback device(s):\n\n", len(devices))
	for i, device := range devices {
		marker := ""
		if device.IsDefault {
			marker = " [DEFAULT]"
		}
		fmt.Fprintf(dm.out, "%d. %s%s\n", i+1, device.Name, marker)
		fmt.Fprintf(dm.out, "   ID: %s\n", device.ID)
	}

	fmt.Fprintln(dm.out)
	fmt.Fprintln(dm.out, "To play on a specific device, run:")
	fmt.Fprintf(dm.out, "  readtome -device %q\n", devices[0].Name)
	return nil
}

// SelectDevice resolves a device by ID or name fragment; empty selects
// the default device
func (dm *DeviceManager) SelectDevice(deviceName string) (*audio.DeviceInfo, error) {
	devices, err := dm.list()
	if err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}

	selected, err := audio.SelectDevice(devices, deviceName)
	if err != nil {
		fmt.Fprintf(dm.out, "Device %q not found. Available devices:\n", deviceName)
		for _, device := range devices {
			fmt.Fprintf(dm.out, "  - %s\n", device)
		}
		fmt.Fprintln(dm.out, "Use -list-devices for more details")
		return nil, err
	}
	return selected, nil
}
