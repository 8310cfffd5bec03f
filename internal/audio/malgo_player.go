package audio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/gen2brain/malgo"
	"go.uber.org/zap"
)

// ErrAlreadyPlaying is returned when Play is called during playback
var ErrAlreadyPlaying = errors.New("player is already playing")

// MalgoPlayer implements the Player interface using malgo
type MalgoPlayer struct {
	config PlaybackConfig
	logger *zap.Logger

	mu      sync.Mutex
	playing bool
	stop    chan struct{}
}

// NewMalgoPlayer creates a new malgo-based audio player
func NewMalgoPlayer(config PlaybackConfig) *MalgoPlayer {
	return &MalgoPlayer{
		config: config,
		logger: zap.NewNop(),
	}
}

// WithLogger sets the logger used for playback diagnostics
func (m *MalgoPlayer) WithLogger(logger *zap.Logger) *MalgoPlayer {
	if logger != nil {
		m.logger = logger
	}
	return m
}

// Play decodes mp3Data and plays it on the configured device
func (m *MalgoPlayer) Play(ctx context.Context, mp3Data []byte) error {
	stream, err := DecodeMP3(mp3Data)
	if err != nil {
		return err
	}

	m.mu.Lock()
	if m.playing {
		m.mu.Unlock()
		return ErrAlreadyPlaying
	}
	m.playing = true
	stop := make(chan struct{})
	m.stop = stop
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		m.playing = false
		m.stop = nil
		m.mu.Unlock()
	}()

	// Initialize malgo context
	malgoCtx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return fmt.Errorf("failed to initialize malgo context: %w", err)
	}
	defer func() {
		_ = malgoCtx.Uninit()
		malgoCtx.Free()
	}()

	// Configure device
	deviceConfig := malgo.DefaultDeviceConfig(malgo.Playback)
	deviceConfig.Playback.Format = malgo.FormatS16
	deviceConfig.Playback.Channels = uint32(stream.Channels)
	deviceConfig.SampleRate = uint32(stream.SampleRate)
	deviceConfig.PeriodSizeInFrames = m.config.PeriodFrames

	var selected *DeviceInfo
	if m.config.DeviceName != "" {
		devices, err := listDevices(malgoCtx)
		if err != nil {
			return err
		}
		selected, err = SelectDevice(devices, m.config.DeviceName)
		if err != nil {
			return err
		}
		deviceConfig.Playback.DeviceID = selected.id.Pointer()
	}

	ring := NewRingBuffer(bufferBytes(m.config.BufferDuration, stream.SampleRate, stream.Channels))
	finished := make(chan struct{})
	var finishOnce sync.Once

	// Data callback - called when the device needs more samples
	var callbacks malgo.DeviceCallbacks
	callbacks.Data = func(pOutputSample, pInputSamples []byte, framecount uint32) {
		n, err := ring.Read(pOutputSample)
		for i := n; i < len(pOutputSample); i++ {
			pOutputSample[i] = 0
		}
		if err == io.EOF {
			finishOnce.Do(func() { close(finished) })
		}
	}

	device, err := malgo.InitDevice(malgoCtx.Context, deviceConfig, callbacks)
	if err != nil {
		return fmt.Errorf("failed to initialize device: %w", err)
	}
	defer device.Uninit()

	feedErr := make(chan error, 1)
	feedCtx, cancelFeed := context.WithCancel(ctx)
	defer cancelFeed()
	go func() {
		feedErr <- feed(feedCtx, stream, ring)
	}()

	if err := device.Start(); err != nil {
		return fmt.Errorf("failed to start device: %w", err)
	}
	if selected != nil {
		m.logger.Debug("playing on device", zap.String("device", selected.Name))
	}

	var result error
	select {
	case <-finished:
	case <-stop:
	case <-ctx.Done():
		result = ctx.Err()
	case err := <-feedErr:
		if err != nil {
			result = err
		} else {
			select {
			case <-finished:
			case <-stop:
			case <-ctx.Done():
				result = ctx.Err()
			}
		}
	}

	cancelFeed()
	if err := device.Stop(); err != nil && result == nil {
		result = fmt.Errorf("failed to stop device: %w", err)
	}
	return result
}

// feed decodes the stream into ring until the stream ends or ctx is done
func feed(ctx context.Context, stream io.Reader, ring *RingBuffer) error {
	defer ring.Close()

	buf := make([]byte, 8192)
	for {
		n, err := stream.Read(buf)
		for off := 0; off < n; {
			w, werr := ring.Write(buf[off:n])
			off += w
			if werr == nil && w > 0 {
				continue
			}
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(5 * time.Millisecond):
			}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to decode audio: %w", err)
		}
	}
}

// Stop interrupts the current playback
func (m *MalgoPlayer) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stop != nil {
		close(m.stop)
		m.stop = nil
	}
}

// IsPlaying returns true while audio is being played
func (m *MalgoPlayer) IsPlaying() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.playing
}
