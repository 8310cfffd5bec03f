package audio

import (
	"context"
	"time"
)

// PlaybackConfig holds configuration for audio playback
type PlaybackConfig struct {
	// DeviceName selects the output device by ID or name fragment
	// Empty string = use default device
	DeviceName string

	// BufferDuration is how much decoded audio is kept ahead of the device
	// Larger = more tolerance for a slow decoder, higher memory usage
	BufferDuration time.Duration

	// PeriodFrames is the number of frames the device asks for per callback
	// 0 = let the backend choose
	PeriodFrames uint32
}

// DefaultPlaybackConfig returns a configuration for the default output device
func DefaultPlaybackConfig() PlaybackConfig {
	return PlaybackConfig{
		BufferDuration: 500 * time.Millisecond,
	}
}

// Player is the interface for audio playback implementations
type Player interface {
	// Play decodes and plays MP3 data, blocking until playback finishes,
	// ctx is canceled or Stop is called
	Play(ctx context.Context, mp3Data []byte) error

	// Stop interrupts the current playback
	Stop()

	// IsPlaying returns true while audio is being played
	IsPlaying() bool
}

// NewPlayer creates a new audio player with the given configuration
func NewPlayer(config PlaybackConfig) Player {
	return NewMalgoPlayer(config)
}

// bufferBytes converts a duration of 16-bit PCM to a byte count
func bufferBytes(d time.Duration, sampleRate, channels int) int {
	if d <= 0 {
		d = DefaultPlaybackConfig().BufferDuration
	}
	frames := int(d.Seconds() * float64(sampleRate))
	return frames * channels * 2
}
