package audio

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/hajimehoshi/go-mp3"
)

// ErrEmptyAudio is returned when there is nothing to decode or combine
var ErrEmptyAudio = errors.New("audio data is empty")

// PCMStream is decoded audio: signed 16-bit little-endian interleaved stereo
type PCMStream struct {
	io.Reader
	SampleRate int
	Channels   int
	// Length is the total size in bytes, or -1 when unknown
	Length int64
}

// Duration returns the playing time of the stream, or 0 when unknown
func (s *PCMStream) Duration() float64 {
	if s.Length < 0 || s.SampleRate == 0 {
		return 0
	}
	return float64(s.Length) / float64(s.SampleRate*s.Channels*2)
}

// DecodeMP3 prepares an MP3 stream for playback
func DecodeMP3(data []byte) (*PCMStream, error) {
	if len(data) == 0 {
		return nil, ErrEmptyAudio
	}
	dec, err := mp3.NewDecoder(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode mp3: %w", err)
	}
	return &PCMStream{
		Reader:     dec,
		SampleRate: dec.SampleRate(),
		Channels:   2,
		Length:     dec.Length(),
	}, nil
}
