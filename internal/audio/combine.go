package audio

import (
	"bytes"
	"fmt"
)

const (
	id3v2HeaderSize = 10
	id3v1TagSize    = 128
)

// MP3Combiner concatenates MP3 parts into one playable stream
type MP3Combiner struct{}

// Concatenate implements the pipeline's Combiner
func (MP3Combiner) Concatenate(parts [][]byte) ([]byte, error) {
	return Concatenate(parts)
}

// Concatenate joins MP3 parts frame-to-frame. MPEG audio frames are
// self-contained, so parts can be appended once the per-file tags between
// them are removed: the ID3v2 header is kept only on the first part and the
// ID3v1 trailer only on the last
func Concatenate(parts [][]byte) ([]byte, error) {
	if len(parts) == 0 {
		return nil, ErrEmptyAudio
	}

	total := 0
	for i, p := range parts {
		if len(p) == 0 {
			return nil, fmt.Errorf("part %d: %w", i, ErrEmptyAudio)
		}
		total += len(p)
	}

	out := bytes.NewBuffer(make([]byte, 0, total))
	last := len(parts) - 1
	for i, p := range parts {
		if i > 0 {
			p = stripID3v2(p)
		}
		if i < last {
			p = stripID3v1(p)
		}
		out.Write(p)
	}
	return out.Bytes(), nil
}

// stripID3v2 removes a leading ID3v2 tag, including its footer when present
func stripID3v2(data []byte) []byte {
	if len(data) < id3v2HeaderSize || !bytes.HasPrefix(data, []byte("ID3")) {
		return data
	}
	// The size is a 28-bit synchsafe integer: 7 bits per byte
	size := int(data[6]&0x7f)<<21 | int(data[7]&0x7f)<<14 | int(data[8]&0x7f)<<7 | int(data[9]&0x7f)
	end := id3v2HeaderSize + size
	if data[5]&0x10 != 0 {
		end += id3v2HeaderSize
	}
	if end > len(data) {
		return data
	}
	return data[end:]
}

// stripID3v1 removes a trailing 128-byte ID3v1 tag
func stripID3v1(data []byte) []byte {
	if len(data) < id3v1TagSize {
		return data
	}
	tag := data[len(data)-id3v1TagSize:]
	if !bytes.HasPrefix(tag, []byte("TAG")) {
		return data
	}
	return data[:len(data)-id3v1TagSize]
}
