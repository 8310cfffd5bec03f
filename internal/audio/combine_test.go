package audio

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func id3v2(payload string) []byte {
	n := len(payload)
	header := []byte{'I', 'D', '3', 4, 0, 0,
		byte(n >> 21 & 0x7f), byte(n >> 14 & 0x7f), byte(n >> 7 & 0x7f), byte(n & 0x7f)}
	return append(header, payload...)
}

func id3v1() []byte {
	tag := make([]byte, id3v1TagSize)
	copy(tag, "TAG")
	return tag
}

func part(frames string, withTags bool) []byte {
	if !withTags {
		return []byte(frames)
	}
	var b bytes.Buffer
	b.Write(id3v2("title"))
	b.WriteString(frames)
	b.Write(id3v1())
	return b.Bytes()
}

func TestConcatenateStripsInnerTags(t *testing.T) {
	parts := [][]byte{part("AAAA", true), part("BBBB", true), part("CCCC", true)}

	out, err := Concatenate(parts)
	require.NoError(t, err)

	var want bytes.Buffer
	want.Write(id3v2("title"))
	want.WriteString("AAAABBBBCCCC")
	want.Write(id3v1())
	assert.Equal(t, want.Bytes(), out)
}

func TestConcatenateUntaggedParts(t *testing.T) {
	out, err := MP3Combiner{}.Concatenate([][]byte{part("one", false), part("two", false)})
	require.NoError(t, err)
	assert.Equal(t, "onetwo", string(out))
}

func TestConcatenateSinglePart(t *testing.T) {
	p := part("solo", true)
	out, err := Concatenate([][]byte{p})
	require.NoError(t, err)
	assert.Equal(t, p, out)
}

func TestConcatenateRejectsEmpty(t *testing.T) {
	_, err := Concatenate(nil)
	assert.ErrorIs(t, err, ErrEmptyAudio)

	_, err = Concatenate([][]byte{[]byte("x"), {}})
	assert.ErrorIs(t, err, ErrEmptyAudio)
}

func TestStripID3v2Footer(t *testing.T) {
	tagged := id3v2("abc")
	tagged[5] |= 0x10
	tagged = append(tagged, []byte("3DI\x04\x00\x10\x00\x00\x00\x03")...)
	tagged = append(tagged, "frames"...)

	assert.Equal(t, "frames", string(stripID3v2(tagged)))
}

func TestStripID3v2Truncated(t *testing.T) {
	broken := id3v2("abcdef")[:12]
	assert.Equal(t, broken, stripID3v2(broken))
}
