package output

import (
	"bufio"
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLines(t *testing.T, data []byte) []map[string]any {
	t.Helper()
	var out []map[string]any
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		var m map[string]any
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &m))
		out = append(out, m)
	}
	require.NoError(t, scanner.Err())
	return out
}

func TestJSONFormatter(t *testing.T) {
	var buf bytes.Buffer
	f := NewJSONFormatter(&buf)

	require.NoError(t, f.WritePart(PartResult{Index: 0, Total: 2, File: "part_000.mp3", Bytes: 10}))
	require.NoError(t, f.WriteEvent(EventWarning, "left ambiguous reference unchanged"))
	require.NoError(t, f.WriteSummary(Summary{ID: "abc", Dir: "output/run", Chunks: 2, Complete: true}))

	lines := decodeLines(t, buf.Bytes())
	require.Len(t, lines, 3)

	assert.Equal(t, "part", lines[0]["type"])
	assert.Equal(t, "part_000.mp3", lines[0]["file"])
	assert.Equal(t, "warning", lines[1]["type"])
	assert.Equal(t, "summary", lines[2]["type"])
	assert.Equal(t, []any{}, lines[2]["files"])
	assert.NotContains(t, lines[2], "combined")

	assert.Len(t, f.Parts(), 1)
}

func TestPlainTextFormatter(t *testing.T) {
	var buf bytes.Buffer
	f := NewPlainTextFormatter(&buf)

	require.NoError(t, f.WritePart(PartResult{Index: 1, Total: 3, File: "part_001.mp3", Bytes: 42}))
	require.NoError(t, f.WriteEvent(EventPlayback, "playback stopped"))
	require.NoError(t, f.WriteSummary(Summary{ID: "abc", Dir: "out", Chunks: 3, Complete: false, Combined: "out/combined.mp3"}))

	out := buf.String()
	assert.Contains(t, out, "part 2/3 part_001.mp3 (42 bytes)")
	assert.Contains(t, out, "[playback] playback stopped")
	assert.Contains(t, out, "run abc incomplete: 3 chunks in out")
	assert.Contains(t, out, "combined: out/combined.mp3")
}

func TestConsoleOutput(t *testing.T) {
	var out, errOut bytes.Buffer
	c := NewConsoleOutput(ConsoleConfig{Writer: &out, ErrWriter: &errOut})

	require.NoError(t, c.WritePart(PartResult{Index: 0, Total: 2, File: "part_000.mp3"}))
	require.NoError(t, c.WritePart(PartResult{Index: 1, Total: 2, File: "part_001.mp3"}))
	require.NoError(t, c.WriteEvent(EventWarning, "chunk 1 was split inside a word"))
	require.NoError(t, c.WriteSummary(Summary{Dir: "out", Files: []string{"a", "b"}, Combined: "out/combined.mp3", Warnings: 1}))
	c.Error("boom")

	text := out.String()
	assert.Contains(t, text, "\r[*] Synthesized 2/2 (part_001.mp3)\n[WARNING] chunk 1")
	assert.Contains(t, text, "Saved 2 part(s) to out")
	assert.Contains(t, text, "Combined audio: out/combined.mp3")
	assert.Contains(t, text, "1 warning(s)")
	assert.Equal(t, "[ERROR] boom\n", errOut.String())
}

func TestConsoleCloseEndsProgressLine(t *testing.T) {
	var out bytes.Buffer
	c := NewConsoleOutput(ConsoleConfig{Writer: &out})

	c.Status("synthesizing")
	require.NoError(t, c.Close())
	require.NoError(t, c.Close())
	assert.Equal(t, 1, strings.Count(out.String(), "\n"))
}

func TestNew(t *testing.T) {
	var buf bytes.Buffer
	for _, format := range []string{"", "console", "json", "text"} {
		f, err := New(format, &buf)
		require.NoError(t, err, format)
		assert.NotNil(t, f)
	}

	_, err := New("xml", &buf)
	assert.Error(t, err)
}
