package app

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPromptPastedText(t *testing.T) {
	var out bytes.Buffer
	p := NewPrompt(strings.NewReader("1\nRead this please.\n"), &out)

	in, err := p.Ask()
	require.NoError(t, err)
	assert.Equal(t, "Read this please.", in.Text)
	assert.Equal(t, OriginPasted, in.Origin)
	assert.Contains(t, out.String(), "Choose input method")
}

func TestPromptFilePath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.md")
	require.NoError(t, os.WriteFile(path, []byte("# Title\n\nBody text."), 0o644))

	p := NewPrompt(strings.NewReader("2\n"+path+"\n"), &bytes.Buffer{})
	in, err := p.Ask()
	require.NoError(t, err)
	assert.Contains(t, in.Text, "Body text.")
	assert.Equal(t, "file:"+path, in.Origin)
}

func TestPromptRetriesInvalidChoiceAndMissingFile(t *testing.T) {
	var out bytes.Buffer
	missing := filepath.Join(t.TempDir(), "missing.txt")
	p := NewPrompt(strings.NewReader("3\n2\n"+missing+"\n1\nfinally\n"), &out)

	in, err := p.Ask()
	require.NoError(t, err)
	assert.Equal(t, "finally", in.Text)
	assert.Contains(t, out.String(), "Invalid choice")
	assert.Contains(t, out.String(), "missing.txt")
}

func TestPromptEmptyPaste(t *testing.T) {
	p := NewPrompt(strings.NewReader("1\n\n"), &bytes.Buffer{})

	_, err := p.Ask()
	assert.ErrorIs(t, err, ErrEmptyInput)
}

func TestPromptClosedInput(t *testing.T) {
	p := NewPrompt(strings.NewReader(""), &bytes.Buffer{})

	_, err := p.Ask()
	stage, ok := StageOf(err)
	require.True(t, ok)
	assert.Equal(t, StageInput, stage)
}
