package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emmett/readtome/internal/config"
	"github.com/emmett/readtome/internal/tts"
)

func TestNewEngineMissingKey(t *testing.T) {
	t.Setenv(config.EnvElevenLabsKey, "")

	_, err := NewEngine(config.DefaultConfig())
	require.Error(t, err)
	assert.ErrorIs(t, err, config.ErrMissingAPIKey)

	stage, ok := StageOf(err)
	require.True(t, ok)
	assert.Equal(t, StageConfiguration, stage)
}

func TestNewEngineOpenAI(t *testing.T) {
	t.Setenv(config.EnvOpenAIKey, "sk-test")
	cfg := config.DefaultConfig()
	cfg.TTS.Provider = tts.ProviderOpenAI

	engine, err := NewEngine(cfg)
	require.NoError(t, err)
	defer engine.Close()

	assert.True(t, engine.IsInitialized())
	assert.Equal(t, "mp3", engine.Format())

	client := NewSynthesizer(engine, cfg, nil)
	assert.Equal(t, "mp3", client.Format())
}

func TestNewEngineUnknownProvider(t *testing.T) {
	t.Setenv(config.EnvElevenLabsKey, "key")
	cfg := config.DefaultConfig()
	cfg.TTS.Provider = "espeak"

	_, err := NewEngine(cfg)
	stage, ok := StageOf(err)
	require.True(t, ok)
	assert.Equal(t, StageConfiguration, stage)
}

func TestReaderConfigFrom(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Chunking.MaxChars = 1000
	cfg.Output.Dir = "/tmp/audio"
	cfg.Synthesis.Concurrency = 3
	cfg.Synthesis.RequestsPerSecond = 2.5
	cfg.Playback.Enabled = false

	rc := ReaderConfigFrom(cfg)
	assert.Equal(t, ReaderConfig{
		MaxChars:          1000,
		OutputDir:         "/tmp/audio",
		Concurrency:       3,
		RequestsPerSecond: 2.5,
		Play:              false,
		StopHotkey:        "ctrl+shift+s",
	}, rc)
}
