package app

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/emmett/readtome/internal/config"
	"github.com/emmett/readtome/internal/tts"
)

// NewEngine creates and initializes the engine for cfg.TTS.Provider using
// the provider's API key from the environment
func NewEngine(cfg *config.Config) (tts.Engine, error) {
	apiKey, err := cfg.APIKey()
	if err != nil {
		return nil, &Error{Stage: StageConfiguration, Err: err}
	}

	engine, err := tts.NewEngine(cfg.TTS.Provider)
	if err != nil {
		return nil, &Error{Stage: StageConfiguration, Err: err}
	}

	engineCfg := tts.DefaultConfig(cfg.TTS.Provider, apiKey)
	if cfg.TTS.Voice != "" {
		engineCfg.DefaultVoice = cfg.TTS.Voice
	}
	if cfg.TTS.Model != "" {
		engineCfg.Model = cfg.TTS.Model
	}
	if cfg.TTS.Provider != tts.ProviderOpenAI {
		engineCfg.Stability = cfg.TTS.Stability
		engineCfg.SimilarityBoost = cfg.TTS.SimilarityBoost
	}
	if cfg.TTS.Timeout > 0 {
		engineCfg.Timeout = cfg.TTS.Timeout
	}

	if err := engine.Initialize(engineCfg); err != nil {
		return nil, &Error{Stage: StageConfiguration, Err: fmt.Errorf("failed to initialize %s: %w", engine.Name(), err)}
	}
	return engine, nil
}

// NewSynthesizer wraps engine in a retrying client
func NewSynthesizer(engine tts.Engine, cfg *config.Config, logger *zap.Logger) *tts.Client {
	return tts.NewClient(engine,
		tts.WithMaxRetries(cfg.TTS.MaxRetries),
		tts.WithClientLogger(logger))
}

// ReaderConfigFrom maps the file configuration onto a ReaderConfig
func ReaderConfigFrom(cfg *config.Config) ReaderConfig {
	rc := DefaultReaderConfig()
	if cfg.Chunking.MaxChars > 0 {
		rc.MaxChars = cfg.Chunking.MaxChars
	}
	if cfg.Output.Dir != "" {
		rc.OutputDir = cfg.Output.Dir
	}
	if cfg.Synthesis.Concurrency > 0 {
		rc.Concurrency = cfg.Synthesis.Concurrency
	}
	rc.RequestsPerSecond = cfg.Synthesis.RequestsPerSecond
	rc.Play = cfg.Playback.Enabled
	rc.StopHotkey = cfg.Playback.StopHotkey
	return rc
}
