package tts

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Engine defines the interface for text-to-speech backends
type Engine interface {
	// Initialize sets up the TTS engine with the given config
	Initialize(config Config) error

	// Synthesize converts text to audio, streaming encoded bytes via callback
	Synthesize(ctx context.Context, req SynthesizeRequest, callback AudioCallback) error

	// ListVoices returns the voices the backend offers
	ListVoices(ctx context.Context) ([]Voice, error)

	// Name returns the provider name
	Name() string

	// Format returns the file extension of the audio produced, without the dot
	Format() string

	// Close releases resources
	Close() error

	// IsInitialized returns true if engine is ready
	IsInitialized() bool
}

// Config holds TTS engine configuration
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	// Voice-specific settings
	DefaultVoice    string
	Stability       float64
	SimilarityBoost float64

	Timeout    time.Duration
	HTTPClient *http.Client
}

// SynthesizeRequest contains text-to-speech parameters
type SynthesizeRequest struct {
	Text  string
	Voice string
	Speed float32 // 1.0 = normal, 0 = provider default
}

// AudioChunk is a piece of the encoded audio stream
type AudioChunk struct {
	Data  []byte
	Index int
}

// AudioCallback is called for each audio chunk during synthesis
type AudioCallback func(chunk AudioChunk) error

// Voice represents an available TTS voice
type Voice struct {
	ID          string
	Name        string
	Language    string
	Gender      string
	Description string
}

// Provider names accepted by NewEngine
const (
	ProviderElevenLabs = "elevenlabs"
	ProviderOpenAI     = "openai"
)

// DefaultConfig returns default TTS configuration for a provider
func DefaultConfig(provider, apiKey string) Config {
	cfg := Config{
		APIKey:  apiKey,
		Timeout: 60 * time.Second,
	}
	switch provider {
	case ProviderOpenAI:
		cfg.DefaultVoice = OpenAIDefaultVoice
		cfg.Model = OpenAIDefaultModel
	default:
		cfg.DefaultVoice = ElevenLabsDefaultVoice
		cfg.Model = ElevenLabsDefaultModel
		cfg.Stability = 0.75
		cfg.SimilarityBoost = 0.75
	}
	return cfg
}

// NewEngine returns an uninitialized engine for the named provider
func NewEngine(provider string) (Engine, error) {
	switch strings.ToLower(provider) {
	case ProviderElevenLabs, "":
		return NewElevenLabsEngine(), nil
	case ProviderOpenAI:
		return NewOpenAIEngine(), nil
	default:
		return nil, fmt.Errorf("unknown TTS provider %q", provider)
	}
}

func httpClientFor(config Config) *http.Client {
	if config.HTTPClient != nil {
		return config.HTTPClient
	}
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &http.Client{Timeout: timeout}
}
