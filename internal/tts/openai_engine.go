package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
)

const (
	openAIBaseURL = "https://api.openai.com"

	OpenAIDefaultVoice = "alloy"
	OpenAIDefaultModel = "tts-1"
)

// OpenAIEngine implements the Engine interface using the OpenAI speech endpoint
type OpenAIEngine struct {
	config      Config
	client      *http.Client
	mu          sync.RWMutex
	initialized bool
	voices      []Voice
}

// NewOpenAIEngine creates a new OpenAI engine
func NewOpenAIEngine() *OpenAIEngine {
	return &OpenAIEngine{
		voices: []Voice{
			{ID: "alloy", Name: "Alloy", Language: "en", Gender: "neutral"},
			{ID: "echo", Name: "Echo", Language: "en", Gender: "male"},
			{ID: "fable", Name: "Fable", Language: "en", Gender: "neutral"},
			{ID: "onyx", Name: "Onyx", Language: "en", Gender: "male"},
			{ID: "nova", Name: "Nova", Language: "en", Gender: "female"},
			{ID: "shimmer", Name: "Shimmer", Language: "en", Gender: "female"},
		},
	}
}

type openAISpeechRequest struct {
	Model          string  `json:"model"`
	Input          string  `json:"input"`
	Voice          string  `json:"voice"`
	ResponseFormat string  `json:"response_format"`
	Speed          float32 `json:"speed,omitempty"`
}

// Initialize sets up the OpenAI engine
func (o *OpenAIEngine) Initialize(config Config) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.initialized {
		return ErrAlreadyInitialized
	}
	if config.APIKey == "" {
		return fmt.Errorf("openai: %w: missing API key", ErrAuth)
	}
	if config.BaseURL == "" {
		config.BaseURL = openAIBaseURL
	}
	if config.DefaultVoice == "" {
		config.DefaultVoice = OpenAIDefaultVoice
	}
	if config.Model == "" {
		config.Model = OpenAIDefaultModel
	}

	o.config = config
	o.client = httpClientFor(config)
	o.initialized = true
	return nil
}

// Synthesize converts text to MP3 audio
func (o *OpenAIEngine) Synthesize(ctx context.Context, req SynthesizeRequest, callback AudioCallback) error {
	o.mu.RLock()
	cfg, client, ready := o.config, o.client, o.initialized
	o.mu.RUnlock()

	if !ready {
		return ErrNotInitialized
	}
	if strings.TrimSpace(req.Text) == "" {
		return ErrEmptyText
	}

	voice := req.Voice
	if voice == "" {
		voice = cfg.DefaultVoice
	}

	payload, err := json.Marshal(openAISpeechRequest{
		Model:          cfg.Model,
		Input:          req.Text,
		Voice:          voice,
		ResponseFormat: "mp3",
		Speed:          req.Speed,
	})
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	endpoint := strings.TrimRight(cfg.BaseURL, "/") + "/v1/audio/speech"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+cfg.APIKey)

	resp, err := client.Do(httpReq)
	if err != nil {
		return transportError(ctx, ProviderOpenAI, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return openAIError(resp)
	}

	return streamBody(ctx, ProviderOpenAI, resp.Body, callback)
}

// ListVoices returns the fixed OpenAI voice set
func (o *OpenAIEngine) ListVoices(ctx context.Context) ([]Voice, error) {
	if !o.IsInitialized() {
		return nil, ErrNotInitialized
	}
	return append([]Voice(nil), o.voices...), nil
}

// Name returns the provider name
func (o *OpenAIEngine) Name() string {
	return ProviderOpenAI
}

// Format returns the file extension of the produced audio
func (o *OpenAIEngine) Format() string {
	return "mp3"
}

// Close releases resources
func (o *OpenAIEngine) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.initialized {
		return nil
	}
	if o.config.HTTPClient == nil {
		o.client.CloseIdleConnections()
	}
	o.initialized = false
	return nil
}

// IsInitialized returns true if engine is ready
func (o *OpenAIEngine) IsInitialized() bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.initialized
}

func openAIError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))

	be := &BackendError{
		Provider: ProviderOpenAI,
		Status:   resp.StatusCode,
		Kind:     classifyStatus(resp.StatusCode),
	}

	var envelope struct {
		Error struct {
			Message string `json:"message"`
			Type    string `json:"type"`
			Code    string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil || envelope.Error.Message == "" {
		be.Detail = strings.TrimSpace(string(raw))
		return be
	}

	be.Detail = envelope.Error.Message
	if envelope.Error.Code == "insufficient_quota" || envelope.Error.Type == "insufficient_quota" {
		be.Kind = ErrQuotaExceeded
	}
	return be
}
