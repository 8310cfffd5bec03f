package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
)

const (
	elevenLabsBaseURL      = "https://api.elevenlabs.io"
	elevenLabsOutputFormat = "mp3_44100_128"
	streamReadSize         = 32 * 1024

	// ElevenLabsDefaultVoice is the "Rachel" premade voice
	ElevenLabsDefaultVoice = "21m00Tcm4TlvDq8ikWAM"
	ElevenLabsDefaultModel = "eleven_monolingual_v1"
)

// ElevenLabsEngine implements the Engine interface using the ElevenLabs REST API
type ElevenLabsEngine struct {
	config      Config
	client      *http.Client
	mu          sync.RWMutex
	initialized bool
}

// NewElevenLabsEngine creates a new ElevenLabs engine
func NewElevenLabsEngine() *ElevenLabsEngine {
	return &ElevenLabsEngine{}
}

type elevenLabsRequest struct {
	Text          string                   `json:"text"`
	ModelID       string                   `json:"model_id"`
	VoiceSettings *elevenLabsVoiceSettings `json:"voice_settings,omitempty"`
}

type elevenLabsVoiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
}

type elevenLabsErrorDetail struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type elevenLabsVoicesResponse struct {
	Voices []struct {
		VoiceID     string            `json:"voice_id"`
		Name        string            `json:"name"`
		Category    string            `json:"category"`
		Description string            `json:"description"`
		Labels      map[string]string `json:"labels"`
	} `json:"voices"`
}

// Initialize sets up the ElevenLabs engine
func (e *ElevenLabsEngine) Initialize(config Config) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.initialized {
		return ErrAlreadyInitialized
	}
	if config.APIKey == "" {
		return fmt.Errorf("elevenlabs: %w: missing API key", ErrAuth)
	}
	if config.BaseURL == "" {
		config.BaseURL = elevenLabsBaseURL
	}
	if config.DefaultVoice == "" {
		config.DefaultVoice = ElevenLabsDefaultVoice
	}
	if config.Model == "" {
		config.Model = ElevenLabsDefaultModel
	}

	e.config = config
	e.client = httpClientFor(config)
	e.initialized = true
	return nil
}

func (e *ElevenLabsEngine) snapshot() (Config, *http.Client, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if !e.initialized {
		return Config{}, nil, ErrNotInitialized
	}
	return e.config, e.client, nil
}

// Synthesize converts text to MP3 audio, streaming the response body
func (e *ElevenLabsEngine) Synthesize(ctx context.Context, req SynthesizeRequest, callback AudioCallback) error {
	cfg, client, err := e.snapshot()
	if err != nil {
		return err
	}
	if strings.TrimSpace(req.Text) == "" {
		return ErrEmptyText
	}

	voice := req.Voice
	if voice == "" {
		voice = cfg.DefaultVoice
	}

	body := elevenLabsRequest{Text: req.Text, ModelID: cfg.Model}
	if cfg.Stability > 0 || cfg.SimilarityBoost > 0 {
		body.VoiceSettings = &elevenLabsVoiceSettings{
			Stability:       cfg.Stability,
			SimilarityBoost: cfg.SimilarityBoost,
		}
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1/text-to-speech/%s?output_format=%s",
		strings.TrimRight(cfg.BaseURL, "/"), url.PathEscape(voice), elevenLabsOutputFormat)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "audio/mpeg")
	httpReq.Header.Set("xi-api-key", cfg.APIKey)

	resp, err := client.Do(httpReq)
	if err != nil {
		return transportError(ctx, ProviderElevenLabs, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return elevenLabsError(resp)
	}

	return streamBody(ctx, ProviderElevenLabs, resp.Body, callback)
}

// ListVoices returns the voices available to the account
func (e *ElevenLabsEngine) ListVoices(ctx context.Context) ([]Voice, error) {
	cfg, client, err := e.snapshot()
	if err != nil {
		return nil, err
	}

	endpoint := strings.TrimRight(cfg.BaseURL, "/") + "/v1/voices"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("xi-api-key", cfg.APIKey)

	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, transportError(ctx, ProviderElevenLabs, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, elevenLabsError(resp)
	}

	var decoded elevenLabsVoicesResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("failed to decode voices: %w", err)
	}

	voices := make([]Voice, 0, len(decoded.Voices))
	for _, v := range decoded.Voices {
		voices = append(voices, Voice{
			ID:          v.VoiceID,
			Name:        v.Name,
			Language:    v.Labels["accent"],
			Gender:      v.Labels["gender"],
			Description: v.Description,
		})
	}
	return voices, nil
}

// Name returns the provider name
func (e *ElevenLabsEngine) Name() string {
	return ProviderElevenLabs
}

// Format returns the file extension of the produced audio
func (e *ElevenLabsEngine) Format() string {
	return "mp3"
}

// Close releases resources
func (e *ElevenLabsEngine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.initialized {
		return nil
	}
	if e.config.HTTPClient == nil {
		e.client.CloseIdleConnections()
	}
	e.initialized = false
	return nil
}

// IsInitialized returns true if engine is ready
func (e *ElevenLabsEngine) IsInitialized() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.initialized
}

// elevenLabsError maps a non-200 response onto the error taxonomy. The detail
// field is an object for API errors and a list for validation errors
func elevenLabsError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))

	be := &BackendError{
		Provider: ProviderElevenLabs,
		Status:   resp.StatusCode,
		Kind:     classifyStatus(resp.StatusCode),
	}

	var envelope struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil || len(envelope.Detail) == 0 {
		be.Detail = strings.TrimSpace(string(raw))
		return be
	}

	var detail elevenLabsErrorDetail
	if err := json.Unmarshal(envelope.Detail, &detail); err == nil {
		be.Detail = detail.Message
		if strings.Contains(detail.Status, "quota") {
			be.Kind = ErrQuotaExceeded
		}
		return be
	}

	var text string
	if err := json.Unmarshal(envelope.Detail, &text); err == nil {
		be.Detail = text
		return be
	}
	be.Detail = string(envelope.Detail)
	return be
}

func transportError(ctx context.Context, provider string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return &BackendError{Provider: provider, Kind: ErrNetwork, Detail: err.Error()}
}

func streamBody(ctx context.Context, provider string, body io.Reader, callback AudioCallback) error {
	buf := make([]byte, streamReadSize)
	index := 0
	for {
		n, err := body.Read(buf)
		if n > 0 {
			data := make([]byte, n)
			copy(data, buf[:n])
			if cbErr := callback(AudioChunk{Data: data, Index: index}); cbErr != nil {
				return cbErr
			}
			index++
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return transportError(ctx, provider, err)
		}
	}
}
