package tts

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newElevenLabsTestEngine(t *testing.T, handler http.HandlerFunc) *ElevenLabsEngine {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	engine := NewElevenLabsEngine()
	cfg := DefaultConfig(ProviderElevenLabs, "test-key")
	cfg.BaseURL = server.URL
	require.NoError(t, engine.Initialize(cfg))
	t.Cleanup(func() { _ = engine.Close() })
	return engine
}

func collect(t *testing.T, engine Engine, req SynthesizeRequest) ([]byte, error) {
	t.Helper()
	var out []byte
	err := engine.Synthesize(context.Background(), req, func(chunk AudioChunk) error {
		out = append(out, chunk.Data...)
		return nil
	})
	return out, err
}

func TestElevenLabsSynthesize(t *testing.T) {
	audio := []byte("ID3fake-mp3-bytes")

	engine := newElevenLabsTestEngine(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/text-to-speech/"+ElevenLabsDefaultVoice, r.URL.Path)
		assert.Equal(t, "mp3_44100_128", r.URL.Query().Get("output_format"))
		assert.Equal(t, "test-key", r.Header.Get("xi-api-key"))
		assert.Equal(t, "audio/mpeg", r.Header.Get("Accept"))

		var body elevenLabsRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Hello there.", body.Text)
		assert.Equal(t, ElevenLabsDefaultModel, body.ModelID)
		require.NotNil(t, body.VoiceSettings)
		assert.InDelta(t, 0.75, body.VoiceSettings.Stability, 1e-9)
		assert.InDelta(t, 0.75, body.VoiceSettings.SimilarityBoost, 1e-9)

		w.Header().Set("Content-Type", "audio/mpeg")
		_, _ = w.Write(audio)
	})

	got, err := collect(t, engine, SynthesizeRequest{Text: "Hello there."})
	require.NoError(t, err)
	assert.Equal(t, audio, got)
}

func TestElevenLabsUsesRequestVoice(t *testing.T) {
	engine := newElevenLabsTestEngine(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/text-to-speech/custom-voice", r.URL.Path)
		_, _ = w.Write([]byte("x"))
	})

	_, err := collect(t, engine, SynthesizeRequest{Text: "hi", Voice: "custom-voice"})
	require.NoError(t, err)
}

func TestElevenLabsErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		kind   error
		detail string
	}{
		{
			name:   "unauthorized",
			status: http.StatusUnauthorized,
			body:   `{"detail":{"status":"invalid_api_key","message":"Invalid API key"}}`,
			kind:   ErrAuth,
			detail: "Invalid API key",
		},
		{
			name:   "quota reported on 401",
			status: http.StatusUnauthorized,
			body:   `{"detail":{"status":"quota_exceeded","message":"This request exceeds your quota."}}`,
			kind:   ErrQuotaExceeded,
			detail: "This request exceeds your quota.",
		},
		{
			name:   "rate limited",
			status: http.StatusTooManyRequests,
			body:   `{"detail":{"status":"too_many_concurrent_requests","message":"slow down"}}`,
			kind:   ErrRateLimited,
			detail: "slow down",
		},
		{
			name:   "validation error list",
			status: http.StatusUnprocessableEntity,
			body:   `{"detail":[{"loc":["body","text"],"msg":"field required"}]}`,
			kind:   ErrBackend,
			detail: `[{"loc":["body","text"],"msg":"field required"}]`,
		},
		{
			name:   "plain text body",
			status: http.StatusBadGateway,
			body:   "upstream unavailable",
			kind:   ErrBackend,
			detail: "upstream unavailable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := newElevenLabsTestEngine(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})

			_, err := collect(t, engine, SynthesizeRequest{Text: "hello"})
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.kind)

			var be *BackendError
			require.True(t, errors.As(err, &be))
			assert.Equal(t, tt.status, be.Status)
			assert.Equal(t, tt.detail, be.Detail)
		})
	}
}

func TestElevenLabsNetworkError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	engine := NewElevenLabsEngine()
	cfg := DefaultConfig(ProviderElevenLabs, "k")
	cfg.BaseURL = url
	require.NoError(t, engine.Initialize(cfg))

	_, err := collect(t, engine, SynthesizeRequest{Text: "hello"})
	assert.ErrorIs(t, err, ErrNetwork)
	assert.True(t, IsRetryable(err))
}

func TestElevenLabsListVoices(t *testing.T) {
	engine := newElevenLabsTestEngine(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/voices", r.URL.Path)
		_, _ = io.WriteString(w, `{"voices":[{"voice_id":"abc","name":"Rachel","description":"calm","labels":{"accent":"american","gender":"female"}}]}`)
	})

	voices, err := engine.ListVoices(context.Background())
	require.NoError(t, err)
	require.Len(t, voices, 1)
	assert.Equal(t, Voice{ID: "abc", Name: "Rachel", Language: "american", Gender: "female", Description: "calm"}, voices[0])
}

func TestElevenLabsLifecycle(t *testing.T) {
	engine := NewElevenLabsEngine()
	assert.False(t, engine.IsInitialized())

	_, err := collect(t, engine, SynthesizeRequest{Text: "hello"})
	assert.ErrorIs(t, err, ErrNotInitialized)

	assert.ErrorIs(t, engine.Initialize(Config{}), ErrAuth)
	require.NoError(t, engine.Initialize(Config{APIKey: "k"}))
	assert.ErrorIs(t, engine.Initialize(Config{APIKey: "k"}), ErrAlreadyInitialized)
	assert.True(t, engine.IsInitialized())

	_, err = collect(t, engine, SynthesizeRequest{Text: "   "})
	assert.ErrorIs(t, err, ErrEmptyText)

	require.NoError(t, engine.Close())
	assert.False(t, engine.IsInitialized())
	require.NoError(t, engine.Close())
}
