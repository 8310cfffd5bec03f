package tts

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedEngine returns the queued errors in order, then succeeds
type scriptedEngine struct {
	errs  []error
	calls atomic.Int32
}

func (s *scriptedEngine) Initialize(Config) error { return nil }
func (s *scriptedEngine) Synthesize(_ context.Context, req SynthesizeRequest, cb AudioCallback) error {
	n := int(s.calls.Add(1)) - 1
	if n < len(s.errs) {
		return s.errs[n]
	}
	if err := cb(AudioChunk{Data: []byte(req.Text[:1]), Index: 0}); err != nil {
		return err
	}
	return cb(AudioChunk{Data: []byte(req.Text[1:]), Index: 1})
}
func (s *scriptedEngine) ListVoices(context.Context) ([]Voice, error) { return nil, nil }
func (s *scriptedEngine) Name() string                                { return "scripted" }
func (s *scriptedEngine) Format() string                              { return "mp3" }
func (s *scriptedEngine) Close() error                                { return nil }
func (s *scriptedEngine) IsInitialized() bool                         { return true }

func fastBackOff() backoff.BackOff {
	return backoff.NewConstantBackOff(time.Millisecond)
}

func TestClientCollectsChunks(t *testing.T) {
	engine := &scriptedEngine{}
	client := NewClient(engine)

	data, err := client.Synthesize(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), data)
	assert.Equal(t, "mp3", client.Format())
}

func TestClientRetriesTransientErrors(t *testing.T) {
	engine := &scriptedEngine{errs: []error{
		&BackendError{Provider: "scripted", Kind: ErrNetwork, Detail: "connection reset"},
		&BackendError{Provider: "scripted", Status: 503, Kind: ErrBackend},
	}}
	client := NewClient(engine, WithMaxRetries(2), WithBackOff(fastBackOff))

	data, err := client.Synthesize(context.Background(), "ok")
	require.NoError(t, err)
	assert.Equal(t, []byte("ok"), data)
	assert.Equal(t, int32(3), engine.calls.Load())
}

func TestClientGivesUpAfterMaxRetries(t *testing.T) {
	rateLimited := &BackendError{Provider: "scripted", Status: 429, Kind: ErrRateLimited}
	engine := &scriptedEngine{errs: []error{rateLimited, rateLimited, rateLimited}}
	client := NewClient(engine, WithMaxRetries(1), WithBackOff(fastBackOff))

	_, err := client.Synthesize(context.Background(), "ok")
	assert.ErrorIs(t, err, ErrRateLimited)
	assert.Equal(t, int32(2), engine.calls.Load())
}

func TestClientDoesNotRetryPermanentErrors(t *testing.T) {
	auth := &BackendError{Provider: "scripted", Status: 401, Kind: ErrAuth}
	engine := &scriptedEngine{errs: []error{auth}}
	client := NewClient(engine, WithMaxRetries(3), WithBackOff(fastBackOff))

	_, err := client.Synthesize(context.Background(), "ok")
	require.Error(t, err)

	var be *BackendError
	require.True(t, errors.As(err, &be))
	assert.Same(t, auth, be)
	assert.Equal(t, int32(1), engine.calls.Load())
}

func TestIsRetryable(t *testing.T) {
	assert.False(t, IsRetryable(nil))
	assert.False(t, IsRetryable(context.Canceled))
	assert.False(t, IsRetryable(ErrAuth))
	assert.False(t, IsRetryable(&BackendError{Status: 400, Kind: ErrBackend}))
	assert.True(t, IsRetryable(&BackendError{Status: 500, Kind: ErrBackend}))
	assert.True(t, IsRetryable(&BackendError{Kind: ErrNetwork}))
}
