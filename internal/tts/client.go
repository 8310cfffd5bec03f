package tts

import (
	"bytes"
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"
)

// Client turns a streaming Engine into a whole-buffer synthesizer and retries
// transient failures (network errors, 429 and 5xx responses) with exponential
// backoff. Authentication and quota errors are returned immediately
type Client struct {
	engine     Engine
	voice      string
	speed      float32
	maxRetries uint
	newBackOff func() backoff.BackOff
	logger     *zap.Logger
}

// ClientOption configures a Client
type ClientOption func(*Client)

// WithVoice overrides the engine's default voice
func WithVoice(voice string) ClientOption {
	return func(c *Client) { c.voice = voice }
}

// WithSpeed sets the playback speed requested from the backend
func WithSpeed(speed float32) ClientOption {
	return func(c *Client) { c.speed = speed }
}

// WithMaxRetries sets how many times a retryable failure is retried
func WithMaxRetries(n int) ClientOption {
	return func(c *Client) {
		if n >= 0 {
			c.maxRetries = uint(n)
		}
	}
}

// WithBackOff replaces the retry schedule
func WithBackOff(newBackOff func() backoff.BackOff) ClientOption {
	return func(c *Client) {
		if newBackOff != nil {
			c.newBackOff = newBackOff
		}
	}
}

// WithClientLogger sets the logger used to report retries
func WithClientLogger(logger *zap.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient wraps an initialized engine
func NewClient(engine Engine, opts ...ClientOption) *Client {
	c := &Client{
		engine:     engine,
		maxRetries: 2,
		newBackOff: defaultBackOff,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func defaultBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 10 * time.Second
	return b
}

// Engine returns the wrapped engine
func (c *Client) Engine() Engine {
	return c.engine
}

// Synthesize returns the complete encoded audio for text
func (c *Client) Synthesize(ctx context.Context, text string) ([]byte, error) {
	attempt := 0
	op := func() ([]byte, error) {
		attempt++
		var buf bytes.Buffer
		err := c.engine.Synthesize(ctx, SynthesizeRequest{
			Text:  text,
			Voice: c.voice,
			Speed: c.speed,
		}, func(chunk AudioChunk) error {
			_, err := buf.Write(chunk.Data)
			return err
		})
		if err != nil {
			if IsRetryable(err) {
				return nil, err
			}
			return nil, backoff.Permanent(err)
		}
		return buf.Bytes(), nil
	}

	data, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(c.newBackOff()),
		backoff.WithMaxTries(c.maxRetries+1),
		backoff.WithNotify(func(err error, wait time.Duration) {
			c.logger.Warn("retrying synthesis",
				zap.String("provider", c.engine.Name()),
				zap.Int("attempt", attempt),
				zap.Duration("wait", wait),
				zap.Error(err))
		}),
	)
	var permanent *backoff.PermanentError
	if errors.As(err, &permanent) {
		err = permanent.Unwrap()
	}
	return data, err
}

// Format returns the file extension of the engine's audio
func (c *Client) Format() string {
	return c.engine.Format()
}
