// Package pipeline turns an ordered list of chunks into an ordered list of
// synthesized audio artifacts, persisting each one as soon as it is ready
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/emmett/readtome/internal/chunk"
)

// ErrEmptyAudio is returned when the synthesizer produced no bytes for a chunk
var ErrEmptyAudio = errors.New("synthesizer returned no audio")

// ErrNoArtifacts is returned by Assemble when there is nothing to assemble
var ErrNoArtifacts = errors.New("no artifacts to assemble")

// Synthesizer converts one piece of text into encoded audio
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// ArtifactSink persists artifacts as they are produced
type ArtifactSink interface {
	SavePart(index int, data []byte) (string, error)
	SaveCombined(data []byte) (string, error)
}

// Combiner merges encoded audio parts into a single stream
type Combiner interface {
	Concatenate(parts [][]byte) ([]byte, error)
}

// Metrics receives one observation per synthesis call
type Metrics interface {
	ObserveSynthesis(chars int, elapsed time.Duration, err error)
}

// Artifact is the synthesized audio of one chunk
type Artifact struct {
	Index int
	Data  []byte
	// Name is the persisted file name; empty when no sink is configured
	Name string
}

// Assembly is the final audio of a run
type Assembly struct {
	Data     []byte
	Name     string
	Combined bool
}

// SynthesisError identifies the chunk whose synthesis failed
type SynthesisError struct {
	Index int
	Err   error
}

func (e *SynthesisError) Error() string {
	return fmt.Sprintf("failed to synthesize chunk %d: %v", e.Index, e.Err)
}

func (e *SynthesisError) Unwrap() error {
	return e.Err
}

// Config holds orchestration settings
type Config struct {
	// Concurrency is the number of chunks synthesized at once; 1 is sequential
	Concurrency int
	// RequestsPerSecond throttles synthesis calls; 0 disables throttling
	RequestsPerSecond float64
}

// Observer is notified after each artifact is produced and persisted
type Observer func(done, total int, a Artifact)

// Orchestrator drives synthesis over a list of chunks
type Orchestrator struct {
	synth       Synthesizer
	sink        ArtifactSink
	combiner    Combiner
	limiter     *rate.Limiter
	concurrency int
	metrics     Metrics
	observer    Observer
	logger      *zap.Logger
}

// Option configures an Orchestrator
type Option func(*Orchestrator)

// WithSink sets where artifacts are persisted
func WithSink(sink ArtifactSink) Option {
	return func(o *Orchestrator) { o.sink = sink }
}

// WithCombiner sets how multiple artifacts are merged
func WithCombiner(c Combiner) Option {
	return func(o *Orchestrator) { o.combiner = c }
}

// WithMetrics sets the metrics receiver
func WithMetrics(m Metrics) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

// WithObserver sets a progress callback
func WithObserver(fn Observer) Option {
	return func(o *Orchestrator) { o.observer = fn }
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// New creates an Orchestrator
func New(synth Synthesizer, cfg Config, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		synth:       synth,
		concurrency: cfg.Concurrency,
		logger:      zap.NewNop(),
	}
	if o.concurrency < 1 {
		o.concurrency = 1
	}
	if cfg.RequestsPerSecond > 0 {
		o.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// SynthesizeAll synthesizes every chunk and returns the artifacts in chunk
// order. On the first failure, chunks that have not started are skipped and
// the artifacts completed so far are returned with the error. Chunks already
// in flight run to completion under ctx so their audio is kept
func (o *Orchestrator) SynthesizeAll(ctx context.Context, chunks []chunk.Chunk) ([]Artifact, error) {
	slots := make([]*Artifact, len(chunks))
	total := len(chunks)

	var (
		mu   sync.Mutex
		done int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.concurrency)

	for i := range chunks {
		if gctx.Err() != nil {
			break
		}
		c := chunks[i]
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			a, err := o.produce(gctx, ctx, c)
			if err != nil || a == nil {
				return err
			}
			slots[i] = a
			if o.observer != nil {
				mu.Lock()
				done++
				o.observer(done, total, *a)
				mu.Unlock()
			}
			return nil
		})
	}

	waitErr := g.Wait()

	artifacts := make([]Artifact, 0, total)
	for _, a := range slots {
		if a != nil {
			artifacts = append(artifacts, *a)
		}
	}

	if waitErr != nil {
		return artifacts, waitErr
	}
	if err := ctx.Err(); err != nil && len(artifacts) < total {
		return artifacts, err
	}
	return artifacts, nil
}

// produce waits for its turn under startCtx, which ends on the first failure
// of the group, then synthesizes and saves under ctx
func (o *Orchestrator) produce(startCtx, ctx context.Context, c chunk.Chunk) (*Artifact, error) {
	if o.limiter != nil {
		if err := o.limiter.Wait(startCtx); err != nil {
			if startCtx.Err() != nil && ctx.Err() == nil {
				return nil, nil
			}
			return nil, &SynthesisError{Index: c.Index, Err: err}
		}
	}
	if startCtx.Err() != nil {
		return nil, nil
	}

	start := time.Now()
	data, err := o.synth.Synthesize(ctx, c.Text)
	if err == nil && len(data) == 0 {
		err = ErrEmptyAudio
	}
	if o.metrics != nil {
		o.metrics.ObserveSynthesis(c.Length, time.Since(start), err)
	}
	if err != nil {
		o.logger.Error("chunk synthesis failed", zap.Int("index", c.Index), zap.Error(err))
		return nil, &SynthesisError{Index: c.Index, Err: err}
	}

	a := &Artifact{Index: c.Index, Data: data}
	if o.sink != nil {
		name, err := o.sink.SavePart(c.Index, data)
		if err != nil {
			return nil, err
		}
		a.Name = name
	}

	o.logger.Debug("chunk synthesized",
		zap.Int("index", c.Index),
		zap.Int("chars", c.Length),
		zap.Int("bytes", len(data)),
		zap.Duration("elapsed", time.Since(start)))
	return a, nil
}

// Assemble produces the final audio. A single artifact is used as is; more
// than one is concatenated and persisted as the combined file
func (o *Orchestrator) Assemble(ctx context.Context, artifacts []Artifact) (Assembly, error) {
	switch len(artifacts) {
	case 0:
		return Assembly{}, ErrNoArtifacts
	case 1:
		return Assembly{Data: artifacts[0].Data, Name: artifacts[0].Name}, nil
	}
	if err := ctx.Err(); err != nil {
		return Assembly{}, err
	}
	if o.combiner == nil {
		return Assembly{}, errors.New("no combiner configured")
	}

	parts := make([][]byte, len(artifacts))
	for i, a := range artifacts {
		parts[i] = a.Data
	}
	data, err := o.combiner.Concatenate(parts)
	if err != nil {
		return Assembly{}, fmt.Errorf("failed to combine parts: %w", err)
	}

	out := Assembly{Data: data, Combined: true}
	if o.sink != nil {
		name, err := o.sink.SaveCombined(data)
		if err != nil {
			return Assembly{}, err
		}
		out.Name = name
	}
	return out, nil
}
