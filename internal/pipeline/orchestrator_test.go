package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emmett/readtome/internal/chunk"
	"github.com/emmett/readtome/internal/storage"
)

type fakeSynth struct {
	failAt map[string]error
	delay  func(text string) time.Duration
	calls  atomic.Int32

	mu     sync.Mutex
	active int
	peak   int
}

func (f *fakeSynth) Synthesize(ctx context.Context, text string) ([]byte, error) {
	f.calls.Add(1)

	f.mu.Lock()
	f.active++
	if f.active > f.peak {
		f.peak = f.active
	}
	f.mu.Unlock()
	defer func() {
		f.mu.Lock()
		f.active--
		f.mu.Unlock()
	}()

	if f.delay != nil {
		select {
		case <-time.After(f.delay(text)):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err, ok := f.failAt[text]; ok {
		return nil, err
	}
	return []byte("audio:" + text), nil
}

type joinCombiner struct{}

func (joinCombiner) Concatenate(parts [][]byte) ([]byte, error) {
	return bytes.Join(parts, []byte("|")), nil
}

type recordingMetrics struct {
	mu       sync.Mutex
	chars    int
	failures int
}

func (m *recordingMetrics) ObserveSynthesis(chars int, _ time.Duration, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.chars += chars
	if err != nil {
		m.failures++
	}
}

func makeChunks(texts ...string) []chunk.Chunk {
	chunks := make([]chunk.Chunk, len(texts))
	for i, t := range texts {
		chunks[i] = chunk.Chunk{Index: i, Text: t, Length: len(t)}
	}
	return chunks
}

func newRunDir(t *testing.T) *storage.RunDir {
	t.Helper()
	d, err := storage.Create(t.TempDir(), time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC), "mp3")
	require.NoError(t, err)
	return d
}

func TestSynthesizeAllSequential(t *testing.T) {
	dir := newRunDir(t)
	metrics := &recordingMetrics{}
	var progress []int

	o := New(&fakeSynth{}, Config{}, WithSink(dir), WithMetrics(metrics),
		WithObserver(func(done, total int, a Artifact) {
			assert.Equal(t, 3, total)
			progress = append(progress, a.Index)
		}))

	artifacts, err := o.SynthesizeAll(context.Background(), makeChunks("one", "two", "three"))
	require.NoError(t, err)
	require.Len(t, artifacts, 3)

	for i, a := range artifacts {
		assert.Equal(t, i, a.Index)
		assert.Equal(t, fmt.Sprintf("part_%03d.mp3", i), a.Name)
		assert.FileExists(t, filepath.Join(dir.Path(), a.Name))
	}
	assert.Equal(t, []int{0, 1, 2}, progress)
	assert.Equal(t, 11, metrics.chars)
}

func TestSynthesizeAllFailureKeepsEarlierParts(t *testing.T) {
	dir := newRunDir(t)
	boom := errors.New("backend exploded")
	synth := &fakeSynth{failAt: map[string]error{"third": boom}}
	metrics := &recordingMetrics{}

	o := New(synth, Config{Concurrency: 1}, WithSink(dir), WithCombiner(joinCombiner{}), WithMetrics(metrics))

	artifacts, err := o.SynthesizeAll(context.Background(), makeChunks("first", "second", "third"))
	require.Error(t, err)

	var se *SynthesisError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, 2, se.Index)
	assert.ErrorIs(t, err, boom)

	require.Len(t, artifacts, 2)
	assert.FileExists(t, filepath.Join(dir.Path(), "part_000.mp3"))
	assert.FileExists(t, filepath.Join(dir.Path(), "part_001.mp3"))
	assert.NoFileExists(t, filepath.Join(dir.Path(), "part_002.mp3"))
	assert.NoFileExists(t, filepath.Join(dir.Path(), "combined.mp3"))
	assert.Equal(t, 1, metrics.failures)
}

func TestSynthesizeAllSkipsChunksAfterFailure(t *testing.T) {
	synth := &fakeSynth{failAt: map[string]error{"a": errors.New("nope")}}
	o := New(synth, Config{Concurrency: 1})

	artifacts, err := o.SynthesizeAll(context.Background(), makeChunks("a", "b", "c", "d"))
	require.Error(t, err)
	assert.Empty(t, artifacts)
	assert.Equal(t, int32(1), synth.calls.Load())
}

func TestSynthesizeAllConcurrentPreservesOrder(t *testing.T) {
	texts := []string{"slowest", "slow", "fast", "fastest", "mid"}
	delays := map[string]time.Duration{
		"slowest": 40 * time.Millisecond,
		"slow":    30 * time.Millisecond,
		"fast":    5 * time.Millisecond,
		"fastest": time.Millisecond,
		"mid":     15 * time.Millisecond,
	}
	synth := &fakeSynth{delay: func(text string) time.Duration { return delays[text] }}
	dir := newRunDir(t)

	o := New(synth, Config{Concurrency: 3}, WithSink(dir))
	artifacts, err := o.SynthesizeAll(context.Background(), makeChunks(texts...))
	require.NoError(t, err)
	require.Len(t, artifacts, len(texts))

	for i, a := range artifacts {
		assert.Equal(t, i, a.Index)
		assert.Equal(t, "audio:"+texts[i], string(a.Data))
	}
	assert.LessOrEqual(t, synth.peak, 3)
	assert.Greater(t, synth.peak, 1)
}

func TestSynthesizeAllConcurrentFailure(t *testing.T) {
	synth := &fakeSynth{
		failAt: map[string]error{"bad": errors.New("rejected")},
		delay: func(text string) time.Duration {
			if text == "bad" {
				return 0
			}
			return 20 * time.Millisecond
		},
	}
	o := New(synth, Config{Concurrency: 2})

	chunks := makeChunks("ok0", "bad", "ok2", "ok3", "ok4", "ok5")
	_, err := o.SynthesizeAll(context.Background(), chunks)

	var se *SynthesisError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, 1, se.Index)
	assert.Less(t, int(synth.calls.Load()), len(chunks))
}

// inFlightSynth fails "bad" only once "slow" is running, then holds "slow"
// until its context ends or the hold elapses
type inFlightSynth struct {
	started chan struct{}
	hold    time.Duration
}

func (s *inFlightSynth) Synthesize(ctx context.Context, text string) ([]byte, error) {
	switch text {
	case "slow":
		close(s.started)
		select {
		case <-time.After(s.hold):
			return []byte("audio:slow"), nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	case "bad":
		<-s.started
		return nil, errors.New("rejected")
	}
	return []byte("audio:" + text), nil
}

func TestSynthesizeAllFailureKeepsInFlightChunks(t *testing.T) {
	synth := &inFlightSynth{started: make(chan struct{}), hold: 50 * time.Millisecond}
	dir := newRunDir(t)
	o := New(synth, Config{Concurrency: 2}, WithSink(dir))

	artifacts, err := o.SynthesizeAll(context.Background(), makeChunks("slow", "bad", "never"))

	var se *SynthesisError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, 1, se.Index)

	require.Len(t, artifacts, 1)
	assert.Equal(t, 0, artifacts[0].Index)
	assert.Equal(t, "audio:slow", string(artifacts[0].Data))
	assert.FileExists(t, filepath.Join(dir.Path(), "part_000.mp3"))
	assert.NoFileExists(t, filepath.Join(dir.Path(), "part_002.mp3"))
}

func TestSynthesizeAllCancelStopsInFlightChunks(t *testing.T) {
	synth := &inFlightSynth{started: make(chan struct{}), hold: time.Minute}
	o := New(synth, Config{Concurrency: 1})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-synth.started
		cancel()
	}()

	artifacts, err := o.SynthesizeAll(ctx, makeChunks("slow", "next"))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, artifacts)
}

func TestSynthesizeAllRespectsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	synth := &fakeSynth{}
	artifacts, err := New(synth, Config{}).SynthesizeAll(ctx, makeChunks("a", "b"))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, artifacts)
	assert.Zero(t, synth.calls.Load())
}

func TestSynthesizeAllEmptyAudio(t *testing.T) {
	o := New(emptySynth{}, Config{})
	_, err := o.SynthesizeAll(context.Background(), makeChunks("x"))
	assert.ErrorIs(t, err, ErrEmptyAudio)
}

type emptySynth struct{}

func (emptySynth) Synthesize(context.Context, string) ([]byte, error) { return nil, nil }

func TestSynthesizeAllRateLimited(t *testing.T) {
	o := New(&fakeSynth{}, Config{RequestsPerSecond: 20})

	start := time.Now()
	_, err := o.SynthesizeAll(context.Background(), makeChunks("a", "b", "c"))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 90*time.Millisecond)
}

func TestSynthesizeAllPersistenceFailure(t *testing.T) {
	dir := newRunDir(t)
	require.NoError(t, os.RemoveAll(dir.Path()))

	_, err := New(&fakeSynth{}, Config{}, WithSink(dir)).SynthesizeAll(context.Background(), makeChunks("a"))

	var pe *storage.PathError
	assert.True(t, errors.As(err, &pe))
	var se *SynthesisError
	assert.False(t, errors.As(err, &se))
}

func TestAssemble(t *testing.T) {
	dir := newRunDir(t)
	o := New(&fakeSynth{}, Config{}, WithSink(dir), WithCombiner(joinCombiner{}))

	single, err := o.Assemble(context.Background(), []Artifact{{Index: 0, Data: []byte("only"), Name: "part_000.mp3"}})
	require.NoError(t, err)
	assert.False(t, single.Combined)
	assert.Equal(t, "part_000.mp3", single.Name)
	assert.NoFileExists(t, filepath.Join(dir.Path(), "combined.mp3"))

	multi, err := o.Assemble(context.Background(), []Artifact{
		{Index: 0, Data: []byte("a")},
		{Index: 1, Data: []byte("b")},
	})
	require.NoError(t, err)
	assert.True(t, multi.Combined)
	assert.Equal(t, "combined.mp3", multi.Name)

	data, err := os.ReadFile(filepath.Join(dir.Path(), "combined.mp3"))
	require.NoError(t, err)
	assert.Equal(t, "a|b", string(data))

	_, err = o.Assemble(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNoArtifacts)
}
