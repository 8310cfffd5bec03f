package app

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/emmett/readtome/internal/audio"
	"github.com/emmett/readtome/internal/chunk"
	"github.com/emmett/readtome/internal/document"
	"github.com/emmett/readtome/internal/metrics"
	"github.com/emmett/readtome/internal/normalize"
	"github.com/emmett/readtome/internal/output"
	"github.com/emmett/readtome/internal/pipeline"
	"github.com/emmett/readtome/internal/run"
	"github.com/emmett/readtome/internal/storage"
)

// Input origins
const (
	OriginFlag   = "flag"
	OriginPasted = "pasted"
	OriginAPI    = "api"
)

// Input is the raw text of a run and where it came from
type Input struct {
	Text   string
	Origin string
}

// InputFromFile extracts the text of a .txt, .md or .docx file
func InputFromFile(path string) (Input, error) {
	text, err := document.Extract(path)
	if err != nil {
		return Input{}, &Error{Stage: StageInput, Err: err}
	}
	return Input{Text: text, Origin: "file:" + path}, nil
}

// Synthesizer produces the audio of one chunk; *tts.Client satisfies it
type Synthesizer interface {
	pipeline.Synthesizer
	// Format is the audio file extension, e.g. "mp3"
	Format() string
}

// ReaderConfig holds the settings of a run
type ReaderConfig struct {
	MaxChars          int
	OutputDir         string
	Concurrency       int
	RequestsPerSecond float64

	// Play plays the final audio after it is saved
	Play bool
	// StopHotkey labels the stop trigger in the playback prompt
	StopHotkey string
}

// DefaultReaderConfig returns sequential synthesis into ./output
func DefaultReaderConfig() ReaderConfig {
	return ReaderConfig{
		MaxChars:    chunk.DefaultMaxChars,
		OutputDir:   "output",
		Concurrency: 1,
	}
}

// Result describes a finished run
type Result struct {
	Record   run.Record
	Dir      string
	Parts    []string
	Combined string
	Warnings []string
	// PlaybackErr is set when the audio was saved but could not be played
	PlaybackErr error
}

// StopTrigger arranges for stop to be called when the user asks playback to
// end. The returned cancel func releases whatever the trigger holds
type StopTrigger func(ctx context.Context, stop func()) (cancel func(), err error)

// Reader runs the whole read-aloud flow: normalize, chunk, synthesize,
// persist, record and play
type Reader struct {
	config     ReaderConfig
	synth      Synthesizer
	normalizer *normalize.Normalizer
	recorder   *run.Recorder
	combiner   pipeline.Combiner
	player     audio.Player
	metrics    *metrics.Collector
	formatter  output.Formatter
	trigger    StopTrigger
	logger     *zap.Logger
	now        func() time.Time
}

// ReaderOption configures a Reader
type ReaderOption func(*Reader)

// WithNormalizer replaces the default normalizer
func WithNormalizer(n *normalize.Normalizer) ReaderOption {
	return func(r *Reader) { r.normalizer = n }
}

// WithRecorder replaces the default run recorder
func WithRecorder(rec *run.Recorder) ReaderOption {
	return func(r *Reader) { r.recorder = rec }
}

// WithCombiner replaces the MP3 combiner
func WithCombiner(c pipeline.Combiner) ReaderOption {
	return func(r *Reader) { r.combiner = c }
}

// WithPlayer sets the audio player used when Play is enabled
func WithPlayer(p audio.Player) ReaderOption {
	return func(r *Reader) { r.player = p }
}

// WithMetrics sets the metrics collector
func WithMetrics(c *metrics.Collector) ReaderOption {
	return func(r *Reader) { r.metrics = c }
}

// WithFormatter sets where progress and warnings are reported
func WithFormatter(f output.Formatter) ReaderOption {
	return func(r *Reader) { r.formatter = f }
}

// WithStopTrigger sets how playback is interrupted by the user
func WithStopTrigger(t StopTrigger) ReaderOption {
	return func(r *Reader) { r.trigger = t }
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) ReaderOption {
	return func(r *Reader) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewReader creates a Reader around synth
func NewReader(synth Synthesizer, config ReaderConfig, opts ...ReaderOption) *Reader {
	if config.MaxChars == 0 {
		config.MaxChars = chunk.DefaultMaxChars
	}
	if config.OutputDir == "" {
		config.OutputDir = "output"
	}
	r := &Reader{
		config:   config,
		synth:    synth,
		recorder: run.NewRecorder(),
		combiner: audio.MP3Combiner{},
		logger:   zap.NewNop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.normalizer == nil {
		r.normalizer = normalize.New(normalize.WithLogger(r.logger))
	}
	return r
}

// Run reads in aloud. Errors are *Error values naming the failed stage.
// A playback failure is not an error: it is reported in Result.PlaybackErr
func (r *Reader) Run(ctx context.Context, in Input) (*Result, error) {
	start := r.now()
	res, err := r.run(ctx, in)
	r.metrics.ObserveRun(r.now().Sub(start), err)
	if err != nil {
		r.logger.Error("run failed", zap.String("origin", in.Origin), zap.Error(err))
		return res, err
	}
	return res, nil
}

func (r *Reader) run(ctx context.Context, in Input) (*Result, error) {
	if strings.TrimSpace(in.Text) == "" {
		return nil, &Error{Stage: StageInput, Err: ErrEmptyInput}
	}
	if r.synth == nil {
		return nil, &Error{Stage: StageConfiguration, Err: errors.New("no synthesizer configured")}
	}

	result := &Result{}
	h := r.recorder.Begin(in.Text)
	log := r.logger.With(zap.String("run", h.ID()))

	normalized, ambiguities := r.normalizer.Rewrite(in.Text)
	for _, a := range ambiguities {
		msg := fmt.Sprintf("left %q unchanged: %s", a.Token, a.Reason)
		log.Warn("left ambiguous reference unchanged",
			zap.String("token", a.Token), zap.Int("start", a.Start), zap.String("reason", a.Reason))
		r.warn(result, msg)
	}
	r.metrics.ObserveAmbiguities(len(ambiguities))

	split, err := chunk.Split(normalized, r.config.MaxChars)
	if err != nil {
		return nil, &Error{Stage: StageConfiguration, Err: err}
	}
	for _, o := range split.Overflows {
		log.Warn("chunk split inside a word",
			zap.Int("index", o.Index), zap.Int("token_length", o.TokenLength), zap.Int("max", o.Max))
		r.warn(result, fmt.Sprintf("chunk %d was split inside a %d-character word", o.Index, o.TokenLength))
	}
	r.metrics.ObserveChunking(len(split.Chunks), len(split.Overflows))
	h.SetChunks(split.Texts())
	log.Info("input prepared",
		zap.String("origin", in.Origin),
		zap.Int("chars", h.Record().TextLength),
		zap.Int("chunks", len(split.Chunks)))

	dir, err := storage.Create(r.config.OutputDir, h.Timestamp(), r.synth.Format())
	if err != nil {
		return nil, &Error{Stage: StagePersistence, Err: err}
	}
	result.Dir = dir.Path()

	total := len(split.Chunks)
	orch := pipeline.New(r.synth,
		pipeline.Config{
			Concurrency:       r.config.Concurrency,
			RequestsPerSecond: r.config.RequestsPerSecond,
		},
		pipeline.WithSink(dir),
		pipeline.WithCombiner(r.combiner),
		pipeline.WithMetrics(r.metrics),
		pipeline.WithLogger(log),
		pipeline.WithObserver(func(_, _ int, a pipeline.Artifact) {
			if r.formatter != nil {
				_ = r.formatter.WritePart(output.PartResult{
					Index: a.Index,
					Total: total,
					File:  a.Name,
					Bytes: len(a.Data),
				})
			}
		}),
	)

	artifacts, err := orch.SynthesizeAll(ctx, split.Chunks)
	result.Parts = artifactNames(artifacts)
	if err != nil {
		return result, r.abort(h, result, dir, log, stageError(failureStage(err, StageSynthesis), err))
	}

	assembly, err := orch.Assemble(ctx, artifacts)
	if err != nil {
		return result, r.abort(h, result, dir, log, stageError(failureStage(err, StageAssembly), err))
	}
	if assembly.Combined {
		result.Combined = assembly.Name
	}

	if err := r.finalize(h, result, true, dir, log); err != nil {
		return result, &Error{Stage: StagePersistence, Err: err}
	}

	if r.formatter != nil {
		_ = r.formatter.WriteSummary(output.Summary{
			ID:       result.Record.ID,
			Dir:      result.Dir,
			Files:    result.Record.Files,
			Combined: combinedPath(result),
			Chunks:   total,
			Complete: true,
			Warnings: len(result.Warnings),
		})
	}

	if r.config.Play && r.player != nil {
		if err := r.play(ctx, assembly.Data, log); err != nil {
			result.PlaybackErr = &Error{Stage: StagePlayback, Err: err}
			log.Warn("playback failed", zap.Error(err))
			r.event(output.EventPlayback, "playback failed: "+err.Error())
		}
	}
	return result, nil
}

// abort records an incomplete run. A metadata write failure is joined to
// cause, which keeps its stage
func (r *Reader) abort(h *run.Handle, result *Result, dir *storage.RunDir, log *zap.Logger, cause error) error {
	ferr := r.finalize(h, result, false, dir, log)
	if ferr == nil {
		return cause
	}
	r.warn(result, "run metadata not saved: "+ferr.Error())
	return errors.Join(cause, &Error{Stage: StagePersistence, Err: ferr})
}

// finalize freezes the record with the files written so far
func (r *Reader) finalize(h *run.Handle, result *Result, complete bool, dir *storage.RunDir, log *zap.Logger) error {
	files := append([]string{}, result.Parts...)
	if result.Combined != "" {
		files = append(files, result.Combined)
	}
	rec, err := r.recorder.Finalize(h, files, complete, dir)
	result.Record = rec
	if err != nil {
		log.Error("failed to write run metadata", zap.Error(err))
		return err
	}
	log.Info("run recorded",
		zap.String("dir", result.Dir),
		zap.Int("files", len(files)),
		zap.Bool("complete", complete))
	return nil
}

func (r *Reader) play(ctx context.Context, data []byte, log *zap.Logger) error {
	if r.trigger != nil {
		cancel, err := r.trigger(ctx, r.player.Stop)
		switch {
		case err != nil:
			log.Warn("stop trigger unavailable", zap.String("hotkey", r.config.StopHotkey), zap.Error(err))
		case r.config.StopHotkey != "":
			r.event(output.EventInfo, fmt.Sprintf("Playing. Press %s to stop.", r.config.StopHotkey))
		}
		if cancel != nil {
			defer cancel()
		}
	}

	err := r.player.Play(ctx, data)
	if err == nil || errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (r *Reader) warn(result *Result, msg string) {
	result.Warnings = append(result.Warnings, msg)
	r.event(output.EventWarning, msg)
}

func (r *Reader) event(eventType, msg string) {
	if r.formatter != nil {
		_ = r.formatter.WriteEvent(eventType, msg)
	}
}

// ReadText runs text and returns the run directory and its record
func (r *Reader) ReadText(ctx context.Context, text string) (string, run.Record, error) {
	res, err := r.Run(ctx, Input{Text: text, Origin: OriginAPI})
	if res == nil {
		return "", run.Record{}, err
	}
	return res.Dir, res.Record, err
}

// failureStage maps orchestrator errors to the stage that produced them;
// filesystem errors are persistence failures whatever step hit them
func failureStage(err error, step Stage) Stage {
	var pathErr *storage.PathError
	if errors.As(err, &pathErr) {
		return StagePersistence
	}
	return step
}

func artifactNames(artifacts []pipeline.Artifact) []string {
	names := make([]string, 0, len(artifacts))
	for _, a := range artifacts {
		if a.Name != "" {
			names = append(names, a.Name)
		}
	}
	return names
}

func combinedPath(result *Result) string {
	if result.Combined == "" {
		return ""
	}
	return filepath.Join(result.Dir, result.Combined)
}
