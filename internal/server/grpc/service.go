package grpc

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/emmett/readtome/internal/app"
	"github.com/emmett/readtome/internal/chunk"
	"github.com/emmett/readtome/internal/config"
	"github.com/emmett/readtome/internal/document"
	"github.com/emmett/readtome/internal/normalize"
	"github.com/emmett/readtome/internal/pipeline"
	"github.com/emmett/readtome/internal/run"
	"github.com/emmett/readtome/internal/tts"
)

// TextReader runs text through the full read-aloud flow
type TextReader interface {
	ReadText(ctx context.Context, text string) (string, run.Record, error)
}

// ReaderService implements ReaderServer
type ReaderService struct {
	reader     TextReader
	synth      pipeline.Synthesizer
	normalizer *normalize.Normalizer
	maxChars   int
	logger     *zap.Logger
}

// NewReaderService creates the service. synth is used by Synthesize and
// may be nil, in which case that method is unavailable
func NewReaderService(reader TextReader, synth pipeline.Synthesizer, maxChars int, logger *zap.Logger) *ReaderService {
	if maxChars <= 0 {
		maxChars = chunk.DefaultMaxChars
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReaderService{
		reader:     reader,
		synth:      synth,
		normalizer: normalize.New(normalize.WithLogger(logger)),
		maxChars:   maxChars,
		logger:     logger,
	}
}

// Normalize rewrites references in text into speakable phrases
func (s *ReaderService) Normalize(ctx context.Context, req *wrapperspb.StringValue) (*wrapperspb.StringValue, error) {
	return wrapperspb.String(s.normalizer.Normalize(req.GetValue())), nil
}

// Chunk splits the "text" field into chunks of at most "max_chars" runes
func (s *ReaderService) Chunk(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	fields := req.GetFields()
	text := fields["text"].GetStringValue()
	max := s.maxChars
	if v, ok := fields["max_chars"]; ok {
		max = int(v.GetNumberValue())
	}

	res, err := chunk.Split(text, max)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	chunks := make([]any, len(res.Chunks))
	for i, c := range res.Chunks {
		chunks[i] = map[string]any{
			"index":  c.Index,
			"text":   c.Text,
			"length": c.Length,
			"forced": c.Forced,
		}
	}
	out, err := structpb.NewStruct(map[string]any{
		"chunks":    chunks,
		"overflows": len(res.Overflows),
	})
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}

// Read synthesizes, saves and records text
func (s *ReaderService) Read(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	dir, rec, err := s.reader.ReadText(ctx, req.GetValue())
	if err != nil {
		s.logger.Warn("read failed", zap.Error(err))
		return nil, toStatus(err)
	}

	files := make([]any, len(rec.Files))
	for i, f := range rec.Files {
		files[i] = f
	}
	out, err := structpb.NewStruct(map[string]any{
		"id":          rec.ID,
		"dir":         dir,
		"files":       files,
		"chunks":      len(rec.Chunks),
		"text_length": rec.TextLength,
		"complete":    rec.Complete,
	})
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}

// Synthesize normalizes and chunks text, then streams each chunk's audio
// in order without persisting it
func (s *ReaderService) Synthesize(req *wrapperspb.StringValue, stream grpc.ServerStreamingServer[wrapperspb.BytesValue]) error {
	if s.synth == nil {
		return status.Error(codes.Unimplemented, "synthesis is not configured")
	}
	text := req.GetValue()
	if strings.TrimSpace(text) == "" {
		return status.Error(codes.InvalidArgument, app.ErrEmptyInput.Error())
	}

	res, err := chunk.Split(s.normalizer.Normalize(text), s.maxChars)
	if err != nil {
		return status.Error(codes.InvalidArgument, err.Error())
	}

	ctx := stream.Context()
	for _, c := range res.Chunks {
		data, err := s.synth.Synthesize(ctx, c.Text)
		if err != nil {
			return toStatus(&pipeline.SynthesisError{Index: c.Index, Err: err})
		}
		if err := stream.Send(wrapperspb.Bytes(data)); err != nil {
			return err
		}
	}
	return nil
}

// toStatus maps run errors onto gRPC codes
func toStatus(err error) error {
	code := codes.Internal
	switch {
	case errors.Is(err, context.Canceled):
		code = codes.Canceled
	case errors.Is(err, context.DeadlineExceeded):
		code = codes.DeadlineExceeded
	case errors.Is(err, app.ErrEmptyInput), errors.Is(err, document.ErrEmptyDocument):
		code = codes.InvalidArgument
	case errors.Is(err, config.ErrMissingAPIKey):
		code = codes.FailedPrecondition
	case errors.Is(err, tts.ErrAuth):
		code = codes.Unauthenticated
	case errors.Is(err, tts.ErrQuotaExceeded), errors.Is(err, tts.ErrRateLimited):
		code = codes.ResourceExhausted
	case errors.Is(err, tts.ErrNetwork):
		code = codes.Unavailable
	default:
		if stage, ok := app.StageOf(err); ok && stage == app.StageInput {
			code = codes.InvalidArgument
		}
	}
	return status.Error(code, err.Error())
}
