// Package mcp exposes the reader as Model Context Protocol tools over stdio
package mcp

import (
	"context"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/emmett/readtome/internal/normalize"
	"github.com/emmett/readtome/internal/run"
	"github.com/emmett/readtome/internal/tts"
)

// TextReader runs text through the full read-aloud flow and returns the
// run directory with its record
type TextReader interface {
	ReadText(ctx context.Context, text string) (string, run.Record, error)
}

// VoiceLister lists the voices of the configured provider
type VoiceLister interface {
	ListVoices(ctx context.Context) ([]tts.Voice, error)
}

type Config struct {
	ServerName    string
	ServerVersion string
}

type Server struct {
	config     Config
	mcpServer  *sdk.Server
	reader     TextReader
	voices     VoiceLister
	normalizer *normalize.Normalizer
	logger     *zap.Logger
}

type Option func(*Server)

// WithVoices enables the list_voices tool
func WithVoices(v VoiceLister) Option {
	return func(s *Server) { s.voices = v }
}

func WithNormalizer(n *normalize.Normalizer) Option {
	return func(s *Server) { s.normalizer = n }
}

func WithLogger(logger *zap.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func NewServer(cfg Config, reader TextReader, opts ...Option) *Server {
	s := &Server{
		config: cfg,
		reader: reader,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.normalizer == nil {
		s.normalizer = normalize.New(normalize.WithLogger(s.logger))
	}

	s.mcpServer = sdk.NewServer(&sdk.Implementation{
		Name:    cfg.ServerName,
		Version: cfg.ServerVersion,
	}, nil)

	s.registerTools()
	return s
}

// Run serves on stdin/stdout until ctx is done or the client disconnects
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &sdk.StdioTransport{})
}

// Connect serves a single session over transport
func (s *Server) Connect(ctx context.Context, transport sdk.Transport) (*sdk.ServerSession, error) {
	return s.mcpServer.Connect(ctx, transport, nil)
}

func (s *Server) registerTools() {
	sdk.AddTool(s.mcpServer, &sdk.Tool{
		Name:        "read_aloud",
		Description: "Convert text to speech, save the audio parts and play them",
	}, s.handleReadAloud)

	sdk.AddTool(s.mcpServer, &sdk.Tool{
		Name:        "normalize_text",
		Description: "Rewrite URLs, emails and domains in text into speakable phrases",
	}, s.handleNormalizeText)

	if s.voices != nil {
		sdk.AddTool(s.mcpServer, &sdk.Tool{
			Name:        "list_voices",
			Description: "List the voices offered by the speech provider",
		}, s.handleListVoices)
	}
}
