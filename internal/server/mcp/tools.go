package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"
)

type ReadAloudArgs struct {
	Text string `json:"text" jsonschema:"the text to read aloud"`
}

type ReadAloudResult struct {
	ID       string   `json:"id"`
	Dir      string   `json:"dir"`
	Files    []string `json:"files"`
	Chunks   int      `json:"chunks"`
	Complete bool     `json:"complete"`
}

type NormalizeArgs struct {
	Text string `json:"text" jsonschema:"the text to normalize"`
}

type NormalizeResult struct {
	Text        string   `json:"text"`
	Ambiguities []string `json:"ambiguities,omitempty"`
}

type ListVoicesArgs struct{}

func (s *Server) handleReadAloud(ctx context.Context, req *sdk.CallToolRequest, args ReadAloudArgs) (*sdk.CallToolResult, ReadAloudResult, error) {
	if strings.TrimSpace(args.Text) == "" {
		return nil, ReadAloudResult{}, errors.New("text is empty")
	}

	dir, rec, err := s.reader.ReadText(ctx, args.Text)
	if err != nil {
		s.logger.Warn("read_aloud failed", zap.Error(err))
		return nil, ReadAloudResult{}, fmt.Errorf("read failed: %w", err)
	}

	out := ReadAloudResult{
		ID:       rec.ID,
		Dir:      dir,
		Files:    rec.Files,
		Chunks:   len(rec.Chunks),
		Complete: rec.Complete,
	}
	return &sdk.CallToolResult{
		Content: []sdk.Content{
			&sdk.TextContent{Text: fmt.Sprintf("Read %d chunk(s); saved %d file(s) to %s", out.Chunks, len(out.Files), dir)},
		},
	}, out, nil
}

func (s *Server) handleNormalizeText(ctx context.Context, req *sdk.CallToolRequest, args NormalizeArgs) (*sdk.CallToolResult, NormalizeResult, error) {
	text, ambiguities := s.normalizer.Rewrite(args.Text)

	out := NormalizeResult{Text: text}
	content := []sdk.Content{&sdk.TextContent{Text: text}}
	for _, a := range ambiguities {
		note := fmt.Sprintf("%s (%s)", a.Token, a.Reason)
		out.Ambiguities = append(out.Ambiguities, note)
		content = append(content, &sdk.TextContent{Text: "Left unchanged: " + note})
	}
	return &sdk.CallToolResult{Content: content}, out, nil
}

func (s *Server) handleListVoices(ctx context.Context, req *sdk.CallToolRequest, args ListVoicesArgs) (*sdk.CallToolResult, any, error) {
	voices, err := s.voices.ListVoices(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list voices: %w", err)
	}

	content := []sdk.Content{
		&sdk.TextContent{Text: fmt.Sprintf("Available voices (%d):", len(voices))},
	}
	for _, v := range voices {
		content = append(content, &sdk.TextContent{Text: fmt.Sprintf("- %s (%s)", v.Name, v.ID)})
	}
	return &sdk.CallToolResult{Content: content}, nil, nil
}
