package mcp

import (
	"context"
	"errors"
	"testing"
	"time"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emmett/readtome/internal/run"
	"github.com/emmett/readtome/internal/tts"
)

type fakeReader struct {
	got string
	err error
}

func (f *fakeReader) ReadText(ctx context.Context, text string) (string, run.Record, error) {
	f.got = text
	if f.err != nil {
		return "", run.Record{}, f.err
	}
	return "output/2025-01-02_03-04-05", run.Record{
		ID:        "run-1",
		Timestamp: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
		Text:      text,
		Chunks:    []string{"one", "two"},
		Files:     []string{"part_000.mp3", "part_001.mp3", "combined.mp3"},
		Complete:  true,
	}, nil
}

type fakeVoices struct{}

func (fakeVoices) ListVoices(ctx context.Context) ([]tts.Voice, error) {
	return []tts.Voice{{ID: "v1", Name: "Rachel"}, {ID: "v2", Name: "Adam"}}, nil
}

func connect(t *testing.T, s *Server) *sdk.ClientSession {
	t.Helper()
	ctx := context.Background()

	serverTransport, clientTransport := sdk.NewInMemoryTransports()
	ss, err := s.Connect(ctx, serverTransport)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ss.Close() })

	client := sdk.NewClient(&sdk.Implementation{Name: "test-client", Version: "v0.0.1"}, nil)
	cs, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = cs.Close() })
	return cs
}

func text(t *testing.T, res *sdk.CallToolResult, i int) string {
	t.Helper()
	require.Greater(t, len(res.Content), i)
	tc, ok := res.Content[i].(*sdk.TextContent)
	require.True(t, ok)
	return tc.Text
}

func TestListTools(t *testing.T) {
	cs := connect(t, NewServer(Config{ServerName: "readtome", ServerVersion: "test"}, &fakeReader{}, WithVoices(fakeVoices{})))

	res, err := cs.ListTools(context.Background(), nil)
	require.NoError(t, err)

	var names []string
	for _, tool := range res.Tools {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t, []string{"read_aloud", "normalize_text", "list_voices"}, names)
}

func TestListVoicesToolNeedsLister(t *testing.T) {
	cs := connect(t, NewServer(Config{ServerName: "readtome"}, &fakeReader{}))

	res, err := cs.ListTools(context.Background(), nil)
	require.NoError(t, err)
	assert.Len(t, res.Tools, 2)
}

func TestReadAloud(t *testing.T) {
	reader := &fakeReader{}
	cs := connect(t, NewServer(Config{ServerName: "readtome"}, reader))

	res, err := cs.CallTool(context.Background(), &sdk.CallToolParams{
		Name:      "read_aloud",
		Arguments: map[string]any{"text": "Hello there."},
	})
	require.NoError(t, err)
	require.False(t, res.IsError)

	assert.Equal(t, "Hello there.", reader.got)
	assert.Equal(t, "Read 2 chunk(s); saved 3 file(s) to output/2025-01-02_03-04-05", text(t, res, 0))
}

func TestReadAloudErrors(t *testing.T) {
	reader := &fakeReader{err: errors.New("synthesis: quota exceeded")}
	cs := connect(t, NewServer(Config{ServerName: "readtome"}, reader))

	res, err := cs.CallTool(context.Background(), &sdk.CallToolParams{
		Name:      "read_aloud",
		Arguments: map[string]any{"text": "Hello"},
	})
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, text(t, res, 0), "quota exceeded")

	res, err = cs.CallTool(context.Background(), &sdk.CallToolParams{
		Name:      "read_aloud",
		Arguments: map[string]any{"text": "   "},
	})
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestNormalizeText(t *testing.T) {
	cs := connect(t, NewServer(Config{ServerName: "readtome"}, &fakeReader{}))

	res, err := cs.CallTool(context.Background(), &sdk.CallToolParams{
		Name:      "normalize_text",
		Arguments: map[string]any{"text": "See https://github.com/user/repo"},
	})
	require.NoError(t, err)
	require.False(t, res.IsError)
	assert.Equal(t, "See GitHub at github dot com slash user slash repo", text(t, res, 0))
}

func TestListVoices(t *testing.T) {
	cs := connect(t, NewServer(Config{ServerName: "readtome"}, &fakeReader{}, WithVoices(fakeVoices{})))

	res, err := cs.CallTool(context.Background(), &sdk.CallToolParams{Name: "list_voices"})
	require.NoError(t, err)
	require.False(t, res.IsError)

	assert.Equal(t, "Available voices (2):", text(t, res, 0))
	assert.Equal(t, "- Rachel (v1)", text(t, res, 1))
}
