package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/emmett/readtome/internal/server/mcp"
)

// MCPHandler serves a Reader as MCP tools on stdio
type MCPHandler struct {
	reader    *Reader
	voices    mcp.VoiceLister
	version   string
	gitCommit string
	configArg string
	stderr    io.Writer
	logger    *zap.Logger
}

// NewMCPHandler creates a new MCP handler. voices may be nil.
// configPath is passed back to clients in the printed launch command
func NewMCPHandler(reader *Reader, voices mcp.VoiceLister, version, gitCommit, configPath string, logger *zap.Logger) *MCPHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MCPHandler{
		reader:    reader,
		voices:    voices,
		version:   version,
		gitCommit: gitCommit,
		configArg: configPath,
		stderr:    os.Stderr,
		logger:    logger,
	}
}

type mcpServerEntry struct {
	Type    string   `json:"type,omitempty"`
	Command string   `json:"command"`
	Args    []string `json:"args"`
}

type mcpClientConfig struct {
	MCPServers map[string]mcpServerEntry `json:"mcpServers"`
}

// clientConfig is the snippet an MCP client needs to launch this binary
func (h *MCPHandler) clientConfig() mcpClientConfig {
	execPath, err := os.Executable()
	if err != nil {
		execPath = "readtome-mcp"
	}
	var args []string
	if h.configArg != "" {
		args = append(args, "-config", h.configArg)
	}
	return mcpClientConfig{
		MCPServers: map[string]mcpServerEntry{
			"readtome": {Command: execPath, Args: args},
		},
	}
}

// Run serves until the client disconnects or the process is interrupted
func (h *MCPHandler) Run(ctx context.Context) error {
	fmt.Fprintf(h.stderr, "Starting MCP server...\n")
	fmt.Fprintf(h.stderr, "Protocol: Model Context Protocol (stdio transport)\n")
	fmt.Fprintf(h.stderr, "Version: %s (commit: %s)\n\n", h.version, h.gitCommit)

	if configJSON, err := json.MarshalIndent(h.clientConfig(), "", "  "); err == nil {
		fmt.Fprintf(h.stderr, "MCP Client Configuration:\n%s\n\n", configJSON)
	}

	var opts []mcp.Option
	opts = append(opts, mcp.WithLogger(h.logger))
	if h.voices != nil {
		opts = append(opts, mcp.WithVoices(h.voices))
	}
	server := mcp.NewServer(mcp.Config{
		ServerName:    "readtome",
		ServerVersion: h.version,
	}, h.reader, opts...)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(h.stderr, "MCP server ready. Listening on stdin/stdout...\n")
	fmt.Fprintf(h.stderr, "Press Ctrl+C to stop.\n\n")

	if err := server.Run(ctx); err != nil && ctx.Err() == nil {
		return fmt.Errorf("server error: %w", err)
	}
	fmt.Fprintf(h.stderr, "\nShutting down MCP server...\n")
	return nil
}
