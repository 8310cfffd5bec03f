package grpc

import (
	"context"
	"fmt"
	"net"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
)

// Server wraps the gRPC server and the Reader service
type Server struct {
	grpcServer *grpc.Server
	port       int
	logger     *zap.Logger
}

// Config holds server configuration
type Config struct {
	Port   int
	Logger *zap.Logger
}

// NewServer creates a gRPC server with svc registered
func NewServer(cfg Config, svc ReaderServer, opts ...grpc.ServerOption) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	opts = append([]grpc.ServerOption{grpc.ChainUnaryInterceptor(loggingInterceptor(logger))}, opts...)
	s := &Server{
		grpcServer: grpc.NewServer(opts...),
		port:       cfg.Port,
		logger:     logger,
	}
	RegisterReaderServer(s.grpcServer, svc)
	return s
}

// Start listens on the configured port and serves until Stop
func (s *Server) Start() error {
	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", s.port))
	if err != nil {
		return fmt.Errorf("failed to listen on port %d: %w", s.port, err)
	}

	s.logger.Info("gRPC server listening", zap.Int("port", s.port))
	return s.Serve(lis)
}

// Serve serves on lis until Stop
func (s *Server) Serve(lis net.Listener) error {
	return s.grpcServer.Serve(lis)
}

// Stop gracefully stops the server
func (s *Server) Stop() {
	s.grpcServer.GracefulStop()
}

func loggingInterceptor(logger *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		logger.Debug("rpc",
			zap.String("method", info.FullMethod),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err))
		return resp, err
	}
}
