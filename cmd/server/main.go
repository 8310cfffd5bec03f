package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/emmett/readtome/internal/app"
	"github.com/emmett/readtome/internal/config"
	"github.com/emmett/readtome/internal/logging"
	"github.com/emmett/readtome/internal/metrics"
	grpcserver "github.com/emmett/readtome/internal/server/grpc"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
	GitBranch = "unknown"
)

var (
	port        = flag.Int("port", 50051, "gRPC server port")
	metricsAddr = flag.String("metrics-addr", "", "Serve Prometheus metrics on this address, e.g. :9090 (empty disables)")
	configFile  = flag.String("config", "", "Path to configuration file (default: ~/.readtomerc or /etc/readtome/config.yaml)")
	outputDir   = flag.String("output-dir", "", "Directory that receives one folder per run (default: from config)")
	logLevel    = flag.String("log-level", "info", "Log level: debug, info, warn, error")
	showVersion = flag.Bool("version", false, "Show version information")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Printf("readtome gRPC Server v%s\n", Version)
		fmt.Printf("  Commit:  %s\n", GitCommit)
		fmt.Printf("  Branch:  %s\n", GitBranch)
		fmt.Printf("  Built:   %s\n", BuildTime)
		os.Exit(0)
	}

	fmt.Printf("readtome gRPC Server v%s (commit: %s)\n", Version, GitCommit)

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	if err := config.LoadEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}
	cfg, err := config.LoadWithFallback(*configFile)
	if err != nil {
		return &app.Error{Stage: app.StageConfiguration, Err: err}
	}
	if *outputDir != "" {
		cfg.Output.Dir = *outputDir
	}
	// a server has no one listening
	cfg.Playback.Enabled = false
	if err := cfg.Validate(); err != nil {
		return &app.Error{Stage: app.StageConfiguration, Err: err}
	}

	logger, err := logging.New(*logLevel)
	if err != nil {
		return &app.Error{Stage: app.StageConfiguration, Err: err}
	}
	defer logger.Sync()

	engine, err := app.NewEngine(cfg)
	if err != nil {
		return err
	}
	defer engine.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.NewCollector("readtome", reg)

	synth := app.NewSynthesizer(engine, cfg, logger)
	reader := app.NewReader(synth, app.ReaderConfigFrom(cfg),
		app.WithMetrics(collector),
		app.WithLogger(logger))
	svc := grpcserver.NewReaderService(reader, synth, cfg.Chunking.MaxChars, logger)

	server := grpcserver.NewServer(grpcserver.Config{Port: *port, Logger: logger}, svc)

	var metricsServer *http.Server
	if *metricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
		metricsServer = &http.Server{Addr: *metricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			logger.Info("metrics listening", zap.String("addr", *metricsAddr))
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server failed", zap.Error(err))
			}
		}()
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("\nShutting down...")
		if metricsServer != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = metricsServer.Shutdown(ctx)
		}
		server.Stop()
	}()

	fmt.Printf("Provider: %s, output: %s\n", engine.Name(), cfg.Output.Dir)
	return server.Start()
}
