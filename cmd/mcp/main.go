package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/emmett/readtome/internal/app"
	"github.com/emmett/readtome/internal/audio"
	"github.com/emmett/readtome/internal/config"
	"github.com/emmett/readtome/internal/logging"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
	GitBranch = "unknown"
)

var (
	configFile  = flag.String("config", "", "Path to configuration file (default: ~/.readtomerc or /etc/readtome/config.yaml)")
	play        = flag.Bool("play", false, "Play audio on this machine after each read")
	showVersion = flag.Bool("version", false, "Show version information")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Printf("readtome MCP v%s\n", Version)
		fmt.Printf("  Commit:  %s\n", GitCommit)
		fmt.Printf("  Branch:  %s\n", GitBranch)
		fmt.Printf("  Built:   %s\n", BuildTime)
		os.Exit(0)
	}

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "MCP server error: %v\n", err)
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
	cfg.Playback.Enabled = *play
	if err := cfg.Validate(); err != nil {
		return &app.Error{Stage: app.StageConfiguration, Err: err}
	}

	// stdout carries the protocol, logs go to stderr
	logger, err := logging.New(cfg.Log.Level)
	if err != nil {
		return &app.Error{Stage: app.StageConfiguration, Err: err}
	}
	defer logger.Sync()

	engine, err := app.NewEngine(cfg)
	if err != nil {
		return err
	}
	defer engine.Close()

	readerCfg := app.ReaderConfigFrom(cfg)
	readerCfg.StopHotkey = ""
	opts := []app.ReaderOption{app.WithLogger(logger)}
	if readerCfg.Play {
		playback := audio.DefaultPlaybackConfig()
		playback.DeviceName = cfg.Playback.Device
		opts = append(opts, app.WithPlayer(audio.NewPlayer(playback)))
	}
	reader := app.NewReader(app.NewSynthesizer(engine, cfg, logger), readerCfg, opts...)

	handler := app.NewMCPHandler(reader, engine, Version, GitCommit, *configFile, logger)
	return handler.Run(context.Background())
}
