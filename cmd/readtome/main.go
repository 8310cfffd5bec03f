package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/emmett/readtome/internal/app"
	"github.com/emmett/readtome/internal/audio"
	"github.com/emmett/readtome/internal/config"
	"github.com/emmett/readtome/internal/input"
	"github.com/emmett/readtome/internal/logging"
	"github.com/emmett/readtome/internal/output"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
	GitBranch = "unknown"
)

var (
	configFile      = flag.String("config", "", "Path to configuration file (default: ~/.readtomerc or /etc/readtome/config.yaml)")
	text            = flag.String("text", "", "Text to read aloud")
	file            = flag.String("file", "", "Read text from a .txt, .md or .docx file")
	maxChars        = flag.Int("max-chars", 2500, "Maximum characters per synthesis request")
	outputDir       = flag.String("output-dir", "output", "Directory that receives one folder per run")
	voice           = flag.String("voice", "", "Voice ID (default: provider default or configured voice)")
	model           = flag.String("model", "", "Provider model ID")
	provider        = flag.String("provider", "elevenlabs", "Speech provider: elevenlabs, openai")
	concurrency     = flag.Int("concurrency", 1, "Chunks synthesized at once (1 = sequential)")
	rps             = flag.Float64("rps", 0, "Maximum synthesis requests per second (0 = unlimited)")
	play            = flag.Bool("play", true, "Play the audio once it is saved")
	audioDevice     = flag.String("device", "", "Audio output device name (use -list-devices to see available devices)")
	stopHotkey      = flag.String("stop-hotkey", "ctrl+shift+s", "Hotkey that stops playback (empty disables it)")
	outputFormat    = flag.String("format", "console", "Output format: console, json, text")
	listVoices      = flag.Bool("list-voices", false, "List the voices of the selected provider")
	listDevices     = flag.Bool("list-devices", false, "List all available audio output devices")
	setDefaultVoice = flag.String("set-default-voice", "", "Save a voice (name or ID) as the default")
	logLevel        = flag.String("log-level", "warn", "Log level: debug, info, warn, error")
	showVersion     = flag.Bool("version", false, "Show version information")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Printf("readtome v%s\n", Version)
		fmt.Printf("  Commit:  %s\n", GitCommit)
		fmt.Printf("  Branch:  %s\n", GitBranch)
		fmt.Printf("  Built:   %s\n", BuildTime)
		os.Exit(0)
	}

	if err := config.LoadEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}

	cfg, err := config.LoadWithFallback(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Failed to load config: %v\n", err)
		cfg = config.DefaultConfig()
	}
	applyFlags(cfg)

	if err := run(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// applyFlags copies the flags given on the command line over the loaded
// configuration; flags left at their defaults do not override the file
func applyFlags(cfg *config.Config) {
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "max-chars":
			cfg.Chunking.MaxChars = *maxChars
		case "output-dir":
			cfg.Output.Dir = *outputDir
		case "voice":
			cfg.TTS.Voice = *voice
		case "model":
			cfg.TTS.Model = *model
		case "provider":
			cfg.TTS.Provider = *provider
		case "concurrency":
			cfg.Synthesis.Concurrency = *concurrency
		case "rps":
			cfg.Synthesis.RequestsPerSecond = *rps
		case "play":
			cfg.Playback.Enabled = *play
		case "device":
			cfg.Playback.Device = *audioDevice
		case "stop-hotkey":
			cfg.Playback.StopHotkey = *stopHotkey
		case "format":
			cfg.Output.Format = *outputFormat
		case "log-level":
			cfg.Log.Level = *logLevel
		}
	})
}

func run(cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return &app.Error{Stage: app.StageConfiguration, Err: err}
	}

	logger, err := logging.New(cfg.Log.Level)
	if err != nil {
		return &app.Error{Stage: app.StageConfiguration, Err: err}
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *listDevices {
		return app.NewDeviceManager(os.Stdout).ListDevices()
	}

	engine, err := app.NewEngine(cfg)
	if err != nil {
		return err
	}
	defer engine.Close()

	if *listVoices || *setDefaultVoice != "" {
		return manageVoices(ctx, cfg, app.NewVoiceManager(engine, os.Stdout))
	}

	formatter, err := output.New(cfg.Output.Format, os.Stdout)
	if err != nil {
		return &app.Error{Stage: app.StageConfiguration, Err: err}
	}
	defer formatter.Close()

	console, _ := formatter.(*output.ConsoleOutput)
	if console != nil {
		fmt.Printf("readtome v%s (commit: %s)\n", Version, GitCommit)
		console.Info(fmt.Sprintf("Provider: %s", engine.Name()))
	}

	in, err := readInput()
	if err != nil {
		return err
	}
	if console != nil {
		console.Status("Synthesizing...")
	}

	opts := []app.ReaderOption{
		app.WithFormatter(formatter),
		app.WithLogger(logger),
	}
	readerCfg := app.ReaderConfigFrom(cfg)
	if readerCfg.Play {
		player, err := newPlayer(cfg.Playback.Device, logger)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: playback disabled: %v\n", err)
			readerCfg.Play = false
		} else {
			opts = append(opts, app.WithPlayer(player))
			if readerCfg.StopHotkey != "" {
				opts = append(opts, app.WithStopTrigger(input.StopTrigger(readerCfg.StopHotkey)))
			}
		}
	}

	reader := app.NewReader(app.NewSynthesizer(engine, cfg, logger), readerCfg, opts...)
	res, err := reader.Run(ctx, in)
	if err != nil {
		return err
	}
	if res.PlaybackErr != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", res.PlaybackErr)
	}
	return nil
}

// readInput takes -text, then -file, then asks interactively
func readInput() (app.Input, error) {
	switch {
	case *text != "":
		return app.Input{Text: *text, Origin: app.OriginFlag}, nil
	case *file != "":
		return app.InputFromFile(*file)
	default:
		return app.NewPrompt(os.Stdin, os.Stdout).Ask()
	}
}

func newPlayer(device string, logger *zap.Logger) (audio.Player, error) {
	cfg := audio.DefaultPlaybackConfig()
	if device != "" {
		selected, err := app.NewDeviceManager(os.Stderr).SelectDevice(device)
		if err != nil {
			return nil, err
		}
		logger.Info("using playback device", zap.String("device", selected.Name))
		cfg.DeviceName = selected.ID
	}
	return audio.NewMalgoPlayer(cfg).WithLogger(logger), nil
}

func manageVoices(ctx context.Context, cfg *config.Config, vm *app.VoiceManager) error {
	if *setDefaultVoice == "" {
		return vm.ListVoices(ctx, cfg.TTS.Voice)
	}

	path := *configFile
	if path == "" {
		var err error
		if path, err = config.UserConfigPath(); err != nil {
			return &app.Error{Stage: app.StageConfiguration, Err: err}
		}
	}
	if _, err := vm.SetDefault(ctx, *setDefaultVoice, cfg, path); err != nil {
		if errors.Is(err, app.ErrUnknownVoice) {
			fmt.Fprintln(os.Stderr, "Use -list-voices to see available voices")
		}
		return &app.Error{Stage: app.StageConfiguration, Err: err}
	}
	return nil
}
