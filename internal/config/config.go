package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment variables holding provider credentials
const (
	EnvElevenLabsKey = "ELEVEN_LABS_API_KEY"
	EnvOpenAIKey     = "OPENAI_API_KEY"
)

const (
	userConfigName   = ".readtomerc"
	systemConfigPath = "/etc/readtome/config.yaml"
)

// ErrMissingAPIKey is returned when the provider's key is not in the environment
var ErrMissingAPIKey = errors.New("missing API key")

// ErrInvalidConfig is wrapped by Validate failures
var ErrInvalidConfig = errors.New("invalid configuration")

// Config represents the application configuration
type Config struct {
	// Speech provider settings
	TTS struct {
		Provider        string        `yaml:"provider"`
		Voice           string        `yaml:"voice"`
		Model           string        `yaml:"model"`
		Stability       float64       `yaml:"stability"`
		SimilarityBoost float64       `yaml:"similarity_boost"`
		Timeout         time.Duration `yaml:"timeout"`
		MaxRetries      int           `yaml:"max_retries"`
	} `yaml:"tts"`

	Chunking struct {
		MaxChars int `yaml:"max_chars"`
	} `yaml:"chunking"`

	// Synthesis scheduling; concurrency 1 is strictly sequential
	Synthesis struct {
		Concurrency       int     `yaml:"concurrency"`
		RequestsPerSecond float64 `yaml:"requests_per_second"`
	} `yaml:"synthesis"`

	Output struct {
		Dir    string `yaml:"dir"`
		Format string `yaml:"format"`
	} `yaml:"output"`

	Playback struct {
		Enabled    bool   `yaml:"enabled"`
		Device     string `yaml:"device"`
		StopHotkey string `yaml:"stop_hotkey"`
	} `yaml:"playback"`

	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.TTS.Provider = "elevenlabs"
	cfg.TTS.Voice = ""
	cfg.TTS.Model = ""
	cfg.TTS.Stability = 0.75
	cfg.TTS.SimilarityBoost = 0.75
	cfg.TTS.Timeout = 60 * time.Second
	cfg.TTS.MaxRetries = 2

	cfg.Chunking.MaxChars = 2500

	cfg.Synthesis.Concurrency = 1
	cfg.Synthesis.RequestsPerSecond = 0

	cfg.Output.Dir = "output"
	cfg.Output.Format = "console"

	cfg.Playback.Enabled = true
	cfg.Playback.Device = ""
	cfg.Playback.StopHotkey = "ctrl+shift+s"

	cfg.Log.Level = "warn"

	return cfg
}

// Load loads configuration from file
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// UserConfigPath returns ~/.readtomerc
func UserConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate home directory: %w", err)
	}
	return filepath.Join(homeDir, userConfigName), nil
}

// LoadWithFallback attempts to load configuration from multiple locations
// Priority: explicit path > ~/.readtomerc > /etc/readtome/config.yaml
func LoadWithFallback(explicitPath string) (*Config, error) {
	if explicitPath != "" {
		return Load(explicitPath)
	}

	if userConfigPath, err := UserConfigPath(); err == nil {
		if _, err := os.Stat(userConfigPath); err == nil {
			cfg, err := Load(userConfigPath)
			if err == nil {
				return cfg, nil
			}
		}
	}

	if _, err := os.Stat(systemConfigPath); err == nil {
		cfg, err := Load(systemConfigPath)
		if err == nil {
			return cfg, nil
		}
	}

	return DefaultConfig(), nil
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks values the rest of the program relies on
func (c *Config) Validate() error {
	switch c.TTS.Provider {
	case "elevenlabs", "openai":
	default:
		return fmt.Errorf("%w: unknown provider %q", ErrInvalidConfig, c.TTS.Provider)
	}
	if c.Chunking.MaxChars < 1 {
		return fmt.Errorf("%w: chunking.max_chars must be positive", ErrInvalidConfig)
	}
	if c.Synthesis.Concurrency < 1 {
		return fmt.Errorf("%w: synthesis.concurrency must be at least 1", ErrInvalidConfig)
	}
	if c.Synthesis.RequestsPerSecond < 0 {
		return fmt.Errorf("%w: synthesis.requests_per_second must not be negative", ErrInvalidConfig)
	}
	switch c.Output.Format {
	case "console", "json", "text":
	default:
		return fmt.Errorf("%w: unknown output format %q", ErrInvalidConfig, c.Output.Format)
	}
	return nil
}

// LoadEnv reads KEY=value pairs from the given .env files (default ".env")
// into the process environment. Missing files are ignored and variables
// that are already set win
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return nil
}

// APIKey returns the credential for the configured provider
func (c *Config) APIKey() (string, error) {
	return APIKey(c.TTS.Provider)
}

// APIKey returns the credential for provider from the environment
func APIKey(provider string) (string, error) {
	var env string
	switch provider {
	case "openai":
		env = EnvOpenAIKey
	default:
		env = EnvElevenLabsKey
	}
	key := strings.TrimSpace(os.Getenv(env))
	if key == "" {
		return "", fmt.Errorf("%w: set %s", ErrMissingAPIKey, env)
	}
	return key, nil
}
