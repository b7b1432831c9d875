// Package config provides configuration loading from YAML files.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	API      APIConfig      `yaml:"api"`
	Auth     AuthConfig     `yaml:"auth"`
	Playback PlaybackConfig `yaml:"playback"`
	Log      LogConfig      `yaml:"log"`
}

// APIConfig represents backend API configuration.
type APIConfig struct {
	BaseURL   string `yaml:"base_url" default:"http://localhost:8080/api" validate:"required,url"`
	TimeoutMs int    `yaml:"timeout_ms" default:"10000" validate:"gte=100,lte=120000"`
}

// AuthConfig represents token persistence configuration.
type AuthConfig struct {
	TokenFile string `yaml:"token_file" validate:"required"`
}

// PlaybackConfig represents playback control configuration.
type PlaybackConfig struct {
	RestartThresholdMs  int      `yaml:"restart_threshold_ms" default:"3000" validate:"gte=0,lte=60000"`
	DoubleClickWindowMs int      `yaml:"double_click_window_ms" default:"1000" validate:"gte=1,lte=10000"`
	InitialVolume       *float64 `yaml:"initial_volume" default:"1" validate:"required,gte=0,lte=1"`
	CompletionTimeoutMs int      `yaml:"completion_timeout_ms" default:"10000" validate:"gte=100,lte=120000"`
	// Length assumed for tracks the backend sends without a duration.
	FallbackDurationSec int `yaml:"fallback_duration_sec" default:"0" validate:"gte=0"`
}

// LogConfig represents logging configuration.
type LogConfig struct {
	Level  string `yaml:"level" default:"info" validate:"oneof=debug info warn warning error"`
	Output string `yaml:"output" default:"stderr"` // "stdout", "stderr", or file path
}

// Load loads configuration from a YAML file. An empty path yields the
// defaults. Environment variables take precedence over file values.
func Load(path string) (*Config, error) {
	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrap(err, "failed to read config file")
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, errors.Wrap(err, "failed to parse config file")
		}
	}

	// Override with environment variables
	cfg.overrideFromEnv()

	// Set defaults using creasty/defaults
	if err := defaults.Set(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}
	if cfg.Auth.TokenFile == "" {
		cfg.Auth.TokenFile = DefaultTokenFile()
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "config validation failed")
	}

	return &cfg, nil
}

// overrideFromEnv overrides config values with environment variables.
func (c *Config) overrideFromEnv() {
	if v := os.Getenv("PLAYER_API_BASE_URL"); v != "" {
		c.API.BaseURL = v
	}
	if v := os.Getenv("PLAYER_TOKEN_FILE"); v != "" {
		c.Auth.TokenFile = v
	}
	if v := os.Getenv("PLAYER_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(err, "struct validation failed")
	}
	return nil
}

// DefaultTokenFile returns the token file location under the user config
// directory, or in the working directory if that cannot be determined.
func DefaultTokenFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".19player-tokens.yaml"
	}
	return filepath.Join(dir, "19player", "tokens.yaml")
}

// Timeout returns the HTTP request timeout.
func (a APIConfig) Timeout() time.Duration {
	return time.Duration(a.TimeoutMs) * time.Millisecond
}

// RestartThreshold returns the position past which PlayPrev restarts.
func (p PlaybackConfig) RestartThreshold() time.Duration {
	return time.Duration(p.RestartThresholdMs) * time.Millisecond
}

// DoubleClickWindow returns the window for a repeated PlayPrev.
func (p PlaybackConfig) DoubleClickWindow() time.Duration {
	return time.Duration(p.DoubleClickWindowMs) * time.Millisecond
}

// CompletionTimeout returns the timeout for logging a finished play.
func (p PlaybackConfig) CompletionTimeout() time.Duration {
	return time.Duration(p.CompletionTimeoutMs) * time.Millisecond
}

// FallbackDuration returns the length assumed for tracks of unknown duration.
func (p PlaybackConfig) FallbackDuration() time.Duration {
	return time.Duration(p.FallbackDurationSec) * time.Second
}

// Volume returns the initial volume.
func (p PlaybackConfig) Volume() float64 {
	if p.InitialVolume == nil {
		return 1
	}
	return *p.InitialVolume
}
