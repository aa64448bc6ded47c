// Package config provides configuration loading and management for sliceview.
// It handles loading configuration from YAML or TOML files and provides default values.
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/natefinch/atomic"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration loaded from YAML or TOML
type Config struct {
	// Server parameters of the analysis backend
	Server struct {
		// URL is the base URL of the backend, without the /api prefix
		URL string `yaml:"url" toml:"url"`

		// TimeoutSeconds bounds a single HTTP request
		TimeoutSeconds float64 `yaml:"timeoutSeconds" toml:"timeoutSeconds"`

		// Retries is the number of attempts for network and 5xx failures
		Retries int `yaml:"retries" toml:"retries"`

		// RetryDelayMillis is the initial backoff between attempts
		RetryDelayMillis int `yaml:"retryDelayMillis" toml:"retryDelayMillis"`
	} `yaml:"server" toml:"server"`

	// Cache parameters
	Cache struct {
		// Capacity is the maximum number of projection images kept in memory
		Capacity int `yaml:"capacity" toml:"capacity"`
	} `yaml:"cache" toml:"cache"`

	// View parameters applied to every projection after a dataset load
	View struct {
		// WindowCenter is the initial intensity window center
		WindowCenter float64 `yaml:"windowCenter" toml:"windowCenter"`

		// WindowWidth is the initial intensity window width
		WindowWidth float64 `yaml:"windowWidth" toml:"windowWidth"`

		// WheelZoomStep is the relative zoom change per wheel notch
		WheelZoomStep float64 `yaml:"wheelZoomStep" toml:"wheelZoomStep"`

		// ViewportWidth and ViewportHeight size each projection canvas in pixels
		ViewportWidth  int `yaml:"viewportWidth" toml:"viewportWidth"`
		ViewportHeight int `yaml:"viewportHeight" toml:"viewportHeight"`
	} `yaml:"view" toml:"view"`

	// Chart parameters
	Chart struct {
		// Width and Height size the analysis chart in pixels
		Width  int `yaml:"width" toml:"width"`
		Height int `yaml:"height" toml:"height"`
	} `yaml:"chart" toml:"chart"`

	// Output parameters
	Output struct {
		// Dir is where rendered PNGs are written
		Dir string `yaml:"dir" toml:"dir"`

		// Verbose controls the level of logging output
		Verbose bool `yaml:"verbose" toml:"verbose"`
	} `yaml:"output" toml:"output"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	// Set default server parameters
	cfg.Server.URL = "http://localhost:5000"
	cfg.Server.TimeoutSeconds = 60
	cfg.Server.Retries = 3
	cfg.Server.RetryDelayMillis = 500

	cfg.Cache.Capacity = 256

	// Soft-tissue window at unit zoom, as the viewer starts
	cfg.View.WindowCenter = 40
	cfg.View.WindowWidth = 400
	cfg.View.WheelZoomStep = 0.1
	cfg.View.ViewportWidth = 512
	cfg.View.ViewportHeight = 512

	cfg.Chart.Width = 800
	cfg.Chart.Height = 400

	cfg.Output.Dir = "sliceview_output"
	cfg.Output.Verbose = false

	return cfg
}

// Timeout returns the request timeout as a duration
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.Server.TimeoutSeconds * float64(time.Second))
}

// RetryDelay returns the initial retry backoff as a duration
func (c *Config) RetryDelay() time.Duration {
	return time.Duration(c.Server.RetryDelayMillis) * time.Millisecond
}

// Validate checks that the configuration values are usable
func (c *Config) Validate() error {
	switch {
	case c.Server.URL == "":
		return fmt.Errorf("server.url must not be empty")
	case c.Server.TimeoutSeconds <= 0:
		return fmt.Errorf("server.timeoutSeconds must be positive, got %g", c.Server.TimeoutSeconds)
	case c.Server.Retries < 1:
		return fmt.Errorf("server.retries must be at least 1, got %d", c.Server.Retries)
	case c.View.WindowWidth < 1:
		return fmt.Errorf("view.windowWidth must be at least 1, got %g", c.View.WindowWidth)
	case c.View.WheelZoomStep <= 0 || c.View.WheelZoomStep >= 1:
		return fmt.Errorf("view.wheelZoomStep must be in (0, 1), got %g", c.View.WheelZoomStep)
	case c.View.ViewportWidth <= 0 || c.View.ViewportHeight <= 0:
		return fmt.Errorf("view viewport size must be positive, got %dx%d", c.View.ViewportWidth, c.View.ViewportHeight)
	case c.Chart.Width <= 0 || c.Chart.Height <= 0:
		return fmt.Errorf("chart size must be positive, got %dx%d", c.Chart.Width, c.Chart.Height)
	}
	return nil
}

func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}

// LoadConfig loads configuration from a YAML or TOML file, chosen by extension
// If the file doesn't exist, it returns the default configuration
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	// Check if config file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	// Read config file
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if isTOML(configPath) {
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("error parsing config file: %w", err)
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", configPath, err)
	}
	return cfg, nil
}

// SaveConfig saves the configuration to a YAML or TOML file, chosen by extension
func SaveConfig(cfg *Config, configPath string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	var buf bytes.Buffer
	if isTOML(configPath) {
		if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
			return fmt.Errorf("error marshaling config: %w", err)
		}
	} else {
		out, err := yaml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("error marshaling config: %w", err)
		}
		buf.Write(out)
	}

	// Replace the file atomically so an interrupted write keeps the old one
	if err := atomic.WriteFile(configPath, &buf); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// CreateDefaultConfigFile creates a default configuration file at the specified path
func CreateDefaultConfigFile(configPath string) error {
	cfg := DefaultConfig()
	return SaveConfig(cfg, configPath)
}
