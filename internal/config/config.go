// Package config loads and validates the viewer configuration from YAML,
// with defaults matching the stock MediaMTX setup the viewer ships against.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultURL points at a local MediaMTX instance.
const DefaultURL = "rtsp://127.0.0.1:8554/live/stream1"

// Config is the complete viewer configuration.
type Config struct {
	Source    SourceConfig    `yaml:"source"`
	Reconnect ReconnectConfig `yaml:"reconnect"`
	Detection DetectionConfig `yaml:"detection"`
	Viewer    ViewerConfig    `yaml:"viewer"`
}

// SourceConfig identifies the stream to view.
type SourceConfig struct {
	URL string `yaml:"url"`
	// Transport is "tcp" (default) or "udp"
	Transport string `yaml:"transport"`
	// TargetFPS is a decoder hint, 0 = source-paced
	TargetFPS float64 `yaml:"target_fps"`
}

// ReconnectConfig tunes the failure threshold and retry policy.
type ReconnectConfig struct {
	// MaxAttempts caps reopen attempts; 0 = retry forever (default)
	MaxAttempts int `yaml:"max_attempts"`
	// DelayS is the backoff before the first reopen attempt (default 2)
	DelayS int `yaml:"delay_s"`
	// MaxDelayS caps the backoff; equal to delay_s = flat schedule (default 2)
	MaxDelayS int `yaml:"max_delay_s"`
	// FailThreshold is consecutive failed read cycles before reconnecting
	// (default 30)
	FailThreshold int `yaml:"fail_threshold"`
	// FlushDepth is reads per acquisition cycle (default 3)
	FlushDepth int `yaml:"flush_depth"`
}

// DetectionConfig configures the optional annotation model. An empty
// model_path disables annotation without error.
type DetectionConfig struct {
	ModelPath  string  `yaml:"model_path"`
	ConfigPath string  `yaml:"config_path"`
	LabelsPath string  `yaml:"labels_path"`
	// Confidence is the draw threshold (default 0.3)
	Confidence float64 `yaml:"confidence"`
}

// ViewerConfig controls the window and snapshots.
type ViewerConfig struct {
	WindowTitle    string `yaml:"window_title"`
	WindowWidth    int    `yaml:"window_width"`
	WindowHeight   int    `yaml:"window_height"`
	SnapshotDir    string `yaml:"snapshot_dir"`
	SnapshotPrefix string `yaml:"snapshot_prefix"`
	HUD            bool   `yaml:"hud"`
}

// Default returns the configuration used when no file is supplied.
func Default() Config {
	cfg := Config{}
	applyDefaults(&cfg)
	return cfg
}

// Load reads and parses a YAML configuration file, applying defaults and
// validating the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: failed to read file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}

// Validate applies defaults and rejects invalid settings, fail-fast at load
// time rather than mid-session.
func Validate(cfg *Config) error {
	applyDefaults(cfg)

	if cfg.Source.Transport != "tcp" && cfg.Source.Transport != "udp" {
		return fmt.Errorf("source.transport must be tcp or udp, got %q", cfg.Source.Transport)
	}
	if cfg.Source.TargetFPS < 0 || cfg.Source.TargetFPS > 120 {
		return fmt.Errorf("source.target_fps %.1f out of range 0-120", cfg.Source.TargetFPS)
	}
	if cfg.Reconnect.MaxAttempts < 0 {
		return fmt.Errorf("reconnect.max_attempts must be >= 0")
	}
	if cfg.Reconnect.MaxDelayS < cfg.Reconnect.DelayS {
		return fmt.Errorf("reconnect.max_delay_s must be >= delay_s")
	}
	if cfg.Detection.Confidence < 0 || cfg.Detection.Confidence > 1 {
		return fmt.Errorf("detection.confidence %.2f out of range 0-1", cfg.Detection.Confidence)
	}
	if cfg.Detection.ModelPath != "" && cfg.Detection.ConfigPath == "" {
		return fmt.Errorf("detection.config_path is required when model_path is set")
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.Source.URL == "" {
		cfg.Source.URL = DefaultURL
	}
	if cfg.Source.Transport == "" {
		cfg.Source.Transport = "tcp"
	}
	if cfg.Reconnect.DelayS <= 0 {
		cfg.Reconnect.DelayS = 2
	}
	if cfg.Reconnect.MaxDelayS <= 0 {
		cfg.Reconnect.MaxDelayS = cfg.Reconnect.DelayS
	}
	if cfg.Reconnect.FailThreshold <= 0 {
		cfg.Reconnect.FailThreshold = 30
	}
	if cfg.Reconnect.FlushDepth <= 0 {
		cfg.Reconnect.FlushDepth = 3
	}
	if cfg.Detection.Confidence == 0 {
		cfg.Detection.Confidence = 0.3
	}
	if cfg.Viewer.WindowTitle == "" {
		cfg.Viewer.WindowTitle = "RTSP Stream Viewer"
	}
	if cfg.Viewer.WindowWidth <= 0 || cfg.Viewer.WindowHeight <= 0 {
		cfg.Viewer.WindowWidth = 1280
		cfg.Viewer.WindowHeight = 720
	}
	if cfg.Viewer.SnapshotPrefix == "" {
		cfg.Viewer.SnapshotPrefix = "stream_snapshot"
	}
}
