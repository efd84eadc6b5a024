package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Source.URL != DefaultURL {
		t.Errorf("URL = %q, want %q", cfg.Source.URL, DefaultURL)
	}
	if cfg.Source.Transport != "tcp" {
		t.Errorf("Transport = %q, want tcp", cfg.Source.Transport)
	}
	if cfg.Reconnect.MaxAttempts != 0 {
		t.Errorf("MaxAttempts = %d, want 0 (retry forever)", cfg.Reconnect.MaxAttempts)
	}
	if cfg.Reconnect.DelayS != 2 || cfg.Reconnect.MaxDelayS != 2 {
		t.Errorf("delay = %d/%d, want flat 2s", cfg.Reconnect.DelayS, cfg.Reconnect.MaxDelayS)
	}
	if cfg.Reconnect.FailThreshold != 30 {
		t.Errorf("FailThreshold = %d, want 30", cfg.Reconnect.FailThreshold)
	}
	if cfg.Reconnect.FlushDepth != 3 {
		t.Errorf("FlushDepth = %d, want 3", cfg.Reconnect.FlushDepth)
	}
	if cfg.Detection.Confidence != 0.3 {
		t.Errorf("Confidence = %v, want 0.3", cfg.Detection.Confidence)
	}
	if cfg.Viewer.WindowWidth != 1280 || cfg.Viewer.WindowHeight != 720 {
		t.Errorf("window = %dx%d, want 1280x720",
			cfg.Viewer.WindowWidth, cfg.Viewer.WindowHeight)
	}
	if cfg.Viewer.SnapshotPrefix != "stream_snapshot" {
		t.Errorf("SnapshotPrefix = %q, want stream_snapshot", cfg.Viewer.SnapshotPrefix)
	}
	if err := Validate(&cfg); err != nil {
		t.Errorf("default config failed validation: %v", err)
	}
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
source:
  url: rtsp://cam.local:8554/front
  transport: udp
  target_fps: 15
reconnect:
  max_attempts: 5
  delay_s: 1
  max_delay_s: 30
  fail_threshold: 10
detection:
  model_path: yolo.weights
  config_path: yolo.cfg
  labels_path: coco.names
  confidence: 0.5
viewer:
  window_title: Front Door
  hud: true
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Source.URL != "rtsp://cam.local:8554/front" {
		t.Errorf("URL = %q", cfg.Source.URL)
	}
	if cfg.Source.Transport != "udp" {
		t.Errorf("Transport = %q, want udp", cfg.Source.Transport)
	}
	if cfg.Source.TargetFPS != 15 {
		t.Errorf("TargetFPS = %v, want 15", cfg.Source.TargetFPS)
	}
	if cfg.Reconnect.MaxAttempts != 5 || cfg.Reconnect.MaxDelayS != 30 {
		t.Errorf("reconnect = %+v", cfg.Reconnect)
	}
	if cfg.Reconnect.FailThreshold != 10 {
		t.Errorf("FailThreshold = %d, want 10", cfg.Reconnect.FailThreshold)
	}
	if cfg.Detection.Confidence != 0.5 {
		t.Errorf("Confidence = %v, want 0.5", cfg.Detection.Confidence)
	}
	if !cfg.Viewer.HUD {
		t.Error("HUD not enabled")
	}
	// Omitted fields still pick up defaults
	if cfg.Reconnect.FlushDepth != 3 {
		t.Errorf("FlushDepth = %d, want default 3", cfg.Reconnect.FlushDepth)
	}
	if cfg.Viewer.WindowWidth != 1280 {
		t.Errorf("WindowWidth = %d, want default 1280", cfg.Viewer.WindowWidth)
	}
}

func TestLoad_Errors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Load of missing file succeeded")
	}

	bad := writeConfig(t, "source: [not, a, mapping")
	if _, err := Load(bad); err == nil {
		t.Error("Load of malformed YAML succeeded")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			"bad transport",
			func(c *Config) { c.Source.Transport = "multicast" },
			"transport",
		},
		{
			"fps out of range",
			func(c *Config) { c.Source.TargetFPS = 500 },
			"target_fps",
		},
		{
			"negative fps",
			func(c *Config) { c.Source.TargetFPS = -1 },
			"target_fps",
		},
		{
			"negative attempts",
			func(c *Config) { c.Reconnect.MaxAttempts = -1 },
			"max_attempts",
		},
		{
			"max delay below delay",
			func(c *Config) { c.Reconnect.DelayS = 10; c.Reconnect.MaxDelayS = 5 },
			"max_delay_s",
		},
		{
			"confidence out of range",
			func(c *Config) { c.Detection.Confidence = 1.5 },
			"confidence",
		},
		{
			"model without config",
			func(c *Config) { c.Detection.ModelPath = "yolo.weights" },
			"config_path",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := Validate(&cfg)
			if err == nil {
				t.Fatal("Validate accepted invalid config")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidate_ZeroValueGetsDefaults(t *testing.T) {
	var cfg Config
	if err := Validate(&cfg); err != nil {
		t.Fatalf("Validate of zero config failed: %v", err)
	}
	if cfg.Source.URL != DefaultURL {
		t.Errorf("URL = %q, want default", cfg.Source.URL)
	}
	if cfg.Reconnect.MaxDelayS != cfg.Reconnect.DelayS {
		t.Errorf("MaxDelayS = %d, want to match DelayS %d",
			cfg.Reconnect.MaxDelayS, cfg.Reconnect.DelayS)
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "streamview.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}
