package config

import (
	"os"
	"path/filepath"
	"testing"

	"gosump/core"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig([]byte(`{}`))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Baud != 115200 {
		t.Errorf("Expected baud 115200, got %d", cfg.Baud)
	}
	if cfg.Channels != core.ChannelCount {
		t.Errorf("Expected %d channels, got %d", core.ChannelCount, cfg.Channels)
	}
	if cfg.Pattern != "counter" || cfg.Period != 1 {
		t.Errorf("Unexpected pattern defaults: %q period %d", cfg.Pattern, cfg.Period)
	}
	if cfg.TickMicros != 1000 {
		t.Errorf("Expected 1000us tick, got %d", cfg.TickMicros)
	}
	if !cfg.Boot().TriggerEdge {
		t.Errorf("Trigger edge should default to enabled")
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	cfg, err := LoadConfig([]byte(`{
		"device": "/dev/pts/7",
		"channels": 8,
		"pattern": "walking",
		"period": 4,
		"trigger_edge": false,
		"debug": true
	}`))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Device != "/dev/pts/7" {
		t.Errorf("Device not read: %q", cfg.Device)
	}
	boot := cfg.Boot()
	if boot.Channels != 8 {
		t.Errorf("Expected 8 channels, got %d", boot.Channels)
	}
	if boot.TriggerEdge {
		t.Errorf("trigger_edge=false was ignored")
	}
	if !boot.Debug {
		t.Errorf("debug=true was ignored")
	}
}

func TestLoadConfigRejectsChannels(t *testing.T) {
	if _, err := LoadConfig([]byte(`{"channels": 17}`)); err == nil {
		t.Errorf("Expected an error for 17 channels")
	}
}

func TestLoadConfigBadJSON(t *testing.T) {
	if _, err := LoadConfig([]byte(`{"channels": `)); err == nil {
		t.Errorf("Expected a parse error")
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "emu.json")
	if err := os.WriteFile(path, []byte(`{"pattern": "clocks"}`), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Pattern != "clocks" {
		t.Errorf("Expected clocks pattern, got %q", cfg.Pattern)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Errorf("Expected an error for a missing file")
	}

	cfg, err = Load("")
	if err != nil || cfg.Device != "/dev/ttyACM0" {
		t.Errorf("Empty path should give defaults, got %+v, %v", cfg, err)
	}
}
