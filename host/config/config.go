// Package config loads the SUMP emulator configuration
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"gosump/core"
	"gosump/host/serial"
)

var ErrBadChannels = errors.New("config: channels must be between 1 and 16")

// EmulatorConfig describes the serial link and the simulated board
type EmulatorConfig struct {
	Device string `json:"device"`
	Baud   int    `json:"baud"`

	Channels uint32 `json:"channels"`

	// Pattern is one of the sim signal generators: counter, clocks, walking, low
	Pattern string `json:"pattern"`
	Period  uint64 `json:"period"`

	// TickMicros is how often the simulated sampler advances;
	// MaxBatch bounds the samples generated per tick (0 = unbounded).
	TickMicros int `json:"tick_us"`
	MaxBatch   int `json:"max_batch"`

	// TriggerEdge defaults to true like the board's boot pin
	TriggerEdge *bool `json:"trigger_edge,omitempty"`
	Debug       bool  `json:"debug"`
}

// LoadConfig parses a JSON configuration and applies defaults
func LoadConfig(jsonData []byte) (*EmulatorConfig, error) {
	var cfg EmulatorConfig

	err := json.Unmarshal(jsonData, &cfg)
	if err != nil {
		return nil, err
	}

	applyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Load reads path. An empty path returns the defaults.
func Load(path string) (*EmulatorConfig, error) {
	if path == "" {
		return DefaultConfig(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg, err := LoadConfig(data)
	if err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// DefaultConfig returns the emulator defaults
func DefaultConfig() *EmulatorConfig {
	cfg := &EmulatorConfig{}
	applyDefaults(cfg)
	return cfg
}

// applyDefaults fills in missing configuration values
func applyDefaults(cfg *EmulatorConfig) {
	if cfg.Device == "" {
		cfg.Device = "/dev/ttyACM0"
	}
	if cfg.Baud == 0 {
		cfg.Baud = serial.DefaultBaud
	}
	if cfg.Channels == 0 {
		cfg.Channels = core.ChannelCount
	}
	if cfg.Pattern == "" {
		cfg.Pattern = "counter"
	}
	if cfg.Period == 0 {
		cfg.Period = 1
	}
	if cfg.TickMicros == 0 {
		cfg.TickMicros = 1000
	}
	if cfg.TriggerEdge == nil {
		edge := true
		cfg.TriggerEdge = &edge
	}
}

// Validate reports values the emulator cannot run with
func (c *EmulatorConfig) Validate() error {
	if c.Channels < 1 || c.Channels > core.ChannelCount {
		return ErrBadChannels
	}
	return nil
}

// Boot returns the boot configuration the simulated board starts with
func (c *EmulatorConfig) Boot() core.BootConfig {
	boot := core.DefaultBootConfig()
	boot.Channels = c.Channels
	if c.TriggerEdge != nil {
		boot.TriggerEdge = *c.TriggerEdge
	}
	boot.Debug = c.Debug
	return boot
}
