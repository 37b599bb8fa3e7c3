package config

import (
	"fmt"
	"io"
	"os"

	"github.com/BurntSushi/toml"
)

// LoadFromFile reads configuration from path. A missing file yields
// DefaultConfig with environment overrides applied.
func LoadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg := DefaultConfig()
			applyEnvOverrides(cfg)
			return cfg, nil
		}
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()
	return LoadFromReader(f)
}

// LoadFromReader reads TOML configuration from r on top of the defaults.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := DefaultConfig()
	if _, err := toml.NewDecoder(r).Decode(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	applyEnvOverrides(cfg)
	return cfg, nil
}

// applyEnvOverrides lets MVUX_* variables win over the file.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("MVUX_LOG_LEVEL"); v != "" {
		cfg.Runtime.LogLevel = v
	}
	if v := os.Getenv("MVUX_FRAME_INTERVAL"); v != "" {
		if d, err := parseDuration(v); err == nil && d > 0 {
			cfg.Runtime.FrameInterval = Duration{d}
		}
	}
}
