package config

import (
	"io"
	"log/slog"
	"strings"
	"time"
)

// Config is the top-level host configuration.
type Config struct {
	Runtime RuntimeConfig `toml:"runtime"`
	Demo    DemoConfig    `toml:"demo"`
}

// RuntimeConfig tunes the program runtime.
type RuntimeConfig struct {
	FrameInterval Duration `toml:"frame_interval"`
	LogLevel      string   `toml:"log_level"`
	LogFormat     string   `toml:"log_format"` // "text" or "json"
}

// DemoConfig drives cmd/demo.
type DemoConfig struct {
	Tick         Duration `toml:"tick"`
	WebSocketURL string   `toml:"websocket_url"`
	Trace        string   `toml:"trace"` // path of a JSON-lines step trace, empty for none
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	return &Config{
		Runtime: RuntimeConfig{
			FrameInterval: Duration{time.Second / 60},
			LogLevel:      "info",
			LogFormat:     "text",
		},
		Demo: DemoConfig{
			Tick: Duration{time.Second},
		},
	}
}

// Level parses LogLevel, falling back to info.
func (c RuntimeConfig) Level() slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.ToUpper(c.LogLevel))); err != nil {
		return slog.LevelInfo
	}
	return lvl
}

// Logger builds a logger writing to w in the configured format. verbose
// forces debug level.
func (c RuntimeConfig) Logger(w io.Writer, verbose bool) *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.Level()}
	if verbose {
		opts.Level = slog.LevelDebug
	}
	if c.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
