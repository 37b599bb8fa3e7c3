// Package config provides TOML configuration for mvux hosts.
package config

import (
	"errors"
	"fmt"
	"time"
)

// ErrNegativeDuration is returned for durations below zero. Intervals and
// ticks have no meaning running backwards.
var ErrNegativeDuration = errors.New("negative duration")

// Duration is a time.Duration spelled as a Go duration string ("16ms", "1s")
// in TOML. An empty string is zero.
type Duration struct {
	time.Duration
}

func parseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("duration %q: %w", s, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("duration %q: %w", s, ErrNegativeDuration)
	}
	return d, nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := parseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}
