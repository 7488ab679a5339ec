// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

// Package config loads manipulator settings from a TOML file and the
// environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "MANIPULATOR_"

// ErrInvalid indicates a setting with an unusable value.
var ErrInvalid = errors.New("invalid setting")

// Duration is a time.Duration written as "500ms" in TOML.
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Config holds all settings.
type Config struct {
	// StepDelay is the pause before each playback step.
	StepDelay Duration `toml:"step_delay"`
	// Samples is the number of samples on a fresh table.
	Samples int `toml:"samples"`
	// Seed seeds sample placement; 0 picks a random seed.
	Seed uint64 `toml:"seed"`
	// DB is a SQLite path for history; empty keeps history in memory.
	DB string `toml:"db"`
	// Log configures logging.
	Log Log `toml:"log"`
}

// Log configures logging.
type Log struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		StepDelay: Duration{500 * time.Millisecond},
		Samples:   3,
		Log:       Log{Level: "info"},
	}
}

// ParseError represents an error while parsing a configuration file.
type ParseError struct {
	Path    string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error in %s: %s", e.Path, e.Message)
}

// Unwrap returns the underlying error.
func (e *ParseError) Unwrap() error {
	return e.Err
}

// Load returns the defaults overlaid with the file at path, if any, and
// then with environment overrides. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
		case err != nil:
			return cfg, fmt.Errorf("reading config file %s: %w", path, err)
		default:
			if err := Parse(path, data, &cfg); err != nil {
				return cfg, err
			}
		}
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

// Parse decodes TOML data over cfg. Keys absent from data keep their
// current values.
func Parse(source string, data []byte, cfg *Config) error {
	if err := toml.Unmarshal(data, cfg); err != nil {
		return &ParseError{Path: source, Message: err.Error(), Err: err}
	}
	return nil
}

// ApplyEnv overrides settings from MANIPULATOR_* variables.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvPrefix + "STEP_DELAY"); ok {
		if err := c.StepDelay.UnmarshalText([]byte(v)); err != nil {
			return fmt.Errorf("%w: %sSTEP_DELAY: %v", ErrInvalid, EnvPrefix, err)
		}
	}
	if v, ok := lookup(EnvPrefix + "SAMPLES"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: %sSAMPLES: %v", ErrInvalid, EnvPrefix, err)
		}
		c.Samples = n
	}
	if v, ok := lookup(EnvPrefix + "SEED"); ok {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return fmt.Errorf("%w: %sSEED: %v", ErrInvalid, EnvPrefix, err)
		}
		c.Seed = n
	}
	if v, ok := lookup(EnvPrefix + "DB"); ok {
		c.DB = v
	}
	if v, ok := lookup(EnvPrefix + "LOG_LEVEL"); ok {
		c.Log.Level = v
	}
	if v, ok := lookup(EnvPrefix + "LOG_FILE"); ok {
		c.Log.File = v
	}
	return nil
}

// Validate checks value ranges.
func (c Config) Validate() error {
	if c.StepDelay.Duration < 0 {
		return fmt.Errorf("%w: step_delay must not be negative", ErrInvalid)
	}
	if c.Samples < 0 {
		return fmt.Errorf("%w: samples must not be negative", ErrInvalid)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Level parses Log.Level.
func (c Config) Level() (slog.Level, error) {
	var lvl slog.Level
	if c.Log.Level == "" {
		return slog.LevelInfo, nil
	}
	if err := lvl.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return lvl, fmt.Errorf("%w: log.level: %v", ErrInvalid, err)
	}
	return lvl, nil
}
