package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

const (
	DefaultIterations    = 100000
	DefaultWatchInterval = time.Second
	DefaultGRPCAddr      = ":7411"
)

// Defaults returns the configuration used when nothing else is set.
func Defaults() Config {
	return Config{
		Iterations:    DefaultIterations,
		Engine:        "permutation",
		LogLevel:      "warn",
		WatchInterval: DefaultWatchInterval,
		GRPCAddr:      DefaultGRPCAddr,
	}
}

// Load resolves defaults <- YAML file (if path is set) <- HAVENSIM_* env <- flags
// and validates the result.
func Load(path string, flags RawConfig) (Config, error) {
	return LoadOver(Defaults(), path, flags)
}

// LoadOver is Load with base in place of Defaults.
func LoadOver(base Config, path string, flags RawConfig) (Config, error) {
	cfg := base
	if path != "" {
		raw, err := LoadFile(path)
		if err != nil {
			return Config{}, err
		}
		cfg = Apply(cfg, raw)
	}
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	cfg = Apply(cfg, flags)
	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadFile reads one YAML layer. Unlike deck files the path was named by the
// user, so a missing file is an error.
func LoadFile(path string) (RawConfig, error) {
	var raw RawConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return RawConfig{}, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(b, &raw); err != nil {
		return RawConfig{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return raw, nil
}

// ParseEnv overlays HAVENSIM_* variables onto target. Unset variables keep
// the values already in target.
func ParseEnv(target *Config) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Apply overlays the non-nil fields of raw onto cfg.
func Apply(cfg Config, raw RawConfig) Config {
	out := cfg
	if raw.Iterations != nil {
		out.Iterations = *raw.Iterations
	}
	if raw.Seed != nil {
		out.Seed = *raw.Seed
	}
	if raw.Engine != nil {
		out.Engine = *raw.Engine
	}
	if raw.Parallel != nil {
		out.Parallel = *raw.Parallel
	}
	if raw.LogLevel != nil {
		out.LogLevel = *raw.LogLevel
	}
	if raw.HistoryDB != nil {
		out.HistoryDB = *raw.HistoryDB
	}
	if raw.WatchInterval != nil {
		out.WatchInterval = *raw.WatchInterval
	}
	if raw.GRPCAddr != nil {
		out.GRPCAddr = *raw.GRPCAddr
	}
	return out
}
