package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/xtding233/havensim/internal/deck"
)

var ErrInvalidConfig = errors.New("invalid config")

var logLevels = []string{"debug", "info", "warn", "error"}

// Validate checks semantic constraints of a resolved Config.
func Validate(cfg Config) error {
	var errs []string

	if cfg.Iterations < 1 {
		errs = append(errs, "iterations must be >= 1")
	}
	if _, err := deck.ParseStrategy(cfg.Engine); err != nil {
		errs = append(errs, "engine must be one of: permutation, rejection")
	}
	if !validLogLevel(cfg.LogLevel) {
		errs = append(errs, "log_level must be one of: "+strings.Join(logLevels, ", "))
	}
	if cfg.WatchInterval <= 0 {
		errs = append(errs, "watch_interval must be > 0")
	}
	if cfg.GRPCAddr == "" {
		errs = append(errs, "grpc_addr must not be empty")
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(errs, "; "))
	}
	return nil
}

func validLogLevel(s string) bool {
	for _, l := range logLevels {
		if strings.EqualFold(s, l) {
			return true
		}
	}
	return false
}
