package config

import "time"

// Config is the resolved run configuration shared by the CLI and the daemon.
type Config struct {
	Iterations    int           `env:"HAVENSIM_ITERATIONS"`
	Seed          uint64        `env:"HAVENSIM_SEED"` // 0 = draw a fresh seed per run
	Engine        string        `env:"HAVENSIM_ENGINE"`
	Parallel      bool          `env:"HAVENSIM_PARALLEL"`
	LogLevel      string        `env:"HAVENSIM_LOG_LEVEL"`
	HistoryDB     string        `env:"HAVENSIM_HISTORY_DB"` // empty disables history
	WatchInterval time.Duration `env:"HAVENSIM_WATCH_INTERVAL"`
	GRPCAddr      string        `env:"HAVENSIM_GRPC_ADDR"`
}

// RawConfig is one layer of configuration as written in a YAML file or set
// on the command line. Nil fields leave the layer below untouched.
type RawConfig struct {
	Iterations    *int           `yaml:"iterations"`
	Seed          *uint64        `yaml:"seed"`
	Engine        *string        `yaml:"engine"`
	Parallel      *bool          `yaml:"parallel"`
	LogLevel      *string        `yaml:"log_level"`
	HistoryDB     *string        `yaml:"history_db"`
	WatchInterval *time.Duration `yaml:"watch_interval"`
	GRPCAddr      *string        `yaml:"grpc_addr"`
}
