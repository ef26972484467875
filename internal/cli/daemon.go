package cli

import (
	"context"
	"flag"

	"go.uber.org/zap"

	"github.com/xtding233/havensim/internal/config"
	"github.com/xtding233/havensim/internal/deck"
	"github.com/xtding233/havensim/internal/history"
	"github.com/xtding233/havensim/internal/server"
)

// ParseDaemonConfig resolves havensimd configuration the same way as
// ParseConfig, with the daemon's smaller flag set.
func ParseDaemonConfig(fs *flag.FlagSet, args []string) (config.Config, error) {
	var (
		configPath string
		addr       string
		iterations int
		engine     string
		logLevel   string
		historyDB  string
	)
	fs.StringVar(&configPath, "config", "", "YAML run configuration file")
	fs.StringVar(&addr, "addr", config.DefaultGRPCAddr, "gRPC listen address")
	fs.IntVar(&iterations, "n", config.DefaultIterations, "default attacks per scenario when a request sets none")
	fs.StringVar(&engine, "engine", "permutation", "default deck engine")
	fs.StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")
	fs.StringVar(&historyDB, "history", "", "SQLite file to record runs in")
	if err := fs.Parse(args); err != nil {
		return config.Config{}, err
	}

	var flags config.RawConfig
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "addr":
			flags.GRPCAddr = &addr
		case "n":
			flags.Iterations = &iterations
		case "engine":
			flags.Engine = &engine
		case "log-level":
			flags.LogLevel = &logLevel
		case "history":
			flags.HistoryDB = &historyDB
		}
	})
	// the daemon logs each call, so it defaults to info
	base := config.Defaults()
	base.LogLevel = "info"
	return config.LoadOver(base, configPath, flags)
}

// RunDaemon serves the simulator over gRPC until ctx is canceled.
func RunDaemon(ctx context.Context, cfg config.Config, log *zap.Logger) error {
	if log == nil {
		log = zap.NewNop()
	}
	strategy, err := deck.ParseStrategy(cfg.Engine)
	if err != nil {
		return err
	}
	var store *history.Store
	if cfg.HistoryDB != "" {
		if store, err = history.Open(ctx, cfg.HistoryDB); err != nil {
			return err
		}
		defer store.Close()
	}

	svc := server.NewService(cfg.Iterations, strategy, store, log)
	srv, err := server.New(cfg.GRPCAddr, svc, log)
	if err != nil {
		return err
	}
	return srv.Serve(ctx)
}
