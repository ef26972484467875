// Package cli parses havensim flags and drives simulations for the command.
package cli

import (
	"errors"
	"flag"
	"strings"
	"time"

	"github.com/xtding233/havensim/internal/config"
)

var ErrNoInput = errors.New("no deck given: pass deck files or -builtin")

// Options is everything the command needs for one invocation.
type Options struct {
	Config      config.Config
	Paths       []string // deck files, processed in order
	Builtins    []string // embedded deck names, processed before Paths
	Verbose     bool     // also print draw statistics
	Watch       bool     // re-run deck files when they change
	HistoryList int      // print this many stored runs instead of simulating
	Remote      string   // havensimd address; empty runs locally
}

// ParseConfig resolves defaults, the optional -config file, HAVENSIM_* env
// and flags into Options. Only flags present in args override lower layers.
func ParseConfig(fs *flag.FlagSet, args []string) (Options, error) {
	var (
		opts       Options
		configPath string
		builtins   string
		iterations int
		seed       uint64
		engine     string
		parallel   bool
		logLevel   string
		historyDB  string
		interval   time.Duration
	)
	fs.StringVar(&configPath, "config", "", "YAML run configuration file")
	fs.IntVar(&iterations, "n", config.DefaultIterations, "attacks simulated per game and attack kind")
	fs.Uint64Var(&seed, "seed", 0, "random seed (0 picks one and reports it)")
	fs.StringVar(&engine, "engine", "permutation", "deck engine: permutation or rejection")
	fs.BoolVar(&parallel, "parallel", false, "simulate the six scenarios concurrently")
	fs.StringVar(&logLevel, "log-level", "warn", "log level: debug, info, warn, error")
	fs.StringVar(&historyDB, "history", "", "SQLite file to record runs in")
	fs.DurationVar(&interval, "watch-interval", config.DefaultWatchInterval, "poll interval for -watch")
	fs.StringVar(&builtins, "builtin", "", "comma-separated built-in decks to simulate")
	fs.BoolVar(&opts.Verbose, "v", false, "print draw statistics per scenario")
	fs.BoolVar(&opts.Watch, "watch", false, "re-run deck files whenever they change")
	fs.IntVar(&opts.HistoryList, "history-list", 0, "print the N most recent runs from -history and exit")
	fs.StringVar(&opts.Remote, "remote", "", "run on a havensimd daemon at this address")
	if err := fs.Parse(args); err != nil {
		return Options{}, err
	}

	var flags config.RawConfig
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "n":
			flags.Iterations = &iterations
		case "seed":
			flags.Seed = &seed
		case "engine":
			flags.Engine = &engine
		case "parallel":
			flags.Parallel = &parallel
		case "log-level":
			flags.LogLevel = &logLevel
		case "history":
			flags.HistoryDB = &historyDB
		case "watch-interval":
			flags.WatchInterval = &interval
		}
	})
	cfg, err := config.Load(configPath, flags)
	if err != nil {
		return Options{}, err
	}
	opts.Config = cfg
	opts.Paths = fs.Args()
	for _, name := range strings.Split(builtins, ",") {
		if name = strings.TrimSpace(name); name != "" {
			opts.Builtins = append(opts.Builtins, name)
		}
	}

	if opts.HistoryList > 0 {
		if cfg.HistoryDB == "" {
			return Options{}, errors.New("-history-list needs -history or HAVENSIM_HISTORY_DB")
		}
		return opts, nil
	}
	if len(opts.Paths) == 0 && len(opts.Builtins) == 0 {
		return Options{}, ErrNoInput
	}
	if opts.Watch && len(opts.Paths) == 0 {
		return Options{}, errors.New("-watch needs at least one deck file")
	}
	return opts, nil
}
