// Command havensim estimates attack modifier deck outcomes by Monte Carlo
// simulation for both Gloomhaven and Frosthaven rules.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/xtding233/havensim/internal/cli"
	"github.com/xtding233/havensim/internal/telemetry"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run returns the process exit code. Deferred cleanup has finished by the
// time it returns.
func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("havensim", flag.ContinueOnError)
	fs.SetOutput(stderr)
	opts, err := cli.ParseConfig(fs, args)
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		fmt.Fprintf(stderr, "havensim: %v\n", err)
		return 1
	}
	log, err := telemetry.NewLogger(opts.Config.LogLevel)
	if err != nil {
		fmt.Fprintf(stderr, "havensim: %v\n", err)
		return 1
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdown, err := telemetry.SetupTracing(ctx, "havensim")
	if err != nil {
		log.Warn("tracing disabled", zap.Error(err))
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdown(sctx)
	}()

	err = cli.Run(ctx, opts, stdout, stderr, log)
	switch {
	case err == nil, errors.Is(err, context.Canceled):
		return 0
	case errors.Is(err, cli.ErrDeckFailed):
		return 1
	default:
		fmt.Fprintf(stderr, "havensim: %v\n", err)
		return 1
	}
}
