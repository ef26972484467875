// Command havensimd serves attack modifier simulations over gRPC.
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
	os.Exit(run(os.Args[1:], os.Stderr))
}

// run serves until interrupted and returns the process exit code after the
// logger and tracer have been flushed.
func run(args []string, stderr io.Writer) int {
	fs := flag.NewFlagSet("havensimd", flag.ContinueOnError)
	fs.SetOutput(stderr)
	cfg, err := cli.ParseDaemonConfig(fs, args)
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		fmt.Fprintf(stderr, "havensimd: %v\n", err)
		return 1
	}
	log, err := telemetry.NewLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(stderr, "havensimd: %v\n", err)
		return 1
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdown, err := telemetry.SetupTracing(ctx, "havensimd")
	if err != nil {
		log.Warn("tracing disabled", zap.Error(err))
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdown(sctx)
	}()

	log.Info("starting", zap.String("addr", cfg.GRPCAddr), zap.String("engine", cfg.Engine))
	if err := cli.RunDaemon(ctx, cfg, log); err != nil {
		log.Error("serve", zap.Error(err))
		return 1
	}
	log.Info("stopped")
	return 0
}
