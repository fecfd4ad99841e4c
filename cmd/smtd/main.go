// Package main implements smtd, the sensor-monitoring daemon. It runs every
// enabled plugin concurrently in a single process, appending samples to the
// round-robin series files under the data directory until it is told to
// stop.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/smtool/smt/internal/config"
	"github.com/smtool/smt/internal/plugin"
	"github.com/smtool/smt/internal/runner"
)

func main() {
	configPath := flag.String("config", "", "path to YAML configuration file")
	flag.Parse()

	// Logging to stderr; stdout stays free.
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("invalid configuration", "err", err)
		os.Exit(1)
	}
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: config.ParseLevel(cfg.Logging.Level),
	}))
	slog.SetDefault(logger)

	collectors, err := plugin.Global.CreateAll(cfg)
	if err != nil {
		slog.Error("invalid plugin configuration", "err", err)
		os.Exit(1)
	}
	if len(collectors) == 0 {
		slog.Error("no plugins enabled", "known", plugin.Global.Kinds())
		os.Exit(1)
	}

	r := runner.New(cfg.DataDir, collectors)
	if err := r.Validate(); err != nil {
		slog.Error("validation failed", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()
	r.Run(ctx)
}
