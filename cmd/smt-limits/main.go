// Package main implements smt-limits, the one-shot threshold check. It
// evaluates the latest sample of every known datasource, persists the new
// classification state and prints one row per datasource:
//
//	previous current value identifier
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/smtool/smt/internal/config"
	"github.com/smtool/smt/internal/limits"
)

func main() {
	configPath := flag.String("config", "", "path to YAML configuration file")
	dataDir := flag.String("data-dir", "", "override the configured data directory")
	stateDir := flag.String("state-dir", "", "override the configured state directory")
	unknownSkip := flag.Int("unknown-skip", -1, "override the configured unknown-skip")
	changedOnly := flag.Bool("changed", false, "print only datasources whose state changed")
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("invalid configuration", "err", err)
		os.Exit(1)
	}
	if *dataDir == "" {
		*dataDir = cfg.DataDir
	}
	if *stateDir == "" {
		*stateDir = cfg.StateDir
	}
	if *unknownSkip < 0 {
		*unknownSkip = cfg.Limits.UnknownSkip
	}

	ev, err := limits.New(*dataDir, *stateDir, *unknownSkip)
	if err != nil {
		slog.Error("limits check aborted", "err", err)
		os.Exit(1)
	}
	results, err := ev.CheckAll()
	if err != nil {
		slog.Error("limits check aborted", "err", err)
		os.Exit(1)
	}

	for _, res := range results {
		if *changedOnly && !res.Changed() {
			continue
		}
		fmt.Printf("%s %s %g %s\n", res.Previous, res.Current, res.Value, res.Identifier)
	}
}
