// Package runner coordinates the configured plugins: it validates the whole
// set before anything starts, runs every plugin on its own worker and drives
// total-or-nothing shutdown.
package runner

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/smtool/smt/internal/plugin"
)

type Runner struct {
	dataDir    string
	collectors []plugin.Collector
	log        *slog.Logger
}

func New(dataDir string, collectors []plugin.Collector) *Runner {
	return &Runner{
		dataDir:    dataDir,
		collectors: collectors,
		log:        slog.With("component", "runner"),
	}
}

// Validate checks the configuration once, before any plugin starts: every
// datasource identifier must be unique across all plugins, and every backing
// series must exist with a compatible schema. Any violation is fatal.
func (r *Runner) Validate() error {
	owners := make(map[string]string)
	for _, col := range r.collectors {
		if len(col.Datasources()) == 0 {
			return fmt.Errorf("plugin %s declares no datasources", col.Name())
		}
		for _, ds := range col.Datasources() {
			id := ds.ID()
			if owner, taken := owners[id]; taken {
				return fmt.Errorf("datasource %s claimed by plugins %s and %s", id, owner, col.Name())
			}
			owners[id] = col.Name()
		}
	}

	for _, col := range r.collectors {
		for _, ds := range col.Datasources() {
			if err := ds.EnsureCreated(r.dataDir); err != nil {
				return fmt.Errorf("plugin %s: %w", col.Name(), err)
			}
		}
	}
	return nil
}

// Run starts every plugin, blocks until ctx is cancelled, then stops all
// plugins and joins each in turn. When Run returns, no plugin is writing
// anymore.
func (r *Runner) Run(ctx context.Context) {
	workers := make([]*plugin.Worker, len(r.collectors))
	for i, col := range r.collectors {
		workers[i] = plugin.NewWorker(ctx, col)
		workers[i].Start()
		r.log.Info("started plugin", "name", col.Name())
	}

	<-ctx.Done()
	r.log.Info("stop requested, shutting down")

	for _, w := range workers {
		w.Stop()
	}
	for i, w := range workers {
		r.log.Info("waiting for plugin", "name", r.collectors[i].Name())
		w.Join()
	}
	r.log.Info("all plugins stopped")
}
