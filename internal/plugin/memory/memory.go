// Package memory samples physical memory usage.
package memory

import (
	"context"
	"time"

	"github.com/shirou/gopsutil/v3/mem"

	"github.com/smtool/smt/internal/config"
	"github.com/smtool/smt/internal/datasource"
	"github.com/smtool/smt/internal/rrstore"
)

const (
	defaultInterval = 5 * time.Minute
	dsUsed          = "used-pct"
)

type Plugin struct {
	name     string
	interval time.Duration
	ds       []*datasource.Datasource
}

// New builds the memory plugin. Settings: "warning" and "critical"
// used-percentage thresholds.
func New(name string, cfg config.PluginConfig) (*Plugin, error) {
	interval := cfg.Interval
	if interval <= 0 {
		interval = defaultInterval
	}
	warning, err := datasource.ParseInterval(config.String(cfg.Settings, "warning", ""))
	if err != nil {
		return nil, err
	}
	critical, err := datasource.ParseInterval(config.String(cfg.Settings, "critical", ""))
	if err != nil {
		return nil, err
	}

	zero, hundred := 0.0, 100.0
	schema := rrstore.Schema{
		Step: interval,
		Kind: rrstore.Gauge,
		Min:  &zero,
		Max:  &hundred,
	}
	ds := datasource.New(name, dsUsed, schema, datasource.Options{
		Title:       "Memory used",
		Description: "Percentage of physical memory in use.",
		Warning:     warning,
		Critical:    critical,
	})

	return &Plugin{
		name:     name,
		interval: interval,
		ds:       []*datasource.Datasource{ds},
	}, nil
}

func (p *Plugin) Name() string { return p.name }

func (p *Plugin) Interval() time.Duration { return p.interval }

func (p *Plugin) Datasources() []*datasource.Datasource { return p.ds }

func (p *Plugin) Collect(ctx context.Context) (map[string]float64, error) {
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return nil, err
	}
	return map[string]float64{dsUsed: vm.UsedPercent}, nil
}
