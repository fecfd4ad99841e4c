// Package cpu samples overall processor utilisation.
package cpu

import (
	"context"
	"fmt"
	"time"

	gcpu "github.com/shirou/gopsutil/v3/cpu"

	"github.com/smtool/smt/internal/config"
	"github.com/smtool/smt/internal/datasource"
	"github.com/smtool/smt/internal/rrstore"
)

const (
	defaultInterval = 60 * time.Second
	dsBusy          = "busy-pct"
)

type Plugin struct {
	name     string
	interval time.Duration
	ds       []*datasource.Datasource
}

// New builds the cpu plugin. Settings: "warning" and "critical" threshold
// intervals (interval syntax, e.g. "90" or "10:90").
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
	ds := datasource.New(name, dsBusy, schema, datasource.Options{
		Title:       "CPU busy",
		Description: "Percentage of time the CPU spent busy.",
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
	// Utilisation since the previous call.
	pcts, err := gcpu.PercentWithContext(ctx, 0, false)
	if err != nil {
		return nil, err
	}
	if len(pcts) == 0 {
		return nil, fmt.Errorf("no cpu utilisation reported")
	}
	return map[string]float64{dsBusy: pcts[0]}, nil
}
