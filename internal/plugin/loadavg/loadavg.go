// Package loadavg samples the system load averages.
package loadavg

import (
	"context"
	"fmt"
	"time"

	"github.com/shirou/gopsutil/v3/load"

	"github.com/smtool/smt/internal/config"
	"github.com/smtool/smt/internal/datasource"
	"github.com/smtool/smt/internal/rrstore"
)

const defaultInterval = 5 * time.Minute

var windows = []string{"1min", "5min", "15min"}

type Plugin struct {
	name     string
	interval time.Duration
	ds       []*datasource.Datasource
}

// New builds the loadavg plugin. Settings: "windows" (subset of 1min, 5min,
// 15min; default 5min only), "warning" and "critical" threshold intervals.
func New(name string, cfg config.PluginConfig) (*Plugin, error) {
	interval := cfg.Interval
	if interval <= 0 {
		interval = defaultInterval
	}
	selected := config.Strings(cfg.Settings, "windows")
	if len(selected) == 0 {
		selected = []string{"5min"}
	}
	warning, err := datasource.ParseInterval(config.String(cfg.Settings, "warning", ""))
	if err != nil {
		return nil, err
	}
	critical, err := datasource.ParseInterval(config.String(cfg.Settings, "critical", ""))
	if err != nil {
		return nil, err
	}

	zero := 0.0
	schema := rrstore.Schema{
		Step: interval,
		Kind: rrstore.Gauge,
		Min:  &zero,
	}

	p := &Plugin{name: name, interval: interval}
	for _, window := range selected {
		if !validWindow(window) {
			return nil, fmt.Errorf("invalid load average window %q", window)
		}
		p.ds = append(p.ds, datasource.New(name, window, schema, datasource.Options{
			Title:       fmt.Sprintf("%s load", window),
			Description: fmt.Sprintf("%s system load average.", window),
			Warning:     warning,
			Critical:    critical,
		}))
	}
	return p, nil
}

func validWindow(w string) bool {
	for _, known := range windows {
		if w == known {
			return true
		}
	}
	return false
}

func (p *Plugin) Name() string { return p.name }

func (p *Plugin) Interval() time.Duration { return p.interval }

func (p *Plugin) Datasources() []*datasource.Datasource { return p.ds }

func (p *Plugin) Collect(ctx context.Context) (map[string]float64, error) {
	avg, err := load.AvgWithContext(ctx)
	if err != nil {
		return nil, err
	}
	all := map[string]float64{
		"1min":  avg.Load1,
		"5min":  avg.Load5,
		"15min": avg.Load15,
	}
	values := make(map[string]float64, len(p.ds))
	for _, ds := range p.ds {
		values[ds.Name()] = all[ds.Name()]
	}
	return values, nil
}
