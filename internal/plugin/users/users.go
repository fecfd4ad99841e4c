// Package users samples the number of logged-in users.
package users

import (
	"context"
	"time"

	"github.com/shirou/gopsutil/v3/host"

	"github.com/smtool/smt/internal/config"
	"github.com/smtool/smt/internal/datasource"
	"github.com/smtool/smt/internal/rrstore"
)

const (
	defaultInterval = 5 * time.Minute
	dsLoggedIn      = "logged-in"
)

type Plugin struct {
	name     string
	interval time.Duration
	ds       []*datasource.Datasource
}

// New builds the users plugin. Settings: "warning" and "critical" thresholds
// on the user count.
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

	zero := 0.0
	schema := rrstore.Schema{
		Step: interval,
		Kind: rrstore.Gauge,
		Min:  &zero,
	}
	ds := datasource.New(name, dsLoggedIn, schema, datasource.Options{
		Title:       "Logged-in users",
		Description: "Number of users currently logged in.",
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
	sessions, err := host.UsersWithContext(ctx)
	if err != nil {
		return nil, err
	}
	return map[string]float64{dsLoggedIn: float64(len(sessions))}, nil
}
