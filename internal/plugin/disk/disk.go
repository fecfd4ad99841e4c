// Package disk samples used space per mounted filesystem, as a percentage
// of capacity.
package disk

import (
	"context"
	"errors"
	"fmt"
	"time"

	gdisk "github.com/shirou/gopsutil/v3/disk"

	"github.com/smtool/smt/internal/config"
	"github.com/smtool/smt/internal/datasource"
	"github.com/smtool/smt/internal/rrstore"
)

const defaultInterval = 15 * time.Minute

type Plugin struct {
	name     string
	interval time.Duration
	mounts   []string
	ds       []*datasource.Datasource
}

// New builds the disk plugin. Settings: "mounts" (list of mount points,
// default "/"), "warning" and "critical" used-percentage thresholds
// (defaults "85" and "95").
func New(name string, cfg config.PluginConfig) (*Plugin, error) {
	interval := cfg.Interval
	if interval <= 0 {
		interval = defaultInterval
	}
	mounts := config.Strings(cfg.Settings, "mounts")
	if len(mounts) == 0 {
		mounts = []string{"/"}
	}
	warning, err := datasource.ParseInterval(config.String(cfg.Settings, "warning", "85"))
	if err != nil {
		return nil, err
	}
	critical, err := datasource.ParseInterval(config.String(cfg.Settings, "critical", "95"))
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

	p := &Plugin{name: name, interval: interval, mounts: mounts}
	for _, mount := range mounts {
		p.ds = append(p.ds, datasource.New(name, mount, schema, datasource.Options{
			Title:       fmt.Sprintf("Used space on %s", mount),
			Description: fmt.Sprintf("Percentage of used space on %s.", mount),
			Warning:     warning,
			Critical:    critical,
		}))
	}
	return p, nil
}

func (p *Plugin) Name() string { return p.name }

func (p *Plugin) Interval() time.Duration { return p.interval }

func (p *Plugin) Datasources() []*datasource.Datasource { return p.ds }

// Collect reads usage per configured mount. A mount that cannot be read is
// left out of the result so it gets an unknown sample; the others still
// report.
func (p *Plugin) Collect(ctx context.Context) (map[string]float64, error) {
	values := make(map[string]float64, len(p.mounts))
	var errs []error
	for _, mount := range p.mounts {
		usage, err := gdisk.UsageWithContext(ctx, mount)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", mount, err))
			continue
		}
		values[mount] = usage.UsedPercent
	}
	return values, errors.Join(errs...)
}
