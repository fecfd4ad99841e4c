// Package thermal samples hardware temperature sensors. The sensor set is
// discovered once at construction time; a sensor that disappears later
// simply reports unknown.
package thermal

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shirou/gopsutil/v3/host"

	"github.com/smtool/smt/internal/config"
	"github.com/smtool/smt/internal/datasource"
	"github.com/smtool/smt/internal/rrstore"
)

const defaultInterval = 2 * time.Minute

type Plugin struct {
	name     string
	interval time.Duration
	ds       []*datasource.Datasource
}

// New builds the thermal plugin, enumerating the sensors present on this
// host. A host without readable sensors is a configuration error. Settings:
// "warning" and "critical" temperature thresholds.
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

	sensors, err := host.SensorsTemperatures()
	if err != nil && len(sensors) == 0 {
		return nil, fmt.Errorf("enumerate temperature sensors: %w", err)
	}
	keys := make(map[string]bool)
	for _, s := range sensors {
		if s.SensorKey != "" {
			keys[s.SensorKey] = true
		}
	}
	if len(keys) == 0 {
		return nil, fmt.Errorf("no temperature sensors found")
	}
	names := make([]string, 0, len(keys))
	for key := range keys {
		names = append(names, key)
	}
	sort.Strings(names)

	schema := rrstore.Schema{
		Step: interval,
		Kind: rrstore.Gauge,
	}
	p := &Plugin{name: name, interval: interval}
	for _, key := range names {
		p.ds = append(p.ds, datasource.New(name, key, schema, datasource.Options{
			Title:       key,
			Description: fmt.Sprintf("Temperature reported by sensor %s.", key),
			Warning:     warning,
			Critical:    critical,
		}))
	}
	return p, nil
}

func (p *Plugin) Name() string { return p.name }

func (p *Plugin) Interval() time.Duration { return p.interval }

func (p *Plugin) Datasources() []*datasource.Datasource { return p.ds }

func (p *Plugin) Collect(ctx context.Context) (map[string]float64, error) {
	sensors, err := host.SensorsTemperaturesWithContext(ctx)
	if err != nil && len(sensors) == 0 {
		return nil, err
	}
	values := make(map[string]float64, len(p.ds))
	for _, s := range sensors {
		values[s.SensorKey] = s.Temperature
	}
	return values, nil
}
