// Package plugin defines the collector contract and the per-plugin
// execution lifecycle. Every plugin runs its sampling loop on its own
// goroutine, owns its datasources exclusively and observes a shared,
// cooperative stop signal.
package plugin

import (
	"context"
	"time"

	"github.com/smtool/smt/internal/datasource"
)

// Collector is one named unit of work producing values for its own set of
// datasources on a repeating schedule.
type Collector interface {
	// Name returns the plugin name, used for logging and as the first
	// component of its datasource identifiers.
	Name() string

	// Interval is the sampling interval.
	Interval() time.Duration

	// Datasources returns the datasources this plugin owns. The set is
	// fixed after construction.
	Datasources() []*datasource.Datasource

	// Collect computes one value per owned datasource name. A key missing
	// from the result, or a non-nil error, turns into an unknown sample
	// for the affected datasources; it never stops the sampling loop.
	// Implementations may return partial results alongside an error.
	Collect(ctx context.Context) (map[string]float64, error)
}
