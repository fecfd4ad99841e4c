package plugin

import (
	"fmt"
	"sort"

	"github.com/smtool/smt/internal/config"
)

// Factory constructs a collector from its configuration block. The name is
// the plugin's config key.
type Factory func(name string, cfg config.PluginConfig) (Collector, error)

// Registry maps collector kinds to their factories.
type Registry struct {
	factories map[string]Factory
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a factory under the given kind. A later registration for
// the same kind wins.
func (r *Registry) Register(kind string, f Factory) {
	r.factories[kind] = f
}

// Kinds returns all registered kinds, sorted.
func (r *Registry) Kinds() []string {
	kinds := make([]string, 0, len(r.factories))
	for kind := range r.factories {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	return kinds
}

// Create constructs a collector of the given kind.
func (r *Registry) Create(kind string, cfg config.PluginConfig) (Collector, error) {
	f, ok := r.factories[kind]
	if !ok {
		return nil, fmt.Errorf("unknown plugin kind %q", kind)
	}
	col, err := f(kind, cfg)
	if err != nil {
		return nil, fmt.Errorf("plugin %s: %w", kind, err)
	}
	return col, nil
}

// CreateAll constructs every enabled plugin from the configuration, in
// sorted name order. A configured plugin with no registered factory is a
// configuration error.
func (r *Registry) CreateAll(cfg *config.Config) ([]Collector, error) {
	names := make([]string, 0, len(cfg.Plugins))
	for name := range cfg.Plugins {
		names = append(names, name)
	}
	sort.Strings(names)

	var collectors []Collector
	for _, name := range names {
		pc := cfg.Plugins[name]
		if !pc.Enabled {
			continue
		}
		col, err := r.Create(name, pc)
		if err != nil {
			return nil, err
		}
		collectors = append(collectors, col)
	}
	return collectors, nil
}
