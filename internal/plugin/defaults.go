package plugin

import (
	"github.com/smtool/smt/internal/config"
	"github.com/smtool/smt/internal/plugin/cpu"
	"github.com/smtool/smt/internal/plugin/disk"
	"github.com/smtool/smt/internal/plugin/loadavg"
	"github.com/smtool/smt/internal/plugin/memory"
	"github.com/smtool/smt/internal/plugin/thermal"
	"github.com/smtool/smt/internal/plugin/users"
)

// Global is the registry the daemon resolves configured plugins against.
var Global = NewRegistry()

func init() {
	Global.Register("cpu", func(name string, cfg config.PluginConfig) (Collector, error) {
		return cpu.New(name, cfg)
	})
	Global.Register("disk", func(name string, cfg config.PluginConfig) (Collector, error) {
		return disk.New(name, cfg)
	})
	Global.Register("loadavg", func(name string, cfg config.PluginConfig) (Collector, error) {
		return loadavg.New(name, cfg)
	})
	Global.Register("memory", func(name string, cfg config.PluginConfig) (Collector, error) {
		return memory.New(name, cfg)
	})
	Global.Register("thermal", func(name string, cfg config.PluginConfig) (Collector, error) {
		return thermal.New(name, cfg)
	})
	Global.Register("users", func(name string, cfg config.PluginConfig) (Collector, error) {
		return users.New(name, cfg)
	})
}
