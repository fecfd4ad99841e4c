// Package datasource ties a named metric stream to its backing round-robin
// series file and metadata sidecar under the data directory.
//
// A datasource identifier is "<plugin>.<safe-name>" and must be unique
// across the whole running configuration; the runner validates that once at
// startup. Appends for one identifier come from a single goroutine (the
// owning plugin's worker), so the append path needs no locking.
package datasource

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/smtool/smt/internal/rrstore"
)

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9_-]`)

// Options carries the optional pieces of a datasource declaration.
type Options struct {
	// SafeName overrides the filename-safe form of the datasource name.
	SafeName string

	Title       string
	Description string

	// Warning and Critical are the allowed value ranges for the limits
	// pass. A zero interval means no rule.
	Warning  Interval
	Critical Interval
}

// Metadata is the sidecar document describing a datasource, written next to
// its series file. The limits evaluator discovers datasources through these
// files.
type Metadata struct {
	UpdateInterval int                 `json:"update_interval"` // seconds
	Title          string              `json:"title"`
	Description    string              `json:"description"`
	Limits         map[string]Interval `json:"limits"`
}

// Datasource is one named metric stream owned by a plugin.
type Datasource struct {
	plugin   string
	name     string
	safeName string
	schema   rrstore.Schema
	opts     Options
	series   *rrstore.Series
}

// New declares a datasource owned by the named plugin. A zero schema
// heartbeat defaults to 2.5 times the step.
func New(plugin, name string, schema rrstore.Schema, opts Options) *Datasource {
	if opts.SafeName == "" {
		opts.SafeName = name
	}
	if opts.Title == "" {
		opts.Title = name
	}
	if schema.Heartbeat == 0 {
		schema.Heartbeat = schema.Step * 5 / 2
	}
	if schema.Slots == 0 {
		schema.Slots = rrstore.SlotsFor(schema.Step)
	}
	return &Datasource{
		plugin:   unsafeChars.ReplaceAllString(plugin, "_"),
		name:     name,
		safeName: unsafeChars.ReplaceAllString(opts.SafeName, "_"),
		schema:   schema,
		opts:     opts,
	}
}

// Name returns the declared datasource name, as used in Collect results.
func (d *Datasource) Name() string {
	return d.name
}

// ID returns the process-wide unique identifier of the datasource.
func (d *Datasource) ID() string {
	return d.plugin + "." + d.safeName
}

// Schema returns the series schema the datasource was declared with.
func (d *Datasource) Schema() rrstore.Schema {
	return d.schema
}

// Resolve maps the datasource identifier to its series path under dataDir.
// The sanitized identifier cannot traverse outside the directory; Resolve
// verifies that anyway.
func (d *Datasource) Resolve(dataDir string) (string, error) {
	if d.plugin == "" || d.safeName == "" {
		return "", fmt.Errorf("datasource %q: invalid identifier", d.name)
	}
	path := filepath.Join(dataDir, d.ID()+".rr")
	if filepath.Dir(path) != filepath.Clean(dataDir) {
		return "", fmt.Errorf("datasource %s: resolves outside data directory", d.ID())
	}
	return path, nil
}

// MetadataPath returns the path of the metadata sidecar under dataDir.
func (d *Datasource) MetadataPath(dataDir string) string {
	return filepath.Join(dataDir, d.ID()+".json")
}

// EnsureCreated opens the backing series, creating it when absent, and
// writes the metadata sidecar on first creation. An existing series with an
// incompatible schema is a configuration error; the runner surfaces it
// before any plugin starts.
func (d *Datasource) EnsureCreated(dataDir string) error {
	path, err := d.Resolve(dataDir)
	if err != nil {
		return err
	}
	series, err := rrstore.OpenOrCreate(path, d.schema)
	if err != nil {
		return fmt.Errorf("datasource %s: %w", d.ID(), err)
	}
	d.series = series
	if err := d.writeMetadata(dataDir); err != nil {
		return fmt.Errorf("datasource %s: %w", d.ID(), err)
	}
	return nil
}

// Append records one sample. NaN marks a failed read. EnsureCreated must
// have succeeded first.
func (d *Datasource) Append(t time.Time, v float64) error {
	if d.series == nil {
		return fmt.Errorf("datasource %s: append before EnsureCreated", d.ID())
	}
	if err := d.series.Append(t, v); err != nil {
		return fmt.Errorf("datasource %s: %w", d.ID(), err)
	}
	return nil
}

// writeMetadata creates the sidecar if it does not exist yet. An existing
// sidecar is left alone so hand edits survive restarts.
func (d *Datasource) writeMetadata(dataDir string) error {
	path := d.MetadataPath(dataDir)
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return err
	}

	meta := Metadata{
		UpdateInterval: int(d.schema.Step / time.Second),
		Title:          d.opts.Title,
		Description:    d.opts.Description,
		Limits:         map[string]Interval{},
	}
	if !d.opts.Warning.IsZero() {
		meta.Limits["warning"] = d.opts.Warning
	}
	if !d.opts.Critical.IsZero() {
		meta.Limits["critical"] = d.opts.Critical
	}

	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// ReadMetadata loads a datasource metadata sidecar.
func ReadMetadata(path string) (Metadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Metadata{}, fmt.Errorf("read metadata: %w", err)
	}
	var meta Metadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return Metadata{}, fmt.Errorf("parse metadata %s: %w", path, err)
	}
	return meta, nil
}
