// Package limits classifies the latest value of every known datasource
// against its configured thresholds and tracks the classification across
// invocations. One evaluation pass reads the data directory, updates one
// state record per datasource under the state directory and reports the
// transitions.
package limits

import (
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/smtool/smt/internal/datasource"
	"github.com/smtool/smt/internal/rrstore"
)

// State is a classification label.
type State string

const (
	StateNominal  State = "nominal"
	StateWarning  State = "warning"
	StateCritical State = "critical"
	StateUnknown  State = "unknown"
)

func (s State) valid() bool {
	switch s {
	case StateNominal, StateWarning, StateCritical, StateUnknown:
		return true
	}
	return false
}

// Result is the outcome of evaluating one datasource.
type Result struct {
	Identifier string
	Previous   State
	Current    State
	Value      float64 // NaN when the latest sample was missing
}

// Changed reports whether the pass produced a state transition.
func (r Result) Changed() bool {
	return r.Previous != r.Current
}

// Evaluator performs one full pass over all datasources under a data
// directory. It never mutates time-series data, only state records.
type Evaluator struct {
	dataDir     string
	stateDir    string
	unknownSkip int
	now         func() time.Time
	log         *slog.Logger
}

// New builds an evaluator. Both directories must exist; anything else is
// fatal to the invocation.
func New(dataDir, stateDir string, unknownSkip int) (*Evaluator, error) {
	for _, dir := range []string{dataDir, stateDir} {
		info, err := os.Stat(dir)
		if err != nil {
			return nil, fmt.Errorf("limits: %w", err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("limits: %s is not a directory", dir)
		}
	}
	if unknownSkip < 0 {
		return nil, fmt.Errorf("limits: unknown-skip must not be negative, got %d", unknownSkip)
	}
	return &Evaluator{
		dataDir:     dataDir,
		stateDir:    stateDir,
		unknownSkip: unknownSkip,
		now:         time.Now,
		log:         slog.With("component", "limits"),
	}, nil
}

// CheckAll evaluates every datasource discoverable under the data directory,
// in sorted identifier order. A datasource that cannot be evaluated is
// logged and skipped; it never aborts the pass.
func (e *Evaluator) CheckAll() ([]Result, error) {
	entries, err := os.ReadDir(e.dataDir)
	if err != nil {
		return nil, fmt.Errorf("limits: %w", err)
	}

	var ids []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, ".json"))
	}
	sort.Strings(ids)

	results := make([]Result, 0, len(ids))
	for _, id := range ids {
		res, err := e.check(id)
		if err != nil {
			e.log.Warn("could not check datasource", "datasource", id, "err", err)
			continue
		}
		results = append(results, res)
	}
	return results, nil
}

// check evaluates one datasource and persists its new state record.
func (e *Evaluator) check(id string) (Result, error) {
	meta, err := datasource.ReadMetadata(filepath.Join(e.dataDir, id+".json"))
	if err != nil {
		return Result{}, err
	}
	series, err := rrstore.Open(filepath.Join(e.dataDir, id+".rr"))
	if err != nil {
		return Result{}, err
	}

	rec := e.loadRecord(id)
	prev := rec.State

	sample, ok := series.Latest()
	// A sample older than the heartbeat is as good as missing.
	missing := !ok || math.IsNaN(sample.Value) ||
		e.now().Sub(sample.Time) > series.Schema().Heartbeat

	value := math.NaN()
	if missing {
		rec.Unknowns++
		if rec.Unknowns > e.unknownSkip {
			rec.State = StateUnknown
			rec.Value = nil
		}
		// Within the grace period the previous classification stands;
		// isolated missed samples must not flip the state.
	} else {
		value = sample.Value
		rec.Unknowns = 0
		rec.State = classify(value, meta.Limits)
		rec.Value = &value
	}
	rec.Updated = e.now().Unix()

	if err := e.saveRecord(id, rec); err != nil {
		return Result{}, err
	}
	return Result{Identifier: id, Previous: prev, Current: rec.State, Value: value}, nil
}

// classify picks the most severe violated threshold; configuration order
// within one severity does not matter because each severity has a single
// interval.
func classify(v float64, limits map[string]datasource.Interval) State {
	if iv, ok := limits["critical"]; ok && iv.Outside(v) {
		return StateCritical
	}
	if iv, ok := limits["warning"]; ok && iv.Outside(v) {
		return StateWarning
	}
	return StateNominal
}
