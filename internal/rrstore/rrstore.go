// Package rrstore implements the fixed-size round-robin time-series files
// that back datasources. One file holds one series: a schema plus a ring of
// value slots, one slot per step interval. NaN is the unknown sentinel for
// a sample that could not be read.
//
// A series has exactly one writer process-wide; the store itself does no
// locking on the append path.
package rrstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"time"
)

// Kind describes how the values of a series are to be interpreted.
type Kind string

const (
	Gauge    Kind = "gauge"
	Counter  Kind = "counter"
	Derive   Kind = "derive"
	Absolute Kind = "absolute"
)

// Valid reports whether k is one of the known series kinds.
func (k Kind) Valid() bool {
	switch k {
	case Gauge, Counter, Derive, Absolute:
		return true
	}
	return false
}

var (
	// ErrOutOfOrder is returned by Append when the sample's timestamp does
	// not advance the series beyond its most recent slot.
	ErrOutOfOrder = errors.New("sample does not advance the series")

	// ErrSchemaMismatch is returned by OpenOrCreate when an existing file
	// cannot serve the requested schema.
	ErrSchemaMismatch = errors.New("existing series has incompatible schema")
)

// Schema describes the shape of a series. It is fixed at creation time.
type Schema struct {
	Step      time.Duration `json:"step"`
	Heartbeat time.Duration `json:"heartbeat"`
	Kind      Kind          `json:"kind"`
	Min       *float64      `json:"min,omitempty"`
	Max       *float64      `json:"max,omitempty"`
	Slots     int           `json:"slots"`
}

func (s Schema) validate() error {
	if s.Step < time.Second || s.Step%time.Second != 0 {
		return fmt.Errorf("step must be a whole number of seconds, got %v", s.Step)
	}
	if s.Heartbeat <= 0 {
		return fmt.Errorf("heartbeat must be positive, got %v", s.Heartbeat)
	}
	if !s.Kind.Valid() {
		return fmt.Errorf("invalid series kind %q", s.Kind)
	}
	if s.Slots <= 0 {
		return fmt.Errorf("slot count must be positive, got %d", s.Slots)
	}
	return nil
}

// Compatible reports whether a series created with schema s can keep serving
// a datasource declared with schema other. Step, kind and slot count are
// structural; heartbeat and value bounds are advisory and may differ.
func (s Schema) Compatible(other Schema) bool {
	return s.Step == other.Step && s.Kind == other.Kind && s.Slots == other.Slots
}

// SlotsFor returns a slot count covering roughly one week at the given step,
// clamped to a sane range.
func SlotsFor(step time.Duration) int {
	const retention = 7 * 24 * time.Hour
	n := int(retention / step)
	if n < 100 {
		return 100
	}
	if n > 10080 {
		return 10080
	}
	return n
}

// Sample is one recorded value and the time of its slot.
type Sample struct {
	Time  time.Time
	Value float64 // NaN when the slot is unknown
}

// Series is an open round-robin series file.
type Series struct {
	path     string
	schema   Schema
	lastStep int64 // step index of the most recent slot, -1 when empty
	head     int   // ring position of lastStep
	slots    []*float64
}

// document is the on-disk representation of a series.
type document struct {
	Schema   Schema     `json:"schema"`
	LastStep int64      `json:"last_step"`
	Head     int        `json:"head"`
	Slots    []*float64 `json:"slots"`
}

// Create writes a new, empty series file. It fails if the file already exists.
func Create(path string, schema Schema) (*Series, error) {
	if err := schema.validate(); err != nil {
		return nil, fmt.Errorf("create %s: %w", path, err)
	}
	if _, err := os.Stat(path); err == nil {
		return nil, fmt.Errorf("create %s: %w", path, os.ErrExist)
	}
	s := &Series{
		path:     path,
		schema:   schema,
		lastStep: -1,
		slots:    make([]*float64, schema.Slots),
	}
	if err := s.save(); err != nil {
		return nil, err
	}
	return s, nil
}

// Open loads an existing series file.
func Open(path string) (*Series, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("open series: %w", err)
	}
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	if err := doc.Schema.validate(); err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	if len(doc.Slots) != doc.Schema.Slots || doc.Head < 0 || doc.Head >= len(doc.Slots) {
		return nil, fmt.Errorf("open %s: corrupt ring layout", path)
	}
	return &Series{
		path:     path,
		schema:   doc.Schema,
		lastStep: doc.LastStep,
		head:     doc.Head,
		slots:    doc.Slots,
	}, nil
}

// OpenOrCreate opens the series at path, creating it with the given schema
// when absent. Creation is idempotent: losing a create race to another
// caller is fine as long as the existing file is schema-compatible.
func OpenOrCreate(path string, schema Schema) (*Series, error) {
	s, err := Open(path)
	if errors.Is(err, os.ErrNotExist) {
		s, err = Create(path, schema)
		if errors.Is(err, os.ErrExist) {
			s, err = Open(path)
		}
	}
	if err != nil {
		return nil, err
	}
	if !s.schema.Compatible(schema) {
		return nil, fmt.Errorf("%s: %w", path, ErrSchemaMismatch)
	}
	return s, nil
}

// Schema returns the schema the series was created with.
func (s *Series) Schema() Schema {
	return s.schema
}

// Append records one sample. The timestamp must fall into a later step slot
// than the previous append; duplicates and out-of-order samples fail with
// ErrOutOfOrder. Steps skipped since the last append are recorded as
// unknown. The sample is durable when Append returns.
func (s *Series) Append(t time.Time, v float64) error {
	step := t.Unix() / int64(s.schema.Step/time.Second)
	if s.lastStep >= 0 {
		if step <= s.lastStep {
			return fmt.Errorf("append at %v: %w", t, ErrOutOfOrder)
		}
		gap := step - s.lastStep
		if gap > int64(len(s.slots)) {
			gap = int64(len(s.slots))
		}
		for i := int64(1); i < gap; i++ {
			s.head = (s.head + 1) % len(s.slots)
			s.slots[s.head] = nil
		}
		s.head = (s.head + 1) % len(s.slots)
	}
	if math.IsNaN(v) {
		s.slots[s.head] = nil
	} else {
		vv := v
		s.slots[s.head] = &vv
	}
	s.lastStep = step
	return s.save()
}

// Latest returns the most recent slot and its timestamp. The second return
// value is false for a series that has never been appended to.
func (s *Series) Latest() (Sample, bool) {
	if s.lastStep < 0 {
		return Sample{}, false
	}
	sample := Sample{
		Time:  time.Unix(s.lastStep*int64(s.schema.Step/time.Second), 0),
		Value: math.NaN(),
	}
	if p := s.slots[s.head]; p != nil {
		sample.Value = *p
	}
	return sample, true
}

// save writes the series atomically (write to a temp file, then rename).
func (s *Series) save() error {
	doc := document{
		Schema:   s.schema,
		LastStep: s.lastStep,
		Head:     s.head,
		Slots:    s.slots,
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal series: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("write series: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("write series: %w", err)
	}
	return nil
}
