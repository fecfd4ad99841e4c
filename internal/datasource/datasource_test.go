package datasource

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/smtool/smt/internal/rrstore"
)

func gaugeSchema(step time.Duration) rrstore.Schema {
	return rrstore.Schema{Step: step, Kind: rrstore.Gauge}
}

func TestParseInterval(t *testing.T) {
	f := func(v float64) *float64 { return &v }

	tests := []struct {
		in      string
		want    Interval
		wantErr bool
	}{
		{in: "", want: Interval{}},
		{in: "90", want: Interval{Max: f(90)}},
		{in: ":90", want: Interval{Max: f(90)}},
		{in: "10:", want: Interval{Min: f(10)}},
		{in: "10:90", want: Interval{Min: f(10), Max: f(90)}},
		{in: "-5:5", want: Interval{Min: f(-5), Max: f(5)}},
		{in: "1:2:3", wantErr: true},
		{in: "abc", wantErr: true},
		{in: "abc:", wantErr: true},
		{in: "1:abc", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseInterval(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseInterval(%q) accepted invalid input", tt.in)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseInterval(%q): %v", tt.in, err)
			}
			if !intervalEqual(got, tt.want) {
				t.Errorf("ParseInterval(%q) = %+v, want %+v", tt.in, got, tt.want)
			}
		})
	}
}

func intervalEqual(a, b Interval) bool {
	eq := func(x, y *float64) bool {
		if (x == nil) != (y == nil) {
			return false
		}
		return x == nil || *x == *y
	}
	return eq(a.Min, b.Min) && eq(a.Max, b.Max)
}

func TestInterval_Outside(t *testing.T) {
	iv := MustInterval("10:90")

	tests := []struct {
		v    float64
		want bool
	}{
		{5, true},
		{10, false},
		{50, false},
		{90, false},
		{95, true},
	}
	for _, tt := range tests {
		if got := iv.Outside(tt.v); got != tt.want {
			t.Errorf("Outside(%v) = %v, want %v", tt.v, got, tt.want)
		}
	}

	if MustInterval("").Outside(1e12) {
		t.Error("empty interval must never be violated")
	}
}

func TestID_SanitizesNames(t *testing.T) {
	tests := []struct {
		plugin, name string
		want         string
	}{
		{"disk", "/", "disk._"},
		{"disk", "/home", "disk._home"},
		{"thermal", "coretemp/input 0", "thermal.coretemp_input_0"},
		{"cpu", "busy-pct", "cpu.busy-pct"},
		{"bad plugin", "x", "bad_plugin.x"},
	}
	for _, tt := range tests {
		ds := New(tt.plugin, tt.name, gaugeSchema(time.Minute), Options{})
		if got := ds.ID(); got != tt.want {
			t.Errorf("New(%q, %q).ID() = %q, want %q", tt.plugin, tt.name, got, tt.want)
		}
	}
}

func TestResolve_StaysInDataDir(t *testing.T) {
	dir := t.TempDir()
	ds := New("disk", "../../etc/passwd", gaugeSchema(time.Minute), Options{})

	path, err := ds.Resolve(dir)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if filepath.Dir(path) != dir {
		t.Errorf("resolved path %q escapes %q", path, dir)
	}
	if strings.Contains(path, "..") {
		t.Errorf("resolved path %q kept traversal characters", path)
	}
}

func TestEnsureCreated_CreatesSeriesAndMetadata(t *testing.T) {
	dir := t.TempDir()
	ds := New("disk", "root-used-pct", gaugeSchema(time.Minute), Options{
		Title:    "Used space on /",
		Warning:  MustInterval("70"),
		Critical: MustInterval("90"),
	})

	if err := ds.EnsureCreated(dir); err != nil {
		t.Fatalf("EnsureCreated: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, "disk.root-used-pct.rr")); err != nil {
		t.Errorf("series file missing: %v", err)
	}

	meta, err := ReadMetadata(ds.MetadataPath(dir))
	if err != nil {
		t.Fatalf("ReadMetadata: %v", err)
	}
	if meta.UpdateInterval != 60 {
		t.Errorf("update interval = %d, want 60", meta.UpdateInterval)
	}
	if meta.Title != "Used space on /" {
		t.Errorf("title = %q", meta.Title)
	}
	if _, ok := meta.Limits["warning"]; !ok {
		t.Error("warning limit missing from metadata")
	}
	if _, ok := meta.Limits["critical"]; !ok {
		t.Error("critical limit missing from metadata")
	}
}

func TestEnsureCreated_OmitsEmptyLimits(t *testing.T) {
	dir := t.TempDir()
	ds := New("users", "logged-in", gaugeSchema(time.Minute), Options{})

	if err := ds.EnsureCreated(dir); err != nil {
		t.Fatalf("EnsureCreated: %v", err)
	}
	meta, err := ReadMetadata(ds.MetadataPath(dir))
	if err != nil {
		t.Fatalf("ReadMetadata: %v", err)
	}
	if len(meta.Limits) != 0 {
		t.Errorf("limits = %+v, want empty", meta.Limits)
	}
}

func TestEnsureCreated_SchemaMismatchIsFatal(t *testing.T) {
	dir := t.TempDir()
	ds := New("cpu", "busy-pct", gaugeSchema(time.Minute), Options{})
	if err := ds.EnsureCreated(dir); err != nil {
		t.Fatalf("EnsureCreated: %v", err)
	}

	// Same identifier, different step: the existing file wins and the new
	// declaration must fail.
	changed := New("cpu", "busy-pct", gaugeSchema(2*time.Minute), Options{})
	if err := changed.EnsureCreated(dir); err == nil {
		t.Error("EnsureCreated accepted an incompatible schema")
	}
}

func TestEnsureCreated_IsIdempotent(t *testing.T) {
	dir := t.TempDir()
	ds := New("cpu", "busy-pct", gaugeSchema(time.Minute), Options{})

	for i := 0; i < 2; i++ {
		if err := ds.EnsureCreated(dir); err != nil {
			t.Fatalf("EnsureCreated run %d: %v", i+1, err)
		}
	}
}

func TestAppend_RequiresEnsureCreated(t *testing.T) {
	ds := New("cpu", "busy-pct", gaugeSchema(time.Minute), Options{})
	if err := ds.Append(time.Now(), 1); err == nil {
		t.Error("Append before EnsureCreated must fail")
	}
}

func TestAppend_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	ds := New("cpu", "busy-pct", gaugeSchema(time.Minute), Options{})
	if err := ds.EnsureCreated(dir); err != nil {
		t.Fatalf("EnsureCreated: %v", err)
	}

	now := time.Now()
	if err := ds.Append(now, 55.5); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := ds.Append(now.Add(time.Minute), math.NaN()); err != nil {
		t.Fatalf("Append NaN: %v", err)
	}

	path, _ := ds.Resolve(dir)
	series, err := rrstore.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	sample, ok := series.Latest()
	if !ok || !math.IsNaN(sample.Value) {
		t.Errorf("latest = (%v, %v), want (NaN, true)", sample.Value, ok)
	}
}

func TestDefaultHeartbeat(t *testing.T) {
	ds := New("cpu", "busy-pct", gaugeSchema(time.Minute), Options{})
	if got := ds.Schema().Heartbeat; got != 150*time.Second {
		t.Errorf("default heartbeat = %v, want 2.5x step (150s)", got)
	}
}
