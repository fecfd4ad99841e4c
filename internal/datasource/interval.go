package datasource

import (
	"fmt"
	"strconv"
	"strings"
)

// Interval is an allowed value range for a threshold rule. A value outside
// the interval violates the rule. Either bound may be absent.
type Interval struct {
	Min *float64 `json:"min,omitempty"`
	Max *float64 `json:"max,omitempty"`
}

// ParseInterval parses the configuration forms "min:max", "min:", ":max",
// "max" and "" (no rule).
func ParseInterval(s string) (Interval, error) {
	if strings.Count(s, ":") > 1 {
		return Interval{}, fmt.Errorf("invalid interval %q", s)
	}
	s = strings.TrimPrefix(s, ":")
	if s == "" {
		return Interval{}, nil
	}
	switch {
	case !strings.Contains(s, ":"):
		max, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return Interval{}, fmt.Errorf("invalid interval %q: %w", s, err)
		}
		return Interval{Max: &max}, nil
	case strings.HasSuffix(s, ":"):
		min, err := strconv.ParseFloat(strings.TrimSuffix(s, ":"), 64)
		if err != nil {
			return Interval{}, fmt.Errorf("invalid interval %q: %w", s, err)
		}
		return Interval{Min: &min}, nil
	default:
		parts := strings.SplitN(s, ":", 2)
		min, err := strconv.ParseFloat(parts[0], 64)
		if err != nil {
			return Interval{}, fmt.Errorf("invalid interval %q: %w", s, err)
		}
		max, err := strconv.ParseFloat(parts[1], 64)
		if err != nil {
			return Interval{}, fmt.Errorf("invalid interval %q: %w", s, err)
		}
		return Interval{Min: &min, Max: &max}, nil
	}
}

// MustInterval is ParseInterval for literals in plugin defaults; it panics
// on malformed input.
func MustInterval(s string) Interval {
	iv, err := ParseInterval(s)
	if err != nil {
		panic(err)
	}
	return iv
}

// IsZero reports whether the interval carries no rule at all.
func (iv Interval) IsZero() bool {
	return iv.Min == nil && iv.Max == nil
}

// Outside reports whether v violates the interval.
func (iv Interval) Outside(v float64) bool {
	if iv.Min != nil && v < *iv.Min {
		return true
	}
	if iv.Max != nil && v > *iv.Max {
		return true
	}
	return false
}
