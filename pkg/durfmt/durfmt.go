package durfmt

import (
	"fmt"
	"math"
	"time"
)

// Formatter turns an elapsed duration into its display string.
type Formatter func(d time.Duration) string

const (
	NameHuman    = "human"
	NameSortable = "sortable"
)

// ByName returns the Formatter registered under name.
func ByName(name string) (Formatter, error) {
	switch name {
	case "", NameHuman:
		return Human, nil
	case NameSortable:
		return Sortable, nil
	default:
		return nil, fmt.Errorf("unknown duration format %q (want %q or %q)", name, NameHuman, NameSortable)
	}
}

// Human formats d like "15h4m5.42s" or "424.2ms", or "" for a negligible duration.
func Human(d time.Duration) string {
	return string(AppendHuman(make([]byte, 0, 16), d))
}

// AppendHuman appends the Human rendering of d to dst.
func AppendHuman(dst []byte, d time.Duration) []byte {
	if d < 0 {
		d = 0
	}
	ts := int64(d / time.Second)
	ns := int64(d % time.Second)

	switch {
	case ts > 0:
		cs := int64(math.Round(float64(ns) / 10_000_000))
		if cs == 100 {
			// carry into the seconds so we never print "x.100s"
			ts++
			cs = 0
		}

		s := ts
		if ts >= 86400 {
			dst = fmt.Appendf(dst, "%dd", s/86400)
			s %= 86400
		}
		if ts >= 3600 {
			dst = fmt.Appendf(dst, "%dh", s/3600)
			s %= 3600
		}
		if ts >= 60 {
			dst = fmt.Appendf(dst, "%dm", s/60)
			s %= 60
		}
		return fmt.Appendf(dst, "%d.%02ds", s, cs)
	case ns > 100_000:
		return fmt.Appendf(dst, "%.1fms", float64(ns)/1_000_000)
	case ns > 100:
		return fmt.Appendf(dst, "%.1fμs", float64(ns)/1_000)
	default:
		return dst
	}
}

// Sortable formats d as "15:04:05.421224", which sorts lexicographically.
func Sortable(d time.Duration) string {
	return string(AppendSortable(make([]byte, 0, 16), d))
}

// AppendSortable appends the Sortable rendering of d to dst.
func AppendSortable(dst []byte, d time.Duration) []byte {
	if d < 0 {
		d = 0
	}
	ts := int64(d / time.Second)
	us := int64(d%time.Second) / 1000
	return fmt.Appendf(dst, "%02d:%02d:%02d.%06d", ts/3600, (ts%3600)/60, ts%60, us)
}
