package availability

import (
	"sort"
	"time"
)

// Interval is a half-open time range [Start, End). All scheduling math in
// this package operates on minute-granularity intervals in the
// practitioner's local time zone.
type Interval struct {
	Start time.Time
	End   time.Time
}

func (iv Interval) IsZero() bool {
	return iv.Start.IsZero() && iv.End.IsZero()
}

func (iv Interval) Duration() time.Duration {
	return iv.End.Sub(iv.Start)
}

// Overlaps reports whether the two half-open intervals share any time.
// Intervals that merely touch (one ends exactly when the other starts) do
// not overlap.
func (iv Interval) Overlaps(other Interval) bool {
	return iv.Start.Before(other.End) && other.Start.Before(iv.End)
}

// Contains reports whether other lies entirely within iv.
func (iv Interval) Contains(other Interval) bool {
	return !other.Start.Before(iv.Start) && !other.End.After(iv.End)
}

// MergeIntervals returns the union of the given intervals as a sorted list
// of disjoint intervals. Overlapping or touching intervals coalesce into a
// single contiguous one.
func MergeIntervals(ivs []Interval) []Interval {
	if len(ivs) == 0 {
		return nil
	}

	sorted := make([]Interval, len(ivs))
	copy(sorted, ivs)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Start.Before(sorted[j].Start)
	})

	out := []Interval{sorted[0]}
	for _, iv := range sorted[1:] {
		last := &out[len(out)-1]
		if !iv.Start.After(last.End) {
			if iv.End.After(last.End) {
				last.End = iv.End
			}
			continue
		}
		out = append(out, iv)
	}

	return out
}

// SubtractIntervals removes every blocked interval from every window and
// returns the remaining free sub-intervals, sorted and disjoint. This is
// true interval subtraction: a blocked interval covering the middle of a
// window splits it in two.
func SubtractIntervals(windows, blocked []Interval) []Interval {
	if len(windows) == 0 {
		return nil
	}

	merged := MergeIntervals(blocked)

	var out []Interval
	for _, w := range windows {
		free := w
		for _, b := range merged {
			if !free.Overlaps(b) {
				continue
			}
			if b.Start.After(free.Start) {
				out = append(out, Interval{Start: free.Start, End: b.Start})
			}
			if b.End.Before(free.End) {
				free = Interval{Start: b.End, End: free.End}
			} else {
				free = Interval{}
				break
			}
		}
		if !free.IsZero() && free.Start.Before(free.End) {
			out = append(out, free)
		}
	}

	return out
}
