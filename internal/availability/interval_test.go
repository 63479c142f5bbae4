package availability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func iv(t *testing.T, startHour, startMin, endHour, endMin int) Interval {
	t.Helper()
	day := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	return Interval{
		Start: day.Add(time.Duration(startHour)*time.Hour + time.Duration(startMin)*time.Minute),
		End:   day.Add(time.Duration(endHour)*time.Hour + time.Duration(endMin)*time.Minute),
	}
}

func TestOverlaps_HalfOpen(t *testing.T) {
	a := iv(t, 9, 0, 10, 0)
	b := iv(t, 10, 0, 11, 0)
	c := iv(t, 9, 30, 10, 30)

	// Touching intervals do not overlap.
	assert.False(t, a.Overlaps(b))
	assert.False(t, b.Overlaps(a))

	assert.True(t, a.Overlaps(c))
	assert.True(t, c.Overlaps(b))
	assert.True(t, a.Overlaps(a))
}

func TestContains(t *testing.T) {
	outer := iv(t, 9, 0, 17, 0)

	assert.True(t, outer.Contains(iv(t, 9, 0, 17, 0)))
	assert.True(t, outer.Contains(iv(t, 10, 0, 11, 0)))
	assert.False(t, outer.Contains(iv(t, 8, 59, 10, 0)))
	assert.False(t, outer.Contains(iv(t, 16, 0, 17, 1)))
}

func TestMergeIntervals_CoalescesOverlapAndTouch(t *testing.T) {
	merged := MergeIntervals([]Interval{
		iv(t, 13, 0, 15, 0),
		iv(t, 9, 0, 11, 0),
		iv(t, 10, 30, 12, 0),
		iv(t, 12, 0, 12, 30),
	})

	assert.Equal(t, []Interval{
		iv(t, 9, 0, 12, 30),
		iv(t, 13, 0, 15, 0),
	}, merged)
}

func TestMergeIntervals_Empty(t *testing.T) {
	assert.Nil(t, MergeIntervals(nil))
}

func TestSubtractIntervals_SplitsWindow(t *testing.T) {
	free := SubtractIntervals(
		[]Interval{iv(t, 9, 0, 17, 0)},
		[]Interval{iv(t, 12, 0, 13, 0)},
	)

	assert.Equal(t, []Interval{
		iv(t, 9, 0, 12, 0),
		iv(t, 13, 0, 17, 0),
	}, free)
}

func TestSubtractIntervals_EdgesAndFullCover(t *testing.T) {
	window := []Interval{iv(t, 9, 0, 12, 0)}

	// Block at the leading edge.
	assert.Equal(t, []Interval{iv(t, 9, 30, 12, 0)},
		SubtractIntervals(window, []Interval{iv(t, 8, 0, 9, 30)}))

	// Block at the trailing edge.
	assert.Equal(t, []Interval{iv(t, 9, 0, 11, 0)},
		SubtractIntervals(window, []Interval{iv(t, 11, 0, 13, 0)}))

	// Block covering the whole window leaves nothing.
	assert.Empty(t, SubtractIntervals(window, []Interval{iv(t, 8, 0, 13, 0)}))

	// Touching block removes nothing.
	assert.Equal(t, window,
		SubtractIntervals(window, []Interval{iv(t, 12, 0, 13, 0)}))
}

func TestSubtractIntervals_MultipleBlocks(t *testing.T) {
	free := SubtractIntervals(
		[]Interval{iv(t, 9, 0, 17, 0)},
		[]Interval{
			iv(t, 10, 0, 10, 30),
			iv(t, 14, 0, 15, 0),
			iv(t, 10, 15, 11, 0), // overlaps the first block
		},
	)

	assert.Equal(t, []Interval{
		iv(t, 9, 0, 10, 0),
		iv(t, 11, 0, 14, 0),
		iv(t, 15, 0, 17, 0),
	}, free)
}

func TestSubtractIntervals_NoBlocked(t *testing.T) {
	window := []Interval{iv(t, 9, 0, 17, 0)}
	assert.Equal(t, window, SubtractIntervals(window, nil))
}
