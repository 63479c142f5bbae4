package calendar

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/locspot/salon-booking/internal/availability"
)

func strPtr(s string) *string { return &s }

func TestOccurrences_OneOffInsideRange(t *testing.T) {
	ev := Event{
		ID:        uuid.New(),
		EventType: EventTypeBlock,
		Start:     time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC),
		End:       time.Date(2026, 9, 1, 13, 0, 0, 0, time.UTC),
	}

	from := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 1)

	occ := Occurrences(ev, from, to)
	assert.Equal(t, []availability.Interval{{Start: ev.Start, End: ev.End}}, occ)
}

func TestOccurrences_OneOffOutsideRange(t *testing.T) {
	ev := Event{
		ID:        uuid.New(),
		EventType: EventTypeBlock,
		Start:     time.Date(2026, 9, 5, 12, 0, 0, 0, time.UTC),
		End:       time.Date(2026, 9, 5, 13, 0, 0, 0, time.UTC),
	}

	from := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 1)

	assert.Empty(t, Occurrences(ev, from, to))
}

func TestOccurrences_WeeklyRule(t *testing.T) {
	// Every Tuesday 12:00-13:00.
	ev := Event{
		ID:             uuid.New(),
		EventType:      EventTypeBreak,
		Start:          time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC),
		End:            time.Date(2026, 9, 1, 13, 0, 0, 0, time.UTC),
		Recurring:      true,
		RecurrenceRule: strPtr("FREQ=WEEKLY;BYDAY=TU"),
	}

	from := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 21)

	occ := Occurrences(ev, from, to)
	require.Len(t, occ, 3)
	for i, o := range occ {
		expectedStart := ev.Start.AddDate(0, 0, 7*i)
		assert.Equal(t, expectedStart, o.Start)
		assert.Equal(t, expectedStart.Add(time.Hour), o.End)
	}
}

func TestOccurrences_OccurrenceStraddlingRangeStart(t *testing.T) {
	// A daily two-hour event; the query range opens mid-occurrence.
	ev := Event{
		ID:             uuid.New(),
		EventType:      EventTypeBlock,
		Start:          time.Date(2026, 9, 1, 23, 0, 0, 0, time.UTC),
		End:            time.Date(2026, 9, 2, 1, 0, 0, 0, time.UTC),
		Recurring:      true,
		RecurrenceRule: strPtr("FREQ=DAILY;COUNT=1"),
	}

	from := time.Date(2026, 9, 2, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 1)

	occ := Occurrences(ev, from, to)
	require.Len(t, occ, 1)
	assert.Equal(t, ev.Start, occ[0].Start)
	assert.Equal(t, ev.End, occ[0].End)
}

func TestOccurrences_InvalidRuleYieldsNothing(t *testing.T) {
	ev := Event{
		ID:             uuid.New(),
		EventType:      EventTypeVacation,
		Start:          time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
		End:            time.Date(2026, 9, 2, 0, 0, 0, 0, time.UTC),
		Recurring:      true,
		RecurrenceRule: strPtr("FREQ=SOMETIMES"),
	}

	from := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	assert.Empty(t, Occurrences(ev, from, from.AddDate(0, 0, 30)))
}

func TestEvent_Blocking(t *testing.T) {
	assert.True(t, Event{EventType: EventTypeBlock}.Blocking())
	assert.True(t, Event{EventType: EventTypeBreak}.Blocking())
	assert.True(t, Event{EventType: EventTypeVacation}.Blocking())
	assert.True(t, Event{EventType: EventTypeTraining}.Blocking())
	assert.False(t, Event{EventType: EventTypeNote}.Blocking())
}

func TestBuildFeed_AnonymizesBookingsAndFiltersPrivateEvents(t *testing.T) {
	from := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 7)

	bookings := []FeedBooking{{
		ID:    uuid.NewString(),
		Start: time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC),
		End:   time.Date(2026, 9, 1, 11, 0, 0, 0, time.UTC),
	}}

	events := []Event{
		{
			ID:        uuid.New(),
			Title:     "Open house",
			EventType: EventTypeNote,
			Start:     time.Date(2026, 9, 3, 14, 0, 0, 0, time.UTC),
			End:       time.Date(2026, 9, 3, 16, 0, 0, 0, time.UTC),
			Public:    true,
		},
		{
			ID:        uuid.New(),
			Title:     "Dentist appointment",
			EventType: EventTypeBlock,
			Start:     time.Date(2026, 9, 4, 9, 0, 0, 0, time.UTC),
			End:       time.Date(2026, 9, 4, 10, 0, 0, 0, time.UTC),
			Public:    false,
		},
	}

	feed := BuildFeed("Ayo", bookings, events, from, to)

	assert.Contains(t, feed, "BEGIN:VCALENDAR")
	assert.Contains(t, feed, "Booked appointment")
	assert.Contains(t, feed, "Open house")
	assert.NotContains(t, feed, "Dentist appointment")

	// Two VEVENTs: the booking and the public event.
	assert.Equal(t, 2, strings.Count(feed, "BEGIN:VEVENT"))
}
