package availability

import (
	"time"

	"github.com/google/uuid"
)

// Pattern is a recurring weekly availability rule. Start and end are
// minutes since local midnight so a rule is independent of any particular
// date; EffectiveFrom/EffectiveUntil bound the dates (inclusive) the rule
// applies to.
type Pattern struct {
	ID             uuid.UUID
	PractitionerID uuid.UUID
	Weekday        time.Weekday
	StartMinute    int
	EndMinute      int
	EffectiveFrom  time.Time
	EffectiveUntil *time.Time
	Active         bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// AppliesOn reports whether the pattern covers the given local calendar day.
func (p Pattern) AppliesOn(day time.Time) bool {
	if !p.Active || p.Weekday != day.Weekday() {
		return false
	}
	if dateBefore(day, p.EffectiveFrom) {
		return false
	}
	if p.EffectiveUntil != nil && dateBefore(*p.EffectiveUntil, day) {
		return false
	}
	return true
}

// Override is a date-specific exception to patterns. When Available is
// false the whole day is blocked and the minute fields are ignored; when
// true the day's working window is exactly [StartMinute, EndMinute),
// replacing all patterns.
type Override struct {
	ID             uuid.UUID
	PractitionerID uuid.UUID
	Date           time.Time
	StartMinute    *int
	EndMinute      *int
	Available      bool
	Reason         *string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Slot is a customer-visible bookable interval. Buffer time around it is
// held internally but never exposed as bookable.
type Slot struct {
	Start time.Time
	End   time.Time
}

// dateBefore compares calendar days, ignoring the time-of-day and location
// carried by the values.
func dateBefore(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	if ay != by {
		return ay < by
	}
	if am != bm {
		return am < bm
	}
	return ad < bd
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// minuteOfDay anchors a minutes-since-midnight value onto a local calendar
// day.
func minuteOfDay(day time.Time, minute int, loc *time.Location) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), 0, minute, 0, 0, loc)
}
