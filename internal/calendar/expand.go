package calendar

import (
	"log"
	"time"

	"github.com/teambition/rrule-go"

	"github.com/locspot/salon-booking/internal/availability"
)

// maxOccurrencesPerEvent caps runaway rules (e.g. minutely recurrence over
// a long range).
const maxOccurrencesPerEvent = 1000

// Occurrences expands an event into the concrete intervals it occupies
// within [from, to). A one-off event yields at most one interval; a
// recurring event yields one per rule occurrence, each preserving the base
// event's duration. A malformed recurrence rule is logged and yields
// nothing rather than blocking the whole calendar.
func Occurrences(ev Event, from, to time.Time) []availability.Interval {
	if !ev.Recurring || ev.RecurrenceRule == nil {
		iv := availability.Interval{Start: ev.Start, End: ev.End}
		if iv.Overlaps(availability.Interval{Start: from, End: to}) {
			return []availability.Interval{iv}
		}
		return nil
	}

	r, err := rrule.StrToRRule(*ev.RecurrenceRule)
	if err != nil {
		log.Printf("calendar event %s has invalid recurrence rule %q: %v", ev.ID, *ev.RecurrenceRule, err)
		return nil
	}
	r.DTStart(ev.Start)

	var set rrule.Set
	set.RRule(r)

	// Between works in the rule's location, so translate the query range.
	rangeStart := from.In(ev.Start.Location())
	rangeEnd := to.In(ev.Start.Location())

	duration := ev.End.Sub(ev.Start)

	// An occurrence starting before the range can still reach into it.
	occTimes := set.Between(rangeStart.Add(-duration), rangeEnd, true)
	if len(occTimes) > maxOccurrencesPerEvent {
		occTimes = occTimes[:maxOccurrencesPerEvent]
	}

	var out []availability.Interval
	for _, occStart := range occTimes {
		iv := availability.Interval{Start: occStart, End: occStart.Add(duration)}
		if iv.Overlaps(availability.Interval{Start: from, End: to}) {
			out = append(out, iv)
		}
	}

	return out
}
