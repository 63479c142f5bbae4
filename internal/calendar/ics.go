package calendar

import (
	"fmt"
	"time"

	ical "github.com/arran4/golang-ical"
)

// FeedBooking is the subset of a booking the ICS feed renders. The feed
// deliberately carries no customer identity.
type FeedBooking struct {
	ID    string
	Start time.Time
	End   time.Time
}

// BuildFeed renders a practitioner's upcoming calendar as an iCalendar
// document: confirmed/pending bookings (anonymized) plus public events,
// recurring ones expanded within [from, to).
func BuildFeed(practitionerName string, bookings []FeedBooking, events []Event, from, to time.Time) string {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId("-//locspot//salon-booking//EN")
	cal.SetXWRCalName(fmt.Sprintf("%s appointments", practitionerName))

	now := time.Now()

	for _, b := range bookings {
		ve := cal.AddEvent(fmt.Sprintf("booking-%s", b.ID))
		ve.SetDtStampTime(now)
		ve.SetStartAt(b.Start)
		ve.SetEndAt(b.End)
		ve.SetSummary("Booked appointment")
	}

	for _, ev := range events {
		if !ev.Public {
			continue
		}
		for i, occ := range Occurrences(ev, from, to) {
			ve := cal.AddEvent(fmt.Sprintf("event-%s-%d", ev.ID, i))
			ve.SetDtStampTime(now)
			ve.SetStartAt(occ.Start)
			ve.SetEndAt(occ.End)
			ve.SetSummary(ev.Title)
		}
	}

	return cal.Serialize()
}
