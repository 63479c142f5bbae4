package booking

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/locspot/salon-booking/internal/availability"
	"github.com/locspot/salon-booking/internal/calendar"
)

// CommitmentIndex is the single owner of "what currently occupies a
// practitioner's calendar": buffered active bookings plus blocking calendar
// events (recurring ones expanded). It implements
// availability.CommitmentSource.
type CommitmentIndex struct {
	bookings Repository
	events   calendar.Repository
}

func NewCommitmentIndex(bookings Repository, events calendar.Repository) *CommitmentIndex {
	return &CommitmentIndex{
		bookings: bookings,
		events:   events,
	}
}

func (ci *CommitmentIndex) BlockedIntervals(ctx context.Context, practitionerID uuid.UUID, from, to time.Time) ([]availability.Interval, error) {
	blocked, err := ci.bookings.ActiveBufferedIntervals(ctx, practitionerID, from, to)
	if err != nil {
		return nil, fmt.Errorf("load booking commitments: %w", err)
	}

	events, err := ci.events.EventsInRange(ctx, practitionerID, from, to)
	if err != nil {
		return nil, fmt.Errorf("load calendar events: %w", err)
	}

	for _, ev := range events {
		if !ev.Blocking() {
			continue
		}
		blocked = append(blocked, calendar.Occurrences(ev, from, to)...)
	}

	return availability.MergeIntervals(blocked), nil
}
