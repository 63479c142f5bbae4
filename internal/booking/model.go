package booking

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusConfirmed  Status = "confirmed"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
	StatusNoShow     Status = "no_show"
)

// activeStatuses are the states in which a booking occupies its
// practitioner's calendar.
var activeStatuses = map[Status]bool{
	StatusPending:    true,
	StatusConfirmed:  true,
	StatusInProgress: true,
}

func (s Status) Active() bool {
	return activeStatuses[s]
}

func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusCancelled, StatusNoShow:
		return true
	}
	return false
}

// Booking is an admitted appointment. The buffer minutes are copied from
// the service at admission time so the commitment the booking holds on the
// calendar stays stable even if the catalog changes later.
type Booking struct {
	ID                  uuid.UUID
	PractitionerID      uuid.UUID
	CustomerID          uuid.UUID
	ServiceID           uuid.UUID
	Start               time.Time
	End                 time.Time
	DurationMinutes     int
	BufferBeforeMinutes int
	BufferAfterMinutes  int
	Status              Status
	TotalAmount         int64
	Currency            string
	NeedsReconciliation bool
	CancellationFee     *int64
	CancellationReason  *string
	CancelledAt         *time.Time
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// BufferedStart is the left edge of the interval the booking occupies.
func (b *Booking) BufferedStart() time.Time {
	return b.Start.Add(-time.Duration(b.BufferBeforeMinutes) * time.Minute)
}

// BufferedEnd is the right edge of the interval the booking occupies.
func (b *Booking) BufferedEnd() time.Time {
	return b.End.Add(time.Duration(b.BufferAfterMinutes) * time.Minute)
}

// StateChange is one immutable row of the append-only transition journal.
type StateChange struct {
	ID             int64
	BookingID      uuid.UUID
	PreviousStatus *Status // nil for the admission record
	NewStatus      Status
	Reason         *string
	ChangedBy      *uuid.UUID
	ChangedAt      time.Time
}
