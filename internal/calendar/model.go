package calendar

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventTypeBlock    EventType = "block"    // generic blocked time
	EventTypeBreak    EventType = "break"    // lunch, rest
	EventTypeVacation EventType = "vacation" // full-day or multi-day leave
	EventTypeTraining EventType = "training"
	EventTypeNote     EventType = "note" // advisory, never blocks
)

// Event is a non-booking commitment on a practitioner's calendar. Blocking
// events participate in slot subtraction and admission conflict checks;
// advisory types (notes) do not.
type Event struct {
	ID             uuid.UUID
	PractitionerID uuid.UUID
	Title          string
	EventType      EventType
	Start          time.Time
	End            time.Time
	Recurring      bool
	RecurrenceRule *string // RFC 5545 RRULE when Recurring
	Public         bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (e Event) Blocking() bool {
	return e.EventType != EventTypeNote
}
