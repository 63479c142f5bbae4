package notify

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventBookingCreated   EventType = "booking.created"
	EventBookingConfirmed EventType = "booking.confirmed"
	EventBookingCancelled EventType = "booking.cancelled"
	EventBookingCompleted EventType = "booking.completed"
	EventBookingNoShow    EventType = "booking.no_show"
	EventBookingReminder  EventType = "booking.reminder"
)

// BookingEvent is the lifecycle event published for downstream consumers
// (notification and realtime-broadcast collaborators). Delivery is
// best-effort and never part of the admission transaction.
type BookingEvent struct {
	Type           EventType `json:"type"`
	BookingID      uuid.UUID `json:"booking_id"`
	PractitionerID uuid.UUID `json:"practitioner_id"`
	CustomerID     uuid.UUID `json:"customer_id"`
	Start          time.Time `json:"appointment_start"`
	End            time.Time `json:"appointment_end"`
	Status         string    `json:"status"`
	OccurredAt     time.Time `json:"occurred_at"`
}

type Notifier interface {
	PublishBookingEvent(ctx context.Context, ev BookingEvent) error
}

// NopNotifier discards all events; used when no broker is configured and in
// tests.
type NopNotifier struct{}

func (NopNotifier) PublishBookingEvent(context.Context, BookingEvent) error { return nil }
