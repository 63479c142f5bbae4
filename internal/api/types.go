package api

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/locspot/salon-booking/internal/booking"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

type CreateBookingRequest struct {
	PractitionerID string    `json:"practitioner_id" validate:"required,uuid"`
	CustomerID     string    `json:"customer_id" validate:"required,uuid"`
	ServiceID      string    `json:"service_id" validate:"required,uuid"`
	Start          time.Time `json:"appointment_start" validate:"required"`
}

type CancelBookingRequest struct {
	Reason *string `json:"reason" validate:"omitempty,max=500"`
}

type BookingResponse struct {
	ID                  uuid.UUID  `json:"id"`
	PractitionerID      uuid.UUID  `json:"practitioner_id"`
	CustomerID          uuid.UUID  `json:"customer_id"`
	ServiceID           uuid.UUID  `json:"service_id"`
	Start               time.Time  `json:"appointment_start"`
	End                 time.Time  `json:"appointment_end"`
	DurationMinutes     int        `json:"duration_minutes"`
	Status              string     `json:"status"`
	TotalAmount         int64      `json:"total_amount"`
	Currency            string     `json:"currency"`
	NeedsReconciliation bool       `json:"needs_reconciliation,omitempty"`
	CancellationFee     *int64     `json:"cancellation_fee,omitempty"`
	CancellationReason  *string    `json:"cancellation_reason,omitempty"`
	CancelledAt         *time.Time `json:"cancelled_at,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
}

func toBookingResponse(b *booking.Booking) BookingResponse {
	return BookingResponse{
		ID:                  b.ID,
		PractitionerID:      b.PractitionerID,
		CustomerID:          b.CustomerID,
		ServiceID:           b.ServiceID,
		Start:               b.Start,
		End:                 b.End,
		DurationMinutes:     b.DurationMinutes,
		Status:              string(b.Status),
		TotalAmount:         b.TotalAmount,
		Currency:            b.Currency,
		NeedsReconciliation: b.NeedsReconciliation,
		CancellationFee:     b.CancellationFee,
		CancellationReason:  b.CancellationReason,
		CancelledAt:         b.CancelledAt,
		CreatedAt:           b.CreatedAt,
	}
}

type SlotResponse struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

type StateChangeResponse struct {
	PreviousStatus *string   `json:"previous_status"`
	NewStatus      string    `json:"new_status"`
	Reason         *string   `json:"reason,omitempty"`
	ChangedAt      time.Time `json:"changed_at"`
}

type CreatePatternRequest struct {
	DayOfWeek      int     `json:"day_of_week" validate:"min=0,max=6"`
	StartMinute    int     `json:"start_minute" validate:"min=0,max=1439"`
	EndMinute      int     `json:"end_minute" validate:"min=1,max=1440"`
	EffectiveFrom  string  `json:"effective_from" validate:"required,datetime=2006-01-02"`
	EffectiveUntil *string `json:"effective_until" validate:"omitempty,datetime=2006-01-02"`
}

type UpsertOverrideRequest struct {
	IsAvailable bool    `json:"is_available"`
	StartMinute *int    `json:"start_minute" validate:"omitempty,min=0,max=1439"`
	EndMinute   *int    `json:"end_minute" validate:"omitempty,min=1,max=1440"`
	Reason      *string `json:"reason" validate:"omitempty,max=500"`
}

type CreateEventRequest struct {
	Title          string    `json:"title" validate:"required,max=200"`
	EventType      string    `json:"event_type" validate:"required,oneof=block break vacation training note"`
	Start          time.Time `json:"start_time" validate:"required"`
	End            time.Time `json:"end_time" validate:"required,gtfield=Start"`
	Recurring      bool      `json:"is_recurring"`
	RecurrenceRule *string   `json:"recurrence_rule" validate:"omitempty,max=500"`
	Public         bool      `json:"is_public"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
