package booking

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/locspot/salon-booking/internal/availability"
)

// TransitionParams carries one state-machine transition to the store. The
// status update is a compare-and-set against From, and the journal row is
// written in the same transaction.
type TransitionParams struct {
	BookingID       uuid.UUID
	From            Status
	To              Status
	Reason          *string
	ChangedBy       *uuid.UUID
	CancellationFee *int64
	CancelledAt     *time.Time
	FlagReconcile   bool
}

// Repository contains all DB interactions needed by the booking service.
type Repository interface {
	GetBookingByID(ctx context.Context, id uuid.UUID) (*Booking, error)

	// CreateBooking inserts the booking and its admission journal row
	// atomically.
	CreateBooking(ctx context.Context, b *Booking, changedBy *uuid.UUID) error

	// TransitionStatus applies a compare-and-set status update plus journal
	// row atomically. It returns ErrBookingNotFound when no row matched the
	// (id, From) pair, which callers disambiguate by reloading.
	TransitionStatus(ctx context.Context, p TransitionParams) (*Booking, error)

	// ActiveBufferedIntervals returns the buffered intervals of active
	// bookings overlapping [from, to), the booking half of the Commitment
	// Index.
	ActiveBufferedIntervals(ctx context.Context, practitionerID uuid.UUID, from, to time.Time) ([]availability.Interval, error)

	// ActiveBookingWindows returns the raw appointment windows (no buffers)
	// of active bookings overlapping [from, to).
	ActiveBookingWindows(ctx context.Context, practitionerID uuid.UUID, from, to time.Time) ([]availability.Interval, error)

	ListByCustomer(ctx context.Context, customerID uuid.UUID, limit, offset int) ([]Booking, error)
	ListActiveByPractitioner(ctx context.Context, practitionerID uuid.UUID, from, to time.Time) ([]Booking, error)
	ListStateChanges(ctx context.Context, bookingID uuid.UUID) ([]StateChange, error)

	// Worker queries. FindConfirmedStartingBetween only returns bookings
	// that have not been reminded yet.
	FindStalePending(ctx context.Context, createdBefore time.Time) ([]Booking, error)
	FindConfirmedStartingBetween(ctx context.Context, from, to time.Time) ([]Booking, error)
	MarkReminderSent(ctx context.Context, id uuid.UUID, at time.Time) error
}
