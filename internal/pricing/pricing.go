package pricing

import (
	"context"
	"time"

	"github.com/locspot/salon-booking/internal/catalog"
)

// Quoter computes booking amounts. Admission and cancellation call it
// synchronously, but a failure never fails the state transition: the caller
// falls back to a zero amount and flags the booking for reconciliation.
type Quoter interface {
	// Quote returns the total amount, in minor units, for booking the
	// service at the given start time.
	Quote(ctx context.Context, svc *catalog.Service, start time.Time) (int64, error)

	// CancellationFee returns the fee, in minor units, for cancelling a
	// booking of the given amount with the given time remaining before the
	// appointment.
	CancellationFee(ctx context.Context, totalAmount int64, untilStart time.Duration) (int64, error)
}

// StandardQuoter prices bookings at the service list price and applies a
// tiered late-cancellation fee: free with 48h notice, half the amount with
// 24h, the full amount under that.
type StandardQuoter struct{}

func NewStandardQuoter() *StandardQuoter {
	return &StandardQuoter{}
}

func (q *StandardQuoter) Quote(_ context.Context, svc *catalog.Service, _ time.Time) (int64, error) {
	return svc.PriceAmount, nil
}

func (q *StandardQuoter) CancellationFee(_ context.Context, totalAmount int64, untilStart time.Duration) (int64, error) {
	switch {
	case untilStart >= 48*time.Hour:
		return 0, nil
	case untilStart >= 24*time.Hour:
		return totalAmount / 2, nil
	default:
		return totalAmount, nil
	}
}
