package booking

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrBookingNotFound = errors.New("booking not found")

	// ErrAdmissionContended is returned when the practitioner admission
	// lock stayed contended through every retry.
	ErrAdmissionContended = errors.New("practitioner calendar is busy, please retry")

	// ErrCommitmentOverlap is returned by the repository when the bookings
	// exclusion constraint rejects an insert whose buffered span overlaps
	// an active booking.
	ErrCommitmentOverlap = errors.New("buffered span overlaps an active booking")
)

// ConflictError reports that the requested window overlaps an existing
// commitment. It names only the commitment's time range, never whose
// booking it is.
type ConflictError struct {
	Start time.Time
	End   time.Time
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("requested window conflicts with an existing commitment from %s to %s",
		e.Start.Format(time.RFC3339), e.End.Format(time.RFC3339))
}

// PolicyError reports a violated booking policy (lead time, horizon, or a
// window outside any availability).
type PolicyError struct {
	Rule    string
	Message string
}

func (e *PolicyError) Error() string {
	return fmt.Sprintf("booking policy %s violated: %s", e.Rule, e.Message)
}

// InvalidTransitionError reports an illegal state-machine transition.
type InvalidTransitionError struct {
	From Status
	To   Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid booking transition from %s to %s", e.From, e.To)
}
