package booking

import "time"

// transitions is the closed table of legal status changes. Completed,
// cancelled and no_show are terminal.
var transitions = map[Status][]Status{
	StatusPending:    {StatusConfirmed, StatusCancelled},
	StatusConfirmed:  {StatusInProgress, StatusCancelled, StatusNoShow},
	StatusInProgress: {StatusCompleted, StatusCancelled, StatusNoShow},
}

func canTransition(from, to Status) bool {
	for _, t := range transitions[from] {
		if t == to {
			return true
		}
	}
	return false
}

// ValidateTransition checks the transition table plus the time guards of
// the target state. now is caller-supplied so the rules stay testable.
func ValidateTransition(b *Booking, to Status, now time.Time) error {
	if !canTransition(b.Status, to) {
		return &InvalidTransitionError{From: b.Status, To: to}
	}

	switch to {
	case StatusConfirmed:
		// Confirmation is allowed any time before the appointment starts;
		// the slot is already held from admission.
		if !now.Before(b.Start) {
			return &InvalidTransitionError{From: b.Status, To: to}
		}
	case StatusInProgress:
		if now.Before(b.Start) {
			return &InvalidTransitionError{From: b.Status, To: to}
		}
	case StatusCompleted:
		if now.Before(b.Start) {
			return &InvalidTransitionError{From: b.Status, To: to}
		}
	case StatusNoShow:
		if !now.After(b.End) {
			return &InvalidTransitionError{From: b.Status, To: to}
		}
	}

	return nil
}
