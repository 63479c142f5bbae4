package booking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allStatuses = []Status{
	StatusPending, StatusConfirmed, StatusInProgress,
	StatusCompleted, StatusCancelled, StatusNoShow,
}

func bookingIn(status Status, start, end time.Time) *Booking {
	return &Booking{Status: status, Start: start, End: end}
}

// TestValidateTransition_Table walks every (from, to) pair with a clock
// that satisfies all time guards, so only the transition table decides.
func TestValidateTransition_Table(t *testing.T) {
	allowed := map[Status]map[Status]bool{
		StatusPending:    {StatusConfirmed: true, StatusCancelled: true},
		StatusConfirmed:  {StatusInProgress: true, StatusCancelled: true, StatusNoShow: true},
		StatusInProgress: {StatusCompleted: true, StatusCancelled: true, StatusNoShow: true},
	}

	start := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)

	for _, from := range allStatuses {
		for _, to := range allStatuses {
			b := bookingIn(from, start, end)

			// Pick a now that passes the target's time guard.
			now := start.Add(-time.Hour)
			switch to {
			case StatusInProgress, StatusCompleted:
				now = start.Add(10 * time.Minute)
			case StatusNoShow:
				now = end.Add(10 * time.Minute)
			}

			err := ValidateTransition(b, to, now)
			if allowed[from][to] {
				assert.NoError(t, err, "%s -> %s should be legal", from, to)
				continue
			}

			var ite *InvalidTransitionError
			require.ErrorAs(t, err, &ite, "%s -> %s should be rejected", from, to)
			assert.Equal(t, from, ite.From)
			assert.Equal(t, to, ite.To)
		}
	}
}

func TestValidateTransition_TerminalStatesAreDead(t *testing.T) {
	start := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)

	for _, from := range []Status{StatusCompleted, StatusCancelled, StatusNoShow} {
		for _, to := range allStatuses {
			err := ValidateTransition(bookingIn(from, start, end), to, end.Add(time.Hour))
			assert.Error(t, err, "%s -> %s must be rejected", from, to)
		}
	}
}

func TestValidateTransition_CancelIsNotIdempotent(t *testing.T) {
	start := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	b := bookingIn(StatusCancelled, start, start.Add(time.Hour))

	var ite *InvalidTransitionError
	err := ValidateTransition(b, StatusCancelled, start)
	require.ErrorAs(t, err, &ite)
	assert.Equal(t, StatusCancelled, ite.From)
	assert.Equal(t, StatusCancelled, ite.To)
}

func TestValidateTransition_TimeGuards(t *testing.T) {
	start := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)

	cases := []struct {
		name string
		from Status
		to   Status
		now  time.Time
		ok   bool
	}{
		{"confirm before start", StatusPending, StatusConfirmed, start.Add(-time.Minute), true},
		{"confirm at start", StatusPending, StatusConfirmed, start, false},
		{"confirm after start", StatusPending, StatusConfirmed, start.Add(time.Minute), false},

		{"start before appointment", StatusConfirmed, StatusInProgress, start.Add(-time.Minute), false},
		{"start at appointment", StatusConfirmed, StatusInProgress, start, true},

		{"complete before appointment", StatusInProgress, StatusCompleted, start.Add(-time.Minute), false},
		{"complete during appointment", StatusInProgress, StatusCompleted, start.Add(30 * time.Minute), true},

		{"no-show at end", StatusConfirmed, StatusNoShow, end, false},
		{"no-show after end", StatusConfirmed, StatusNoShow, end.Add(time.Minute), true},

		{"cancel has no time guard", StatusConfirmed, StatusCancelled, end.Add(time.Hour), true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateTransition(bookingIn(tc.from, start, end), tc.to, tc.now)
			if tc.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestStatus_ActiveAndTerminal(t *testing.T) {
	assert.True(t, StatusPending.Active())
	assert.True(t, StatusConfirmed.Active())
	assert.True(t, StatusInProgress.Active())
	assert.False(t, StatusCompleted.Active())
	assert.False(t, StatusCancelled.Active())
	assert.False(t, StatusNoShow.Active())

	assert.False(t, StatusPending.Terminal())
	assert.False(t, StatusInProgress.Terminal())
	assert.True(t, StatusCompleted.Terminal())
	assert.True(t, StatusCancelled.Terminal())
	assert.True(t, StatusNoShow.Terminal())
}

func TestBooking_BufferedInterval(t *testing.T) {
	start := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	b := &Booking{
		Start:               start,
		End:                 start.Add(time.Hour),
		BufferBeforeMinutes: 15,
		BufferAfterMinutes:  30,
	}

	assert.Equal(t, start.Add(-15*time.Minute), b.BufferedStart())
	assert.Equal(t, start.Add(90*time.Minute), b.BufferedEnd())
}
