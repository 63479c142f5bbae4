package catalog

import (
	"time"

	"github.com/google/uuid"
)

// Service is a bookable treatment from the salon's catalog. It is a
// read-only input to slot generation and admission: duration, the buffer
// padding around the appointment, lead-time rules and the list price.
type Service struct {
	ID                  uuid.UUID
	Name                string
	DurationMinutes     int
	BufferBeforeMinutes int
	BufferAfterMinutes  int
	MinAdvanceHours     int
	MaxAdvanceDays      int
	PriceAmount         int64 // minor units
	Currency            string
	Active              bool
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

func (s Service) Duration() time.Duration {
	return time.Duration(s.DurationMinutes) * time.Minute
}

func (s Service) BufferBefore() time.Duration {
	return time.Duration(s.BufferBeforeMinutes) * time.Minute
}

func (s Service) BufferAfter() time.Duration {
	return time.Duration(s.BufferAfterMinutes) * time.Minute
}

func (s Service) MinAdvance() time.Duration {
	return time.Duration(s.MinAdvanceHours) * time.Hour
}

// Practitioner is the provider whose calendar is scheduled. Timezone is an
// IANA name; all of the practitioner's availability math happens in it.
type Practitioner struct {
	ID        uuid.UUID
	Name      string
	Timezone  string
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Customer struct {
	ID        uuid.UUID
	Name      string
	Email     *string
	Phone     *string
	CreatedAt time.Time
	UpdatedAt time.Time
}
