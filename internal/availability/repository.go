package availability

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrPatternNotFound  = errors.New("availability pattern not found")
	ErrOverrideNotFound = errors.New("availability override not found")
	ErrInvalidWindow    = errors.New("start time must be before end time")
	ErrPatternInUse     = errors.New("pattern has future bookings depending on it")
)

// PatternStore owns recurring weekly availability rules. Rules are
// deactivated rather than deleted so the audit history survives; physical
// deletion happens only through Manager.DeletePattern after its dependency
// check.
type PatternStore interface {
	CreatePattern(ctx context.Context, p *Pattern) error
	GetPatternByID(ctx context.Context, id uuid.UUID) (*Pattern, error)
	ListPatterns(ctx context.Context, practitionerID uuid.UUID) ([]Pattern, error)
	SetPatternActive(ctx context.Context, id uuid.UUID, active bool) error
	DeletePattern(ctx context.Context, id uuid.UUID) error
}

// OverrideStore owns date-specific exceptions. At most one override exists
// per (practitioner, date); UpsertOverride replaces any previous one.
type OverrideStore interface {
	UpsertOverride(ctx context.Context, o *Override) error
	OverridesInRange(ctx context.Context, practitionerID uuid.UUID, from, to time.Time) ([]Override, error)
	DeleteOverride(ctx context.Context, practitionerID uuid.UUID, date time.Time) error
}

// CommitmentSource reports the intervals currently occupying a
// practitioner's calendar: active bookings expanded by their buffers plus
// blocking calendar events. The booking package owns the implementation.
type CommitmentSource interface {
	BlockedIntervals(ctx context.Context, practitionerID uuid.UUID, from, to time.Time) ([]Interval, error)
}

// BookingIntervalSource exposes the raw (unbuffered) appointment windows of
// active bookings, used by the pattern-deletion dependency check.
type BookingIntervalSource interface {
	ActiveBookingWindows(ctx context.Context, practitionerID uuid.UUID, from, to time.Time) ([]Interval, error)
}
