package availability

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// dependencyHorizon bounds how far ahead the pattern-deletion check scans
// for bookings that would lose their working window.
const dependencyHorizon = 365 * 24 * time.Hour

// Manager validates and applies edits to the declarative availability
// rules. Edits take effect for future slot generations only; existing
// bookings are never touched.
type Manager struct {
	patterns  PatternStore
	overrides OverrideStore
	bookings  BookingIntervalSource
	now       func() time.Time
}

func NewManager(patterns PatternStore, overrides OverrideStore, bookings BookingIntervalSource, now func() time.Time) *Manager {
	if now == nil {
		now = time.Now
	}
	return &Manager{
		patterns:  patterns,
		overrides: overrides,
		bookings:  bookings,
		now:       now,
	}
}

func (m *Manager) CreatePattern(ctx context.Context, p *Pattern) error {
	if p.StartMinute < 0 || p.EndMinute > 24*60 || p.StartMinute >= p.EndMinute {
		return ErrInvalidWindow
	}
	if p.Weekday < time.Sunday || p.Weekday > time.Saturday {
		return fmt.Errorf("invalid weekday %d", p.Weekday)
	}
	if p.EffectiveUntil != nil && dateBefore(*p.EffectiveUntil, p.EffectiveFrom) {
		return ErrInvalidWindow
	}
	return m.patterns.CreatePattern(ctx, p)
}

func (m *Manager) DeactivatePattern(ctx context.Context, id uuid.UUID) error {
	return m.patterns.SetPatternActive(ctx, id, false)
}

func (m *Manager) ActivatePattern(ctx context.Context, id uuid.UUID) error {
	return m.patterns.SetPatternActive(ctx, id, true)
}

// PatternPractitioner returns the owning practitioner of a pattern.
func (m *Manager) PatternPractitioner(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	p, err := m.patterns.GetPatternByID(ctx, id)
	if err != nil {
		return uuid.Nil, err
	}
	return p.PractitionerID, nil
}

// DeletePattern physically removes a pattern, but only after verifying no
// future active booking depends solely on it for its working window.
// Deactivation is the preferred operation; deletion exists for rules
// created in error.
func (m *Manager) DeletePattern(ctx context.Context, id uuid.UUID, loc *time.Location) error {
	if loc == nil {
		loc = time.UTC
	}

	p, err := m.patterns.GetPatternByID(ctx, id)
	if err != nil {
		return err
	}

	now := m.now()
	windows, err := m.bookings.ActiveBookingWindows(ctx, p.PractitionerID, now, now.Add(dependencyHorizon))
	if err != nil {
		return fmt.Errorf("load future bookings: %w", err)
	}

	if len(windows) > 0 {
		patterns, err := m.patterns.ListPatterns(ctx, p.PractitionerID)
		if err != nil {
			return fmt.Errorf("list patterns: %w", err)
		}

		remaining := patterns[:0:0]
		for _, other := range patterns {
			if other.ID != p.ID {
				remaining = append(remaining, other)
			}
		}

		for _, w := range windows {
			day := startOfDay(w.Start, loc)
			overrides, err := m.overrides.OverridesInRange(ctx, p.PractitionerID, day, day)
			if err != nil {
				return fmt.Errorf("list overrides: %w", err)
			}
			// Only bookings that fit today but not after removal depend on
			// this pattern.
			if !coveredBy(workingWindows(day, loc, patterns, overrides), w) {
				continue
			}
			if !coveredBy(workingWindows(day, loc, remaining, overrides), w) {
				return ErrPatternInUse
			}
		}
	}

	return m.patterns.DeletePattern(ctx, id)
}

func (m *Manager) UpsertOverride(ctx context.Context, o *Override) error {
	if o.Available {
		if o.StartMinute == nil || o.EndMinute == nil {
			return ErrInvalidWindow
		}
		if *o.StartMinute < 0 || *o.EndMinute > 24*60 || *o.StartMinute >= *o.EndMinute {
			return ErrInvalidWindow
		}
	} else {
		o.StartMinute = nil
		o.EndMinute = nil
	}
	return m.overrides.UpsertOverride(ctx, o)
}

func (m *Manager) DeleteOverride(ctx context.Context, practitionerID uuid.UUID, date time.Time) error {
	return m.overrides.DeleteOverride(ctx, practitionerID, date)
}

func coveredBy(windows []Interval, w Interval) bool {
	for _, win := range windows {
		if win.Contains(w) {
			return true
		}
	}
	return false
}
