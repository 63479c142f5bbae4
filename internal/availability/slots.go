package availability

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var ErrInvalidDuration = errors.New("service duration must be positive")

// GenerateRequest describes one slot-generation query. From and To are
// inclusive local calendar days in Location.
type GenerateRequest struct {
	PractitionerID  uuid.UUID
	From            time.Time
	To              time.Time
	Location        *time.Location
	ServiceDuration time.Duration
	BufferBefore    time.Duration
	BufferAfter     time.Duration
	SlotInterval    time.Duration
	MinAdvance      time.Duration
	MaxAdvanceDays  int
}

// Generator computes bookable slots from patterns, overrides and existing
// commitments. It is the read path: it never mutates anything and reads a
// point-in-time snapshot of the three stores.
type Generator struct {
	patterns    PatternStore
	overrides   OverrideStore
	commitments CommitmentSource
	now         func() time.Time
}

func NewGenerator(patterns PatternStore, overrides OverrideStore, commitments CommitmentSource, now func() time.Time) *Generator {
	if now == nil {
		now = time.Now
	}
	return &Generator{
		patterns:    patterns,
		overrides:   overrides,
		commitments: commitments,
		now:         now,
	}
}

// GenerateSlots produces the ordered, disjoint customer-visible slots for
// the requested range, day by day. An unknown practitioner simply has no
// patterns and yields an empty result.
func (g *Generator) GenerateSlots(ctx context.Context, req GenerateRequest) ([]Slot, error) {
	if req.ServiceDuration <= 0 {
		return nil, ErrInvalidDuration
	}
	loc := req.Location
	if loc == nil {
		loc = time.UTC
	}
	step := req.SlotInterval
	if step <= 0 {
		step = req.BufferBefore + req.ServiceDuration + req.BufferAfter
	}

	patterns, err := g.patterns.ListPatterns(ctx, req.PractitionerID)
	if err != nil {
		return nil, fmt.Errorf("list patterns: %w", err)
	}

	overrides, err := g.overrides.OverridesInRange(ctx, req.PractitionerID, req.From, req.To)
	if err != nil {
		return nil, fmt.Errorf("list overrides: %w", err)
	}

	rangeStart := startOfDay(req.From, loc)
	rangeEnd := startOfDay(req.To, loc).AddDate(0, 0, 1)

	blocked, err := g.commitments.BlockedIntervals(ctx, req.PractitionerID, rangeStart, rangeEnd)
	if err != nil {
		return nil, fmt.Errorf("load commitments: %w", err)
	}

	// max_advance_days counts from the start of the requested range.
	var lastBookableDay time.Time
	if req.MaxAdvanceDays > 0 {
		lastBookableDay = startOfDay(req.From, loc).AddDate(0, 0, req.MaxAdvanceDays)
	}

	earliestStart := g.now().Add(req.MinAdvance)

	var out []Slot
	for day := startOfDay(req.From, loc); day.Before(rangeEnd); day = day.AddDate(0, 0, 1) {
		if !lastBookableDay.IsZero() && day.After(lastBookableDay) {
			break
		}

		free := freeForDay(day, loc, patterns, overrides, blocked)
		slots := enumerateSlots(free, req.ServiceDuration, req.BufferBefore, req.BufferAfter, step)

		for _, s := range slots {
			if s.Start.Before(earliestStart) {
				continue
			}
			out = append(out, s)
		}
	}

	return out, nil
}

// FreeIntervals computes the free sub-intervals of a single local day after
// override/pattern resolution and commitment subtraction. The admission
// controller re-runs this inside its critical section before committing a
// booking.
func (g *Generator) FreeIntervals(ctx context.Context, practitionerID uuid.UUID, day time.Time, loc *time.Location) ([]Interval, error) {
	if loc == nil {
		loc = time.UTC
	}

	patterns, err := g.patterns.ListPatterns(ctx, practitionerID)
	if err != nil {
		return nil, fmt.Errorf("list patterns: %w", err)
	}

	overrides, err := g.overrides.OverridesInRange(ctx, practitionerID, day, day)
	if err != nil {
		return nil, fmt.Errorf("list overrides: %w", err)
	}

	dayStart := startOfDay(day, loc)
	blocked, err := g.commitments.BlockedIntervals(ctx, practitionerID, dayStart, dayStart.AddDate(0, 0, 1))
	if err != nil {
		return nil, fmt.Errorf("load commitments: %w", err)
	}

	return freeForDay(dayStart, loc, patterns, overrides, blocked), nil
}

// freeForDay resolves one local day: override precedence, pattern union,
// then commitment subtraction.
func freeForDay(day time.Time, loc *time.Location, patterns []Pattern, overrides []Override, blocked []Interval) []Interval {
	windows := workingWindows(day, loc, patterns, overrides)
	if len(windows) == 0 {
		return nil
	}
	return SubtractIntervals(windows, blocked)
}

// workingWindows produces a day's raw working window(s) before commitments
// are considered. An override replaces all patterns for its date; otherwise
// overlapping pattern intervals merge into contiguous windows and
// non-overlapping patterns stay disjoint.
func workingWindows(day time.Time, loc *time.Location, patterns []Pattern, overrides []Override) []Interval {
	for _, o := range overrides {
		if !sameDate(o.Date, day) {
			continue
		}
		if !o.Available || o.StartMinute == nil || o.EndMinute == nil {
			return nil
		}
		return []Interval{{
			Start: minuteOfDay(day, *o.StartMinute, loc),
			End:   minuteOfDay(day, *o.EndMinute, loc),
		}}
	}

	var raw []Interval
	for _, p := range patterns {
		if !p.AppliesOn(day) {
			continue
		}
		raw = append(raw, Interval{
			Start: minuteOfDay(day, p.StartMinute, loc),
			End:   minuteOfDay(day, p.EndMinute, loc),
		})
	}

	return MergeIntervals(raw)
}

// enumerateSlots emits start-aligned candidates from each free sub-interval.
// The candidate advances only while the full buffered span fits; the
// returned slot is the inner customer-visible window with buffers stripped.
func enumerateSlots(free []Interval, duration, bufferBefore, bufferAfter, step time.Duration) []Slot {
	span := bufferBefore + duration + bufferAfter

	var out []Slot
	for _, f := range free {
		for c := f.Start; !c.Add(span).After(f.End); c = c.Add(step) {
			out = append(out, Slot{
				Start: c.Add(bufferBefore),
				End:   c.Add(bufferBefore + duration),
			})
		}
	}
	return out
}

func startOfDay(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}
