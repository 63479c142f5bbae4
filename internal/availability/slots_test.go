package availability

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// In-memory stores shared by the generator and manager tests.

type fakePatternStore struct {
	patterns []Pattern
	deleted  []uuid.UUID
}

func (f *fakePatternStore) CreatePattern(ctx context.Context, p *Pattern) error {
	f.patterns = append(f.patterns, *p)
	return nil
}

func (f *fakePatternStore) GetPatternByID(ctx context.Context, id uuid.UUID) (*Pattern, error) {
	for i := range f.patterns {
		if f.patterns[i].ID == id {
			p := f.patterns[i]
			return &p, nil
		}
	}
	return nil, ErrPatternNotFound
}

func (f *fakePatternStore) ListPatterns(ctx context.Context, practitionerID uuid.UUID) ([]Pattern, error) {
	var out []Pattern
	for _, p := range f.patterns {
		if p.PractitionerID == practitionerID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakePatternStore) SetPatternActive(ctx context.Context, id uuid.UUID, active bool) error {
	for i := range f.patterns {
		if f.patterns[i].ID == id {
			f.patterns[i].Active = active
			return nil
		}
	}
	return ErrPatternNotFound
}

func (f *fakePatternStore) DeletePattern(ctx context.Context, id uuid.UUID) error {
	for i := range f.patterns {
		if f.patterns[i].ID == id {
			f.patterns = append(f.patterns[:i], f.patterns[i+1:]...)
			f.deleted = append(f.deleted, id)
			return nil
		}
	}
	return ErrPatternNotFound
}

type fakeOverrideStore struct {
	overrides []Override
}

func (f *fakeOverrideStore) UpsertOverride(ctx context.Context, o *Override) error {
	for i := range f.overrides {
		if f.overrides[i].PractitionerID == o.PractitionerID && sameDate(f.overrides[i].Date, o.Date) {
			f.overrides[i] = *o
			return nil
		}
	}
	f.overrides = append(f.overrides, *o)
	return nil
}

func (f *fakeOverrideStore) OverridesInRange(ctx context.Context, practitionerID uuid.UUID, from, to time.Time) ([]Override, error) {
	var out []Override
	for _, o := range f.overrides {
		if o.PractitionerID != practitionerID {
			continue
		}
		if dateBefore(o.Date, from) || dateBefore(to, o.Date) {
			continue
		}
		out = append(out, o)
	}
	return out, nil
}

func (f *fakeOverrideStore) DeleteOverride(ctx context.Context, practitionerID uuid.UUID, date time.Time) error {
	for i := range f.overrides {
		if f.overrides[i].PractitionerID == practitionerID && sameDate(f.overrides[i].Date, date) {
			f.overrides = append(f.overrides[:i], f.overrides[i+1:]...)
			return nil
		}
	}
	return ErrOverrideNotFound
}

type fakeCommitments struct {
	blocked []Interval
}

func (f *fakeCommitments) BlockedIntervals(ctx context.Context, practitionerID uuid.UUID, from, to time.Time) ([]Interval, error) {
	return f.blocked, nil
}

type fakeBookingWindows struct {
	windows []Interval
}

func (f *fakeBookingWindows) ActiveBookingWindows(ctx context.Context, practitionerID uuid.UUID, from, to time.Time) ([]Interval, error) {
	return f.windows, nil
}

// Fixture: a practitioner working Tuesdays 09:00-17:00 in Copenhagen.

var testLoc = mustLoadLocation("Europe/Copenhagen")

func mustLoadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(err)
	}
	return loc
}

func fixedNow() time.Time {
	// A Monday.
	return time.Date(2026, 8, 31, 12, 0, 0, 0, testLoc)
}

func weeklyPattern(pid uuid.UUID, weekday time.Weekday, startMin, endMin int) Pattern {
	return Pattern{
		ID:             uuid.New(),
		PractitionerID: pid,
		Weekday:        weekday,
		StartMinute:    startMin,
		EndMinute:      endMin,
		EffectiveFrom:  time.Date(2026, 1, 1, 0, 0, 0, 0, testLoc),
		Active:         true,
	}
}

func newTestGenerator(patterns *fakePatternStore, overrides *fakeOverrideStore, commitments *fakeCommitments) *Generator {
	return NewGenerator(patterns, overrides, commitments, fixedNow)
}

func slotAt(day time.Time, hour, min int, duration time.Duration) Slot {
	start := time.Date(day.Year(), day.Month(), day.Day(), hour, min, 0, 0, testLoc)
	return Slot{Start: start, End: start.Add(duration)}
}

func TestGenerateSlots_SingleDayPattern(t *testing.T) {
	pid := uuid.New()
	patterns := &fakePatternStore{patterns: []Pattern{
		weeklyPattern(pid, time.Tuesday, 9*60, 12*60),
	}}
	gen := newTestGenerator(patterns, &fakeOverrideStore{}, &fakeCommitments{})

	day := time.Date(2026, 9, 1, 0, 0, 0, 0, testLoc) // Tuesday
	slots, err := gen.GenerateSlots(context.Background(), GenerateRequest{
		PractitionerID:  pid,
		From:            day,
		To:              day,
		Location:        testLoc,
		ServiceDuration: 60 * time.Minute,
		SlotInterval:    60 * time.Minute,
	})
	require.NoError(t, err)

	assert.Equal(t, []Slot{
		slotAt(day, 9, 0, time.Hour),
		slotAt(day, 10, 0, time.Hour),
		slotAt(day, 11, 0, time.Hour),
	}, slots)
}

func TestGenerateSlots_UnknownPractitionerEmpty(t *testing.T) {
	gen := newTestGenerator(&fakePatternStore{}, &fakeOverrideStore{}, &fakeCommitments{})

	day := time.Date(2026, 9, 1, 0, 0, 0, 0, testLoc)
	slots, err := gen.GenerateSlots(context.Background(), GenerateRequest{
		PractitionerID:  uuid.New(),
		From:            day,
		To:              day,
		Location:        testLoc,
		ServiceDuration: 60 * time.Minute,
		SlotInterval:    30 * time.Minute,
	})
	require.NoError(t, err)
	assert.Empty(t, slots)
}

func TestGenerateSlots_InvalidDuration(t *testing.T) {
	gen := newTestGenerator(&fakePatternStore{}, &fakeOverrideStore{}, &fakeCommitments{})

	_, err := gen.GenerateSlots(context.Background(), GenerateRequest{
		PractitionerID:  uuid.New(),
		From:            fixedNow(),
		To:              fixedNow(),
		ServiceDuration: 0,
	})
	assert.ErrorIs(t, err, ErrInvalidDuration)
}

func TestGenerateSlots_OverrideReplacesPatterns(t *testing.T) {
	pid := uuid.New()
	day := time.Date(2026, 9, 1, 0, 0, 0, 0, testLoc) // Tuesday

	patterns := &fakePatternStore{patterns: []Pattern{
		weeklyPattern(pid, time.Tuesday, 9*60, 17*60),
	}}
	start := 13 * 60
	end := 15 * 60
	overrides := &fakeOverrideStore{overrides: []Override{{
		ID:             uuid.New(),
		PractitionerID: pid,
		Date:           day,
		Available:      true,
		StartMinute:    &start,
		EndMinute:      &end,
	}}}
	gen := newTestGenerator(patterns, overrides, &fakeCommitments{})

	slots, err := gen.GenerateSlots(context.Background(), GenerateRequest{
		PractitionerID:  pid,
		From:            day,
		To:              day,
		Location:        testLoc,
		ServiceDuration: 60 * time.Minute,
		SlotInterval:    60 * time.Minute,
	})
	require.NoError(t, err)

	assert.Equal(t, []Slot{
		slotAt(day, 13, 0, time.Hour),
		slotAt(day, 14, 0, time.Hour),
	}, slots)
}

func TestGenerateSlots_UnavailableOverrideBlocksDay(t *testing.T) {
	pid := uuid.New()
	day := time.Date(2026, 9, 1, 0, 0, 0, 0, testLoc)

	patterns := &fakePatternStore{patterns: []Pattern{
		weeklyPattern(pid, time.Tuesday, 9*60, 17*60),
	}}
	overrides := &fakeOverrideStore{overrides: []Override{{
		ID:             uuid.New(),
		PractitionerID: pid,
		Date:           day,
		Available:      false,
	}}}
	gen := newTestGenerator(patterns, overrides, &fakeCommitments{})

	slots, err := gen.GenerateSlots(context.Background(), GenerateRequest{
		PractitionerID:  pid,
		From:            day,
		To:              day,
		Location:        testLoc,
		ServiceDuration: 60 * time.Minute,
		SlotInterval:    60 * time.Minute,
	})
	require.NoError(t, err)
	assert.Empty(t, slots)
}

func TestGenerateSlots_OverlappingPatternsUnion(t *testing.T) {
	pid := uuid.New()
	day := time.Date(2026, 9, 1, 0, 0, 0, 0, testLoc)

	patterns := &fakePatternStore{patterns: []Pattern{
		weeklyPattern(pid, time.Tuesday, 9*60, 12*60),
		weeklyPattern(pid, time.Tuesday, 11*60, 14*60),
	}}
	gen := newTestGenerator(patterns, &fakeOverrideStore{}, &fakeCommitments{})

	slots, err := gen.GenerateSlots(context.Background(), GenerateRequest{
		PractitionerID:  pid,
		From:            day,
		To:              day,
		Location:        testLoc,
		ServiceDuration: 60 * time.Minute,
		SlotInterval:    60 * time.Minute,
	})
	require.NoError(t, err)

	// 09:00-14:00 contiguous, no artificial break at 12:00.
	assert.Equal(t, []Slot{
		slotAt(day, 9, 0, time.Hour),
		slotAt(day, 10, 0, time.Hour),
		slotAt(day, 11, 0, time.Hour),
		slotAt(day, 12, 0, time.Hour),
		slotAt(day, 13, 0, time.Hour),
	}, slots)
}

func TestGenerateSlots_DisjointPatternsStaySeparate(t *testing.T) {
	pid := uuid.New()
	day := time.Date(2026, 9, 1, 0, 0, 0, 0, testLoc)

	patterns := &fakePatternStore{patterns: []Pattern{
		weeklyPattern(pid, time.Tuesday, 9*60, 11*60),
		weeklyPattern(pid, time.Tuesday, 13*60, 15*60),
	}}
	gen := newTestGenerator(patterns, &fakeOverrideStore{}, &fakeCommitments{})

	slots, err := gen.GenerateSlots(context.Background(), GenerateRequest{
		PractitionerID:  pid,
		From:            day,
		To:              day,
		Location:        testLoc,
		ServiceDuration: 90 * time.Minute,
		SlotInterval:    30 * time.Minute,
	})
	require.NoError(t, err)

	// A 90-minute service fits once per two-hour window; no slot may span
	// the 11:00-13:00 gap.
	assert.Equal(t, []Slot{
		slotAt(day, 9, 0, 90*time.Minute),
		slotAt(day, 9, 30, 90*time.Minute),
		slotAt(day, 13, 0, 90*time.Minute),
		slotAt(day, 13, 30, 90*time.Minute),
	}, slots)
}

func TestGenerateSlots_BuffersShrinkUsableWindow(t *testing.T) {
	pid := uuid.New()
	day := time.Date(2026, 9, 1, 0, 0, 0, 0, testLoc)

	patterns := &fakePatternStore{patterns: []Pattern{
		weeklyPattern(pid, time.Tuesday, 9*60, 11*60),
	}}
	gen := newTestGenerator(patterns, &fakeOverrideStore{}, &fakeCommitments{})

	slots, err := gen.GenerateSlots(context.Background(), GenerateRequest{
		PractitionerID:  pid,
		From:            day,
		To:              day,
		Location:        testLoc,
		ServiceDuration: 60 * time.Minute,
		BufferBefore:    15 * time.Minute,
		BufferAfter:     15 * time.Minute,
		SlotInterval:    30 * time.Minute,
	})
	require.NoError(t, err)

	// The buffered span is 90m inside a 120m window: candidates at 09:00
	// and 09:30 fit, the visible slot starts after the leading buffer.
	assert.Equal(t, []Slot{
		slotAt(day, 9, 15, time.Hour),
		slotAt(day, 9, 45, time.Hour),
	}, slots)
}

func TestGenerateSlots_CommitmentsSubtracted(t *testing.T) {
	pid := uuid.New()
	day := time.Date(2026, 9, 1, 0, 0, 0, 0, testLoc)

	patterns := &fakePatternStore{patterns: []Pattern{
		weeklyPattern(pid, time.Tuesday, 9*60, 13*60),
	}}
	commitments := &fakeCommitments{blocked: []Interval{{
		Start: time.Date(2026, 9, 1, 10, 0, 0, 0, testLoc),
		End:   time.Date(2026, 9, 1, 11, 0, 0, 0, testLoc),
	}}}
	gen := newTestGenerator(patterns, &fakeOverrideStore{}, commitments)

	slots, err := gen.GenerateSlots(context.Background(), GenerateRequest{
		PractitionerID:  pid,
		From:            day,
		To:              day,
		Location:        testLoc,
		ServiceDuration: 60 * time.Minute,
		SlotInterval:    60 * time.Minute,
	})
	require.NoError(t, err)

	assert.Equal(t, []Slot{
		slotAt(day, 9, 0, time.Hour),
		slotAt(day, 11, 0, time.Hour),
		slotAt(day, 12, 0, time.Hour),
	}, slots)
}

func TestGenerateSlots_MinAdvanceFiltersNearSlots(t *testing.T) {
	pid := uuid.New()
	day := time.Date(2026, 9, 1, 0, 0, 0, 0, testLoc) // the day after fixedNow

	patterns := &fakePatternStore{patterns: []Pattern{
		weeklyPattern(pid, time.Tuesday, 9*60, 13*60),
	}}
	gen := newTestGenerator(patterns, &fakeOverrideStore{}, &fakeCommitments{})

	slots, err := gen.GenerateSlots(context.Background(), GenerateRequest{
		PractitionerID:  pid,
		From:            day,
		To:              day,
		Location:        testLoc,
		ServiceDuration: 60 * time.Minute,
		SlotInterval:    60 * time.Minute,
		MinAdvance:      24 * time.Hour, // earliest start Tue 12:00
	})
	require.NoError(t, err)

	assert.Equal(t, []Slot{
		slotAt(day, 12, 0, time.Hour),
	}, slots)
}

func TestGenerateSlots_MaxAdvanceCutsRange(t *testing.T) {
	pid := uuid.New()
	from := time.Date(2026, 9, 1, 0, 0, 0, 0, testLoc)
	to := from.AddDate(0, 0, 14) // two more Tuesdays in range

	patterns := &fakePatternStore{patterns: []Pattern{
		weeklyPattern(pid, time.Tuesday, 9*60, 10*60),
	}}
	gen := newTestGenerator(patterns, &fakeOverrideStore{}, &fakeCommitments{})

	slots, err := gen.GenerateSlots(context.Background(), GenerateRequest{
		PractitionerID:  pid,
		From:            from,
		To:              to,
		Location:        testLoc,
		ServiceDuration: 60 * time.Minute,
		SlotInterval:    60 * time.Minute,
		MaxAdvanceDays:  7,
	})
	require.NoError(t, err)

	// Only the Tuesdays within 7 days of the range start survive.
	assert.Equal(t, []Slot{
		slotAt(from, 9, 0, time.Hour),
		slotAt(from.AddDate(0, 0, 7), 9, 0, time.Hour),
	}, slots)
}

func TestGenerateSlots_EffectiveWindowBoundsPattern(t *testing.T) {
	pid := uuid.New()
	from := time.Date(2026, 9, 1, 0, 0, 0, 0, testLoc)
	until := time.Date(2026, 9, 1, 0, 0, 0, 0, testLoc)

	p := weeklyPattern(pid, time.Tuesday, 9*60, 10*60)
	p.EffectiveUntil = &until
	patterns := &fakePatternStore{patterns: []Pattern{p}}
	gen := newTestGenerator(patterns, &fakeOverrideStore{}, &fakeCommitments{})

	slots, err := gen.GenerateSlots(context.Background(), GenerateRequest{
		PractitionerID:  pid,
		From:            from,
		To:              from.AddDate(0, 0, 7),
		Location:        testLoc,
		ServiceDuration: 60 * time.Minute,
		SlotInterval:    60 * time.Minute,
	})
	require.NoError(t, err)

	// The following Tuesday is past effective_until.
	assert.Equal(t, []Slot{
		slotAt(from, 9, 0, time.Hour),
	}, slots)
}

func TestFreeIntervals_MatchesGeneratorResolution(t *testing.T) {
	pid := uuid.New()
	day := time.Date(2026, 9, 1, 0, 0, 0, 0, testLoc)

	patterns := &fakePatternStore{patterns: []Pattern{
		weeklyPattern(pid, time.Tuesday, 9*60, 17*60),
	}}
	commitments := &fakeCommitments{blocked: []Interval{{
		Start: time.Date(2026, 9, 1, 12, 0, 0, 0, testLoc),
		End:   time.Date(2026, 9, 1, 13, 0, 0, 0, testLoc),
	}}}
	gen := newTestGenerator(patterns, &fakeOverrideStore{}, commitments)

	free, err := gen.FreeIntervals(context.Background(), pid, day, testLoc)
	require.NoError(t, err)

	assert.Equal(t, []Interval{
		{Start: time.Date(2026, 9, 1, 9, 0, 0, 0, testLoc), End: time.Date(2026, 9, 1, 12, 0, 0, 0, testLoc)},
		{Start: time.Date(2026, 9, 1, 13, 0, 0, 0, testLoc), End: time.Date(2026, 9, 1, 17, 0, 0, 0, testLoc)},
	}, free)
}
