package booking

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/locspot/salon-booking/internal/availability"
	"github.com/locspot/salon-booking/internal/calendar"
	"github.com/locspot/salon-booking/internal/catalog"
	"github.com/locspot/salon-booking/internal/notify"
	"github.com/locspot/salon-booking/internal/pricing"
	redisclient "github.com/locspot/salon-booking/internal/redis"
)

// retryDelay spaces admission retries when the practitioner lock is
// contended.
const retryDelay = 50 * time.Millisecond

// Service is the write path of the scheduling core: it admits bookings
// against the Commitment Index and drives the booking state machine.
//
// Pricing and notification policy: a pricing failure never fails admission
// or cancellation. The booking proceeds with a zero amount and
// needs_reconciliation set. Event publishing is best-effort and logged on
// failure.
type Service struct {
	repo        Repository
	events      calendar.Repository
	commitments availability.CommitmentSource
	generator   *availability.Generator
	catalog     catalog.Repository
	quoter      pricing.Quoter
	notifier    notify.Notifier
	locker      redisclient.Locker
	retries     int
	now         func() time.Time
}

type ServiceConfig struct {
	Repo        Repository
	Events      calendar.Repository
	Commitments availability.CommitmentSource
	Generator   *availability.Generator
	Catalog     catalog.Repository
	Quoter      pricing.Quoter
	Notifier    notify.Notifier
	Locker      redisclient.Locker
	Retries     int
	Now         func() time.Time
}

func NewService(cfg ServiceConfig) *Service {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Retries <= 0 {
		cfg.Retries = 3
	}
	if cfg.Notifier == nil {
		cfg.Notifier = notify.NopNotifier{}
	}
	return &Service{
		repo:        cfg.Repo,
		events:      cfg.Events,
		commitments: cfg.Commitments,
		generator:   cfg.Generator,
		catalog:     cfg.Catalog,
		quoter:      cfg.Quoter,
		notifier:    cfg.Notifier,
		locker:      cfg.Locker,
		retries:     cfg.Retries,
		now:         cfg.Now,
	}
}

// AvailableSlots is the read path: it resolves the service parameters and
// the practitioner's time zone, then asks the slot generator for the
// customer-visible slots in [from, to] (inclusive local days).
func (s *Service) AvailableSlots(ctx context.Context, practitionerID, serviceID uuid.UUID, from, to time.Time, slotInterval time.Duration) ([]availability.Slot, error) {
	svc, err := s.catalog.GetServiceByID(ctx, serviceID)
	if err != nil {
		return nil, err
	}

	prac, err := s.catalog.GetPractitionerByID(ctx, practitionerID)
	if err != nil {
		// An unknown practitioner has no bookable time.
		if errors.Is(err, catalog.ErrPractitionerNotFound) {
			return nil, nil
		}
		return nil, err
	}

	loc, err := time.LoadLocation(prac.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load practitioner timezone %q: %w", prac.Timezone, err)
	}

	return s.generator.GenerateSlots(ctx, availability.GenerateRequest{
		PractitionerID:  practitionerID,
		From:            from,
		To:              to,
		Location:        loc,
		ServiceDuration: svc.Duration(),
		BufferBefore:    svc.BufferBefore(),
		BufferAfter:     svc.BufferAfter(),
		SlotInterval:    slotInterval,
		MinAdvance:      svc.MinAdvance(),
		MaxAdvanceDays:  svc.MaxAdvanceDays,
	})
}

// AdmitBooking atomically reserves the requested window as a new pending
// booking. Admissions for the same practitioner are serialized by a
// practitioner-scoped lock; inside the critical section the day's free
// intervals are re-derived from the Commitment Index before the insert, so
// at most one of two overlapping concurrent requests can succeed.
func (s *Service) AdmitBooking(ctx context.Context, practitionerID, customerID, serviceID uuid.UUID, requestedStart time.Time) (*Booking, error) {
	svc, err := s.catalog.GetServiceByID(ctx, serviceID)
	if err != nil {
		return nil, err
	}
	if svc.DurationMinutes <= 0 {
		return nil, availability.ErrInvalidDuration
	}
	if !svc.Active {
		return nil, &PolicyError{Rule: "service_inactive", Message: "service is not bookable"}
	}

	prac, err := s.catalog.GetPractitionerByID(ctx, practitionerID)
	if err != nil {
		return nil, err
	}
	loc, err := time.LoadLocation(prac.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load practitioner timezone %q: %w", prac.Timezone, err)
	}

	if _, err := s.catalog.GetCustomerByID(ctx, customerID); err != nil {
		return nil, err
	}

	now := s.now()
	// All scheduling math is at minute granularity.
	start := requestedStart.In(loc).Truncate(time.Minute)
	end := start.Add(svc.Duration())

	if start.Before(now.Add(svc.MinAdvance())) {
		return nil, &PolicyError{
			Rule:    "min_advance_hours",
			Message: fmt.Sprintf("booking requires at least %dh notice", svc.MinAdvanceHours),
		}
	}
	if svc.MaxAdvanceDays > 0 {
		horizon := startOfDay(now.In(loc), loc).AddDate(0, 0, svc.MaxAdvanceDays+1)
		if !start.Before(horizon) {
			return nil, &PolicyError{
				Rule:    "max_advance_days",
				Message: fmt.Sprintf("booking may be at most %d days ahead", svc.MaxAdvanceDays),
			}
		}
	}

	buffered := availability.Interval{
		Start: start.Add(-svc.BufferBefore()),
		End:   end.Add(svc.BufferAfter()),
	}

	var created *Booking

	admit := func(lockCtx context.Context) error {
		free, err := s.generator.FreeIntervals(lockCtx, practitionerID, start, loc)
		if err != nil {
			return fmt.Errorf("derive free intervals: %w", err)
		}

		if !fitsWithin(free, buffered) {
			return s.classifyRejection(lockCtx, practitionerID, buffered)
		}

		amount, needsReconcile := s.quoteAmount(lockCtx, svc, start)

		b := &Booking{
			PractitionerID:      practitionerID,
			CustomerID:          customerID,
			ServiceID:           serviceID,
			Start:               start,
			End:                 end,
			DurationMinutes:     svc.DurationMinutes,
			BufferBeforeMinutes: svc.BufferBeforeMinutes,
			BufferAfterMinutes:  svc.BufferAfterMinutes,
			Status:              StatusPending,
			TotalAmount:         amount,
			Currency:            svc.Currency,
			NeedsReconciliation: needsReconcile,
		}

		if err := s.repo.CreateBooking(lockCtx, b, nil); err != nil {
			if errors.Is(err, ErrCommitmentOverlap) {
				// The exclusion constraint caught a commitment that landed
				// between the free-interval derivation and the insert.
				return s.classifyRejection(lockCtx, practitionerID, buffered)
			}
			return fmt.Errorf("create pending booking: %w", err)
		}

		created = b
		return nil
	}

	for attempt := 0; attempt < s.retries; attempt++ {
		err = s.locker.WithPractitionerLock(ctx, practitionerID, admit)
		if !errors.Is(err, redisclient.ErrLockNotAcquired) {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(retryDelay << attempt):
		}
	}
	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrAdmissionContended
		}
		return nil, err
	}

	s.publish(ctx, notify.EventBookingCreated, created)
	return created, nil
}

// classifyRejection distinguishes a window that collides with an existing
// commitment (conflict) from one that falls outside any working window
// (policy). Only the commitment's time range is disclosed.
func (s *Service) classifyRejection(ctx context.Context, practitionerID uuid.UUID, buffered availability.Interval) error {
	blocked, err := s.commitments.BlockedIntervals(ctx, practitionerID, buffered.Start, buffered.End)
	if err != nil {
		return fmt.Errorf("inspect commitments: %w", err)
	}

	for _, b := range blocked {
		if b.Overlaps(buffered) {
			return &ConflictError{Start: b.Start, End: b.End}
		}
	}

	return &PolicyError{
		Rule:    "outside_availability",
		Message: "requested window is outside the practitioner's availability",
	}
}

func (s *Service) quoteAmount(ctx context.Context, svc *catalog.Service, start time.Time) (amount int64, needsReconcile bool) {
	amount, err := s.quoter.Quote(ctx, svc, start)
	if err != nil {
		log.Printf("pricing quote failed for service %s: %v (booking flagged for reconciliation)", svc.ID, err)
		return 0, true
	}
	return amount, false
}

// Confirm moves a pending booking to confirmed. The slot is already held
// from admission, so no conflict re-check happens here.
func (s *Service) Confirm(ctx context.Context, id uuid.UUID, actor *uuid.UUID) (*Booking, error) {
	return s.transition(ctx, id, StatusConfirmed, nil, actor, nil)
}

// Cancel moves any non-terminal booking to cancelled, computing the
// cancellation fee from the time remaining before the appointment. Leaving
// the active statuses immediately frees the interval for new admissions.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID, reason *string, actor *uuid.UUID) (*Booking, error) {
	return s.transition(ctx, id, StatusCancelled, reason, actor, func(p *TransitionParams, b *Booking) {
		now := s.now()
		fee, err := s.quoter.CancellationFee(ctx, b.TotalAmount, b.Start.Sub(now))
		if err != nil {
			log.Printf("cancellation fee computation failed for booking %s: %v (flagged for reconciliation)", b.ID, err)
			fee = 0
			p.FlagReconcile = true
		}
		p.CancellationFee = &fee
		p.CancelledAt = &now
	})
}

// Start moves a confirmed booking to in_progress once the appointment has
// begun.
func (s *Service) Start(ctx context.Context, id uuid.UUID, actor *uuid.UUID) (*Booking, error) {
	return s.transition(ctx, id, StatusInProgress, nil, actor, nil)
}

// Complete moves an in_progress booking to completed.
func (s *Service) Complete(ctx context.Context, id uuid.UUID, actor *uuid.UUID) (*Booking, error) {
	return s.transition(ctx, id, StatusCompleted, nil, actor, nil)
}

// MarkNoShow records a confirmed or in_progress booking whose appointment
// end has passed without the customer showing up.
func (s *Service) MarkNoShow(ctx context.Context, id uuid.UUID, reason *string, actor *uuid.UUID) (*Booking, error) {
	return s.transition(ctx, id, StatusNoShow, reason, actor, nil)
}

func (s *Service) transition(ctx context.Context, id uuid.UUID, to Status, reason *string, actor *uuid.UUID, decorate func(*TransitionParams, *Booking)) (*Booking, error) {
	b, err := s.repo.GetBookingByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := ValidateTransition(b, to, s.now()); err != nil {
		return nil, err
	}

	params := TransitionParams{
		BookingID: id,
		From:      b.Status,
		To:        to,
		Reason:    reason,
		ChangedBy: actor,
	}
	if decorate != nil {
		decorate(&params, b)
	}

	updated, err := s.repo.TransitionStatus(ctx, params)
	if err != nil {
		// The compare-and-set missed: someone else moved the booking
		// between our read and the update. Reload so the error names the
		// real source state.
		if errors.Is(err, ErrBookingNotFound) {
			current, loadErr := s.repo.GetBookingByID(ctx, id)
			if loadErr == nil {
				return nil, &InvalidTransitionError{From: current.Status, To: to}
			}
		}
		return nil, err
	}

	s.publish(ctx, eventTypeFor(to), updated)
	return updated, nil
}

// GetBooking retrieves a booking by ID.
func (s *Service) GetBooking(ctx context.Context, id uuid.UUID) (*Booking, error) {
	return s.repo.GetBookingByID(ctx, id)
}

// ListBookingsByCustomer retrieves a customer's bookings, newest first.
func (s *Service) ListBookingsByCustomer(ctx context.Context, customerID uuid.UUID, limit, offset int) ([]Booking, error) {
	if limit <= 0 {
		limit = 20 // default
	}
	if limit > 100 {
		limit = 100 // max
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.ListByCustomer(ctx, customerID, limit, offset)
}

// StateHistory returns the booking's append-only transition journal.
func (s *Service) StateHistory(ctx context.Context, bookingID uuid.UUID) ([]StateChange, error) {
	return s.repo.ListStateChanges(ctx, bookingID)
}

// CalendarFeed renders a practitioner's upcoming calendar as an iCalendar
// document.
func (s *Service) CalendarFeed(ctx context.Context, practitionerID uuid.UUID, from, to time.Time) (string, error) {
	prac, err := s.catalog.GetPractitionerByID(ctx, practitionerID)
	if err != nil {
		return "", err
	}

	bookings, err := s.repo.ListActiveByPractitioner(ctx, practitionerID, from, to)
	if err != nil {
		return "", fmt.Errorf("list bookings: %w", err)
	}

	events, err := s.events.EventsInRange(ctx, practitionerID, from, to)
	if err != nil {
		return "", fmt.Errorf("list events: %w", err)
	}

	feed := make([]calendar.FeedBooking, 0, len(bookings))
	for _, b := range bookings {
		feed = append(feed, calendar.FeedBooking{
			ID:    b.ID.String(),
			Start: b.Start,
			End:   b.End,
		})
	}

	return calendar.BuildFeed(prac.Name, feed, events, from, to), nil
}

// ExpireStalePending cancels pending bookings older than ttl, freeing their
// intervals. Intended to be called periodically by the worker.
func (s *Service) ExpireStalePending(ctx context.Context, ttl time.Duration) error {
	cutoff := s.now().Add(-ttl)
	stale, err := s.repo.FindStalePending(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("find stale pending bookings: %w", err)
	}

	reason := "confirmation window expired"
	for _, b := range stale {
		updated, err := s.repo.TransitionStatus(ctx, TransitionParams{
			BookingID: b.ID,
			From:      StatusPending,
			To:        StatusCancelled,
			Reason:    &reason,
		})
		if err != nil {
			if !errors.Is(err, ErrBookingNotFound) {
				log.Printf("failed to expire booking %s: %v", b.ID, err)
			}
			continue
		}
		s.publish(ctx, notify.EventBookingCancelled, updated)
	}

	return nil
}

// SendReminders publishes a reminder event for every confirmed booking
// starting within the window that has not been reminded yet.
func (s *Service) SendReminders(ctx context.Context, window time.Duration) error {
	now := s.now()
	due, err := s.repo.FindConfirmedStartingBetween(ctx, now, now.Add(window))
	if err != nil {
		return fmt.Errorf("find bookings due a reminder: %w", err)
	}

	for _, b := range due {
		b := b
		s.publish(ctx, notify.EventBookingReminder, &b)
		if err := s.repo.MarkReminderSent(ctx, b.ID, now); err != nil {
			log.Printf("failed to mark reminder sent for booking %s: %v", b.ID, err)
		}
	}

	return nil
}

func (s *Service) publish(ctx context.Context, typ notify.EventType, b *Booking) {
	ev := notify.BookingEvent{
		Type:           typ,
		BookingID:      b.ID,
		PractitionerID: b.PractitionerID,
		CustomerID:     b.CustomerID,
		Start:          b.Start,
		End:            b.End,
		Status:         string(b.Status),
		OccurredAt:     s.now(),
	}
	if err := s.notifier.PublishBookingEvent(ctx, ev); err != nil {
		log.Printf("failed to publish %s for booking %s: %v", typ, b.ID, err)
	}
}

func eventTypeFor(to Status) notify.EventType {
	switch to {
	case StatusConfirmed:
		return notify.EventBookingConfirmed
	case StatusCancelled:
		return notify.EventBookingCancelled
	case StatusCompleted:
		return notify.EventBookingCompleted
	case StatusNoShow:
		return notify.EventBookingNoShow
	default:
		return notify.EventType("booking." + string(to))
	}
}

func fitsWithin(free []availability.Interval, w availability.Interval) bool {
	for _, f := range free {
		if f.Contains(w) {
			return true
		}
	}
	return false
}

func startOfDay(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}
