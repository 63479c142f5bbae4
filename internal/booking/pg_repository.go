package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/locspot/salon-booking/internal/availability"
)

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

const bookingColumns = `
	id, practitioner_id, customer_id, service_id,
	appointment_start, appointment_end, duration_minutes,
	buffer_before_minutes, buffer_after_minutes, status,
	total_amount, currency, needs_reconciliation,
	cancellation_fee, cancellation_reason, cancelled_at,
	created_at, updated_at`

func scanBooking(row pgx.Row) (*Booking, error) {
	var b Booking

	err := row.Scan(
		&b.ID,
		&b.PractitionerID,
		&b.CustomerID,
		&b.ServiceID,
		&b.Start,
		&b.End,
		&b.DurationMinutes,
		&b.BufferBeforeMinutes,
		&b.BufferAfterMinutes,
		&b.Status,
		&b.TotalAmount,
		&b.Currency,
		&b.NeedsReconciliation,
		&b.CancellationFee,
		&b.CancellationReason,
		&b.CancelledAt,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}

	return &b, nil
}

func (r *PgRepository) GetBookingByID(ctx context.Context, id uuid.UUID) (*Booking, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT`+bookingColumns+`
		FROM bookings
		WHERE id = $1
	`, id)
	return scanBooking(row)
}

func (r *PgRepository) CreateBooking(ctx context.Context, b *Booking, changedBy *uuid.UUID) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin admission tx: %w", err)
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx, `
		INSERT INTO bookings
			(id, practitioner_id, customer_id, service_id,
			 appointment_start, appointment_end, duration_minutes,
			 buffer_before_minutes, buffer_after_minutes, status,
			 total_amount, currency, needs_reconciliation,
			 created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, now(), now())
		RETURNING`+bookingColumns+`
	`, b.ID, b.PractitionerID, b.CustomerID, b.ServiceID,
		b.Start, b.End, b.DurationMinutes,
		b.BufferBeforeMinutes, b.BufferAfterMinutes, b.Status,
		b.TotalAmount, b.Currency, b.NeedsReconciliation)

	created, err := scanBooking(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23P01" { // exclusion_violation
			return ErrCommitmentOverlap
		}
		return fmt.Errorf("insert booking: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO booking_state_changes
			(booking_id, previous_status, new_status, changed_by, changed_at)
		VALUES ($1, NULL, $2, $3, now())
	`, created.ID, created.Status, changedBy)
	if err != nil {
		return fmt.Errorf("insert admission journal row: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit admission tx: %w", err)
	}

	*b = *created
	return nil
}

func (r *PgRepository) TransitionStatus(ctx context.Context, p TransitionParams) (*Booking, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transition tx: %w", err)
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx, `
		UPDATE bookings
		SET status = $2,
		    cancellation_fee = COALESCE($4, cancellation_fee),
		    cancellation_reason = COALESCE($5, cancellation_reason),
		    cancelled_at = COALESCE($6, cancelled_at),
		    needs_reconciliation = needs_reconciliation OR $7,
		    updated_at = now()
		WHERE id = $1
		  AND status = $3
		RETURNING`+bookingColumns+`
	`, p.BookingID, p.To, p.From, p.CancellationFee, p.Reason, p.CancelledAt, p.FlagReconcile)

	updated, err := scanBooking(row)
	if err != nil {
		return nil, err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO booking_state_changes
			(booking_id, previous_status, new_status, reason, changed_by, changed_at)
		VALUES ($1, $2, $3, $4, $5, now())
	`, p.BookingID, p.From, p.To, p.Reason, p.ChangedBy)
	if err != nil {
		return nil, fmt.Errorf("insert journal row: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transition tx: %w", err)
	}

	return updated, nil
}

func (r *PgRepository) ActiveBufferedIntervals(ctx context.Context, practitionerID uuid.UUID, from, to time.Time) ([]availability.Interval, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT buffered_start, buffered_end
		FROM bookings
		WHERE practitioner_id = $1
		  AND status IN ('pending', 'confirmed', 'in_progress')
		  AND buffered_start < $3
		  AND buffered_end > $2
		ORDER BY buffered_start
	`, practitionerID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanIntervals(rows)
}

func (r *PgRepository) ActiveBookingWindows(ctx context.Context, practitionerID uuid.UUID, from, to time.Time) ([]availability.Interval, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT appointment_start, appointment_end
		FROM bookings
		WHERE practitioner_id = $1
		  AND status IN ('pending', 'confirmed', 'in_progress')
		  AND appointment_start < $3
		  AND appointment_end > $2
		ORDER BY appointment_start
	`, practitionerID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanIntervals(rows)
}

func scanIntervals(rows pgx.Rows) ([]availability.Interval, error) {
	var result []availability.Interval
	for rows.Next() {
		var iv availability.Interval
		if err := rows.Scan(&iv.Start, &iv.End); err != nil {
			return nil, err
		}
		result = append(result, iv)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *PgRepository) ListByCustomer(ctx context.Context, customerID uuid.UUID, limit, offset int) ([]Booking, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT`+bookingColumns+`
		FROM bookings
		WHERE customer_id = $1
		ORDER BY appointment_start DESC
		LIMIT $2 OFFSET $3
	`, customerID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectBookings(rows)
}

func (r *PgRepository) ListActiveByPractitioner(ctx context.Context, practitionerID uuid.UUID, from, to time.Time) ([]Booking, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT`+bookingColumns+`
		FROM bookings
		WHERE practitioner_id = $1
		  AND status IN ('pending', 'confirmed', 'in_progress')
		  AND appointment_start < $3
		  AND appointment_end > $2
		ORDER BY appointment_start
	`, practitionerID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectBookings(rows)
}

func collectBookings(rows pgx.Rows) ([]Booking, error) {
	var result []Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *b)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *PgRepository) ListStateChanges(ctx context.Context, bookingID uuid.UUID) ([]StateChange, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, booking_id, previous_status, new_status, reason, changed_by, changed_at
		FROM booking_state_changes
		WHERE booking_id = $1
		ORDER BY id
	`, bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []StateChange
	for rows.Next() {
		var sc StateChange
		if err := rows.Scan(&sc.ID, &sc.BookingID, &sc.PreviousStatus, &sc.NewStatus, &sc.Reason, &sc.ChangedBy, &sc.ChangedAt); err != nil {
			return nil, err
		}
		result = append(result, sc)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *PgRepository) FindStalePending(ctx context.Context, createdBefore time.Time) ([]Booking, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT`+bookingColumns+`
		FROM bookings
		WHERE status = 'pending'
		  AND created_at < $1
	`, createdBefore)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectBookings(rows)
}

func (r *PgRepository) FindConfirmedStartingBetween(ctx context.Context, from, to time.Time) ([]Booking, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT`+bookingColumns+`
		FROM bookings
		WHERE status = 'confirmed'
		  AND reminder_sent_at IS NULL
		  AND appointment_start >= $1
		  AND appointment_start < $2
	`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectBookings(rows)
}

func (r *PgRepository) MarkReminderSent(ctx context.Context, id uuid.UUID, at time.Time) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE bookings
		SET reminder_sent_at = $2
		WHERE id = $1
	`, id, at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrBookingNotFound
	}
	return nil
}
