package calendar

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

func scanEvent(row pgx.Row) (*Event, error) {
	var ev Event

	err := row.Scan(
		&ev.ID,
		&ev.PractitionerID,
		&ev.Title,
		&ev.EventType,
		&ev.Start,
		&ev.End,
		&ev.Recurring,
		&ev.RecurrenceRule,
		&ev.Public,
		&ev.CreatedAt,
		&ev.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}

	return &ev, nil
}

func (r *PgRepository) CreateEvent(ctx context.Context, ev *Event) error {
	if ev.ID == uuid.Nil {
		ev.ID = uuid.New()
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO calendar_events
			(id, practitioner_id, title, event_type, start_time, end_time,
			 is_recurring, recurrence_rule, is_public, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now(), now())
		RETURNING id, practitioner_id, title, event_type, start_time, end_time,
		          is_recurring, recurrence_rule, is_public, created_at, updated_at
	`, ev.ID, ev.PractitionerID, ev.Title, ev.EventType, ev.Start, ev.End,
		ev.Recurring, ev.RecurrenceRule, ev.Public)

	created, err := scanEvent(row)
	if err != nil {
		return err
	}
	*ev = *created
	return nil
}

func (r *PgRepository) GetEventByID(ctx context.Context, id uuid.UUID) (*Event, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, practitioner_id, title, event_type, start_time, end_time,
		       is_recurring, recurrence_rule, is_public, created_at, updated_at
		FROM calendar_events
		WHERE id = $1
	`, id)
	return scanEvent(row)
}

func (r *PgRepository) DeleteEvent(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM calendar_events
		WHERE id = $1
	`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrEventNotFound
	}
	return nil
}

func (r *PgRepository) EventsInRange(ctx context.Context, practitionerID uuid.UUID, from, to time.Time) ([]Event, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, practitioner_id, title, event_type, start_time, end_time,
		       is_recurring, recurrence_rule, is_public, created_at, updated_at
		FROM calendar_events
		WHERE practitioner_id = $1
		  AND (is_recurring OR (start_time < $3 AND end_time > $2))
		ORDER BY start_time
	`, practitionerID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Event
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *ev)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}
