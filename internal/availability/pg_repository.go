package availability

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgRepository implements PatternStore and OverrideStore on Postgres.
type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

func scanPattern(row pgx.Row) (*Pattern, error) {
	var p Pattern
	var weekday int
	var until *time.Time

	err := row.Scan(
		&p.ID,
		&p.PractitionerID,
		&weekday,
		&p.StartMinute,
		&p.EndMinute,
		&p.EffectiveFrom,
		&until,
		&p.Active,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPatternNotFound
		}
		return nil, err
	}

	p.Weekday = time.Weekday(weekday)
	p.EffectiveUntil = until
	return &p, nil
}

func scanOverride(row pgx.Row) (*Override, error) {
	var o Override

	err := row.Scan(
		&o.ID,
		&o.PractitionerID,
		&o.Date,
		&o.StartMinute,
		&o.EndMinute,
		&o.Available,
		&o.Reason,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOverrideNotFound
		}
		return nil, err
	}

	return &o, nil
}

func (r *PgRepository) CreatePattern(ctx context.Context, p *Pattern) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO availability_patterns
			(id, practitioner_id, day_of_week, start_minute, end_minute,
			 effective_from, effective_until, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, true, now(), now())
		RETURNING id, practitioner_id, day_of_week, start_minute, end_minute,
		          effective_from, effective_until, is_active, created_at, updated_at
	`, p.ID, p.PractitionerID, int(p.Weekday), p.StartMinute, p.EndMinute,
		p.EffectiveFrom, p.EffectiveUntil)

	created, err := scanPattern(row)
	if err != nil {
		return err
	}
	*p = *created
	return nil
}

func (r *PgRepository) GetPatternByID(ctx context.Context, id uuid.UUID) (*Pattern, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, practitioner_id, day_of_week, start_minute, end_minute,
		       effective_from, effective_until, is_active, created_at, updated_at
		FROM availability_patterns
		WHERE id = $1
	`, id)
	return scanPattern(row)
}

func (r *PgRepository) ListPatterns(ctx context.Context, practitionerID uuid.UUID) ([]Pattern, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, practitioner_id, day_of_week, start_minute, end_minute,
		       effective_from, effective_until, is_active, created_at, updated_at
		FROM availability_patterns
		WHERE practitioner_id = $1
		ORDER BY day_of_week, start_minute
	`, practitionerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Pattern
	for rows.Next() {
		p, err := scanPattern(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *p)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *PgRepository) SetPatternActive(ctx context.Context, id uuid.UUID, active bool) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE availability_patterns
		SET is_active = $2,
		    updated_at = now()
		WHERE id = $1
	`, id, active)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrPatternNotFound
	}
	return nil
}

func (r *PgRepository) DeletePattern(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM availability_patterns
		WHERE id = $1
	`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrPatternNotFound
	}
	return nil
}

func (r *PgRepository) UpsertOverride(ctx context.Context, o *Override) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO availability_overrides
			(id, practitioner_id, date, start_minute, end_minute, is_available,
			 reason, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now(), now())
		ON CONFLICT (practitioner_id, date) DO UPDATE
		SET start_minute = EXCLUDED.start_minute,
		    end_minute   = EXCLUDED.end_minute,
		    is_available = EXCLUDED.is_available,
		    reason       = EXCLUDED.reason,
		    updated_at   = now()
		RETURNING id, practitioner_id, date, start_minute, end_minute,
		          is_available, reason, created_at, updated_at
	`, o.ID, o.PractitionerID, o.Date, o.StartMinute, o.EndMinute, o.Available, o.Reason)

	saved, err := scanOverride(row)
	if err != nil {
		return err
	}
	*o = *saved
	return nil
}

func (r *PgRepository) OverridesInRange(ctx context.Context, practitionerID uuid.UUID, from, to time.Time) ([]Override, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, practitioner_id, date, start_minute, end_minute,
		       is_available, reason, created_at, updated_at
		FROM availability_overrides
		WHERE practitioner_id = $1
		  AND date BETWEEN $2::date AND $3::date
		ORDER BY date
	`, practitionerID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Override
	for rows.Next() {
		o, err := scanOverride(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *o)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *PgRepository) DeleteOverride(ctx context.Context, practitionerID uuid.UUID, date time.Time) error {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM availability_overrides
		WHERE practitioner_id = $1
		  AND date = $2::date
	`, practitionerID, date)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrOverrideNotFound
	}
	return nil
}
