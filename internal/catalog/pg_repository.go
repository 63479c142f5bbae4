package catalog

import (
	"context"
	"errors"

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

func (r *PgRepository) GetServiceByID(ctx context.Context, id uuid.UUID) (*Service, error) {
	var s Service

	err := r.pool.QueryRow(ctx, `
		SELECT id, name, duration_minutes, buffer_before_minutes, buffer_after_minutes,
		       min_advance_hours, max_advance_days, price_amount, currency,
		       is_active, created_at, updated_at
		FROM services
		WHERE id = $1
	`, id).Scan(
		&s.ID,
		&s.Name,
		&s.DurationMinutes,
		&s.BufferBeforeMinutes,
		&s.BufferAfterMinutes,
		&s.MinAdvanceHours,
		&s.MaxAdvanceDays,
		&s.PriceAmount,
		&s.Currency,
		&s.Active,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrServiceNotFound
		}
		return nil, err
	}

	return &s, nil
}

func (r *PgRepository) GetPractitionerByID(ctx context.Context, id uuid.UUID) (*Practitioner, error) {
	var p Practitioner

	err := r.pool.QueryRow(ctx, `
		SELECT id, name, timezone, is_active, created_at, updated_at
		FROM practitioners
		WHERE id = $1
	`, id).Scan(
		&p.ID,
		&p.Name,
		&p.Timezone,
		&p.Active,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPractitionerNotFound
		}
		return nil, err
	}

	return &p, nil
}

func (r *PgRepository) GetCustomerByID(ctx context.Context, id uuid.UUID) (*Customer, error) {
	var c Customer

	err := r.pool.QueryRow(ctx, `
		SELECT id, name, email, phone, created_at, updated_at
		FROM customers
		WHERE id = $1
	`, id).Scan(
		&c.ID,
		&c.Name,
		&c.Email,
		&c.Phone,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCustomerNotFound
		}
		return nil, err
	}

	return &c, nil
}
