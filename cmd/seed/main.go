package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/locspot/salon-booking/internal/db"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("seed starting")

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		log.Fatal("POSTGRES_DSN is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, dsn)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	gofakeit.Seed(time.Now().UnixNano())

	practitioners, err := seedPractitioners(context.Background(), pool, 12)
	if err != nil {
		log.Fatalf("seed practitioners: %v", err)
	}
	if err := seedServices(context.Background(), pool); err != nil {
		log.Fatalf("seed services: %v", err)
	}
	if err := seedPatterns(context.Background(), pool, practitioners); err != nil {
		log.Fatalf("seed patterns: %v", err)
	}
	if err := seedCustomers(context.Background(), pool, 2000); err != nil {
		log.Fatalf("seed customers: %v", err)
	}

	log.Println("seed complete")
}

func seedPractitioners(ctx context.Context, pool *pgxpool.Pool, count int) ([]uuid.UUID, error) {
	log.Printf("seeding %d practitioners", count)

	timezones := []string{
		"Europe/Copenhagen",
		"Europe/Copenhagen",
		"Europe/Copenhagen",
		"Europe/Amsterdam",
		"Europe/London",
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	ids := make([]uuid.UUID, 0, count)
	for i := 0; i < count; i++ {
		id := uuid.New()
		name := gofakeit.Name()
		tz := timezones[gofakeit.Number(0, len(timezones)-1)]

		_, err := tx.Exec(ctx, `
			INSERT INTO practitioners (id, name, timezone, is_active, created_at, updated_at)
			VALUES ($1, $2, $3, true, now(), now())
		`, id, name, tz)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	log.Println("practitioners seeded")
	return ids, nil
}

func seedServices(ctx context.Context, pool *pgxpool.Pool) error {
	type svc struct {
		name        string
		duration    int
		bufBefore   int
		bufAfter    int
		minAdvanceH int
		maxAdvanceD int
		price       int64
	}

	services := []svc{
		{"Loc retwist", 120, 15, 15, 24, 60, 95000},
		{"Starter locs", 240, 15, 30, 48, 90, 180000},
		{"Loc maintenance", 90, 10, 15, 24, 60, 75000},
		{"Interlocking", 150, 15, 15, 24, 60, 110000},
		{"Consultation", 30, 0, 10, 12, 30, 0},
		{"Deep cleanse", 60, 10, 10, 24, 45, 55000},
	}

	log.Printf("seeding %d services", len(services))

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for _, s := range services {
		_, err := tx.Exec(ctx, `
			INSERT INTO services
				(id, name, duration_minutes, buffer_before_minutes, buffer_after_minutes,
				 min_advance_hours, max_advance_days, price_amount, currency,
				 is_active, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 'DKK', true, now(), now())
		`, uuid.New(), s.name, s.duration, s.bufBefore, s.bufAfter,
			s.minAdvanceH, s.maxAdvanceD, s.price)
		if err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	log.Println("services seeded")
	return nil
}

func seedPatterns(ctx context.Context, pool *pgxpool.Pool, practitioners []uuid.UUID) error {
	log.Printf("seeding weekly patterns for %d practitioners", len(practitioners))

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	effectiveFrom := time.Now().AddDate(0, 0, -30)

	for _, pid := range practitioners {
		// Tuesday through Saturday, with a random morning/afternoon split
		// on one weekday to exercise multi-window days.
		splitDay := gofakeit.Number(2, 6)
		for dow := 2; dow <= 6; dow++ {
			if dow == splitDay {
				if err := insertPattern(ctx, tx, pid, dow, 9*60, 12*60, effectiveFrom); err != nil {
					return err
				}
				if err := insertPattern(ctx, tx, pid, dow, 13*60, 18*60, effectiveFrom); err != nil {
					return err
				}
				continue
			}
			if err := insertPattern(ctx, tx, pid, dow, 9*60, 17*60, effectiveFrom); err != nil {
				return err
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	log.Println("patterns seeded")
	return nil
}

func insertPattern(ctx context.Context, tx pgx.Tx, pid uuid.UUID, dow, startMin, endMin int, from time.Time) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO availability_patterns
			(id, practitioner_id, day_of_week, start_minute, end_minute,
			 effective_from, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, true, now(), now())
	`, uuid.New(), pid, dow, startMin, endMin, from)
	return err
}

func seedCustomers(ctx context.Context, pool *pgxpool.Pool, count int) error {
	log.Printf("seeding %d customers", count)

	const batchSize = 500

	for offset := 0; offset < count; offset += batchSize {
		end := offset + batchSize
		if end > count {
			end = count
		}

		tx, err := pool.Begin(ctx)
		if err != nil {
			return err
		}

		for i := offset; i < end; i++ {
			id := uuid.New()
			name := gofakeit.Name()
			email := gofakeit.Email()
			phone := gofakeit.Phone()

			_, err := tx.Exec(ctx, `
				INSERT INTO customers (id, name, email, phone, created_at, updated_at)
				VALUES ($1, $2, $3, $4, now(), now())
			`, id, name, email, phone)
			if err != nil {
				_ = tx.Rollback(ctx)
				return err
			}
		}

		if err := tx.Commit(ctx); err != nil {
			return err
		}

		log.Printf("customers seeded: %d/%d", end, count)
	}

	log.Println("customers seeded")
	return nil
}
