package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/locspot/salon-booking/internal/availability"
	"github.com/locspot/salon-booking/internal/booking"
	"github.com/locspot/salon-booking/internal/calendar"
	"github.com/locspot/salon-booking/internal/catalog"
)

type RouterConfig struct {
	Bookings     *booking.Service
	Availability *availability.Manager
	Events       calendar.Repository
	Catalog      catalog.Repository
	SlotInterval time.Duration
	PgPool       *pgxpool.Pool
	Redis        *redis.Client
	Env          string
	Version      string
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware)

	// Health endpoints
	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	// Availability read path
	r.Get("/practitioners/{id}/slots", listSlotsHandler(cfg.Bookings, cfg.SlotInterval))
	r.Get("/practitioners/{id}/calendar.ics", icsFeedHandler(cfg.Bookings))

	// Availability management
	r.Post("/practitioners/{id}/patterns", createPatternHandler(cfg.Availability))
	r.Post("/patterns/{patternID}/deactivate", deactivatePatternHandler(cfg.Availability))
	r.Delete("/patterns/{patternID}", deletePatternHandler(cfg.Availability, cfg.Catalog))
	r.Put("/practitioners/{id}/overrides/{date}", upsertOverrideHandler(cfg.Availability))
	r.Delete("/practitioners/{id}/overrides/{date}", deleteOverrideHandler(cfg.Availability))
	r.Post("/practitioners/{id}/events", createEventHandler(cfg.Events))
	r.Delete("/events/{eventID}", deleteEventHandler(cfg.Events))

	// Booking write path and reads
	r.Post("/bookings", createBookingHandler(cfg.Bookings))
	r.Get("/bookings/{id}", getBookingHandler(cfg.Bookings))
	r.Get("/bookings/{id}/history", bookingHistoryHandler(cfg.Bookings))
	r.Get("/customers/{id}/bookings", listCustomerBookingsHandler(cfg.Bookings))

	r.Post("/bookings/{id}/confirm", transitionHandler(func(rq *http.Request, id uuid.UUID) (*booking.Booking, error) {
		return cfg.Bookings.Confirm(rq.Context(), id, nil)
	}))
	r.Post("/bookings/{id}/cancel", cancelBookingHandler(cfg.Bookings))
	r.Post("/bookings/{id}/start", transitionHandler(func(rq *http.Request, id uuid.UUID) (*booking.Booking, error) {
		return cfg.Bookings.Start(rq.Context(), id, nil)
	}))
	r.Post("/bookings/{id}/complete", transitionHandler(func(rq *http.Request, id uuid.UUID) (*booking.Booking, error) {
		return cfg.Bookings.Complete(rq.Context(), id, nil)
	}))
	r.Post("/bookings/{id}/no-show", transitionHandler(func(rq *http.Request, id uuid.UUID) (*booking.Booking, error) {
		return cfg.Bookings.MarkNoShow(rq.Context(), id, nil, nil)
	}))

	return r
}
