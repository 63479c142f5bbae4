package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/locspot/salon-booking/internal/api"
	"github.com/locspot/salon-booking/internal/availability"
	"github.com/locspot/salon-booking/internal/booking"
	"github.com/locspot/salon-booking/internal/calendar"
	"github.com/locspot/salon-booking/internal/catalog"
	"github.com/locspot/salon-booking/internal/config"
	"github.com/locspot/salon-booking/internal/db"
	"github.com/locspot/salon-booking/internal/notify"
	"github.com/locspot/salon-booking/internal/pricing"
	redisclient "github.com/locspot/salon-booking/internal/redis"
)

const version = "1.0.0"

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("api-server starting up")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	log.Printf("running in env=%s http_port=%s", cfg.Env, cfg.HTTPPort)

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect Postgres
	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN)
	cancelPg()
	if err != nil {
		log.Fatalf("postgres connection error: %v", err)
	}
	defer pgPool.Close()
	log.Println("connected to Postgres")

	// Connect Redis
	rdb, err := redisclient.NewRedisClient(cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword)
	if err != nil {
		log.Fatalf("redis connection error: %v", err)
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			log.Printf("error closing redis: %v", err)
		}
	}()
	log.Println("connected to Redis")

	var notifier notify.Notifier = notify.NopNotifier{}
	if len(cfg.KafkaBrokers) > 0 {
		kn, err := notify.NewKafkaNotifier(cfg.KafkaBrokers, cfg.KafkaTopic)
		if err != nil {
			log.Fatalf("kafka notifier error: %v", err)
		}
		defer func() {
			if err := kn.Close(); err != nil {
				log.Printf("error closing kafka writer: %v", err)
			}
		}()
		notifier = kn
		log.Printf("publishing booking events to kafka topic=%s", cfg.KafkaTopic)
	} else {
		log.Println("KAFKA_BROKERS not set, booking events are discarded")
	}

	availRepo := availability.NewPgRepository(pgPool)
	eventRepo := calendar.NewPgRepository(pgPool)
	bookingRepo := booking.NewPgRepository(pgPool)
	catalogRepo := catalog.NewPgRepository(pgPool)

	commitments := booking.NewCommitmentIndex(bookingRepo, eventRepo)
	generator := availability.NewGenerator(availRepo, availRepo, commitments, nil)
	manager := availability.NewManager(availRepo, availRepo, bookingRepo, nil)
	locker := redisclient.NewRedisPractitionerLocker(rdb, cfg.LockTTL)

	bookingSvc := booking.NewService(booking.ServiceConfig{
		Repo:        bookingRepo,
		Events:      eventRepo,
		Commitments: commitments,
		Generator:   generator,
		Catalog:     catalogRepo,
		Quoter:      pricing.NewStandardQuoter(),
		Notifier:    notifier,
		Locker:      locker,
		Retries:     cfg.AdmissionRetry,
	})

	router := api.NewRouter(api.RouterConfig{
		Bookings:     bookingSvc,
		Availability: manager,
		Events:       eventRepo,
		Catalog:      catalogRepo,
		SlotInterval: cfg.SlotInterval,
		PgPool:       pgPool,
		Redis:        rdb,
		Env:          cfg.Env,
		Version:      version,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Printf("listening on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http server error: %v", err)
		}
	}()

	<-rootCtx.Done()

	log.Println("shutting down api-server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown error: %v", err)
	}
}
