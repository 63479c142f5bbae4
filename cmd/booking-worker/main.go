package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

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

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("booking-worker starting up")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	log.Printf("running worker in env=%s sweep_interval=%s reminder_cron=%q",
		cfg.Env, cfg.WorkerInterval, cfg.ReminderCron)

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
	}

	availRepo := availability.NewPgRepository(pgPool)
	eventRepo := calendar.NewPgRepository(pgPool)
	bookingRepo := booking.NewPgRepository(pgPool)
	catalogRepo := catalog.NewPgRepository(pgPool)

	commitments := booking.NewCommitmentIndex(bookingRepo, eventRepo)
	generator := availability.NewGenerator(availRepo, availRepo, commitments, nil)
	locker := redisclient.NewRedisPractitionerLocker(rdb, cfg.LockTTL)

	svc := booking.NewService(booking.ServiceConfig{
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

	// Reminder scan on a cron schedule.
	c := cron.New()
	_, err = c.AddFunc(cfg.ReminderCron, func() {
		runCtx, cancel := context.WithTimeout(rootCtx, 30*time.Second)
		defer cancel()

		start := time.Now()
		if err := svc.SendReminders(runCtx, cfg.ReminderWindow); err != nil {
			log.Printf("reminder run error: %v", err)
			return
		}
		log.Printf("reminder run complete in %s", time.Since(start))
	})
	if err != nil {
		log.Fatalf("invalid REMINDER_CRON %q: %v", cfg.ReminderCron, err)
	}
	c.Start()
	defer c.Stop()

	// Stale-pending sweep on a plain ticker. Run once at startup.
	sweep := func() {
		runCtx, cancel := context.WithTimeout(rootCtx, 20*time.Second)
		defer cancel()

		start := time.Now()
		if err := svc.ExpireStalePending(runCtx, cfg.PendingTTL); err != nil {
			log.Printf("stale-pending sweep error: %v", err)
			return
		}
		log.Printf("stale-pending sweep complete in %s", time.Since(start))
	}
	sweep()

	ticker := time.NewTicker(cfg.WorkerInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rootCtx.Done():
			log.Println("shutdown signal received, stopping booking-worker")
			return
		case <-ticker.C:
			sweep()
		}
	}
}
