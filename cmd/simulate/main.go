package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/locspot/salon-booking/internal/config"
	"github.com/locspot/salon-booking/internal/db"
)

type SimConfig struct {
	APIBaseURL    string
	Duration      time.Duration
	Workers       int
	BookRatio     float64
	ConfirmRatio  float64
	CancelRatio   float64
	ReadRatio     float64
	CustomerLimit int
	Horizon       time.Duration
	PostgresDSN   string
}

type DataPool struct {
	Practitioners []uuid.UUID
	Customers     []uuid.UUID
	Services      []uuid.UUID
	mu            sync.RWMutex
	bookings      []uuid.UUID
}

func (dp *DataPool) AddBooking(id uuid.UUID) {
	dp.mu.Lock()
	defer dp.mu.Unlock()
	dp.bookings = append(dp.bookings, id)
}

func (dp *DataPool) RandomBooking() (uuid.UUID, bool) {
	dp.mu.RLock()
	defer dp.mu.RUnlock()
	if len(dp.bookings) == 0 {
		return uuid.Nil, false
	}
	return dp.bookings[rand.Intn(len(dp.bookings))], true
}

type OperationMetrics struct {
	Total     int64
	Success   int64
	Conflict  int64
	Rejected  int64
	Error     int64
	Latencies []time.Duration
	mu        sync.Mutex
}

func (om *OperationMetrics) Record(latency time.Duration, status int, err error) {
	atomic.AddInt64(&om.Total, 1)
	switch {
	case err != nil:
		atomic.AddInt64(&om.Error, 1)
	case status == http.StatusOK || status == http.StatusCreated:
		atomic.AddInt64(&om.Success, 1)
	case status == http.StatusConflict:
		atomic.AddInt64(&om.Conflict, 1)
	case status == http.StatusUnprocessableEntity:
		atomic.AddInt64(&om.Rejected, 1)
	default:
		atomic.AddInt64(&om.Error, 1)
	}

	om.mu.Lock()
	om.Latencies = append(om.Latencies, latency)
	om.mu.Unlock()
}

func (om *OperationMetrics) Stats() (avg, min, max, p50, p95 time.Duration) {
	om.mu.Lock()
	defer om.mu.Unlock()

	if len(om.Latencies) == 0 {
		return 0, 0, 0, 0, 0
	}

	latencies := make([]time.Duration, len(om.Latencies))
	copy(latencies, om.Latencies)

	sort.Slice(latencies, func(i, j int) bool {
		return latencies[i] < latencies[j]
	})

	var sum time.Duration
	for _, l := range latencies {
		sum += l
	}

	avg = sum / time.Duration(len(latencies))
	min = latencies[0]
	max = latencies[len(latencies)-1]

	p50Idx := len(latencies) * 50 / 100
	if p50Idx >= len(latencies) {
		p50Idx = len(latencies) - 1
	}
	p50 = latencies[p50Idx]

	p95Idx := len(latencies) * 95 / 100
	if p95Idx >= len(latencies) {
		p95Idx = len(latencies) - 1
	}
	p95 = latencies[p95Idx]

	return avg, min, max, p50, p95
}

type Metrics struct {
	ListSlots      OperationMetrics
	Book           OperationMetrics
	Confirm        OperationMetrics
	Cancel         OperationMetrics
	ReadByID       OperationMetrics
	ListByCustomer OperationMetrics
}

type Simulator struct {
	config  SimConfig
	pool    *DataPool
	client  *http.Client
	metrics Metrics
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("simulator starting")

	cfg := loadConfig()
	if err := validateConfig(cfg); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	log.Printf("config: duration=%s workers=%d book=%.2f confirm=%.2f cancel=%.2f read=%.2f",
		cfg.Duration, cfg.Workers, cfg.BookRatio, cfg.ConfirmRatio, cfg.CancelRatio, cfg.ReadRatio)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pgPool, err := db.ConnectPostgres(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pgPool.Close()

	dataPool, err := loadDataPool(ctx, pgPool, cfg)
	if err != nil {
		log.Fatalf("load data pool: %v", err)
	}

	log.Printf("loaded: %d practitioners, %d services, %d customers",
		len(dataPool.Practitioners), len(dataPool.Services), len(dataPool.Customers))

	sim := &Simulator{
		config: cfg,
		pool:   dataPool,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	sim.Run()
	sim.PrintReport()
}

func loadConfig() SimConfig {
	baseCfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load base config: %v", err)
	}

	cfg := SimConfig{
		APIBaseURL:    getEnv("SIM_API_BASE_URL", "http://localhost:8080"),
		Duration:      getDuration("SIM_DURATION", 30*time.Second),
		Workers:       getInt("SIM_WORKERS", 10),
		BookRatio:     getFloat("SIM_BOOK_RATIO", 0.4),
		ConfirmRatio:  getFloat("SIM_CONFIRM_RATIO", 0.15),
		CancelRatio:   getFloat("SIM_CANCEL_RATIO", 0.15),
		ReadRatio:     getFloat("SIM_READ_RATIO", 0.3),
		CustomerLimit: getInt("SIM_CUSTOMER_LIMIT", 2000),
		Horizon:       getDuration("SIM_HORIZON", 7*24*time.Hour),
		PostgresDSN:   baseCfg.PostgresDSN,
	}

	// Normalize ratios
	total := cfg.BookRatio + cfg.ConfirmRatio + cfg.CancelRatio + cfg.ReadRatio
	if total > 0 {
		cfg.BookRatio /= total
		cfg.ConfirmRatio /= total
		cfg.CancelRatio /= total
		cfg.ReadRatio /= total
	}

	return cfg
}

func validateConfig(cfg SimConfig) error {
	if cfg.PostgresDSN == "" {
		return fmt.Errorf("POSTGRES_DSN is required (set in .env or environment)")
	}
	if cfg.Workers <= 0 {
		return fmt.Errorf("SIM_WORKERS must be > 0")
	}
	if cfg.Duration <= 0 {
		return fmt.Errorf("SIM_DURATION must be > 0")
	}
	return nil
}

func loadDataPool(ctx context.Context, pool *pgxpool.Pool, cfg SimConfig) (*DataPool, error) {
	dataPool := &DataPool{}

	rows, err := pool.Query(ctx, `
		SELECT id FROM practitioners WHERE is_active = true
	`)
	if err != nil {
		return nil, fmt.Errorf("load practitioners: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		dataPool.Practitioners = append(dataPool.Practitioners, id)
	}

	rows, err = pool.Query(ctx, `
		SELECT id FROM services WHERE is_active = true
	`)
	if err != nil {
		return nil, fmt.Errorf("load services: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		dataPool.Services = append(dataPool.Services, id)
	}

	rows, err = pool.Query(ctx, `
		SELECT id FROM customers LIMIT $1
	`, cfg.CustomerLimit)
	if err != nil {
		return nil, fmt.Errorf("load customers: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		dataPool.Customers = append(dataPool.Customers, id)
	}

	if len(dataPool.Practitioners) == 0 {
		return nil, fmt.Errorf("no practitioners loaded")
	}
	if len(dataPool.Services) == 0 {
		return nil, fmt.Errorf("no services loaded")
	}
	if len(dataPool.Customers) == 0 {
		return nil, fmt.Errorf("no customers loaded")
	}

	return dataPool, nil
}

func (s *Simulator) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.Duration)
	defer cancel()

	log.Printf("starting simulation for %s with %d workers", s.config.Duration, s.config.Workers)

	var wg sync.WaitGroup
	for i := 0; i < s.config.Workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			s.worker(ctx, workerID)
		}(i)
	}

	wg.Wait()
	log.Println("simulation complete")
}

func (s *Simulator) worker(ctx context.Context, workerID int) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano() + int64(workerID)))

	for {
		select {
		case <-ctx.Done():
			return
		default:
			r := rng.Float64()
			switch {
			case r < s.config.BookRatio:
				s.doBooking(ctx, rng)
			case r < s.config.BookRatio+s.config.ConfirmRatio:
				s.doConfirm(ctx, rng)
			case r < s.config.BookRatio+s.config.ConfirmRatio+s.config.CancelRatio:
				s.doCancel(ctx, rng)
			default:
				switch rng.Intn(3) {
				case 0:
					s.doListSlots(ctx, rng)
				case 1:
					s.doReadByID(ctx, rng)
				case 2:
					s.doListByCustomer(ctx, rng)
				}
			}
		}
	}
}

// doBooking posts a booking for a random customer at a quantized start
// time within the horizon. Workers deliberately pick from a small grid
// of start times per practitioner so that admissions collide and the
// conflict path gets exercised.
func (s *Simulator) doBooking(ctx context.Context, rng *rand.Rand) {
	practitionerID := s.pool.Practitioners[rng.Intn(len(s.pool.Practitioners))]
	customerID := s.pool.Customers[rng.Intn(len(s.pool.Customers))]
	serviceID := s.pool.Services[rng.Intn(len(s.pool.Services))]

	// Quantize to 30-minute steps starting two days out so most
	// requests clear the minimum-advance policy.
	base := time.Now().Add(48 * time.Hour).Truncate(time.Hour)
	steps := int(s.config.Horizon / (30 * time.Minute))
	if steps < 1 {
		steps = 1
	}
	start := base.Add(time.Duration(rng.Intn(steps)) * 30 * time.Minute)

	reqBody := map[string]any{
		"practitioner_id":   practitionerID.String(),
		"customer_id":       customerID.String(),
		"service_id":        serviceID.String(),
		"appointment_start": start.UTC().Format(time.RFC3339),
	}
	body, _ := json.Marshal(reqBody)

	begin := time.Now()

	req, _ := http.NewRequestWithContext(ctx, "POST", s.config.APIBaseURL+"/bookings", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	latency := time.Since(begin)

	status := 0
	if err == nil {
		defer resp.Body.Close()
		status = resp.StatusCode

		if status == http.StatusCreated {
			var created struct {
				ID uuid.UUID `json:"id"`
			}
			bodyBytes, _ := io.ReadAll(resp.Body)
			if len(bodyBytes) > 0 {
				json.Unmarshal(bodyBytes, &created)
				if created.ID != uuid.Nil {
					s.pool.AddBooking(created.ID)
				}
			}
		}
	}

	s.metrics.Book.Record(latency, status, err)
}

func (s *Simulator) doConfirm(ctx context.Context, rng *rand.Rand) {
	bookingID, ok := s.pool.RandomBooking()
	if !ok {
		return
	}

	begin := time.Now()

	req, _ := http.NewRequestWithContext(ctx, "POST",
		fmt.Sprintf("%s/bookings/%s/confirm", s.config.APIBaseURL, bookingID.String()), nil)

	resp, err := s.client.Do(req)
	latency := time.Since(begin)

	status := 0
	if err == nil {
		defer resp.Body.Close()
		status = resp.StatusCode
	}

	s.metrics.Confirm.Record(latency, status, err)
}

func (s *Simulator) doCancel(ctx context.Context, rng *rand.Rand) {
	bookingID, ok := s.pool.RandomBooking()
	if !ok {
		return
	}

	begin := time.Now()

	body := []byte(`{"reason":"simulated cancellation"}`)
	req, _ := http.NewRequestWithContext(ctx, "POST",
		fmt.Sprintf("%s/bookings/%s/cancel", s.config.APIBaseURL, bookingID.String()), bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	latency := time.Since(begin)

	status := 0
	if err == nil {
		defer resp.Body.Close()
		status = resp.StatusCode
	}

	s.metrics.Cancel.Record(latency, status, err)
}

func (s *Simulator) doListSlots(ctx context.Context, rng *rand.Rand) {
	practitionerID := s.pool.Practitioners[rng.Intn(len(s.pool.Practitioners))]
	serviceID := s.pool.Services[rng.Intn(len(s.pool.Services))]

	from := time.Now().AddDate(0, 0, 2)
	to := from.AddDate(0, 0, 3)

	begin := time.Now()

	req, _ := http.NewRequestWithContext(ctx, "GET",
		fmt.Sprintf("%s/practitioners/%s/slots?service_id=%s&from=%s&to=%s",
			s.config.APIBaseURL, practitionerID.String(), serviceID.String(),
			from.Format("2006-01-02"), to.Format("2006-01-02")), nil)

	resp, err := s.client.Do(req)
	latency := time.Since(begin)

	status := 0
	if err == nil {
		defer resp.Body.Close()
		status = resp.StatusCode
	}

	s.metrics.ListSlots.Record(latency, status, err)
}

func (s *Simulator) doReadByID(ctx context.Context, rng *rand.Rand) {
	bookingID, ok := s.pool.RandomBooking()
	if !ok {
		return
	}

	begin := time.Now()

	req, _ := http.NewRequestWithContext(ctx, "GET",
		fmt.Sprintf("%s/bookings/%s", s.config.APIBaseURL, bookingID.String()), nil)

	resp, err := s.client.Do(req)
	latency := time.Since(begin)

	status := 0
	if err == nil {
		defer resp.Body.Close()
		status = resp.StatusCode
	}

	s.metrics.ReadByID.Record(latency, status, err)
}

func (s *Simulator) doListByCustomer(ctx context.Context, rng *rand.Rand) {
	customerID := s.pool.Customers[rng.Intn(len(s.pool.Customers))]

	begin := time.Now()

	req, _ := http.NewRequestWithContext(ctx, "GET",
		fmt.Sprintf("%s/customers/%s/bookings?limit=20&offset=0", s.config.APIBaseURL, customerID.String()), nil)

	resp, err := s.client.Do(req)
	latency := time.Since(begin)

	status := 0
	if err == nil {
		defer resp.Body.Close()
		status = resp.StatusCode
	}

	s.metrics.ListByCustomer.Record(latency, status, err)
}

func (s *Simulator) PrintReport() {
	fmt.Println("\n" + strings.Repeat("=", 80))
	fmt.Println("SIMULATION REPORT")
	fmt.Println(strings.Repeat("=", 80))
	fmt.Printf("Duration: %s\n", s.config.Duration)
	fmt.Printf("Workers: %d\n", s.config.Workers)
	fmt.Println()

	printOperationReport("List Slots", &s.metrics.ListSlots)
	printOperationReport("Book", &s.metrics.Book)
	printOperationReport("Confirm", &s.metrics.Confirm)
	printOperationReport("Cancel", &s.metrics.Cancel)
	printOperationReport("Read by ID", &s.metrics.ReadByID)
	printOperationReport("List by Customer", &s.metrics.ListByCustomer)
}

func printOperationReport(name string, om *OperationMetrics) {
	total := atomic.LoadInt64(&om.Total)
	if total == 0 {
		return
	}

	success := atomic.LoadInt64(&om.Success)
	conflict := atomic.LoadInt64(&om.Conflict)
	rejected := atomic.LoadInt64(&om.Rejected)
	errors := atomic.LoadInt64(&om.Error)

	avg, min, max, p50, p95 := om.Stats()

	fmt.Printf("%s:\n", name)
	fmt.Printf("  Total: %d\n", total)
	fmt.Printf("  Success: %d (%.1f%%)\n", success, float64(success)/float64(total)*100)
	if conflict > 0 {
		fmt.Printf("  Conflicts: %d (%.1f%%)\n", conflict, float64(conflict)/float64(total)*100)
	}
	if rejected > 0 {
		fmt.Printf("  Policy rejections: %d (%.1f%%)\n", rejected, float64(rejected)/float64(total)*100)
	}
	if errors > 0 {
		fmt.Printf("  Errors: %d (%.1f%%)\n", errors, float64(errors)/float64(total)*100)
	}
	fmt.Printf("  Latency: avg=%s min=%s max=%s p50=%s p95=%s\n",
		avg.Round(time.Millisecond), min.Round(time.Millisecond), max.Round(time.Millisecond),
		p50.Round(time.Millisecond), p95.Round(time.Millisecond))
	fmt.Println()
}

// Helper functions

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func getInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}
