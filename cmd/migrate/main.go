package main

import (
	"context"
	_ "embed"
	"log"
	"os"
	"time"

	"github.com/locspot/salon-booking/internal/db"
)

//go:embed schema.sql
var schema string

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("migrate starting")

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		log.Fatal("POSTGRES_DSN is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, dsn)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	if _, err := pool.Exec(ctx, schema); err != nil {
		log.Fatalf("apply schema: %v", err)
	}

	log.Println("schema applied")
}
