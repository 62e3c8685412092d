package repository

import (
	"context"
	"os"
	"testing"
	"time"

	"stellarcade/internal/db"
	"stellarcade/internal/migrations"
)

// Runs only if DATABASE_URL env is set.
func TestPostgresStoreIntegration(t *testing.T) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set; skipping integration test")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := db.Connect(ctx, dsn)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	if _, err := migrations.ApplyPostgres(ctx, pool); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	s := NewPostgresStore(pool)
	defer s.Close()
	if err := s.Ping(ctx); err != nil {
		t.Fatalf("ping: %v", err)
	}
	exerciseStore(t, s)
}
