package service

import (
	"context"
	"testing"

	"stellarcade/internal/repository"
)

const (
	admin   = "GADMIN"
	oracle  = "GORACLE"
	alice   = "GALICE"
	bob     = "GBOB"
	gameA   = "CGAMEA"
	gameB   = "CGAMEB"
	escrowA = "CESCROW"
)

func newTestExecutor(t *testing.T) *Executor {
	t.Helper()
	store := repository.NewMemoryStore()
	t.Cleanup(func() { _ = store.Close() })
	return NewExecutor(store, nil)
}

// mustDo fails the test when fn does not commit.
func mustDo(t *testing.T, e *Executor, fn func(tx repository.Tx) error) {
	t.Helper()
	if err := e.Do(context.Background(), "test", fn); err != nil {
		t.Fatalf("operation failed: %v", err)
	}
}

func seedOf(b byte) (s [32]byte) {
	for i := range s {
		s[i] = b
	}
	return s
}
