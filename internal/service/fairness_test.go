package service

import (
	"context"
	"errors"
	"testing"

	"stellarcade/internal/domain"
	"stellarcade/internal/repository"
)

func newOracle(t *testing.T) (*Executor, *FairnessOracle) {
	t.Helper()
	e := newTestExecutor(t)
	o := NewFairnessOracle("CFAIRNESS")
	mustDo(t, e, func(tx repository.Tx) error { return o.Init(tx, admin, oracle) })
	mustDo(t, e, func(tx repository.Tx) error { return o.AuthorizeCaller(tx, admin, gameA) })
	return e, o
}

func TestDeriveResultDeterministic(t *testing.T) {
	s := seedOf(7)
	for _, bound := range []uint64{2, 6, 37, 1 << 40} {
		a := DeriveResult(s, 9, bound)
		b := DeriveResult(s, 9, bound)
		if a != b || a >= bound {
			t.Fatalf("bound %d: %d vs %d", bound, a, b)
		}
	}
	if RevealDigest(s, 1) == RevealDigest(s, 2) {
		t.Fatalf("request id not mixed into digest")
	}
}

func TestOracleRequestFulfillVerify(t *testing.T) {
	e, o := newOracle(t)
	mustDo(t, e, func(tx repository.Tx) error { return o.OpenRequest(tx, gameA, 1, 6) })

	ctx := context.Background()
	err := e.View(ctx, func(r repository.Reader) error {
		_, err := o.ReadResult(r, gameA, 1)
		return err
	})
	if !errors.Is(err, domain.ErrNotFulfilled) {
		t.Fatalf("expected NotFulfilled, got %v", err)
	}

	s := seedOf(3)
	mustDo(t, e, func(tx repository.Tx) error { return o.Fulfill(tx, oracle, gameA, 1, s) })

	err = e.View(ctx, func(r repository.Reader) error {
		got, err := o.ReadResult(r, gameA, 1)
		if err != nil {
			return err
		}
		if want := DeriveResult(s, 1, 6); got != want {
			t.Fatalf("result = %d, want %d", got, want)
		}
		ok, err := o.Verify(r, gameA, 1)
		if err != nil {
			return err
		}
		if !ok {
			t.Fatalf("fulfilled request failed verification")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("view: %v", err)
	}

	err = e.Do(ctx, "fulfill", func(tx repository.Tx) error { return o.Fulfill(tx, oracle, gameA, 1, seedOf(4)) })
	if !errors.Is(err, domain.ErrAlreadyFulfilled) {
		t.Fatalf("expected AlreadyFulfilled, got %v", err)
	}
}

func TestOracleCommitReveal(t *testing.T) {
	e, o := newOracle(t)
	ctx := context.Background()
	s := seedOf(9)
	mustDo(t, e, func(tx repository.Tx) error { return o.OpenRequest(tx, gameA, 5, 2) })
	mustDo(t, e, func(tx repository.Tx) error { return o.Commit(tx, oracle, gameA, 5, domain.SeedCommitment(s)) })

	err := e.Do(ctx, "commit", func(tx repository.Tx) error { return o.Commit(tx, oracle, gameA, 5, domain.SeedCommitment(s)) })
	if !errors.Is(err, domain.ErrAlreadyCommitted) {
		t.Fatalf("expected AlreadyCommitted, got %v", err)
	}
	err = e.Do(ctx, "fulfill", func(tx repository.Tx) error { return o.Fulfill(tx, oracle, gameA, 5, seedOf(10)) })
	if !errors.Is(err, domain.ErrCommitmentMismatch) {
		t.Fatalf("expected CommitmentMismatch, got %v", err)
	}
	mustDo(t, e, func(tx repository.Tx) error { return o.Fulfill(tx, oracle, gameA, 5, s) })
}

func TestOracleVerifyDetectsTampering(t *testing.T) {
	e, o := newOracle(t)
	mustDo(t, e, func(tx repository.Tx) error { return o.OpenRequest(tx, gameA, 2, 100) })
	mustDo(t, e, func(tx repository.Tx) error { return o.Fulfill(tx, oracle, gameA, 2, seedOf(1)) })

	// Rewrite the stored result behind the oracle's back.
	mustDo(t, e, func(tx repository.Tx) error {
		req, err := o.Request(tx, gameA, 2)
		if err != nil {
			return err
		}
		req.Result = (req.Result + 1) % 100
		return tx.Put(o.requestKey(gameA, 2), req)
	})
	err := e.View(context.Background(), func(r repository.Reader) error {
		ok, err := o.Verify(r, gameA, 2)
		if err != nil {
			return err
		}
		if ok {
			t.Fatalf("tampered result verified")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("view: %v", err)
	}
}

func TestOracleAuthorization(t *testing.T) {
	e, o := newOracle(t)
	mustDo(t, e, func(tx repository.Tx) error { return o.OpenRequest(tx, gameA, 1, 2) })

	cases := []struct {
		name string
		fn   func(tx repository.Tx) error
		want error
	}{
		{"unauthorized caller", func(tx repository.Tx) error { return o.OpenRequest(tx, gameB, 2, 2) }, domain.ErrUnauthorized},
		{"bound too small", func(tx repository.Tx) error { return o.OpenRequest(tx, gameA, 2, 1) }, domain.ErrInvalidBound},
		{"duplicate id", func(tx repository.Tx) error { return o.OpenRequest(tx, gameA, 1, 2) }, domain.ErrDuplicateRequest},
		{"fulfill by non-oracle", func(tx repository.Tx) error { return o.Fulfill(tx, alice, gameA, 1, seedOf(1)) }, domain.ErrNotOracle},
		{"commit by non-oracle", func(tx repository.Tx) error { return o.Commit(tx, admin, gameA, 1, seedOf(1)) }, domain.ErrNotOracle},
		{"unknown request", func(tx repository.Tx) error { return o.Fulfill(tx, oracle, gameA, 99, seedOf(1)) }, domain.ErrUnknownRequest},
		{"authorize by non-admin", func(tx repository.Tx) error { return o.AuthorizeCaller(tx, alice, gameB) }, domain.ErrNotAdmin},
	}
	for _, tc := range cases {
		err := e.Do(context.Background(), tc.name, tc.fn)
		if !errors.Is(err, tc.want) {
			t.Fatalf("%s: got %v want %v", tc.name, err, tc.want)
		}
	}

	mustDo(t, e, func(tx repository.Tx) error { return o.RevokeCaller(tx, admin, gameA) })
	err := e.Do(context.Background(), "open", func(tx repository.Tx) error { return o.OpenRequest(tx, gameA, 3, 2) })
	if !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("revoked caller still allowed: %v", err)
	}
}

func TestOracleNotInitialized(t *testing.T) {
	e := newTestExecutor(t)
	o := NewFairnessOracle("CFAIRNESS")
	err := e.Do(context.Background(), "open", func(tx repository.Tx) error { return o.OpenRequest(tx, gameA, 1, 2) })
	if !errors.Is(err, domain.ErrNotInitialized) {
		t.Fatalf("expected NotInitialized, got %v", err)
	}
}

func TestOracleRequestsScopedByCaller(t *testing.T) {
	e, o := newOracle(t)
	mustDo(t, e, func(tx repository.Tx) error { return o.AuthorizeCaller(tx, admin, gameB) })
	mustDo(t, e, func(tx repository.Tx) error { return o.OpenRequest(tx, gameA, 7, 6) })
	mustDo(t, e, func(tx repository.Tx) error { return o.OpenRequest(tx, gameB, 7, 2) })
	mustDo(t, e, func(tx repository.Tx) error { return o.Fulfill(tx, oracle, gameB, 7, seedOf(3)) })

	err := e.View(context.Background(), func(r repository.Reader) error {
		if _, err := o.ReadResult(r, gameA, 7); !errors.Is(err, domain.ErrNotFulfilled) {
			t.Fatalf("gameA request: %v", err)
		}
		got, err := o.ReadResult(r, gameB, 7)
		if err != nil {
			return err
		}
		if got != DeriveResult(seedOf(3), 7, 2) {
			t.Fatalf("gameB result = %d", got)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("view: %v", err)
	}

	err = e.Do(context.Background(), "open", func(tx repository.Tx) error { return o.OpenRequest(tx, gameB, 7, 2) })
	if !errors.Is(err, domain.ErrDuplicateRequest) {
		t.Fatalf("expected DuplicateRequest, got %v", err)
	}
}
