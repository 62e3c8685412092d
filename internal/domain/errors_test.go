package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorIsByCode(t *testing.T) {
	err := Errorf(CodeInvalidState, "invalid transition %s -> %s", SessionResolved, SessionClosed)
	if !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected Is(ErrInvalidState)")
	}
	if errors.Is(err, ErrAlreadyResolved) {
		t.Fatalf("different codes must not match")
	}

	wrapped := fmt.Errorf("place bet: %w", ErrInsufficientBalance.WithMetadata(map[string]string{"account": "alice"}))
	if CodeOf(wrapped) != CodeInsufficientBalance {
		t.Fatalf("CodeOf = %s", CodeOf(wrapped))
	}
	if ErrInsufficientBalance.Metadata != nil {
		t.Fatalf("WithMetadata mutated the sentinel")
	}
}

func TestInternalKeepsCause(t *testing.T) {
	cause := errors.New("disk full")
	err := Internal("write state", cause)
	if !errors.Is(err, cause) {
		t.Fatalf("cause not reachable")
	}
	if CodeOf(err) != CodeInternal {
		t.Fatalf("CodeOf = %s", CodeOf(err))
	}
	if CodeOf(errors.New("foreign")) != CodeInternal {
		t.Fatalf("foreign errors map to internal")
	}
	if CodeOf(nil) != "" {
		t.Fatalf("nil has no code")
	}
}

func TestIsIdempotentSuccess(t *testing.T) {
	for _, err := range []error{ErrDuplicateRequest, ErrAlreadyResolved, ErrRewardAlreadyClaimed} {
		if !IsIdempotentSuccess(err) {
			t.Fatalf("%v should be idempotent success", err)
		}
	}
	for _, err := range []error{ErrInvalidState, ErrUnauthorized, nil} {
		if IsIdempotentSuccess(err) {
			t.Fatalf("%v should not be idempotent success", err)
		}
	}
}

func TestRequireChecks(t *testing.T) {
	if err := RequireAdmin("admin", "admin"); err != nil {
		t.Fatalf("admin: %v", err)
	}
	if err := RequireAdmin("", ""); !errors.Is(err, ErrNotAdmin) {
		t.Fatalf("empty caller must fail: %v", err)
	}
	if err := RequireOracle("alice", "oracle"); !errors.Is(err, ErrNotOracle) {
		t.Fatalf("oracle: %v", err)
	}
	if err := RequireCaller("alice", "bob"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("caller: %v", err)
	}
}

func TestHash32Text(t *testing.T) {
	var seed Hash32
	seed[0], seed[31] = 0xab, 0x01
	parsed, err := ParseHash32(seed.String())
	if err != nil || parsed != seed {
		t.Fatalf("parse: %v", err)
	}
	if _, err := ParseHash32("abcd"); err == nil {
		t.Fatalf("short hash must fail")
	}
	if SeedCommitment(seed) == seed {
		t.Fatalf("commitment must differ from seed")
	}
}
