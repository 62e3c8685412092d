package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Address identifies an account or a contract instance. The host has already
// authenticated it by the time it reaches the core.
type Address string

func (a Address) IsZero() bool { return a == "" }

func (a Address) String() string { return string(a) }

// RequireCaller passes only when caller is exactly want.
func RequireCaller(caller, want Address) error {
	if caller.IsZero() || caller != want {
		return ErrUnauthorized
	}
	return nil
}

// RequireAdmin passes only when caller is the configured admin.
func RequireAdmin(caller, admin Address) error {
	if caller.IsZero() || caller != admin {
		return ErrNotAdmin
	}
	return nil
}

// RequireOracle passes only when caller is the configured oracle.
func RequireOracle(caller, oracle Address) error {
	if caller.IsZero() || caller != oracle {
		return ErrNotOracle
	}
	return nil
}

// Hash32 is a 32 byte value: config hashes, server seeds, commitments.
type Hash32 [32]byte

func (h Hash32) IsZero() bool { return h == Hash32{} }

func (h Hash32) String() string { return hex.EncodeToString(h[:]) }

func (h Hash32) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

func (h *Hash32) UnmarshalText(b []byte) error {
	parsed, err := ParseHash32(string(b))
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}

// ParseHash32 decodes a 64 character hex string.
func ParseHash32(s string) (Hash32, error) {
	var h Hash32
	b, err := hex.DecodeString(s)
	if err != nil {
		return h, fmt.Errorf("decode hash: %w", err)
	}
	if len(b) != len(h) {
		return h, fmt.Errorf("decode hash: want %d bytes, got %d", len(h), len(b))
	}
	copy(h[:], b)
	return h, nil
}

// SeedCommitment is the commitment an oracle publishes before revealing seed.
func SeedCommitment(seed Hash32) Hash32 {
	return sha256.Sum256(seed[:])
}
