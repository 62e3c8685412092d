package events

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"stellarcade/internal/domain"
)

// ErrChainBroken is returned by VerifyChain when a sealed event does not
// hash to its recorded value or does not link to its predecessor.
var ErrChainBroken = errors.New("event chain broken")

// sealedBody is the hashed portion of an event. Field order is fixed by the struct.
type sealedBody struct {
	ID        string            `json:"id"`
	Seq       int64             `json:"seq"`
	Contract  domain.Address    `json:"contract"`
	Kind      domain.EventKind  `json:"kind"`
	IDs       map[string]string `json:"ids,omitempty"`
	Value     json.RawMessage   `json:"value,omitempty"`
	CreatedAt string            `json:"created_at"`
	PrevHash  string            `json:"prev_hash"`
}

// Digest returns the hex sha256 of the canonical encoding of e, excluding e.Hash.
func Digest(e domain.Event) (string, error) {
	body := sealedBody{
		ID:        e.ID.String(),
		Seq:       e.Seq,
		Contract:  e.Contract,
		Kind:      e.Kind,
		IDs:       e.IDs,
		Value:     e.Value,
		CreatedAt: e.CreatedAt.UTC().Format(time.RFC3339Nano),
		PrevHash:  e.PrevHash,
	}
	b, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("encode event %d: %w", e.Seq, err)
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:]), nil
}

// Seal assigns seq, links e to prev and stamps its hash.
func Seal(e *domain.Event, seq int64, prev string, at time.Time) error {
	e.Seq = seq
	e.PrevHash = prev
	e.CreatedAt = at.UTC().Truncate(time.Microsecond)
	h, err := Digest(*e)
	if err != nil {
		return err
	}
	e.Hash = h
	return nil
}

// VerifyChain walks events in order and checks every hash and link. The
// first event may link to any predecessor, so a window of the journal can
// be verified on its own.
func VerifyChain(events []domain.Event) error {
	for i, e := range events {
		want, err := Digest(e)
		if err != nil {
			return err
		}
		if want != e.Hash {
			return fmt.Errorf("%w: seq %d hash mismatch", ErrChainBroken, e.Seq)
		}
		if i == 0 {
			continue
		}
		prev := events[i-1]
		if e.PrevHash != prev.Hash || e.Seq != prev.Seq+1 {
			return fmt.Errorf("%w: seq %d does not follow seq %d", ErrChainBroken, e.Seq, prev.Seq)
		}
	}
	return nil
}
