package repository

import (
	"context"
	"sync"
	"time"

	"stellarcade/internal/domain"
	"stellarcade/internal/events"
)

// MemoryStore keeps state in process. It is the default for tests and for
// single-node development runs.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[Key][]byte
	journal []domain.Event
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[Key][]byte),
		now:     time.Now,
	}
}

func (m *MemoryStore) lookup(key Key) ([]byte, bool, error) {
	b, ok := m.records[key]
	return b, ok, nil
}

func (m *MemoryStore) Update(ctx context.Context, fn func(tx Tx) error) ([]domain.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	st := newStage(m.lookup)
	if err := fn(st); err != nil {
		return nil, err
	}

	seq, prev := int64(0), ""
	if n := len(m.journal); n > 0 {
		seq, prev = m.journal[n-1].Seq, m.journal[n-1].Hash
	}
	at := m.now()
	sealed := make([]domain.Event, 0, len(st.events))
	for _, e := range st.events {
		seq++
		if err := events.Seal(&e, seq, prev, at); err != nil {
			return nil, domain.Internal("seal event", err)
		}
		prev = e.Hash
		sealed = append(sealed, e)
	}

	for _, k := range st.order {
		m.records[k] = st.writes[k]
	}
	m.journal = append(m.journal, sealed...)
	return sealed, nil
}

func (m *MemoryStore) View(ctx context.Context, fn func(r Reader) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return fn(readOnly{lookup: m.lookup})
}

func (m *MemoryStore) Events(ctx context.Context, afterSeq int64, limit int) ([]domain.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []domain.Event
	for _, e := range m.journal {
		if e.Seq <= afterSeq {
			continue
		}
		out = append(out, e)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (m *MemoryStore) Close() error { return nil }
