package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"stellarcade/internal/domain"
	"stellarcade/internal/events"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// writerLockKey is the advisory lock every Update holds, giving one writer at a time.
const writerLockKey int64 = 0x5354454c4c4152 // "STELLAR"

type PostgresStore struct {
	db  *pgxpool.Pool
	now func() time.Time
}

func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db, now: time.Now}
}

type pgQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func pgLookup(ctx context.Context, q pgQuerier) lookupFunc {
	return func(key Key) ([]byte, bool, error) {
		var body []byte
		err := q.QueryRow(ctx,
			`SELECT body FROM state_records WHERE contract = $1 AND collection = $2 AND id = $3`,
			string(key.Contract), key.Collection, key.ID,
		).Scan(&body)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		if err != nil {
			return nil, false, err
		}
		return body, true, nil
	}
}

func (s *PostgresStore) Update(ctx context.Context, fn func(tx Tx) error) ([]domain.Event, error) {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, domain.Internal("begin tx", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, writerLockKey); err != nil {
		return nil, domain.Internal("acquire writer lock", err)
	}

	st := newStage(pgLookup(ctx, tx))
	if err := fn(st); err != nil {
		return nil, err
	}

	for _, k := range st.order {
		_, err := tx.Exec(ctx, `
			INSERT INTO state_records (contract, collection, id, body, updated_at)
			VALUES ($1, $2, $3, $4, now())
			ON CONFLICT (contract, collection, id)
			DO UPDATE SET body = EXCLUDED.body, updated_at = now()
		`, string(k.Contract), k.Collection, k.ID, st.writes[k])
		if err != nil {
			return nil, domain.Internal("write "+k.String(), err)
		}
	}

	var seq int64
	var prev string
	err = tx.QueryRow(ctx, `SELECT seq, hash FROM events ORDER BY seq DESC LIMIT 1`).Scan(&seq, &prev)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.Internal("read journal head", err)
	}

	at := s.now()
	sealed := make([]domain.Event, 0, len(st.events))
	for _, e := range st.events {
		seq++
		if err := events.Seal(&e, seq, prev, at); err != nil {
			return nil, domain.Internal("seal event", err)
		}
		body, err := json.Marshal(e)
		if err != nil {
			return nil, domain.Internal("encode event", err)
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO events (seq, id, contract, kind, body, prev_hash, hash, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, e.Seq, e.ID, string(e.Contract), string(e.Kind), string(body), e.PrevHash, e.Hash, e.CreatedAt)
		if err != nil {
			return nil, domain.Internal("append event", err)
		}
		prev = e.Hash
		sealed = append(sealed, e)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, domain.Internal("commit", err)
	}
	return sealed, nil
}

func (s *PostgresStore) View(ctx context.Context, fn func(r Reader) error) error {
	return fn(readOnly{lookup: pgLookup(ctx, s.db)})
}

func (s *PostgresStore) Events(ctx context.Context, afterSeq int64, limit int) ([]domain.Event, error) {
	if limit <= 0 {
		limit = 1000
	}
	rows, err := s.db.Query(ctx, `SELECT body FROM events WHERE seq > $1 ORDER BY seq LIMIT $2`, afterSeq, limit)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var out []domain.Event
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		var e domain.Event
		if err := json.Unmarshal([]byte(body), &e); err != nil {
			return nil, fmt.Errorf("decode event: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Ping is used by readiness checks.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

func (s *PostgresStore) Close() error {
	s.db.Close()
	return nil
}
