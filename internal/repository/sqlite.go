package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"stellarcade/internal/domain"
	"stellarcade/internal/events"
	"stellarcade/internal/migrations"

	_ "modernc.org/sqlite"
)

// SQLiteStore is the embedded single-file store.
type SQLiteStore struct {
	db  *sql.DB
	mu  sync.Mutex
	now func() time.Time
}

// OpenSQLite opens (or creates) the database at path and applies migrations.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, errors.New("sqlite path is required")
	}
	db, err := sql.Open("sqlite", sqliteDSN(path))
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	if err := migrations.ApplySQLite(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply migrations: %w", err)
	}
	return &SQLiteStore{db: db, now: time.Now}, nil
}

// sqliteDSN takes the write lock at BEGIN, so a second process on the same
// file waits on busy_timeout instead of failing the lock upgrade.
func sqliteDSN(path string) string {
	return path + "?_txlock=immediate&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
}

type sqlQuerier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func sqlLookup(ctx context.Context, q sqlQuerier) lookupFunc {
	return func(key Key) ([]byte, bool, error) {
		var body []byte
		err := q.QueryRowContext(ctx,
			`SELECT body FROM state_records WHERE contract = ? AND collection = ? AND id = ?`,
			string(key.Contract), key.Collection, key.ID,
		).Scan(&body)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		if err != nil {
			return nil, false, err
		}
		return body, true, nil
	}
}

func (s *SQLiteStore) Update(ctx context.Context, fn func(tx Tx) error) ([]domain.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, domain.Internal("begin tx", err)
	}
	defer func() { _ = tx.Rollback() }()

	st := newStage(sqlLookup(ctx, tx))
	if err := fn(st); err != nil {
		return nil, err
	}

	at := s.now()
	for _, k := range st.order {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO state_records (contract, collection, id, body, updated_at)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT (contract, collection, id)
			DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at
		`, string(k.Contract), k.Collection, k.ID, st.writes[k], at.UnixMilli())
		if err != nil {
			return nil, domain.Internal("write "+k.String(), err)
		}
	}

	var seq int64
	var prev string
	err = tx.QueryRowContext(ctx, `SELECT seq, hash FROM events ORDER BY seq DESC LIMIT 1`).Scan(&seq, &prev)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, domain.Internal("read journal head", err)
	}

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
		_, err = tx.ExecContext(ctx, `
			INSERT INTO events (seq, id, contract, kind, body, prev_hash, hash, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, e.Seq, e.ID.String(), string(e.Contract), string(e.Kind), string(body), e.PrevHash, e.Hash, e.CreatedAt.UnixMilli())
		if err != nil {
			return nil, domain.Internal("append event", err)
		}
		prev = e.Hash
		sealed = append(sealed, e)
	}

	if err := tx.Commit(); err != nil {
		return nil, domain.Internal("commit", err)
	}
	return sealed, nil
}

func (s *SQLiteStore) View(ctx context.Context, fn func(r Reader) error) error {
	return fn(readOnly{lookup: sqlLookup(ctx, s.db)})
}

func (s *SQLiteStore) Events(ctx context.Context, afterSeq int64, limit int) ([]domain.Event, error) {
	if limit <= 0 {
		limit = 1000
	}
	rows, err := s.db.QueryContext(ctx, `SELECT body FROM events WHERE seq > ? ORDER BY seq LIMIT ?`, afterSeq, limit)
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
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
