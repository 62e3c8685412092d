package repository

import (
	"context"
	"encoding/json"
	"strconv"

	"stellarcade/internal/domain"
)

// Key addresses one record of one contract instance.
type Key struct {
	Contract   domain.Address
	Collection string
	ID         string
}

func (k Key) String() string {
	return string(k.Contract) + "/" + k.Collection + "/" + k.ID
}

// InstanceKey addresses instance-scoped configuration and flags.
func InstanceKey(contract domain.Address, name string) Key {
	return Key{Contract: contract, Collection: "instance", ID: name}
}

// IDKey addresses a record keyed by a numeric id.
func IDKey(contract domain.Address, collection string, id uint64) Key {
	return Key{Contract: contract, Collection: collection, ID: strconv.FormatUint(id, 10)}
}

// Reader reads committed (and, inside Update, staged) records.
type Reader interface {
	// Get decodes the record at key into dst and reports whether it exists.
	Get(key Key, dst any) (bool, error)
}

// Tx is one atomic unit of work. Nothing it writes or emits is visible
// outside until Update returns without error.
type Tx interface {
	Reader
	Put(key Key, v any) error
	Emit(contract domain.Address, kind domain.EventKind, ids map[string]string, value any) error
}

// Store holds all contract state and the event journal. Update calls are
// serialized; each one commits fully or not at all.
type Store interface {
	Update(ctx context.Context, fn func(tx Tx) error) ([]domain.Event, error)
	View(ctx context.Context, fn func(r Reader) error) error
	Events(ctx context.Context, afterSeq int64, limit int) ([]domain.Event, error)
	Close() error
}

// Has reports whether key exists.
func Has(r Reader, key Key) (bool, error) {
	var raw json.RawMessage
	return r.Get(key, &raw)
}

type lookupFunc func(key Key) ([]byte, bool, error)

// stage buffers writes and events of one Update on top of a backing lookup.
type stage struct {
	lookup lookupFunc
	writes map[Key][]byte
	order  []Key
	events []domain.Event
}

func newStage(lookup lookupFunc) *stage {
	return &stage{lookup: lookup, writes: make(map[Key][]byte)}
}

func (s *stage) Get(key Key, dst any) (bool, error) {
	b, ok := s.writes[key]
	if !ok {
		var err error
		b, ok, err = s.lookup(key)
		if err != nil {
			return false, domain.Internal("read "+key.String(), err)
		}
		if !ok {
			return false, nil
		}
	}
	if err := json.Unmarshal(b, dst); err != nil {
		return false, domain.Internal("decode "+key.String(), err)
	}
	return true, nil
}

func (s *stage) Put(key Key, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return domain.Internal("encode "+key.String(), err)
	}
	if _, seen := s.writes[key]; !seen {
		s.order = append(s.order, key)
	}
	s.writes[key] = b
	return nil
}

func (s *stage) Emit(contract domain.Address, kind domain.EventKind, ids map[string]string, value any) error {
	e, err := domain.NewEvent(contract, kind, ids, value)
	if err != nil {
		return err
	}
	s.events = append(s.events, e)
	return nil
}

// readOnly serves View.
type readOnly struct {
	lookup lookupFunc
}

func (r readOnly) Get(key Key, dst any) (bool, error) {
	b, ok, err := r.lookup(key)
	if err != nil {
		return false, domain.Internal("read "+key.String(), err)
	}
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(b, dst); err != nil {
		return false, domain.Internal("decode "+key.String(), err)
	}
	return true, nil
}
