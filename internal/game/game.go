package game

import (
	"fmt"
	"slices"

	"stellarcade/internal/domain"
	"stellarcade/internal/repository"
)

// Contract is what every game variant exposes beyond its own rules.
type Contract interface {
	Address() domain.Address
	Kind() domain.GameKind
	Paused(r repository.Reader) (bool, error)
	Pause(tx repository.Tx, caller domain.Address) error
	Unpause(tx repository.Tx, caller domain.Address) error
}

var (
	_ Contract = (*CoinFlip)(nil)
	_ Contract = (*Dice)(nil)
	_ Contract = (*AIGame)(nil)
	_ Contract = (*Rooms)(nil)
)

// Registry indexes the game contracts a host runs by kind.
type Registry struct {
	byKind map[domain.GameKind]Contract
}

func NewRegistry(contracts ...Contract) (*Registry, error) {
	r := &Registry{byKind: make(map[domain.GameKind]Contract, len(contracts))}
	for _, c := range contracts {
		if _, dup := r.byKind[c.Kind()]; dup {
			return nil, fmt.Errorf("game kind %q registered twice", c.Kind())
		}
		r.byKind[c.Kind()] = c
	}
	return r, nil
}

func (r *Registry) Get(kind domain.GameKind) (Contract, bool) {
	c, ok := r.byKind[kind]
	return c, ok
}

// Kinds returns the registered kinds in sorted order.
func (r *Registry) Kinds() []domain.GameKind {
	kinds := make([]domain.GameKind, 0, len(r.byKind))
	for k := range r.byKind {
		kinds = append(kinds, k)
	}
	slices.Sort(kinds)
	return kinds
}
