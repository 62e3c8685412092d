package game

import (
	"context"
	"testing"

	"stellarcade/internal/domain"
	"stellarcade/internal/repository"
	"stellarcade/internal/service"
)

const (
	admin  domain.Address = "GADMIN"
	oracle domain.Address = "GORACLE"
	house  domain.Address = "GHOUSE"
	alice  domain.Address = "GALICE"
	bob    domain.Address = "GBOB"
	carol  domain.Address = "GCAROL"
)

type fixture struct {
	exec     *service.Executor
	ledger   *service.EscrowLedger
	oracle   *service.FairnessOracle
	router   *service.ContractRouter
	coinflip *CoinFlip
	dice     *Dice
	ai       *AIGame
	rooms    *Rooms
}

// newFixture initializes every contract, registers the games as payout
// sessions and oracle callers, and gives alice 500 and the house 10000.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := repository.NewMemoryStore()
	t.Cleanup(func() { _ = store.Close() })

	f := &fixture{
		exec:   service.NewExecutor(store, nil),
		ledger: service.NewEscrowLedger("CESCROW"),
		oracle: service.NewFairnessOracle("CFAIRNESS"),
		router: service.NewContractRouter("CROUTER"),
	}
	f.coinflip = NewCoinFlip("CCOINFLIP", f.ledger, f.oracle)
	f.dice = NewDice("CDICE", f.ledger, f.oracle)
	f.ai = NewAIGame("CAIGAME", f.ledger, f.router)
	f.rooms = NewRooms("CROOMS")

	f.do(t, func(tx repository.Tx) error {
		steps := []func() error{
			func() error { return f.ledger.Init(tx, admin) },
			func() error { return f.oracle.Init(tx, admin, oracle) },
			func() error { return f.router.Init(tx, admin) },
			func() error {
				return f.coinflip.Init(tx, CoinFlipConfig{Admin: admin, MinWager: 10, MaxWager: 1000, HouseEdgeBps: 250})
			},
			func() error {
				return f.dice.Init(tx, DiceConfig{Admin: admin, MinWager: 10, MaxWager: 1000, HouseEdgeBps: 250})
			},
			func() error {
				routeID, err := f.router.RegisterRoute(tx, admin, f.ai.Address(), oracle, "resolve_ai_game")
				if err != nil {
					return err
				}
				return f.ai.Init(tx, AIGameConfig{Admin: admin, Oracle: oracle, RefereeRoute: routeID})
			},
			func() error { return f.rooms.Init(tx, RoomsConfig{Admin: admin}) },
		}
		for _, step := range steps {
			if err := step(); err != nil {
				return err
			}
		}
		for _, g := range []domain.Address{f.coinflip.Address(), f.dice.Address(), f.ai.Address()} {
			if err := f.ledger.RegisterSession(tx, admin, g); err != nil {
				return err
			}
		}
		for _, g := range []domain.Address{f.coinflip.Address(), f.dice.Address()} {
			if err := f.oracle.AuthorizeCaller(tx, admin, g); err != nil {
				return err
			}
		}
		if err := f.ledger.Deposit(tx, alice, alice, 500); err != nil {
			return err
		}
		return f.ledger.Deposit(tx, house, house, 10000)
	})
	return f
}

func (f *fixture) do(t *testing.T, fn func(tx repository.Tx) error) {
	t.Helper()
	if err := f.exec.Do(context.Background(), "test", fn); err != nil {
		t.Fatalf("operation failed: %v", err)
	}
}

func (f *fixture) try(fn func(tx repository.Tx) error) error {
	return f.exec.Do(context.Background(), "test", fn)
}

// fund moves house money into a game contract's escrow account.
func (f *fixture) fund(t *testing.T, game domain.Address, amount int64) {
	t.Helper()
	f.do(t, func(tx repository.Tx) error { return f.ledger.Transfer(tx, house, house, game, amount) })
}

func (f *fixture) balance(t *testing.T, account domain.Address) int64 {
	t.Helper()
	var bal int64
	err := f.exec.View(context.Background(), func(r repository.Reader) error {
		var err error
		bal, err = f.ledger.Balance(r, account)
		return err
	})
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	return bal
}

func (f *fixture) countEvents(t *testing.T, kind domain.EventKind) int {
	t.Helper()
	evs, err := f.exec.Events(context.Background(), 0, 0)
	if err != nil {
		t.Fatalf("events: %v", err)
	}
	n := 0
	for _, e := range evs {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

// seedFor finds a server seed whose derived result for requestID is want.
func seedFor(t *testing.T, requestID, bound, want uint64) domain.Hash32 {
	t.Helper()
	var s domain.Hash32
	for i := 0; i < 1<<16; i++ {
		s[0], s[1] = byte(i), byte(i>>8)
		if service.DeriveResult(s, requestID, bound) == want {
			return s
		}
	}
	t.Fatalf("no seed found for result %d of %d", want, bound)
	return s
}
