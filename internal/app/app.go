// Package app wires contract instances from configuration and brings a
// fresh store to a runnable state.
package app

import (
	"context"
	"errors"

	"stellarcade/internal/config"
	"stellarcade/internal/domain"
	"stellarcade/internal/game"
	"stellarcade/internal/http/handlers"
	"stellarcade/internal/logger"
	"stellarcade/internal/repository"
	"stellarcade/internal/service"
)

// RefereeSelector names the AI referee entry point on its route.
const RefereeSelector = "resolve_ai_game"

// NewContracts builds every contract instance at its configured address.
func NewContracts(cfg *config.Config) handlers.Contracts {
	addrs := cfg.Contracts
	ledger := service.NewEscrowLedger(addrs.Escrow)
	oracle := service.NewFairnessOracle(addrs.Fairness)
	router := service.NewContractRouter(addrs.Router)
	return handlers.Contracts{
		Ledger:   ledger,
		Oracle:   oracle,
		Router:   router,
		CoinFlip: game.NewCoinFlip(addrs.CoinFlip, ledger, oracle),
		Dice:     game.NewDice(addrs.Dice, ledger, oracle),
		AIGame:   game.NewAIGame(addrs.AIGame, ledger, router),
		Rooms:    game.NewRooms(addrs.Rooms),
	}
}

// Bootstrap initializes every contract that is not yet initialized, grants
// the games their payout and randomness rights and registers the AI referee
// route. It is one atomic operation and a no-op on an already set up store.
func Bootstrap(ctx context.Context, exec *service.Executor, cfg *config.Config, c handlers.Contracts) error {
	return exec.Do(ctx, "bootstrap", func(tx repository.Tx) error {
		admin := cfg.Admin
		steps := []func() error{
			func() error { return c.Ledger.Init(tx, admin) },
			func() error { return c.Oracle.Init(tx, admin, cfg.Oracle) },
			func() error { return c.Router.Init(tx, admin) },
			func() error {
				return c.CoinFlip.Init(tx, game.CoinFlipConfig{
					Admin:        admin,
					MinWager:     cfg.MinWager,
					MaxWager:     cfg.MaxWager,
					HouseEdgeBps: cfg.HouseEdgeBps,
				})
			},
			func() error {
				return c.Dice.Init(tx, game.DiceConfig{
					Admin:        admin,
					MinWager:     cfg.MinWager,
					MaxWager:     cfg.MaxWager,
					HouseEdgeBps: cfg.HouseEdgeBps,
					Multiplier:   cfg.DiceMultiplier,
				})
			},
			func() error { return c.Rooms.Init(tx, game.RoomsConfig{Admin: admin}) },
			func() error { return initAIGame(tx, cfg, c) },
		}
		for _, step := range steps {
			if err := step(); err != nil && !errors.Is(err, domain.ErrAlreadyInitialized) {
				return err
			}
		}

		for _, session := range []domain.Address{c.CoinFlip.Address(), c.Dice.Address(), c.AIGame.Address()} {
			ok, err := c.Ledger.IsSession(tx, session)
			if err != nil {
				return err
			}
			if !ok {
				if err := c.Ledger.RegisterSession(tx, admin, session); err != nil {
					return err
				}
			}
		}

		for _, caller := range []domain.Address{c.CoinFlip.Address(), c.Dice.Address()} {
			ok, err := c.Oracle.IsAuthorized(tx, caller)
			if err != nil {
				return err
			}
			if !ok {
				if err := c.Oracle.AuthorizeCaller(tx, admin, caller); err != nil {
					return err
				}
			}
		}
		logger.Debug("bootstrap checked", "admin", admin, "oracle", cfg.Oracle)
		return nil
	})
}

func initAIGame(tx repository.Tx, cfg *config.Config, c handlers.Contracts) error {
	_, err := c.AIGame.Config(tx)
	if err == nil {
		return domain.ErrAlreadyInitialized
	}
	if !errors.Is(err, domain.ErrNotInitialized) {
		return err
	}
	routeID, err := c.Router.RegisterRoute(tx, cfg.Admin, c.AIGame.Address(), cfg.RefereeAddress(), RefereeSelector)
	if err != nil {
		return err
	}
	return c.AIGame.Init(tx, game.AIGameConfig{
		Admin:        cfg.Admin,
		Oracle:       cfg.Oracle,
		RefereeRoute: routeID,
	})
}
