package game

import (
	"errors"

	"stellarcade/internal/domain"
	"stellarcade/internal/repository"
	"stellarcade/internal/service"
)

const (
	diceFaces = 6

	// DefaultDiceMultiplier pays 6x on a correct face, before the house edge.
	DefaultDiceMultiplier int64 = 6
)

type DiceConfig struct {
	Admin        domain.Address `json:"admin"`
	MinWager     int64          `json:"min_wager"`
	MaxWager     int64          `json:"max_wager"`
	HouseEdgeBps int64          `json:"house_edge_bps"`
	Multiplier   int64          `json:"multiplier"`
}

func (c DiceConfig) validate() error {
	if c.MinWager <= 0 || c.MaxWager < c.MinWager {
		return domain.ErrInvalidConfig
	}
	if c.HouseEdgeBps < 0 || c.HouseEdgeBps > domain.BasisPointsDivisor {
		return domain.ErrInvalidConfig
	}
	if c.Multiplier < 2 {
		return domain.ErrInvalidConfig
	}
	return nil
}

// Dice is a single-die prediction game: the player names a face 1..6 and
// wins multiplier*wager less the house edge on the winnings.
type Dice struct {
	Machine
	ledger *service.EscrowLedger
	oracle *service.FairnessOracle
}

func NewDice(addr domain.Address, ledger *service.EscrowLedger, oracle *service.FairnessOracle) *Dice {
	return &Dice{
		Machine: newMachine(addr, domain.GameKindDice),
		ledger:  ledger,
		oracle:  oracle,
	}
}

func (g *Dice) Init(tx repository.Tx, cfg DiceConfig) error {
	if cfg.Multiplier == 0 {
		cfg.Multiplier = DefaultDiceMultiplier
	}
	if err := cfg.validate(); err != nil {
		return err
	}
	return g.initConfig(tx, cfg.Admin, cfg)
}

func (g *Dice) Config(r repository.Reader) (DiceConfig, error) {
	var cfg DiceConfig
	err := g.loadConfig(r, &cfg)
	return cfg, err
}

// PlaceBet escrows wager on a predicted face.
func (g *Dice) PlaceBet(tx repository.Tx, player domain.Address, face uint32, wager int64, gameID uint64) error {
	if err := g.requireRunning(tx); err != nil {
		return err
	}
	cfg, err := g.Config(tx)
	if err != nil {
		return err
	}
	if face < 1 || face > diceFaces {
		return domain.ErrInvalidSide
	}
	if wager <= 0 {
		return domain.ErrInvalidAmount
	}
	if wager < cfg.MinWager || wager > cfg.MaxWager {
		return domain.ErrInvalidWager
	}

	s := domain.Session{GameID: gameID, Player: player, Choice: face, Wager: wager}
	if err := g.create(tx, &s); err != nil {
		return err
	}
	if err := g.ledger.Transfer(tx, player, player, g.addr, wager); err != nil {
		return err
	}
	if err := g.oracle.OpenRequest(tx, g.addr, gameID, diceFaces); err != nil {
		return err
	}
	if err := g.begin(tx, &s, player); err != nil {
		return err
	}
	return g.emit(tx, domain.EventBetPlaced,
		gameIDs(gameID, "player", string(player)),
		map[string]int64{"face": int64(face), "wager": wager},
	)
}

// Resolve rolls the die from the oracle result (face = result + 1).
func (g *Dice) Resolve(tx repository.Tx, caller domain.Address, gameID uint64) (domain.Session, error) {
	if err := g.requireRunning(tx); err != nil {
		return domain.Session{}, err
	}
	cfg, err := g.Config(tx)
	if err != nil {
		return domain.Session{}, err
	}
	s, err := g.Session(tx, gameID)
	if err != nil {
		return s, err
	}
	if s.State == domain.SessionResolved {
		return s, domain.ErrAlreadyResolved
	}
	result, err := g.oracle.ReadResult(tx, g.addr, gameID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFulfilled) {
			return s, domain.ErrRandomNotFulfilled
		}
		return s, err
	}
	rolled := result + 1
	s.Outcome = &rolled

	var winner domain.Address
	var payout int64
	if uint32(rolled) == s.Choice {
		winner = s.Player
		payout, err = domain.CalculateMultiplierPayout(s.Wager, cfg.Multiplier, cfg.HouseEdgeBps)
		if err != nil {
			return s, err
		}
	}

	err = g.settle(tx, &s, winner, payout, func() error {
		return g.ledger.Payout(tx, g.addr, winner, payout)
	})
	if err != nil {
		return s, err
	}
	return s, g.emit(tx, domain.EventBetResolved,
		gameIDs(gameID, "player", string(s.Player), "resolved_by", string(caller)),
		map[string]any{"rolled": rolled, "won": !winner.IsZero(), "payout": payout},
	)
}
