package game

import (
	"errors"
	"strconv"

	"stellarcade/internal/domain"
	"stellarcade/internal/repository"
	"stellarcade/internal/service"
)

// CoinFlipConfig is the instance configuration of a coin flip contract.
type CoinFlipConfig struct {
	Admin        domain.Address `json:"admin"`
	MinWager     int64          `json:"min_wager"`
	MaxWager     int64          `json:"max_wager"`
	HouseEdgeBps int64          `json:"house_edge_bps"`
}

func (c CoinFlipConfig) validate() error {
	if c.MinWager <= 0 || c.MaxWager < c.MinWager {
		return domain.ErrInvalidConfig
	}
	if c.HouseEdgeBps < 0 || c.HouseEdgeBps > domain.BasisPointsDivisor {
		return domain.ErrInvalidConfig
	}
	return nil
}

// CoinFlip is an RNG-backed even-money game. The player escrows a wager and
// picks a side; the oracle result for the same game id decides it.
type CoinFlip struct {
	Machine
	ledger *service.EscrowLedger
	oracle *service.FairnessOracle
}

func NewCoinFlip(addr domain.Address, ledger *service.EscrowLedger, oracle *service.FairnessOracle) *CoinFlip {
	return &CoinFlip{
		Machine: newMachine(addr, domain.GameKindCoinFlip),
		ledger:  ledger,
		oracle:  oracle,
	}
}

func (g *CoinFlip) Init(tx repository.Tx, cfg CoinFlipConfig) error {
	if err := cfg.validate(); err != nil {
		return err
	}
	return g.initConfig(tx, cfg.Admin, cfg)
}

func (g *CoinFlip) Config(r repository.Reader) (CoinFlipConfig, error) {
	var cfg CoinFlipConfig
	err := g.loadConfig(r, &cfg)
	return cfg, err
}

// PlaceBet escrows wager from player and opens the randomness request.
func (g *CoinFlip) PlaceBet(tx repository.Tx, player domain.Address, side uint32, wager int64, gameID uint64) error {
	if err := g.requireRunning(tx); err != nil {
		return err
	}
	cfg, err := g.Config(tx)
	if err != nil {
		return err
	}
	if side != domain.SideHeads && side != domain.SideTails {
		return domain.ErrInvalidSide
	}
	if wager <= 0 {
		return domain.ErrInvalidAmount
	}
	if wager < cfg.MinWager || wager > cfg.MaxWager {
		return domain.ErrInvalidWager
	}

	s := domain.Session{GameID: gameID, Player: player, Choice: side, Wager: wager}
	if err := g.create(tx, &s); err != nil {
		return err
	}
	if err := g.ledger.Transfer(tx, player, player, g.addr, wager); err != nil {
		return err
	}
	if err := g.oracle.OpenRequest(tx, g.addr, gameID, 2); err != nil {
		return err
	}
	if err := g.begin(tx, &s, player); err != nil {
		return err
	}
	return g.emit(tx, domain.EventBetPlaced,
		gameIDs(gameID, "player", string(player)),
		map[string]any{"side": sideName(side), "wager": wager},
	)
}

// Resolve settles a bet from the fulfilled oracle result. Anyone may call it.
func (g *CoinFlip) Resolve(tx repository.Tx, caller domain.Address, gameID uint64) (domain.Session, error) {
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
	outcome, err := g.oracle.ReadResult(tx, g.addr, gameID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFulfilled) {
			return s, domain.ErrRandomNotFulfilled
		}
		return s, err
	}
	s.Outcome = &outcome

	var winner domain.Address
	var payout int64
	if uint32(outcome) == s.Choice {
		winner = s.Player
		if payout, err = domain.CalculatePayout(s.Wager, cfg.HouseEdgeBps); err != nil {
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
		map[string]any{"outcome": outcome, "won": !winner.IsZero(), "payout": payout},
	)
}

// Bet returns the session of gameID.
func (g *CoinFlip) Bet(r repository.Reader, gameID uint64) (domain.Session, error) {
	return g.Session(r, gameID)
}

func sideName(side uint32) string {
	if side == domain.SideHeads {
		return "heads"
	}
	return "tails"
}

// ParseSide accepts "heads"/"tails" or "0"/"1".
func ParseSide(s string) (uint32, error) {
	switch s {
	case "heads", "HEADS":
		return domain.SideHeads, nil
	case "tails", "TAILS":
		return domain.SideTails, nil
	}
	n, err := strconv.ParseUint(s, 10, 32)
	if err != nil || n > 1 {
		return 0, domain.ErrInvalidSide
	}
	return uint32(n), nil
}
