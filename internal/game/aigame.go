package game

import (
	"strconv"

	"stellarcade/internal/domain"
	"stellarcade/internal/repository"
	"stellarcade/internal/service"
)

// AIGameConfig configures a refereed game contract. RefereeRoute, when
// non-zero, is the router route on which resolution work is handed to the
// off-contract AI referee.
type AIGameConfig struct {
	Admin        domain.Address `json:"admin"`
	Oracle       domain.Address `json:"oracle"`
	RefereeRoute uint64         `json:"referee_route,omitempty"`
}

// AIGame is an oracle-refereed game: the admin sets it up, a player moves,
// the model oracle names the winner and the winner claims the reward.
type AIGame struct {
	Machine
	ledger *service.EscrowLedger
	router *service.ContractRouter
}

func NewAIGame(addr domain.Address, ledger *service.EscrowLedger, router *service.ContractRouter) *AIGame {
	return &AIGame{
		Machine: newMachine(addr, domain.GameKindAI),
		ledger:  ledger,
		router:  router,
	}
}

func (g *AIGame) Init(tx repository.Tx, cfg AIGameConfig) error {
	if cfg.Oracle.IsZero() {
		return domain.ErrInvalidConfig
	}
	return g.initConfig(tx, cfg.Admin, cfg)
}

func (g *AIGame) Config(r repository.Reader) (AIGameConfig, error) {
	var cfg AIGameConfig
	err := g.loadConfig(r, &cfg)
	return cfg, err
}

// Create sets up a game layout. Admin only.
func (g *AIGame) Create(tx repository.Tx, caller domain.Address, gameID uint64, configHash domain.Hash32) error {
	if err := g.requireRunning(tx); err != nil {
		return err
	}
	cfg, err := g.Config(tx)
	if err != nil {
		return err
	}
	if err := domain.RequireAdmin(caller, cfg.Admin); err != nil {
		return err
	}
	s := domain.Session{GameID: gameID, ConfigHash: configHash}
	if err := g.create(tx, &s); err != nil {
		return err
	}
	return g.emit(tx, domain.EventGameCreated, gameIDs(gameID), map[string]string{"config_hash": configHash.String()})
}

// SubmitMove binds the first mover and starts the game. A second submission
// fails with ErrInvalidState.
func (g *AIGame) SubmitMove(tx repository.Tx, player domain.Address, gameID uint64, payload string) error {
	if err := g.requireRunning(tx); err != nil {
		return err
	}
	if payload == "" {
		return domain.ErrInvalidInput
	}
	s, err := g.Session(tx, gameID)
	if err != nil {
		return err
	}
	s.Move = payload
	if err := g.begin(tx, &s, player); err != nil {
		return err
	}
	return g.emit(tx, domain.EventMoveSubmitted,
		gameIDs(gameID, "player", string(player)),
		map[string]string{"move": payload},
	)
}

// Dispatch hands the game to the AI referee over the configured route.
// The referee acknowledges on the router and then resolves here as oracle.
func (g *AIGame) Dispatch(tx repository.Tx, caller domain.Address, gameID uint64, requestID string) error {
	if err := g.requireRunning(tx); err != nil {
		return err
	}
	cfg, err := g.Config(tx)
	if err != nil {
		return err
	}
	if err := domain.RequireAdmin(caller, cfg.Admin); err != nil {
		return err
	}
	if cfg.RefereeRoute == 0 || g.router == nil {
		return domain.ErrUnknownRoute
	}
	s, err := g.Session(tx, gameID)
	if err != nil {
		return err
	}
	if s.State != domain.SessionInProgress {
		return domain.ErrInvalidState
	}
	payload := strconv.FormatUint(gameID, 10) + ":" + s.Move
	if err := g.router.Dispatch(tx, g.addr, requestID, cfg.RefereeRoute, payload); err != nil {
		return err
	}
	return g.emit(tx, domain.EventGameDispatched,
		gameIDs(gameID, "request_id", requestID),
		map[string]uint64{"route_id": cfg.RefereeRoute},
	)
}

// Resolve records the referee's verdict. Oracle only. An empty winner
// resolves the game with no reward.
func (g *AIGame) Resolve(tx repository.Tx, oracle domain.Address, gameID uint64, result string, winner domain.Address, reward int64) (domain.Session, error) {
	if err := g.requireRunning(tx); err != nil {
		return domain.Session{}, err
	}
	cfg, err := g.Config(tx)
	if err != nil {
		return domain.Session{}, err
	}
	if err := domain.RequireOracle(oracle, cfg.Oracle); err != nil {
		return domain.Session{}, err
	}
	if reward < 0 || (winner.IsZero() && reward != 0) {
		return domain.Session{}, domain.ErrInvalidAmount
	}
	s, err := g.Session(tx, gameID)
	if err != nil {
		return s, err
	}
	s.Result = result
	s.Reward = reward
	if err := g.settle(tx, &s, winner, 0, nil); err != nil {
		return s, err
	}
	return s, g.emit(tx, domain.EventGameResolved,
		gameIDs(gameID, "winner", string(winner)),
		map[string]any{"result": result, "reward": reward},
	)
}

// ClaimReward pays the recorded reward to the winner, once.
func (g *AIGame) ClaimReward(tx repository.Tx, player domain.Address, gameID uint64) (domain.Session, error) {
	if err := g.requireRunning(tx); err != nil {
		return domain.Session{}, err
	}
	s, err := g.claim(tx, gameID, player, func(amount int64) error {
		return g.ledger.Payout(tx, g.addr, player, amount)
	})
	if err != nil {
		return s, err
	}
	return s, g.emit(tx, domain.EventRewardClaimed,
		gameIDs(gameID, "player", string(player)),
		map[string]int64{"reward": s.Reward},
	)
}

// Close abandons a game that has not resolved. Admin only.
func (g *AIGame) Close(tx repository.Tx, caller domain.Address, gameID uint64) error {
	cfg, err := g.Config(tx)
	if err != nil {
		return err
	}
	if err := domain.RequireAdmin(caller, cfg.Admin); err != nil {
		return err
	}
	s, err := g.Session(tx, gameID)
	if err != nil {
		return err
	}
	if err := g.close(tx, &s); err != nil {
		return err
	}
	return g.emit(tx, domain.EventGameClosed, gameIDs(gameID), nil)
}
