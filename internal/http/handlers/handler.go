package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"stellarcade/internal/domain"
	"stellarcade/internal/game"
	"stellarcade/internal/http/middleware"
	"stellarcade/internal/repository"
	"stellarcade/internal/service"
)

// Contracts are the contract instances the host exposes.
type Contracts struct {
	Ledger   *service.EscrowLedger
	Oracle   *service.FairnessOracle
	Router   *service.ContractRouter
	CoinFlip *game.CoinFlip
	Dice     *game.Dice
	AIGame   *game.AIGame
	Rooms    *game.Rooms
}

// HandlerConfig holds configuration for handler
type HandlerConfig struct {
	EventsPageLimit int
}

// Handler adapts HTTP requests to core operations. It authenticates
// nothing itself: the caller comes from middleware.Caller.
type Handler struct {
	exec  *service.Executor
	c     Contracts
	games *game.Registry
	cfg   HandlerConfig
}

func NewHandler(exec *service.Executor, contracts Contracts, cfg HandlerConfig) (*Handler, error) {
	games, err := game.NewRegistry(contracts.CoinFlip, contracts.Dice, contracts.AIGame, contracts.Rooms)
	if err != nil {
		return nil, err
	}
	if cfg.EventsPageLimit <= 0 {
		cfg.EventsPageLimit = 200
	}
	return &Handler{exec: exec, c: contracts, games: games, cfg: cfg}, nil
}

// caller returns the authenticated caller or aborts with 401.
func caller(c *gin.Context) (domain.Address, bool) {
	addr, ok := middleware.CallerFrom(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
	}
	return addr, ok
}

func uintParam(c *gin.Context, name string) (uint64, bool) {
	v, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil {
		badRequest(c, "invalid "+name)
		return 0, false
	}
	return v, true
}

func bind(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		badRequest(c, "invalid request body")
		return false
	}
	return true
}

func hash32(c *gin.Context, field, value string) (domain.Hash32, bool) {
	h, err := domain.ParseHash32(value)
	if err != nil {
		badRequest(c, "invalid "+field)
		return h, false
	}
	return h, true
}

func badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": msg})
}

// do runs one atomic operation and writes either body or the error.
func (h *Handler) do(c *gin.Context, op string, status int, fn func(tx repository.Tx) (any, error)) {
	var body any
	err := h.exec.Do(c.Request.Context(), op, func(tx repository.Tx) error {
		var err error
		body, err = fn(tx)
		return err
	})
	if err != nil {
		fail(c, err)
		return
	}
	if body == nil {
		body = gin.H{"ok": true}
	}
	c.JSON(status, body)
}

// view runs a read and writes either body or the error.
func (h *Handler) view(c *gin.Context, fn func(r repository.Reader) (any, error)) {
	var body any
	err := h.exec.View(c.Request.Context(), func(r repository.Reader) error {
		var err error
		body, err = fn(r)
		return err
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, body)
}

// StatusFor maps a failure code to its HTTP status.
func StatusFor(code domain.Code) int {
	switch code {
	case domain.CodeUnauthorized, domain.CodeNotAdmin, domain.CodeNotOracle:
		return http.StatusForbidden
	case domain.CodeGameNotFound, domain.CodeRoomNotFound, domain.CodeUnknownRequest,
		domain.CodeUnknownRoute, domain.CodeNotInitialized:
		return http.StatusNotFound
	case domain.CodeInvalidState, domain.CodeAlreadyResolved, domain.CodeAlreadyAcknowledged,
		domain.CodeDuplicateGameID, domain.CodeDuplicateRequest, domain.CodeAlreadyInitialized,
		domain.CodeRandomNotFulfilled, domain.CodeNotFulfilled, domain.CodeAlreadyFulfilled,
		domain.CodeAlreadyCommitted, domain.CodeRewardAlreadyClaimed, domain.CodeDuplicatePlayer,
		domain.CodeRoomFull, domain.CodeNotEnoughPlayers, domain.CodeAlreadyPaused, domain.CodeNotPaused:
		return http.StatusConflict
	case domain.CodeInvalidAmount, domain.CodeInvalidWager, domain.CodeInsufficientBalance,
		domain.CodeOverflow, domain.CodeInvalidConfig, domain.CodeInvalidBound,
		domain.CodeCommitmentMismatch, domain.CodeNoReward, domain.CodeSameEndpoint,
		domain.CodeInvalidSide, domain.CodeInvalidInput:
		return http.StatusUnprocessableEntity
	case domain.CodeContractPaused:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func fail(c *gin.Context, err error) {
	code := domain.CodeOf(err)
	status := StatusFor(code)
	body := gin.H{"error": err.Error(), "code": code}
	if status == http.StatusInternalServerError {
		body["error"] = "internal error"
	}
	var de *domain.Error
	if errors.As(err, &de) && len(de.Metadata) > 0 {
		body["metadata"] = de.Metadata
	}
	if domain.IsIdempotentSuccess(err) {
		body["idempotent"] = true
	}
	c.AbortWithStatusJSON(status, body)
}
