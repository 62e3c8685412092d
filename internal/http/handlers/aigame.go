package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"stellarcade/internal/domain"
	"stellarcade/internal/repository"
)

type createGameRequest struct {
	GameID     *uint64 `json:"game_id" binding:"required"`
	ConfigHash string  `json:"config_hash"`
}

type moveRequest struct {
	Payload string `json:"payload" binding:"required"`
}

type refereeDispatchRequest struct {
	RequestID string `json:"request_id" binding:"required"`
}

type resolveRequest struct {
	Result string         `json:"result"`
	Winner domain.Address `json:"winner"`
	Reward int64          `json:"reward"`
}

func (h *Handler) CreateAIGame(c *gin.Context) {
	who, ok := caller(c)
	if !ok {
		return
	}
	var req createGameRequest
	if !bind(c, &req) {
		return
	}
	var cfgHash domain.Hash32
	if req.ConfigHash != "" {
		if cfgHash, ok = hash32(c, "config_hash", req.ConfigHash); !ok {
			return
		}
	}
	h.do(c, "ai.create", http.StatusCreated, func(tx repository.Tx) (any, error) {
		if err := h.c.AIGame.Create(tx, who, *req.GameID, cfgHash); err != nil {
			return nil, err
		}
		return h.c.AIGame.Session(tx, *req.GameID)
	})
}

func (h *Handler) SubmitMove(c *gin.Context) {
	who, ok := caller(c)
	if !ok {
		return
	}
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	var req moveRequest
	if !bind(c, &req) {
		return
	}
	h.do(c, "ai.submit_move", http.StatusOK, func(tx repository.Tx) (any, error) {
		if err := h.c.AIGame.SubmitMove(tx, who, id, req.Payload); err != nil {
			return nil, err
		}
		return h.c.AIGame.Session(tx, id)
	})
}

// DispatchReferee hands the game to the AI referee route. Admin only.
func (h *Handler) DispatchReferee(c *gin.Context) {
	who, ok := caller(c)
	if !ok {
		return
	}
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	var req refereeDispatchRequest
	if !bind(c, &req) {
		return
	}
	h.do(c, "ai.dispatch", http.StatusOK, func(tx repository.Tx) (any, error) {
		if err := h.c.AIGame.Dispatch(tx, who, id, req.RequestID); err != nil {
			return nil, err
		}
		return h.c.Router.Request(tx, req.RequestID)
	})
}

// ResolveAIGame records the referee verdict. Oracle only.
func (h *Handler) ResolveAIGame(c *gin.Context) {
	who, ok := caller(c)
	if !ok {
		return
	}
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	var req resolveRequest
	if !bind(c, &req) {
		return
	}
	h.do(c, "ai.resolve", http.StatusOK, func(tx repository.Tx) (any, error) {
		return h.c.AIGame.Resolve(tx, who, id, req.Result, req.Winner, req.Reward)
	})
}

func (h *Handler) ClaimReward(c *gin.Context) {
	who, ok := caller(c)
	if !ok {
		return
	}
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	h.do(c, "ai.claim_reward", http.StatusOK, func(tx repository.Tx) (any, error) {
		return h.c.AIGame.ClaimReward(tx, who, id)
	})
}

func (h *Handler) CloseAIGame(c *gin.Context) {
	who, ok := caller(c)
	if !ok {
		return
	}
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	h.do(c, "ai.close", http.StatusOK, func(tx repository.Tx) (any, error) {
		if err := h.c.AIGame.Close(tx, who, id); err != nil {
			return nil, err
		}
		return h.c.AIGame.Session(tx, id)
	})
}

func (h *Handler) AIGame(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	h.view(c, func(r repository.Reader) (any, error) {
		return h.c.AIGame.Session(r, id)
	})
}
