package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"stellarcade/internal/domain"
	"stellarcade/internal/game"
	"stellarcade/internal/repository"
)

// side accepts "heads"/"tails" or 0/1.
type side string

func (s *side) UnmarshalJSON(b []byte) error {
	var str string
	if err := json.Unmarshal(b, &str); err == nil {
		*s = side(str)
		return nil
	}
	var n uint32
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*s = side(strconv.FormatUint(uint64(n), 10))
	return nil
}

type coinFlipBetRequest struct {
	GameID *uint64 `json:"game_id" binding:"required"`
	Side   side    `json:"side"`
	Wager  int64   `json:"wager"`
}

type diceBetRequest struct {
	GameID *uint64 `json:"game_id" binding:"required"`
	Face   uint32  `json:"face"`
	Wager  int64   `json:"wager"`
}

// PlaceCoinFlip escrows a wager and opens the randomness request.
func (h *Handler) PlaceCoinFlip(c *gin.Context) {
	who, ok := caller(c)
	if !ok {
		return
	}
	var req coinFlipBetRequest
	if !bind(c, &req) {
		return
	}
	s, err := game.ParseSide(string(req.Side))
	if err != nil {
		fail(c, err)
		return
	}
	h.do(c, "coinflip.place_bet", http.StatusCreated, func(tx repository.Tx) (any, error) {
		if err := h.c.CoinFlip.PlaceBet(tx, who, s, req.Wager, *req.GameID); err != nil {
			return nil, err
		}
		return h.c.CoinFlip.Bet(tx, *req.GameID)
	})
}

func (h *Handler) ResolveCoinFlip(c *gin.Context) {
	who, ok := caller(c)
	if !ok {
		return
	}
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	h.do(c, "coinflip.resolve", http.StatusOK, func(tx repository.Tx) (any, error) {
		return h.c.CoinFlip.Resolve(tx, who, id)
	})
}

func (h *Handler) CoinFlipBet(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	h.view(c, func(r repository.Reader) (any, error) {
		return h.c.CoinFlip.Bet(r, id)
	})
}

func (h *Handler) PlaceDice(c *gin.Context) {
	who, ok := caller(c)
	if !ok {
		return
	}
	var req diceBetRequest
	if !bind(c, &req) {
		return
	}
	h.do(c, "dice.place_bet", http.StatusCreated, func(tx repository.Tx) (any, error) {
		if err := h.c.Dice.PlaceBet(tx, who, req.Face, req.Wager, *req.GameID); err != nil {
			return nil, err
		}
		return h.c.Dice.Session(tx, *req.GameID)
	})
}

func (h *Handler) ResolveDice(c *gin.Context) {
	who, ok := caller(c)
	if !ok {
		return
	}
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	h.do(c, "dice.resolve", http.StatusOK, func(tx repository.Tx) (any, error) {
		return h.c.Dice.Resolve(tx, who, id)
	})
}

func (h *Handler) DiceBet(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	h.view(c, func(r repository.Reader) (any, error) {
		return h.c.Dice.Session(r, id)
	})
}

func (h *Handler) contract(c *gin.Context) (game.Contract, bool) {
	g, ok := h.games.Get(domain.GameKind(c.Param("kind")))
	if !ok {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "unknown game kind"})
	}
	return g, ok
}

// Pause halts a game contract. Admin only.
func (h *Handler) Pause(c *gin.Context) {
	who, ok := caller(c)
	if !ok {
		return
	}
	g, ok := h.contract(c)
	if !ok {
		return
	}
	h.do(c, string(g.Kind())+".pause", http.StatusOK, func(tx repository.Tx) (any, error) {
		return nil, g.Pause(tx, who)
	})
}

func (h *Handler) Unpause(c *gin.Context) {
	who, ok := caller(c)
	if !ok {
		return
	}
	g, ok := h.contract(c)
	if !ok {
		return
	}
	h.do(c, string(g.Kind())+".unpause", http.StatusOK, func(tx repository.Tx) (any, error) {
		return nil, g.Unpause(tx, who)
	})
}

// GameStatus lists every game contract with its pause flag.
func (h *Handler) GameStatus(c *gin.Context) {
	h.view(c, func(r repository.Reader) (any, error) {
		out := make([]gin.H, 0, len(h.games.Kinds()))
		for _, kind := range h.games.Kinds() {
			g, _ := h.games.Get(kind)
			paused, err := g.Paused(r)
			if err != nil {
				return nil, err
			}
			out = append(out, gin.H{"kind": kind, "contract": g.Address(), "paused": paused})
		}
		return out, nil
	})
}
