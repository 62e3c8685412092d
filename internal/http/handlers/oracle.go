package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"stellarcade/internal/domain"
	"stellarcade/internal/repository"
)

type authorizeRequest struct {
	Caller domain.Address `json:"caller" binding:"required"`
}

type commitRequest struct {
	SeedHash string `json:"seed_hash" binding:"required"`
}

type fulfillRequest struct {
	Seed string `json:"seed" binding:"required"`
}

func (h *Handler) AuthorizeCaller(c *gin.Context) {
	who, ok := caller(c)
	if !ok {
		return
	}
	var req authorizeRequest
	if !bind(c, &req) {
		return
	}
	h.do(c, "oracle.authorize_caller", http.StatusCreated, func(tx repository.Tx) (any, error) {
		return nil, h.c.Oracle.AuthorizeCaller(tx, who, req.Caller)
	})
}

func (h *Handler) RevokeCaller(c *gin.Context) {
	who, ok := caller(c)
	if !ok {
		return
	}
	target := domain.Address(c.Param("caller"))
	h.do(c, "oracle.revoke_caller", http.StatusOK, func(tx repository.Tx) (any, error) {
		return nil, h.c.Oracle.RevokeCaller(tx, who, target)
	})
}

// requestParams reads the opening contract and request id from the path.
func requestParams(c *gin.Context) (domain.Address, uint64, bool) {
	owner := domain.Address(c.Param("caller"))
	if owner.IsZero() {
		badRequest(c, "invalid caller")
		return "", 0, false
	}
	id, ok := uintParam(c, "id")
	return owner, id, ok
}

// CommitSeed records sha256(seed) ahead of fulfillment. Oracle only.
func (h *Handler) CommitSeed(c *gin.Context) {
	who, ok := caller(c)
	if !ok {
		return
	}
	owner, id, ok := requestParams(c)
	if !ok {
		return
	}
	var req commitRequest
	if !bind(c, &req) {
		return
	}
	seedHash, ok := hash32(c, "seed_hash", req.SeedHash)
	if !ok {
		return
	}
	h.do(c, "oracle.commit", http.StatusOK, func(tx repository.Tx) (any, error) {
		if err := h.c.Oracle.Commit(tx, who, owner, id, seedHash); err != nil {
			return nil, err
		}
		return h.c.Oracle.Request(tx, owner, id)
	})
}

// Fulfill reveals the seed for a request. Oracle only.
func (h *Handler) Fulfill(c *gin.Context) {
	who, ok := caller(c)
	if !ok {
		return
	}
	owner, id, ok := requestParams(c)
	if !ok {
		return
	}
	var req fulfillRequest
	if !bind(c, &req) {
		return
	}
	seed, ok := hash32(c, "seed", req.Seed)
	if !ok {
		return
	}
	h.do(c, "oracle.fulfill", http.StatusOK, func(tx repository.Tx) (any, error) {
		if err := h.c.Oracle.Fulfill(tx, who, owner, id, seed); err != nil {
			return nil, err
		}
		return h.c.Oracle.Request(tx, owner, id)
	})
}

func (h *Handler) RandomRequest(c *gin.Context) {
	owner, id, ok := requestParams(c)
	if !ok {
		return
	}
	h.view(c, func(r repository.Reader) (any, error) {
		return h.c.Oracle.Request(r, owner, id)
	})
}

// VerifyRandom recomputes a fulfilled result from its revealed seed.
func (h *Handler) VerifyRandom(c *gin.Context) {
	owner, id, ok := requestParams(c)
	if !ok {
		return
	}
	h.view(c, func(r repository.Reader) (any, error) {
		valid, err := h.c.Oracle.Verify(r, owner, id)
		return gin.H{"caller": owner, "request_id": id, "valid": valid}, err
	})
}
