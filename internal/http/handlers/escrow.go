package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"stellarcade/internal/domain"
	"stellarcade/internal/repository"
)

type amountRequest struct {
	Amount int64 `json:"amount"`
}

type transferRequest struct {
	To     domain.Address `json:"to" binding:"required"`
	Amount int64          `json:"amount"`
}

type sessionRequest struct {
	Session domain.Address `json:"session" binding:"required"`
}

type balanceResponse struct {
	Account domain.Address `json:"account"`
	Balance int64          `json:"balance"`
}

// Deposit credits the caller's own account.
func (h *Handler) Deposit(c *gin.Context) {
	who, ok := caller(c)
	if !ok {
		return
	}
	var req amountRequest
	if !bind(c, &req) {
		return
	}
	h.do(c, "escrow.deposit", http.StatusOK, func(tx repository.Tx) (any, error) {
		if err := h.c.Ledger.Deposit(tx, who, who, req.Amount); err != nil {
			return nil, err
		}
		bal, err := h.c.Ledger.Balance(tx, who)
		return balanceResponse{Account: who, Balance: bal}, err
	})
}

func (h *Handler) Withdraw(c *gin.Context) {
	who, ok := caller(c)
	if !ok {
		return
	}
	var req amountRequest
	if !bind(c, &req) {
		return
	}
	h.do(c, "escrow.withdraw", http.StatusOK, func(tx repository.Tx) (any, error) {
		if err := h.c.Ledger.Withdraw(tx, who, who, req.Amount); err != nil {
			return nil, err
		}
		bal, err := h.c.Ledger.Balance(tx, who)
		return balanceResponse{Account: who, Balance: bal}, err
	})
}

// Transfer moves funds out of the caller's account. The house funds a game
// contract this way.
func (h *Handler) Transfer(c *gin.Context) {
	who, ok := caller(c)
	if !ok {
		return
	}
	var req transferRequest
	if !bind(c, &req) {
		return
	}
	h.do(c, "escrow.transfer", http.StatusOK, func(tx repository.Tx) (any, error) {
		if err := h.c.Ledger.Transfer(tx, who, who, req.To, req.Amount); err != nil {
			return nil, err
		}
		bal, err := h.c.Ledger.Balance(tx, who)
		return balanceResponse{Account: who, Balance: bal}, err
	})
}

// RegisterSession grants payout rights to a contract account. Admin only.
func (h *Handler) RegisterSession(c *gin.Context) {
	who, ok := caller(c)
	if !ok {
		return
	}
	var req sessionRequest
	if !bind(c, &req) {
		return
	}
	h.do(c, "escrow.register_session", http.StatusCreated, func(tx repository.Tx) (any, error) {
		return nil, h.c.Ledger.RegisterSession(tx, who, req.Session)
	})
}

func (h *Handler) Balance(c *gin.Context) {
	account := domain.Address(c.Param("account"))
	h.view(c, func(r repository.Reader) (any, error) {
		bal, err := h.c.Ledger.Balance(r, account)
		return balanceResponse{Account: account, Balance: bal}, err
	})
}
