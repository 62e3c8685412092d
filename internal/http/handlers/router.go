package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"stellarcade/internal/domain"
	"stellarcade/internal/repository"
)

type routeRequest struct {
	Source   domain.Address `json:"source" binding:"required"`
	Target   domain.Address `json:"target" binding:"required"`
	Selector string         `json:"selector" binding:"required"`
}

type dispatchRequest struct {
	RequestID string `json:"request_id" binding:"required"`
	RouteID   uint64 `json:"route_id" binding:"required"`
	Payload   string `json:"payload"`
}

type ackRequest struct {
	Result string `json:"result"`
}

func (h *Handler) RegisterRoute(c *gin.Context) {
	who, ok := caller(c)
	if !ok {
		return
	}
	var req routeRequest
	if !bind(c, &req) {
		return
	}
	h.do(c, "router.register_route", http.StatusCreated, func(tx repository.Tx) (any, error) {
		id, err := h.c.Router.RegisterRoute(tx, who, req.Source, req.Target, req.Selector)
		if err != nil {
			return nil, err
		}
		return h.c.Router.Route(tx, id)
	})
}

func (h *Handler) Route(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	h.view(c, func(r repository.Reader) (any, error) {
		return h.c.Router.Route(r, id)
	})
}

func (h *Handler) Dispatch(c *gin.Context) {
	who, ok := caller(c)
	if !ok {
		return
	}
	var req dispatchRequest
	if !bind(c, &req) {
		return
	}
	h.do(c, "router.dispatch", http.StatusCreated, func(tx repository.Tx) (any, error) {
		if err := h.c.Router.Dispatch(tx, who, req.RequestID, req.RouteID, req.Payload); err != nil {
			return nil, err
		}
		return h.c.Router.Request(tx, req.RequestID)
	})
}

func (h *Handler) Acknowledge(c *gin.Context) {
	who, ok := caller(c)
	if !ok {
		return
	}
	var req ackRequest
	if !bind(c, &req) {
		return
	}
	requestID := c.Param("id")
	h.do(c, "router.acknowledge", http.StatusOK, func(tx repository.Tx) (any, error) {
		if err := h.c.Router.Acknowledge(tx, who, requestID, req.Result); err != nil {
			return nil, err
		}
		return h.c.Router.Request(tx, requestID)
	})
}

func (h *Handler) RoutedRequest(c *gin.Context) {
	requestID := c.Param("id")
	h.view(c, func(r repository.Reader) (any, error) {
		return h.c.Router.Request(r, requestID)
	})
}
