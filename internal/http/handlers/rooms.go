package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"stellarcade/internal/domain"
	"stellarcade/internal/repository"
)

type createRoomRequest struct {
	RoomID     uint64 `json:"room_id" binding:"required"`
	ConfigHash string `json:"config_hash" binding:"required"`
}

func (h *Handler) CreateRoom(c *gin.Context) {
	who, ok := caller(c)
	if !ok {
		return
	}
	var req createRoomRequest
	if !bind(c, &req) {
		return
	}
	cfgHash, ok := hash32(c, "config_hash", req.ConfigHash)
	if !ok {
		return
	}
	h.do(c, "room.create", http.StatusCreated, func(tx repository.Tx) (any, error) {
		if err := h.c.Rooms.CreateRoom(tx, who, req.RoomID, cfgHash); err != nil {
			return nil, err
		}
		return h.c.Rooms.Room(tx, req.RoomID)
	})
}

// roomOp runs a caller-driven room transition and returns the room.
func (h *Handler) roomOp(c *gin.Context, op string, fn func(tx repository.Tx, who domain.Address, id uint64) error) {
	who, ok := caller(c)
	if !ok {
		return
	}
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	h.do(c, op, http.StatusOK, func(tx repository.Tx) (any, error) {
		if err := fn(tx, who, id); err != nil {
			return nil, err
		}
		return h.c.Rooms.Room(tx, id)
	})
}

func (h *Handler) JoinRoom(c *gin.Context) {
	h.roomOp(c, "room.join", func(tx repository.Tx, who domain.Address, id uint64) error {
		return h.c.Rooms.JoinRoom(tx, who, id)
	})
}

func (h *Handler) StartMatch(c *gin.Context) {
	h.roomOp(c, "room.start_match", func(tx repository.Tx, who domain.Address, id uint64) error {
		return h.c.Rooms.StartMatch(tx, who, id)
	})
}

func (h *Handler) CloseRoom(c *gin.Context) {
	h.roomOp(c, "room.close", func(tx repository.Tx, who domain.Address, id uint64) error {
		return h.c.Rooms.CloseRoom(tx, who, id)
	})
}

func (h *Handler) Room(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	h.view(c, func(r repository.Reader) (any, error) {
		return h.c.Rooms.Room(r, id)
	})
}

func (h *Handler) RoomPlayers(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	h.view(c, func(r repository.Reader) (any, error) {
		return h.c.Rooms.Players(r, id)
	})
}
