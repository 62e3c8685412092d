package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"stellarcade/internal/domain"
	"stellarcade/internal/events"
)

type eventsResponse struct {
	Events  []domain.Event `json:"events"`
	NextSeq int64          `json:"next_seq"`
}

// Events pages through the committed journal: ?after=<seq>&limit=<n>.
func (h *Handler) Events(c *gin.Context) {
	after, limit, ok := h.page(c)
	if !ok {
		return
	}
	evs, err := h.exec.Events(c.Request.Context(), after, limit)
	if err != nil {
		fail(c, err)
		return
	}
	next := after
	if len(evs) > 0 {
		next = evs[len(evs)-1].Seq
	}
	if evs == nil {
		evs = []domain.Event{}
	}
	c.JSON(http.StatusOK, eventsResponse{Events: evs, NextSeq: next})
}

// VerifyEvents checks the hash chain of one page, linked to the event
// before it.
func (h *Handler) VerifyEvents(c *gin.Context) {
	after, limit, ok := h.page(c)
	if !ok {
		return
	}
	from := after
	if from > 0 {
		from--
	}
	evs, err := h.exec.Events(c.Request.Context(), from, limit+1)
	if err != nil {
		fail(c, err)
		return
	}
	if err := events.VerifyChain(evs); err != nil {
		c.JSON(http.StatusOK, gin.H{"valid": false, "error": err.Error(), "checked": len(evs)})
		return
	}
	c.JSON(http.StatusOK, gin.H{"valid": true, "checked": len(evs)})
}

func (h *Handler) page(c *gin.Context) (int64, int, bool) {
	after, err := strconv.ParseInt(c.DefaultQuery("after", "0"), 10, 64)
	if err != nil || after < 0 {
		badRequest(c, "invalid after")
		return 0, 0, false
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(h.cfg.EventsPageLimit)))
	if err != nil || limit <= 0 {
		badRequest(c, "invalid limit")
		return 0, 0, false
	}
	if limit > h.cfg.EventsPageLimit {
		limit = h.cfg.EventsPageLimit
	}
	return after, limit, true
}
