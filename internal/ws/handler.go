package ws

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"stellarcade/internal/domain"
	"stellarcade/internal/logger"
)

// MaxBacklog bounds the replay sent on connect; it stays below the send
// buffer so a fresh client is never dropped for its own backlog.
const MaxBacklog = 200

// EventSource reads the committed event journal.
type EventSource interface {
	Events(ctx context.Context, afterSeq int64, limit int) ([]domain.Event, error)
}

// HandleWS upgrades to a websocket that streams committed events.
// Query: after=<seq> replays the journal from that point, contract=<addr>
// and kinds=<k1,k2> filter the stream.
func HandleWS(hub *Hub, source EventSource, allowedOrigin string) gin.HandlerFunc {
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			if allowedOrigin == "" {
				return true
			}
			return r.Header.Get("Origin") == allowedOrigin
		},
	}

	return func(c *gin.Context) {
		filter := SubscribePayload{Contract: domain.Address(c.Query("contract"))}
		if kinds := c.Query("kinds"); kinds != "" {
			filter.Kinds = strings.Split(kinds, ",")
		}

		var backlog Backlog
		if v := c.Query("after"); v != "" {
			after, err := strconv.ParseInt(v, 10, 64)
			if err != nil || after < 0 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid after"})
				return
			}
			if source != nil {
				backlog = func() ([]domain.Event, error) {
					ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					return source.Events(ctx, after, MaxBacklog)
				}
			}
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.Warn("ws upgrade failed", "error", err)
			return
		}

		client := NewClient(conn, hub, filter)
		go client.Run(backlog)
	}
}
