package ws

import (
	"encoding/json"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"stellarcade/internal/domain"
	"stellarcade/internal/logger"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 30 * time.Second
	pingPeriod = 25 * time.Second

	sendBuffer = 256
	readLimit  = 4096
)

// Client is one websocket subscriber of the event stream.
type Client struct {
	ID   uuid.UUID
	Conn *websocket.Conn
	Send chan []byte
	Hub  *Hub
	Done chan struct{}

	mu         sync.Mutex
	filter     SubscribePayload
	replayedTo int64
	sendOpen   bool
	replaying  bool
	pending    []domain.Event
}

func NewClient(conn *websocket.Conn, hub *Hub, filter SubscribePayload) *Client {
	return &Client{
		ID:       uuid.New(),
		Conn:     conn,
		Send:     make(chan []byte, sendBuffer),
		Hub:      hub,
		Done:     make(chan struct{}),
		filter:   filter,
		sendOpen: true,
	}
}

// Backlog loads committed events the client missed before connecting.
type Backlog func() ([]domain.Event, error)

// Run starts the pumps, replays backlog and blocks until the peer leaves.
// Live events that arrive during replay are held and flushed after it, and
// those the replay already covered are not sent twice.
func (c *Client) Run(backlog Backlog) {
	go c.writePump()
	c.queue(Outbound{Type: MsgReady})

	c.mu.Lock()
	c.replaying = backlog != nil
	c.mu.Unlock()

	if !c.Hub.Register(c) {
		c.closeSend()
		return
	}
	if backlog != nil {
		evs, err := backlog()
		if err != nil {
			logger.Warn("ws backlog failed", "client", c.ID, "error", err)
			c.queue(Outbound{Type: MsgError, Message: "backlog unavailable"})
		}
		if !c.replay(evs) {
			c.Hub.Unregister(c)
		}
	}

	c.readPump()
	<-c.Done
}

func (c *Client) replay(evs []domain.Event) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.replaying = false
	for _, e := range evs {
		if !c.push(e) {
			return false
		}
		c.replayedTo = max(c.replayedTo, e.Seq)
	}
	for _, e := range c.pending {
		if !c.push(e) {
			return false
		}
	}
	c.pending = nil
	return true
}

func (c *Client) matches(e domain.Event) bool {
	if !c.filter.Contract.IsZero() && e.Contract != c.filter.Contract {
		return false
	}
	if len(c.filter.Kinds) > 0 && !slices.Contains(c.filter.Kinds, string(e.Kind)) {
		return false
	}
	return true
}

// deliver queues e unless it is filtered out or already sent. It reports
// false only when the client cannot keep up.
func (c *Client) deliver(e domain.Event) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.replaying {
		if len(c.pending) >= sendBuffer {
			return false
		}
		c.pending = append(c.pending, e)
		return true
	}
	return c.push(e)
}

// push requires c.mu. Events already covered by the replay are skipped.
func (c *Client) push(e domain.Event) bool {
	if !c.sendOpen || e.Seq <= c.replayedTo || !c.matches(e) {
		return true
	}
	ev := e
	select {
	case c.Send <- encode(Outbound{Type: MsgEvent, Event: &ev}):
		return true
	default:
		return false
	}
}

func (c *Client) queue(msg Outbound) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.sendOpen {
		return
	}
	select {
	case c.Send <- encode(msg):
	default:
	}
}

func (c *Client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sendOpen {
		c.sendOpen = false
		close(c.Send)
	}
}

func (c *Client) handle(raw []byte) {
	var in Inbound
	if err := json.Unmarshal(raw, &in); err != nil {
		c.queue(Outbound{Type: MsgError, Message: "malformed message"})
		return
	}
	switch in.Type {
	case MsgPing:
		c.queue(Outbound{Type: MsgPong})
	case MsgSubscribe:
		var sub SubscribePayload
		if len(in.Data) > 0 {
			if err := json.Unmarshal(in.Data, &sub); err != nil {
				c.queue(Outbound{Type: MsgError, Message: "malformed subscribe"})
				return
			}
		}
		c.mu.Lock()
		c.filter = sub
		c.mu.Unlock()
	default:
		c.queue(Outbound{Type: MsgError, Message: "unknown message type"})
	}
}

func (c *Client) readPump() {
	defer func() {
		c.Hub.Unregister(c)
		_ = c.Conn.Close()
		close(c.Done)
	}()

	c.Conn.SetReadLimit(readLimit)
	_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, msg, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Debug("ws read error", "client", c.ID, "error", err)
			}
			return
		}
		c.handle(msg)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.Conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.Send:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				logger.Debug("ws write error", "client", c.ID, "error", err)
				return
			}
		case <-ticker.C:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
