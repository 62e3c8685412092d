package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"stellarcade/internal/domain"
)

type staticSource []domain.Event

func (s staticSource) Events(_ context.Context, afterSeq int64, limit int) ([]domain.Event, error) {
	var out []domain.Event
	for _, e := range s {
		if e.Seq > afterSeq {
			out = append(out, e)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func ev(seq int64, contract domain.Address, kind domain.EventKind) domain.Event {
	return domain.Event{Seq: seq, Contract: contract, Kind: kind}
}

func startServer(t *testing.T, hub *Hub, source EventSource) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/ws", HandleWS(hub, source, ""))
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws" + query
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func read(t *testing.T, conn *websocket.Conn) Outbound {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var msg Outbound
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read: %v", err)
	}
	return msg
}

func readEvent(t *testing.T, conn *websocket.Conn) domain.Event {
	t.Helper()
	msg := read(t, conn)
	if msg.Type != MsgEvent || msg.Event == nil {
		t.Fatalf("expected event frame, got %+v", msg)
	}
	return *msg.Event
}

func waitClients(t *testing.T, hub *Hub, n int) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for hub.Count() != n {
		if time.Now().After(deadline) {
			t.Fatalf("hub has %d clients, want %d", hub.Count(), n)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestBacklogThenLive(t *testing.T) {
	hub := NewHub()
	defer hub.Close()
	source := staticSource{
		ev(1, "CDICE", "dice.bet_placed"),
		ev(2, "CCOINFLIP", "coinflip.bet_placed"),
		ev(3, "CDICE", "dice.bet_resolved"),
	}
	srv := startServer(t, hub, source)
	conn := dial(t, srv, "?after=0&contract=CDICE")

	if msg := read(t, conn); msg.Type != MsgReady {
		t.Fatalf("expected ready, got %+v", msg)
	}
	if e := readEvent(t, conn); e.Seq != 1 {
		t.Fatalf("first backlog seq = %d", e.Seq)
	}
	if e := readEvent(t, conn); e.Seq != 3 {
		t.Fatalf("second backlog seq = %d", e.Seq)
	}

	_ = hub.Publish(context.Background(), []domain.Event{
		ev(3, "CDICE", "dice.bet_resolved"),
		ev(4, "CCOINFLIP", "coinflip.bet_resolved"),
		ev(5, "CDICE", "dice.paid_out"),
	})
	if e := readEvent(t, conn); e.Seq != 5 {
		t.Fatalf("live seq = %d, want 5", e.Seq)
	}

	if err := conn.WriteJSON(Inbound{Type: MsgPing}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if msg := read(t, conn); msg.Type != MsgPong {
		t.Fatalf("expected pong, got %+v", msg)
	}
}

func TestSubscribeReplacesFilter(t *testing.T) {
	hub := NewHub()
	defer hub.Close()
	srv := startServer(t, hub, nil)
	conn := dial(t, srv, "")

	if msg := read(t, conn); msg.Type != MsgReady {
		t.Fatalf("expected ready, got %+v", msg)
	}
	waitClients(t, hub, 1)

	data, _ := json.Marshal(SubscribePayload{Kinds: []string{"room.player_joined"}})
	if err := conn.WriteJSON(Inbound{Type: MsgSubscribe, Data: data}); err != nil {
		t.Fatalf("write: %v", err)
	}
	// Frames are handled in order, so the pong means the filter is set.
	if err := conn.WriteJSON(Inbound{Type: MsgPing}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if msg := read(t, conn); msg.Type != MsgPong {
		t.Fatalf("expected pong, got %+v", msg)
	}

	_ = hub.Publish(context.Background(), []domain.Event{
		ev(10, "CROOMS", "room.room_created"),
		ev(11, "CROOMS", "room.player_joined"),
	})
	if e := readEvent(t, conn); e.Seq != 11 {
		t.Fatalf("filtered stream delivered seq %d", e.Seq)
	}

	if err := conn.WriteMessage(websocket.TextMessage, []byte("{")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if msg := read(t, conn); msg.Type != MsgError {
		t.Fatalf("expected error frame, got %+v", msg)
	}
}

func TestDisconnectUnregisters(t *testing.T) {
	hub := NewHub()
	defer hub.Close()
	srv := startServer(t, hub, nil)
	conn := dial(t, srv, "")
	read(t, conn)
	waitClients(t, hub, 1)

	_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	_ = conn.Close()
	waitClients(t, hub, 0)
}

func TestHandleWSRejectsBadAfter(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/ws", HandleWS(NewHub(), staticSource{}, ""))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ws?after=-3", nil))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestReplayHoldsAndDedupesLiveEvents(t *testing.T) {
	c := NewClient(nil, NewHub(), SubscribePayload{})
	c.replaying = true

	// Live events published while the backlog is being read.
	if !c.deliver(ev(5, "CDICE", "dice.bet_placed")) || !c.deliver(ev(6, "CDICE", "dice.bet_placed")) {
		t.Fatalf("deliver during replay failed")
	}
	if len(c.Send) != 0 {
		t.Fatalf("live events sent before replay")
	}
	if !c.replay([]domain.Event{ev(4, "CDICE", "x"), ev(5, "CDICE", "x")}) {
		t.Fatalf("replay failed")
	}

	var seqs []int64
	for len(c.Send) > 0 {
		var msg Outbound
		if err := json.Unmarshal(<-c.Send, &msg); err != nil {
			t.Fatalf("decode: %v", err)
		}
		seqs = append(seqs, msg.Event.Seq)
	}
	if len(seqs) != 3 || seqs[0] != 4 || seqs[1] != 5 || seqs[2] != 6 {
		t.Fatalf("sent seqs = %v", seqs)
	}

	// Later live events are sent directly.
	c.deliver(ev(7, "CDICE", "x"))
	if len(c.Send) != 1 {
		t.Fatalf("live event not sent after replay")
	}
}

func TestClosedHubRefusesClients(t *testing.T) {
	hub := NewHub()
	hub.Close()
	if hub.Register(NewClient(nil, hub, SubscribePayload{})) {
		t.Fatalf("closed hub accepted a client")
	}
}
