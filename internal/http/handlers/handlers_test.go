package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"stellarcade/internal/app"
	"stellarcade/internal/config"
	"stellarcade/internal/domain"
	apphttp "stellarcade/internal/http"
	"stellarcade/internal/http/handlers"
	"stellarcade/internal/repository"
	"stellarcade/internal/service"
	"stellarcade/internal/ws"
)

const (
	admin  domain.Address = "GADMIN"
	oracle domain.Address = "GORACLE"
	house  domain.Address = "GHOUSE"
	alice  domain.Address = "GALICE"
)

type api struct {
	t      *testing.T
	engine *gin.Engine
	tokens map[domain.Address]string
}

func testConfig() *config.Config {
	return &config.Config{
		Admin:          admin,
		Oracle:         oracle,
		HouseEdgeBps:   250,
		MinWager:       10,
		MaxWager:       1000,
		DiceMultiplier: 6,
		Contracts: config.Contracts{
			Escrow:   "CESCROW",
			Fairness: "CFAIRNESS",
			CoinFlip: "CCOINFLIP",
			Dice:     "CDICE",
			AIGame:   "CAIGAME",
			Rooms:    "CROOMS",
			Router:   "CROUTER",
		},
	}
}

func newAPI(t *testing.T) *api {
	t.Helper()
	gin.SetMode(gin.TestMode)
	if err := service.InitJWT("handlers-secret"); err != nil {
		t.Fatalf("init jwt: %v", err)
	}

	cfg := testConfig()
	exec := service.NewExecutor(repository.NewMemoryStore(), nil)
	contracts := app.NewContracts(cfg)
	if err := app.Bootstrap(context.Background(), exec, cfg, contracts); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	h, err := handlers.NewHandler(exec, contracts, handlers.HandlerConfig{EventsPageLimit: 50})
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	health := handlers.NewHealthHandler("test", map[string]handlers.Pinger{
		"store": handlers.PingFunc(func(context.Context) error { return nil }),
	})

	engine := apphttp.NewEngine("")
	apphttp.RegisterRoutes(engine, h, health, ws.NewHub(), exec, apphttp.RouteConfig{
		APIRateLimit:  10000,
		PlayRateLimit: 10000,
	})

	a := &api{t: t, engine: engine, tokens: map[domain.Address]string{}}
	for _, who := range []domain.Address{admin, oracle, house, alice} {
		tok, err := service.IssueCallerToken(who, time.Hour)
		if err != nil {
			t.Fatalf("issue token: %v", err)
		}
		a.tokens[who] = tok
	}
	return a
}

// call sends a request as who (anonymous when empty) and decodes the body.
func (a *api) call(method, path string, who domain.Address, body any) (int, map[string]any) {
	a.t.Helper()
	var rd *bytes.Reader
	switch b := body.(type) {
	case nil:
		rd = bytes.NewReader(nil)
	case string:
		rd = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			a.t.Fatalf("marshal: %v", err)
		}
		rd = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	if who != "" {
		req.Header.Set("Authorization", "Bearer "+a.tokens[who])
	}
	w := httptest.NewRecorder()
	a.engine.ServeHTTP(w, req)

	out := map[string]any{}
	if w.Body.Len() > 0 && w.Body.Bytes()[0] == '{' {
		if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
			a.t.Fatalf("decode %s %s: %v (%s)", method, path, err, w.Body.String())
		}
	}
	return w.Code, out
}

func (a *api) must(method, path string, who domain.Address, body any, want int) map[string]any {
	a.t.Helper()
	code, out := a.call(method, path, who, body)
	if code != want {
		a.t.Fatalf("%s %s: status %d, want %d: %v", method, path, code, want, out)
	}
	return out
}

func (a *api) balance(account domain.Address) float64 {
	a.t.Helper()
	out := a.must(http.MethodGet, "/api/v1/escrow/balances/"+string(account), "", nil, http.StatusOK)
	return out["balance"].(float64)
}

func seedHex(t *testing.T, requestID, bound, want uint64) string {
	t.Helper()
	var s domain.Hash32
	for i := 0; i < 1<<16; i++ {
		s[0], s[1] = byte(i), byte(i>>8)
		if service.DeriveResult(s, requestID, bound) == want {
			return s.String()
		}
	}
	t.Fatalf("no seed found")
	return ""
}

func TestCoinFlipOverHTTP(t *testing.T) {
	a := newAPI(t)

	a.must(http.MethodPost, "/api/v1/escrow/deposit", house, map[string]any{"amount": 10000}, http.StatusOK)
	a.must(http.MethodPost, "/api/v1/escrow/transfer", house, map[string]any{"to": "CCOINFLIP", "amount": 1000}, http.StatusOK)
	out := a.must(http.MethodPost, "/api/v1/escrow/deposit", alice, map[string]any{"amount": 500}, http.StatusOK)
	if out["balance"].(float64) != 500 {
		t.Fatalf("deposit response: %v", out)
	}

	out = a.must(http.MethodPost, "/api/v1/coinflip/bets", alice, map[string]any{"game_id": 1, "side": "heads", "wager": 100}, http.StatusCreated)
	if out["state"] != "in_progress" {
		t.Fatalf("bet response: %v", out)
	}
	if got := a.balance(alice); got != 400 {
		t.Fatalf("balance after bet = %v", got)
	}

	code, out := a.call(http.MethodPost, "/api/v1/coinflip/bets/1/resolve", alice, nil)
	if code != http.StatusConflict || out["code"] != "RANDOM_NOT_FULFILLED" {
		t.Fatalf("early resolve: %d %v", code, out)
	}

	a.must(http.MethodPost, "/api/v1/oracle/requests/CCOINFLIP/1/fulfill", oracle, map[string]any{"seed": seedHex(t, 1, 2, 0)}, http.StatusOK)
	out = a.must(http.MethodPost, "/api/v1/coinflip/bets/1/resolve", alice, nil, http.StatusOK)
	if out["payout"].(float64) != 198 || out["winner"] != string(alice) {
		t.Fatalf("resolve response: %v", out)
	}
	if got := a.balance(alice); got != 598 {
		t.Fatalf("balance after win = %v", got)
	}

	code, out = a.call(http.MethodPost, "/api/v1/coinflip/bets/1/resolve", alice, nil)
	if code != http.StatusConflict || out["code"] != "ALREADY_RESOLVED" || out["idempotent"] != true {
		t.Fatalf("second resolve: %d %v", code, out)
	}

	out = a.must(http.MethodGet, "/api/v1/oracle/requests/CCOINFLIP/1/verify", "", nil, http.StatusOK)
	if out["valid"] != true {
		t.Fatalf("verify: %v", out)
	}
	out = a.must(http.MethodGet, "/api/v1/events/verify?limit=50", "", nil, http.StatusOK)
	if out["valid"] != true {
		t.Fatalf("events verify: %v", out)
	}
	out = a.must(http.MethodGet, "/api/v1/events?after=2&limit=3", "", nil, http.StatusOK)
	if evs := out["events"].([]any); len(evs) != 3 || out["next_seq"].(float64) != 5 {
		t.Fatalf("events page: %v", out)
	}
}

func TestErrorMapping(t *testing.T) {
	a := newAPI(t)

	cases := []struct {
		name   string
		method string
		path   string
		who    domain.Address
		body   any
		want   int
	}{
		{"no token", http.MethodPost, "/api/v1/escrow/deposit", "", map[string]any{"amount": 1}, http.StatusUnauthorized},
		{"bad json", http.MethodPost, "/api/v1/escrow/deposit", alice, "{", http.StatusBadRequest},
		{"zero amount", http.MethodPost, "/api/v1/escrow/deposit", alice, map[string]any{"amount": 0}, http.StatusUnprocessableEntity},
		{"overdraw", http.MethodPost, "/api/v1/escrow/withdraw", alice, map[string]any{"amount": 5}, http.StatusUnprocessableEntity},
		{"pause by player", http.MethodPost, "/api/v1/games/coinflip/pause", alice, nil, http.StatusForbidden},
		{"unknown kind", http.MethodPost, "/api/v1/games/poker/pause", admin, nil, http.StatusNotFound},
		{"unknown bet", http.MethodGet, "/api/v1/coinflip/bets/77", "", nil, http.StatusNotFound},
		{"bad id", http.MethodGet, "/api/v1/dice/bets/abc", "", nil, http.StatusBadRequest},
		{"bad side", http.MethodPost, "/api/v1/coinflip/bets", alice, map[string]any{"game_id": 1, "side": "edge", "wager": 10}, http.StatusUnprocessableEntity},
		{"bad seed", http.MethodPost, "/api/v1/oracle/requests/CCOINFLIP/1/fulfill", oracle, map[string]any{"seed": "zz"}, http.StatusBadRequest},
	}
	for _, tc := range cases {
		if code, out := a.call(tc.method, tc.path, tc.who, tc.body); code != tc.want {
			t.Fatalf("%s: status %d, want %d: %v", tc.name, code, tc.want, out)
		}
	}
}

func TestPauseOverHTTP(t *testing.T) {
	a := newAPI(t)
	a.must(http.MethodPost, "/api/v1/escrow/deposit", alice, map[string]any{"amount": 500}, http.StatusOK)
	a.must(http.MethodPost, "/api/v1/games/dice/pause", admin, nil, http.StatusOK)

	code, out := a.call(http.MethodPost, "/api/v1/dice/bets", alice, map[string]any{"game_id": 1, "face": 3, "wager": 10})
	if code != http.StatusServiceUnavailable || out["code"] != "CONTRACT_PAUSED" {
		t.Fatalf("bet on paused dice: %d %v", code, out)
	}

	w := httptest.NewRecorder()
	a.engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/games", nil))
	var games []map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &games); err != nil {
		t.Fatalf("decode games: %v", err)
	}
	paused := map[string]bool{}
	for _, g := range games {
		paused[g["kind"].(string)] = g["paused"].(bool)
	}
	if len(games) != 4 || !paused["dice"] || paused["coinflip"] {
		t.Fatalf("game status: %v", games)
	}

	a.must(http.MethodPost, "/api/v1/games/dice/unpause", admin, nil, http.StatusOK)
	a.must(http.MethodPost, "/api/v1/dice/bets", alice, map[string]any{"game_id": 1, "face": 3, "wager": 10}, http.StatusCreated)
}

func TestRoomsOverHTTP(t *testing.T) {
	a := newAPI(t)
	cfgHash := domain.Hash32{9}.String()

	a.must(http.MethodPost, "/api/v1/rooms", admin, map[string]any{"room_id": 1, "config_hash": cfgHash}, http.StatusCreated)
	a.must(http.MethodPost, "/api/v1/rooms/1/join", alice, nil, http.StatusOK)
	code, out := a.call(http.MethodPost, "/api/v1/rooms/1/join", alice, nil)
	if code != http.StatusConflict || out["code"] != "DUPLICATE_PLAYER" {
		t.Fatalf("second join: %d %v", code, out)
	}
	a.must(http.MethodPost, "/api/v1/rooms/1/join", house, nil, http.StatusOK)

	out = a.must(http.MethodGet, "/api/v1/rooms/1", "", nil, http.StatusOK)
	if out["player_count"].(float64) != 2 {
		t.Fatalf("room: %v", out)
	}
	out = a.must(http.MethodPost, "/api/v1/rooms/1/start", admin, nil, http.StatusOK)
	if out["state"] != "in_progress" {
		t.Fatalf("start: %v", out)
	}
}

func TestAIGameOverHTTP(t *testing.T) {
	a := newAPI(t)
	a.must(http.MethodPost, "/api/v1/escrow/deposit", house, map[string]any{"amount": 1000}, http.StatusOK)
	a.must(http.MethodPost, "/api/v1/escrow/transfer", house, map[string]any{"to": "CAIGAME", "amount": 500}, http.StatusOK)

	a.must(http.MethodPost, "/api/v1/ai/games", admin, map[string]any{"game_id": 1}, http.StatusCreated)
	a.must(http.MethodPost, "/api/v1/ai/games/1/moves", alice, map[string]any{"payload": "e4"}, http.StatusOK)
	out := a.must(http.MethodPost, "/api/v1/ai/games/1/dispatch", admin, map[string]any{"request_id": "ai-1"}, http.StatusOK)
	if out["payload"] != "1:e4" {
		t.Fatalf("dispatch: %v", out)
	}
	a.must(http.MethodPost, "/api/v1/router/requests/ai-1/ack", oracle, map[string]any{"result": "alice"}, http.StatusOK)
	a.must(http.MethodPost, "/api/v1/ai/games/1/resolve", oracle, map[string]any{"result": "alice", "winner": alice, "reward": 300}, http.StatusOK)
	a.must(http.MethodPost, "/api/v1/ai/games/1/claim", alice, nil, http.StatusOK)
	if got := a.balance(alice); got != 300 {
		t.Fatalf("alice balance = %v", got)
	}
	code, out := a.call(http.MethodPost, "/api/v1/ai/games/1/claim", alice, nil)
	if code != http.StatusConflict || out["idempotent"] != true {
		t.Fatalf("second claim: %d %v", code, out)
	}
}

func TestHealth(t *testing.T) {
	a := newAPI(t)
	a.must(http.MethodGet, "/healthz", "", nil, http.StatusOK)
	out := a.must(http.MethodGet, "/readyz", "", nil, http.StatusOK)
	if out["status"] != "healthy" {
		t.Fatalf("readyz: %v", out)
	}
}

func TestSameGameIDAcrossGamesOverHTTP(t *testing.T) {
	a := newAPI(t)
	a.must(http.MethodPost, "/api/v1/escrow/deposit", house, map[string]any{"amount": 10000}, http.StatusOK)
	a.must(http.MethodPost, "/api/v1/escrow/transfer", house, map[string]any{"to": "CCOINFLIP", "amount": 1000}, http.StatusOK)
	a.must(http.MethodPost, "/api/v1/escrow/transfer", house, map[string]any{"to": "CDICE", "amount": 1000}, http.StatusOK)
	a.must(http.MethodPost, "/api/v1/escrow/deposit", alice, map[string]any{"amount": 500}, http.StatusOK)

	a.must(http.MethodPost, "/api/v1/coinflip/bets", alice, map[string]any{"wager": 100}, http.StatusBadRequest)

	// Id 0 is a valid game id, and each game has its own id space.
	a.must(http.MethodPost, "/api/v1/dice/bets", alice, map[string]any{"game_id": 0, "face": 3, "wager": 100}, http.StatusCreated)
	a.must(http.MethodPost, "/api/v1/coinflip/bets", alice, map[string]any{"game_id": 0, "side": "heads", "wager": 100}, http.StatusCreated)

	a.must(http.MethodPost, "/api/v1/oracle/requests/CDICE/0/fulfill", oracle, map[string]any{"seed": seedHex(t, 0, 6, 2)}, http.StatusOK)
	a.must(http.MethodPost, "/api/v1/oracle/requests/CCOINFLIP/0/fulfill", oracle, map[string]any{"seed": seedHex(t, 0, 2, 0)}, http.StatusOK)

	out := a.must(http.MethodPost, "/api/v1/dice/bets/0/resolve", alice, nil, http.StatusOK)
	if out["payout"].(float64) != 588 {
		t.Fatalf("dice resolve: %v", out)
	}
	out = a.must(http.MethodPost, "/api/v1/coinflip/bets/0/resolve", alice, nil, http.StatusOK)
	if out["payout"].(float64) != 198 {
		t.Fatalf("coinflip resolve: %v", out)
	}
	if got := a.balance(alice); got != 500-200+588+198 {
		t.Fatalf("balance = %v", got)
	}

	a.must(http.MethodGet, "/api/v1/oracle/requests/CNOBODY/0", "", nil, http.StatusNotFound)
}
