package http

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"stellarcade/internal/http/handlers"
	"stellarcade/internal/http/middleware"
	"stellarcade/internal/ws"
)

// RouteConfig carries the limits and collaborators the routes need.
type RouteConfig struct {
	APIRateLimit   int
	APIRateWindow  time.Duration
	PlayRateLimit  int
	PlayRateWindow time.Duration
	AllowedOrigin  string
}

// NewEngine builds the gin engine with the shared middleware stack.
func NewEngine(allowedOrigin string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(), middleware.Metrics())

	r.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin != "" && (allowedOrigin == "" || origin == allowedOrigin) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
			c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		}
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})
	return r
}

func RegisterRoutes(r *gin.Engine, h *handlers.Handler, health *handlers.HealthHandler, hub *ws.Hub, source ws.EventSource, cfg RouteConfig) {
	if cfg.APIRateLimit <= 0 {
		cfg.APIRateLimit = 120
	}
	if cfg.APIRateWindow <= 0 {
		cfg.APIRateWindow = time.Minute
	}
	if cfg.PlayRateLimit <= 0 {
		cfg.PlayRateLimit = 60
	}
	if cfg.PlayRateWindow <= 0 {
		cfg.PlayRateWindow = time.Minute
	}

	// Health checks (no rate limiting)
	r.GET("/healthz", health.Liveness)
	r.GET("/readyz", health.Readiness)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.GET("/ws", ws.HandleWS(hub, source, cfg.AllowedOrigin))

	v1 := r.Group("/api/v1")
	v1.Use(middleware.RedisRateLimit("api", cfg.APIRateLimit, cfg.APIRateWindow, middleware.ByIP))

	// Public reads
	v1.GET("/escrow/balances/:account", h.Balance)
	v1.GET("/oracle/requests/:caller/:id", h.RandomRequest)
	v1.GET("/oracle/requests/:caller/:id/verify", h.VerifyRandom)
	v1.GET("/coinflip/bets/:id", h.CoinFlipBet)
	v1.GET("/dice/bets/:id", h.DiceBet)
	v1.GET("/ai/games/:id", h.AIGame)
	v1.GET("/rooms/:id", h.Room)
	v1.GET("/rooms/:id/players", h.RoomPlayers)
	v1.GET("/router/routes/:id", h.Route)
	v1.GET("/router/requests/:id", h.RoutedRequest)
	v1.GET("/games", h.GameStatus)
	v1.GET("/events", h.Events)
	v1.GET("/events/verify", h.VerifyEvents)

	auth := v1.Group("")
	auth.Use(middleware.Caller())

	// Per-caller limit on wager and move placement
	playRL := middleware.RedisRateLimit("play", cfg.PlayRateLimit, cfg.PlayRateWindow, middleware.ByCaller)

	escrow := auth.Group("/escrow")
	{
		escrow.POST("/deposit", h.Deposit)
		escrow.POST("/withdraw", h.Withdraw)
		escrow.POST("/transfer", h.Transfer)
		escrow.POST("/sessions", h.RegisterSession)
	}

	oracle := auth.Group("/oracle")
	{
		oracle.POST("/callers", h.AuthorizeCaller)
		oracle.DELETE("/callers/:caller", h.RevokeCaller)
		oracle.POST("/requests/:caller/:id/commit", h.CommitSeed)
		oracle.POST("/requests/:caller/:id/fulfill", h.Fulfill)
	}

	auth.POST("/coinflip/bets", playRL, h.PlaceCoinFlip)
	auth.POST("/coinflip/bets/:id/resolve", h.ResolveCoinFlip)
	auth.POST("/dice/bets", playRL, h.PlaceDice)
	auth.POST("/dice/bets/:id/resolve", h.ResolveDice)

	ai := auth.Group("/ai/games")
	{
		ai.POST("", h.CreateAIGame)
		ai.POST("/:id/moves", playRL, h.SubmitMove)
		ai.POST("/:id/dispatch", h.DispatchReferee)
		ai.POST("/:id/resolve", h.ResolveAIGame)
		ai.POST("/:id/claim", h.ClaimReward)
		ai.POST("/:id/close", h.CloseAIGame)
	}

	rooms := auth.Group("/rooms")
	{
		rooms.POST("", h.CreateRoom)
		rooms.POST("/:id/join", playRL, h.JoinRoom)
		rooms.POST("/:id/start", h.StartMatch)
		rooms.POST("/:id/close", h.CloseRoom)
	}

	router := auth.Group("/router")
	{
		router.POST("/routes", h.RegisterRoute)
		router.POST("/requests", h.Dispatch)
		router.POST("/requests/:id/ack", h.Acknowledge)
	}

	auth.POST("/games/:kind/pause", h.Pause)
	auth.POST("/games/:kind/unpause", h.Unpause)
}
