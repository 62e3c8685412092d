package middleware

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	redis "github.com/redis/go-redis/v9"

	"stellarcade/internal/logger"
)

var (
	redisMu     sync.RWMutex
	redisClient *redis.Client
)

// InitRedisRateLimiter initializes a shared Redis client used by the middleware.
// If addr is empty or the ping fails the limiters fall back to process memory.
func InitRedisRateLimiter(addr, password string, db int) *redis.Client {
	if addr == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis unavailable, rate limits are per process", "addr", addr, "error", err)
		_ = client.Close()
		return nil
	}
	SetRedisClient(client)
	return client
}

// SetRedisClient shares an existing client with the limiters.
func SetRedisClient(client *redis.Client) {
	redisMu.Lock()
	redisClient = client
	redisMu.Unlock()
}

func currentRedis() *redis.Client {
	redisMu.RLock()
	defer redisMu.RUnlock()
	return redisClient
}

// RedisRateLimit implements a fixed-window rate limiter using Redis INCR/EXPIRE.
// key format: rl:<name>:<window_seconds>:<identifier>
func RedisRateLimit(name string, maxRequests int, window time.Duration, key KeyFunc) gin.HandlerFunc {
	fallback := memoryRateLimit(name, maxRequests, window, key)
	return func(c *gin.Context) {
		client := currentRedis()
		if client == nil {
			fallback(c)
			return
		}

		ident, ok := key(c)
		if !ok {
			c.Next()
			return
		}
		rk := "rl:" + name + ":" + strconv.FormatInt(int64(window.Seconds()), 10) + ":" + ident
		ctx := c.Request.Context()

		val, err := client.Incr(ctx, rk).Result()
		if err != nil {
			// fail open
			c.Header("X-RateLimit-Error", "redis-error")
			c.Next()
			return
		}
		if val == 1 {
			client.Expire(ctx, rk, window)
		}
		limit(c, name, maxRequests, val, window)
	}
}
