package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// KeyFunc picks the identity a limiter counts against. ok=false skips
// limiting for the request.
type KeyFunc func(c *gin.Context) (key string, ok bool)

func ByIP(c *gin.Context) (string, bool) {
	return c.ClientIP(), true
}

// ByCaller counts per authenticated caller. Caller must run first.
func ByCaller(c *gin.Context) (string, bool) {
	caller, ok := CallerFrom(c)
	return string(caller), ok
}

type clientInfo struct {
	last  time.Time
	count int
}

// windowCounter is a fixed-window counter kept in process memory.
type windowCounter struct {
	mu      sync.Mutex
	window  time.Duration
	clients map[string]*clientInfo
	now     func() time.Time
}

func newWindowCounter(window time.Duration) *windowCounter {
	return &windowCounter{window: window, clients: make(map[string]*clientInfo), now: time.Now}
}

// incr returns the count for key in the current window.
func (w *windowCounter) incr(key string) int {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.now()
	ci, ok := w.clients[key]
	if !ok || now.Sub(ci.last) > w.window {
		w.clients[key] = &clientInfo{last: now, count: 1}
		w.sweep(now)
		return 1
	}
	ci.count++
	return ci.count
}

// sweep drops expired windows; caller holds mu.
func (w *windowCounter) sweep(now time.Time) {
	if len(w.clients) < 1024 {
		return
	}
	for k, ci := range w.clients {
		if now.Sub(ci.last) > w.window {
			delete(w.clients, k)
		}
	}
}

// memoryRateLimit blocks keys that send more than maxRequests per window.
// RedisRateLimit falls back to it when no redis client is configured.
func memoryRateLimit(name string, maxRequests int, window time.Duration, key KeyFunc) gin.HandlerFunc {
	counter := newWindowCounter(window)
	return func(c *gin.Context) {
		ident, ok := key(c)
		if !ok {
			c.Next()
			return
		}
		limit(c, name, maxRequests, int64(counter.incr(ident)), window)
	}
}

// limit applies the verdict for a request that is the count-th in its window.
func limit(c *gin.Context, name string, maxRequests int, count int64, window time.Duration) {
	endpoint := name + ":" + c.FullPath()
	c.Header("X-RateLimit-Limit", strconv.Itoa(maxRequests))
	c.Header("X-RateLimit-Remaining", strconv.FormatInt(max(0, int64(maxRequests)-count), 10))

	if count > int64(maxRequests) {
		RLBlocked.WithLabelValues(endpoint).Inc()
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"error":       "rate limit exceeded",
			"retry_after": int(window.Seconds()),
		})
		return
	}
	RLRequests.WithLabelValues(endpoint).Inc()
	c.Next()
}
