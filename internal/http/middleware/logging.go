package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"stellarcade/internal/logger"
)

const RequestIDHeader = "X-Request-ID"

// RequestLogger tags the request context with a request id and logs one
// line per request.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		reqID := c.GetHeader(RequestIDHeader)
		if reqID == "" {
			reqID = uuid.NewString()
		}
		c.Header(RequestIDHeader, reqID)
		c.Request = c.Request.WithContext(logger.ContextWith(c.Request.Context(), "request_id", reqID))

		c.Next()

		status := c.Writer.Status()
		args := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"duration_ms", time.Since(start).Milliseconds(),
		}
		if caller, ok := CallerFrom(c); ok {
			args = append(args, "caller", string(caller))
		}
		log := logger.WithContext(c.Request.Context())
		switch {
		case status >= 500:
			log.Error("request", args...)
		case status >= 400:
			log.Info("request", args...)
		default:
			log.Debug("request", args...)
		}
	}
}
