package middleware

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/pepsafe/pepsafe-backend-go/internal/logging"
)

// RequestIDHeader carries the request ID in both directions.
const RequestIDHeader = "X-Request-ID"

// Logger middleware assigns a request ID, stores a request-scoped logger in the
// request context and logs each request. Query strings and client addresses
// are never logged.
func Logger(base *slog.Logger) gin.HandlerFunc {
	if base == nil {
		base = slog.Default()
	}

	return func(c *gin.Context) {
		start := time.Now()

		reqID := c.GetHeader(RequestIDHeader)
		if reqID == "" || len(reqID) > 64 {
			reqID = uuid.NewString()
		}
		c.Header(RequestIDHeader, reqID)

		logger := base.With("request_id", reqID)
		ctx := logging.WithRequestID(c.Request.Context(), reqID)
		ctx = logging.WithLogger(ctx, logger)
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}

		status := c.Writer.Status()
		level := slog.LevelInfo
		if status >= 500 {
			level = slog.LevelError
		}

		logger.Log(ctx, level, "http request",
			"method", c.Request.Method,
			"route", route,
			"status", status,
			"latency", time.Since(start),
		)
	}
}
