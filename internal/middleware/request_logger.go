package middleware

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/trustportal/trust-api/pkg/logger"
)

const (
	requestIDHeader = "X-Request-Id"
	requestIDKey    = "request_id"
)

var quietPaths = map[string]bool{
	"/api/v1/health": true,
	"/metrics":       true,
}

// RequestLogger tags each request with an ID (reusing a client-supplied
// X-Request-Id) and logs one line per request once the handler chain is done.
// 5xx are errors, 4xx warnings.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" || len(requestID) > 64 {
			requestID = uuid.NewString()
		}
		c.Set(requestIDKey, requestID)
		c.Header(requestIDHeader, requestID)

		c.Next()

		if quietPaths[c.Request.URL.Path] {
			return
		}

		status := c.Writer.Status()
		attrs := []any{
			slog.String("request_id", requestID),
			slog.String("method", c.Request.Method),
			slog.String("route", c.FullPath()),
			slog.String("path", c.Request.URL.RequestURI()),
			slog.Int("status", status),
			slog.Int("bytes", c.Writer.Size()),
			slog.Duration("latency", time.Since(start)),
			slog.String("ip", c.ClientIP()),
		}
		if actor, ok := c.Get(actorKey); ok {
			attrs = append(attrs, slog.Any("actor", actor))
		}
		if errs := c.Errors.ByType(gin.ErrorTypePrivate).String(); errs != "" {
			attrs = append(attrs, slog.String("error", errs))
		}

		ctx := c.Request.Context()
		switch {
		case status >= 500:
			logger.Log.ErrorContext(ctx, "Request failed", attrs...)
		case status >= 400:
			logger.Log.WarnContext(ctx, "Request rejected", attrs...)
		default:
			logger.Log.InfoContext(ctx, "Request served", attrs...)
		}
	}
}

// GetRequestID returns the ID assigned by RequestLogger, or "" outside it
func GetRequestID(c *gin.Context) string {
	return c.GetString(requestIDKey)
}
