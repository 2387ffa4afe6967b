package server

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/joseph-ayodele/syllabus-sync/internal/common"
)

const (
	requestIDHeader = "X-Request-ID"
	requestIDMaxLen = 64
)

// RequestID takes X-Request-ID from the client (or generates one) and puts it,
// with a request-scoped slog logger, on the request context.
func RequestID(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader(requestIDHeader)
		if rid == "" || len(rid) > requestIDMaxLen {
			rid = uuid.New().String()
		}
		c.Header(requestIDHeader, rid)

		ctx := common.WithRequestID(c.Request.Context(), rid)
		ctx = common.WithLogger(ctx, logger.With("request_id", rid))
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// AccessLog writes one zap line per request.
func AccessLog(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		status := c.Writer.Status()
		fields := []zap.Field{
			zap.Int("status", status),
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", query),
			zap.String("ip", c.ClientIP()),
			zap.String("request_id", common.RequestIDFromContext(c.Request.Context())),
			zap.Duration("latency", time.Since(start)),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.ByType(gin.ErrorTypePrivate).String()))
		}

		switch {
		case status >= 500:
			logger.Error("http.request.failed", fields...)
		case status >= 400:
			logger.Warn("http.request.client_error", fields...)
		default:
			logger.Info("http.request", fields...)
		}
	}
}

func CORS(allowOrigins []string) gin.HandlerFunc {
	origins := make(map[string]bool, len(allowOrigins))
	for _, o := range allowOrigins {
		origins[strings.TrimRight(o, "/")] = true
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" && (origins[origin] || origins["*"]) {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Access-Control-Allow-Credentials", "true")
			c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")
			c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			c.Header("Access-Control-Max-Age", "86400")
		}
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
