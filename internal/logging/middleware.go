package logging

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/oklog/ulid/v2"
)

const requestIDKey = "request_id"

// Gin — middleware: request id (X-Request-ID или новый ULID) + строка лога на запрос.
func Gin(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = ulid.Make().String()
		}
		c.Set(requestIDKey, id)
		c.Header("X-Request-ID", id)

		c.Next()

		attrs := []any{
			"request_id", id,
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status_code", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
		}
		if len(c.Errors) > 0 {
			attrs = append(attrs, "error", c.Errors.String())
		}
		log.Info("http_request", attrs...)
	}
}

// FromGin возвращает логгер с request_id текущего запроса.
func FromGin(c *gin.Context, log *slog.Logger) *slog.Logger {
	if id := c.GetString(requestIDKey); id != "" {
		return log.With(requestIDKey, id)
	}
	return log
}
