package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/oklog/ulid/v2"

	"rowmap/internal/logging"
	"rowmap/internal/meta"
	"rowmap/internal/orm"
)

// statusFor переводит ошибку движка в HTTP-статус.
func statusFor(err error) int {
	switch {
	case errors.Is(err, orm.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, orm.ErrMissingKey), errors.Is(err, orm.ErrMultipleKeys),
		errors.Is(err, orm.ErrKeyType), errors.Is(err, orm.ErrUnsupportedType):
		return http.StatusInternalServerError
	case errors.Is(err, orm.ErrExecution):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// abortWith отвечает ошибкой и пишет её в лог с request_id запроса.
func (s *Storage) abortWith(c *gin.Context, status int, err error) {
	_ = c.Error(err)
	log := logging.FromGin(c, s.log)
	if status >= http.StatusInternalServerError {
		log.ErrorContext(c.Request.Context(), "request failed", "status", status, "error", err)
	} else {
		log.WarnContext(c.Request.Context(), "request rejected", "status", status, "error", err)
	}
	body := gin.H{"error": err.Error()}
	var ee *orm.ExecutionError
	if errors.As(err, &ee) && ee.Code != "" {
		body["code"] = ee.Code
	}
	c.AbortWithStatusJSON(status, body)
}


// parseKey разбирает :id из пути по типу ключа. Значение проверяется строго,
// потому что потом оно попадает в фильтр как литерал.
func parseKey(c meta.Column, raw string) (any, error) {
	raw = strings.TrimSpace(raw)
	switch c.Type {
	case meta.TypeInt:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("invalid id %q", raw)
		}
		return n, nil
	case meta.TypeIdentifier:
		id, err := ulid.ParseStrict(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid id %q: %w", raw, err)
		}
		return id.String(), nil
	default:
		return nil, fmt.Errorf("key type %s cannot be addressed by path", c.Type)
	}
}

// keyFilter — фильтр "<key> = <literal>" для FindFirst по id.
func (s *Storage) keyFilter(c meta.Column, v any) string {
	col := s.engine.Dialect().Quote(c.Name)
	if str, ok := v.(string); ok {
		return col + " = '" + str + "'"
	}
	return fmt.Sprintf("%s = %v", col, v)
}
