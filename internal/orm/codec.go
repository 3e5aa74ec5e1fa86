package orm

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"rowmap/internal/meta"
)

const dateLayout = "2006-01-02"

// encodeValue: каноническое значение поля -> аргумент statement'а.
// Дата уходит строкой YYYY-MM-DD, нулевая дата — NULL.
func encodeValue(c meta.Column, v any) (any, error) {
	switch c.Type {
	case meta.TypeInt, meta.TypeDecimal, meta.TypeText, meta.TypeIdentifier:
		return v, nil
	case meta.TypeDate:
		t, ok := v.(time.Time)
		if !ok {
			return nil, fmt.Errorf("%s: want time.Time, got %T", c.Field, v)
		}
		if t.IsZero() {
			return nil, nil
		}
		return t.Format(dateLayout), nil
	default:
		return nil, &UnsupportedTypeError{Field: c.Field, Type: c.Type}
	}
}

// decodeValue: значение из драйвера -> каноническое значение поля.
// Драйверы отдают разное (int64, float64, []byte, string, time.Time), NULL -> nil.
func decodeValue(c meta.Column, raw any) (any, error) {
	if raw == nil {
		return nil, nil
	}
	if b, ok := raw.([]byte); ok {
		raw = string(b)
	}

	switch c.Type {
	case meta.TypeInt:
		return decodeInt(raw)
	case meta.TypeText, meta.TypeIdentifier:
		switch x := raw.(type) {
		case string:
			return x, nil
		case int64:
			return strconv.FormatInt(x, 10), nil
		}
	case meta.TypeDate:
		return decodeDate(raw)
	case meta.TypeDecimal:
		switch x := raw.(type) {
		case float64:
			return x, nil
		case float32:
			return float64(x), nil
		case int64:
			return float64(x), nil
		case string:
			return strconv.ParseFloat(strings.TrimSpace(x), 64)
		}
	default:
		return nil, &UnsupportedTypeError{Field: c.Field, Type: c.Type}
	}
	return nil, fmt.Errorf("%s: cannot decode %T as %s", c.Field, raw, c.Type)
}

func decodeInt(raw any) (any, error) {
	switch x := raw.(type) {
	case int64:
		return x, nil
	case int32:
		return int64(x), nil
	case int:
		return int64(x), nil
	case float64:
		if x != math.Trunc(x) {
			return nil, fmt.Errorf("non-integral value %v", x)
		}
		return int64(x), nil
	case string:
		return strconv.ParseInt(strings.TrimSpace(x), 10, 64)
	}
	return nil, fmt.Errorf("cannot decode %T as int", raw)
}

// decodeDate отбрасывает время: колонка DATE хранит только день.
func decodeDate(raw any) (any, error) {
	switch x := raw.(type) {
	case time.Time:
		y, m, d := x.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
	case string:
		s := strings.TrimSpace(x)
		if len(s) > len(dateLayout) {
			s = s[:len(dateLayout)]
		}
		return time.Parse(dateLayout, s)
	}
	return nil, fmt.Errorf("cannot decode %T as date", raw)
}
