package dsl

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"rowmap/internal/meta"
)

// Record — запись DSL-сущности: имя поля -> каноническое значение
// (int64, string, time.Time, float64).
type Record map[string]any

// Meta строит метаданные движка для DSL-сущности.
func (e *Entity) Meta() *meta.Entity[Record] {
	fields := make([]meta.Field[Record], 0, len(e.Fields))
	for _, f := range e.Fields {
		opts := []meta.Option{meta.ColumnName(f.Column())}
		if f.IsKey() {
			opts = append(opts, meta.Key())
		}
		name, typ := f.Name, f.Type
		fields = append(fields, meta.NewField(name, typ,
			func(r *Record) any { return zeroIfMissing(typ, (*r)[name]) },
			func(r *Record, v any) error {
				if *r == nil {
					*r = Record{}
				}
				(*r)[name] = v
				return nil
			},
			opts...))
	}
	return meta.Define(e.TableName(), fields...).WithFactory(func() Record { return Record{} })
}

func zeroIfMissing(t meta.Type, v any) any {
	if v != nil {
		return v
	}
	switch t {
	case meta.TypeInt:
		return int64(0)
	case meta.TypeDecimal:
		return float64(0)
	case meta.TypeDate:
		return time.Time{}
	default:
		return ""
	}
}

// Normalize приводит значения из JSON (float64, строки дат и т.п.) к каноническим.
// Поля, которых нет в сущности, — ошибка.
func (e *Entity) Normalize(in map[string]any) (Record, error) {
	byName := make(map[string]Field, len(e.Fields))
	for _, f := range e.Fields {
		byName[f.Name] = f
	}
	out := Record{}
	for k, v := range in {
		f, ok := byName[k]
		if !ok {
			return nil, fmt.Errorf("%s: unknown field %q", e.Name, k)
		}
		cv, err := Coerce(f.Type, v)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", e.Name, k, err)
		}
		out[k] = cv
	}
	return out, nil
}

// Coerce приводит одно значение к каноническому для типа t. nil остаётся nil.
func Coerce(t meta.Type, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	switch t {
	case meta.TypeInt:
		switch x := v.(type) {
		case int64:
			return x, nil
		case int:
			return int64(x), nil
		case float64:
			if x != math.Trunc(x) {
				return nil, fmt.Errorf("not an integer: %v", x)
			}
			return int64(x), nil
		case json.Number:
			return x.Int64()
		case string:
			return strconv.ParseInt(strings.TrimSpace(x), 10, 64)
		}
	case meta.TypeDecimal:
		switch x := v.(type) {
		case float64:
			return x, nil
		case int64:
			return float64(x), nil
		case int:
			return float64(x), nil
		case json.Number:
			return x.Float64()
		case string:
			return strconv.ParseFloat(strings.TrimSpace(x), 64)
		}
	case meta.TypeText, meta.TypeIdentifier:
		if s, ok := v.(string); ok {
			return s, nil
		}
	case meta.TypeDate:
		switch x := v.(type) {
		case time.Time:
			return x, nil
		case string:
			s := strings.TrimSpace(x)
			if len(s) > 10 {
				s = s[:10]
			}
			return time.Parse("2006-01-02", s)
		}
	default:
		return v, nil
	}
	return nil, fmt.Errorf("cannot use %T as %s", v, t)
}

// Flatten — запись для JSON-ответа: даты как YYYY-MM-DD.
func Flatten(r Record) map[string]any {
	out := make(map[string]any, len(r))
	for k, v := range r {
		if t, ok := v.(time.Time); ok {
			if t.IsZero() {
				out[k] = nil
			} else {
				out[k] = t.Format("2006-01-02")
			}
			continue
		}
		out[k] = v
	}
	return out
}
