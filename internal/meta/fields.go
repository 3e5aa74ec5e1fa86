package meta

import (
	"fmt"
	"time"
)

// Field — поле сущности вместе с аксессорами.
// Get возвращает каноническое значение: int64, string, time.Time или float64.
type Field[T any] struct {
	Column
	get func(*T) any
	set func(*T, any) error
}

func (f Field[T]) Get(rec *T) any { return f.get(rec) }

// Set принимает каноническое значение (или nil — тогда нулевое).
func (f Field[T]) Set(rec *T, v any) error { return f.set(rec, v) }

// Option настраивает колонку при объявлении поля.
type Option func(*Column)

// Key помечает поле как ключ.
func Key() Option { return func(c *Column) { c.Key = true } }

// ColumnName переопределяет имя колонки (по умолчанию = имя поля).
func ColumnName(name string) Option { return func(c *Column) { c.Name = name } }

func newColumn(field string, typ Type, opts []Option) Column {
	c := Column{Field: field, Name: field, Type: typ}
	for _, o := range opts {
		o(&c)
	}
	if c.Name == "" {
		c.Name = field
	}
	return c
}

// NewField собирает поле с произвольными аксессорами (динамические записи).
func NewField[T any](field string, typ Type, get func(*T) any, set func(*T, any) error, opts ...Option) Field[T] {
	return Field[T]{Column: newColumn(field, typ, opts), get: get, set: set}
}

func Int[T any, V ~int | ~int32 | ~int64](field string, acc func(*T) *V, opts ...Option) Field[T] {
	return NewField(field, TypeInt,
		func(rec *T) any { return int64(*acc(rec)) },
		func(rec *T, v any) error {
			switch x := v.(type) {
			case nil:
				*acc(rec) = 0
			case int64:
				*acc(rec) = V(x)
			default:
				return fmt.Errorf("field %s: want int64, got %T", field, v)
			}
			return nil
		}, opts...)
}

func Text[T any, V ~string](field string, acc func(*T) *V, opts ...Option) Field[T] {
	return NewField(field, TypeText, stringGetter(acc), stringSetter(field, acc), opts...)
}

// Identifier — строковый ULID; пустая строка = ещё не сохранён.
func Identifier[T any, V ~string](field string, acc func(*T) *V, opts ...Option) Field[T] {
	return NewField(field, TypeIdentifier, stringGetter(acc), stringSetter(field, acc), opts...)
}

func Decimal[T any, V ~float32 | ~float64](field string, acc func(*T) *V, opts ...Option) Field[T] {
	return NewField(field, TypeDecimal,
		func(rec *T) any { return float64(*acc(rec)) },
		func(rec *T, v any) error {
			switch x := v.(type) {
			case nil:
				*acc(rec) = 0
			case float64:
				*acc(rec) = V(x)
			default:
				return fmt.Errorf("field %s: want float64, got %T", field, v)
			}
			return nil
		}, opts...)
}

func Date[T any](field string, acc func(*T) *time.Time, opts ...Option) Field[T] {
	return NewField(field, TypeDate,
		func(rec *T) any { return *acc(rec) },
		func(rec *T, v any) error {
			switch x := v.(type) {
			case nil:
				*acc(rec) = time.Time{}
			case time.Time:
				*acc(rec) = x
			default:
				return fmt.Errorf("field %s: want time.Time, got %T", field, v)
			}
			return nil
		}, opts...)
}

func stringGetter[T any, V ~string](acc func(*T) *V) func(*T) any {
	return func(rec *T) any { return string(*acc(rec)) }
}

func stringSetter[T any, V ~string](field string, acc func(*T) *V) func(*T, any) error {
	return func(rec *T, v any) error {
		switch x := v.(type) {
		case nil:
			*acc(rec) = ""
		case string:
			*acc(rec) = V(x)
		default:
			return fmt.Errorf("field %s: want string, got %T", field, v)
		}
		return nil
	}
}
