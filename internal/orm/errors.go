package orm

import (
	"errors"
	"fmt"

	"rowmap/internal/meta"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrUnsupportedType = errors.New("unsupported type")
	ErrExecution       = errors.New("statement execution failed")

	ErrMissingKey   = meta.ErrMissingKey
	ErrMultipleKeys = meta.ErrMultipleKeys
	ErrKeyType      = meta.ErrKeyType
)

// ConfigurationError — сущность объявлена неправильно (нет ключа, два ключа).
type ConfigurationError struct {
	Entity string
	Err    error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s: %v", e.Entity, e.Err)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// UnsupportedTypeError — для семантического типа нет колонки/кодека.
type UnsupportedTypeError struct {
	Entity string
	Field  string
	Type   meta.Type
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("%s.%s: unsupported type %q", e.Entity, e.Field, e.Type)
}

func (e *UnsupportedTypeError) Unwrap() error { return ErrUnsupportedType }

// NotFoundError — запрос одной строки не вернул ничего.
type NotFoundError struct {
	Entity string
	Filter string
}

func (e *NotFoundError) Error() string {
	if e.Filter != "" {
		return fmt.Sprintf("%s not found: %s", e.Entity, e.Filter)
	}
	return fmt.Sprintf("%s not found", e.Entity)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// ExecutionError — ошибка драйвера при выполнении statement'а.
// Code — код ошибки драйвера (для postgres это SQLSTATE), если он есть.
type ExecutionError struct {
	Op     string
	Entity string
	SQL    string
	Code   string
	Err    error
}

func (e *ExecutionError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s %s: [%s] %v", e.Op, e.Entity, e.Code, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Entity, e.Err)
}

func (e *ExecutionError) Unwrap() []error { return []error{ErrExecution, e.Err} }
