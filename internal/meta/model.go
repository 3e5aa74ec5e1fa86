package meta

import (
	"errors"
	"fmt"
	"reflect"
)

// Type — семантический тип поля (не SQL-тип; SQL-тип выбирает диалект).
type Type string

const (
	TypeInt        Type = "int"
	TypeText       Type = "text"
	TypeDate       Type = "date"
	TypeDecimal    Type = "decimal"
	TypeIdentifier Type = "identifier" // ULID, генерируется при вставке
)

var (
	ErrMissingKey   = errors.New("entity has no key field")
	ErrMultipleKeys = errors.New("entity has more than one key field")
	ErrKeyType      = errors.New("key field must be int or identifier")
)

// Column описывает одно поле сущности так, как его видит движок.
type Column struct {
	Field string // имя поля в записи
	Name  string // имя колонки в таблице
	Type  Type
	Key   bool
}

// Descriptor — нетипизированный взгляд на сущность: то, что нужно для DDL и SQL.
type Descriptor interface {
	StorageName() string
	Columns() []Column
	Key() (Column, error)
}

// Entity — метаданные типа T: имя таблицы и упорядоченный список полей.
// Порядок полей задаёт порядок колонок в DDL и DML.
type Entity[T any] struct {
	name    string
	fields  []Field[T]
	factory func() T
}

// Define регистрирует сущность. Пустое table — берём имя Go-типа.
func Define[T any](table string, fields ...Field[T]) *Entity[T] {
	if table == "" {
		table = reflect.TypeOf((*T)(nil)).Elem().Name()
	}
	return &Entity[T]{name: table, fields: fields}
}

// WithFactory задаёт конструктор пустой записи (нужен, например, для map-записей).
func (e *Entity[T]) WithFactory(fn func() T) *Entity[T] {
	e.factory = fn
	return e
}

// New возвращает свежую пустую запись.
func (e *Entity[T]) New() T {
	if e.factory != nil {
		return e.factory()
	}
	var zero T
	return zero
}

func (e *Entity[T]) StorageName() string { return e.name }

func (e *Entity[T]) Fields() []Field[T] { return e.fields }

func (e *Entity[T]) Columns() []Column {
	out := make([]Column, len(e.fields))
	for i, f := range e.fields {
		out[i] = f.Column
	}
	return out
}

func (e *Entity[T]) Key() (Column, error) {
	f, err := e.KeyField()
	if err != nil {
		return Column{}, err
	}
	return f.Column, nil
}

// KeyType — может ли поле такого типа быть ключом.
func KeyType(t Type) bool { return t == TypeInt || t == TypeIdentifier }

// KeyField ищет единственное ключевое поле.
func (e *Entity[T]) KeyField() (Field[T], error) {
	idx := -1
	for i, f := range e.fields {
		if !f.Key {
			continue
		}
		if idx >= 0 {
			return Field[T]{}, fmt.Errorf("%s: %w (%s, %s)", e.name, ErrMultipleKeys, e.fields[idx].Field, f.Field)
		}
		idx = i
	}
	if idx < 0 {
		return Field[T]{}, fmt.Errorf("%s: %w", e.name, ErrMissingKey)
	}
	// значение ключа приходит от базы (int) или от генератора (identifier)
	if f := e.fields[idx]; !KeyType(f.Type) {
		return Field[T]{}, fmt.Errorf("%s: %w (%s: %s)", e.name, ErrKeyType, f.Field, f.Type)
	}
	return e.fields[idx], nil
}
