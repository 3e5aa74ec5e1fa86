package dsl

import (
	"strings"

	"rowmap/internal/meta"
)

// Entity описывает сущность из DSL-файла
type Entity struct {
	Name   string
	Table  string // имя таблицы; пусто — берём Name
	Fields []Field
}

// Field описывает поле сущности
type Field struct {
	Name    string
	Type    meta.Type
	Options map[string]string // key, column=... и прочие опции
}

func (e *Entity) TableName() string {
	if e.Table != "" {
		return e.Table
	}
	return e.Name
}

// Lookup ищет сущность по имени или по имени таблицы, регистр не важен.
// Имя таблицы должно указывать ровно на одну сущность. Возвращает ключ в entities.
func Lookup(entities map[string]*Entity, name string) (string, bool) {
	nl := strings.ToLower(strings.TrimSpace(name))
	if nl == "" {
		return "", false
	}
	if _, ok := entities[nl]; ok {
		return nl, true
	}
	var found string
	for k, e := range entities {
		if strings.ToLower(e.TableName()) == nl {
			if found != "" {
				return "", false
			}
			found = k
		}
	}
	return found, found != ""
}

func (f Field) IsKey() bool {
	_, ok := f.Options["key"]
	return ok
}

// Column — имя колонки: опция column=..., иначе имя поля.
func (f Field) Column() string {
	if c := strings.TrimSpace(f.Options["column"]); c != "" {
		return c
	}
	return f.Name
}

// normalizeType сводит синонимы к семантическим типам движка.
// Неизвестное имя остаётся как есть — движок отвергнет его до похода в базу.
func normalizeType(raw string) meta.Type {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "int", "integer":
		return meta.TypeInt
	case "text", "string":
		return meta.TypeText
	case "date":
		return meta.TypeDate
	case "decimal", "money", "float", "double":
		return meta.TypeDecimal
	case "identifier", "ulid", "id":
		return meta.TypeIdentifier
	default:
		return meta.Type(strings.ToLower(raw))
	}
}
