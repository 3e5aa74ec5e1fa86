// api/schema_lint.go
package api

import (
	"fmt"
	"sort"
	"strings"

	"rowmap/internal/dialect"
	"rowmap/internal/dsl"
	"rowmap/internal/meta"
)

type SchemaIssue struct {
	Entity  string `json:"entity"`
	Field   string `json:"field,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// SchemaLint проверяет DSL до того, как он попадёт в движок:
// ровно один ключ int или identifier, известные типы, уникальные имена колонок и таблиц.
func SchemaLint(entities map[string]*dsl.Entity, d *dialect.Dialect) []SchemaIssue {
	var issues []SchemaIssue

	keys := make([]string, 0, len(entities))
	for k := range entities {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	tables := map[string]string{}
	for _, k := range keys {
		e := entities[k]

		table := strings.ToLower(e.Meta().StorageName())
		if other, ok := tables[table]; ok {
			issues = append(issues, SchemaIssue{
				Entity:  e.Name,
				Code:    "table_duplicate",
				Message: fmt.Sprintf("table %q is also used by %s", table, other),
			})
		}
		tables[table] = e.Name

		keyCount := 0
		columns := map[string]struct{}{}
		for _, f := range e.Fields {
			if f.IsKey() {
				keyCount++
				if !meta.KeyType(f.Type) {
					issues = append(issues, SchemaIssue{
						Entity:  e.Name,
						Field:   f.Name,
						Code:    "key_type",
						Message: fmt.Sprintf("key of type %q is not supported, use int or identifier", f.Type),
					})
				}
			}
			if _, ok := d.ColumnType(f.Type); !ok {
				issues = append(issues, SchemaIssue{
					Entity:  e.Name,
					Field:   f.Name,
					Code:    "type_unsupported",
					Message: fmt.Sprintf("unsupported type %q", f.Type),
				})
			}
			col := strings.ToLower(f.Column())
			if _, dup := columns[col]; dup {
				issues = append(issues, SchemaIssue{
					Entity:  e.Name,
					Field:   f.Name,
					Code:    "column_duplicate",
					Message: fmt.Sprintf("column %q is declared twice", col),
				})
			}
			columns[col] = struct{}{}
		}

		switch {
		case keyCount == 0:
			issues = append(issues, SchemaIssue{Entity: e.Name, Code: "key_missing", Message: "entity has no key field"})
		case keyCount > 1:
			issues = append(issues, SchemaIssue{Entity: e.Name, Code: "key_multiple", Message: "entity has more than one key field"})
		}
	}
	return issues
}
