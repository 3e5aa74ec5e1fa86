package orm

import (
	"strings"

	"rowmap/internal/dialect"
	"rowmap/internal/meta"
)

type statement struct {
	sql  string
	args []any
}

// insertColumns — колонки INSERT: всё, кроме автоинкрементного ключа.
// Identifier-ключ генерируется на клиенте и вставляется как обычная колонка.
func insertColumns(cols []meta.Column) []int {
	var idx []int
	for i, c := range cols {
		if c.Key && c.Type != meta.TypeIdentifier {
			continue
		}
		idx = append(idx, i)
	}
	return idx
}

// buildInsert: INSERT INTO t (a, b) VALUES (?, ?) [RETURNING key].
// Без колонок — INSERT INTO t DEFAULT VALUES (в mysql () VALUES ()).
// vals выровнены с cols.
func buildInsert(d *dialect.Dialect, table string, cols []meta.Column, vals []any, key meta.Column) statement {
	idx := insertColumns(cols)
	names := make([]string, len(idx))
	marks := make([]string, len(idx))
	args := make([]any, len(idx))
	for i, j := range idx {
		names[i] = d.Quote(cols[j].Name)
		marks[i] = "?"
		args[i] = vals[j]
	}

	var sb strings.Builder
	sb.WriteString("INSERT INTO ")
	sb.WriteString(d.Quote(table))
	if len(idx) == 0 {
		sb.WriteString(d.NoValues())
	} else {
		sb.WriteString(" (")
		sb.WriteString(strings.Join(names, ", "))
		sb.WriteString(") VALUES (")
		sb.WriteString(strings.Join(marks, ", "))
		sb.WriteString(")")
	}
	if d.Returning() && key.Type == meta.TypeInt {
		sb.WriteString(" RETURNING ")
		sb.WriteString(d.Quote(key.Name))
	}
	return statement{sql: d.Rebind(sb.String()), args: args}
}

// buildUpdate: SET по всем колонкам (ключ тоже), WHERE key = keyVal.
// keyVal снят с записи до присваиваний.
func buildUpdate(d *dialect.Dialect, table string, cols []meta.Column, vals []any, key meta.Column, keyVal any) statement {
	sets := make([]string, len(cols))
	args := make([]any, 0, len(cols)+1)
	for i, c := range cols {
		sets[i] = d.Quote(c.Name) + " = ?"
		args = append(args, vals[i])
	}
	args = append(args, keyVal)

	q := "UPDATE " + d.Quote(table) + " SET " + strings.Join(sets, ", ") +
		" WHERE " + d.Quote(key.Name) + " = ?"
	return statement{sql: d.Rebind(q), args: args}
}

func buildDelete(d *dialect.Dialect, table string, key meta.Column, keyVal any) statement {
	q := "DELETE FROM " + d.Quote(table) + " WHERE " + d.Quote(key.Name) + " = ?"
	return statement{sql: d.Rebind(q), args: []any{keyVal}}
}

// buildSelect: SELECT * FROM t WHERE 1=1 [AND (filter)] [LIMIT 1].
// filter вставляется как есть и не разбирается. Плейсхолдеров нет,
// поэтому Rebind не нужен (и не трогает '?' внутри filter).
func buildSelect(d *dialect.Dialect, table, filter string, first bool) statement {
	var sb strings.Builder
	sb.WriteString("SELECT * FROM ")
	sb.WriteString(d.Quote(table))
	sb.WriteString(" WHERE 1=1")
	if f := strings.TrimSpace(filter); f != "" {
		sb.WriteString(" AND (")
		sb.WriteString(f)
		sb.WriteString(")")
	}
	if first {
		sb.WriteString(" LIMIT 1")
	}
	return statement{sql: sb.String()}
}

// buildCreate: CREATE TABLE с ключевым ограничением на ключевой колонке.
func buildCreate(d *dialect.Dialect, table string, defs []string) string {
	return "CREATE TABLE " + d.Quote(table) + " (\n  " + strings.Join(defs, ",\n  ") + "\n)"
}
