package orm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"rowmap/internal/meta"
)

// Result — итог Persist.
type Result struct {
	Inserted     bool  // true — INSERT, false — UPDATE
	Key          any   // int64 или string (ULID)
	RowsAffected int64 // для UPDATE; 0 строк — не ошибка
}

// Repository — CRUD для одной сущности поверх Engine.
type Repository[T any] struct {
	engine *Engine
	entity *meta.Entity[T]
}

func For[T any](e *Engine, entity *meta.Entity[T]) *Repository[T] {
	return &Repository[T]{engine: e, entity: entity}
}

func (r *Repository[T]) Entity() *meta.Entity[T] { return r.entity }

func (r *Repository[T]) CreateTable(ctx context.Context) error {
	return r.engine.CreateTable(ctx, r.entity)
}

func (r *Repository[T]) AlterTable(ctx context.Context) ([]string, error) {
	return r.engine.AlterTable(ctx, r.entity)
}

func (r *Repository[T]) EnsureTableExists(ctx context.Context) (bool, error) {
	return r.engine.EnsureTableExists(ctx, r.entity)
}

func (r *Repository[T]) EnsureColumnsExist(ctx context.Context) ([]string, error) {
	return r.engine.EnsureColumnsExist(ctx, r.entity)
}

// KeyField — ключевое поле сущности; ошибки метаданных приходят как *ConfigurationError.
func (r *Repository[T]) KeyField() (meta.Field[T], error) {
	f, err := r.entity.KeyField()
	if err != nil {
		return f, &ConfigurationError{Entity: r.entity.StorageName(), Err: err}
	}
	return f, nil
}

// keyUnset: int-ключ <= 0, строковый ключ пустой.
func keyUnset(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case int64:
		return x <= 0
	case float64:
		return x <= 0
	case string:
		return x == ""
	}
	return false
}

// encodeAll кодирует все поля записи в порядке объявления.
func (r *Repository[T]) encodeAll(rec *T) ([]any, error) {
	fields := r.entity.Fields()
	vals := make([]any, len(fields))
	for i, f := range fields {
		v, err := encodeValue(f.Column, f.Get(rec))
		if err != nil {
			var ute *UnsupportedTypeError
			if errors.As(err, &ute) {
				ute.Entity = r.entity.StorageName()
			}
			return nil, err
		}
		vals[i] = v
	}
	return vals, nil
}

// Persist: ключ не задан — синхронизация схемы и INSERT (ключ записывается обратно в rec),
// иначе UPDATE по текущему значению ключа.
func (r *Repository[T]) Persist(ctx context.Context, rec *T) (Result, error) {
	key, err := r.KeyField()
	if err != nil {
		return Result{}, err
	}
	if keyUnset(key.Get(rec)) {
		return r.insert(ctx, rec, key)
	}
	return r.update(ctx, rec, key)
}

func (r *Repository[T]) insert(ctx context.Context, rec *T, key meta.Field[T]) (Result, error) {
	table := r.entity.StorageName()

	// схема сверяется перед каждой вставкой; между DDL и INSERT атомарности нет
	if err := r.engine.Sync(ctx, r.entity); err != nil {
		return Result{}, err
	}

	vals, err := r.encodeAll(rec)
	if err != nil {
		return Result{}, err
	}

	var newKey any
	if key.Type == meta.TypeIdentifier {
		id := r.engine.newID()
		for i, f := range r.entity.Fields() {
			if f.Key {
				vals[i] = id
			}
		}
		newKey = id
	}

	st := buildInsert(r.engine.dialect, table, r.entity.Columns(), vals, key.Column)
	switch {
	case newKey != nil:
		if _, err := r.engine.exec(ctx, "insert", table, st); err != nil {
			return Result{}, err
		}
	case r.engine.dialect.Returning():
		r.engine.log.DebugContext(ctx, "exec", "op", "insert", "entity", table, "sql", st.sql)
		var id int64
		if err := r.engine.conn.QueryRowContext(ctx, st.sql, st.args...).Scan(&id); err != nil {
			return Result{}, r.engine.execError("insert", table, st.sql, err)
		}
		newKey = id
	default:
		res, err := r.engine.exec(ctx, "insert", table, st)
		if err != nil {
			return Result{}, err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return Result{}, r.engine.execError("insert", table, st.sql, err)
		}
		newKey = id
	}

	if err := key.Set(rec, newKey); err != nil {
		return Result{}, fmt.Errorf("%s: assign key: %w", table, err)
	}
	return Result{Inserted: true, Key: newKey, RowsAffected: 1}, nil
}

func (r *Repository[T]) update(ctx context.Context, rec *T, key meta.Field[T]) (Result, error) {
	table := r.entity.StorageName()

	// значение для WHERE фиксируется до сборки SET
	keyVal := key.Get(rec)

	vals, err := r.encodeAll(rec)
	if err != nil {
		return Result{}, err
	}
	st := buildUpdate(r.engine.dialect, table, r.entity.Columns(), vals, key.Column, keyVal)
	res, err := r.engine.exec(ctx, "update", table, st)
	if err != nil {
		return Result{}, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return Result{}, r.engine.execError("update", table, st.sql, err)
	}
	return Result{Key: keyVal, RowsAffected: n}, nil
}

// Delete удаляет строку по ключу записи. Возвращает число удалённых строк;
// 0 — строки не было, ошибкой не считается.
func (r *Repository[T]) Delete(ctx context.Context, rec *T) (int64, error) {
	table := r.entity.StorageName()
	key, err := r.KeyField()
	if err != nil {
		return 0, err
	}
	st := buildDelete(r.engine.dialect, table, key.Column, key.Get(rec))
	res, err := r.engine.exec(ctx, "delete", table, st)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, r.engine.execError("delete", table, st.sql, err)
	}
	return n, nil
}

// Find читает все строки под фильтром. filter — сырой SQL-фрагмент после AND, "" — без фильтра.
func (r *Repository[T]) Find(ctx context.Context, filter string) ([]T, error) {
	return r.query(ctx, "select", filter, false)
}

// FindFirst — первая строка под фильтром; пустой результат — *NotFoundError.
func (r *Repository[T]) FindFirst(ctx context.Context, filter string) (T, error) {
	out, err := r.query(ctx, "select first", filter, true)
	if err != nil {
		var zero T
		return zero, err
	}
	if len(out) == 0 {
		var zero T
		return zero, &NotFoundError{Entity: r.entity.StorageName(), Filter: strings.TrimSpace(filter)}
	}
	return out[0], nil
}

func (r *Repository[T]) query(ctx context.Context, op, filter string, first bool) ([]T, error) {
	table := r.entity.StorageName()
	st := buildSelect(r.engine.dialect, table, filter, first)
	r.engine.log.DebugContext(ctx, "query", "op", op, "entity", table, "sql", st.sql)

	rows, err := r.engine.conn.QueryContext(ctx, st.sql)
	if err != nil {
		return nil, r.engine.execError(op, table, st.sql, err)
	}
	defer rows.Close()

	names, err := rows.Columns()
	if err != nil {
		return nil, r.engine.execError(op, table, st.sql, err)
	}
	fields := r.entity.Fields()
	pos := columnPositions(fields, names)

	var out []T
	raw := make([]any, len(names))
	ptrs := make([]any, len(names))
	for i := range raw {
		ptrs[i] = &raw[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, r.engine.execError(op, table, st.sql, err)
		}
		rec := r.entity.New()
		for i, f := range fields {
			// поля без колонки в таблице остаются нулевыми
			if pos[i] < 0 {
				continue
			}
			v, err := decodeValue(f.Column, raw[pos[i]])
			if err != nil {
				return nil, fmt.Errorf("%s: %w", table, err)
			}
			if err := f.Set(&rec, v); err != nil {
				return nil, fmt.Errorf("%s: %w", table, err)
			}
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, r.engine.execError(op, table, st.sql, err)
	}
	return out, nil
}

// columnPositions: индекс колонки результата для каждого поля, -1 — колонки нет.
func columnPositions[T any](fields []meta.Field[T], names []string) []int {
	pos := make([]int, len(fields))
	for i, f := range fields {
		pos[i] = -1
		for j, n := range names {
			if n == f.Name {
				pos[i] = j
				break
			}
		}
		if pos[i] >= 0 {
			continue
		}
		for j, n := range names {
			if strings.EqualFold(n, f.Name) {
				pos[i] = j
				break
			}
		}
	}
	return pos
}
