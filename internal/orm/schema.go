package orm

import (
	"context"

	"rowmap/internal/meta"
)

// columnDefs собирает определения колонок; неизвестный тип отсекается здесь,
// до того как DDL уйдёт в базу.
func (e *Engine) columnDefs(d meta.Descriptor, cols []meta.Column, withKey bool) ([]string, error) {
	defs := make([]string, 0, len(cols))
	for _, c := range cols {
		def, ok := e.dialect.ColumnDef(c, withKey)
		if !ok {
			return nil, &UnsupportedTypeError{Entity: d.StorageName(), Field: c.Field, Type: c.Type}
		}
		defs = append(defs, def)
	}
	return defs, nil
}

// TableExists смотрит в каталог. Ничего не кэшируется.
func (e *Engine) TableExists(ctx context.Context, d meta.Descriptor) (bool, error) {
	table := d.StorageName()
	return e.exists(ctx, "check table", table, e.dialect.TableExistsQuery(), table)
}

func (e *Engine) ColumnExists(ctx context.Context, d meta.Descriptor, c meta.Column) (bool, error) {
	table := d.StorageName()
	return e.exists(ctx, "check column", table, e.dialect.ColumnExistsQuery(), table, c.Name)
}

// CreateTable выполняет CREATE TABLE безусловно: колонка на каждое поле,
// ключевое ограничение на ключевом поле.
func (e *Engine) CreateTable(ctx context.Context, d meta.Descriptor) error {
	table := d.StorageName()
	defs, err := e.columnDefs(d, d.Columns(), true)
	if err != nil {
		return err
	}
	query := buildCreate(e.dialect, table, defs)
	e.log.InfoContext(ctx, "create table", "entity", table, "sql", query)
	_, err = e.exec(ctx, "create table", table, statement{sql: query})
	return err
}

// AlterTable добавляет колонки, которых нет в таблице. Возвращает имена добавленных.
// Типы существующих колонок не меняются, ничего не удаляется.
func (e *Engine) AlterTable(ctx context.Context, d meta.Descriptor) ([]string, error) {
	table := d.StorageName()

	var missing []meta.Column
	for _, c := range d.Columns() {
		ok, err := e.ColumnExists(ctx, d, c)
		if err != nil {
			return nil, err
		}
		if !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) == 0 {
		return nil, nil
	}

	defs, err := e.columnDefs(d, missing, false)
	if err != nil {
		return nil, err
	}
	for _, query := range e.dialect.AddColumns(table, defs) {
		e.log.InfoContext(ctx, "alter table", "entity", table, "sql", query)
		if _, err := e.exec(ctx, "alter table", table, statement{sql: query}); err != nil {
			return nil, err
		}
	}

	names := make([]string, len(missing))
	for i, c := range missing {
		names[i] = c.Name
	}
	return names, nil
}

// EnsureTableExists создаёт таблицу, если её нет. created=true — был CREATE.
func (e *Engine) EnsureTableExists(ctx context.Context, d meta.Descriptor) (bool, error) {
	ok, err := e.TableExists(ctx, d)
	if err != nil || ok {
		return false, err
	}
	if err := e.CreateTable(ctx, d); err != nil {
		return false, err
	}
	return true, nil
}

// EnsureColumnsExist — одна ALTER TABLE на все недостающие колонки (или ни одной).
func (e *Engine) EnsureColumnsExist(ctx context.Context, d meta.Descriptor) ([]string, error) {
	return e.AlterTable(ctx, d)
}

// Sync = EnsureTableExists + EnsureColumnsExist. Два независимых шага без транзакции.
func (e *Engine) Sync(ctx context.Context, d meta.Descriptor) error {
	if _, err := e.EnsureTableExists(ctx, d); err != nil {
		return err
	}
	_, err := e.EnsureColumnsExist(ctx, d)
	return err
}
