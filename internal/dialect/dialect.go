package dialect

import (
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"rowmap/internal/meta"
)

// Dialect — всё, чем SQL разных СУБД отличается для движка:
// кавычки, плейсхолдеры, ключевая колонка, запросы к каталогу.
type Dialect struct {
	name      string
	driver    string
	bind      int
	quote     string
	intKey    string // определение целочисленного автоинкрементного ключа (после имени)
	tableSQL  string // ? = имя таблицы
	columnSQL string // ? = имя таблицы, ? = имя колонки
	multiAdd  bool   // умеет ли ALTER TABLE добавлять несколько колонок за раз
	returning bool   // INSERT ... RETURNING вместо LastInsertId
	noValues  string // INSERT без единой колонки (после имени таблицы)
}

var (
	MySQL = &Dialect{
		name:   "mysql",
		driver: "mysql",
		bind:   sqlx.QUESTION,
		quote:  "`",
		intKey: "INT PRIMARY KEY AUTO_INCREMENT",
		tableSQL: "SELECT TABLE_NAME FROM information_schema.TABLES " +
			"WHERE TABLE_SCHEMA = DATABASE() AND TABLE_NAME = ?",
		columnSQL: "SELECT COLUMN_NAME FROM information_schema.COLUMNS " +
			"WHERE TABLE_SCHEMA = DATABASE() AND TABLE_NAME = ? AND COLUMN_NAME = ?",
		multiAdd: true,
		noValues: " () VALUES ()",
	}

	Postgres = &Dialect{
		name:   "postgres",
		driver: "pgx",
		bind:   sqlx.DOLLAR,
		quote:  `"`,
		intKey: "INT GENERATED BY DEFAULT AS IDENTITY PRIMARY KEY",
		tableSQL: "SELECT table_name FROM information_schema.tables " +
			"WHERE table_schema = current_schema() AND table_name = ?",
		columnSQL: "SELECT column_name FROM information_schema.columns " +
			"WHERE table_schema = current_schema() AND table_name = ? AND column_name = ?",
		multiAdd:  true,
		returning: true,
		noValues:  " DEFAULT VALUES",
	}

	// SQLite: ключ обязан быть ровно INTEGER, иначе это не rowid-алиас.
	SQLite = &Dialect{
		name:      "sqlite",
		driver:    "sqlite",
		bind:      sqlx.QUESTION,
		quote:     `"`,
		intKey:    "INTEGER PRIMARY KEY AUTOINCREMENT",
		tableSQL:  "SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?",
		columnSQL: "SELECT name FROM pragma_table_info(?) WHERE name = ?",
		noValues:  " DEFAULT VALUES",
	}
)

// Get возвращает диалект по имени (регистр не важен, есть алиасы).
func Get(name string) (*Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "mysql", "mariadb":
		return MySQL, nil
	case "postgres", "postgresql", "pg", "pgx":
		return Postgres, nil
	case "sqlite", "sqlite3":
		return SQLite, nil
	default:
		return nil, fmt.Errorf("unknown dialect: %q", name)
	}
}

func (d *Dialect) Name() string { return d.name }

// DriverName — имя драйвера для sql.Open.
func (d *Dialect) DriverName() string { return d.driver }

// Returning — ключ вставленной строки получаем через RETURNING.
func (d *Dialect) Returning() bool { return d.returning }

// NoValues — хвост INSERT, когда вставлять нечего (сущность из одного ключа).
func (d *Dialect) NoValues() string { return d.noValues }

// Rebind переписывает плейсхолдеры ? в синтаксис драйвера.
func (d *Dialect) Rebind(query string) string { return sqlx.Rebind(d.bind, query) }

// Quote экранирует идентификатор. Регистр сохраняется.
func (d *Dialect) Quote(ident string) string {
	return d.quote + strings.ReplaceAll(ident, d.quote, d.quote+d.quote) + d.quote
}

func (d *Dialect) TableExistsQuery() string  { return d.tableSQL }
func (d *Dialect) ColumnExistsQuery() string { return d.columnSQL }

// ColumnType — семантический тип -> тип колонки. ok=false для неизвестных типов.
func (d *Dialect) ColumnType(t meta.Type) (string, bool) {
	switch t {
	case meta.TypeInt:
		return "INT", true
	case meta.TypeText:
		// длиннее 50 символов не поддерживаем
		return "VARCHAR(50)", true
	case meta.TypeDate:
		return "DATE", true
	case meta.TypeDecimal:
		return "DECIMAL(10, 2)", true
	case meta.TypeIdentifier:
		return "CHAR(26)", true
	default:
		return "", false
	}
}

// ColumnDef — определение колонки для CREATE TABLE / ALTER TABLE ADD.
// withKey=false — ключевое ограничение не добавляется (так делает ALTER).
func (d *Dialect) ColumnDef(c meta.Column, withKey bool) (string, bool) {
	typ, ok := d.ColumnType(c.Type)
	if !ok {
		return "", false
	}
	name := d.Quote(c.Name)
	if !withKey || !c.Key {
		return name + " " + typ, true
	}
	if c.Type == meta.TypeInt {
		return name + " " + d.intKey, true
	}
	return name + " " + typ + " PRIMARY KEY", true
}

// AddColumns — ALTER TABLE для списка готовых определений колонок.
// Если диалект не умеет добавлять несколько колонок сразу, получится по statement'у на колонку.
func (d *Dialect) AddColumns(table string, defs []string) []string {
	if len(defs) == 0 {
		return nil
	}
	prefix := "ALTER TABLE " + d.Quote(table) + " "
	if d.multiAdd {
		parts := make([]string, len(defs))
		for i, def := range defs {
			parts[i] = "ADD " + def
		}
		return []string{prefix + strings.Join(parts, ", ")}
	}
	out := make([]string, len(defs))
	for i, def := range defs {
		out[i] = prefix + "ADD " + def
	}
	return out
}
