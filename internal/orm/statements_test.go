package orm

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"rowmap/internal/dialect"
	"rowmap/internal/meta"
)

var (
	stmtCols = []meta.Column{
		{Field: "id", Name: "id", Type: meta.TypeInt, Key: true},
		{Field: "username", Name: "username", Type: meta.TypeText},
		{Field: "registrationDate", Name: "registration_date", Type: meta.TypeDate},
	}
	stmtVals = []any{int64(7), "Ivan", "2024-01-01"}
)

func TestBuildInsert(t *testing.T) {
	st := buildInsert(dialect.MySQL, "users", stmtCols, stmtVals, stmtCols[0])
	assert.Equal(t, "INSERT INTO `users` (`username`, `registration_date`) VALUES (?, ?)", st.sql)
	assert.Equal(t, []any{"Ivan", "2024-01-01"}, st.args)

	st = buildInsert(dialect.Postgres, "users", stmtCols, stmtVals, stmtCols[0])
	assert.Equal(t,
		`INSERT INTO "users" ("username", "registration_date") VALUES ($1, $2) RETURNING "id"`, st.sql)

	ulidCols := append([]meta.Column{{Field: "id", Name: "id", Type: meta.TypeIdentifier, Key: true}}, stmtCols[1:]...)
	st = buildInsert(dialect.Postgres, "users", ulidCols, []any{"01J", "Ivan", nil}, ulidCols[0])
	assert.Equal(t, `INSERT INTO "users" ("id", "username", "registration_date") VALUES ($1, $2, $3)`, st.sql)
}

func TestBuildInsertKeyOnly(t *testing.T) {
	cols := stmtCols[:1]
	vals := stmtVals[:1]

	st := buildInsert(dialect.SQLite, "seqs", cols, vals, cols[0])
	assert.Equal(t, `INSERT INTO "seqs" DEFAULT VALUES`, st.sql)
	assert.Empty(t, st.args)

	st = buildInsert(dialect.Postgres, "seqs", cols, vals, cols[0])
	assert.Equal(t, `INSERT INTO "seqs" DEFAULT VALUES RETURNING "id"`, st.sql)

	st = buildInsert(dialect.MySQL, "seqs", cols, vals, cols[0])
	assert.Equal(t, "INSERT INTO `seqs` () VALUES ()", st.sql)
}

func TestBuildUpdate(t *testing.T) {
	// ключ в SET новый, в WHERE — снятый до изменения
	vals := []any{int64(8), "Ivan", "2024-01-01"}
	st := buildUpdate(dialect.Postgres, "users", stmtCols, vals, stmtCols[0], int64(7))
	assert.Equal(t,
		`UPDATE "users" SET "id" = $1, "username" = $2, "registration_date" = $3 WHERE "id" = $4`, st.sql)
	assert.Equal(t, []any{int64(8), "Ivan", "2024-01-01", int64(7)}, st.args)
}

func TestBuildDeleteUsesDeclaredKeyColumn(t *testing.T) {
	key := meta.Column{Field: "id", Name: "user_id", Type: meta.TypeInt, Key: true}
	st := buildDelete(dialect.MySQL, "users", key, int64(7))
	assert.Equal(t, "DELETE FROM `users` WHERE `user_id` = ?", st.sql)
	assert.Equal(t, []any{int64(7)}, st.args)
}

func TestBuildSelect(t *testing.T) {
	assert.Equal(t, `SELECT * FROM "users" WHERE 1=1`,
		buildSelect(dialect.SQLite, "users", "", false).sql)
	assert.Equal(t, `SELECT * FROM "users" WHERE 1=1 AND (age > 18) LIMIT 1`,
		buildSelect(dialect.SQLite, "users", " age > 18 ", true).sql)

	// '?' внутри фильтра не превращается в $1
	assert.Equal(t, `SELECT * FROM "users" WHERE 1=1 AND (username = 'who?')`,
		buildSelect(dialect.Postgres, "users", "username = 'who?'", false).sql)
}

func TestBuildCreate(t *testing.T) {
	q := buildCreate(dialect.MySQL, "users", []string{"`id` INT PRIMARY KEY AUTO_INCREMENT", "`username` VARCHAR(50)"})
	assert.Equal(t, "CREATE TABLE `users` (\n  `id` INT PRIMARY KEY AUTO_INCREMENT,\n  `username` VARCHAR(50)\n)", q)
}
