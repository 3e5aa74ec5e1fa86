package db

import (
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rowmap/internal/dialect"
)

func TestErrorCode(t *testing.T) {
	assert.Equal(t, "", ErrorCode(nil))
	assert.Equal(t, "", ErrorCode(errors.New("boom")))

	pg := fmt.Errorf("exec: %w", &pgconn.PgError{Code: "42701", Message: "column already exists"})
	assert.Equal(t, "42701", ErrorCode(pg))

	my := fmt.Errorf("exec: %w", &mysql.MySQLError{Number: 1060, Message: "Duplicate column name"})
	assert.Equal(t, "1060", ErrorCode(my))
}

func TestOpenSQLite(t *testing.T) {
	conn, err := Open(dialect.SQLite, filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Exec("SELEC 1")
	require.Error(t, err)
	assert.NotEmpty(t, ErrorCode(err))
}
