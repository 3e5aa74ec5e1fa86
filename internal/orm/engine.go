package orm

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"math/rand"
	"time"

	"github.com/oklog/ulid/v2"

	"rowmap/internal/db"
	"rowmap/internal/dialect"
)

// Conn — внешнее соединение, которое движок только одалживает.
// Подходят *sql.DB, *sql.Conn и *sql.Tx.
type Conn interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Engine не потокобезопасен: все вызовы поверх одного Conn должны идти последовательно.
type Engine struct {
	conn    Conn
	dialect *dialect.Dialect
	log     *slog.Logger
	entropy io.Reader
}

func New(conn Conn, d *dialect.Dialect, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	src := rand.New(rand.NewSource(time.Now().UnixNano()))
	return &Engine{
		conn:    conn,
		dialect: d,
		log:     log,
		entropy: ulid.Monotonic(src, 0),
	}
}

func (e *Engine) Dialect() *dialect.Dialect { return e.dialect }

func (e *Engine) newID() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), e.entropy).String()
}

func (e *Engine) execError(op, entity, query string, err error) error {
	return &ExecutionError{Op: op, Entity: entity, SQL: query, Code: db.ErrorCode(err), Err: err}
}

func (e *Engine) exec(ctx context.Context, op, entity string, st statement) (sql.Result, error) {
	e.log.DebugContext(ctx, "exec", "op", op, "entity", entity, "sql", st.sql)
	res, err := e.conn.ExecContext(ctx, st.sql, st.args...)
	if err != nil {
		return nil, e.execError(op, entity, st.sql, err)
	}
	return res, nil
}

// exists — есть ли хотя бы одна строка у запроса к каталогу.
func (e *Engine) exists(ctx context.Context, op, entity, query string, args ...any) (bool, error) {
	query = e.dialect.Rebind(query)
	var name string
	err := e.conn.QueryRowContext(ctx, query, args...).Scan(&name)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return false, nil
	case err != nil:
		return false, e.execError(op, entity, query, err)
	}
	return true, nil
}
