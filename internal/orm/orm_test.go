package orm

import (
	"context"
	"database/sql"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"rowmap/internal/db"
	"rowmap/internal/dialect"
	"rowmap/internal/logging"
	"rowmap/internal/meta"
)

type user struct {
	ID               int64
	Username         string
	Password         string
	Age              int
	RegistrationDate time.Time
	Salary           float64
	Nickname         string
}

func userFields() []meta.Field[user] {
	return []meta.Field[user]{
		meta.Int("id", func(u *user) *int64 { return &u.ID }, meta.Key()),
		meta.Text("username", func(u *user) *string { return &u.Username }),
		meta.Text("password", func(u *user) *string { return &u.Password }),
		meta.Int("age", func(u *user) *int { return &u.Age }),
		meta.Date("registrationDate", func(u *user) *time.Time { return &u.RegistrationDate },
			meta.ColumnName("registration_date")),
		meta.Decimal("salary", func(u *user) *float64 { return &u.Salary }),
	}
}

func usersEntity() *meta.Entity[user] {
	return meta.Define("users", userFields()...)
}

// тот же users, но с новым полем — дрейф схемы
func usersWithNickname() *meta.Entity[user] {
	fields := append(userFields(),
		meta.Text("nickname", func(u *user) *string { return &u.Nickname }))
	return meta.Define("users", fields...)
}

// recordingConn запоминает всё, что ушло в ExecContext.
type recordingConn struct {
	Conn
	execs []string
}

func (c *recordingConn) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	c.execs = append(c.execs, query)
	return c.Conn.ExecContext(ctx, query, args...)
}

func (c *recordingConn) reset() { c.execs = nil }

func (c *recordingConn) count(prefix string) int {
	n := 0
	for _, q := range c.execs {
		if strings.HasPrefix(q, prefix) {
			n++
		}
	}
	return n
}

func (c *recordingConn) ddl() []string {
	var out []string
	for _, q := range c.execs {
		if strings.HasPrefix(q, "CREATE") || strings.HasPrefix(q, "ALTER") {
			out = append(out, q)
		}
	}
	return out
}

func newTestEngine(t *testing.T) (*Engine, *recordingConn) {
	t.Helper()
	conn, err := db.Open(dialect.SQLite, filepath.Join(t.TempDir(), "orm.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	rc := &recordingConn{Conn: conn}
	return New(rc, dialect.SQLite, logging.Discard()), rc
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func ivan() user {
	return user{
		Username:         "Ivan",
		Password:         "dsdf3r3",
		Age:              35,
		RegistrationDate: day(2024, 1, 1),
		Salary:           4555.0,
	}
}
