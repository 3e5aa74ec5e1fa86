package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rowmap/internal/orm"
)

const usersDSL = `entity User: table=users
  id: int key
  username: text
  age: int
  registrationDate: date column=registration_date
`

func testGlobals(t *testing.T) (*Globals, *bytes.Buffer) {
	t.Helper()
	dir := t.TempDir()
	dslDir := filepath.Join(dir, "dsl")
	require.NoError(t, os.MkdirAll(dslDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dslDir, "users.dsl"), []byte(usersDSL), 0o644))

	var buf bytes.Buffer
	return &Globals{
		Config:   filepath.Join(dir, "missing.yaml"),
		Dialect:  "sqlite",
		DB:       filepath.Join(dir, "cli.db"),
		DSL:      dslDir,
		LogLevel: "error",
		out:      &buf,
	}, &buf
}

func TestSyncCmd(t *testing.T) {
	g, out := testGlobals(t)

	require.NoError(t, (&SyncCmd{}).Run(g))
	assert.Equal(t, "users: created\n", out.String())

	out.Reset()
	require.NoError(t, (&SyncCmd{}).Run(g))
	assert.Equal(t, "users: ok\n", out.String())
}

func TestDemoThenQueries(t *testing.T) {
	g, out := testGlobals(t)

	require.NoError(t, (&DemoCmd{}).Run(g))
	assert.Contains(t, out.String(), "persisted id=1")
	assert.Contains(t, out.String(), "found Ivan age=35 registered=2024-01-01")
	assert.Contains(t, out.String(), "not found after delete")

	// таблица осталась, DSL-сущность видит её пустой
	out.Reset()
	require.NoError(t, (&FindCmd{Entity: "users"}).Run(g))
	var rows []map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &rows))
	assert.Empty(t, rows)
}

func TestFindFirstDelete(t *testing.T) {
	g, out := testGlobals(t)

	s, err := g.open()
	require.NoError(t, err)
	u := User{Username: "Petr", Age: 20}
	_, err = orm.For(s.engine, userEntity).Persist(context.Background(), &u)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	require.NoError(t, (&FirstCmd{Entity: "User", Where: "age = 20"}).Run(g))
	var row map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &row))
	assert.Equal(t, "Petr", row["username"])

	err = (&FirstCmd{Entity: "User", Where: "age > 100"}).Run(g)
	assert.ErrorIs(t, err, orm.ErrNotFound)

	out.Reset()
	require.NoError(t, (&DeleteCmd{Entity: "users", ID: "1"}).Run(g))
	assert.Equal(t, "deleted 1\n", out.String())

	assert.Error(t, (&DeleteCmd{Entity: "users", ID: "one"}).Run(g))
	assert.ErrorContains(t, (&FindCmd{Entity: "nothing"}).Run(g), "unknown entity")
}
