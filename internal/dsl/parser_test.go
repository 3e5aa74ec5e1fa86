package dsl

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rowmap/internal/meta"
)

const usersDSL = `
# пользователи
entity User: table=users
  id: int key
  username: string
  registrationDate: date column=registration_date   # дата регистрации
  salary: money
  note: text column='note text'

entity Ticket:
  id: ulid key
  title: text
`

func TestParse(t *testing.T) {
	ents, err := Parse("users.dsl", strings.NewReader(usersDSL))
	require.NoError(t, err)
	require.Len(t, ents, 2)

	u := ents[0]
	assert.Equal(t, "User", u.Name)
	assert.Equal(t, "users", u.Table)
	require.Len(t, u.Fields, 5)
	assert.True(t, u.Fields[0].IsKey())
	assert.Equal(t, meta.TypeInt, u.Fields[0].Type)
	assert.Equal(t, meta.TypeText, u.Fields[1].Type)
	assert.Equal(t, "registration_date", u.Fields[2].Column())
	assert.Equal(t, meta.TypeDecimal, u.Fields[3].Type)
	assert.Equal(t, "note text", u.Fields[4].Column())

	tk := ents[1]
	assert.Empty(t, tk.Table)
	assert.Equal(t, meta.TypeIdentifier, tk.Fields[0].Type)
}

func TestParseErrors(t *testing.T) {
	_, err := Parse("bad.dsl", strings.NewReader("entity A:\n  id: int key\n  id: int\n"))
	assert.ErrorContains(t, err, "duplicate field")

	_, err = Parse("bad.dsl", strings.NewReader("entity A:\n  ???\n"))
	assert.ErrorContains(t, err, "bad.dsl:2")
}

func TestUnknownTypeIsKept(t *testing.T) {
	ents, err := Parse("x.dsl", strings.NewReader("entity A:\n  data: JSON\n"))
	require.NoError(t, err)
	assert.Equal(t, meta.Type("json"), ents[0].Fields[0].Type)
}

func TestMeta(t *testing.T) {
	ents, err := Parse("users.dsl", strings.NewReader(usersDSL))
	require.NoError(t, err)

	m := ents[0].Meta()
	assert.Equal(t, "users", m.StorageName())
	key, err := m.Key()
	require.NoError(t, err)
	assert.Equal(t, "id", key.Name)

	rec := m.New()
	f := m.Fields()
	assert.Equal(t, int64(0), f[0].Get(&rec), "missing int reads as zero")
	require.NoError(t, f[0].Set(&rec, int64(5)))
	assert.Equal(t, int64(5), f[0].Get(&rec))

	assert.Equal(t, "Ticket", ents[1].Meta().StorageName())
}

func TestNormalize(t *testing.T) {
	ents, err := Parse("users.dsl", strings.NewReader(usersDSL))
	require.NoError(t, err)
	u := ents[0]

	rec, err := u.Normalize(map[string]any{
		"id":               float64(3),
		"username":         "Ivan",
		"registrationDate": "2024-01-01",
		"salary":           "4555.5",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(3), rec["id"])
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), rec["registrationDate"])
	assert.Equal(t, 4555.5, rec["salary"])

	_, err = u.Normalize(map[string]any{"nope": 1})
	assert.ErrorContains(t, err, "unknown field")

	_, err = u.Normalize(map[string]any{"id": 1.5})
	assert.Error(t, err)

	_, err = u.Normalize(map[string]any{"registrationDate": "yesterday"})
	assert.Error(t, err)

	flat := Flatten(rec)
	assert.Equal(t, "2024-01-01", flat["registrationDate"])
}

func TestLoadAllEntities(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "users.dsl"), []byte(usersDSL), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sub", "more.DSL"), []byte("entity Order:\n  id: int key\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "readme.txt"), []byte("entity Ignored:\n"), 0o644))

	ents, err := LoadAllEntities(dir)
	require.NoError(t, err)
	assert.Len(t, ents, 3)
	assert.Contains(t, ents, "user")
	assert.Contains(t, ents, "order")

	require.NoError(t, os.WriteFile(filepath.Join(dir, "dup.dsl"), []byte("entity user:\n  id: int key\n"), 0o644))
	_, err = LoadAllEntities(dir)
	assert.ErrorContains(t, err, "duplicate entity")
}

func TestLookup(t *testing.T) {
	ents := map[string]*Entity{
		"user":  {Name: "User", Table: "users"},
		"order": {Name: "Order"},
		"a":     {Name: "A", Table: "shared"},
		"b":     {Name: "B", Table: "shared"},
	}

	for in, want := range map[string]string{
		"User":   "user",
		" USERS": "user",
		"order":  "order",
		"Order":  "order",
	} {
		got, ok := Lookup(ents, in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}

	_, ok := Lookup(ents, "shared")
	assert.False(t, ok, "table name must be unique")
	_, ok = Lookup(ents, "")
	assert.False(t, ok)
	_, ok = Lookup(ents, "nothing")
	assert.False(t, ok)
}
