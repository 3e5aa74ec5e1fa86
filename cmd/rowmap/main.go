// Command rowmap — консольный доступ к движку: сверка схемы и запросы к DSL-сущностям.
package main

import (
	"database/sql"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/alecthomas/kong"

	"rowmap/internal/config"
	"rowmap/internal/db"
	"rowmap/internal/dialect"
	"rowmap/internal/dsl"
	"rowmap/internal/logging"
	"rowmap/internal/orm"
)

// Globals — общие флаги. Поверх файла конфигурации и ENV.
type Globals struct {
	Config    string `help:"Config file (YAML or JSON)" default:"rowmap.yaml" type:"path"`
	Dialect   string `help:"SQL dialect (mysql/postgres/sqlite)"`
	DB        string `name:"db" help:"Database URL / DSN"`
	DSL       string `name:"dsl" help:"Path to DSL directory" type:"path"`
	LogLevel  string `name:"log-level" help:"Log level (debug/info/warn/error)"`
	LogFormat string `name:"log-format" help:"Log format (json/text)"`

	out io.Writer `kong:"-"`
}

var CLI struct {
	Globals

	Sync   SyncCmd   `cmd:"" help:"Create missing tables and columns for all DSL entities"`
	Find   FindCmd   `cmd:"" help:"Print all rows of an entity matching a filter"`
	First  FirstCmd  `cmd:"" help:"Print the first row of an entity matching a filter"`
	Delete DeleteCmd `cmd:"" help:"Delete a row by key"`
	Demo   DemoCmd   `cmd:"" help:"Run the built-in User scenario against the database"`
}

func (g *Globals) stdout() io.Writer {
	if g.out != nil {
		return g.out
	}
	return os.Stdout
}

func (g *Globals) config() (config.Config, error) {
	cfg, err := config.FromFile(g.Config)
	if err != nil {
		return cfg, err
	}
	config.ApplyEnv(&cfg)

	set := func(dst *string, v string) {
		if v = strings.TrimSpace(v); v != "" {
			*dst = v
		}
	}
	set(&cfg.Dialect, g.Dialect)
	set(&cfg.DBURL, g.DB)
	set(&cfg.DSLDir, g.DSL)
	set(&cfg.LogLevel, g.LogLevel)
	set(&cfg.LogFormat, g.LogFormat)
	return cfg, nil
}

// session — одно соединение и движок на время команды.
type session struct {
	cfg    config.Config
	log    *slog.Logger
	conn   *sql.DB
	engine *orm.Engine
}

func (g *Globals) open() (*session, error) {
	cfg, err := g.config()
	if err != nil {
		return nil, err
	}
	log := logging.New(cfg.LogLevel, cfg.LogFormat, os.Stderr)

	d, err := dialect.Get(cfg.Dialect)
	if err != nil {
		return nil, err
	}
	conn, err := db.Open(d, cfg.DBURL)
	if err != nil {
		return nil, err
	}
	return &session{cfg: cfg, log: log, conn: conn, engine: orm.New(conn, d, log)}, nil
}

func (s *session) Close() error { return s.conn.Close() }

func (s *session) entities() (map[string]*dsl.Entity, error) {
	return dsl.LoadAllEntities(s.cfg.DSLDir)
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("rowmap"),
		kong.Description("rowmap - entity to table mapper"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)
	err := ctx.Run(&CLI.Globals)
	ctx.FatalIfErrorf(err)
}
