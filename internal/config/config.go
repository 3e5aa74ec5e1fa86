package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Port     string `yaml:"port"`
	DSLDir   string `yaml:"dslDir"`
	Dialect  string `yaml:"dialect"` // mysql | postgres | sqlite
	DBURL    string `yaml:"dbUrl"`
	AutoSync bool   `yaml:"autoSync"` // синхронизировать таблицы всех сущностей при старте

	LogLevel  string `yaml:"logLevel"`  // debug | info | warn | error
	LogFormat string `yaml:"logFormat"` // json | text
}

func def() Config {
	return Config{
		Port:      "8080",
		DSLDir:    "dsl",
		Dialect:   "sqlite",
		DBURL:     "rowmap.db",
		AutoSync:  false,
		LogLevel:  "info",
		LogFormat: "json",
	}
}

// FromFile: значения по умолчанию, поверх — YAML-файл (JSON тоже годится).
// Отсутствующий файл не ошибка.
func FromFile(path string) (Config, error) {
	c := def()
	if path == "" {
		return c, nil
	}
	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return c, nil
	}
	if err != nil {
		return c, err
	}
	if err := yaml.Unmarshal(b, &c); err != nil {
		return c, fmt.Errorf("config %s: %w", path, err)
	}
	return c, nil
}

func getenv(k, fallback string) string {
	if v, ok := os.LookupEnv(k); ok && strings.TrimSpace(v) != "" {
		return v
	}
	return fallback
}

func getenvBool(k string, fallback bool) bool {
	if v, ok := os.LookupEnv(k); ok {
		if b, ok := parseBool(v); ok {
			return b
		}
	}
	return fallback
}

func parseBool(v string) (bool, bool) {
	switch strings.TrimSpace(strings.ToLower(v)) {
	case "1", "true", "yes":
		return true, true
	case "0", "false", "no":
		return false, true
	}
	return false, false
}

// ApplyEnv — переопределения из ROWMAP_*.
func ApplyEnv(cfg *Config) {
	cfg.Port = getenv("ROWMAP_PORT", cfg.Port)
	cfg.DSLDir = getenv("ROWMAP_DSL_DIR", cfg.DSLDir)
	cfg.Dialect = getenv("ROWMAP_DIALECT", cfg.Dialect)
	cfg.DBURL = getenv("ROWMAP_DB_URL", cfg.DBURL)
	cfg.AutoSync = getenvBool("ROWMAP_AUTO_SYNC", cfg.AutoSync)
	cfg.LogLevel = getenv("ROWMAP_LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = getenv("ROWMAP_LOG_FORMAT", cfg.LogFormat)
}

// Load: defaults -> файл -> ENV -> флаги. Флаг -config переключает файл.
func Load(path string, args []string) (Config, error) {
	fs := flag.NewFlagSet("rowmap", flag.ContinueOnError)
	configPath := fs.String("config", path, "Path to config file (YAML or JSON)")
	port := fs.String("port", "", "HTTP port")
	dsl := fs.String("dsl", "", "Path to DSL directory")
	dialect := fs.String("dialect", "", "SQL dialect (mysql/postgres/sqlite)")
	db := fs.String("db", "", "Database URL / DSN")
	auto := fs.String("auto-sync", "", "Sync tables of all entities on start (true/false)")
	level := fs.String("log-level", "", "Log level (debug/info/warn/error)")
	format := fs.String("log-format", "", "Log format (json/text)")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	cfg, err := FromFile(*configPath)
	if err != nil {
		return cfg, err
	}
	ApplyEnv(&cfg)

	set := func(dst *string, v string) {
		if v = strings.TrimSpace(v); v != "" {
			*dst = v
		}
	}
	set(&cfg.Port, *port)
	set(&cfg.DSLDir, *dsl)
	set(&cfg.Dialect, *dialect)
	set(&cfg.DBURL, *db)
	set(&cfg.LogLevel, *level)
	set(&cfg.LogFormat, *format)
	if *auto != "" {
		b, ok := parseBool(*auto)
		if !ok {
			return cfg, fmt.Errorf("auto-sync: invalid bool %q", *auto)
		}
		cfg.AutoSync = b
	}
	return cfg, nil
}

func (c Config) String() string {
	return "dialect=" + c.Dialect + " dsl=" + c.DSLDir + " port=" + c.Port +
		" autoSync=" + strconv.FormatBool(c.AutoSync)
}
