package api

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"rowmap/internal/dsl"
	"rowmap/internal/logging"
	"rowmap/internal/meta"
	"rowmap/internal/orm"
)

// Storage — DSL-сущности поверх одного orm.Engine.
// Движок не рассчитан на параллельные вызовы, поэтому каждое обращение к базе идёт под mu.
type Storage struct {
	mu      sync.Mutex
	Schemas map[string]*dsl.Entity // имя (lower) -> схема
	metas   map[string]*meta.Entity[dsl.Record]
	engine  *orm.Engine
	log     *slog.Logger

	DSLDir string // откуда перечитывать схемы в admin reload
}

// NewStorage наполняет схемы и готов к работе
func NewStorage(entities map[string]*dsl.Entity, engine *orm.Engine, log *slog.Logger) *Storage {
	if log == nil {
		log = logging.Discard()
	}
	s := &Storage{engine: engine, log: log}
	s.replace(entities)
	return s
}

func (s *Storage) replace(entities map[string]*dsl.Entity) {
	s.Schemas = entities
	s.metas = make(map[string]*meta.Entity[dsl.Record], len(entities))
	for k, e := range entities {
		s.metas[k] = e.Meta()
	}
}

// Replace атомарно подменяет набор сущностей (admin reload).
func (s *Storage) Replace(entities map[string]*dsl.Entity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replace(entities)
}

// names — отсортированные ключи схем
func (s *Storage) names() []string {
	keys := make([]string, 0, len(s.Schemas))
	for k := range s.Schemas {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// with выполняет fn с репозиторием сущности под общим локом.
func (s *Storage) with(key string, fn func(schema *dsl.Entity, repo *orm.Repository[dsl.Record]) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	schema, ok := s.Schemas[key]
	if !ok {
		// сущность могла пропасть при reload между resolve и вызовом
		return &orm.NotFoundError{Entity: key}
	}
	return fn(schema, orm.For(s.engine, s.metas[key]))
}

type SyncReport struct {
	Entity       string   `json:"entity"`
	Table        string   `json:"table"`
	Created      bool     `json:"created"`
	AddedColumns []string `json:"addedColumns,omitempty"`
}

// SyncAll сверяет таблицы всех сущностей: создаёт отсутствующие, добавляет колонки.
// Останавливается на первой ошибке.
func (s *Storage) SyncAll(ctx context.Context) ([]SyncReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []SyncReport
	for _, k := range s.names() {
		m := s.metas[k]
		created, err := s.engine.EnsureTableExists(ctx, m)
		if err != nil {
			return out, err
		}
		added, err := s.engine.EnsureColumnsExist(ctx, m)
		if err != nil {
			return out, err
		}
		s.log.InfoContext(ctx, "sync", "entity", s.Schemas[k].Name, "table", m.StorageName(),
			"created", created, "added", added)
		out = append(out, SyncReport{
			Entity:       s.Schemas[k].Name,
			Table:        m.StorageName(),
			Created:      created,
			AddedColumns: added,
		})
	}
	return out, nil
}
