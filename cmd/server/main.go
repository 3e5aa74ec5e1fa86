package main

import (
	"context"
	"log"
	"os"

	"rowmap/internal/api"
	"rowmap/internal/config"
	"rowmap/internal/db"
	"rowmap/internal/dialect"
	"rowmap/internal/dsl"
	"rowmap/internal/logging"
	"rowmap/internal/orm"
)

func main() {
	// 0. Конфиг: defaults -> rowmap.yaml -> ENV -> флаги
	cfg, err := config.Load("rowmap.yaml", os.Args[1:])
	if err != nil {
		log.Fatalf("Ошибка конфигурации: %v", err)
	}
	logger := logging.New(cfg.LogLevel, cfg.LogFormat, os.Stderr)
	logger.Info("config", "cfg", cfg.String())

	// 1. Загружаем DSL-сущности
	entities, err := dsl.LoadAllEntities(cfg.DSLDir)
	if err != nil {
		log.Fatalf("Ошибка загрузки DSL: %v", err)
	}
	logger.Info("dsl loaded", "entities", len(entities))

	// 2. База и движок
	d, err := dialect.Get(cfg.Dialect)
	if err != nil {
		log.Fatalf("Ошибка диалекта: %v", err)
	}
	if issues := api.SchemaLint(entities, d); len(issues) > 0 {
		for _, it := range issues {
			logger.Error("schema issue", "entity", it.Entity, "field", it.Field, "code", it.Code, "msg", it.Message)
		}
		log.Fatalf("DSL содержит блокирующие ошибки: %d", len(issues))
	}
	conn, err := db.Open(d, cfg.DBURL)
	if err != nil {
		log.Fatalf("Ошибка подключения к базе: %v", err)
	}
	defer conn.Close()

	storage := api.NewStorage(entities, orm.New(conn, d, logger), logger)
	storage.DSLDir = cfg.DSLDir

	// 3. Сверка таблиц при старте
	if cfg.AutoSync {
		if _, err := storage.SyncAll(context.Background()); err != nil {
			log.Fatalf("Ошибка синхронизации схемы: %v", err)
		}
	}

	// 4. Запускаем REST API сервер
	logger.Info("listening", "addr", ":"+cfg.Port, "dialect", d.Name())
	if err := api.RunServer(":"+cfg.Port, storage, logger); err != nil {
		log.Fatalf("Сервер остановлен: %v", err)
	}
}
