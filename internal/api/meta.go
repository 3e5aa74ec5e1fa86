package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ===== META HANDLERS =====

type metaEntityListItem struct {
	Entity string `json:"entity"`
	Table  string `json:"table"`
}

func MetaListHandler(storage *Storage) gin.HandlerFunc {
	return func(c *gin.Context) {
		storage.mu.Lock()
		out := make([]metaEntityListItem, 0, len(storage.Schemas))
		for _, k := range storage.names() {
			out = append(out, metaEntityListItem{
				Entity: storage.Schemas[k].Name,
				Table:  storage.metas[k].StorageName(),
			})
		}
		storage.mu.Unlock()
		c.JSON(http.StatusOK, out)
	}
}

type metaField struct {
	Name    string            `json:"name"`
	Column  string            `json:"column"`
	Type    string            `json:"type"`
	SQLType string            `json:"sqlType,omitempty"`
	Key     bool              `json:"key,omitempty"`
	Options map[string]string `json:"options,omitempty"`
}

type metaEntity struct {
	Entity string      `json:"entity"`
	Table  string      `json:"table"`
	Fields []metaField `json:"fields"`
}

func MetaEntityHandler(storage *Storage) gin.HandlerFunc {
	return func(c *gin.Context) {
		key, ok := storage.NormalizeEntityName(c.Param("entity"))
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "Entity not found"})
			return
		}

		storage.mu.Lock()
		schema := storage.Schemas[key]
		table := storage.metas[key].StorageName()
		storage.mu.Unlock()

		d := storage.engine.Dialect()
		fields := make([]metaField, 0, len(schema.Fields))
		for _, f := range schema.Fields {
			opts := map[string]string{}
			for k, v := range f.Options {
				opts[k] = v
			}
			sqlType, _ := d.ColumnType(f.Type)
			fields = append(fields, metaField{
				Name:    f.Name,
				Column:  f.Column(),
				Type:    string(f.Type),
				SQLType: sqlType,
				Key:     f.IsKey(),
				Options: opts,
			})
		}

		c.JSON(http.StatusOK, metaEntity{
			Entity: schema.Name,
			Table:  table,
			Fields: fields,
		})
	}
}
