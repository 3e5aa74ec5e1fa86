package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"rowmap/internal/dsl"
)

type reloadReq struct {
	DSLRoot string `json:"dsl_root"` // директория с *.dsl
}

// POST /api/admin/sync
func AdminSyncHandler(storage *Storage) gin.HandlerFunc {
	return func(c *gin.Context) {
		reports, err := storage.SyncAll(c.Request.Context())
		if err != nil {
			storage.abortWith(c, statusFor(err), err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": true, "tables": reports})
	}
}

// POST /api/admin/reload
func AdminReloadHandler(storage *Storage) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req reloadReq
		if c.Request.ContentLength > 0 {
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
				return
			}
		}

		dslRoot := strings.TrimSpace(req.DSLRoot)
		if dslRoot == "" {
			dslRoot = storage.DSLDir
		}
		if dslRoot == "" {
			dslRoot = "dsl"
		}

		// 1) читаем новые схемы
		newSchemas, err := dsl.LoadAllEntities(dslRoot)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "DSL load error", "details": err.Error()})
			return
		}

		// 2) линтер до подмены, чтобы не сломать рабочий набор
		if issues := SchemaLint(newSchemas, storage.engine.Dialect()); len(issues) > 0 {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "schema has blocking issues",
				"issues":  issues,
				"hint":    "fix DSL and retry",
				"dslRoot": dslRoot,
			})
			return
		}

		// 3) атомарная замена под локом
		storage.Replace(newSchemas)
		storage.log.InfoContext(c.Request.Context(), "dsl reloaded", "dir", dslRoot, "entities", len(newSchemas))

		c.JSON(http.StatusOK, gin.H{
			"ok":       true,
			"dslRoot":  dslRoot,
			"entities": len(newSchemas),
		})
	}
}
