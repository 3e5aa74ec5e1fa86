// api/router.go
package api

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	"rowmap/internal/logging"
)

func NewRouter(storage *Storage, log *slog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), logging.Gin(log))

	apiGroup := r.Group("/api")
	{
		apiGroup.GET("/meta", MetaListHandler(storage))
		apiGroup.GET("/meta/:entity", MetaEntityHandler(storage))

		// служебные маршруты — СНАЧАЛА
		apiGroup.POST("/admin/sync", AdminSyncHandler(storage))
		apiGroup.POST("/admin/reload", AdminReloadHandler(storage))
		apiGroup.GET("/:entity/_first", FirstHandler(storage))

		// обычные CRUD
		apiGroup.POST("/:entity", CreateHandler(storage))
		apiGroup.GET("/:entity", ListHandler(storage))
		apiGroup.GET("/:entity/:id", GetOneHandler(storage))
		apiGroup.PUT("/:entity/:id", UpdateHandler(storage))
		apiGroup.DELETE("/:entity/:id", DeleteHandler(storage))
	}
	return r
}

func RunServer(addr string, storage *Storage, log *slog.Logger) error {
	return NewRouter(storage, log).Run(addr)
}
