package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"rowmap/internal/dsl"
	"rowmap/internal/logging"
	"rowmap/internal/orm"
)

// resolve достаёт ключ сущности из :entity или отвечает 404.
func resolve(c *gin.Context, storage *Storage) (string, bool) {
	key, ok := storage.NormalizeEntityName(c.Param("entity"))
	if !ok {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Entity not found"})
	}
	return key, ok
}

// bindRecord читает JSON-тело и приводит значения к типам полей.
func bindRecord(c *gin.Context, schema *dsl.Entity) (dsl.Record, bool) {
	var obj map[string]any
	if err := c.ShouldBindJSON(&obj); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
		return nil, false
	}
	rec, err := schema.Normalize(obj)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, false
	}
	return rec, true
}

// POST /api/:entity
func CreateHandler(storage *Storage) gin.HandlerFunc {
	return func(c *gin.Context) {
		name, ok := resolve(c, storage)
		if !ok {
			return
		}
		err := storage.with(name, func(schema *dsl.Entity, repo *orm.Repository[dsl.Record]) error {
			kf, err := repo.KeyField()
			if err != nil {
				return err
			}
			rec, ok := bindRecord(c, schema)
			if !ok {
				return nil
			}
			// ключ назначает база (или ULID-генератор), клиентский игнорируем
			delete(rec, kf.Field)

			res, err := repo.Persist(c.Request.Context(), &rec)
			if err != nil {
				return err
			}
			logging.FromGin(c, storage.log).InfoContext(c.Request.Context(), "record created",
				"entity", schema.Name, "key", res.Key)
			c.JSON(http.StatusCreated, dsl.Flatten(rec))
			return nil
		})
		if err != nil {
			storage.abortWith(c, statusFor(err), err)
		}
	}
}

// GET /api/:entity?where=<raw filter>
func ListHandler(storage *Storage) gin.HandlerFunc {
	return func(c *gin.Context) {
		name, ok := resolve(c, storage)
		if !ok {
			return
		}
		where := c.Query("where")
		err := storage.with(name, func(_ *dsl.Entity, repo *orm.Repository[dsl.Record]) error {
			recs, err := repo.Find(c.Request.Context(), where)
			if err != nil {
				return err
			}
			out := make([]map[string]any, 0, len(recs))
			for _, r := range recs {
				out = append(out, dsl.Flatten(r))
			}
			c.Header("X-Total-Count", strconv.Itoa(len(out)))
			c.JSON(http.StatusOK, out)
			return nil
		})
		if err != nil {
			storage.abortWith(c, filterStatus(err, where), err)
		}
	}
}

// GET /api/:entity/_first?where=<raw filter>
func FirstHandler(storage *Storage) gin.HandlerFunc {
	return func(c *gin.Context) {
		name, ok := resolve(c, storage)
		if !ok {
			return
		}
		where := c.Query("where")
		err := storage.with(name, func(_ *dsl.Entity, repo *orm.Repository[dsl.Record]) error {
			rec, err := repo.FindFirst(c.Request.Context(), where)
			if err != nil {
				return err
			}
			c.JSON(http.StatusOK, dsl.Flatten(rec))
			return nil
		})
		if err != nil {
			storage.abortWith(c, filterStatus(err, where), err)
		}
	}
}

// ошибка выполнения при непустом фильтре — почти всегда кривой фильтр клиента
func filterStatus(err error, where string) int {
	if where != "" && errors.Is(err, orm.ErrExecution) {
		return http.StatusBadRequest
	}
	return statusFor(err)
}

// GET /api/:entity/:id
func GetOneHandler(storage *Storage) gin.HandlerFunc {
	return func(c *gin.Context) {
		name, ok := resolve(c, storage)
		if !ok {
			return
		}
		err := storage.with(name, func(_ *dsl.Entity, repo *orm.Repository[dsl.Record]) error {
			kf, err := repo.KeyField()
			if err != nil {
				return err
			}
			id, err := parseKey(kf.Column, c.Param("id"))
			if err != nil {
				c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return nil
			}
			rec, err := repo.FindFirst(c.Request.Context(), storage.keyFilter(kf.Column, id))
			if err != nil {
				return err
			}
			c.JSON(http.StatusOK, dsl.Flatten(rec))
			return nil
		})
		if err != nil {
			storage.abortWith(c, statusFor(err), err)
		}
	}
}

// PUT /api/:entity/:id — полная замена: поля, которых нет в теле, станут нулевыми.
func UpdateHandler(storage *Storage) gin.HandlerFunc {
	return func(c *gin.Context) {
		name, ok := resolve(c, storage)
		if !ok {
			return
		}
		err := storage.with(name, func(schema *dsl.Entity, repo *orm.Repository[dsl.Record]) error {
			kf, err := repo.KeyField()
			if err != nil {
				return err
			}
			id, err := parseKey(kf.Column, c.Param("id"))
			if err != nil {
				c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return nil
			}
			rec, ok := bindRecord(c, schema)
			if !ok {
				return nil
			}
			if err := kf.Set(&rec, id); err != nil {
				return err
			}

			res, err := repo.Persist(c.Request.Context(), &rec)
			if err != nil {
				return err
			}
			if res.RowsAffected == 0 {
				c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Record not found"})
				return nil
			}
			c.JSON(http.StatusOK, dsl.Flatten(rec))
			return nil
		})
		if err != nil {
			storage.abortWith(c, statusFor(err), err)
		}
	}
}

// DELETE /api/:entity/:id
func DeleteHandler(storage *Storage) gin.HandlerFunc {
	return func(c *gin.Context) {
		name, ok := resolve(c, storage)
		if !ok {
			return
		}
		err := storage.with(name, func(_ *dsl.Entity, repo *orm.Repository[dsl.Record]) error {
			kf, err := repo.KeyField()
			if err != nil {
				return err
			}
			id, err := parseKey(kf.Column, c.Param("id"))
			if err != nil {
				c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return nil
			}
			rec := dsl.Record{}
			if err := kf.Set(&rec, id); err != nil {
				return err
			}
			n, err := repo.Delete(c.Request.Context(), &rec)
			if err != nil {
				return err
			}
			if n == 0 {
				c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Record not found"})
				return nil
			}
			logging.FromGin(c, storage.log).InfoContext(c.Request.Context(), "record deleted",
				"entity", repo.Entity().StorageName(), "key", id)
			c.Status(http.StatusNoContent)
			return nil
		})
		if err != nil {
			storage.abortWith(c, statusFor(err), err)
		}
	}
}
