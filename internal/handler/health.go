package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Health reports whether Postgres and the job broker answer a ping.
// A failing dependency yields 503; no error text is exposed.
func Health(db *gorm.DB, rdb redis.UniversalClient) gin.HandlerFunc {
	checks := map[string]func(ctx context.Context) error{
		"db": func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
		"redis": func(ctx context.Context) error {
			if rdb == nil {
				return redis.ErrClosed
			}
			return rdb.Ping(ctx).Err()
		},
	}
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		body := gin.H{"ok": true}
		status := http.StatusOK
		for name, check := range checks {
			if err := check(ctx); err != nil {
				body[name] = "error"
				body["ok"] = false
				status = http.StatusServiceUnavailable
				continue
			}
			body[name] = "connected"
		}
		c.JSON(status, body)
	}
}
