package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
)

var startTime = time.Now()

const version = "1.0.0"

// HealthCheck reports server health plus DB and Redis reachability.
func HealthCheck(db *sqlx.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		dbStatus := "ok"
		if err := db.PingContext(ctx); err != nil {
			dbStatus = "down"
		}

		redisStatus := "ok"
		if rdb == nil {
			redisStatus = "not configured"
		} else if err := rdb.Ping(ctx).Err(); err != nil {
			redisStatus = "down"
		}

		status := http.StatusOK
		if dbStatus != "ok" {
			status = http.StatusServiceUnavailable
		}

		c.JSON(status, gin.H{
			"status":  dbStatus,
			"service": "cueladder-api",
			"version": version,
			"uptime":  time.Since(startTime).String(),
			"db":      dbStatus,
			"redis":   redisStatus,
		})
	}
}
