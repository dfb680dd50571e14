package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"yatube/internal/repository/rdb"
	"yatube/internal/repository/redis"
)

type HealthHandler struct {
	db *gorm.DB
}

func NewHealthHandler(db *gorm.DB) *HealthHandler {
	return &HealthHandler{db: db}
}

// Health reports the database and redis state; only a down database makes
// the service unhealthy.
func (h *HealthHandler) Health(c *gin.Context) {
	db := rdb.Health(c.Request.Context(), h.db)
	status := http.StatusOK
	if db["status"] != "up" {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{
		"db":    db,
		"redis": redis.Health(c.Request.Context()),
	})
}
