package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"boltnexus/database"
	"boltnexus/utils"
)

const healthCheckTimeout = 2 * time.Second

type HealthController struct {
	db *gorm.DB
}

func NewHealthController(db *gorm.DB) *HealthController {
	return &HealthController{db: db}
}

func (hc *HealthController) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": msgServiceRunning})
}

// Healthz reports 503 when the database does not answer
func (hc *HealthController) Healthz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
	defer cancel()

	if err := database.Ping(ctx, hc.db); err != nil {
		utils.GetLoggerWith(utils.LoggerNameHTTP).Error("Health check failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": msgDatabaseUnavailable})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
