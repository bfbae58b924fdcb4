package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/weiwangfds/photometa/config"
	apperrors "github.com/weiwangfds/photometa/internal/errors"
	"github.com/weiwangfds/photometa/internal/response"
	"gorm.io/gorm"
)

// Version 服务版本
const Version = "1.0.0"

// SystemHandler 服务信息和数据库状态
type SystemHandler struct {
	db  *gorm.DB
	cfg *config.Config
}

// NewSystemHandler 创建系统处理器实例
func NewSystemHandler(db *gorm.DB, cfg *config.Config) *SystemHandler {
	return &SystemHandler{db: db, cfg: cfg}
}

// Info 基础信息
// @Router /api/v1/info [get]
func (h *SystemHandler) Info(c *gin.Context) {
	response.Success(c, gin.H{
		"service":        h.cfg.App.Name,
		"version":        Version,
		"status":         "running",
		"database":       h.cfg.Database.Driver,
		"mirror_enabled": h.cfg.Mirror.Enabled,
		"language":       response.Lang(c),
	})
}

// DBStatus 数据库连接检查
// @Router /api/v1/db/status [get]
func (h *SystemHandler) DBStatus(c *gin.Context) {
	sqlDB, err := h.db.DB()
	if err != nil {
		response.FromError(c, apperrors.Wrap(apperrors.ErrDatabase, "", err))
		return
	}
	if err := sqlDB.PingContext(c.Request.Context()); err != nil {
		response.FromError(c, apperrors.Wrap(apperrors.ErrDatabase, "", err).WithDetails("database ping failed"))
		return
	}

	stats := sqlDB.Stats()
	response.Success(c, gin.H{
		"status":           "ok",
		"open_connections": stats.OpenConnections,
		"in_use":           stats.InUse,
		"idle":             stats.Idle,
	})
}
