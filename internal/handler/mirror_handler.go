package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/weiwangfds/photometa/internal/response"
	"github.com/weiwangfds/photometa/internal/service/mirror"
)

// MirrorHandler 导出镜像处理器
type MirrorHandler struct {
	mirror mirror.Service
}

// NewMirrorHandler 创建镜像处理器实例
func NewMirrorHandler(svc mirror.Service) *MirrorHandler {
	return &MirrorHandler{mirror: svc}
}

// GetLogs 获取镜像日志
// @Summary 获取镜像日志
// @Tags 镜像
// @Produce json
// @Param limit query int false "返回数量" default(50)
// @Router /api/v1/mirror/logs [get]
func (h *MirrorHandler) GetLogs(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	logs, err := h.mirror.Logs(c.Request.Context(), limit)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, gin.H{"enabled": h.mirror.Enabled(), "logs": logs, "total": len(logs)})
}

// TestConnection 测试对象存储连接
// @Router /api/v1/mirror/test [post]
func (h *MirrorHandler) TestConnection(c *gin.Context) {
	if err := h.mirror.TestConnection(c.Request.Context()); err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, gin.H{"connected": true})
}

// RetryFailed 重试失败的镜像
// @Router /api/v1/mirror/retry/{id} [post]
func (h *MirrorHandler) RetryFailed(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		response.FromError(c, err)
		return
	}
	entry, err := h.mirror.RetryFailed(c.Request.Context(), id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, entry)
}

// DeleteLog 删除镜像对象及日志
// @Summary 删除镜像
// @Tags 镜像
// @Param id path int true "镜像日志ID"
// @Router /api/v1/mirror/logs/{id} [delete]
func (h *MirrorHandler) DeleteLog(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		response.FromError(c, err)
		return
	}
	if err := h.mirror.Remove(c.Request.Context(), id); err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, gin.H{"id": id})
}
