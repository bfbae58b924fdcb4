package handler

import (
	"os"

	"github.com/gin-gonic/gin"
	apperrors "github.com/weiwangfds/photometa/internal/errors"
	"github.com/weiwangfds/photometa/internal/response"
	"github.com/weiwangfds/photometa/internal/service/filestore"
)

// FileHandler 已存储JSON文件的浏览处理器
type FileHandler struct {
	store filestore.Store
}

// NewFileHandler 创建文件处理器实例
func NewFileHandler(store filestore.Store) *FileHandler {
	return &FileHandler{store: store}
}

// ListFiles 列出桶中的JSON文件
// @Summary 列出JSON文件
// @Description bucket 可选 exports、uploads，默认 exports，按修改时间倒序
// @Tags 文件管理
// @Produce json
// @Param bucket query string false "存储桶"
// @Success 200 {object} response.Response{data=[]filestore.FileInfo}
// @Router /api/v1/files [get]
func (h *FileHandler) ListFiles(c *gin.Context) {
	bucket, err := filestore.ParseBucket(c.Query("bucket"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	files, err := h.store.List(c.Request.Context(), bucket)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, gin.H{"bucket": bucket, "files": files, "total": len(files)})
}

// GetFileContent 查看JSON文件内容
// 文件名只取最后一段，不能访问桶以外的路径
// @Router /api/v1/files/{name} [get]
func (h *FileHandler) GetFileContent(c *gin.Context) {
	bucket, err := filestore.ParseBucket(c.Query("bucket"))
	if err != nil {
		response.FromError(c, err)
		return
	}

	ctx := c.Request.Context()
	path, err := h.store.Open(ctx, bucket, c.Param("name"))
	if err != nil {
		response.FromError(c, err)
		return
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		response.FromError(c, apperrors.Wrap(apperrors.ErrIOFailure, "", err))
		return
	}
	content, err := h.store.Read(ctx, path)
	data := gin.H{"name": c.Param("name"), "bucket": bucket, "raw": string(raw)}
	if err == nil {
		data["content"] = content
	} else {
		// 内容不是合法JSON时仍返回原文
		data["parse_error"] = err.Error()
	}
	response.Success(c, data)
}
