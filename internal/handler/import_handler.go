package handler

import (
	"github.com/gin-gonic/gin"
	apperrors "github.com/weiwangfds/photometa/internal/errors"
	"github.com/weiwangfds/photometa/internal/response"
	"github.com/weiwangfds/photometa/internal/service/importer"
)

// ImportHandler JSON文件导入处理器
type ImportHandler struct {
	pipeline importer.Pipeline
}

// NewImportHandler 创建导入处理器实例
func NewImportHandler(pipeline importer.Pipeline) *ImportHandler {
	return &ImportHandler{pipeline: pipeline}
}

// UploadFile 上传并导入JSON文件
// @Summary 上传JSON文件
// @Description 文件可以包含单个对象或对象数组，部分记录失败时仍返回200和汇总
// @Tags 导入
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "JSON文件"
// @Success 200 {object} response.Response{data=importer.Report} "导入完成"
// @Failure 400 {object} response.Response "文件结构无效"
// @Failure 413 {object} response.Response "文件过大"
// @Failure 415 {object} response.Response "扩展名不是.json"
// @Router /api/v1/imports/upload [post]
func (h *ImportHandler) UploadFile(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		response.FromError(c, apperrors.New(apperrors.ErrInvalidParams, "").
			WithDetails("missing multipart field \"file\"").WithFields("file"))
		return
	}

	src, err := file.Open()
	if err != nil {
		response.FromError(c, apperrors.Wrap(apperrors.ErrIOFailure, "", err))
		return
	}
	defer src.Close()

	report, err := h.pipeline.Import(c.Request.Context(), file.Filename, src)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.SuccessWithMessage(c, report.Summary(response.Lang(c)), report)
}

// ListImports 列出导入记录
// @Router /api/v1/imports [get]
func (h *ImportHandler) ListImports(c *gin.Context) {
	files, err := h.pipeline.ListImports(c.Request.Context())
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, gin.H{"imports": files, "total": len(files)})
}
