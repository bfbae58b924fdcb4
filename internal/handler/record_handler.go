package handler

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/weiwangfds/photometa/internal/database"
	apperrors "github.com/weiwangfds/photometa/internal/errors"
	"github.com/weiwangfds/photometa/internal/logger"
	"github.com/weiwangfds/photometa/internal/metrics"
	"github.com/weiwangfds/photometa/internal/response"
	"github.com/weiwangfds/photometa/internal/service/export"
	"github.com/weiwangfds/photometa/internal/service/record"
)

// 表单保存选项
const (
	SaveOptionFile = "file"
	SaveOptionDB   = "db"
	SaveOptionBoth = "both"
)

// saveOptionField 表单中的保存选项字段，不属于记录字段
const saveOptionField = "save_option"

// RecordHandler 照片元数据记录处理器
type RecordHandler struct {
	records record.Service
	exports export.Service
}

// NewRecordHandler 创建记录处理器实例
func NewRecordHandler(records record.Service, exports export.Service) *RecordHandler {
	return &RecordHandler{records: records, exports: exports}
}

// CreateRecordResponse 创建记录的响应数据
type CreateRecordResponse struct {
	Record *database.PhotoMetadata `json:"record,omitempty"`
	Export *export.Result          `json:"export,omitempty"`
}

// CreateRecord 提交表单创建记录
// @Summary 创建照片元数据记录
// @Description 接受JSON或表单，save_option 可选 file、db、both，默认 both
// @Tags 记录管理
// @Accept json,x-www-form-urlencoded
// @Produce json
// @Success 201 {object} response.Response{data=CreateRecordResponse} "创建成功"
// @Failure 409 {object} response.Response "记录重复"
// @Failure 422 {object} response.Response "字段校验失败"
// @Router /api/v1/records [post]
func (h *RecordHandler) CreateRecord(c *gin.Context) {
	fields, err := bindFields(c)
	if err != nil {
		response.FromError(c, err)
		return
	}

	option, err := takeSaveOption(c, fields)
	if err != nil {
		response.FromError(c, err)
		return
	}

	ctx := c.Request.Context()
	if option == SaveOptionFile {
		in, err := record.MapFields(fields)
		if err != nil {
			response.FromError(c, err)
			return
		}
		result, err := h.exports.ExportCandidate(ctx, in)
		if err != nil {
			response.FromError(c, err)
			return
		}
		response.Created(c, translate(c, "record_exported", result.FileName), CreateRecordResponse{Export: result})
		return
	}

	created, err := h.records.CreateFromFields(ctx, fields)
	if err != nil {
		response.FromError(c, err)
		return
	}
	metrics.RecordCreate("form", string(created.Outcome))
	if created.Outcome != record.OutcomeInserted {
		response.FromError(c, created.Reason)
		return
	}

	if option == SaveOptionDB {
		response.Created(c, translate(c, "record_saved"), CreateRecordResponse{Record: created.Record})
		return
	}

	result, err := h.exports.ExportRecord(ctx, created.Record)
	if err != nil {
		// 记录已入库，导出失败只影响提示
		logger.Errorf("record %d saved but export failed: %v", created.Record.ID, err)
		response.Created(c, translate(c, "record_saved"), CreateRecordResponse{Record: created.Record})
		return
	}
	response.Created(c, translate(c, "record_saved_export", result.FileName), CreateRecordResponse{
		Record: created.Record,
		Export: result,
	})
}

// takeSaveOption 从字段或查询参数中取出保存选项
func takeSaveOption(c *gin.Context, fields map[string]interface{}) (string, error) {
	option := c.Query(saveOptionField)
	if v, ok := fields[saveOptionField]; ok {
		if s, ok := v.(string); ok {
			option = s
		}
		delete(fields, saveOptionField)
	}

	switch option = strings.ToLower(strings.TrimSpace(option)); option {
	case "":
		return SaveOptionBoth, nil
	case SaveOptionFile, SaveOptionDB, SaveOptionBoth:
		return option, nil
	default:
		return "", apperrors.New(apperrors.ErrInvalidParams, "").
			WithDetails("save_option must be one of file, db, both").WithFields(saveOptionField)
	}
}

// ListRecords 列出或搜索记录
// @Summary 搜索照片元数据记录
// @Description q 为空时按创建时间倒序返回全部记录
// @Tags 记录管理
// @Produce json
// @Param q query string false "搜索关键词"
// @Success 200 {object} response.Response{data=[]database.PhotoMetadata}
// @Router /api/v1/records [get]
func (h *RecordHandler) ListRecords(c *gin.Context) {
	records, err := h.records.Search(c.Request.Context(), c.Query("q"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, gin.H{
		"records": records,
		"total":   len(records),
		"query":   c.Query("q"),
	})
}

// GetStats 记录统计
// @Router /api/v1/records/stats [get]
func (h *RecordHandler) GetStats(c *gin.Context) {
	stats, err := h.records.Stats(c.Request.Context())
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, stats)
}

// GetRecord 获取单条记录
// @Router /api/v1/records/{id} [get]
func (h *RecordHandler) GetRecord(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		response.FromError(c, err)
		return
	}
	rec, err := h.records.Get(c.Request.Context(), id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, rec)
}

// UpdateRecord 更新记录
// @Summary 更新照片元数据记录
// @Description 与创建使用相同的字段校验，created_date 不会被修改
// @Tags 记录管理
// @Router /api/v1/records/{id} [put]
func (h *RecordHandler) UpdateRecord(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		response.FromError(c, err)
		return
	}
	fields, err := bindFields(c)
	if err != nil {
		response.FromError(c, err)
		return
	}
	delete(fields, saveOptionField)

	rec, err := h.records.UpdateFromFields(c.Request.Context(), id, fields)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.SuccessWithMessage(c, translate(c, "record_updated"), rec)
}

// DeleteRecord 删除记录
// @Router /api/v1/records/{id} [delete]
func (h *RecordHandler) DeleteRecord(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		response.FromError(c, err)
		return
	}
	if err := h.records.Delete(c.Request.Context(), id); err != nil {
		response.FromError(c, err)
		return
	}
	response.SuccessWithMessage(c, translate(c, "record_deleted"), gin.H{"id": id})
}

// ExportRecord 将已存储的记录导出为JSON文件
// @Router /api/v1/records/{id}/export [post]
func (h *RecordHandler) ExportRecord(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		response.FromError(c, err)
		return
	}
	ctx := c.Request.Context()
	rec, err := h.records.Get(ctx, id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	result, err := h.exports.ExportRecord(ctx, rec)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Created(c, translate(c, "record_exported", result.FileName), result)
}
