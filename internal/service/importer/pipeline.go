package importer

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/weiwangfds/photometa/internal/database"
	apperrors "github.com/weiwangfds/photometa/internal/errors"
	"github.com/weiwangfds/photometa/internal/i18n"
	"github.com/weiwangfds/photometa/internal/logger"
	"github.com/weiwangfds/photometa/internal/metrics"
	"github.com/weiwangfds/photometa/internal/service/filestore"
	"github.com/weiwangfds/photometa/internal/service/record"
	"gorm.io/gorm"
)

// Diagnostic 单条候选记录的错误说明
type Diagnostic struct {
	Index   int      `json:"index"`
	Message string   `json:"message"`
	Fields  []string `json:"fields,omitempty"`
}

// Report 一次导入的汇总结果
// 部分成功是正常结果
type Report struct {
	ImportID     uint         `json:"import_id"`
	File         string       `json:"file"`
	OriginalName string       `json:"original_name"`
	Total        int          `json:"total"`
	Inserted     int          `json:"inserted"`
	Duplicates   int          `json:"duplicates"`
	Errors       int          `json:"errors"`
	Diagnostics  []Diagnostic `json:"diagnostics"`
}

// Summary 返回指定语言的汇总消息
func (r *Report) Summary(lang string) string {
	return fmt.Sprintf(i18n.GetInstance().Translate("import_completed", lang),
		r.OriginalName, r.Inserted, r.Duplicates, r.Errors)
}

// Pipeline 导入流程接口
type Pipeline interface {
	// Import 导入一个上传的JSON文件
	// 参数:
	//   ctx - 请求上下文
	//   originalName - 上传时的文件名，仅用于扩展名检查和展示
	//   r - 上传内容
	// 返回:
	//   *Report - 插入、重复、错误的计数
	//   error - 扩展名错误、文件过大、存储失败或结构校验失败
	// 流程:
	//   - 扩展名不是 .json 时直接拒绝，不产生任何状态
	//   - 以生成的文件名保存到 uploads 桶
	//   - 结构校验失败时删除文件，写入无效的导入记录
	//   - 逐条映射、去重、入库，单条失败不影响其他记录
	Import(ctx context.Context, originalName string, r io.Reader) (*Report, error)

	// ListImports 列出导入记录，按上传时间倒序
	ListImports(ctx context.Context) ([]database.ImportedFile, error)
}

type pipeline struct {
	db            *gorm.DB
	store         filestore.Store
	records       record.Service
	maxUploadSize int64
}

// NewPipeline 创建导入流程实例
func NewPipeline(db *gorm.DB, store filestore.Store, records record.Service, maxUploadSize int64) Pipeline {
	return &pipeline{
		db:            db,
		store:         store,
		records:       records,
		maxUploadSize: maxUploadSize,
	}
}

// Import 导入上传的JSON文件
func (p *pipeline) Import(ctx context.Context, originalName string, r io.Reader) (*Report, error) {
	displayName := filepath.Base(originalName)
	if !strings.HasSuffix(strings.ToLower(displayName), ".json") {
		return nil, apperrors.New(apperrors.ErrUnsupportedExtension, "").WithDetails(displayName)
	}

	path, size, err := p.store.SaveRaw(ctx, filestore.BucketUploads, p.store.GenerateName(), r, p.maxUploadSize)
	if err != nil {
		logger.Errorf("failed to store upload %s: %v", displayName, err)
		return nil, err
	}

	verdict := CheckFile(ctx, p.store, path)
	imported := &database.ImportedFile{
		File:         path,
		OriginalName: displayName,
		IsValid:      verdict.Valid,
		Message:      verdict.Message,
	}

	if !verdict.Valid {
		metrics.RecordImport("invalid", size)
		logger.Warnf("upload %s rejected: %s", displayName, verdict.Message)
		if err := p.store.Delete(ctx, path); err != nil {
			logger.Errorf("failed to delete invalid upload %s: %v", path, err)
		}
		if err := p.db.WithContext(ctx).Create(imported).Error; err != nil {
			logger.Errorf("failed to record invalid upload %s: %v", displayName, err)
		}
		return nil, verdict.Err()
	}

	metrics.RecordImport("valid", size)
	if err := p.db.WithContext(ctx).Create(imported).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrDatabase, "", err)
	}

	value, err := p.store.Read(ctx, path)
	if err != nil {
		return nil, err
	}
	candidates := normalize(value)

	report := &Report{
		ImportID:     imported.ID,
		File:         filepath.Base(path),
		OriginalName: displayName,
		Total:        len(candidates),
		Diagnostics:  []Diagnostic{},
	}
	for i, candidate := range candidates {
		p.reconcile(ctx, i, candidate, report)
	}

	logger.Infof("import of %s completed: %d inserted, %d duplicates, %d errors",
		displayName, report.Inserted, report.Duplicates, report.Errors)
	return report, nil
}

// reconcile 处理单条候选记录，结果累计到 report
func (p *pipeline) reconcile(ctx context.Context, index int, candidate map[string]interface{}, report *Report) {
	fail := func(err error) {
		report.Errors++
		d := Diagnostic{Index: index, Message: err.Error()}
		if appErr, ok := apperrors.GetAppError(err); ok {
			d.Message = appErr.Details
			if d.Message == "" {
				d.Message = appErr.Message
			}
			d.Fields = appErr.Fields
		}
		report.Diagnostics = append(report.Diagnostics, d)
		metrics.RecordCreate("import", string(record.OutcomeRejected))
	}

	for _, key := range record.ServerAssignedFields {
		delete(candidate, key)
	}

	in, err := record.MapFields(candidate)
	if err != nil {
		fail(err)
		return
	}
	if err := record.Validate(in); err != nil {
		fail(err)
		return
	}

	existing, err := p.records.FindByKey(ctx, in.Key())
	if err != nil {
		fail(err)
		return
	}
	if existing != nil {
		report.Duplicates++
		metrics.RecordCreate("import", string(record.OutcomeDuplicate))
		return
	}

	result, err := p.records.Create(ctx, in)
	if err != nil {
		fail(err)
		return
	}
	switch result.Outcome {
	case record.OutcomeInserted:
		report.Inserted++
		metrics.RecordCreate("import", string(record.OutcomeInserted))
	case record.OutcomeDuplicate:
		report.Duplicates++
		metrics.RecordCreate("import", string(record.OutcomeDuplicate))
	default:
		fail(result.Reason)
	}
}

// ListImports 列出导入记录
func (p *pipeline) ListImports(ctx context.Context) ([]database.ImportedFile, error) {
	var files []database.ImportedFile
	if err := p.db.WithContext(ctx).Order("upload_date DESC").Order("id DESC").Find(&files).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrDatabase, "", err)
	}
	return files, nil
}

// normalize 将单个对象或对象数组统一为记录序列
func normalize(value interface{}) []map[string]interface{} {
	switch v := value.(type) {
	case map[string]interface{}:
		return []map[string]interface{}{v}
	case []interface{}:
		out := make([]map[string]interface{}, 0, len(v))
		for _, item := range v {
			if obj, ok := item.(map[string]interface{}); ok {
				out = append(out, obj)
			}
		}
		return out
	default:
		return nil
	}
}
