// Package record 提供照片元数据记录的业务逻辑
// 包含字段映射、字段校验、增删改查、搜索和统计
package record

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/weiwangfds/photometa/internal/database"
	apperrors "github.com/weiwangfds/photometa/internal/errors"
	"github.com/weiwangfds/photometa/internal/logger"
	"gorm.io/gorm"
)

// Outcome 创建记录的结果类型
type Outcome string

const (
	OutcomeInserted  Outcome = "inserted"
	OutcomeDuplicate Outcome = "duplicate"
	OutcomeRejected  Outcome = "rejected"
)

// CreateResult 创建记录的结果
// 重复和校验失败都是预期结果，不作为 error 返回
type CreateResult struct {
	Outcome Outcome
	// Record 新插入的记录，仅 OutcomeInserted 时有值
	Record *database.PhotoMetadata
	// Reason 拒绝或重复的原因
	Reason *apperrors.AppError
}

// TagCount 标签使用次数
type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

// Stats 记录统计信息
type Stats struct {
	TotalRecords int64            `json:"total_records"`
	TotalSize    int64            `json:"total_size"`
	FormatStats  map[string]int64 `json:"format_stats"`
	TopTags      []TagCount       `json:"top_tags"`
}

// Service 记录服务接口
type Service interface {
	// Create 校验并插入一条记录
	// 参数:
	//   ctx - 请求上下文
	//   in - 输入字段
	// 返回:
	//   CreateResult - Inserted / Duplicate / Rejected 之一
	//   error - 仅在存储故障时返回
	Create(ctx context.Context, in *Input) (CreateResult, error)

	// CreateFromFields 通过字段映射器构造输入后创建记录，用于表单和JSON提交
	CreateFromFields(ctx context.Context, fields map[string]interface{}) (CreateResult, error)

	// Get 根据ID获取记录，不存在返回 NotFound
	Get(ctx context.Context, id uint) (*database.PhotoMetadata, error)

	// Update 校验并更新记录，created_date 保持不变
	// 返回:
	//   error - 校验失败返回 ValidationError，重复键返回 DuplicateKey，不存在返回 NotFound
	Update(ctx context.Context, id uint, in *Input) (*database.PhotoMetadata, error)

	// UpdateFromFields 通过字段映射器构造输入后更新记录
	UpdateFromFields(ctx context.Context, id uint, fields map[string]interface{}) (*database.PhotoMetadata, error)

	// Delete 物理删除记录，不存在返回 NotFound
	Delete(ctx context.Context, id uint) error

	// Search 在文件名、相机品牌、相机型号、描述和标签中做不区分大小写的子串匹配
	// 结果按创建时间倒序；查询为空时返回全部记录
	Search(ctx context.Context, query string) ([]database.PhotoMetadata, error)

	// FindByKey 按重复判定键查找记录，不存在时返回 nil, nil
	FindByKey(ctx context.Context, key database.PhotoKey) (*database.PhotoMetadata, error)

	// Stats 统计记录总数、总大小、各格式数量和常用标签
	Stats(ctx context.Context) (*Stats, error)
}

// recordService 记录服务实现
type recordService struct {
	db *gorm.DB
}

// NewRecordService 创建记录服务实例
func NewRecordService(db *gorm.DB) Service {
	return &recordService{db: db}
}

// Create 创建记录
func (s *recordService) Create(ctx context.Context, in *Input) (CreateResult, error) {
	if err := Validate(in); err != nil {
		appErr, _ := apperrors.GetAppError(err)
		return CreateResult{Outcome: OutcomeRejected, Reason: appErr}, nil
	}

	rec := &database.PhotoMetadata{}
	in.applyTo(rec)

	if err := s.db.WithContext(ctx).Create(rec).Error; err != nil {
		if IsDuplicateError(err) {
			logger.Infof("duplicate record rejected by store: %s (%s, %d bytes, %dx%d)",
				in.Filename, in.Format, in.FileSize, in.Width, in.Height)
			return CreateResult{Outcome: OutcomeDuplicate, Reason: duplicateError(in.Key())}, nil
		}
		logger.Errorf("failed to create record %s: %v", in.Filename, err)
		return CreateResult{}, apperrors.Wrap(apperrors.ErrDatabase, "", err)
	}

	logger.Infof("record created: id=%d filename=%s", rec.ID, rec.Filename)
	return CreateResult{Outcome: OutcomeInserted, Record: rec}, nil
}

// CreateFromFields 由键值对创建记录
func (s *recordService) CreateFromFields(ctx context.Context, fields map[string]interface{}) (CreateResult, error) {
	in, err := MapFields(fields)
	if err != nil {
		appErr, _ := apperrors.GetAppError(err)
		return CreateResult{Outcome: OutcomeRejected, Reason: appErr}, nil
	}
	return s.Create(ctx, in)
}

// Get 获取记录
func (s *recordService) Get(ctx context.Context, id uint) (*database.PhotoMetadata, error) {
	var rec database.PhotoMetadata
	if err := s.db.WithContext(ctx).First(&rec, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.New(apperrors.ErrRecordNotFound, "").WithDetails(fmt.Sprintf("id %d", id))
		}
		return nil, apperrors.Wrap(apperrors.ErrDatabase, "", err)
	}
	return &rec, nil
}

// Update 更新记录
func (s *recordService) Update(ctx context.Context, id uint, in *Input) (*database.PhotoMetadata, error) {
	rec, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.save(ctx, rec, in)
}

// UpdateFromFields 由键值对更新记录
// 记录不存在时优先返回 NotFound
func (s *recordService) UpdateFromFields(ctx context.Context, id uint, fields map[string]interface{}) (*database.PhotoMetadata, error) {
	rec, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	in, err := MapFields(fields)
	if err != nil {
		return nil, err
	}
	return s.save(ctx, rec, in)
}

// save 校验输入并写回已加载的记录
func (s *recordService) save(ctx context.Context, rec *database.PhotoMetadata, in *Input) (*database.PhotoMetadata, error) {
	if err := Validate(in); err != nil {
		return nil, err
	}

	in.applyTo(rec)
	if err := s.db.WithContext(ctx).Save(rec).Error; err != nil {
		if IsDuplicateError(err) {
			return nil, duplicateError(in.Key())
		}
		logger.Errorf("failed to update record %d: %v", rec.ID, err)
		return nil, apperrors.Wrap(apperrors.ErrDatabase, "", err)
	}

	logger.Infof("record updated: id=%d", rec.ID)
	return rec, nil
}

// Delete 删除记录
func (s *recordService) Delete(ctx context.Context, id uint) error {
	result := s.db.WithContext(ctx).Delete(&database.PhotoMetadata{}, id)
	if result.Error != nil {
		return apperrors.Wrap(apperrors.ErrDatabase, "", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.New(apperrors.ErrRecordNotFound, "").WithDetails(fmt.Sprintf("id %d", id))
	}
	logger.Infof("record deleted: id=%d", id)
	return nil
}

// Search 搜索记录
// 在内存中过滤，保证非ASCII字符也能不区分大小写
func (s *recordService) Search(ctx context.Context, query string) ([]database.PhotoMetadata, error) {
	var all []database.PhotoMetadata
	if err := s.db.WithContext(ctx).Order("created_date DESC").Order("id DESC").Find(&all).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrDatabase, "", err)
	}

	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return all, nil
	}

	matched := make([]database.PhotoMetadata, 0, len(all))
	for _, rec := range all {
		for _, field := range []string{rec.Filename, rec.CameraMake, rec.CameraModel, rec.Description, rec.Tags} {
			if strings.Contains(strings.ToLower(field), q) {
				matched = append(matched, rec)
				break
			}
		}
	}
	return matched, nil
}

// FindByKey 按重复判定键查找
func (s *recordService) FindByKey(ctx context.Context, key database.PhotoKey) (*database.PhotoMetadata, error) {
	var rec database.PhotoMetadata
	err := s.db.WithContext(ctx).
		Where("filename = ? AND format = ? AND file_size = ? AND width = ? AND height = ?",
			key.Filename, key.Format, key.FileSize, key.Width, key.Height).
		Take(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, apperrors.Wrap(apperrors.ErrDatabase, "", err)
	}
	return &rec, nil
}

// Stats 获取统计信息
func (s *recordService) Stats(ctx context.Context) (*Stats, error) {
	db := s.db.WithContext(ctx)
	stats := &Stats{FormatStats: map[string]int64{}, TopTags: []TagCount{}}

	var totals struct {
		Count int64
		Size  int64
	}
	if err := db.Model(&database.PhotoMetadata{}).
		Select("COUNT(*) AS count, COALESCE(SUM(file_size), 0) AS size").
		Scan(&totals).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrDatabase, "", err)
	}
	stats.TotalRecords = totals.Count
	stats.TotalSize = totals.Size

	var formats []struct {
		Format string
		Count  int64
	}
	if err := db.Model(&database.PhotoMetadata{}).
		Select("format, COUNT(*) AS count").
		Group("format").
		Scan(&formats).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrDatabase, "", err)
	}
	for _, f := range formats {
		stats.FormatStats[f.Format] = f.Count
	}

	var tagRows []string
	if err := db.Model(&database.PhotoMetadata{}).
		Where("tags <> ''").
		Pluck("tags", &tagRows).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrDatabase, "", err)
	}
	stats.TopTags = topTags(tagRows, 10)

	return stats, nil
}

// topTags 统计逗号分隔标签的使用次数，不区分大小写，保留首次出现的写法
func topTags(rows []string, limit int) []TagCount {
	counts := map[string]*TagCount{}
	var order []string
	for _, row := range rows {
		for _, raw := range strings.Split(row, ",") {
			tag := strings.TrimSpace(raw)
			if tag == "" {
				continue
			}
			key := strings.ToLower(tag)
			if tc, ok := counts[key]; ok {
				tc.Count++
				continue
			}
			counts[key] = &TagCount{Tag: tag, Count: 1}
			order = append(order, key)
		}
	}

	result := make([]TagCount, 0, len(order))
	for _, key := range order {
		result = append(result, *counts[key])
	}
	sort.SliceStable(result, func(i, j int) bool { return result[i].Count > result[j].Count })
	if len(result) > limit {
		result = result[:limit]
	}
	return result
}

// IsDuplicateError 判断存储层错误是否为唯一约束冲突
func IsDuplicateError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint failed") ||
		strings.Contains(msg, "duplicate entry") ||
		strings.Contains(msg, "duplicate key value")
}

func duplicateError(key database.PhotoKey) *apperrors.AppError {
	return apperrors.New(apperrors.ErrDuplicateKey, "").
		WithFields("filename", "format", "file_size", "width", "height").
		WithDetails(fmt.Sprintf("%s (%s, %d bytes, %dx%d)", key.Filename, key.Format, key.FileSize, key.Width, key.Height))
}
