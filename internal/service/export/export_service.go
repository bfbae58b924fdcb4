// Package export 将记录导出为JSON文件
package export

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/weiwangfds/photometa/internal/database"
	"github.com/weiwangfds/photometa/internal/logger"
	"github.com/weiwangfds/photometa/internal/service/filestore"
	"github.com/weiwangfds/photometa/internal/service/record"
)

// Document 导出文件的内容
// 未提供的可选字段不输出，十进制数输出为字符串
type Document struct {
	ID           *uint  `json:"id,omitempty"`
	Filename     string `json:"filename"`
	Format       string `json:"format"`
	FileSize     int64  `json:"file_size"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	CameraMake   string `json:"camera_make,omitempty"`
	CameraModel  string `json:"camera_model,omitempty"`
	ExposureTime string `json:"exposure_time,omitempty"`
	Aperture     string `json:"aperture,omitempty"`
	ISO          *int   `json:"iso,omitempty"`
	FocalLength  string `json:"focal_length,omitempty"`
	Latitude     string `json:"latitude,omitempty"`
	Longitude    string `json:"longitude,omitempty"`
	CaptureDate  string `json:"capture_date,omitempty"`
	Description  string `json:"description,omitempty"`
	Tags         string `json:"tags,omitempty"`
	CreatedDate  string `json:"created_date,omitempty"`
}

// Result 导出结果
type Result struct {
	FileName string `json:"file_name"`
	Path     string `json:"path"`
	Mirrored bool   `json:"mirrored"`
}

// Mirrorer 将导出文件复制到对象存储
type Mirrorer interface {
	Enabled() bool
	Mirror(ctx context.Context, fileName, path string) (*database.MirrorLog, error)
}

// Service 导出服务接口
type Service interface {
	// ExportRecord 导出已存储的记录，包含 id 与 created_date
	ExportRecord(ctx context.Context, rec *database.PhotoMetadata) (*Result, error)
	// ExportCandidate 导出未入库的输入，校验失败返回 ValidationError
	ExportCandidate(ctx context.Context, in *record.Input) (*Result, error)
}

type exportService struct {
	store  filestore.Store
	mirror Mirrorer
}

// NewExportService 创建导出服务，mirror 可以为 nil
func NewExportService(store filestore.Store, mirror Mirrorer) Service {
	return &exportService{store: store, mirror: mirror}
}

// ExportRecord 导出记录
func (s *exportService) ExportRecord(ctx context.Context, rec *database.PhotoMetadata) (*Result, error) {
	doc := FromInput(record.InputFromModel(rec))
	id := rec.ID
	doc.ID = &id
	doc.CreatedDate = formatTime(&rec.CreatedDate)
	return s.write(ctx, doc)
}

// ExportCandidate 导出输入
func (s *exportService) ExportCandidate(ctx context.Context, in *record.Input) (*Result, error) {
	if err := record.Validate(in); err != nil {
		return nil, err
	}
	return s.write(ctx, FromInput(in))
}

func (s *exportService) write(ctx context.Context, doc *Document) (*Result, error) {
	name := s.store.GenerateName()
	path, err := s.store.Save(ctx, filestore.BucketExports, name, doc)
	if err != nil {
		return nil, err
	}
	result := &Result{FileName: name, Path: path}

	if s.mirror != nil && s.mirror.Enabled() {
		// 镜像失败只记录日志，不影响导出
		if _, err := s.mirror.Mirror(ctx, name, path); err != nil {
			logger.Warnf("export %s saved locally but mirror failed: %v", name, err)
		} else {
			result.Mirrored = true
		}
	}
	return result, nil
}

// FromInput 由输入构造导出文档
func FromInput(in *record.Input) *Document {
	return &Document{
		Filename:     in.Filename,
		Format:       in.Format,
		FileSize:     in.FileSize,
		Width:        in.Width,
		Height:       in.Height,
		CameraMake:   in.CameraMake,
		CameraModel:  in.CameraModel,
		ExposureTime: in.ExposureTime,
		Aperture:     formatDecimal(in.Aperture, 1),
		ISO:          in.ISO,
		FocalLength:  formatDecimal(in.FocalLength, 1),
		Latitude:     formatDecimal(in.Latitude, 6),
		Longitude:    formatDecimal(in.Longitude, 6),
		CaptureDate:  formatTime(in.CaptureDate),
		Description:  in.Description,
		Tags:         in.Tags,
	}
}

func formatDecimal(d decimal.NullDecimal, places int32) string {
	if !d.Valid {
		return ""
	}
	return d.Decimal.StringFixed(places)
}

func formatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}
