// Package database 定义了照片元数据相关的数据库模型
// 包含照片元数据记录、导入文件记录和镜像日志
package database

import (
	"time"

	"github.com/shopspring/decimal"
)

// 支持的图片格式
const (
	FormatJPEG = "JPEG"
	FormatPNG  = "PNG"
	FormatGIF  = "GIF"
	FormatBMP  = "BMP"
	FormatTIFF = "TIFF"
)

// SupportedFormats 支持的图片格式列表
var SupportedFormats = []string{FormatJPEG, FormatPNG, FormatGIF, FormatBMP, FormatTIFF}

// PhotoMetadata 照片元数据模型
// (filename, format, file_size, width, height) 五元组唯一，由复合唯一索引 idx_photo_identity 保证
// 删除为物理删除，避免已删除的行占用唯一索引
type PhotoMetadata struct {
	ID           uint                `gorm:"primarykey" json:"id"`
	Filename     string              `gorm:"not null;size:255;uniqueIndex:idx_photo_identity,priority:1" json:"filename"`
	Format       string              `gorm:"not null;size:10;uniqueIndex:idx_photo_identity,priority:2" json:"format"`
	FileSize     int64               `gorm:"not null;uniqueIndex:idx_photo_identity,priority:3" json:"file_size"` // 字节
	Width        int                 `gorm:"not null;uniqueIndex:idx_photo_identity,priority:4" json:"width"`
	Height       int                 `gorm:"not null;uniqueIndex:idx_photo_identity,priority:5" json:"height"`
	CameraMake   string              `gorm:"size:100" json:"camera_make,omitempty"`
	CameraModel  string              `gorm:"size:100" json:"camera_model,omitempty"`
	ExposureTime string              `gorm:"size:20" json:"exposure_time,omitempty"` // 如 "1/125"
	Aperture     decimal.NullDecimal `gorm:"type:decimal(3,1)" json:"aperture"`
	ISO          *int                `json:"iso,omitempty"`
	FocalLength  decimal.NullDecimal `gorm:"type:decimal(5,1)" json:"focal_length"`
	Latitude     decimal.NullDecimal `gorm:"type:decimal(9,6)" json:"latitude"`
	Longitude    decimal.NullDecimal `gorm:"type:decimal(9,6)" json:"longitude"`
	CaptureDate  *time.Time          `json:"capture_date,omitempty"`
	CreatedDate  time.Time           `gorm:"not null;autoCreateTime;<-:create" json:"created_date"` // 创建后不可修改
	Description  string              `gorm:"type:text" json:"description,omitempty"`
	Tags         string              `gorm:"size:500" json:"tags,omitempty"` // 逗号分隔
}

// TableName 指定PhotoMetadata模型对应的数据库表名
func (PhotoMetadata) TableName() string {
	return "photo_metadata"
}

// Key 返回记录的重复判定键
func (p *PhotoMetadata) Key() PhotoKey {
	return PhotoKey{
		Filename: p.Filename,
		Format:   p.Format,
		FileSize: p.FileSize,
		Width:    p.Width,
		Height:   p.Height,
	}
}

// PhotoKey 重复判定键，五个字段完全相等才视为重复
type PhotoKey struct {
	Filename string
	Format   string
	FileSize int64
	Width    int
	Height   int
}

// ImportedFile 导入文件记录
// 每次通过结构校验阶段的上传都会写入一行，之后不再修改
type ImportedFile struct {
	ID           uint      `gorm:"primarykey" json:"id"`
	File         string    `gorm:"not null;size:500" json:"file"` // uploads 桶中的存储路径
	OriginalName string    `gorm:"size:255" json:"original_name"` // 仅用于展示
	UploadDate   time.Time `gorm:"not null;autoCreateTime" json:"upload_date"`
	IsValid      bool      `gorm:"not null;default:false" json:"is_valid"`
	Message      string    `gorm:"type:text" json:"message"` // 校验结果说明
}

// TableName 指定ImportedFile模型对应的数据库表名
func (ImportedFile) TableName() string {
	return "imported_files"
}
