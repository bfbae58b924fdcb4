package record

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/weiwangfds/photometa/internal/database"
)

// Input 创建或更新记录时的输入字段
// id 与 created_date 由服务端分配，不在输入中出现
type Input struct {
	Filename     string              `json:"filename" validate:"required,max=255,photo_filename"`
	Format       string              `json:"format" validate:"required,photo_format"`
	FileSize     int64               `json:"file_size" validate:"gt=0"`
	Width        int                 `json:"width" validate:"gt=0"`
	Height       int                 `json:"height" validate:"gt=0"`
	CameraMake   string              `json:"camera_make,omitempty" validate:"max=100"`
	CameraModel  string              `json:"camera_model,omitempty" validate:"max=100"`
	ExposureTime string              `json:"exposure_time,omitempty" validate:"max=20"`
	Aperture     decimal.NullDecimal `json:"aperture"`
	ISO          *int                `json:"iso,omitempty" validate:"omitempty,gt=0"`
	FocalLength  decimal.NullDecimal `json:"focal_length"`
	Latitude     decimal.NullDecimal `json:"latitude"`
	Longitude    decimal.NullDecimal `json:"longitude"`
	CaptureDate  *time.Time          `json:"capture_date,omitempty"`
	Description  string              `json:"description,omitempty"`
	Tags         string              `json:"tags,omitempty" validate:"max=500"`
}

// Key 返回重复判定键
func (in *Input) Key() database.PhotoKey {
	return database.PhotoKey{
		Filename: in.Filename,
		Format:   in.Format,
		FileSize: in.FileSize,
		Width:    in.Width,
		Height:   in.Height,
	}
}

// normalize 去除字符串首尾空白，格式统一为大写
func (in *Input) normalize() {
	in.Filename = strings.TrimSpace(in.Filename)
	in.Format = strings.ToUpper(strings.TrimSpace(in.Format))
	in.CameraMake = strings.TrimSpace(in.CameraMake)
	in.CameraModel = strings.TrimSpace(in.CameraModel)
	in.ExposureTime = strings.TrimSpace(in.ExposureTime)
	in.Description = strings.TrimSpace(in.Description)
	in.Tags = strings.TrimSpace(in.Tags)
}

// applyTo 将输入写入模型，不修改 ID 与 CreatedDate
func (in *Input) applyTo(m *database.PhotoMetadata) {
	m.Filename = in.Filename
	m.Format = in.Format
	m.FileSize = in.FileSize
	m.Width = in.Width
	m.Height = in.Height
	m.CameraMake = in.CameraMake
	m.CameraModel = in.CameraModel
	m.ExposureTime = in.ExposureTime
	m.Aperture = in.Aperture
	m.ISO = in.ISO
	m.FocalLength = in.FocalLength
	m.Latitude = in.Latitude
	m.Longitude = in.Longitude
	m.CaptureDate = in.CaptureDate
	m.Description = in.Description
	m.Tags = in.Tags
}

// InputFromModel 由已存储的记录构造输入
func InputFromModel(m *database.PhotoMetadata) *Input {
	return &Input{
		Filename:     m.Filename,
		Format:       m.Format,
		FileSize:     m.FileSize,
		Width:        m.Width,
		Height:       m.Height,
		CameraMake:   m.CameraMake,
		CameraModel:  m.CameraModel,
		ExposureTime: m.ExposureTime,
		Aperture:     m.Aperture,
		ISO:          m.ISO,
		FocalLength:  m.FocalLength,
		Latitude:     m.Latitude,
		Longitude:    m.Longitude,
		CaptureDate:  m.CaptureDate,
		Description:  m.Description,
		Tags:         m.Tags,
	}
}
