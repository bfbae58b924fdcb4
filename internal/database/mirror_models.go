package database

import "time"

// 镜像状态
const (
	MirrorStatusPending = "pending"
	MirrorStatusSuccess = "success"
	MirrorStatusFailed  = "failed"
)

// MirrorLog 导出文件镜像日志模型
// 每次把导出的JSON文件复制到对象存储都会记录一行，用于追踪状态和重试
type MirrorLog struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	FileName  string    `gorm:"not null;size:255;index" json:"file_name"` // 导出文件名
	FilePath  string    `gorm:"not null;size:500" json:"file_path"`       // 本地路径，重试时使用
	Provider  string    `gorm:"not null;size:20" json:"provider"`         // aliyun, tencent, qiniu, minio
	Bucket    string    `gorm:"size:100" json:"bucket"`
	ObjectKey string    `gorm:"size:500" json:"object_key"`
	Status    string    `gorm:"not null;size:20;index" json:"status"` // pending, success, failed
	ErrorMsg  string    `gorm:"type:text" json:"error_msg,omitempty"`
	FileSize  int64     `json:"file_size"` // 字节
	Duration  int64     `json:"duration"`  // 毫秒
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName 指定MirrorLog模型对应的数据库表名
func (MirrorLog) TableName() string {
	return "mirror_logs"
}
