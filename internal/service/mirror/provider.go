// Package mirror 把导出的JSON文件复制到对象存储
// 支持阿里云OSS、腾讯云COS、七牛云Kodo和MinIO
package mirror

import (
	"context"
	"io"
	"strings"

	"github.com/weiwangfds/photometa/config"
	apperrors "github.com/weiwangfds/photometa/internal/errors"
)

// 支持的对象存储提供商
const (
	ProviderAliyun  = "aliyun"
	ProviderTencent = "tencent"
	ProviderQiniu   = "qiniu"
	ProviderMinio   = "minio"
)

// Provider 对象存储提供商接口
// 只包含镜像导出文件需要的操作
type Provider interface {
	// Name 返回提供商标识
	Name() string
	// UploadFile 上传文件到对象存储
	// 参数:
	//   - ctx: 上下文
	//   - objectKey: 对象键
	//   - reader: 文件内容
	//   - size: 文件大小，未知时为 -1
	//   - contentType: MIME类型
	UploadFile(ctx context.Context, objectKey string, reader io.Reader, size int64, contentType string) error
	// DeleteFile 删除对象
	DeleteFile(ctx context.Context, objectKey string) error
	// FileExists 检查对象是否存在
	FileExists(ctx context.Context, objectKey string) (bool, error)
	// TestConnection 测试连接和认证
	TestConnection(ctx context.Context) error
}

// NewProvider 根据配置创建提供商实例
func NewProvider(cfg config.MirrorConfig) (Provider, error) {
	switch strings.ToLower(cfg.Provider) {
	case ProviderAliyun:
		return NewAliyunProvider(cfg)
	case ProviderTencent:
		return NewTencentProvider(cfg)
	case ProviderQiniu:
		return NewQiniuProvider(cfg)
	case ProviderMinio:
		return NewMinioProvider(cfg)
	default:
		return nil, apperrors.New(apperrors.ErrMirrorProviderUnsupported, "").WithDetails(cfg.Provider)
	}
}

// maskKey 日志中只显示密钥前缀
func maskKey(key string) string {
	return key[:min(len(key), 8)] + "..."
}
