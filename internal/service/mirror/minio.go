package mirror

import (
	"context"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/weiwangfds/photometa/config"
	"github.com/weiwangfds/photometa/internal/logger"
)

// MinioProvider MinIO及S3兼容存储的提供商实现
type MinioProvider struct {
	client *minio.Client
	bucket string
}

// NewMinioProvider 创建MinIO提供商实例
// Endpoint 为 host:port 形式，不带协议
func NewMinioProvider(cfg config.MirrorConfig) (*MinioProvider, error) {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = "localhost:9000"
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}
	logger.Infof("[MinIO] 客户端已初始化: 端点=%s, 存储桶=%s", endpoint, cfg.Bucket)

	return &MinioProvider{client: client, bucket: cfg.Bucket}, nil
}

// Name 返回提供商标识
func (p *MinioProvider) Name() string { return ProviderMinio }

// UploadFile 上传文件到MinIO
func (p *MinioProvider) UploadFile(ctx context.Context, objectKey string, reader io.Reader, size int64, contentType string) error {
	info, err := p.client.PutObject(ctx, p.bucket, objectKey, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		logger.Errorf("[MinIO] 上传失败: 对象键=%s, 错误=%v", objectKey, err)
		return fmt.Errorf("failed to upload file to minio: %w", err)
	}
	logger.Infof("[MinIO] 上传成功: 对象键=%s, 大小=%d", objectKey, info.Size)
	return nil
}

// DeleteFile 删除MinIO对象
func (p *MinioProvider) DeleteFile(ctx context.Context, objectKey string) error {
	if err := p.client.RemoveObject(ctx, p.bucket, objectKey, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to delete file from minio: %w", err)
	}
	return nil
}

// FileExists 检查对象是否存在
func (p *MinioProvider) FileExists(ctx context.Context, objectKey string) (bool, error) {
	_, err := p.client.StatObject(ctx, p.bucket, objectKey, minio.StatObjectOptions{})
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return false, nil
		}
		return false, fmt.Errorf("failed to check file existence in minio: %w", err)
	}
	return true, nil
}

// TestConnection 检查存储桶是否存在
func (p *MinioProvider) TestConnection(ctx context.Context) error {
	exists, err := p.client.BucketExists(ctx, p.bucket)
	if err != nil {
		return fmt.Errorf("failed to test minio connection: %w", err)
	}
	if !exists {
		return fmt.Errorf("minio bucket %s does not exist", p.bucket)
	}
	return nil
}
