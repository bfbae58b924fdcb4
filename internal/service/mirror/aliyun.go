package mirror

import (
	"context"
	"fmt"
	"io"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"
	"github.com/weiwangfds/photometa/config"
	"github.com/weiwangfds/photometa/internal/logger"
)

// AliyunProvider 阿里云OSS提供商实现
type AliyunProvider struct {
	client *oss.Client
	bucket *oss.Bucket
	name   string
}

// NewAliyunProvider 创建阿里云OSS提供商实例
// Endpoint 为空时按区域生成默认地址
func NewAliyunProvider(cfg config.MirrorConfig) (*AliyunProvider, error) {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = fmt.Sprintf("https://oss-%s.aliyuncs.com", cfg.Region)
	}
	logger.Infof("[阿里云OSS] 初始化客户端: 端点=%s, 存储桶=%s, AccessKey=%s", endpoint, cfg.Bucket, maskKey(cfg.AccessKey))

	client, err := oss.New(endpoint, cfg.AccessKey, cfg.SecretKey)
	if err != nil {
		logger.Errorf("[阿里云OSS] 创建客户端失败: %v", err)
		return nil, fmt.Errorf("failed to create aliyun oss client: %w", err)
	}

	bucket, err := client.Bucket(cfg.Bucket)
	if err != nil {
		logger.Errorf("[阿里云OSS] 获取存储桶失败: 存储桶=%s, 错误=%v", cfg.Bucket, err)
		return nil, fmt.Errorf("failed to get aliyun oss bucket: %w", err)
	}

	return &AliyunProvider{client: client, bucket: bucket, name: cfg.Bucket}, nil
}

// Name 返回提供商标识
func (p *AliyunProvider) Name() string { return ProviderAliyun }

// UploadFile 上传文件到阿里云OSS
func (p *AliyunProvider) UploadFile(_ context.Context, objectKey string, reader io.Reader, _ int64, contentType string) error {
	var options []oss.Option
	if contentType != "" {
		options = append(options, oss.ContentType(contentType))
	}

	if err := p.bucket.PutObject(objectKey, reader, options...); err != nil {
		logger.Errorf("[阿里云OSS] 上传失败: 对象键=%s, 错误=%v", objectKey, err)
		return fmt.Errorf("failed to upload file to aliyun oss: %w", err)
	}
	logger.Infof("[阿里云OSS] 上传成功: 对象键=%s", objectKey)
	return nil
}

// DeleteFile 删除阿里云OSS文件
func (p *AliyunProvider) DeleteFile(_ context.Context, objectKey string) error {
	if err := p.bucket.DeleteObject(objectKey); err != nil {
		return fmt.Errorf("failed to delete file from aliyun oss: %w", err)
	}
	return nil
}

// FileExists 检查文件是否存在
func (p *AliyunProvider) FileExists(_ context.Context, objectKey string) (bool, error) {
	exists, err := p.bucket.IsObjectExist(objectKey)
	if err != nil {
		return false, fmt.Errorf("failed to check file existence in aliyun oss: %w", err)
	}
	return exists, nil
}

// TestConnection 通过获取存储桶信息测试连接
func (p *AliyunProvider) TestConnection(_ context.Context) error {
	if _, err := p.client.GetBucketInfo(p.name); err != nil {
		logger.Errorf("[阿里云OSS] 连接测试失败: 存储桶=%s, 错误=%v", p.name, err)
		return fmt.Errorf("failed to test aliyun oss connection: %w", err)
	}
	return nil
}
