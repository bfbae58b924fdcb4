package mirror

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/tencentyun/cos-go-sdk-v5"
	"github.com/weiwangfds/photometa/config"
	"github.com/weiwangfds/photometa/internal/logger"
)

// TencentProvider 腾讯云COS提供商实现
type TencentProvider struct {
	client *cos.Client
}

// NewTencentProvider 创建腾讯云COS提供商实例
func NewTencentProvider(cfg config.MirrorConfig) (*TencentProvider, error) {
	bucketURL := fmt.Sprintf("https://%s.cos.%s.myqcloud.com", cfg.Bucket, cfg.Region)
	if cfg.Endpoint != "" {
		bucketURL = cfg.Endpoint
	}

	u, err := url.Parse(bucketURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse bucket URL: %w", err)
	}
	logger.Infof("[腾讯云COS] 初始化客户端: 地址=%s, SecretID=%s", u.String(), maskKey(cfg.AccessKey))

	client := cos.NewClient(&cos.BaseURL{BucketURL: u}, &http.Client{
		Transport: &cos.AuthorizationTransport{
			SecretID:  cfg.AccessKey,
			SecretKey: cfg.SecretKey,
		},
	})
	return &TencentProvider{client: client}, nil
}

// Name 返回提供商标识
func (p *TencentProvider) Name() string { return ProviderTencent }

// UploadFile 上传文件到腾讯云COS
func (p *TencentProvider) UploadFile(ctx context.Context, objectKey string, reader io.Reader, _ int64, contentType string) error {
	options := &cos.ObjectPutOptions{}
	if contentType != "" {
		options.ObjectPutHeaderOptions = &cos.ObjectPutHeaderOptions{
			ContentType: contentType,
		}
	}

	if _, err := p.client.Object.Put(ctx, objectKey, reader, options); err != nil {
		logger.Errorf("[腾讯云COS] 上传失败: 对象键=%s, 错误=%v", objectKey, err)
		return fmt.Errorf("failed to upload file to tencent cos: %w", err)
	}
	return nil
}

// DeleteFile 删除腾讯云COS文件
func (p *TencentProvider) DeleteFile(ctx context.Context, objectKey string) error {
	if _, err := p.client.Object.Delete(ctx, objectKey); err != nil {
		return fmt.Errorf("failed to delete file from tencent cos: %w", err)
	}
	return nil
}

// FileExists 检查文件是否存在
func (p *TencentProvider) FileExists(ctx context.Context, objectKey string) (bool, error) {
	_, err := p.client.Object.Head(ctx, objectKey, nil)
	if err != nil {
		if cos.IsNotFoundError(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check file existence in tencent cos: %w", err)
	}
	return true, nil
}

// TestConnection 测试连接
func (p *TencentProvider) TestConnection(ctx context.Context) error {
	if _, err := p.client.Bucket.Head(ctx); err != nil {
		return fmt.Errorf("failed to test tencent cos connection: %w", err)
	}
	return nil
}
