package mirror

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/qiniu/go-sdk/v7/auth/qbox"
	"github.com/qiniu/go-sdk/v7/storage"
	"github.com/weiwangfds/photometa/config"
	"github.com/weiwangfds/photometa/internal/logger"
)

// QiniuProvider 七牛云Kodo提供商实现
type QiniuProvider struct {
	mac        *qbox.Mac
	bucketName string
	region     *storage.Region
	useHTTPS   bool
}

// NewQiniuProvider 创建七牛云Kodo提供商实例
// 区域信息通过存储桶名称查询
func NewQiniuProvider(cfg config.MirrorConfig) (*QiniuProvider, error) {
	logger.Infof("[七牛云Kodo] 初始化: 存储桶=%s, AccessKey=%s", cfg.Bucket, maskKey(cfg.AccessKey))
	mac := qbox.NewMac(cfg.AccessKey, cfg.SecretKey)

	region, err := storage.GetRegion(cfg.AccessKey, cfg.Bucket)
	if err != nil {
		logger.Errorf("[七牛云Kodo] 获取区域失败: 存储桶=%s, 错误=%v", cfg.Bucket, err)
		return nil, fmt.Errorf("failed to get qiniu region: %w", err)
	}

	return &QiniuProvider{
		mac:        mac,
		bucketName: cfg.Bucket,
		region:     region,
		useHTTPS:   cfg.UseSSL,
	}, nil
}

// Name 返回提供商标识
func (p *QiniuProvider) Name() string { return ProviderQiniu }

func (p *QiniuProvider) bucketManager() *storage.BucketManager {
	return storage.NewBucketManager(p.mac, &storage.Config{Region: p.region, UseHTTPS: p.useHTTPS})
}

// UploadFile 表单上传文件到七牛云Kodo
func (p *QiniuProvider) UploadFile(ctx context.Context, objectKey string, reader io.Reader, size int64, contentType string) error {
	putPolicy := storage.PutPolicy{
		Scope: fmt.Sprintf("%s:%s", p.bucketName, objectKey),
	}
	upToken := putPolicy.UploadToken(p.mac)

	uploader := storage.NewFormUploader(&storage.Config{
		Region:        p.region,
		UseHTTPS:      p.useHTTPS,
		UseCdnDomains: false,
	})
	ret := storage.PutRet{}
	putExtra := storage.PutExtra{}
	if contentType != "" {
		putExtra.MimeType = contentType
	}

	if err := uploader.Put(ctx, &ret, upToken, objectKey, reader, size, &putExtra); err != nil {
		logger.Errorf("[七牛云Kodo] 上传失败: 对象键=%s, 错误=%v", objectKey, err)
		return fmt.Errorf("failed to upload file to qiniu kodo: %w", err)
	}
	logger.Infof("[七牛云Kodo] 上传成功: 对象键=%s, 哈希值=%s", objectKey, ret.Hash)
	return nil
}

// DeleteFile 删除七牛云Kodo文件
func (p *QiniuProvider) DeleteFile(_ context.Context, objectKey string) error {
	if err := p.bucketManager().Delete(p.bucketName, objectKey); err != nil {
		return fmt.Errorf("failed to delete file from qiniu kodo: %w", err)
	}
	return nil
}

// FileExists 检查文件是否存在
func (p *QiniuProvider) FileExists(_ context.Context, objectKey string) (bool, error) {
	if _, err := p.bucketManager().Stat(p.bucketName, objectKey); err != nil {
		if strings.Contains(err.Error(), "no such file or directory") {
			return false, nil
		}
		return false, fmt.Errorf("failed to check file existence in qiniu kodo: %w", err)
	}
	return true, nil
}

// TestConnection 尝试列出一个文件来验证认证
func (p *QiniuProvider) TestConnection(_ context.Context) error {
	if _, _, _, _, err := p.bucketManager().ListFiles(p.bucketName, "", "", "", 1); err != nil {
		return fmt.Errorf("failed to test qiniu kodo connection: %w", err)
	}
	return nil
}
