package mirror

import (
	"context"
	"errors"
	"os"
	"path"
	"time"

	"github.com/weiwangfds/photometa/config"
	"github.com/weiwangfds/photometa/internal/database"
	apperrors "github.com/weiwangfds/photometa/internal/errors"
	"github.com/weiwangfds/photometa/internal/logger"
	"github.com/weiwangfds/photometa/internal/metrics"
	"gorm.io/gorm"
)

const defaultLogLimit = 50

// Service 镜像服务接口
type Service interface {
	// Enabled 镜像是否启用
	Enabled() bool

	// Mirror 同步上传一个导出文件，并写入镜像日志
	// 参数:
	//   ctx - 请求上下文
	//   fileName - 导出文件名，作为对象键的最后一段
	//   filePath - 本地文件路径
	// 返回:
	//   *database.MirrorLog - 本次镜像的日志，失败时状态为 failed
	//   error - 上传失败返回 MirrorUploadFailed
	Mirror(ctx context.Context, fileName, filePath string) (*database.MirrorLog, error)

	// RetryFailed 重新上传一条失败的镜像记录
	// 对象已存在于存储桶时直接标记成功，不再重复上传
	RetryFailed(ctx context.Context, logID uint) (*database.MirrorLog, error)

	// Remove 删除远端对象及其镜像日志
	Remove(ctx context.Context, logID uint) error

	// Logs 按时间倒序返回最近的镜像日志，limit <= 0 时使用默认值
	Logs(ctx context.Context, limit int) ([]database.MirrorLog, error)

	// TestConnection 测试对象存储连接
	TestConnection(ctx context.Context) error
}

type mirrorService struct {
	db       *gorm.DB
	provider Provider
	cfg      config.MirrorConfig
}

// NewMirrorService 创建镜像服务
// provider 为 nil 或配置未启用时，服务处于关闭状态
func NewMirrorService(db *gorm.DB, cfg config.MirrorConfig, provider Provider) Service {
	return &mirrorService{db: db, provider: provider, cfg: cfg}
}

// Enabled 镜像是否启用
func (s *mirrorService) Enabled() bool {
	return s.cfg.Enabled && s.provider != nil
}

// Mirror 上传导出文件
func (s *mirrorService) Mirror(ctx context.Context, fileName, filePath string) (*database.MirrorLog, error) {
	if !s.Enabled() {
		return nil, apperrors.New(apperrors.ErrMirrorDisabled, "")
	}

	entry := &database.MirrorLog{
		FileName:  fileName,
		FilePath:  filePath,
		Provider:  s.provider.Name(),
		Bucket:    s.cfg.Bucket,
		ObjectKey: s.objectKey(fileName),
		Status:    database.MirrorStatusPending,
	}
	if err := s.db.WithContext(ctx).Create(entry).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrDatabase, "", err)
	}

	return s.upload(ctx, entry)
}

// upload 执行上传并更新日志状态
func (s *mirrorService) upload(ctx context.Context, entry *database.MirrorLog) (*database.MirrorLog, error) {
	start := time.Now()
	uploadErr := s.put(ctx, entry)
	elapsed := time.Since(start)

	entry.Duration = elapsed.Milliseconds()
	status := database.MirrorStatusSuccess
	entry.ErrorMsg = ""
	if uploadErr != nil {
		status = database.MirrorStatusFailed
		entry.ErrorMsg = uploadErr.Error()
	}
	entry.Status = status
	metrics.RecordMirrorUpload(entry.Provider, status, elapsed.Seconds())

	if err := s.db.WithContext(ctx).Save(entry).Error; err != nil {
		logger.Errorf("failed to update mirror log %d: %v", entry.ID, err)
	}

	if uploadErr != nil {
		logger.WithFields(map[string]interface{}{
			"file":     entry.FileName,
			"provider": entry.Provider,
			"key":      entry.ObjectKey,
		}).Warnf("mirror upload failed: %v", uploadErr)
		return entry, apperrors.Wrap(apperrors.ErrMirrorUploadFailed, "", uploadErr).WithDetails(uploadErr.Error())
	}

	logger.Infof("mirrored %s to %s:%s in %dms", entry.FileName, entry.Provider, entry.ObjectKey, entry.Duration)
	return entry, nil
}

func (s *mirrorService) put(ctx context.Context, entry *database.MirrorLog) error {
	f, err := os.Open(entry.FilePath)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}
	entry.FileSize = info.Size()

	return s.provider.UploadFile(ctx, entry.ObjectKey, f, info.Size(), "application/json")
}

// RetryFailed 重试失败的镜像
func (s *mirrorService) RetryFailed(ctx context.Context, logID uint) (*database.MirrorLog, error) {
	if !s.Enabled() {
		return nil, apperrors.New(apperrors.ErrMirrorDisabled, "")
	}

	entry, err := s.findLog(ctx, logID)
	if err != nil {
		return nil, err
	}
	if entry.Status != database.MirrorStatusFailed {
		return nil, apperrors.New(apperrors.ErrInvalidParams, "").
			WithDetails("only failed mirror logs can be retried, current status: " + entry.Status)
	}

	entry.Provider = s.provider.Name()
	entry.Bucket = s.cfg.Bucket

	exists, err := s.provider.FileExists(ctx, entry.ObjectKey)
	if err != nil {
		logger.Warnf("mirror log %d: existence check failed, uploading anyway: %v", entry.ID, err)
	}
	if exists {
		logger.Infof("mirror log %d: %s already present, skipping upload", entry.ID, entry.ObjectKey)
		entry.Status = database.MirrorStatusSuccess
		entry.ErrorMsg = ""
		if err := s.db.WithContext(ctx).Save(entry).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrDatabase, "", err)
		}
		return entry, nil
	}

	logger.Infof("retrying mirror log %d for %s", entry.ID, entry.FileName)
	return s.upload(ctx, entry)
}

// Remove 删除镜像对象和日志
// 只有成功上传的对象才需要从存储桶删除
func (s *mirrorService) Remove(ctx context.Context, logID uint) error {
	if !s.Enabled() {
		return apperrors.New(apperrors.ErrMirrorDisabled, "")
	}

	entry, err := s.findLog(ctx, logID)
	if err != nil {
		return err
	}

	if entry.Status == database.MirrorStatusSuccess {
		if err := s.provider.DeleteFile(ctx, entry.ObjectKey); err != nil {
			return apperrors.Wrap(apperrors.ErrMirrorUploadFailed, "", err).WithDetails(err.Error())
		}
	}
	if err := s.db.WithContext(ctx).Delete(entry).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrDatabase, "", err)
	}

	logger.Infof("removed mirror log %d (%s:%s)", entry.ID, entry.Provider, entry.ObjectKey)
	return nil
}

func (s *mirrorService) findLog(ctx context.Context, logID uint) (*database.MirrorLog, error) {
	var entry database.MirrorLog
	if err := s.db.WithContext(ctx).First(&entry, logID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.New(apperrors.ErrMirrorLogNotFound, "")
		}
		return nil, apperrors.Wrap(apperrors.ErrDatabase, "", err)
	}
	return &entry, nil
}

// Logs 返回最近的镜像日志
func (s *mirrorService) Logs(ctx context.Context, limit int) ([]database.MirrorLog, error) {
	if limit <= 0 {
		limit = defaultLogLimit
	}
	var logs []database.MirrorLog
	err := s.db.WithContext(ctx).Order("created_at DESC").Order("id DESC").Limit(limit).Find(&logs).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrDatabase, "", err)
	}
	return logs, nil
}

// TestConnection 测试对象存储连接
func (s *mirrorService) TestConnection(ctx context.Context) error {
	if !s.Enabled() {
		return apperrors.New(apperrors.ErrMirrorDisabled, "")
	}
	if err := s.provider.TestConnection(ctx); err != nil {
		return apperrors.Wrap(apperrors.ErrMirrorUploadFailed, "", err).WithDetails(err.Error())
	}
	return nil
}

// objectKey 对象键为 前缀/文件名
func (s *mirrorService) objectKey(fileName string) string {
	if s.cfg.Prefix == "" {
		return fileName
	}
	return path.Join(s.cfg.Prefix, fileName)
}
