// Package filestore 提供JSON文件的本地存储
// 文件按用途分为 exports（表单导出）和 uploads（用户上传）两个桶
package filestore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/weiwangfds/photometa/config"
	apperrors "github.com/weiwangfds/photometa/internal/errors"
	"github.com/weiwangfds/photometa/internal/logger"
)

// Bucket 存储桶
type Bucket string

const (
	// BucketExports 表单提交和记录导出生成的JSON文件
	BucketExports Bucket = "exports"
	// BucketUploads 用户上传的原始JSON文件
	BucketUploads Bucket = "uploads"
)

// ParseBucket 解析桶名，空串默认为 exports
func ParseBucket(name string) (Bucket, error) {
	switch Bucket(strings.ToLower(strings.TrimSpace(name))) {
	case BucketExports, "":
		return BucketExports, nil
	case BucketUploads:
		return BucketUploads, nil
	default:
		return "", apperrors.New(apperrors.ErrInvalidParams, "").WithDetails(fmt.Sprintf("unknown bucket %q", name)).WithFields("bucket")
	}
}

// FileInfo 存储文件信息
type FileInfo struct {
	Name    string    `json:"name"`
	Bucket  Bucket    `json:"bucket"`
	Path    string    `json:"path"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"mod_time"`
}

// Store JSON文件存储接口
type Store interface {
	// GenerateName 生成与调用方输入无关的文件名: <uuid hex>.json
	GenerateName() string

	// Save 将文档序列化为JSON写入桶中
	// 参数:
	//   bucket - 目标桶
	//   name - 文件名，通常来自 GenerateName
	//   doc - 待序列化的文档
	// 返回:
	//   string - 文件的存储路径
	//   error - 写入失败时返回 IOFailure
	// 注意:
	//   - 使用两个空格缩进，不转义HTML字符，非ASCII字符原样输出
	//   - 目标文件已存在时不会覆盖
	Save(ctx context.Context, bucket Bucket, name string, doc interface{}) (string, error)

	// SaveRaw 原样保存上传内容，超过 limit 字节时删除并返回 FileTooLarge
	SaveRaw(ctx context.Context, bucket Bucket, name string, r io.Reader, limit int64) (string, int64, error)

	// Read 读取并解析JSON文件，数字保留为 json.Number
	// 解析失败返回 ParseError，读取失败返回 IOFailure
	Read(ctx context.Context, path string) (interface{}, error)

	// Delete 删除存储路径对应的文件
	Delete(ctx context.Context, path string) error

	// List 列出桶中的JSON文件，按修改时间倒序
	List(ctx context.Context, bucket Bucket) ([]FileInfo, error)

	// Open 根据文件名定位桶中的文件，文件名只取基本名
	// 返回:
	//   string - 文件的存储路径
	//   error - 扩展名不是 .json 返回 UnsupportedExtension，文件不存在返回 FileNotFound
	Open(ctx context.Context, bucket Bucket, name string) (string, error)
}

// fileStore 本地文件系统实现
type fileStore struct {
	root string
	dirs map[Bucket]string
}

// New 创建文件存储实例
func New(cfg config.StorageConfig) Store {
	root := cfg.Root
	if root == "" {
		root = "media"
	}
	exports := cfg.ExportsDir
	if exports == "" {
		exports = "json_files"
	}
	uploads := cfg.UploadsDir
	if uploads == "" {
		uploads = "json_uploads"
	}

	logger.Infof("file store initialized, root: %s", root)
	return &fileStore{
		root: filepath.Clean(root),
		dirs: map[Bucket]string{
			BucketExports: filepath.Join(filepath.Clean(root), exports),
			BucketUploads: filepath.Join(filepath.Clean(root), uploads),
		},
	}
}

// GenerateName 生成唯一文件名
func (s *fileStore) GenerateName() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "") + ".json"
}

// Save 保存JSON文档
func (s *fileStore) Save(ctx context.Context, bucket Bucket, name string, doc interface{}) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(doc); err != nil {
		return "", apperrors.Wrap(apperrors.ErrIOFailure, "", err)
	}

	path, err := s.create(bucket, name, bytes.NewReader(buf.Bytes()), -1)
	if err != nil {
		return "", err
	}
	logger.Infof("json file saved: %s", path)
	return path, nil
}

// SaveRaw 保存原始上传内容
func (s *fileStore) SaveRaw(ctx context.Context, bucket Bucket, name string, r io.Reader, limit int64) (string, int64, error) {
	if err := ctx.Err(); err != nil {
		return "", 0, err
	}

	path, err := s.create(bucket, name, r, limit)
	if err != nil {
		return "", 0, err
	}

	info, err := os.Stat(path)
	if err != nil {
		return "", 0, apperrors.Wrap(apperrors.ErrIOFailure, "", err)
	}
	logger.Infof("upload stored: %s (%d bytes)", path, info.Size())
	return path, info.Size(), nil
}

// create 在桶中独占创建文件并写入内容，limit < 0 表示不限制大小
func (s *fileStore) create(bucket Bucket, name string, r io.Reader, limit int64) (string, error) {
	dir, err := s.bucketDir(bucket)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", apperrors.Wrap(apperrors.ErrIOFailure, "", err)
	}

	path := filepath.Join(dir, filepath.Base(name))
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return "", apperrors.Wrap(apperrors.ErrIOFailure, "", err)
	}

	src := r
	if limit >= 0 {
		src = io.LimitReader(r, limit+1)
	}
	n, copyErr := io.Copy(f, src)
	closeErr := f.Close()

	switch {
	case copyErr != nil:
		os.Remove(path)
		return "", apperrors.Wrap(apperrors.ErrIOFailure, "", copyErr)
	case closeErr != nil:
		os.Remove(path)
		return "", apperrors.Wrap(apperrors.ErrIOFailure, "", closeErr)
	case limit >= 0 && n > limit:
		os.Remove(path)
		return "", apperrors.New(apperrors.ErrFileTooLarge, "").WithDetails(fmt.Sprintf("file exceeds %d bytes", limit))
	}
	return path, nil
}

// Read 读取并解析JSON文件
func (s *fileStore) Read(ctx context.Context, path string) (interface{}, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !s.contains(path) {
		return nil, apperrors.New(apperrors.ErrFileNotFound, "").WithDetails(filepath.Base(path))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, apperrors.New(apperrors.ErrFileNotFound, "").WithDetails(filepath.Base(path))
		}
		return nil, apperrors.Wrap(apperrors.ErrIOFailure, "", err)
	}
	return Decode(data)
}

// Decode 解析JSON内容，数字保留为 json.Number，尾部多余内容视为解析错误
func Decode(data []byte) (interface{}, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrParse, "", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, apperrors.New(apperrors.ErrParse, "").WithDetails("unexpected data after top-level value")
	}
	return v, nil
}

// Delete 删除文件
func (s *fileStore) Delete(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !s.contains(path) {
		return apperrors.New(apperrors.ErrFileNotFound, "").WithDetails(filepath.Base(path))
	}
	if err := os.Remove(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return apperrors.New(apperrors.ErrFileNotFound, "").WithDetails(filepath.Base(path))
		}
		return apperrors.Wrap(apperrors.ErrIOFailure, "", err)
	}
	logger.Debugf("file deleted: %s", path)
	return nil
}

// List 列出桶中的JSON文件
func (s *fileStore) List(ctx context.Context, bucket Bucket) ([]FileInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	dir, err := s.bucketDir(bucket)
	if err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []FileInfo{}, nil
		}
		return nil, apperrors.Wrap(apperrors.ErrIOFailure, "", err)
	}

	files := make([]FileInfo, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".json") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			logger.Warnf("failed to stat %s: %v", entry.Name(), err)
			continue
		}
		files = append(files, FileInfo{
			Name:    entry.Name(),
			Bucket:  bucket,
			Path:    filepath.Join(dir, entry.Name()),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	sort.SliceStable(files, func(i, j int) bool {
		if files[i].ModTime.Equal(files[j].ModTime) {
			return files[i].Name < files[j].Name
		}
		return files[i].ModTime.After(files[j].ModTime)
	})
	return files, nil
}

// Open 定位桶中的文件
func (s *fileStore) Open(ctx context.Context, bucket Bucket, name string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	dir, err := s.bucketDir(bucket)
	if err != nil {
		return "", err
	}

	base := filepath.Base(filepath.Clean("/" + strings.ReplaceAll(name, "\\", "/")))
	if base == "/" || base == "." || !strings.EqualFold(filepath.Ext(base), ".json") {
		return "", apperrors.New(apperrors.ErrUnsupportedExtension, "").WithDetails(base)
	}

	path := filepath.Join(dir, base)
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return "", apperrors.New(apperrors.ErrFileNotFound, "").WithDetails(base)
	}
	return path, nil
}

func (s *fileStore) bucketDir(bucket Bucket) (string, error) {
	dir, ok := s.dirs[bucket]
	if !ok {
		return "", apperrors.New(apperrors.ErrInvalidParams, "").WithDetails(fmt.Sprintf("unknown bucket %q", bucket)).WithFields("bucket")
	}
	return dir, nil
}

// contains 判断路径是否位于存储根目录之下
func (s *fileStore) contains(path string) bool {
	rel, err := filepath.Rel(s.root, filepath.Clean(path))
	if err != nil {
		return false
	}
	return rel != "." && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
