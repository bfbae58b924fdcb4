package database

import (
	"github.com/weiwangfds/photometa/internal/logger"
	"gorm.io/gorm"
)

// Migrate 执行照片元数据相关表的数据库迁移
// 创建照片元数据表、导入文件表和镜像日志表，并建立查询索引
func Migrate(db *gorm.DB) error {
	logger.Debug("running database migrations")

	err := db.AutoMigrate(
		&PhotoMetadata{}, // 照片元数据主表
		&ImportedFile{},  // 导入文件记录
		&MirrorLog{},     // 镜像日志
	)
	if err != nil {
		return err
	}

	return createIndexes(db)
}

// createIndexes 创建列表排序所需的索引
func createIndexes(db *gorm.DB) error {
	indexes := []string{
		// 记录列表按创建时间倒序
		"CREATE INDEX IF NOT EXISTS idx_photo_created ON photo_metadata(created_date DESC, id DESC)",
		// 导入记录按上传时间倒序
		"CREATE INDEX IF NOT EXISTS idx_imported_upload ON imported_files(upload_date DESC)",
	}

	for _, indexSQL := range indexes {
		if err := db.Exec(indexSQL).Error; err != nil {
			logger.Errorf("failed to create index: %s, error: %v", indexSQL, err)
			return err
		}
	}
	return nil
}
