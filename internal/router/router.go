package router

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/weiwangfds/photometa/config"
	"github.com/weiwangfds/photometa/internal/handler"
	"github.com/weiwangfds/photometa/internal/middleware"
	"github.com/weiwangfds/photometa/internal/service/export"
	"github.com/weiwangfds/photometa/internal/service/filestore"
	"github.com/weiwangfds/photometa/internal/service/importer"
	"github.com/weiwangfds/photometa/internal/service/mirror"
	"github.com/weiwangfds/photometa/internal/service/record"
	"gorm.io/gorm"
)

// Router 路由配置
type Router struct {
	engine *gin.Engine
	db     *gorm.DB
}

// NewRouter 创建路由实例
// provider 为 nil 时镜像功能关闭
func NewRouter(db *gorm.DB, cfg *config.Config, provider mirror.Provider) *Router {
	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}

	engine := gin.New()

	// 初始化服务
	store := filestore.New(cfg.Storage)
	recordService := record.NewRecordService(db)
	mirrorService := mirror.NewMirrorService(db, cfg.Mirror, provider)
	exportService := export.NewExportService(store, mirrorService)
	pipeline := importer.NewPipeline(db, store, recordService, cfg.Storage.MaxUploadSize)

	// 初始化处理器
	systemHandler := handler.NewSystemHandler(db, cfg)
	recordHandler := handler.NewRecordHandler(recordService, exportService)
	importHandler := handler.NewImportHandler(pipeline)
	fileHandler := handler.NewFileHandler(store)
	mirrorHandler := handler.NewMirrorHandler(mirrorService)

	// 使用中间件
	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestLogger())
	engine.Use(middleware.Metrics())
	engine.Use(middleware.Language())

	// 配置CORS
	engine.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"*"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           86400,
	}))

	// multipart 表单保留在内存中的上限
	engine.MaxMultipartMemory = cfg.Storage.MaxUploadSize

	// 健康检查
	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Service is running",
		})
	})
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API路由组
	api := engine.Group("/api/v1")
	{
		api.GET("/info", systemHandler.Info)
		api.GET("/db/status", systemHandler.DBStatus)

		// 记录管理接口
		records := api.Group("/records")
		{
			records.POST("", recordHandler.CreateRecord)
			records.GET("", recordHandler.ListRecords)
			records.GET("/stats", recordHandler.GetStats)
			records.GET("/:id", recordHandler.GetRecord)
			records.PUT("/:id", recordHandler.UpdateRecord)
			records.DELETE("/:id", recordHandler.DeleteRecord)
			records.POST("/:id/export", recordHandler.ExportRecord)
		}

		// 导入接口
		imports := api.Group("/imports")
		{
			imports.POST("/upload", importHandler.UploadFile)
			imports.GET("", importHandler.ListImports)
		}

		// 已存储JSON文件浏览
		files := api.Group("/files")
		{
			files.GET("", fileHandler.ListFiles)
			files.GET("/:name", fileHandler.GetFileContent)
		}

		// 导出镜像
		mirrorGroup := api.Group("/mirror")
		{
			mirrorGroup.GET("/logs", mirrorHandler.GetLogs)
			mirrorGroup.DELETE("/logs/:id", mirrorHandler.DeleteLog)
			mirrorGroup.POST("/test", mirrorHandler.TestConnection)
			mirrorGroup.POST("/retry/:id", mirrorHandler.RetryFailed)
		}
	}

	return &Router{
		engine: engine,
		db:     db,
	}
}

// GetEngine 获取Gin引擎
func (r *Router) GetEngine() *gin.Engine {
	return r.engine
}

// GetDB 获取数据库连接
func (r *Router) GetDB() *gorm.DB {
	return r.db
}
