package main

import (
	"context"
	"crypto/tls"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/weiwangfds/photometa/config"
	"github.com/weiwangfds/photometa/internal/database"
	"github.com/weiwangfds/photometa/internal/i18n"
	"github.com/weiwangfds/photometa/internal/logger"
	"github.com/weiwangfds/photometa/internal/router"
	"github.com/weiwangfds/photometa/internal/service/mirror"
	"golang.org/x/net/http2"
)

func main() {
	// 加载配置
	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.Init(&cfg.Log); err != nil {
		logger.Fatalf("Failed to initialize logger: %v", err)
	}
	i18n.GetInstance().SetDefaultLanguage(cfg.App.Language)

	// 初始化数据库
	db, err := database.Init(cfg.Database)
	if err != nil {
		logger.Fatalf("Failed to initialize database: %v", err)
	}

	// 镜像提供商初始化失败时关闭镜像，不影响本地导出
	var provider mirror.Provider
	if cfg.Mirror.Enabled {
		provider, err = mirror.NewProvider(cfg.Mirror)
		if err != nil {
			logger.Errorf("Mirror disabled, failed to create provider %s: %v", cfg.Mirror.Provider, err)
			provider = nil
		}
	}

	r := router.NewRouter(db, cfg, provider)

	srv := &http.Server{
		Addr:         ":" + strconv.Itoa(cfg.Server.Port),
		Handler:      r.GetEngine(),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	if cfg.Server.EnableHTTPS {
		srv.Addr = ":" + strconv.Itoa(cfg.Server.HTTPSPort)
		srv.TLSConfig = &tls.Config{
			NextProtos: []string{"h2", "http/1.1"},
		}
		if cfg.Server.EnableHTTP2 {
			if err := http2.ConfigureServer(srv, &http2.Server{}); err != nil {
				logger.Fatalf("配置HTTP/2失败: %v", err)
			}
		}
	}

	go func() {
		var err error
		if cfg.Server.EnableHTTPS {
			logger.Infof("HTTPS服务器启动在端口 %d (HTTP/2: %v)", cfg.Server.HTTPSPort, cfg.Server.EnableHTTP2)
			err = srv.ListenAndServeTLS(cfg.Server.TLSCertFile, cfg.Server.TLSKeyFile)
		} else {
			logger.Infof("HTTP服务器启动在端口 %d", cfg.Server.Port)
			err = srv.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("服务器启动失败: %v", err)
		}
	}()

	// 等待中断信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("正在关闭服务器...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Errorf("服务器强制关闭: %v", err)
	}
	if sqlDB, err := r.GetDB().DB(); err == nil {
		_ = sqlDB.Close()
	}

	logger.Info("服务器已退出")
}
