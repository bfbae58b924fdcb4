// Package config 负责加载应用配置
// 配置来源依次为默认值、config.yaml 文件以及 PHOTOMETA_ 前缀的环境变量
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
	"github.com/weiwangfds/photometa/internal/logger"
)

// EnvPrefix 环境变量前缀，例如 server.port 对应 PHOTOMETA_SERVER_PORT
const EnvPrefix = "PHOTOMETA"

// Config 应用配置根结构
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Log      logger.Config  `mapstructure:"log"`
	Mirror   MirrorConfig   `mapstructure:"mirror"`
	App      AppConfig      `mapstructure:"app"`
}

// ServerConfig HTTP服务配置
type ServerConfig struct {
	Port         int    `mapstructure:"port"`
	Mode         string `mapstructure:"mode"` // debug, release, test
	EnableHTTPS  bool   `mapstructure:"enable_https"`
	EnableHTTP2  bool   `mapstructure:"enable_http2"`
	HTTPSPort    int    `mapstructure:"https_port"`
	TLSCertFile  string `mapstructure:"tls_cert_file"`
	TLSKeyFile   string `mapstructure:"tls_key_file"`
	ReadTimeout  int    `mapstructure:"read_timeout"`  // 秒
	WriteTimeout int    `mapstructure:"write_timeout"` // 秒
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Driver          string `mapstructure:"driver"` // sqlite, mysql, postgres
	DSN             string `mapstructure:"dsn"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"` // 秒
	LogLevel        string `mapstructure:"log_level"`         // silent, error, warn, info
}

// StorageConfig JSON文件存储配置
type StorageConfig struct {
	Root          string `mapstructure:"root"`
	ExportsDir    string `mapstructure:"exports_dir"`
	UploadsDir    string `mapstructure:"uploads_dir"`
	MaxUploadSize int64  `mapstructure:"max_upload_size"` // 字节
}

// MirrorConfig 导出文件镜像到对象存储的配置
type MirrorConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Provider  string `mapstructure:"provider"` // aliyun, tencent, qiniu, minio
	Region    string `mapstructure:"region"`
	Bucket    string `mapstructure:"bucket"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Endpoint  string `mapstructure:"endpoint"`
	UseSSL    bool   `mapstructure:"use_ssl"`
	Prefix    string `mapstructure:"prefix"`
}

// AppConfig 应用级配置
type AppConfig struct {
	Name     string `mapstructure:"name"`
	Language string `mapstructure:"language"` // en-US, zh-CN
}

// Load 从默认位置加载配置（./config 与当前目录）
func Load() (*Config, error) {
	return LoadFrom("config")
}

// LoadFrom 从指定目录加载配置
// 找不到配置文件时只使用默认值和环境变量
func LoadFrom(dir string) (*Config, error) {
	v := newViper(dir)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func newViper(dir string) *viper.Viper {
	v := viper.New()

	dir = strings.TrimSpace(dir)
	if dir == "" {
		dir = "config"
	}
	v.AddConfigPath(dir)
	v.AddConfigPath(".")
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.enable_https", false)
	v.SetDefault("server.enable_http2", true)
	v.SetDefault("server.https_port", 8443)
	v.SetDefault("server.tls_cert_file", "")
	v.SetDefault("server.tls_key_file", "")
	v.SetDefault("server.read_timeout", 30)
	v.SetDefault("server.write_timeout", 30)

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "data/photometa.db")
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.max_open_conns", 50)
	v.SetDefault("database.conn_max_lifetime", 3600)
	v.SetDefault("database.log_level", "warn")

	v.SetDefault("storage.root", "media")
	v.SetDefault("storage.exports_dir", "json_files")
	v.SetDefault("storage.uploads_dir", "json_uploads")
	v.SetDefault("storage.max_upload_size", 10*1024*1024)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.output", "console")
	v.SetDefault("log.file_path", "logs/app.log")

	v.SetDefault("mirror.enabled", false)
	v.SetDefault("mirror.provider", "")
	v.SetDefault("mirror.use_ssl", true)
	v.SetDefault("mirror.prefix", "photometa")

	v.SetDefault("app.name", "Photo Metadata Manager")
	v.SetDefault("app.language", "en-US")
}

func (c *Config) validate() error {
	if c.Storage.MaxUploadSize <= 0 {
		return fmt.Errorf("storage.max_upload_size must be positive, got %d", c.Storage.MaxUploadSize)
	}
	if c.Server.EnableHTTPS && (c.Server.TLSCertFile == "" || c.Server.TLSKeyFile == "") {
		return errors.New("server.tls_cert_file and server.tls_key_file are required when https is enabled")
	}
	if c.Mirror.Enabled && c.Mirror.Provider == "" {
		return errors.New("mirror.provider is required when mirror is enabled")
	}
	return nil
}
