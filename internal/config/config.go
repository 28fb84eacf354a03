package config

import (
	"errors"
	"strings"

	"github.com/blues/helprojects/internal/logger"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// DefaultJWTSecret 仅用于本地开发，启用远程存储时必须替换
const DefaultJWTSecret = "change-me"

// ErrDefaultJWTSecret 远程模式仍在使用默认密钥
var ErrDefaultJWTSecret = errors.New("remote.jwt_secret must be changed before enabling remote mode")

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Remote    RemoteConfig    `mapstructure:"remote"`
	Features  FeatureConfig   `mapstructure:"features"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Log       LogConfig       `mapstructure:"log"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

// StorageConfig 本地存储配置
type StorageConfig struct {
	Driver string      `mapstructure:"driver"` // badger, redis, memory
	Path   string      `mapstructure:"path"`   // badger 数据目录
	Redis  RedisConfig `mapstructure:"redis"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// RemoteConfig 远程存储配置（可选）
type RemoteConfig struct {
	Enabled   bool           `mapstructure:"enabled"`
	Database  DatabaseConfig `mapstructure:"database"`
	JWTSecret string         `mapstructure:"jwt_secret"`
	TokenTTL  int            `mapstructure:"token_ttl"` // 小时
	PoolSize  int            `mapstructure:"pool_size"` // 异步写入协程数
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

// FeatureConfig 功能模块开关
type FeatureConfig struct {
	Gamification bool `mapstructure:"gamification"`
	Chat         bool `mapstructure:"chat"`
}

type SchedulerConfig struct {
	ActivityInterval int `mapstructure:"activity_interval"` // 秒，0 表示关闭
	StatusInterval   int `mapstructure:"status_interval"`   // 秒
	NoticeTTL        int `mapstructure:"notice_ttl"`        // 秒
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // 日志级别: debug, info, warn, error, fatal
	Output string `mapstructure:"output"` // 输出目标: stdout, stderr, file
	File   string `mapstructure:"file"`   // 日志文件路径（当output为file时使用）
}

// GetLevel 实现 logger.LogConfig 接口
func (l LogConfig) GetLevel() string {
	return l.Level
}

// GetOutput 实现 logger.LogConfig 接口
func (l LogConfig) GetOutput() string {
	return l.Output
}

// GetFile 实现 logger.LogConfig 接口
func (l LogConfig) GetFile() string {
	return l.File
}

// SetDefaults 设置默认值
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("storage.driver", "badger")
	v.SetDefault("storage.path", "data")
	v.SetDefault("storage.redis.addr", "localhost:6379")
	v.SetDefault("storage.redis.db", 0)
	v.SetDefault("remote.enabled", false)
	v.SetDefault("remote.database.host", "localhost")
	v.SetDefault("remote.database.port", 5432)
	v.SetDefault("remote.database.user", "postgres")
	v.SetDefault("remote.database.password", "")
	v.SetDefault("remote.database.dbname", "helprojects")
	v.SetDefault("remote.database.sslmode", "disable")
	v.SetDefault("remote.jwt_secret", DefaultJWTSecret)
	v.SetDefault("remote.token_ttl", 24)
	v.SetDefault("remote.pool_size", 4)
	v.SetDefault("features.gamification", true)
	v.SetDefault("features.chat", true)
	v.SetDefault("scheduler.activity_interval", 45)
	v.SetDefault("scheduler.status_interval", 60)
	v.SetDefault("scheduler.notice_ttl", 5)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.output", "stdout")
	v.SetDefault("log.file", "logs/app.log")
}

// Load 读取配置，path 为空时按默认目录查找 config.yaml
func Load(path string) (*Config, error) {
	// .env 可选
	_ = godotenv.Load()

	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/helprojects")
	}

	SetDefaults(v)

	// 自动读取环境变量，例如 HELPROJECTS_SERVER_PORT
	v.SetEnvPrefix("helprojects")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		logger.Warn("Could not find config file, using defaults: %v", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate 检查无法安全运行的配置组合
func (c *Config) Validate() error {
	if c.Remote.Enabled && (c.Remote.JWTSecret == "" || c.Remote.JWTSecret == DefaultJWTSecret) {
		return ErrDefaultJWTSecret
	}
	return nil
}
