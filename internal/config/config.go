package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	JWT       JWTConfig
	Tracing   TracingConfig `mapstructure:"tracing"`
	Redis     RedisConfig
	Events    EventsConfig    `mapstructure:"events"`
	Learning  LearningConfig  `mapstructure:"learning"`
	CORS      CORSConfig      `mapstructure:"cors"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Log       LogConfig       `mapstructure:"log"`

	// 运行时标志（非配置文件，通过命令行参数设置）
	ForceMigrate bool `mapstructure:"-"`
	MigrateOnly  bool `mapstructure:"-"`
}

// LogConfig Level 为空时 debug 模式输出 debug 级别，其它模式为 info
type LogConfig struct {
	Level      string `mapstructure:"level"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type RateLimitConfig struct {
	MaxRequests   int `mapstructure:"max_requests"`
	WindowMinutes int `mapstructure:"window_minutes"`
}

type ServerConfig struct {
	Port string
	Mode string
}

type DatabaseConfig struct {
	Driver    string `mapstructure:"driver"` // mysql | sqlite
	Path      string `mapstructure:"path"`   // sqlite 文件路径
	Host      string
	Port      int
	User      string
	Password  string
	DBName    string
	Charset   string
	ParseTime bool `mapstructure:"parse_time"`
}

type JWTConfig struct {
	Secret     string        `mapstructure:"secret"`
	ExpireTime time.Duration `mapstructure:"expire_hours"`
}

type TracingConfig struct {
	Enabled           bool   `mapstructure:"enabled"`
	CollectorEndpoint string `mapstructure:"collector_endpoint"`
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// EventsConfig 学习行为事件投递（RabbitMQ），AMQPURL 为空时仅落库
type EventsConfig struct {
	AMQPURL  string `mapstructure:"amqp_url"`
	Exchange string `mapstructure:"exchange"`
}

// LearningConfig 推荐与进度计算的可调参数，支持热更新
type LearningConfig struct {
	PassingScore        int `mapstructure:"passing_score"`
	MaxRecommendations  int `mapstructure:"max_recommendations"`
	StaleSuggestionDays int `mapstructure:"stale_suggestion_days"`
	ProgressRetries     int `mapstructure:"progress_retries"`
	PathCacheTTLMinutes int `mapstructure:"path_cache_ttl_minutes"`
}

func (l LearningConfig) PathCacheTTL() time.Duration {
	return time.Duration(l.PathCacheTTLMinutes) * time.Minute
}

// DefaultLearningConfig 与 config.yaml 缺省值保持一致
func DefaultLearningConfig() LearningConfig {
	return LearningConfig{
		PassingScore:        60,
		MaxRecommendations:  10,
		StaleSuggestionDays: 30,
		ProgressRetries:     3,
		PathCacheTTLMinutes: 10,
	}
}

func setDefaults(v *viper.Viper) {
	d := DefaultLearningConfig()
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("database.driver", "mysql")
	v.SetDefault("database.path", "data/athos.db")
	v.SetDefault("database.charset", "utf8mb4")
	v.SetDefault("database.parse_time", true)
	v.SetDefault("jwt.expire_hours", 72)
	v.SetDefault("events.exchange", "athos.learning")
	v.SetDefault("rate_limit.max_requests", 6000)
	v.SetDefault("rate_limit.window_minutes", 1)
	v.SetDefault("log.file", "logs/athos.log")
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 5)
	v.SetDefault("log.max_age_days", 30)
	v.SetDefault("learning.passing_score", d.PassingScore)
	v.SetDefault("learning.max_recommendations", d.MaxRecommendations)
	v.SetDefault("learning.stale_suggestion_days", d.StaleSuggestionDays)
	v.SetDefault("learning.progress_retries", d.ProgressRetries)
	v.SetDefault("learning.path_cache_ttl_minutes", d.PathCacheTTLMinutes)
}

func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.SetEnvPrefix("ATHOS")
	v.AutomaticEnv()
	setDefaults(v)

	// Database
	v.BindEnv("database.driver", "DATABASE_DRIVER")
	v.BindEnv("database.host", "DATABASE_HOST")
	v.BindEnv("database.port", "DATABASE_PORT")
	v.BindEnv("database.user", "DATABASE_USER")
	v.BindEnv("database.password", "DATABASE_PASSWORD")
	v.BindEnv("database.dbname", "DATABASE_NAME")

	// JWT
	v.BindEnv("jwt.secret", "JWT_SECRET")

	// Redis
	v.BindEnv("redis.enabled", "REDIS_ENABLED")
	v.BindEnv("redis.host", "REDIS_HOST")
	v.BindEnv("redis.port", "REDIS_PORT")
	v.BindEnv("redis.password", "REDIS_PASSWORD")

	// Server
	v.BindEnv("server.mode", "SERVER_MODE")

	// Events
	v.BindEnv("events.amqp_url", "AMQP_URL")

	// Log
	v.BindEnv("log.level", "LOG_LEVEL")

	// Tracing
	v.BindEnv("tracing.enabled", "TRACING_ENABLED")
	v.BindEnv("tracing.collector_endpoint", "TRACING_COLLECTOR_ENDPOINT")

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	cfg.JWT.ExpireTime = cfg.JWT.ExpireTime * time.Hour

	if cfg.Server.Mode == "release" && len(cfg.JWT.Secret) < 32 {
		return nil, fmt.Errorf("JWT secret is too short (%d chars), must be at least 32 characters in release mode", len(cfg.JWT.Secret))
	}

	if err := cfg.Learning.Validate(); err != nil {
		return nil, err
	}

	if cfg.Database.Driver == "sqlite" {
		if dir := filepath.Dir(cfg.Database.Path); dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				os.MkdirAll(dir, 0755)
			}
		}
	}

	return &cfg, nil
}

func (l LearningConfig) Validate() error {
	if l.PassingScore < 0 || l.PassingScore > 100 {
		return fmt.Errorf("learning.passing_score must be within [0,100], got %d", l.PassingScore)
	}
	if l.MaxRecommendations <= 0 {
		return fmt.Errorf("learning.max_recommendations must be positive, got %d", l.MaxRecommendations)
	}
	if l.StaleSuggestionDays <= 0 {
		return fmt.Errorf("learning.stale_suggestion_days must be positive, got %d", l.StaleSuggestionDays)
	}
	if l.ProgressRetries <= 0 {
		return fmt.Errorf("learning.progress_retries must be positive, got %d", l.ProgressRetries)
	}
	if l.PathCacheTTLMinutes <= 0 {
		return fmt.Errorf("learning.path_cache_ttl_minutes must be positive, got %d", l.PathCacheTTLMinutes)
	}
	return nil
}
