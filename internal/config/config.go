package config

import (
	"fmt"
	"strings"

	"github.com/adstatus-next/internal/logger"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config 应用配置结构
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
	Database DatabaseConfig `mapstructure:"database"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	OTP      OTPConfig      `mapstructure:"otp"`
	Captcha  CaptchaConfig  `mapstructure:"captcha"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Queue    QueueConfig    `mapstructure:"queue"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Upload   UploadConfig   `mapstructure:"upload"`
	Telegram TelegramConfig `mapstructure:"telegram"`
	CORS     CORSConfig     `mapstructure:"cors"`
	Security SecurityConfig `mapstructure:"security"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Campaign CampaignConfig `mapstructure:"campaign"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // debug / release
}

// LogConfig 日志配置
type LogConfig struct {
	Dir        string `mapstructure:"dir"`
	Filename   string `mapstructure:"filename"`
	Level      string `mapstructure:"level"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
	Stdout     bool   `mapstructure:"stdout"`
}

// ToLoggerOptions 转换为 logger 配置
func (c LogConfig) ToLoggerOptions() logger.Options {
	return logger.Options{
		Dir:        c.Dir,
		Filename:   c.Filename,
		Level:      c.Level,
		MaxSizeMB:  c.MaxSizeMB,
		MaxBackups: c.MaxBackups,
		MaxAgeDays: c.MaxAgeDays,
		Compress:   c.Compress,
		Stdout:     c.Stdout,
	}
}

// DatabasePoolConfig 数据库连接池配置
type DatabasePoolConfig struct {
	MaxOpenConns           int `mapstructure:"max_open_conns"`
	MaxIdleConns           int `mapstructure:"max_idle_conns"`
	ConnMaxLifetimeSeconds int `mapstructure:"conn_max_lifetime_seconds"`
	ConnMaxIdleTimeSeconds int `mapstructure:"conn_max_idle_time_seconds"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Driver string             `mapstructure:"driver"` // 数据库驱动（sqlite/postgres）
	DSN    string             `mapstructure:"dsn"`
	Pool   DatabasePoolConfig `mapstructure:"pool"`
}

// JWTConfig JWT 配置
type JWTConfig struct {
	SecretKey   string `mapstructure:"secret"`
	ExpireHours int    `mapstructure:"expire_hours"`
}

// OTPConfig 手机验证码配置
type OTPConfig struct {
	Length              int    `mapstructure:"length"`
	ExpireMinutes       int    `mapstructure:"expire_minutes"`
	SendIntervalSeconds int    `mapstructure:"send_interval_seconds"`
	MaxAttempts         int    `mapstructure:"max_attempts"`
	Gateway             string `mapstructure:"gateway"` // log / whatsapp
	GatewayURL          string `mapstructure:"gateway_url"`
	GatewayToken        string `mapstructure:"gateway_token"`
	DefaultCountryCode  string `mapstructure:"default_country_code"`
}

// CaptchaConfig 图片验证码配置
type CaptchaConfig struct {
	Provider      string `mapstructure:"provider"` // none / image
	Length        int    `mapstructure:"length"`
	Width         int    `mapstructure:"width"`
	Height        int    `mapstructure:"height"`
	NoiseCount    int    `mapstructure:"noise_count"`
	ShowLine      int    `mapstructure:"show_line"`
	ExpireSeconds int    `mapstructure:"expire_seconds"`
	MaxStore      int    `mapstructure:"max_store"`
}

// RedisConfig Redis 配置
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

// QueueConfig 异步队列配置
type QueueConfig struct {
	Enabled                  bool           `mapstructure:"enabled"`
	Host                     string         `mapstructure:"host"`
	Port                     int            `mapstructure:"port"`
	Password                 string         `mapstructure:"password"`
	DB                       int            `mapstructure:"db"`
	Concurrency              int            `mapstructure:"concurrency"`
	Queues                   map[string]int `mapstructure:"queues"`
	DeadlineScanIntervalSecs int            `mapstructure:"deadline_scan_interval_seconds"`
}

// StorageConfig 对象存储配置
type StorageConfig struct {
	Driver        string `mapstructure:"driver"` // local / minio
	LocalDir      string `mapstructure:"local_dir"`
	PublicBaseURL string `mapstructure:"public_base_url"`
	Endpoint      string `mapstructure:"endpoint"`
	AccessKey     string `mapstructure:"access_key"`
	SecretKey     string `mapstructure:"secret_key"`
	Bucket        string `mapstructure:"bucket"`
	UseSSL        bool   `mapstructure:"use_ssl"`
}

// UploadConfig 文件上传配置
type UploadConfig struct {
	ProofMaxSize      int64    `mapstructure:"proof_max_size"`
	MediaMaxSize      int64    `mapstructure:"media_max_size"`
	ProofExtensions   []string `mapstructure:"proof_extensions"`
	MediaExtensions   []string `mapstructure:"media_extensions"`
	ProofContentTypes []string `mapstructure:"proof_content_types"`
}

// TelegramConfig Telegram 推送配置
type TelegramConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	BotToken    string `mapstructure:"bot_token"`
	AdminChatID string `mapstructure:"admin_chat_id"`
}

// CORSConfig 跨域配置
type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

// SecurityConfig 安全配置
type SecurityConfig struct {
	OTPRateLimit RateLimitConfig `mapstructure:"otp_rate_limit"`
}

// RateLimitConfig 限流配置
type RateLimitConfig struct {
	WindowSeconds int `mapstructure:"window_seconds"`
	MaxAttempts   int `mapstructure:"max_attempts"`
	BlockSeconds  int `mapstructure:"block_seconds"`
}

// CacheConfig 查询缓存配置
type CacheConfig struct {
	Driver           string `mapstructure:"driver"` // memory / redis
	StaleSeconds     int    `mapstructure:"stale_seconds"`
	UsersSeconds     int    `mapstructure:"users_seconds"`
	StatsSeconds     int    `mapstructure:"stats_seconds"`
	RetryAttempts    int    `mapstructure:"retry_attempts"`
	RetryDelayMillis int    `mapstructure:"retry_delay_ms"`
}

// CampaignConfig 广告业务配置
type CampaignConfig struct {
	Currency              string `mapstructure:"currency"`
	ProofDeadlineHours    int    `mapstructure:"proof_deadline_hours"`
	ExpiringSoonHours     int    `mapstructure:"expiring_soon_hours"`
	MinEstimatedViews     int    `mapstructure:"min_estimated_views"`
	MaxEstimatedViews     int    `mapstructure:"max_estimated_views"`
	DefaultEstimatedViews int    `mapstructure:"default_estimated_views"`
	DebitBudgetOnApproval bool   `mapstructure:"debit_budget_on_approval"`
	CommissionRate        string `mapstructure:"commission_rate"`
	ReferralBonus         string `mapstructure:"referral_bonus"`
	SnowflakeNode         int64  `mapstructure:"snowflake_node"`
}

// Load 从 .env 与 config.yml 加载配置
func Load() *Config {
	if err := godotenv.Load(); err == nil {
		logger.Infow("config_env_file_loaded", "file", ".env")
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("../")   // 从 cmd/server 运行
	v.AddConfigPath("./etc") // etc 文件夹

	setDefaults(v)

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(envKeyReplacer())

	if err := v.ReadInConfig(); err != nil {
		logger.Warnw("config_file_read_failed",
			"error", err,
			"fallback", "env_or_defaults",
		)
	} else {
		logger.Infow("config_file_loaded", "file", v.ConfigFileUsed())
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		logger.Errorw("config_unmarshal_failed", "error", err)
		panic(fmt.Errorf("config unmarshal failed: %w", err))
	}
	return &cfg
}

// envKeyReplacer server.port -> SERVER_PORT
func envKeyReplacer() *strings.Replacer {
	return strings.NewReplacer(".", "_")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "debug")

	v.SetDefault("log.dir", "")
	v.SetDefault("log.filename", "adstatus.log")
	v.SetDefault("log.level", "")
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 7)
	v.SetDefault("log.max_age_days", 30)
	v.SetDefault("log.compress", true)
	v.SetDefault("log.stdout", false)

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "./db/adstatus.db")
	v.SetDefault("database.pool.max_open_conns", 1)
	v.SetDefault("database.pool.max_idle_conns", 1)
	v.SetDefault("database.pool.conn_max_lifetime_seconds", 0)
	v.SetDefault("database.pool.conn_max_idle_time_seconds", 0)

	v.SetDefault("jwt.secret", "change-me-in-production")
	v.SetDefault("jwt.expire_hours", 168)

	v.SetDefault("otp.length", 6)
	v.SetDefault("otp.expire_minutes", 5)
	v.SetDefault("otp.send_interval_seconds", 60)
	v.SetDefault("otp.max_attempts", 5)
	v.SetDefault("otp.gateway", "log")
	v.SetDefault("otp.gateway_url", "")
	v.SetDefault("otp.gateway_token", "")
	v.SetDefault("otp.default_country_code", "229")

	v.SetDefault("captcha.provider", "none")
	v.SetDefault("captcha.length", 5)
	v.SetDefault("captcha.width", 240)
	v.SetDefault("captcha.height", 80)
	v.SetDefault("captcha.noise_count", 2)
	v.SetDefault("captcha.show_line", 2)
	v.SetDefault("captcha.expire_seconds", 300)
	v.SetDefault("captcha.max_store", 10240)

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "127.0.0.1")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.prefix", "ads")

	v.SetDefault("queue.enabled", false)
	v.SetDefault("queue.host", "127.0.0.1")
	v.SetDefault("queue.port", 6379)
	v.SetDefault("queue.password", "")
	v.SetDefault("queue.db", 1)
	v.SetDefault("queue.concurrency", 10)
	v.SetDefault("queue.queues", map[string]int{
		"default":  10,
		"critical": 5,
	})
	v.SetDefault("queue.deadline_scan_interval_seconds", 600)

	v.SetDefault("storage.driver", "local")
	v.SetDefault("storage.local_dir", "./uploads")
	v.SetDefault("storage.public_base_url", "/uploads")
	v.SetDefault("storage.endpoint", "127.0.0.1:9000")
	v.SetDefault("storage.access_key", "")
	v.SetDefault("storage.secret_key", "")
	v.SetDefault("storage.bucket", "campaign-media")
	v.SetDefault("storage.use_ssl", false)

	v.SetDefault("upload.proof_max_size", 5*1024*1024)
	v.SetDefault("upload.media_max_size", 50*1024*1024)
	v.SetDefault("upload.proof_extensions", []string{".png", ".jpg", ".jpeg"})
	v.SetDefault("upload.media_extensions", []string{".png", ".jpg", ".jpeg", ".webp", ".mp4", ".mov"})
	v.SetDefault("upload.proof_content_types", []string{"image/png", "image/jpeg"})

	v.SetDefault("telegram.enabled", false)
	v.SetDefault("telegram.bot_token", "")
	v.SetDefault("telegram.admin_chat_id", "")

	v.SetDefault("cors.allowed_origins", []string{"*"})
	v.SetDefault("cors.allowed_methods", []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"})
	v.SetDefault("cors.allowed_headers", []string{
		"Content-Type",
		"Content-Length",
		"Accept-Encoding",
		"Accept-Language",
		"Authorization",
		"Cache-Control",
		"X-Requested-With",
		"X-Request-ID",
	})
	v.SetDefault("cors.allow_credentials", true)
	v.SetDefault("cors.max_age", 600)

	v.SetDefault("security.otp_rate_limit.window_seconds", 300)
	v.SetDefault("security.otp_rate_limit.max_attempts", 5)
	v.SetDefault("security.otp_rate_limit.block_seconds", 900)

	v.SetDefault("cache.driver", "memory")
	v.SetDefault("cache.stale_seconds", 300)
	v.SetDefault("cache.users_seconds", 120)
	v.SetDefault("cache.stats_seconds", 300)
	v.SetDefault("cache.retry_attempts", 3)
	v.SetDefault("cache.retry_delay_ms", 1000)

	v.SetDefault("campaign.currency", "XOF")
	v.SetDefault("campaign.proof_deadline_hours", 24)
	v.SetDefault("campaign.expiring_soon_hours", 23)
	v.SetDefault("campaign.min_estimated_views", 1)
	v.SetDefault("campaign.max_estimated_views", 1000)
	v.SetDefault("campaign.default_estimated_views", 100)
	v.SetDefault("campaign.debit_budget_on_approval", true)
	v.SetDefault("campaign.commission_rate", "0.10")
	v.SetDefault("campaign.referral_bonus", "0")
	v.SetDefault("campaign.snowflake_node", 1)
}
