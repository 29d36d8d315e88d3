package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config 应用配置，环境变量优先，其次 .env 文件，最后内置默认值
type Config struct {
	App          AppConfig
	Database     DatabaseConfig
	JWT          JWTConfig
	WooCommerce  WooCommerceConfig
	Media        MediaConfig
	HTTP         HTTPConfig
	Log          LogConfig
	InitialAdmin InitialAdminConfig
}

// AppConfig 应用基础配置
type AppConfig struct {
	Name string
	Env  string // development | production
	Port string
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	LogLevel        string // silent | error | warn | info
}

// JWTConfig 令牌配置
type JWTConfig struct {
	Secret          string
	Issuer          string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
}

// WooCommerceConfig 商城同步配置，全部可选
type WooCommerceConfig struct {
	StoreURL       string
	ConsumerKey    string
	ConsumerSecret string
	WebhookSecret  string
	APIVersion     string
	MaxRetries     int
	RetryBackoff   time.Duration
	RequestTimeout time.Duration
	RetrySchedule  string // cron 表达式（含秒），为空则不启用定时重试
	RetryBatchSize int
}

// MediaConfig 媒体存储配置
type MediaConfig struct {
	Backend          string // local | s3
	LocalRoot        string
	BaseURL          string
	S3Bucket         string
	S3Region         string
	S3Endpoint       string
	S3AccessKey      string
	S3SecretKey      string
	SignedURLExpires time.Duration
	MaxUploadBytes   int64
}

// HTTPConfig HTTP 层配置
type HTTPConfig struct {
	RequestIDHeader  string
	RateLimit        string // 如 "60/minute"
	CORSAllowOrigins []string
	MaxWebhookBytes  int64
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string
	Format string
	Output string
}

// InitialAdminConfig 初始管理员
type InitialAdminConfig struct {
	Email       string
	Password    string
	DisplayName string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_NAME", "memshaheb-backend")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("SERVER_PORT", "8001")

	v.SetDefault("DB_MAX_OPEN_CONNS", 50)
	v.SetDefault("DB_MAX_IDLE_CONNS", 10)
	v.SetDefault("DB_CONN_MAX_LIFETIME_MINUTES", 60)
	v.SetDefault("DB_LOG_LEVEL", "warn")

	v.SetDefault("JWT_ISSUER", "memshaheb")
	v.SetDefault("ACCESS_TOKEN_EXPIRE_MINUTES", 60)
	v.SetDefault("REFRESH_TOKEN_EXPIRE_MINUTES", 60*24*14)

	v.SetDefault("WC_API_VERSION", "v3")
	v.SetDefault("WC_MAX_RETRIES", 3)
	v.SetDefault("WC_RETRY_BACKOFF_SECONDS", 1.5)
	v.SetDefault("WC_REQUEST_TIMEOUT_SECONDS", 20)
	v.SetDefault("WC_RETRY_SCHEDULE", "")
	v.SetDefault("WC_RETRY_BATCH_SIZE", 50)

	v.SetDefault("MEDIA_STORAGE_BACKEND", "local")
	v.SetDefault("MEDIA_LOCAL_ROOT", "media")
	v.SetDefault("MEDIA_BASE_URL", "http://localhost:8001/media")
	v.SetDefault("MEDIA_SIGNED_URL_EXPIRE_SECONDS", 3600)
	v.SetDefault("MEDIA_MAX_UPLOAD_MB", 10)

	v.SetDefault("REQUEST_ID_HEADER", "X-Request-ID")
	v.SetDefault("DEFAULT_RATE_LIMIT", "60/minute")
	v.SetDefault("CORS_ALLOW_ORIGINS", "http://localhost:3000,http://localhost:8000")
	v.SetDefault("WC_WEBHOOK_MAX_BYTES", 1<<20)

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "console")
	v.SetDefault("LOG_OUTPUT", "stdout")

	v.SetDefault("INITIAL_ADMIN_EMAIL", "admin@example.com")
	v.SetDefault("INITIAL_ADMIN_PASSWORD", "ChangeMePlease!")
	v.SetDefault("INITIAL_ADMIN_DISPLAY_NAME", "Administrator")
}

// Load 加载配置
// envFile 为空时尝试读取当前目录下的 .env，不存在则忽略
func Load(envFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if envFile == "" {
		envFile = ".env"
	}
	v.SetConfigFile(envFile)
	v.SetConfigType("env")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := FromViper(v)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FromViper 从 viper 实例构建配置（不做校验）
func FromViper(v *viper.Viper) *Config {
	return &Config{
		App: AppConfig{
			Name: v.GetString("APP_NAME"),
			Env:  v.GetString("APP_ENV"),
			Port: v.GetString("SERVER_PORT"),
		},
		Database: DatabaseConfig{
			URL:             v.GetString("DATABASE_URL"),
			MaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: time.Duration(v.GetInt("DB_CONN_MAX_LIFETIME_MINUTES")) * time.Minute,
			LogLevel:        v.GetString("DB_LOG_LEVEL"),
		},
		JWT: JWTConfig{
			Secret:          v.GetString("JWT_SECRET_KEY"),
			Issuer:          v.GetString("JWT_ISSUER"),
			AccessTokenTTL:  time.Duration(v.GetInt("ACCESS_TOKEN_EXPIRE_MINUTES")) * time.Minute,
			RefreshTokenTTL: time.Duration(v.GetInt("REFRESH_TOKEN_EXPIRE_MINUTES")) * time.Minute,
		},
		WooCommerce: WooCommerceConfig{
			StoreURL:       v.GetString("WC_STORE_URL"),
			ConsumerKey:    v.GetString("WC_CONSUMER_KEY"),
			ConsumerSecret: v.GetString("WC_CONSUMER_SECRET"),
			WebhookSecret:  v.GetString("WC_WEBHOOK_SECRET"),
			APIVersion:     v.GetString("WC_API_VERSION"),
			MaxRetries:     v.GetInt("WC_MAX_RETRIES"),
			RetryBackoff:   seconds(v.GetFloat64("WC_RETRY_BACKOFF_SECONDS")),
			RequestTimeout: seconds(v.GetFloat64("WC_REQUEST_TIMEOUT_SECONDS")),
			RetrySchedule:  strings.TrimSpace(v.GetString("WC_RETRY_SCHEDULE")),
			RetryBatchSize: v.GetInt("WC_RETRY_BATCH_SIZE"),
		},
		Media: MediaConfig{
			Backend:          strings.ToLower(v.GetString("MEDIA_STORAGE_BACKEND")),
			LocalRoot:        v.GetString("MEDIA_LOCAL_ROOT"),
			BaseURL:          strings.TrimRight(v.GetString("MEDIA_BASE_URL"), "/"),
			S3Bucket:         v.GetString("MEDIA_S3_BUCKET"),
			S3Region:         v.GetString("MEDIA_S3_REGION"),
			S3Endpoint:       v.GetString("MEDIA_S3_ENDPOINT_URL"),
			S3AccessKey:      v.GetString("MEDIA_S3_ACCESS_KEY_ID"),
			S3SecretKey:      v.GetString("MEDIA_S3_SECRET_ACCESS_KEY"),
			SignedURLExpires: time.Duration(v.GetInt("MEDIA_SIGNED_URL_EXPIRE_SECONDS")) * time.Second,
			MaxUploadBytes:   int64(v.GetInt("MEDIA_MAX_UPLOAD_MB")) << 20,
		},
		HTTP: HTTPConfig{
			RequestIDHeader:  v.GetString("REQUEST_ID_HEADER"),
			RateLimit:        v.GetString("DEFAULT_RATE_LIMIT"),
			CORSAllowOrigins: splitList(v.GetString("CORS_ALLOW_ORIGINS")),
			MaxWebhookBytes:  v.GetInt64("WC_WEBHOOK_MAX_BYTES"),
		},
		Log: LogConfig{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
			Output: v.GetString("LOG_OUTPUT"),
		},
		InitialAdmin: InitialAdminConfig{
			Email:       v.GetString("INITIAL_ADMIN_EMAIL"),
			Password:    v.GetString("INITIAL_ADMIN_PASSWORD"),
			DisplayName: v.GetString("INITIAL_ADMIN_DISPLAY_NAME"),
		},
	}
}

// Validate 校验必填项
func (c *Config) Validate() error {
	if !strings.HasPrefix(c.Database.URL, "postgres") {
		return errors.New("DATABASE_URL must be a PostgreSQL URL")
	}
	if c.JWT.Secret == "" {
		return errors.New("JWT_SECRET_KEY is required")
	}
	if c.Media.Backend != "local" && c.Media.Backend != "s3" {
		return fmt.Errorf("MEDIA_STORAGE_BACKEND must be local or s3, got %q", c.Media.Backend)
	}
	if c.Media.BaseURL == "" {
		return errors.New("MEDIA_BASE_URL cannot be empty")
	}
	if c.WooCommerce.MaxRetries < 1 {
		c.WooCommerce.MaxRetries = 1
	}
	return nil
}

// IsProduction 是否生产环境
func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}

// DSN 去掉 scheme 中的驱动后缀，如 postgresql+driver:// -> postgresql://
func (c DatabaseConfig) DSN() string {
	url := c.URL
	if i := strings.Index(url, "://"); i > 0 {
		if j := strings.Index(url[:i], "+"); j > 0 {
			url = url[:j] + url[i:]
		}
	}
	return url
}

func seconds(f float64) time.Duration {
	return time.Duration(f * float64(time.Second))
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
