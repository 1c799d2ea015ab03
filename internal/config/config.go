package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config aggregates application settings that may be sourced from files or environment variables.
type Config struct {
	API      APIConfig      `mapstructure:"api"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	MinIO    MinIOConfig    `mapstructure:"minio"`
	Worker   WorkerConfig   `mapstructure:"worker"`
	Export   ExportConfig   `mapstructure:"export"`
	ClamAV   ClamAVConfig   `mapstructure:"clamav"`
}

// APIConfig contains HTTP server settings.
type APIConfig struct {
	Port int `mapstructure:"port"`
	// BaseURL 是 Worker 访问 API 内部打印页所用的地址（容器网络内）。
	BaseURL          string   `mapstructure:"base_url"`
	InternalSecret   string   `mapstructure:"internal_secret"`
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	JWTPublicKeyPath string   `mapstructure:"jwt_public_key_path"`
}

// DatabaseConfig contains connection options for PostgreSQL.
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Name     string `mapstructure:"name"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	SSLMode  string `mapstructure:"sslmode"`
}

// RedisConfig 包含 Redis 连接配置。
type RedisConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// Addr 返回 host:port 形式的地址。
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// MinIOConfig contains connection options for MinIO/S3-compatible storage.
type MinIOConfig struct {
	Endpoint         string `mapstructure:"endpoint"`
	PublicEndpoint   string `mapstructure:"public_endpoint"`
	AccessKeyID      string `mapstructure:"access_key_id"`
	SecretAccessKey  string `mapstructure:"secret_access_key"`
	UseSSL           bool   `mapstructure:"use_ssl"`
	Bucket           string `mapstructure:"bucket"`
	Region           string `mapstructure:"region"`
	BucketLookup     string `mapstructure:"bucket_lookup"`
	AutoCreateBucket bool   `mapstructure:"auto_create_bucket"`
}

// WorkerConfig 控制 asynq 消费者与无头浏览器。
type WorkerConfig struct {
	Concurrency    int           `mapstructure:"concurrency"`
	BrowserBin     string        `mapstructure:"browser_bin"`
	BrowserTimeout time.Duration `mapstructure:"browser_timeout"`
}

// ExportConfig describes the physical page and the capture parameters of the PDF export.
// Lengths are millimetres. StaleAfter is how long an "exporting" flag is trusted; a worker
// killed mid-export never resets it.
type ExportConfig struct {
	PageWidth     float64       `mapstructure:"page_width"`
	PageHeight    float64       `mapstructure:"page_height"`
	MarginTop     float64       `mapstructure:"margin_top"`
	MarginBottom  float64       `mapstructure:"margin_bottom"`
	MarginLeft    float64       `mapstructure:"margin_left"`
	MarginRight   float64       `mapstructure:"margin_right"`
	BlockGap      float64       `mapstructure:"block_gap"`
	RenderScale   float64       `mapstructure:"render_scale"`
	SettleDelay   time.Duration `mapstructure:"settle_delay"`
	BackgroundKey string        `mapstructure:"background_key"`
	StaleAfter    time.Duration `mapstructure:"stale_after"`
}

// ClamAVConfig 描述病毒扫描服务地址。
type ClamAVConfig struct {
	Addr string `mapstructure:"addr"`
}

// DSN builds a lib/pq compatible connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host,
		d.Port,
		d.User,
		d.Password,
		d.Name,
		d.SSLMode,
	)
}

// Load reads configuration solely from environment variables (with optional defaults).
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if err := bindEnv(v); err != nil {
		return nil, fmt.Errorf("bind env: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.API.AllowedOrigins = splitOrigins(cfg.API.AllowedOrigins)

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// MustLoad wraps Load and panics on failure.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.port", 8080)
	v.SetDefault("api.base_url", "http://localhost:8080")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "showcase")
	v.SetDefault("database.user", "showcase")
	v.SetDefault("database.password", "showcase")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("minio.endpoint", "localhost:9000")
	v.SetDefault("minio.public_endpoint", "http://localhost:9000")
	v.SetDefault("minio.use_ssl", false)
	v.SetDefault("minio.bucket", "showcase")
	v.SetDefault("minio.bucket_lookup", "auto")
	v.SetDefault("minio.auto_create_bucket", true)
	v.SetDefault("worker.concurrency", 4)
	v.SetDefault("worker.browser_timeout", 90*time.Second)
	v.SetDefault("export.page_width", 210.0)
	v.SetDefault("export.page_height", 297.0)
	v.SetDefault("export.margin_top", 12.0)
	v.SetDefault("export.margin_bottom", 12.0)
	v.SetDefault("export.margin_left", 10.0)
	v.SetDefault("export.margin_right", 10.0)
	v.SetDefault("export.block_gap", 4.0)
	v.SetDefault("export.render_scale", 2.0)
	v.SetDefault("export.settle_delay", 300*time.Millisecond)
	v.SetDefault("export.stale_after", 10*time.Minute)
	v.SetDefault("clamav.addr", "tcp://localhost:3310")
}

func bindEnv(v *viper.Viper) error {
	mappings := map[string]string{
		"api.port":                 "API_PORT",
		"api.base_url":             "API_BASE_URL",
		"api.internal_secret":      "INTERNAL_API_SECRET",
		"api.allowed_origins":      "API_ALLOWED_ORIGINS",
		"api.jwt_public_key_path":  "JWT_PUBLIC_KEY_PATH",
		"database.host":            "DATABASE_HOST",
		"database.port":            "DATABASE_PORT",
		"database.name":            "POSTGRES_DB",
		"database.user":            "POSTGRES_USER",
		"database.password":        "POSTGRES_PASSWORD",
		"database.sslmode":         "DATABASE_SSLMODE",
		"redis.host":               "REDIS_HOST",
		"redis.port":               "REDIS_PORT",
		"minio.endpoint":           "MINIO_ENDPOINT",
		"minio.public_endpoint":    "MINIO_PUBLIC_ENDPOINT",
		"minio.access_key_id":      "MINIO_ACCESS_KEY_ID",
		"minio.secret_access_key":  "MINIO_SECRET_ACCESS_KEY",
		"minio.use_ssl":            "MINIO_USE_SSL",
		"minio.bucket":             "MINIO_BUCKET",
		"minio.region":             "MINIO_REGION",
		"minio.bucket_lookup":      "MINIO_BUCKET_LOOKUP",
		"minio.auto_create_bucket": "MINIO_AUTO_CREATE_BUCKET",
		"worker.concurrency":       "WORKER_CONCURRENCY",
		"worker.browser_bin":       "BROWSER_BIN",
		"worker.browser_timeout":   "BROWSER_TIMEOUT",
		"export.page_width":        "EXPORT_PAGE_WIDTH_MM",
		"export.page_height":       "EXPORT_PAGE_HEIGHT_MM",
		"export.margin_top":        "EXPORT_MARGIN_TOP_MM",
		"export.margin_bottom":     "EXPORT_MARGIN_BOTTOM_MM",
		"export.margin_left":       "EXPORT_MARGIN_LEFT_MM",
		"export.margin_right":      "EXPORT_MARGIN_RIGHT_MM",
		"export.block_gap":         "EXPORT_BLOCK_GAP_MM",
		"export.render_scale":      "EXPORT_RENDER_SCALE",
		"export.settle_delay":      "EXPORT_SETTLE_DELAY",
		"export.background_key":    "EXPORT_BACKGROUND_KEY",
		"export.stale_after":       "EXPORT_STALE_AFTER",
		"clamav.addr":              "CLAMAV_ADDR",
	}

	for key, env := range mappings {
		if err := v.BindEnv(key, env); err != nil {
			return fmt.Errorf("bind %s to %s: %w", key, env, err)
		}
	}

	return nil
}

// splitOrigins 兼容以逗号分隔的环境变量写法。
func splitOrigins(raw []string) []string {
	var out []string
	for _, entry := range raw {
		for _, part := range strings.Split(entry, ",") {
			if origin := strings.TrimSpace(part); origin != "" {
				out = append(out, origin)
			}
		}
	}
	return out
}

func validate(cfg Config) error {
	if cfg.API.Port <= 0 {
		return errors.New("api port must be positive")
	}
	if cfg.Database.Host == "" {
		return errors.New("database host is required")
	}
	if cfg.Database.Port <= 0 {
		return errors.New("database port must be positive")
	}
	if cfg.Database.Name == "" {
		return errors.New("database name is required")
	}
	if cfg.Database.User == "" {
		return errors.New("database user is required")
	}
	if cfg.Database.Password == "" {
		return errors.New("database password is required")
	}
	if cfg.Database.SSLMode == "" {
		return errors.New("database sslmode is required")
	}
	if cfg.Redis.Host == "" {
		return errors.New("redis host is required")
	}
	if cfg.Redis.Port <= 0 {
		return errors.New("redis port must be positive")
	}
	if cfg.MinIO.Endpoint == "" {
		return errors.New("minio endpoint is required")
	}
	if cfg.MinIO.AccessKeyID == "" {
		return errors.New("minio access key id is required")
	}
	if cfg.MinIO.SecretAccessKey == "" {
		return errors.New("minio secret access key is required")
	}
	if cfg.MinIO.Bucket == "" {
		return errors.New("minio bucket is required")
	}
	return ValidateExport(cfg.Export)
}

// ValidateExport checks that the page geometry leaves a printable area.
func ValidateExport(e ExportConfig) error {
	if e.PageWidth <= 0 || e.PageHeight <= 0 {
		return errors.New("export page size must be positive")
	}
	if e.MarginTop < 0 || e.MarginBottom < 0 || e.MarginLeft < 0 || e.MarginRight < 0 || e.BlockGap < 0 {
		return errors.New("export margins and gap must not be negative")
	}
	if e.MarginLeft+e.MarginRight >= e.PageWidth {
		return errors.New("export horizontal margins leave no content width")
	}
	if e.MarginTop+e.MarginBottom >= e.PageHeight {
		return errors.New("export vertical margins leave no content height")
	}
	if e.RenderScale < 1 {
		return errors.New("export render scale must be at least 1")
	}
	if e.StaleAfter <= 0 {
		return errors.New("export stale_after must be positive")
	}
	return nil
}
