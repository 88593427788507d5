package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds application configuration loaded from environment.
type Config struct {
	Server   ServerConfig
	Log      LogConfig
	Database DatabaseConfig
	Redis    RedisConfig
	AWS      AWSConfig
	Poll     PollConfig
	Chat     ChatConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port           string
	ReadTimeout    int
	WriteTimeout   int
	AllowedOrigins []string // "*" allows any origin
}

// LogConfig selects the zap level.
type LogConfig struct {
	Level string
}

// DatabaseConfig holds PostgreSQL connection settings. Empty URL keeps poll history in memory.
type DatabaseConfig struct {
	URL string
}

// RedisConfig holds Redis connection settings for the poll history cache.
type RedisConfig struct {
	Addr            string
	Password        string
	DB              int
	HistoryCacheTTL int // seconds
}

// Enabled reports whether a Redis address was configured.
func (c RedisConfig) Enabled() bool { return c.Addr != "" }

// AWSConfig holds credentials and the bucket finished polls are archived to.
type AWSConfig struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	ArchiveBucket   string
}

// ArchiveEnabled reports whether finished polls should be copied to S3.
func (c AWSConfig) ArchiveEnabled() bool { return c.Region != "" && c.ArchiveBucket != "" }

// PollConfig holds poll lifecycle settings.
type PollConfig struct {
	HistoryLimit   int
	RetentionSec   int
	PersistTimeout int // seconds
}

// ChatConfig holds chat log settings.
type ChatConfig struct {
	MaxMessages int
}

const maxHistoryLimit = 50

// Load reads configuration from environment, with optional .env file, and validates it.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:           getEnv("PORT", "3000"),
			ReadTimeout:    getEnvInt("READ_TIMEOUT_SEC", 30),
			WriteTimeout:   getEnvInt("WRITE_TIMEOUT_SEC", 30),
			AllowedOrigins: splitTrim(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:3000"), ","),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Database: DatabaseConfig{
			URL: getEnv("DATABASE_URL", ""),
		},
		Redis: RedisConfig{
			Addr:            getEnv("REDIS_ADDR", ""),
			Password:        getEnv("REDIS_PASSWORD", ""),
			DB:              getEnvInt("REDIS_DB", 0),
			HistoryCacheTTL: getEnvInt("HISTORY_CACHE_TTL_SEC", 30),
		},
		AWS: AWSConfig{
			Region:          getEnv("AWS_REGION", ""),
			AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
			ArchiveBucket:   getEnv("POLL_ARCHIVE_BUCKET", ""),
		},
		Poll: PollConfig{
			HistoryLimit:   getEnvInt("POLL_HISTORY_LIMIT", 10),
			RetentionSec:   getEnvInt("POLL_RETENTION_SEC", 300),
			PersistTimeout: getEnvInt("POLL_PERSIST_TIMEOUT_SEC", 10),
		},
		Chat: ChatConfig{
			MaxMessages: getEnvInt("CHAT_MAX_MESSAGES", 500),
		},
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that cannot be corrected at request time.
func (c *Config) Validate() error {
	var errs []error

	port, err := strconv.Atoi(c.Server.Port)
	if err != nil || port < 1 || port > 65535 {
		errs = append(errs, fmt.Errorf("PORT: %q is not a valid port", c.Server.Port))
	}
	if len(c.Server.AllowedOrigins) == 0 {
		errs = append(errs, errors.New("CORS_ALLOWED_ORIGINS: at least one origin is required"))
	}
	for _, o := range c.Server.AllowedOrigins {
		if o == "*" {
			continue
		}
		u, err := url.Parse(o)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errs = append(errs, fmt.Errorf("CORS_ALLOWED_ORIGINS: %q is not an http(s) origin", o))
		}
	}
	if c.Server.ReadTimeout <= 0 || c.Server.WriteTimeout <= 0 {
		errs = append(errs, errors.New("READ_TIMEOUT_SEC and WRITE_TIMEOUT_SEC must be positive"))
	}
	if c.Poll.HistoryLimit < 1 || c.Poll.HistoryLimit > maxHistoryLimit {
		errs = append(errs, fmt.Errorf("POLL_HISTORY_LIMIT: must be between 1 and %d", maxHistoryLimit))
	}
	if c.Poll.RetentionSec < 0 {
		errs = append(errs, errors.New("POLL_RETENTION_SEC: must not be negative"))
	}
	if c.Poll.PersistTimeout <= 0 {
		errs = append(errs, errors.New("POLL_PERSIST_TIMEOUT_SEC: must be positive"))
	}
	if c.Chat.MaxMessages < 0 {
		errs = append(errs, errors.New("CHAT_MAX_MESSAGES: must not be negative"))
	}
	if c.Redis.DB < 0 {
		errs = append(errs, errors.New("REDIS_DB: must not be negative"))
	}
	if c.Redis.HistoryCacheTTL <= 0 {
		errs = append(errs, errors.New("HISTORY_CACHE_TTL_SEC: must be positive"))
	}
	return errors.Join(errs...)
}

// MaxHistoryLimit is the largest N the history endpoint will serve.
func MaxHistoryLimit() int { return maxHistoryLimit }

// getEnvInt returns -1 for unparsable values so Validate reports them.
func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
		return -1
	}
	return fallback
}

func splitTrim(s, sep string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, v := range strings.Split(s, sep) {
		if t := strings.TrimSpace(v); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
