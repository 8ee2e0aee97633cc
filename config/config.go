// Package config loads the application configuration from the environment.
// A .env file is loaded first when present (development convenience).
//
// Each section is its own struct so a component only receives the part it needs.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config carries every configuration value of the process.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	JWT      JWTConfig
	Log      LogConfig
	Cache    CacheConfig
	Kafka    KafkaConfig
	Storage  StorageConfig
	Email    EmailConfig
	Socket   SocketConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host           string
	Port           int
	AllowedOrigins []string
}

// DatabaseConfig holds SQLite settings.
type DatabaseConfig struct {
	Path string // e.g. ./data/leasehub.db
}

// JWTConfig holds access token settings.
type JWTConfig struct {
	Secret            string // signing key, never logged
	AccessTokenExpiry int    // minutes
	CookieName        string // http-only cookie carrying the access token
}

// LogConfig selects the log handler: "dev" and "local" get colored text,
// everything else JSON.
type LogConfig struct {
	Env string
}

// CacheConfig selects the aggregate cache backend.
type CacheConfig struct {
	Driver     string // "memory" | "redis"
	TTLSeconds int
	RedisAddr  string
	RedisDB    int
}

// KafkaConfig enables the domain event stream. Empty Brokers disables it.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// StorageConfig selects where attachments are written.
type StorageConfig struct {
	Driver  string // "disk" | "minio"
	Dir     string
	MaxSize int64 // bytes

	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool
	MinioPublicURL string
}

// EmailConfig enables new-message notifications. Any empty field disables them.
type EmailConfig struct {
	ResendAPIKey string
	FromEmail    string
	AppURL       string
}

// Enabled reports whether every field needed to send email is set.
func (c EmailConfig) Enabled() bool {
	return c.ResendAPIKey != "" && c.FromEmail != "" && c.AppURL != ""
}

// SocketConfig bounds the per-connection auto-join work.
type SocketConfig struct {
	MaxAutoJoinRooms int
}

// Load builds a Config from environment variables.
// Invalid numbers fail with a wrapped error; JWT_SECRET is required.
func Load() (*Config, error) {
	_ = godotenv.Load()

	port, err := getEnvInt("SERVER_PORT", 9090)
	if err != nil {
		return nil, err
	}

	accessExpiry, err := getEnvInt("JWT_ACCESS_EXPIRY_MINUTES", 60)
	if err != nil {
		return nil, err
	}

	cacheTTL, err := getEnvInt("CACHE_TTL_SECONDS", 300)
	if err != nil {
		return nil, err
	}

	redisDB, err := getEnvInt("REDIS_DB", 0)
	if err != nil {
		return nil, err
	}

	maxRooms, err := getEnvInt("SOCKET_MAX_AUTOJOIN_ROOMS", 200)
	if err != nil {
		return nil, err
	}

	maxSize, err := strconv.ParseInt(getEnv("UPLOAD_MAX_SIZE", "26214400"), 10, 64) // 25MB
	if err != nil {
		return nil, fmt.Errorf("invalid UPLOAD_MAX_SIZE: %w", err)
	}

	minioSSL, err := strconv.ParseBool(getEnv("MINIO_USE_SSL", "false"))
	if err != nil {
		return nil, fmt.Errorf("invalid MINIO_USE_SSL: %w", err)
	}

	jwtSecret := getEnv("JWT_SECRET", "")
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET environment variable is required")
	}

	cfg := &Config{
		Server: ServerConfig{
			Host:           getEnv("SERVER_HOST", "0.0.0.0"),
			Port:           port,
			AllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),
		},
		Database: DatabaseConfig{
			Path: getEnv("DATABASE_PATH", "./data/leasehub.db"),
		},
		JWT: JWTConfig{
			Secret:            jwtSecret,
			AccessTokenExpiry: accessExpiry,
			CookieName:        getEnv("JWT_COOKIE_NAME", "accessToken"),
		},
		Log: LogConfig{
			Env: getEnv("APP_ENV", "dev"),
		},
		Cache: CacheConfig{
			Driver:     getEnv("CACHE_DRIVER", "memory"),
			TTLSeconds: cacheTTL,
			RedisAddr:  getEnv("REDIS_ADDR", "localhost:6379"),
			RedisDB:    redisDB,
		},
		Kafka: KafkaConfig{
			Brokers: splitList(getEnv("KAFKA_BROKERS", "")),
			Topic:   getEnv("KAFKA_TOPIC", "leasehub.events"),
		},
		Storage: StorageConfig{
			Driver:         getEnv("STORAGE_DRIVER", "disk"),
			Dir:            getEnv("UPLOAD_DIR", "./data/uploads"),
			MaxSize:        maxSize,
			MinioEndpoint:  getEnv("MINIO_ENDPOINT", ""),
			MinioAccessKey: getEnv("MINIO_ACCESS_KEY", ""),
			MinioSecretKey: getEnv("MINIO_SECRET_KEY", ""),
			MinioBucket:    getEnv("MINIO_BUCKET", "attachments"),
			MinioUseSSL:    minioSSL,
			MinioPublicURL: getEnv("MINIO_PUBLIC_URL", ""),
		},
		Email: EmailConfig{
			ResendAPIKey: getEnv("RESEND_API_KEY", ""),
			FromEmail:    getEnv("EMAIL_FROM", ""),
			AppURL:       getEnv("APP_URL", ""),
		},
		Socket: SocketConfig{
			MaxAutoJoinRooms: maxRooms,
		},
	}

	switch cfg.Cache.Driver {
	case "memory", "redis":
	default:
		return nil, fmt.Errorf("invalid CACHE_DRIVER %q (want memory or redis)", cfg.Cache.Driver)
	}

	switch cfg.Storage.Driver {
	case "disk", "minio":
	default:
		return nil, fmt.Errorf("invalid STORAGE_DRIVER %q (want disk or minio)", cfg.Storage.Driver)
	}

	return cfg, nil
}

// Addr returns the listen address (e.g. "0.0.0.0:9090").
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// getEnv reads an environment variable, returning fallback when unset.
func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

// splitList turns "a, b,,c" into ["a" "b" "c"].
func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
