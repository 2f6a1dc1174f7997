package config

import (
	"errors"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config stores the application configuration.
type Config struct {
	ListenAddr string
	Env        string // NODE_ENV, "production" turns on secure cookies

	// 上游 REST API
	APIBaseURL   string
	AppKey       string
	APITimeout   time.Duration
	APIRateLimit float64 // requests per second, 0 disables the limiter

	MaxUploadBytes int64 // request body cap for the upload form
	SessionMaxAge  time.Duration

	TemplateDir string // when set, templates are read from disk and reloaded on change

	// Redis配置，RedisHost 为空时使用内存存储
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	LogLevel      string
	LogFile       string
	LogMaxSize    int
	LogMaxBackups int
	LogMaxAge     int
}

// ErrMissingAPI is returned by Validate when the upstream API is not configured.
var ErrMissingAPI = errors.New("config: API base URL and app key are required")

// getEnv gets an environment variable or returns a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// getEnvFirst returns the first set variable among keys.
func getEnvFirst(fallback string, keys ...string) string {
	for _, key := range keys {
		if value, exists := os.LookupEnv(key); exists && value != "" {
			return value
		}
	}
	return fallback
}

// getEnvInt gets an environment variable as int or returns a default value.
func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value, exists := os.LookupEnv(key); exists {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

// Load loads configuration from environment variables (via .env file) or defaults.
func Load() *Config {
	// godotenv.Load() will not override existing env vars.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found or error loading .env, relying on existing environment variables and defaults.")
	}

	return &Config{
		ListenAddr:     getEnv("LISTEN_ADDR", ":8080"),
		Env:            getEnv("NODE_ENV", "development"),
		APIBaseURL:     strings.TrimRight(getEnvFirst("", "NEXT_PUBLIC_API_BASE_URL", "API_BASE_URL"), "/"),
		AppKey:         getEnvFirst("", "NEXT_PUBLIC_APP_KEY", "APP_KEY"),
		APITimeout:     getEnvDuration("API_TIMEOUT", 15*time.Second),
		APIRateLimit:   getEnvFloat("API_RATE_LIMIT", 0),
		MaxUploadBytes: int64(getEnvInt("MAX_UPLOAD_MB", 8)) << 20, // 与原前端 bodySizeLimit 一致
		SessionMaxAge:  getEnvDuration("SESSION_MAX_AGE", 7*24*time.Hour),
		TemplateDir:    getEnv("TEMPLATE_DIR", ""),
		RedisHost:      getEnv("REDIS_HOST", ""),
		RedisPort:      getEnv("REDIS_PORT", "6379"),
		RedisPassword:  getEnv("REDIS_PASSWORD", ""),
		RedisDB:        getEnvInt("REDIS_DB", 0),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFile:        getEnv("LOG_FILE", ""),
		LogMaxSize:     getEnvInt("LOG_MAX_SIZE", 100),
		LogMaxBackups:  getEnvInt("LOG_MAX_BACKUPS", 5),
		LogMaxAge:      getEnvInt("LOG_MAX_AGE", 30),
	}
}

// Production reports whether the server runs with NODE_ENV=production.
func (c *Config) Production() bool {
	return c.Env == "production"
}

// RedisEnabled reports whether a redis host was configured.
func (c *Config) RedisEnabled() bool {
	return c.RedisHost != ""
}

// RedisAddr returns host:port for the redis client.
func (c *Config) RedisAddr() string {
	return c.RedisHost + ":" + c.RedisPort
}

// Validate checks the settings the server cannot start without.
func (c *Config) Validate() error {
	if c.APIBaseURL == "" || c.AppKey == "" {
		return ErrMissingAPI
	}
	return nil
}
