package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"sportsbook/internal/external"
	"sportsbook/internal/messaging"
	"sportsbook/internal/search"
	"sportsbook/internal/session"
	"sportsbook/internal/stubserver"

	"github.com/joho/godotenv"
)

// Config содержит конфигурацию приложения
type Config struct {
	LogLevel  string
	LogFormat string

	API     external.Config
	Session SessionConfig
	Query   QueryConfig
	Search  search.Config
	NATS    messaging.Config
	Stub    stubserver.Config
}

// SessionConfig выбирает хранилище токена сессии
type SessionConfig struct {
	Store  string // file | memory | valkey
	Path   string
	Valkey session.ValkeyConfig
}

// QueryConfig - настройки кеша запросов
type QueryConfig struct {
	StaleTime     time.Duration
	UserStaleTime time.Duration
}

// Load загружает конфигурацию из переменных окружения. Variables from a .env file in
// the working directory are applied first without overriding the real environment.
func Load() *Config {
	_ = godotenv.Load(".env")

	return &Config{
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),

		API: external.Config{
			BaseURL: getEnv("SPORTSBOOK_API_URL", "http://localhost:3000"),
			Timeout: time.Duration(getEnvInt("SPORTSBOOK_API_TIMEOUT_SEC", 30)) * time.Second,
		},

		Session: SessionConfig{
			Store: strings.ToLower(getEnv("SESSION_STORE", "file")),
			Path:  getEnv("SESSION_PATH", session.DefaultPath()),
			Valkey: session.ValkeyConfig{
				Addr:     getEnv("VALKEY_ADDR", "localhost:6379"),
				Password: getEnv("VALKEY_PASSWORD", ""),
				DB:       getEnvInt("VALKEY_DB", 0),
				HashKey:  getEnv("VALKEY_SESSION_KEY", session.TokenKey),
				DeviceID: getEnv("DEVICE_ID", hostname()),
			},
		},

		Query: QueryConfig{
			StaleTime:     getEnvDuration("QUERY_STALE_TIME", 0),
			UserStaleTime: getEnvDuration("QUERY_USER_STALE_TIME", 5*time.Minute),
		},

		Search: search.Config{
			Delay:     getEnvDuration("SEARCH_DEBOUNCE", search.DefaultDelay),
			MinLength: getEnvInt("SEARCH_MIN_LENGTH", search.DefaultMinLength),
		},

		NATS: messaging.Config{
			Enabled:   getEnv("NATS_ENABLED", "false") == "true",
			URL:       getEnv("NATS_URL", "nats://localhost:4222"),
			ClusterID: getEnv("NATS_CLUSTER_ID", "sportsbook"),
			ClientID:  getEnv("NATS_CLIENT_ID", "sportsbook-cli"),
		},

		Stub: stubserver.Config{
			Port:       getEnv("PORT", "3000"),
			GinMode:    getEnv("GIN_MODE", "debug"),
			JWTSecret:  getEnv("JWT_SECRET", "stub-secret"),
			TokenTTL:   time.Duration(getEnvInt("TOKEN_TTL_HOURS", 24)) * time.Hour,
			BcryptCost: getEnvInt("BCRYPT_COST", 10),
			Seed:       getEnv("STUB_SEED", "true") == "true",
		},
	}
}

// getEnv получает значение переменной окружения или возвращает значение по умолчанию
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt получает целочисленное значение переменной окружения
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvDuration понимает "300ms", "5m" и т.п.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func hostname() string {
	if h, err := os.Hostname(); err == nil {
		return h
	}
	return "default"
}
