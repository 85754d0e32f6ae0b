package config

import (
	"log"
	"os"
	"strconv"
)

// Config holds application configuration loaded from environment variables
type Config struct {
	// Upstream zaobao API
	AlapiToken   string
	AlapiURL     string
	AlapiTimeout int // seconds

	// Infrastructure
	DatabaseURL string
	RedisURL    string

	// Chat collaborator webhook
	ChatWebhookURL    string
	ChatWebhookSecret string

	// Scheduling
	BriefingSchedule string // cron expression
	BriefingTimezone string

	// Rendering policy
	NewsBullet      string
	EmptyNewsPolicy string // "placeholder" or "fail"

	// Service
	APIKey             string
	TokenEncryptionKey string
	SourceDir          string
	LogLevel           string
	LogFormat          string
	Env                string
	Port               string
}

// Load reads configuration from environment variables
func Load() *Config {
	cfg := &Config{
		AlapiToken:         os.Getenv("ALAPI_TOKEN"),
		AlapiURL:           getEnvWithDefault("ALAPI_URL", "https://v3.alapi.cn/api/zaobao"),
		AlapiTimeout:       getEnvIntWithDefault("ALAPI_TIMEOUT_SECONDS", 10),
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		RedisURL:           getEnvWithDefault("REDIS_URL", "redis://localhost:6379/0"),
		ChatWebhookURL:     os.Getenv("CHAT_WEBHOOK_URL"),
		ChatWebhookSecret:  os.Getenv("CHAT_WEBHOOK_SECRET"),
		BriefingSchedule:   getEnvWithDefault("BRIEFING_SCHEDULE", "0 7 * * *"),
		BriefingTimezone:   getEnvWithDefault("BRIEFING_TIMEZONE", "Asia/Shanghai"),
		NewsBullet:         os.Getenv("BRIEFING_NEWS_BULLET"),
		EmptyNewsPolicy:    getEnvWithDefault("BRIEFING_EMPTY_NEWS_POLICY", "placeholder"),
		APIKey:             os.Getenv("API_KEY"),
		TokenEncryptionKey: os.Getenv("TOKEN_ENCRYPTION_KEY"),
		SourceDir:          getEnvWithDefault("SOURCE_DIR", "sources.d"),
		LogLevel:           getEnvWithDefault("LOG_LEVEL", "info"),
		LogFormat:          getEnvWithDefault("LOG_FORMAT", "text"),
		Env:                getEnvWithDefault("ENV", "development"),
		Port:               getEnvWithDefault("PORT", "8080"),
	}

	// Warn if the API is open (no key means no auth on the JSON API)
	if cfg.APIKey == "" {
		log.Println("WARNING: API_KEY not set. The briefing API will accept unauthenticated requests.")
	}

	return cfg
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntWithDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		log.Printf("WARNING: invalid %s=%q, using default %d", key, value, defaultValue)
		return defaultValue
	}
	return n
}
