package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

const (
	defaultGoogleIssuer  = "https://accounts.google.com"
	defaultGoogleJWKSURL = "https://www.googleapis.com/oauth2/v3/certs"
)

// Config holds application configuration
type Config struct {
	DatabaseURL        string
	ServerPort         string
	FrontendURL        string
	EnableHSTS         bool
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string
	GoogleIssuer       string
	GoogleJWKSURL      string
	RedisURL           string
	RedisKeyPrefix     string
	RabbitMQURL        string
	RabbitMQPrefetch   int
	LoginRateLimit     string
	DefaultLanguage    string
	ServerDebugMode    bool
	WorkerDebugMode    bool
	OTELEnabled        bool
	OTELEndpoint       string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		ServerPort:         getEnv("SERVER_PORT", "8080"),
		FrontendURL:        getEnv("FRONTEND_URL", "http://localhost:3000"),
		EnableHSTS:         getEnvBool("ENABLE_HSTS", false),
		GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
		GoogleRedirectURL:  getEnv("GOOGLE_REDIRECT_URL", ""),
		GoogleIssuer:       getEnv("GOOGLE_ISSUER", defaultGoogleIssuer),
		GoogleJWKSURL:      getEnv("GOOGLE_JWKS_URL", defaultGoogleJWKSURL),
		RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379/0"),
		RedisKeyPrefix:     getEnv("REDIS_KEY_PREFIX", "loginflow"),
		RabbitMQURL:        getEnv("RABBITMQ_URL", ""),
		RabbitMQPrefetch:   getEnvInt("RABBITMQ_PREFETCH", 1),
		LoginRateLimit:     getEnv("LOGIN_RATE_LIMIT", "5-S"),
		DefaultLanguage:    getEnv("DEFAULT_LANGUAGE", languageFromLocale(os.Getenv("LANG"))),
		ServerDebugMode:    getEnvBool("SERVER_DEBUG_MODE", false),
		WorkerDebugMode:    getEnvBool("WORKER_DEBUG_MODE", false),
		OTELEnabled:        getEnvBool("OTEL_ENABLED", false),
		OTELEndpoint:       getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.GoogleClientID == "" {
		return nil, fmt.Errorf("GOOGLE_CLIENT_ID is required to verify Google ID tokens")
	}

	return cfg, nil
}

// EventsEnabled reports whether session events are published to RabbitMQ
func (c *Config) EventsEnabled() bool {
	return c.RabbitMQURL != ""
}

// languageFromLocale extracts the language part of a POSIX locale such as
// "tr_TR.UTF-8". An unset or "C"/"POSIX" locale yields "en".
func languageFromLocale(locale string) string {
	locale = strings.TrimSpace(locale)
	if locale == "" || locale == "C" || locale == "POSIX" {
		return "en"
	}
	if i := strings.IndexAny(locale, "_.@-"); i >= 0 {
		locale = locale[:i]
	}
	return strings.ToLower(locale)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
