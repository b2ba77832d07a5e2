package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Server
	ServerPort     string
	ServerHost     string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	MaxRequestBody int64

	// Database
	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	// Redis
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	// Kafka
	KafkaBrokers   []string
	KafkaGroupID   string
	LeadEventTopic string

	// OIDC (operator API)
	OIDCIssuer       string
	OIDCClientID     string
	OIDCClientSecret string

	// Lead capture
	LeadDefaultSource string
	LeadDefaultStatus string
	LeadStatusConfig  string
	StatsCacheTTL     time.Duration

	// Admin notifications
	ResendAPIKey    string
	ResendBaseURL   string
	ResendFromEmail string
	AdminEmails     []string
	NotifyTimeout   time.Duration
}

func Load() *Config {
	return &Config{
		ServerPort:     getEnv("SERVER_PORT", "8080"),
		ServerHost:     getEnv("SERVER_HOST", "0.0.0.0"),
		ReadTimeout:    getDuration("READ_TIMEOUT", 30*time.Second),
		WriteTimeout:   getDuration("WRITE_TIMEOUT", 30*time.Second),
		MaxRequestBody: int64(getIntEnv("MAX_REQUEST_BODY_BYTES", 1*1024*1024)),

		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "celerey"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "celerey123"),
		PostgresDB:       getEnv("POSTGRES_DB", "celerey"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getIntEnv("REDIS_DB", 0),

		KafkaBrokers:   getStringSliceEnv("KAFKA_BROKERS", []string{"localhost:9092"}),
		KafkaGroupID:   getEnv("KAFKA_GROUP_ID", "celerey-api"),
		LeadEventTopic: getEnv("LEAD_EVENT_TOPIC", "leads"),

		OIDCIssuer:       getEnv("OIDC_ISSUER", ""),
		OIDCClientID:     getEnv("OIDC_CLIENT_ID", ""),
		OIDCClientSecret: getEnv("OIDC_CLIENT_SECRET", ""),

		LeadDefaultSource: getEnv("LEAD_DEFAULT_SOURCE", "begin_journey_modal"),
		LeadDefaultStatus: getEnv("LEAD_DEFAULT_STATUS", "new"),
		LeadStatusConfig:  getEnv("LEAD_STATUS_CONFIG", ""),
		StatsCacheTTL:     getDuration("STATS_CACHE_TTL", 1*time.Minute),

		ResendAPIKey:    getEnv("RESEND_API_KEY", ""),
		ResendBaseURL:   getEnv("RESEND_BASE_URL", "https://api.resend.com"),
		ResendFromEmail: getEnv("RESEND_FROM_EMAIL", "notifications@celerey.co"),
		AdminEmails:     getStringSliceEnv("ADMIN_NOTIFICATION_EMAILS", nil),
		NotifyTimeout:   getDuration("NOTIFY_TIMEOUT", 10*time.Second),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getStringSliceEnv(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				out = append(out, trimmed)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
