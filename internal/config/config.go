package config

import (
	"encoding/base64"
	"fmt"
	"os"
	"strconv"
	"time"
	_ "time/tzdata"
)

// Config holds all application configuration.
// Values are loaded from environment variables with sensible defaults.
type Config struct {
	// Server
	Port     int
	LogLevel string

	// External services
	ReservasAPIURL string // API de reservas (POST /api/reservas/...)

	// HTTP client
	HTTPTimeout time.Duration

	// Resilience
	MaxRetries     int // total attempts per call, including the first
	InitialBackoff time.Duration
	MaxConcurrency int

	// Chat
	SessionTTL           time.Duration
	AvailabilityCheckTTL time.Duration
	DefaultRestaurantID  string
	RestaurantsFile      string
	WatchRestaurants     bool
	RateLimitPerMin      int
	RateLimitBurst       int
	Timezone             string // IANA name; "Local" = server zone

	// Session store
	UseRedis      bool
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Widget token / session cookie
	WidgetTokenSecret string
	CookieHashKey     string
	CookieBlockKey    string
	CookieSecure      bool

	// Observability
	OTLPEndpoint string
}

// Load reads configuration from environment variables with defaults.
func Load() *Config {
	return &Config{
		Port:     getEnvInt("PORT", 8080),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		ReservasAPIURL: getEnv("RESERVAS_API_URL", "http://localhost:5000"),

		HTTPTimeout: getEnvDuration("HTTP_TIMEOUT", 10*time.Second),

		MaxRetries:     getEnvInt("MAX_RETRIES", 2),
		InitialBackoff: getEnvDuration("INITIAL_BACKOFF", 2*time.Second),
		MaxConcurrency: getEnvInt("MAX_CONCURRENCY", 50),

		SessionTTL:           getEnvDuration("SESSION_TTL", 2*time.Hour),
		AvailabilityCheckTTL: getEnvDuration("AVAILABILITY_CHECK_TTL", 15*time.Minute),
		DefaultRestaurantID:  getEnv("DEFAULT_RESTAURANT_ID", ""),
		RestaurantsFile:      getEnv("RESTAURANTS_FILE", "restaurants.yaml"),
		WatchRestaurants:     getEnvBool("WATCH_RESTAURANTS", true),
		RateLimitPerMin:      getEnvInt("RATE_LIMIT_PER_MIN", 30),
		RateLimitBurst:       getEnvInt("RATE_LIMIT_BURST", 10),
		Timezone:             getEnv("CHAT_TIMEZONE", "America/Argentina/Buenos_Aires"),

		UseRedis:      getEnvBool("USE_REDIS", false),
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		WidgetTokenSecret: getEnv("WIDGET_TOKEN_SECRET", ""),
		CookieHashKey:     getEnv("COOKIE_HASH_KEY", "gandolfo-dev-cookie-hash-key-change-me-32b"),
		CookieBlockKey:    getEnv("COOKIE_BLOCK_KEY", ""),
		CookieSecure:      getEnvBool("COOKIE_SECURE", false),

		OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
	}
}

// Location resolves Timezone. "Local" and "" both mean the server zone.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid CHAT_TIMEZONE %q: %w", c.Timezone, err)
	}
	return loc, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

// DecodeKey returns the bytes of a cookie key. Base64 values (as printed
// by "chatctl keys") are decoded; anything else is used verbatim.
func DecodeKey(s string) []byte {
	if s == "" {
		return nil
	}
	if b, err := base64.StdEncoding.DecodeString(s); err == nil && len(b) >= 16 {
		return b
	}
	return []byte(s)
}
