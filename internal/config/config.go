// Package config handles application configuration from environment variables
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/pepsafe/pepsafe-backend-go/internal/analysis/window"
	"github.com/pepsafe/pepsafe-backend-go/internal/busyness"
	"github.com/pepsafe/pepsafe-backend-go/internal/database"
	"github.com/pepsafe/pepsafe-backend-go/internal/privacy"
	"github.com/pepsafe/pepsafe-backend-go/internal/weather"
)

// Config holds all application configuration
type Config struct {
	// Server settings
	Port               string
	LogLevel           string
	LogFormat          string
	CORSAllowedOrigins string

	// Storage
	DBDriver    database.Dialect
	DBPath      string
	DatabaseURL string
	RedisURL    string

	// Enrichment
	WeatherCacheTTL  time.Duration
	BusynessCacheTTL time.Duration
	WeatherAPIKey    string
	WeatherBaseURL   string
	WeatherTimeout   time.Duration
	HomeZoneRadiusM  float64
	ShortWindow      time.Duration
	LongWindow       time.Duration
	HistoryLookback  time.Duration

	// Security
	APIKey             string
	JWTSecret          string
	RateLimitPerMinute int

	// Default subject
	DefaultSubjectID   string
	DefaultSubjectName string
	DefaultHomeLat     *float64
	DefaultHomeLon     *float64
	PetName            string

	// MQTT ingestion, disabled when MQTTURL is empty
	MQTTURL      string
	MQTTTopic    string
	MQTTClientID string
}

const (
	DefaultPort            = ":8080"
	DefaultDBPath          = "./data/pepsafe.db"
	DefaultLogLevel        = "info"
	DefaultLogFormat       = "text"
	DefaultRateLimit       = 60
	DefaultSubjectID       = "pepper"
	DefaultSubjectName     = "Pepper"
	DefaultHistoryLookback = 10 * time.Minute
	DefaultMQTTTopic       = "owntracks/+/+"
	DefaultMQTTClientID    = "pepsafe-backend"
)

// Load reads configuration from environment variables.
// A .env file in the working directory is loaded first if present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:               normalizePort(getEnv("PORT", DefaultPort)),
		LogLevel:           getEnv("LOG_LEVEL", DefaultLogLevel),
		LogFormat:          getEnv("LOG_FORMAT", DefaultLogFormat),
		CORSAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
		DBDriver:           database.Dialect(strings.ToLower(getEnv("DB_DRIVER", string(database.SQLite)))),
		DBPath:             getEnv("DB_PATH", DefaultDBPath),
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		RedisURL:           os.Getenv("REDIS_URL"),
		WeatherCacheTTL:    getEnvDuration("WEATHER_CACHE_TTL", weather.DefaultCacheTTL),
		BusynessCacheTTL:   getEnvDuration("BUSYNESS_CACHE_TTL", busyness.DefaultCacheTTL),
		WeatherAPIKey:      os.Getenv("OPENWEATHERMAP_API_KEY"),
		WeatherBaseURL:     getEnv("OPENWEATHERMAP_BASE_URL", weather.DefaultBaseURL),
		WeatherTimeout:     getEnvDuration("WEATHER_TIMEOUT", weather.DefaultTimeout),
		HomeZoneRadiusM:    getEnvFloat("HOME_ZONE_RADIUS_METERS", privacy.DefaultRadiusMeters),
		ShortWindow:        getEnvDuration("SHORT_WINDOW", window.DefaultShortWindow),
		LongWindow:         getEnvDuration("LONG_WINDOW", window.DefaultLongWindow),
		HistoryLookback:    getEnvDuration("HISTORY_LOOKBACK", DefaultHistoryLookback),
		APIKey:             os.Getenv("PEPSAFE_API_KEY"),
		JWTSecret:          os.Getenv("JWT_SECRET"),
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", DefaultRateLimit),
		DefaultSubjectID:   getEnv("DEFAULT_SUBJECT_ID", DefaultSubjectID),
		DefaultSubjectName: getEnv("DEFAULT_SUBJECT_NAME", DefaultSubjectName),
		DefaultHomeLat:     getEnvFloatPtr("DEFAULT_HOME_LAT"),
		DefaultHomeLon:     getEnvFloatPtr("DEFAULT_HOME_LON"),
		PetName:            os.Getenv("PET_NAME"),
		MQTTURL:            os.Getenv("MQTT_URL"),
		MQTTTopic:          getEnv("MQTT_TOPIC", DefaultMQTTTopic),
		MQTTClientID:       getEnv("MQTT_CLIENT_ID", DefaultMQTTClientID),
	}
	if cfg.PetName == "" {
		cfg.PetName = cfg.DefaultSubjectName
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks ranges and cross-field constraints
func (c *Config) Validate() error {
	switch c.DBDriver {
	case database.SQLite:
	case database.Postgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when DB_DRIVER=postgres")
		}
	default:
		return fmt.Errorf("DB_DRIVER must be sqlite or postgres, got %q", c.DBDriver)
	}

	if c.HomeZoneRadiusM <= 0 {
		return fmt.Errorf("HOME_ZONE_RADIUS_METERS must be positive")
	}
	if c.ShortWindow <= 0 || c.LongWindow <= 0 {
		return fmt.Errorf("SHORT_WINDOW and LONG_WINDOW must be positive")
	}
	if c.ShortWindow >= c.LongWindow {
		return fmt.Errorf("SHORT_WINDOW must be shorter than LONG_WINDOW")
	}
	if c.HistoryLookback < c.LongWindow {
		return fmt.Errorf("HISTORY_LOOKBACK must be at least LONG_WINDOW")
	}
	if c.WeatherTimeout <= 0 {
		return fmt.Errorf("WEATHER_TIMEOUT must be positive")
	}
	if c.RateLimitPerMinute < 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must not be negative")
	}
	if (c.DefaultHomeLat == nil) != (c.DefaultHomeLon == nil) {
		return fmt.Errorf("DEFAULT_HOME_LAT and DEFAULT_HOME_LON must be set together")
	}
	if c.DefaultHomeLat != nil && (*c.DefaultHomeLat < -90 || *c.DefaultHomeLat > 90) {
		return fmt.Errorf("DEFAULT_HOME_LAT must be within [-90, 90]")
	}
	if c.DefaultHomeLon != nil && (*c.DefaultHomeLon < -180 || *c.DefaultHomeLon > 180) {
		return fmt.Errorf("DEFAULT_HOME_LON must be within [-180, 180]")
	}
	return nil
}

// Helper functions

func normalizePort(port string) string {
	if strings.Contains(port, ":") {
		return port
	}
	return ":" + port
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvFloatPtr(key string) *float64 {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil
	}
	return &f
}

// getEnvDuration accepts Go durations ("90s") or plain seconds ("600").
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}
