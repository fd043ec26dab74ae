// internal/config/config.go

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Environment string
	LogLevel    string
	Server      ServerConfig
	Database    DatabaseConfig
	NATS        NATSConfig
	Redis       RedisConfig
	Geo         GeoConfig
	Trend       TrendConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	CorsOrigins     []string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Database     string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  time.Duration
	SSLMode      string
}

// NATSConfig holds NATS configuration
type NATSConfig struct {
	URL            string
	MaxReconnects  int
	ReconnectWait  time.Duration
	ConnectTimeout time.Duration
}

// RedisConfig holds Redis configuration for the reaction log
type RedisConfig struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
}

// GeoConfig holds geofence configuration. Distances are in meters.
type GeoConfig struct {
	CheckInThresholdMeters float64
	NearbyRadiusMeters     float64
	MaxRadiusMeters        float64
}

// TrendConfig holds trending detection configuration
type TrendConfig struct {
	TrendingThreshold float64
	WindowMinutes     float64
	RecomputeInterval time.Duration
	ContentLookback   time.Duration
	BatchLimit        int
	EventsTopic       string
}

// Load loads configuration from environment variables, reading .env first when present
func Load() (Config, error) {
	_ = godotenv.Load()

	config := Config{
		Environment: getEnv("APP_ENV", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getEnvAsInt("SERVER_PORT", 8080),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 10*time.Second),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
			CorsOrigins:     getEnvAsSlice("SERVER_CORS_ORIGINS", []string{"*"}),
		},
		Database: DatabaseConfig{
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnvAsInt("DB_PORT", 5432),
			User:         getEnv("DB_USER", "postgres"),
			Password:     getEnv("DB_PASSWORD", "postgres"),
			Database:     getEnv("DB_NAME", "hottakes"),
			MaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
			MaxLifetime:  getEnvAsDuration("DB_MAX_LIFETIME", 5*time.Minute),
			SSLMode:      getEnv("DB_SSL_MODE", "disable"),
		},
		NATS: NATSConfig{
			URL:            getEnv("NATS_URL", "nats://localhost:4222"),
			MaxReconnects:  getEnvAsInt("NATS_MAX_RECONNECTS", 10),
			ReconnectWait:  getEnvAsDuration("NATS_RECONNECT_WAIT", 1*time.Second),
			ConnectTimeout: getEnvAsDuration("NATS_CONNECT_TIMEOUT", 2*time.Second),
		},
		Redis: RedisConfig{
			Enabled:  getEnvAsBool("REDIS_ENABLED", true),
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Geo: GeoConfig{
			CheckInThresholdMeters: getEnvAsFloat("GEO_CHECKIN_THRESHOLD_METERS", 500.0),
			NearbyRadiusMeters:     getEnvAsFloat("GEO_NEARBY_RADIUS_METERS", 5000.0),
			MaxRadiusMeters:        getEnvAsFloat("GEO_MAX_RADIUS_METERS", 50000.0),
		},
		Trend: TrendConfig{
			TrendingThreshold: getEnvAsFloat("TREND_TRENDING_THRESHOLD", 10.0),
			WindowMinutes:     getEnvAsFloat("TREND_WINDOW_MINUTES", 5.0),
			RecomputeInterval: getEnvAsDuration("TREND_RECOMPUTE_INTERVAL", 30*time.Second),
			ContentLookback:   getEnvAsDuration("TREND_CONTENT_LOOKBACK", 24*time.Hour),
			BatchLimit:        getEnvAsInt("TREND_BATCH_LIMIT", 200),
			EventsTopic:       getEnv("TREND_EVENTS_TOPIC", "trending"),
		},
	}

	return config, validate(config)
}

// validate checks if config is valid
func validate(config Config) error {
	if config.Geo.CheckInThresholdMeters <= 0 {
		return fmt.Errorf("GEO_CHECKIN_THRESHOLD_METERS must be positive, got %v", config.Geo.CheckInThresholdMeters)
	}
	if config.Geo.NearbyRadiusMeters <= 0 {
		return fmt.Errorf("GEO_NEARBY_RADIUS_METERS must be positive, got %v", config.Geo.NearbyRadiusMeters)
	}
	if config.Geo.MaxRadiusMeters < config.Geo.NearbyRadiusMeters || config.Geo.MaxRadiusMeters < config.Geo.CheckInThresholdMeters {
		return fmt.Errorf("GEO_MAX_RADIUS_METERS must cover the nearby radius and check-in threshold, got %v", config.Geo.MaxRadiusMeters)
	}
	if config.Trend.TrendingThreshold < 0 {
		return fmt.Errorf("TREND_TRENDING_THRESHOLD must not be negative, got %v", config.Trend.TrendingThreshold)
	}
	if config.Trend.WindowMinutes <= 0 {
		return fmt.Errorf("TREND_WINDOW_MINUTES must be positive, got %v", config.Trend.WindowMinutes)
	}
	if config.Trend.RecomputeInterval <= 0 {
		return fmt.Errorf("TREND_RECOMPUTE_INTERVAL must be positive, got %s", config.Trend.RecomputeInterval)
	}
	if config.Trend.ContentLookback <= 0 {
		return fmt.Errorf("TREND_CONTENT_LOOKBACK must be positive, got %s", config.Trend.ContentLookback)
	}

	return nil
}

// DSN builds the Postgres connection string
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Database, c.SSLMode,
	)
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	parts := strings.Split(valueStr, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}
