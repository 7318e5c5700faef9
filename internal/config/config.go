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
	Server      ServerConfig
	Database    DatabaseConfig
	NATS        NATSConfig
	Redis       RedisConfig
	Criteria    CriteriaConfig
	Geolocation GeolocationConfig
	Timezone    TimezoneConfig
	Session     SessionConfig
	RateLimit   RateLimitConfig
	Twitter     TwitterConfig
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

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// CriteriaConfig holds the search criteria defaults and limits
type CriteriaConfig struct {
	MaxRadiusKm      int
	LocatedZoom      int
	FallbackLat      float64
	FallbackLng      float64
	FallbackZoom     int
	DefaultTimezone  string
	DefaultUseLocal  bool
	DefaultStreaming bool
}

// GeolocationConfig holds the geolocation lookup configuration
type GeolocationConfig struct {
	URL     string
	Timeout time.Duration
}

// TimezoneConfig holds the timezone-offset lookup configuration
type TimezoneConfig struct {
	URL      string
	APIKey   string
	Timeout  time.Duration
	CacheTTL time.Duration
}

// SessionConfig holds search session management configuration
type SessionConfig struct {
	EventsTopic        string
	IdleTimeout        time.Duration
	MonitoringInterval time.Duration
	MaxSessions        int
}

// RateLimitConfig holds per-IP rate limiting configuration
type RateLimitConfig struct {
	RPS   int
	Burst int
	TTL   time.Duration
}

// TwitterConfig holds Twitter API v2 credentials. An empty token disables fetching.
type TwitterConfig struct {
	BearerToken string
	Host        string
	MaxResults  int
	Timeout     time.Duration
}

// Load loads configuration from the environment, reading a .env file first if present
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("loading .env: %w", err)
	}

	config := Config{
		Environment: getEnv("APP_ENV", "local"),
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
			Database:     getEnv("DB_NAME", "iwitness"),
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
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Criteria: CriteriaConfig{
			MaxRadiusKm:      getEnvAsInt("CRITERIA_MAX_RADIUS_KM", 75),
			LocatedZoom:      getEnvAsInt("CRITERIA_LOCATED_ZOOM", 9),
			FallbackLat:      getEnvAsFloat("CRITERIA_FALLBACK_LAT", 37.75771992816863),
			FallbackLng:      getEnvAsFloat("CRITERIA_FALLBACK_LNG", -122.43760000000003),
			FallbackZoom:     getEnvAsInt("CRITERIA_FALLBACK_ZOOM", 11),
			DefaultTimezone:  getEnv("CRITERIA_DEFAULT_TIMEZONE", "Local"),
			DefaultUseLocal:  getEnvAsBool("CRITERIA_DEFAULT_USE_LOCAL_TIME", true),
			DefaultStreaming: getEnvAsBool("CRITERIA_DEFAULT_STREAM", false),
		},
		Geolocation: GeolocationConfig{
			URL:     getEnv("GEOLOCATION_URL", "https://freegeoip.app/json/"),
			Timeout: getEnvAsDuration("GEOLOCATION_TIMEOUT", 3*time.Second),
		},
		Timezone: TimezoneConfig{
			URL:      getEnv("TIMEZONE_URL", "https://api.timezonedb.com/v2.1/get-time-zone"),
			APIKey:   getEnv("TIMEZONE_API_KEY", ""),
			Timeout:  getEnvAsDuration("TIMEZONE_TIMEOUT", 3*time.Second),
			CacheTTL: getEnvAsDuration("TIMEZONE_CACHE_TTL", 6*time.Hour),
		},
		Session: SessionConfig{
			EventsTopic:        getEnv("SESSION_EVENTS_TOPIC", "criteria"),
			IdleTimeout:        getEnvAsDuration("SESSION_IDLE_TIMEOUT", 2*time.Hour),
			MonitoringInterval: getEnvAsDuration("SESSION_MONITORING_INTERVAL", 1*time.Minute),
			MaxSessions:        getEnvAsInt("SESSION_MAX_SESSIONS", 10000),
		},
		RateLimit: RateLimitConfig{
			RPS:   getEnvAsInt("RATE_LIMIT_RPS", 10),
			Burst: getEnvAsInt("RATE_LIMIT_BURST", 20),
			TTL:   getEnvAsDuration("RATE_LIMIT_TTL", 5*time.Minute),
		},
		Twitter: TwitterConfig{
			BearerToken: getEnv("TWITTER_BEARER_TOKEN", ""),
			Host:        getEnv("TWITTER_API_HOST", "https://api.twitter.com"),
			MaxResults:  getEnvAsInt("TWITTER_MAX_RESULTS", 100),
			Timeout:     getEnvAsDuration("TWITTER_TIMEOUT", 10*time.Second),
		},
	}

	return config, validate(config)
}

// LoadLocation resolves the configured default viewer timezone
func (c CriteriaConfig) LoadLocation() (*time.Location, error) {
	return time.LoadLocation(c.DefaultTimezone)
}

// validate checks if config is valid
func validate(config Config) error {
	if config.Criteria.MaxRadiusKm <= 0 {
		return fmt.Errorf("CRITERIA_MAX_RADIUS_KM must be positive")
	}
	if config.Criteria.FallbackLat < -90 || config.Criteria.FallbackLat > 90 {
		return fmt.Errorf("CRITERIA_FALLBACK_LAT out of range: %v", config.Criteria.FallbackLat)
	}
	if config.Criteria.FallbackLng < -180 || config.Criteria.FallbackLng > 180 {
		return fmt.Errorf("CRITERIA_FALLBACK_LNG out of range: %v", config.Criteria.FallbackLng)
	}
	for _, zoom := range []int{config.Criteria.LocatedZoom, config.Criteria.FallbackZoom} {
		if zoom < 1 || zoom > 21 {
			return fmt.Errorf("zoom level %d outside 1..21", zoom)
		}
	}
	if _, err := config.Criteria.LoadLocation(); err != nil {
		return fmt.Errorf("invalid CRITERIA_DEFAULT_TIMEZONE: %w", err)
	}
	if config.Twitter.MaxResults < 10 || config.Twitter.MaxResults > 100 {
		return fmt.Errorf("TWITTER_MAX_RESULTS must be between 10 and 100")
	}
	if config.Timezone.APIKey == "" && config.Environment == "prod" {
		return fmt.Errorf("TIMEZONE_API_KEY must be set in prod")
	}

	return nil
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
	return strings.Split(valueStr, ",")
}
